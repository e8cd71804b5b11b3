package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the category of a runtime value.
type Kind uint8

// Kinds of values
const (
	NoneKind Kind = iota
	IntKind
	FloatKind
	StrKind
	BoolKind
	ArrayKind
	ProtoKind
	ClosureKind
	StructTypeKind
	ObjectKind
	HostKind
	BuiltinKind
)

var kindNames = [...]string{"None", "Int", "Float", "Str", "Bool", "Array", "Proto",
	"Function", "StructType", "Object", "HostFunction", "Builtin"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is a value of the virtual machine.
type Value interface {
	Kind() Kind
	String() string
}

// Int is a 64-bit signed integer.
type Int int64

// Float is a 64-bit float.
type Float float64

// Str is a string.
type Str string

// Bool is a boolean.
type Bool bool

// Array is an ordered sequence of values. Arrays own their elements.
type Array []Value

// NoneType is the type of None.
type NoneType struct{}

// None is the absent value.
var None = NoneType{}

func (Int) Kind() Kind      { return IntKind }
func (Float) Kind() Kind    { return FloatKind }
func (Str) Kind() Kind      { return StrKind }
func (Bool) Kind() Kind     { return BoolKind }
func (Array) Kind() Kind    { return ArrayKind }
func (NoneType) Kind() Kind { return NoneKind }

func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Str) String() string { return string(v) }

func (v Float) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}

func (v Bool) String() string {
	if v {
		return "true"
	}
	return "false"
}

func (v Array) String() string {
	items := make([]string, len(v))
	for i, item := range v {
		items[i] = Repr(item)
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func (NoneType) String() string { return "none" }

// Repr is like String, but quotes strings.
func Repr(v Value) string {
	if s, ok := v.(Str); ok {
		return strconv.Quote(string(s))
	}
	if v == nil {
		return "<unresolved>"
	}
	return v.String()
}

// --- Functions --------------------------------------------------------------

// Proto is the prototype of a function: the bytecode block of its body and
// the number of its parameters. Prototypes live in the constant pool.
type Proto struct {
	Block  int
	Params int
}

// Closure is a function value. It captures the scope it has been created in.
type Closure struct {
	Proto  Proto
	Params []int // identifier ids of the parameters
	Scope  *Scope
}

// HostFunc is a symbol serviced by the host. Calling it queues an action.
// Recv is set for methods looked up on objects.
type HostFunc struct {
	Symbol int
	Name   string
	Recv   *Object
}

// Builtin is a function provided by the virtual machine itself, for example
// "import".
type Builtin string

func (Proto) Kind() Kind    { return ProtoKind }
func (*Closure) Kind() Kind { return ClosureKind }
func (HostFunc) Kind() Kind { return HostKind }
func (Builtin) Kind() Kind  { return BuiltinKind }

func (p Proto) String() string {
	return fmt.Sprintf("<proto #%d/%d>", p.Block, p.Params)
}

func (c *Closure) String() string {
	return fmt.Sprintf("<function #%d/%d>", c.Proto.Block, c.Proto.Params)
}

func (h HostFunc) String() string {
	if h.Recv != nil {
		return fmt.Sprintf("<host %s.%s>", h.Recv.TypeName, h.Name)
	}
	return fmt.Sprintf("<host %s>", h.Name)
}

func (b Builtin) String() string {
	return fmt.Sprintf("<builtin %s>", string(b))
}

// --- Structs ----------------------------------------------------------------

// StructType is a registered struct type.
type StructType struct {
	ID     int // identifier id of the type name
	Name   string
	Fields []int // identifier ids of declared fields, in declaration order
}

// FieldValue is a named field of an object.
type FieldValue struct {
	Field int
	Name  string
	Value Value
}

// Object is an instance of a struct type. Objects are shared by reference;
// the host knows them by their ID.
type Object struct {
	ID       int64
	Type     int
	TypeName string
	Fields   []FieldValue
}

func (*StructType) Kind() Kind { return StructTypeKind }
func (*Object) Kind() Kind     { return ObjectKind }

func (st *StructType) String() string {
	return fmt.Sprintf("<type %s>", st.Name)
}

func (o *Object) String() string {
	fields := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, Repr(f.Value))
	}
	return fmt.Sprintf("%s#%d { %s }", o.TypeName, o.ID, strings.Join(fields, ", "))
}

// Field returns the value of a field, if present.
func (o *Object) Field(id int) (Value, bool) {
	for _, f := range o.Fields {
		if f.Field == id {
			return f.Value, true
		}
	}
	return nil, false
}

// SetField sets a field, appending it if not yet present.
func (o *Object) SetField(id int, name string, v Value) {
	for i, f := range o.Fields {
		if f.Field == id {
			o.Fields[i].Value = v
			return
		}
	}
	o.Fields = append(o.Fields, FieldValue{Field: id, Name: name, Value: v})
}

// HasField is true if the type declares a field.
func (st *StructType) HasField(id int) bool {
	for _, f := range st.Fields {
		if f == id {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------

// Copy returns a deep copy of a value. Arrays are copied element by element;
// objects, types and functions are shared.
func Copy(v Value) Value {
	if arr, ok := v.(Array); ok {
		c := make(Array, len(arr))
		for i, item := range arr {
			c[i] = Copy(item)
		}
		return c
	}
	return v
}

// IsNumeric is true for integers and floats.
func IsNumeric(v Value) bool {
	if v == nil {
		return false
	}
	k := v.Kind()
	return k == IntKind || k == FloatKind
}

// Equal compares two values structurally. Objects compare by identity.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Closure:
		y, ok := b.(*Closure)
		return ok && x == y
	}
	return a == b
}
