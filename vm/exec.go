package vm

import (
	"fmt"

	"github.com/npillmayer/donitsi/bytecode"
	"github.com/npillmayer/donitsi/runtime"
)

// exec executes instruction pc within frame fr. It returns true if
// execution has to be suspended until the host resumes the VM.
func (vm *VM) exec(fr *runtime.Frame, pc int, ins bytecode.Instr) (bool, error) {
	switch ins.Op {
	case bytecode.LoadIdent:
		if vm.comp.IsConstructor(fr.Block, pc) {
			return false, vm.construct(fr, ins.Arg)
		}
		return false, vm.loadIdent(fr, ins.Arg)
	case bytecode.Store:
		return false, vm.store(fr)
	case bytecode.LoadConst:
		consts := vm.comp.Consts()
		if ins.Arg < 0 || ins.Arg >= len(consts) {
			return false, fmt.Errorf("%w: constant #%d", ErrBadOperand, ins.Arg)
		}
		fr.PushValue(runtime.Copy(consts[ins.Arg]))
	case bytecode.AddField:
		vm.decl = append(vm.decl, ins.Arg)
	case bytecode.CreateStruct:
		vm.createStruct(fr, ins.Arg)
	case bytecode.StoreField:
		v, err := vm.popValue(fr)
		if err != nil {
			return false, err
		}
		fr.AddField(runtime.FieldValue{Field: ins.Arg, Name: vm.name(ins.Arg), Value: v})
	case bytecode.BeginStruct:
		fr.OpenGroup()
	case bytecode.MakeArray:
		items, err := vm.popValues(fr, ins.Arg)
		if err != nil {
			return false, err
		}
		fr.PushValue(runtime.Array(items))
	case bytecode.MakeFn:
		return false, vm.makeFn(fr, ins.Arg)
	case bytecode.Call:
		return vm.call(fr, ins.Arg)
	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div:
		return false, vm.arith(fr, ins.Op)
	case bytecode.LoadField:
		return false, vm.loadField(fr, ins.Arg)
	case bytecode.Return:
		result, err := vm.result(fr)
		if err != nil {
			return false, err
		}
		fr.Result = result
		if code, ok := vm.comp.Block(fr.Block); ok {
			fr.PC = len(code)
		}
	default:
		return false, fmt.Errorf("%w: unknown opcode %d", ErrBadOperand, ins.Op)
	}
	return false, nil
}

func (vm *VM) name(id int) string {
	return vm.comp.Idents().Name(id)
}

// pop pops an operand, failing on an empty operand stack.
func (vm *VM) pop(fr *runtime.Frame) (runtime.Operand, error) {
	op, ok := fr.Pop()
	if !ok {
		return op, ErrStackUnderflow
	}
	return op, nil
}

// popValue pops an operand which has to carry a value.
func (vm *VM) popValue(fr *runtime.Frame) (runtime.Value, error) {
	op, err := vm.pop(fr)
	if err != nil {
		return nil, err
	}
	return vm.value(op)
}

// popValues pops n operands, all of which have to carry a value, in push order.
func (vm *VM) popValues(fr *runtime.Frame, n int) ([]runtime.Value, error) {
	ops, ok := fr.PopN(n)
	if !ok {
		return nil, ErrStackUnderflow
	}
	values := make([]runtime.Value, n)
	for i, op := range ops {
		v, err := vm.value(op)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (vm *VM) value(op runtime.Operand) (runtime.Value, error) {
	if !op.Resolved() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdent, vm.name(op.Ident))
	}
	return op.Value, nil
}

// result pops the value a frame returns. An empty operand stack returns None.
func (vm *VM) result(fr *runtime.Frame) (runtime.Value, error) {
	op, ok := fr.Pop()
	if !ok {
		return runtime.None, nil
	}
	return vm.value(op)
}

// loadIdent pushes the value bound to an identifier. Unbound identifiers are
// pushed without a value; they may only serve as assignment targets.
func (vm *VM) loadIdent(fr *runtime.Frame, id int) error {
	fr.Push(runtime.Operand{Value: vm.lookup(fr, id), Ident: id})
	return nil
}

func (vm *VM) lookup(fr *runtime.Frame, id int) runtime.Value {
	if tag, _ := fr.Scope.ResolveTag(id); tag != nil {
		return tag.Value
	}
	return nil
}

// construct creates an object of type id from the innermost field group.
// Unbound type names create untyped objects.
func (vm *VM) construct(fr *runtime.Frame, id int) error {
	group := fr.CloseGroup()
	typ := vm.lookup(fr, id)
	st, isType := typ.(*runtime.StructType)
	if typ != nil && !isType {
		return fmt.Errorf("%w: %s is not a struct type", ErrTypeMismatch, vm.name(id))
	}
	if isType {
		for _, f := range group.Fields {
			if !st.HasField(f.Field) {
				return fmt.Errorf("%w: type %s has no field %s", ErrTypeMismatch, st.Name, f.Name)
			}
		}
	}
	obj := vm.rt.NewObject(id, vm.name(id))
	if u, ok := vm.units[fr.Unit]; ok {
		u.objects = append(u.objects, obj.ID)
	}
	vm.actions.put(Construct{ID: obj.ID, Type: obj.TypeName})
	for _, f := range group.Fields {
		obj.SetField(f.Field, f.Name, f.Value)
		vm.actions.put(StoreField{ID: obj.ID, Field: f.Name, Value: f.Value})
	}
	fr.PushValue(obj)
	return nil
}

// store binds a value to the identifier of the operand below it.
func (vm *VM) store(fr *runtime.Frame) error {
	v, err := vm.popValue(fr)
	if err != nil {
		return err
	}
	target, err := vm.pop(fr)
	if err != nil {
		return err
	}
	if target.Ident == runtime.NoIdent {
		return fmt.Errorf("%w: %s", ErrNotAssignable, runtime.Repr(target.Value))
	}
	fr.Scope.Bind(target.Ident, vm.name(target.Ident), runtime.Copy(v))
	return nil
}

// createStruct registers a struct type with the fields declared by preceding
// AddField instructions and binds it to its name.
func (vm *VM) createStruct(fr *runtime.Frame, id int) {
	st := &runtime.StructType{ID: id, Name: vm.name(id), Fields: vm.decl}
	vm.decl = nil
	if old := vm.rt.DefineType(st); old != nil {
		tracer().Infof("redefining type %s", st.Name)
	}
	fr.Scope.Bind(id, st.Name, st)
}

// makeFn creates a closure from a prototype and n parameter operands. The
// closure captures the current scope.
func (vm *VM) makeFn(fr *runtime.Frame, n int) error {
	v, err := vm.popValue(fr)
	if err != nil {
		return err
	}
	proto, ok := v.(runtime.Proto)
	if !ok {
		return fmt.Errorf("%w: expected function prototype, have %s", ErrTypeMismatch, v.Kind())
	}
	if proto.Params != n {
		return fmt.Errorf("%w: prototype has %d parameters, instruction %d", ErrArity, proto.Params, n)
	}
	params, ok := fr.PopN(n)
	if !ok {
		return ErrStackUnderflow
	}
	cl := &runtime.Closure{Proto: proto, Scope: fr.Scope}
	for _, p := range params {
		if p.Ident == runtime.NoIdent {
			return fmt.Errorf("%w: parameter is not an identifier", ErrTypeMismatch)
		}
		cl.Params = append(cl.Params, p.Ident)
	}
	fr.PushValue(cl)
	return nil
}

// call calls a callee with n arguments. Calls of closures push a new frame;
// calls of host functions and imports queue an action and suspend.
func (vm *VM) call(fr *runtime.Frame, n int) (bool, error) {
	args, err := vm.popValues(fr, n)
	if err != nil {
		return false, err
	}
	callee, err := vm.pop(fr)
	if err != nil {
		return false, err
	}
	switch f := callee.Value.(type) {
	case *runtime.Closure:
		return false, vm.callClosure(fr, f, callee.Ident, args)
	case runtime.HostFunc:
		if f.Recv != nil {
			args = append([]runtime.Value{f.Recv}, args...)
		}
		vm.actions.put(Call{ID: f.Symbol, Name: f.Name, Args: args})
		vm.awaiting = true
		return true, nil
	case runtime.Builtin:
		return vm.callBuiltin(f, args)
	case nil:
		if !vm.hostFallback || callee.Ident == runtime.NoIdent {
			return false, fmt.Errorf("%w: %s", ErrUnknownIdent, vm.name(callee.Ident))
		}
		vm.actions.put(Call{ID: callee.Ident, Name: vm.name(callee.Ident), Args: args})
		vm.awaiting = true
		return true, nil
	}
	return false, fmt.Errorf("%w: %s", ErrNotCallable, runtime.Repr(callee.Value))
}

func (vm *VM) callClosure(fr *runtime.Frame, cl *runtime.Closure, id int, args []runtime.Value) error {
	if len(args) != len(cl.Params) {
		return fmt.Errorf("%w: function expects %d, called with %d", ErrArity, len(cl.Params), len(args))
	}
	if vm.rt.Calls.Size() >= vm.maxFrames {
		return fmt.Errorf("%w: limit is %d", ErrStackOverflow, vm.maxFrames)
	}
	name := "<anonymous>"
	if id != runtime.NoIdent {
		name = vm.name(id)
	}
	scope := runtime.NewScope(name, cl.Scope)
	for i, p := range cl.Params {
		scope.Bind(p, vm.name(p), args[i])
	}
	callee := runtime.NewFrame(name, cl.Proto.Block, scope)
	callee.Unit = fr.Unit
	callee.Returns = true
	vm.rt.Calls.Push(callee)
	return nil
}

func (vm *VM) callBuiltin(b runtime.Builtin, args []runtime.Value) (bool, error) {
	switch b {
	case ImportBuiltin:
		if len(args) != 1 {
			return false, fmt.Errorf("%w: import expects 1, called with %d", ErrArity, len(args))
		}
		path, ok := args[0].(runtime.Str)
		if !ok {
			return false, fmt.Errorf("%w: import path must be a string", ErrTypeMismatch)
		}
		vm.actions.put(Import{Path: string(path)})
		vm.awaiting = true
		return true, nil
	}
	return false, fmt.Errorf("%w: unknown builtin %s", ErrNotCallable, string(b))
}

// loadField pops an object and pushes the value of one of its fields. If the
// object has no such field, a method bound to the object is pushed, to be
// serviced by the host.
func (vm *VM) loadField(fr *runtime.Frame, field int) error {
	v, err := vm.popValue(fr)
	if err != nil {
		return err
	}
	obj, ok := v.(*runtime.Object)
	if !ok {
		return fmt.Errorf("%w: cannot access field %s of %s", ErrTypeMismatch, vm.name(field), v.Kind())
	}
	vm.actions.put(LoadField{ID: obj.ID, Field: vm.name(field)})
	if fv, ok := obj.Field(field); ok {
		fr.PushValue(runtime.Copy(fv))
		return nil
	}
	fr.PushValue(runtime.HostFunc{Symbol: field, Name: vm.name(field), Recv: obj})
	return nil
}

// arith applies an arithmetic operator to the two top-most operands.
func (vm *VM) arith(fr *runtime.Frame, op bytecode.Op) error {
	b, err := vm.popValue(fr)
	if err != nil {
		return err
	}
	a, err := vm.popValue(fr)
	if err != nil {
		return err
	}
	r, err := arith(op, a, b)
	if err != nil {
		return err
	}
	fr.PushValue(r)
	return nil
}

func arith(op bytecode.Op, a, b runtime.Value) (runtime.Value, error) {
	if x, ok := a.(runtime.Str); ok && op == bytecode.Add {
		if y, ok := b.(runtime.Str); ok {
			return x + y, nil
		}
	}
	if !runtime.IsNumeric(a) || !runtime.IsNumeric(b) {
		return nil, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, a.Kind(), op, b.Kind())
	}
	x, xint := a.(runtime.Int)
	y, yint := b.(runtime.Int)
	if xint && yint {
		switch op {
		case bytecode.Add:
			return x + y, nil
		case bytecode.Sub:
			return x - y, nil
		case bytecode.Mul:
			return x * y, nil
		}
		if y == 0 {
			return nil, ErrDivisionByZero
		}
		return x / y, nil
	}
	f, g := toFloat(a), toFloat(b)
	switch op {
	case bytecode.Add:
		return f + g, nil
	case bytecode.Sub:
		return f - g, nil
	case bytecode.Mul:
		return f * g, nil
	}
	return f / g, nil
}

func toFloat(v runtime.Value) runtime.Float {
	if i, ok := v.(runtime.Int); ok {
		return runtime.Float(i)
	}
	return v.(runtime.Float)
}
