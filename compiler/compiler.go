/*
Package compiler lowers donitsi ASTs into bytecode.

A compiler owns an identifier table, a constant pool and the list of bytecode
blocks it has produced. All three are append-only and persist across calls to
Compile, so a compiler may be fed one compilation unit after the other (as
does a REPL), with identifiers keeping their ids.

Every function literal is compiled into a block of its own. The enclosing
block loads the parameters as identifiers, loads a function prototype from the
constant pool and creates a closure:

    x => x * 2        0000 LoadIdent(0)
                      0001 LoadConst(0)      // Proto{Block: 1, Params: 1}
                      0002 MakeFn(1)

Struct-instance literals compile their field values and field stores first and
load the type name last. Literals nested within the field values of another
struct-instance literal, and literals without any fields, are preceded by a
BeginStruct marker:

    Ball { x: 1 }     0000 LoadConst(0)
                      0001 StoreField(0)
                      0002 LoadIdent(1)

The compiler records the position of every LoadIdent which completes a
struct-instance literal (instruction 0002 above) as a constructor site of its
block. Execution of a constructor site creates the object.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package compiler

import (
	"fmt"
	"sort"

	"github.com/npillmayer/donitsi/ast"
	"github.com/npillmayer/donitsi/bytecode"
	"github.com/npillmayer/donitsi/runtime"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'donitsi.compiler'.
func tracer() tracing.Trace {
	return tracing.Select("donitsi.compiler")
}

// Compiler lowers AST nodes into bytecode blocks.
type Compiler struct {
	idents  *IdentTable
	consts  []runtime.Value
	blocks  []bytecode.Block
	ctors   [][]int        // constructor sites per block, ascending
	code    bytecode.Block // block under construction
	sites   []int          // constructor sites of the block under construction
	nesting int            // depth of struct-instance field values
}

// New creates a compiler with empty tables.
func New() *Compiler {
	return &Compiler{idents: NewIdentTable()}
}

// Idents returns the identifier table.
func (c *Compiler) Idents() *IdentTable {
	return c.idents
}

// Consts returns the constant pool.
func (c *Compiler) Consts() []runtime.Value {
	return c.consts
}

// Blocks returns all blocks compiled so far, indexed by block id.
func (c *Compiler) Blocks() []bytecode.Block {
	return c.blocks
}

// Block returns the block with a given id.
func (c *Compiler) Block(id int) (bytecode.Block, bool) {
	if id < 0 || id >= len(c.blocks) {
		return nil, false
	}
	return c.blocks[id], true
}

// IsConstructor is true if instruction pc of block id completes a
// struct-instance literal.
func (c *Compiler) IsConstructor(id, pc int) bool {
	if id < 0 || id >= len(c.ctors) {
		return false
	}
	sites := c.ctors[id]
	i := sort.SearchInts(sites, pc)
	return i < len(sites) && sites[i] == pc
}

// Constructors returns the constructor sites of block id, in ascending order.
func (c *Compiler) Constructors(id int) []int {
	if id < 0 || id >= len(c.ctors) {
		return nil
	}
	return c.ctors[id]
}

// Compile lowers a program into a new block and returns that block, together
// with the constant pool.
func (c *Compiler) Compile(nodes []ast.Node) (bytecode.Block, []runtime.Value, error) {
	id, err := c.CompileUnit(nodes)
	if err != nil {
		return nil, nil, err
	}
	return c.blocks[id], c.consts, nil
}

// CompileUnit lowers a program into a new block and returns its block id.
func (c *Compiler) CompileUnit(nodes []ast.Node) (int, error) {
	id := c.reserve()
	if err := c.compileInto(id, nodes); err != nil {
		return 0, err
	}
	return id, nil
}

// Recompile lowers a program into an existing block, replacing its code.
// Blocks of function literals of the previous code are not reclaimed.
func (c *Compiler) Recompile(id int, nodes []ast.Node) error {
	if id < 0 || id >= len(c.blocks) {
		return fmt.Errorf("cannot recompile block #%d: no such block", id)
	}
	return c.compileInto(id, nodes)
}

func (c *Compiler) reserve() int {
	c.blocks = append(c.blocks, nil)
	c.ctors = append(c.ctors, nil)
	return len(c.blocks) - 1
}

// compileInto compiles nodes into block id. It saves and restores the block
// under construction, as function bodies are compiled while their enclosing
// block is still open.
func (c *Compiler) compileInto(id int, nodes []ast.Node) error {
	outer, sites, nesting := c.code, c.sites, c.nesting
	c.code, c.sites, c.nesting = bytecode.Block{}, nil, 0
	defer func() {
		c.code, c.sites, c.nesting = outer, sites, nesting
	}()
	for _, n := range nodes {
		if err := c.compile(n); err != nil {
			return err
		}
	}
	c.blocks[id] = c.code
	c.ctors[id] = c.sites
	tracer().Debugf("compiled block #%d with %d instructions", id, len(c.code))
	return nil
}

func (c *Compiler) emit(op bytecode.Op, arg ...int) {
	c.code = append(c.code, bytecode.I(op, arg...))
}

func (c *Compiler) constant(v runtime.Value) int {
	c.consts = append(c.consts, v)
	return len(c.consts) - 1
}

func (c *Compiler) compile(n ast.Node) error {
	switch n := n.(type) {
	case ast.Ident:
		c.emit(bytecode.LoadIdent, c.idents.Intern(n.Name))
	case ast.Assign:
		if err := c.compile(n.Left); err != nil {
			return err
		}
		if err := c.compile(n.Right); err != nil {
			return err
		}
		c.emit(bytecode.Store)
	case ast.StructInstance:
		return c.compileInstance(n)
	case ast.Array:
		if err := c.compileAll(n.Items); err != nil {
			return err
		}
		c.emit(bytecode.MakeArray, len(n.Items))
	case ast.Call:
		if err := c.compile(n.Callee); err != nil {
			return err
		}
		if err := c.compileAll(n.Args); err != nil {
			return err
		}
		c.emit(bytecode.Call, len(n.Args))
	case ast.PropertyAccess:
		if err := c.compile(n.Object); err != nil {
			return err
		}
		c.emit(bytecode.LoadField, c.idents.Intern(n.Property))
	case ast.BinOp:
		return c.compileBinOp(n)
	case ast.Fun:
		return c.compileFun(n)
	case ast.StructDef:
		for _, f := range n.Fields {
			c.emit(bytecode.AddField, c.idents.Intern(f.Name))
		}
		c.emit(bytecode.CreateStruct, c.idents.Intern(n.Name))
	case ast.Var:
		c.emit(bytecode.LoadIdent, c.idents.Intern(n.Name))
		c.emit(bytecode.LoadConst, c.constant(zeroValue(n.TypeName)))
		c.emit(bytecode.Store)
	case ast.Return:
		if n.Value == nil {
			c.emit(bytecode.LoadConst, c.constant(runtime.None))
		} else if err := c.compile(n.Value); err != nil {
			return err
		}
		c.emit(bytecode.Return)
	case ast.IntLit:
		c.emit(bytecode.LoadConst, c.constant(runtime.Int(n.Value)))
	case ast.FloatLit:
		c.emit(bytecode.LoadConst, c.constant(runtime.Float(n.Value)))
	case ast.StrLit:
		c.emit(bytecode.LoadConst, c.constant(runtime.Str(n.Value)))
	default:
		return fmt.Errorf("cannot compile node of type %T", n)
	}
	return nil
}

func (c *Compiler) compileAll(nodes []ast.Node) error {
	for _, n := range nodes {
		if err := c.compile(n); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileBinOp(n ast.BinOp) error {
	if err := c.compile(n.Left); err != nil {
		return err
	}
	if err := c.compile(n.Right); err != nil {
		return err
	}
	switch n.Op {
	case ast.Add:
		c.emit(bytecode.Add)
	case ast.Sub:
		c.emit(bytecode.Sub)
	case ast.Mul:
		c.emit(bytecode.Mul)
	case ast.Div:
		c.emit(bytecode.Div)
	default:
		return fmt.Errorf("unknown operator %q", byte(n.Op))
	}
	return nil
}

func (c *Compiler) compileInstance(n ast.StructInstance) error {
	if c.nesting > 0 || len(n.Fields) == 0 {
		c.emit(bytecode.BeginStruct)
	}
	c.nesting++
	for _, f := range n.Fields {
		if err := c.compile(f.Value); err != nil {
			c.nesting--
			return err
		}
		c.emit(bytecode.StoreField, c.idents.Intern(f.Name))
	}
	c.nesting--
	c.sites = append(c.sites, len(c.code))
	c.emit(bytecode.LoadIdent, c.idents.Intern(n.Name))
	return nil
}

func (c *Compiler) compileFun(n ast.Fun) error {
	for _, p := range n.Params {
		c.emit(bytecode.LoadIdent, c.idents.Intern(p.Name))
	}
	id := c.reserve()
	proto := runtime.Proto{Block: id, Params: len(n.Params)}
	c.emit(bytecode.LoadConst, c.constant(proto))
	c.emit(bytecode.MakeFn, len(n.Params))
	return c.compileInto(id, n.Body)
}

// zeroValue is the initial value of a typed variable declaration.
func zeroValue(typename string) runtime.Value {
	switch typename {
	case "Int":
		return runtime.Int(0)
	case "Float":
		return runtime.Float(0)
	case "String", "Str":
		return runtime.Str("")
	case "Bool":
		return runtime.Bool(false)
	}
	return runtime.None
}
