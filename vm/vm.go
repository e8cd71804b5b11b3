/*
Package vm implements the donitsi virtual machine.

The VM executes bytecode blocks produced by the compiler on an explicit stack of
call frames. It never performs I/O itself. Every effect visible to the
outside world, such as creating an object or calling a host function, is
queued as an Action. A host drives the VM cooperatively:

	for {
	    err := vm.Step(ctx)
	    ...
	    for _, a := range vm.Drain() {
	        // dispatch a, stop on Quit
	    }
	}

Each call to Step runs the top-most frame until its block is exhausted (or it
returns), until a host call suspends it, or until an error occurs. Host calls
and imports suspend the VM; the host resumes it with the call's result by
calling Resume.

Runtime errors halt the VM. A halted VM refuses to step and reports the
error from Err. This is distinct from the normal end of execution, which is
signalled by a Quit action.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package vm

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/npillmayer/donitsi/ast"
	"github.com/npillmayer/donitsi/bytecode"
	"github.com/npillmayer/donitsi/compiler"
	"github.com/npillmayer/donitsi/parser"
	"github.com/npillmayer/donitsi/runtime"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'donitsi.vm'.
func tracer() tracing.Trace {
	return tracing.Select("donitsi.vm")
}

// ImportBuiltin is the name of the builtin function for imports.
const ImportBuiltin = "import"

// unit is a loaded compilation unit.
type unit struct {
	name    string
	block   int
	objects []int64 // objects created on behalf of the unit
}

// VM is a virtual machine for donitsi programs.
type VM struct {
	comp         *compiler.Compiler
	rt           *runtime.Runtime
	actions      *actionQueue
	units        map[string]*unit
	decl         []int // field declarations for the next CreateStruct
	hostNames    []string
	hostFallback bool
	maxFrames    int
	awaiting     bool        // suspended by a host call
	quit         bool        // Quit is queued and not drained yet
	err          error       // set if halted
	aborted      atomic.Bool // set by Abort, possibly from another goroutine
}

// New creates a VM without any code loaded.
func New(opts ...Option) *VM {
	return newVM(compiler.New(), opts)
}

func newVM(comp *compiler.Compiler, opts []Option) *VM {
	vm := &VM{
		comp:      comp,
		rt:        runtime.NewRuntimeEnvironment(),
		actions:   newActionQueue(),
		units:     make(map[string]*unit),
		maxFrames: DefaultMaxFrames,
	}
	for _, opt := range opts {
		opt(vm)
	}
	globals := vm.rt.Globals
	id := comp.Idents().Intern(ImportBuiltin)
	globals.Bind(id, ImportBuiltin, runtime.Builtin(ImportBuiltin))
	for _, name := range vm.hostNames {
		id := comp.Idents().Intern(name)
		globals.Bind(id, name, runtime.HostFunc{Symbol: id, Name: name})
	}
	return vm
}

// FromImage creates a VM from a bytecode image, ready to execute the image's
// entry block.
func FromImage(img *compiler.Image, opts ...Option) (*VM, error) {
	comp, err := compiler.FromImage(img)
	if err != nil {
		return nil, err
	}
	vm := newVM(comp, opts)
	const name = "image"
	vm.units[name] = &unit{name: name, block: img.Entry}
	vm.enter(name, img.Entry)
	return vm, nil
}

// Load compiles a unit of source code and schedules it for execution.
// Loading a unit with a name already loaded replaces the unit's code; objects
// created by its previous version are destructed.
func (vm *VM) Load(name string, src string) error {
	nodes, err := parser.ParseSource(src)
	if err != nil {
		return err
	}
	return vm.LoadAST(name, nodes)
}

// LoadAST is like Load, for an already parsed program.
func (vm *VM) LoadAST(name string, nodes []ast.Node) error {
	if vm.err != nil {
		return fmt.Errorf("%w: %w", ErrHalted, vm.err)
	}
	if vm.awaiting {
		return ErrAwaitingHost
	}
	u, reload := vm.units[name]
	if reload {
		if err := vm.comp.Recompile(u.block, nodes); err != nil {
			return err
		}
		for _, oid := range u.objects {
			vm.rt.DropObject(oid)
			vm.actions.put(Destruct{ID: oid})
		}
		u.objects = nil
		tracer().Infof("reloaded unit %s into block #%d", name, u.block)
	} else {
		id, err := vm.comp.CompileUnit(nodes)
		if err != nil {
			return err
		}
		u = &unit{name: name, block: id}
		vm.units[name] = u
		tracer().Infof("loaded unit %s into block #%d", name, id)
	}
	vm.enter(name, u.block)
	return nil
}

// enter pushes a frame for the top-level code of a unit.
func (vm *VM) enter(name string, block int) {
	fr := runtime.NewFrame(name, block, vm.rt.Globals)
	fr.Unit = name
	vm.rt.Calls.Push(fr)
}

// Step resumes execution of the top-most frame. It returns after the frame has
// been left, or if a host call suspended execution. If the call stack is
// empty, a Quit action is queued, unless one is still waiting to be drained.
//
// Step returns an error if the VM is halted, if it waits to be resumed by the
// host, or if executing an instruction failed. Failing halts the VM.
func (vm *VM) Step(ctx context.Context) error {
	if vm.err != nil {
		return fmt.Errorf("%w: %w", ErrHalted, vm.err)
	}
	if vm.awaiting {
		return ErrAwaitingHost
	}
	for {
		if vm.aborted.Load() {
			return vm.halt(ErrAborted)
		}
		if err := ctx.Err(); err != nil {
			return vm.halt(fmt.Errorf("%w: %w", ErrAborted, err))
		}
		if vm.rt.Calls.Empty() {
			vm.terminate()
			return nil
		}
		fr := vm.rt.Calls.Current()
		code, ok := vm.comp.Block(fr.Block)
		if !ok {
			return vm.halt(fmt.Errorf("%w: no block #%d", ErrBadOperand, fr.Block))
		}
		if fr.PC >= len(code) {
			if err := vm.leave(); err != nil {
				return vm.halt(&RuntimeError{Block: fr.Block, PC: len(code),
					Instr: bytecode.I(bytecode.Return), Err: err})
			}
			return nil
		}
		ins := code[fr.PC]
		pc := fr.PC
		fr.PC++
		tracer().Debugf("%04d %s", pc, ins)
		suspend, err := vm.exec(fr, pc, ins)
		if err != nil {
			return vm.halt(&RuntimeError{Block: fr.Block, PC: pc, Instr: ins, Err: err})
		}
		if suspend {
			tracer().Debugf("suspended in block #%d at %04d", fr.Block, pc)
			return nil
		}
	}
}

// leave pops the top-most frame, delivering its result to the caller if
// required. Without an explicit return, the result is the top-most operand.
// If the call stack becomes empty, Quit is queued.
func (vm *VM) leave() error {
	fr := vm.rt.Calls.Pop()
	tracer().Debugf("leaving %s with %d operands", fr.Name, fr.Height())
	if fr.Returns {
		result := fr.Result
		if result == nil {
			v, err := vm.result(fr)
			if err != nil {
				return err
			}
			result = v
		}
		if caller := vm.rt.Calls.Current(); caller != nil {
			caller.PushValue(result)
		}
	}
	if vm.rt.Calls.Empty() {
		vm.terminate()
	}
	return nil
}

// terminate queues Quit, if no Quit is pending in the action queue.
func (vm *VM) terminate() {
	if !vm.quit {
		vm.quit = true
		vm.actions.put(Quit{})
	}
}

// halt records an error and stops the VM.
func (vm *VM) halt(err error) error {
	tracer().Errorf("halting: %v", err)
	vm.err = err
	vm.awaiting = false
	return err
}

// Drain returns all queued actions, in the order they have been produced,
// and empties the action queue.
func (vm *VM) Drain() []Action {
	vm.quit = false
	return vm.actions.drain()
}

// Pending is the number of queued actions.
func (vm *VM) Pending() int {
	return vm.actions.size()
}

// Resume continues a VM suspended by a host call or import. v is the
// result of the call; nil is taken as None.
func (vm *VM) Resume(v runtime.Value) error {
	if !vm.awaiting {
		return ErrNotAwaitingHost
	}
	vm.awaiting = false
	if v == nil {
		v = runtime.None
	}
	if fr := vm.rt.Calls.Current(); fr != nil {
		fr.PushValue(v)
	}
	return nil
}

// Awaiting is true if the VM waits for the host to resume it.
func (vm *VM) Awaiting() bool {
	return vm.awaiting
}

// Abort stops execution before the next instruction. Abort may be called
// from another goroutine.
func (vm *VM) Abort() {
	vm.aborted.Store(true)
}

// Err returns the error which halted the VM, if any.
func (vm *VM) Err() error {
	return vm.err
}

// Halted is true if execution stopped due to an error or an abort.
func (vm *VM) Halted() bool {
	return vm.err != nil
}

// Reset clears the call stack, the action queue and a halting error, keeping
// global bindings, types and loaded units.
func (vm *VM) Reset() {
	vm.rt.Calls.Clear()
	vm.actions.drain()
	vm.decl = nil
	vm.err = nil
	vm.awaiting = false
	vm.quit = false
	vm.aborted.Store(false)
}

// Frames is the depth of the call stack.
func (vm *VM) Frames() int {
	return vm.rt.Calls.Size()
}

// Lookup returns the global binding of a name.
func (vm *VM) Lookup(name string) (runtime.Value, bool) {
	id, ok := vm.comp.Idents().Lookup(name)
	if !ok {
		return nil, false
	}
	tag, _ := vm.rt.Globals.ResolveTag(id)
	if tag == nil || tag.Value == nil {
		return nil, false
	}
	return tag.Value, true
}

// Object returns a live object by id.
func (vm *VM) Object(id int64) (*runtime.Object, bool) {
	obj, ok := vm.rt.Objects[id]
	return obj, ok
}

// Compiler returns the VM's compiler.
func (vm *VM) Compiler() *compiler.Compiler {
	return vm.comp
}

// Unit returns the entry block of a loaded unit.
func (vm *VM) Unit(name string) (bytecode.Block, bool) {
	u, ok := vm.units[name]
	if !ok {
		return nil, false
	}
	return vm.comp.Block(u.block)
}
