package vm

import (
	"context"
	"errors"
	"testing"

	"github.com/npillmayer/donitsi/compiler"
	"github.com/npillmayer/donitsi/parser"
	"github.com/npillmayer/donitsi/runtime"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run steps a VM until it quits, resuming host calls with None. It returns all
// actions produced.
func run(t *testing.T, machine *VM) []Action {
	t.Helper()
	var all []Action
	for i := 0; i < 1000; i++ {
		if err := machine.Step(context.Background()); err != nil {
			t.Fatalf("step failed: %v", err)
		}
		actions := machine.Drain()
		all = append(all, actions...)
		for _, a := range actions {
			if _, ok := a.(Quit); ok {
				return all
			}
		}
		if machine.Awaiting() {
			require.NoError(t, machine.Resume(runtime.None))
		}
	}
	t.Fatalf("virtual machine did not quit")
	return nil
}

// runErr steps a VM until stepping fails.
func runErr(t *testing.T, machine *VM) error {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if err := machine.Step(context.Background()); err != nil {
			return err
		}
		for _, a := range machine.Drain() {
			if _, ok := a.(Quit); ok {
				t.Fatalf("expected runtime error, VM quit")
			}
		}
	}
	t.Fatalf("virtual machine did not fail")
	return nil
}

func load(t *testing.T, src string, opts ...Option) *VM {
	t.Helper()
	machine := New(opts...)
	require.NoError(t, machine.Load("main", src))
	return machine
}

func global(t *testing.T, machine *VM, name string) runtime.Value {
	t.Helper()
	v, ok := machine.Lookup(name)
	require.True(t, ok, "expected %s to be bound", name)
	return v
}

func TestEmptyVMQuits(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := New()
	if err := machine.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	actions := machine.Drain()
	if len(actions) != 1 {
		t.Fatalf("expected exactly one action, have %v", actions)
	}
	if _, ok := actions[0].(Quit); !ok {
		t.Errorf("expected Quit, have %v", actions[0])
	}
	if machine.Halted() || machine.Frames() != 0 {
		t.Errorf("expected VM to be idle and not halted")
	}
}

func TestStepAfterQuit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, "a = 1")
	run(t, machine)
	ctx := context.Background()
	require.NoError(t, machine.Step(ctx))
	require.NoError(t, machine.Step(ctx))
	assert.Equal(t, []Action{Quit{}}, machine.Drain(), "undrained Quit is not repeated")
	require.NoError(t, machine.Step(ctx))
	assert.Equal(t, []Action{Quit{}}, machine.Drain(), "every drained Quit is queued again")
	//
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	err := machine.Step(ctx)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, machine.Drain())
}

func TestArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, `a = 1 + 2 * 3
		b = 7 / 2
		c = 1.5 + 1
		d = "don" + "itsi"
		e = 10 - 4 - 3
		f = (10 - 4) - 3`)
	run(t, machine)
	assert.Equal(t, runtime.Int(7), global(t, machine, "a"))
	assert.Equal(t, runtime.Int(3), global(t, machine, "b"))
	assert.Equal(t, runtime.Float(2.5), global(t, machine, "c"))
	assert.Equal(t, runtime.Str("donitsi"), global(t, machine, "d"))
	assert.Equal(t, runtime.Int(9), global(t, machine, "e")) // right-associative
	assert.Equal(t, runtime.Int(3), global(t, machine, "f"))
}

func TestArraysAndDeclarations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, `a = [1, [2 3]] Int n String s x = a`)
	run(t, machine)
	expected := runtime.Array{runtime.Int(1), runtime.Array{runtime.Int(2), runtime.Int(3)}}
	assert.Equal(t, expected, global(t, machine, "a"))
	assert.Equal(t, expected, global(t, machine, "x"))
	assert.Equal(t, runtime.Int(0), global(t, machine, "n"))
	assert.Equal(t, runtime.Str(""), global(t, machine, "s"))
}

func TestRuntimeErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	var tests = []struct {
		src string
		err error
	}{
		{"a = b", ErrUnknownIdent},
		{"a = 1 / 0", ErrDivisionByZero},
		{`a = "x" * 2`, ErrTypeMismatch},
		{"a = [1] b = a + 2", ErrTypeMismatch},
		{"a = 1 b = a(2)", ErrNotCallable},
		{"f = (x, y) => { x } f(1)", ErrArity},
		{"a = 1 b = a.field", ErrTypeMismatch},
		{"foo(1)", ErrUnknownIdent},
		{"b = Ball { x: 1, y: z }", ErrUnknownIdent},
		{"Ball = 1 b = Ball { x: 1 }", ErrTypeMismatch},
		{"f = x => { y } a = f(1)", ErrUnknownIdent},
		{"f = x => { return y } a = f(1)", ErrUnknownIdent},
	}
	for _, test := range tests {
		machine := load(t, test.src)
		err := runErr(t, machine)
		assert.True(t, errors.Is(err, test.err), "running %q: %v", test.src, err)
		var rterr *RuntimeError
		assert.True(t, errors.As(err, &rterr), "expected runtime error for %q", test.src)
		assert.True(t, machine.Halted())
		assert.True(t, errors.Is(machine.Step(context.Background()), ErrHalted))
		assert.True(t, errors.Is(machine.Load("other", "x = 1"), ErrHalted))
	}
}

func TestReset(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, "a = 1 b = c")
	runErr(t, machine)
	machine.Reset()
	require.NoError(t, machine.Load("next", "b = a + 1"))
	run(t, machine)
	assert.Equal(t, runtime.Int(2), global(t, machine, "b"))
}

func TestStructConstruction(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, "ball = Ball { x: 1, y: 2 }")
	actions := run(t, machine)
	assert.Equal(t, []Action{
		Construct{ID: 1, Type: "Ball"},
		StoreField{ID: 1, Field: "x", Value: runtime.Int(1)},
		StoreField{ID: 1, Field: "y", Value: runtime.Int(2)},
		Quit{},
	}, actions)
	obj, ok := global(t, machine, "ball").(*runtime.Object)
	require.True(t, ok)
	assert.Equal(t, int64(1), obj.ID)
	y, _ := machine.Compiler().Idents().Lookup("y")
	v, _ := obj.Field(y)
	assert.Equal(t, runtime.Int(2), v)
}

func TestNestedConstruction(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, `Window { title: "w", child: Box { size: 2 }, empty: Spacer {} }`)
	actions := run(t, machine)
	require.Len(t, actions, 8)
	assert.Equal(t, Construct{ID: 1, Type: "Box"}, actions[0])
	assert.Equal(t, StoreField{ID: 1, Field: "size", Value: runtime.Int(2)}, actions[1])
	assert.Equal(t, Construct{ID: 2, Type: "Spacer"}, actions[2])
	assert.Equal(t, Construct{ID: 3, Type: "Window"}, actions[3])
	assert.Equal(t, StoreField{ID: 3, Field: "title", Value: runtime.Str("w")}, actions[4])
	child, ok := actions[5].(StoreField)
	require.True(t, ok)
	assert.Equal(t, "child", child.Field)
	box, ok := child.Value.(*runtime.Object)
	require.True(t, ok, "expected child to be an object, is %v", child.Value)
	assert.Equal(t, int64(1), box.ID)
	empty, ok := actions[6].(StoreField)
	require.True(t, ok)
	assert.Equal(t, "empty", empty.Field)
	assert.Equal(t, int64(2), empty.Value.(*runtime.Object).ID)
	assert.Equal(t, Quit{}, actions[7])
}

func TestCallbackFields(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, `b = Button { text: "hi", click: e => e }
		r = b.click(5)`)
	actions := run(t, machine)
	require.Len(t, actions, 5)
	assert.Equal(t, Construct{ID: 1, Type: "Button"}, actions[0])
	assert.Equal(t, StoreField{ID: 1, Field: "text", Value: runtime.Str("hi")}, actions[1])
	click, ok := actions[2].(StoreField)
	require.True(t, ok)
	assert.Equal(t, "click", click.Field)
	_, ok = click.Value.(*runtime.Closure)
	assert.True(t, ok, "expected click to be a function, is %v", click.Value)
	assert.Equal(t, LoadField{ID: 1, Field: "click"}, actions[3])
	assert.Equal(t, runtime.Int(5), global(t, machine, "r"))
	_, ok = machine.Object(2)
	assert.False(t, ok, "expected a single object")
}

func TestDeclaredTypes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, "type Ball { x: Int, y: Int } b = Ball { y: 2 }")
	actions := run(t, machine)
	assert.Equal(t, Construct{ID: 1, Type: "Ball"}, actions[0])
	st, ok := global(t, machine, "Ball").(*runtime.StructType)
	require.True(t, ok)
	assert.Len(t, st.Fields, 2)
	//
	machine = load(t, "type Ball { x: Int } Ball { z: 1 }")
	assert.True(t, errors.Is(runErr(t, machine), ErrTypeMismatch))
}

func TestClosures(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, `double = x => x * 2
		n = 10
		add = (a, b) => { return a + b + n }
		y = double(21)
		z = add(1 2)
		g = () => { return }
		none = g()`)
	run(t, machine)
	assert.Equal(t, runtime.Int(42), global(t, machine, "y"))
	assert.Equal(t, runtime.Int(13), global(t, machine, "z"))
	assert.Equal(t, runtime.None, global(t, machine, "none"))
	_, ok := global(t, machine, "double").(*runtime.Closure)
	assert.True(t, ok)
	// parameters are local to the function
	_, ok = machine.Lookup("x")
	assert.False(t, ok)
}

func TestStepLeavesFrames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, "f = x => { x } y = f(1)")
	ctx := context.Background()
	require.NoError(t, machine.Step(ctx)) // runs into f and out again
	assert.Equal(t, 1, machine.Frames())
	assert.Equal(t, 0, machine.Pending())
	require.NoError(t, machine.Step(ctx))
	assert.Equal(t, 0, machine.Frames())
	assert.Equal(t, []Action{Quit{}}, machine.Drain())
}

func TestFrameLimit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, "f = x => f(x) f(1)", MaxFrames(8))
	assert.True(t, errors.Is(runErr(t, machine), ErrStackOverflow))
}

func TestHostCalls(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	ctx := context.Background()
	machine := load(t, `print("hi" 42)`, HostSymbols("print"))
	require.NoError(t, machine.Step(ctx))
	id, _ := machine.Compiler().Idents().Lookup("print")
	assert.Equal(t, []Action{
		Call{ID: id, Name: "print", Args: []runtime.Value{runtime.Str("hi"), runtime.Int(42)}},
	}, machine.Drain())
	assert.True(t, machine.Awaiting())
	assert.True(t, errors.Is(machine.Step(ctx), ErrAwaitingHost))
	require.NoError(t, machine.Resume(nil))
	require.NoError(t, machine.Step(ctx))
	assert.Equal(t, []Action{Quit{}}, machine.Drain())
	assert.True(t, errors.Is(machine.Resume(nil), ErrNotAwaitingHost))
}

func TestHostFallback(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	ctx := context.Background()
	machine := load(t, "r = measure() + 1", HostFallback(true))
	require.NoError(t, machine.Step(ctx))
	actions := machine.Drain()
	require.Len(t, actions, 1)
	assert.Equal(t, "measure", actions[0].(Call).Name)
	require.NoError(t, machine.Resume(runtime.Int(5)))
	require.NoError(t, machine.Step(ctx))
	assert.Equal(t, runtime.Int(6), global(t, machine, "r"))
}

func TestImport(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	ctx := context.Background()
	machine := load(t, `import("widgets")`)
	require.NoError(t, machine.Step(ctx))
	assert.Equal(t, []Action{Import{Path: "widgets"}}, machine.Drain())
	require.NoError(t, machine.Resume(nil))
	require.NoError(t, machine.Step(ctx))
	assert.Equal(t, []Action{Quit{}}, machine.Drain())
	//
	machine = load(t, `import(1)`)
	assert.True(t, errors.Is(runErr(t, machine), ErrTypeMismatch))
}

func TestFieldsAndMethods(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, `b = Button { label: "ok" }
		l = b.label
		b.click(1)`)
	actions := run(t, machine)
	assert.Equal(t, runtime.Str("ok"), global(t, machine, "l"))
	require.Len(t, actions, 6)
	assert.Equal(t, LoadField{ID: 1, Field: "label"}, actions[2])
	assert.Equal(t, LoadField{ID: 1, Field: "click"}, actions[3])
	call, ok := actions[4].(Call)
	require.True(t, ok)
	assert.Equal(t, "click", call.Name)
	require.Len(t, call.Args, 2)
	assert.Equal(t, int64(1), call.Args[0].(*runtime.Object).ID)
	assert.Equal(t, runtime.Int(1), call.Args[1])
}

func TestReload(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, `Label { text: "a" }`)
	run(t, machine)
	require.NoError(t, machine.Load("main", `Label { text: "b" }`))
	assert.Equal(t, []Action{Destruct{ID: 1}}, machine.Drain())
	_, ok := machine.Object(1)
	assert.False(t, ok)
	actions := run(t, machine)
	assert.Equal(t, Construct{ID: 2, Type: "Label"}, actions[0])
	assert.Len(t, machine.Compiler().Blocks(), 1)
}

func TestAbort(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	machine := load(t, "a = 1")
	machine.Abort()
	assert.True(t, errors.Is(machine.Step(context.Background()), ErrAborted))
	assert.True(t, machine.Halted())
	//
	machine = load(t, "a = 1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := machine.Step(ctx)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFromImage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.vm")
	defer teardown()
	//
	comp := compiler.New()
	nodes, err := parser.ParseSource("sq = x => x * x a = sq(1.5)")
	require.NoError(t, err)
	entry, err := comp.CompileUnit(nodes)
	require.NoError(t, err)
	img, err := comp.Image(entry)
	require.NoError(t, err)
	data, err := compiler.EncodeImage(img)
	require.NoError(t, err)
	img, err = compiler.DecodeImage(data)
	require.NoError(t, err)
	machine, err := FromImage(img)
	require.NoError(t, err)
	run(t, machine)
	assert.Equal(t, runtime.Float(2.25), global(t, machine, "a"))
}
