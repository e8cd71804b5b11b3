/*
Package host connects a donitsi virtual machine to its environment.

The VM communicates exclusively through actions. A Runner drives a VM: it
steps it, drains the action queue, hands every action to a Handler and resumes
the VM with the results of host calls, until the VM quits.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/npillmayer/donitsi/runtime"
	"github.com/npillmayer/donitsi/vm"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'donitsi.host'.
func tracer() tracing.Trace {
	return tracing.Select("donitsi.host")
}

// InlineName is the unit name for source text given inline.
const InlineName = "inline"

// Source interprets a program argument. If arg names an existing file, the
// file is read and its path is returned as the name. Otherwise arg itself is
// the program text.
func Source(arg string) (name string, text string, err error) {
	info, statErr := os.Stat(arg)
	if statErr != nil || !info.Mode().IsRegular() {
		return InlineName, arg, nil
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return "", "", err
	}
	tracer().Infof("read %d bytes from %s", len(b), arg)
	return arg, string(b), nil
}

// Handler dispatches actions. For Call and Import actions, the value
// returned is handed back to the VM as the result.
type Handler interface {
	Handle(ctx context.Context, a vm.Action) (runtime.Value, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, a vm.Action) (runtime.Value, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, a vm.Action) (runtime.Value, error) {
	return f(ctx, a)
}

// Discard is a handler which ignores all actions.
var Discard = HandlerFunc(func(context.Context, vm.Action) (runtime.Value, error) {
	return runtime.None, nil
})

// Runner drives a VM until it quits.
type Runner struct {
	VM      *vm.VM
	Handler Handler // nil means Discard
}

// Run steps the VM and dispatches its actions in order. It returns nil when
// the VM quits, and an error if stepping, dispatching or resuming fails.
// The Quit action is handed to the handler, too.
func (r Runner) Run(ctx context.Context) error {
	if r.VM == nil {
		return errors.New("runner has no virtual machine")
	}
	handler := r.Handler
	if handler == nil {
		handler = Discard
	}
	for {
		if err := r.VM.Step(ctx); err != nil {
			return err
		}
		for _, a := range r.VM.Drain() {
			v, err := handler.Handle(ctx, a)
			if err != nil {
				return fmt.Errorf("handling %s: %w", a, err)
			}
			switch a.(type) {
			case vm.Quit:
				tracer().Infof("virtual machine quit")
				return nil
			case vm.Call, vm.Import:
				if err := r.VM.Resume(v); err != nil {
					return err
				}
			}
		}
	}
}

// Recorder is a handler which records all actions. Calls of host functions
// are answered from Results, by function name; unknown functions return None.
// A Recorder is safe for concurrent use.
type Recorder struct {
	Results map[string]runtime.Value
	mx      sync.Mutex
	actions []vm.Action
}

// Handle records an action.
func (rec *Recorder) Handle(ctx context.Context, a vm.Action) (runtime.Value, error) {
	rec.mx.Lock()
	defer rec.mx.Unlock()
	rec.actions = append(rec.actions, a)
	if call, ok := a.(vm.Call); ok {
		if v, ok := rec.Results[call.Name]; ok {
			return v, nil
		}
	}
	return runtime.None, nil
}

// Actions returns the actions recorded so far.
func (rec *Recorder) Actions() []vm.Action {
	rec.mx.Lock()
	defer rec.mx.Unlock()
	actions := make([]vm.Action, len(rec.actions))
	copy(actions, rec.actions)
	return actions
}
