package vm

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/npillmayer/donitsi/runtime"
)

// Action is a host-visible effect the VM wants performed. Actions are the
// only channel through which the VM talks to its host. The host drains them
// after every step and dispatches them in order.
type Action interface {
	fmt.Stringer
	action()
}

// Construct asks the host to create an object of a struct type.
type Construct struct {
	ID   int64
	Type string
}

// Destruct asks the host to dispose of an object.
type Destruct struct {
	ID int64
}

// LoadField reports a read access to an object's field.
type LoadField struct {
	ID    int64
	Field string
}

// StoreField sets a field of an object.
type StoreField struct {
	ID    int64
	Field string
	Value runtime.Value
}

// Call asks the host to call a host function. ID is the identifier id of the
// function's name. For methods, the receiver object is the first argument.
// The VM is suspended until the host resumes it with the call's result.
type Call struct {
	ID   int
	Name string
	Args []runtime.Value
}

// Import asks the host to import a module. The VM is suspended until the host
// resumes it.
type Import struct {
	Path string
}

// Quit signals that the VM has run out of code. The host must stop stepping.
type Quit struct{}

func (Construct) action()  {}
func (Destruct) action()   {}
func (LoadField) action()  {}
func (StoreField) action() {}
func (Call) action()       {}
func (Import) action()     {}
func (Quit) action()       {}

func (a Construct) String() string {
	return fmt.Sprintf("Construct{%d %s}", a.ID, a.Type)
}

func (a Destruct) String() string {
	return fmt.Sprintf("Destruct{%d}", a.ID)
}

func (a LoadField) String() string {
	return fmt.Sprintf("LoadField{%d %s}", a.ID, a.Field)
}

func (a StoreField) String() string {
	return fmt.Sprintf("StoreField{%d %s %s}", a.ID, a.Field, runtime.Repr(a.Value))
}

func (a Call) String() string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = runtime.Repr(arg)
	}
	return fmt.Sprintf("Call{%s(%s)}", a.Name, strings.Join(args, ", "))
}

func (a Import) String() string {
	return fmt.Sprintf("Import{%q}", a.Path)
}

func (Quit) String() string {
	return "Quit"
}

// --- Action queue ----------------------------------------------------------

// actionQueue is a FIFO of actions.
type actionQueue struct {
	list *arraylist.List
}

func newActionQueue() *actionQueue {
	return &actionQueue{list: arraylist.New()}
}

func (q *actionQueue) put(a Action) {
	tracer().Debugf("queue action %s", a)
	q.list.Add(a)
}

func (q *actionQueue) size() int {
	return q.list.Size()
}

// drain returns all queued actions in order and empties the queue.
func (q *actionQueue) drain() []Action {
	values := q.list.Values()
	q.list.Clear()
	actions := make([]Action, len(values))
	for i, v := range values {
		actions[i] = v.(Action)
	}
	return actions
}
