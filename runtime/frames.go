package runtime

import (
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// This module implements a stack of call frames.
// Call frames are used by the virtual machine to hold the execution state
// of a bytecode block: the program counter, the scope and the operand stack.

// NoIdent marks operands which have not been loaded from an identifier.
const NoIdent = -1

// Operand is an entry of an operand stack. Operands loaded from an identifier
// remember the identifier, which makes them usable as assignment targets.
// An operand for an unbound identifier has a nil Value.
type Operand struct {
	Value Value
	Ident int
}

// Resolved is true if the operand carries a value.
func (op Operand) Resolved() bool {
	return op.Value != nil
}

// FieldGroup collects field values for a struct instance under construction.
type FieldGroup struct {
	Fields []FieldValue
}

// Frame is a call frame, executing a bytecode block.
type Frame struct {
	Name     string
	Unit     string // compilation unit the frame executes for
	Block    int
	PC       int
	Scope    *Scope
	Operands []Operand
	Returns  bool  // deliver a result to the calling frame
	Result   Value // result set by an explicit return
	groups   []*FieldGroup
}

// NewFrame creates a new call frame.
func NewFrame(nm string, block int, scope *Scope) *Frame {
	return &Frame{
		Name:  nm,
		Block: block,
		Scope: scope,
	}
}

func (fr *Frame) String() string {
	return fmt.Sprintf("<frame %s #%d@%d -> %v>", fr.Name, fr.Block, fr.PC, fr.Scope)
}

// Push pushes an operand.
func (fr *Frame) Push(op Operand) {
	fr.Operands = append(fr.Operands, op)
}

// PushValue pushes a value which is not connected to an identifier.
func (fr *Frame) PushValue(v Value) {
	fr.Push(Operand{Value: v, Ident: NoIdent})
}

// Pop pops the top operand. The flag is false if the operand stack is empty.
func (fr *Frame) Pop() (Operand, bool) {
	n := len(fr.Operands)
	if n == 0 {
		return Operand{Ident: NoIdent}, false
	}
	op := fr.Operands[n-1]
	fr.Operands = fr.Operands[:n-1]
	return op, true
}

// PopN pops n operands and returns them in push order.
func (fr *Frame) PopN(n int) ([]Operand, bool) {
	if n < 0 || n > len(fr.Operands) {
		return nil, false
	}
	at := len(fr.Operands) - n
	ops := make([]Operand, n)
	copy(ops, fr.Operands[at:])
	fr.Operands = fr.Operands[:at]
	return ops, true
}

// Height is the size of the operand stack.
func (fr *Frame) Height() int {
	return len(fr.Operands)
}

// OpenGroup starts a field group.
func (fr *Frame) OpenGroup() {
	fr.groups = append(fr.groups, &FieldGroup{})
}

// AddField buffers a field value in the innermost field group. If there is no
// open group, an implicit one is started.
func (fr *Frame) AddField(fv FieldValue) {
	if len(fr.groups) == 0 {
		fr.groups = append(fr.groups, &FieldGroup{})
	}
	g := fr.groups[len(fr.groups)-1]
	g.Fields = append(g.Fields, fv)
}

// CloseGroup removes the innermost field group and returns it. Without an
// open group, an empty group is returned.
func (fr *Frame) CloseGroup() *FieldGroup {
	if len(fr.groups) == 0 {
		return &FieldGroup{}
	}
	g := fr.groups[len(fr.groups)-1]
	fr.groups = fr.groups[:len(fr.groups)-1]
	return g
}

// ---------------------------------------------------------------------------

// CallStack is a stack of call frames.
type CallStack struct {
	stack *arraystack.Stack
}

// NewCallStack creates an empty call stack.
func NewCallStack() *CallStack {
	return &CallStack{stack: arraystack.New()}
}

// Current gets the current call frame of a stack (TOS), or nil.
func (cs *CallStack) Current() *Frame {
	if fr, ok := cs.stack.Peek(); ok {
		return fr.(*Frame)
	}
	return nil
}

// Caller gets the frame below the current one, or nil.
func (cs *CallStack) Caller() *Frame {
	frames := cs.stack.Values() // LIFO order
	if len(frames) < 2 {
		return nil
	}
	return frames[1].(*Frame)
}

// Push pushes a frame as TOS.
func (cs *CallStack) Push(fr *Frame) {
	cs.stack.Push(fr)
	T().P("frame", fr.Name).Debugf("pushing call frame for block #%d", fr.Block)
}

// Pop pops the top-most frame. Returns the popped frame or nil.
func (cs *CallStack) Pop() *Frame {
	fr, ok := cs.stack.Pop()
	if !ok {
		return nil
	}
	T().Debugf("popping call frame [%s]", fr.(*Frame).Name)
	return fr.(*Frame)
}

// Size is the number of frames on the stack.
func (cs *CallStack) Size() int {
	return cs.stack.Size()
}

// Empty is true if no frame is on the stack.
func (cs *CallStack) Empty() bool {
	return cs.stack.Empty()
}

// Each iterates over the frames, starting with the top-most one.
func (cs *CallStack) Each(f func(depth int, fr *Frame)) {
	for i, fr := range cs.stack.Values() {
		f(i, fr.(*Frame))
	}
}

// Clear removes all frames.
func (cs *CallStack) Clear() {
	cs.stack.Clear()
}
