package vm

import (
	"errors"
	"fmt"

	"github.com/npillmayer/donitsi/bytecode"
)

// Runtime error conditions. Errors returned from Step wrap one of these.
var (
	ErrUnknownIdent    = errors.New("unknown identifier")
	ErrStackUnderflow  = errors.New("operand stack underflow")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrNotCallable     = errors.New("value is not callable")
	ErrNotAssignable   = errors.New("cannot assign to operand")
	ErrArity           = errors.New("wrong number of arguments")
	ErrDivisionByZero  = errors.New("integer division by zero")
	ErrStackOverflow   = errors.New("too many call frames")
	ErrBadOperand      = errors.New("instruction operand out of range")
	ErrAborted         = errors.New("execution aborted")
	ErrAwaitingHost    = errors.New("waiting for host to resume")
	ErrNotAwaitingHost = errors.New("not waiting for host")
	ErrHalted          = errors.New("virtual machine halted")
)

// RuntimeError is an error raised while executing an instruction.
type RuntimeError struct {
	Block int
	PC    int
	Instr bytecode.Instr
	Err   error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in block #%d at %04d %s: %v", e.Block, e.PC, e.Instr, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
