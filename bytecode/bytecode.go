/*
Package bytecode defines the instruction set of the donitsi virtual machine.

Instructions are flat and of fixed arity: an opcode and at most one integer
operand. Operands reference identifiers, constants and fields by small dense
ids, never by strings. A block is a flat sequence of instructions; every
function body lives in a block of its own.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package bytecode

import (
	"fmt"
	"io"

	"github.com/cnf/structhash"
)

// Op is an opcode.
type Op uint8

// Opcodes
const (
	LoadIdent    Op = iota // push the value bound to identifier Arg
	Store                  // pop value and target, bind target to value
	LoadConst              // push a copy of constant Arg
	CreateStruct           // register struct type Arg with the fields added before
	AddField               // declare field Arg for the next CreateStruct
	StoreField             // pop a value and buffer it as field Arg
	MakeArray              // pop Arg values, push an array
	MakeFn                 // pop a prototype and Arg parameters, push a closure
	Call                   // pop Arg arguments and a callee, call it
	Add
	Sub
	Mul
	Div
	BeginStruct // open a field group for a nested struct instance
	LoadField   // pop an object, push its field Arg
	Return      // pop a value and leave the current frame
)

var opNames = [...]string{"LoadIdent", "Store", "LoadConst", "CreateStruct", "AddField",
	"StoreField", "MakeArray", "MakeFn", "Call", "Add", "Sub", "Mul", "Div",
	"BeginStruct", "LoadField", "Return"}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

// HasArg is true for opcodes carrying an operand.
func (op Op) HasArg() bool {
	switch op {
	case LoadIdent, LoadConst, CreateStruct, AddField, StoreField, MakeArray, MakeFn,
		Call, LoadField:
		return true
	}
	return false
}

// Instr is a bytecode instruction.
type Instr struct {
	Op  Op
	Arg int
}

// I creates an instruction.
func I(op Op, arg ...int) Instr {
	ins := Instr{Op: op}
	if len(arg) > 0 {
		ins.Arg = arg[0]
	}
	return ins
}

// String renders an instruction as `Tag(operand)`, e.g. `LoadConst(2)`.
func (ins Instr) String() string {
	if ins.Op.HasArg() {
		return fmt.Sprintf("%s(%d)", ins.Op, ins.Arg)
	}
	return ins.Op.String()
}

// Block is a flat sequence of instructions.
type Block []Instr

// Dump writes a listing of a block to w, one instruction per line, prefixed by
// its four-digit index:
//
//    0000 LoadIdent(0)
//    0001 LoadConst(0)
//
// The listing is meant for humans; it is not parsed back.
func Dump(w io.Writer, b Block) error {
	for i, ins := range b {
		if _, err := fmt.Fprintf(w, "%04d %s\n", i, ins); err != nil {
			return err
		}
	}
	return nil
}

// Equal compares two blocks instruction by instruction.
func Equal(a, b Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Fingerprint is a hash over the instructions of a block.
func Fingerprint(b Block) (string, error) {
	h, err := structhash.Hash(struct{ Code []Instr }{Code: b}, 1)
	if err != nil {
		return "", fmt.Errorf("fingerprint of block: %w", err)
	}
	return h, nil
}
