/*
Package runtime implements the runtime environment of the donitsi virtual
machine, consisting of values, scopes, symbols and call frames.

For a thorough discussion of an interpreter's runtime environment, refer to
"Language Implementation Patterns" by Terence Parr.

Values

Values are the data the virtual machine computes with: integers, floats,
strings, booleans, arrays and none, together with function values, struct
types and objects (struct instances).

Symbol Table and Scopes

Scopes hold symbol tables mapping identifier ids to values. Scopes link back to
a parent scope; resolving an identifier walks the chain from the innermost to
the outermost scope. Closures keep a reference to the scope they have been
created in.

Call Frames

A call stack holds frames of execution. Each frame executes one bytecode block
and owns its operand stack.

----------------------------------------------------------------------

BSD License

Copyright (c) 2017-21, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions
are met:

1. Redistributions of source code must retain the above copyright
notice, this list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright
notice, this list of conditions and the following disclaimer in the
documentation and/or other materials provided with the distribution.

3. Neither the name of this software or the names of its contributors
may be used to endorse or promote products derived from this software
without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
"AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
(INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE. */
package runtime

import (
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

// T traces to the global interpreter tracer
func T() tracing.Trace {
	return gtrace.InterpreterTracer
}

// Runtime is a type implementing a runtime environment for the virtual machine.
type Runtime struct {
	Globals *Scope              // outermost scope
	Calls   *CallStack          // runtime stack of call frames
	Types   map[int]*StructType // struct-type registry, by type id
	Objects map[int64]*Object   // live objects, by object id
	lastOID int64               // last object id handed out
}

// NewRuntimeEnvironment constructs a new runtime environment, initialized
// with an empty global scope and an empty call stack.
func NewRuntimeEnvironment() *Runtime {
	rt := &Runtime{
		Globals: NewScope("globals", nil),
		Calls:   NewCallStack(),
		Types:   make(map[int]*StructType),
		Objects: make(map[int64]*Object),
	}
	return rt
}

// NewObject allocates an object of a given type and registers it.
// Object ids are handed out in ascending order, starting at 1.
func (rt *Runtime) NewObject(typ int, typeName string) *Object {
	rt.lastOID++
	obj := &Object{ID: rt.lastOID, Type: typ, TypeName: typeName}
	rt.Objects[obj.ID] = obj
	T().P("object", obj.ID).Debugf("new object of type %s", typeName)
	return obj
}

// DropObject removes an object from the registry.
func (rt *Runtime) DropObject(id int64) {
	delete(rt.Objects, id)
}

// DefineType registers a struct type, replacing a previous definition with
// the same id.
func (rt *Runtime) DefineType(st *StructType) *StructType {
	old := rt.Types[st.ID]
	rt.Types[st.ID] = st
	return old
}
