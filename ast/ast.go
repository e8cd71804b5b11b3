/*
Package ast defines the abstract syntax tree of the donitsi language.

Nodes are plain values. A node exclusively owns its children; there is no
sharing of sub-trees and no back-links. A program is a sequence of top-level
nodes.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ast

import (
	"fmt"
	"strings"
)

// Node is the common interface of all AST nodes.
type Node interface {
	fmt.Stringer
	node()
}

// Operator is an arithmetic operator of a binary operation.
type Operator byte

// Arithmetic operators
const (
	Add Operator = '+'
	Sub Operator = '-'
	Mul Operator = '*'
	Div Operator = '/'
)

func (op Operator) String() string {
	return string(op)
}

// Ident is a reference to an identifier.
type Ident struct {
	Name string
}

// Assign binds the value of Right to Left.
type Assign struct {
	Left  Node
	Right Node
}

// Field is a named value inside a struct-instance literal.
type Field struct {
	Name  string
	Value Node
}

// StructInstance is an object literal like `Ball { x: 1, y: 2 }`.
type StructInstance struct {
	Name   string
	Fields []Field
}

// Array is an array literal.
type Array struct {
	Items []Node
}

// Call applies Callee to Args.
type Call struct {
	Callee Node
	Args   []Node
}

// PropertyAccess is `object.property`.
type PropertyAccess struct {
	Object   Node
	Property string
}

// BinOp is an arithmetic operation.
type BinOp struct {
	Left  Node
	Op    Operator
	Right Node
}

// Fun is a function literal.
type Fun struct {
	Params []Ident
	Body   []Node
}

// FieldDecl declares a field of a struct type.
type FieldDecl struct {
	Name string
	Type string
}

// StructDef is a type declaration like `type Ball { x: Int, y: Int }`.
type StructDef struct {
	Name   string
	Fields []FieldDecl
}

// Var is a typed variable declaration like `Int counter`.
type Var struct {
	Name     string
	TypeName string
}

// Return leaves a function. Value is nil for a bare return.
type Return struct {
	Value Node
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
}

// FloatLit is a decimal literal.
type FloatLit struct {
	Value float64
}

// StrLit is a string literal.
type StrLit struct {
	Value string
}

func (Ident) node()          {}
func (Assign) node()         {}
func (StructInstance) node() {}
func (Array) node()          {}
func (Call) node()           {}
func (PropertyAccess) node() {}
func (BinOp) node()          {}
func (Fun) node()            {}
func (StructDef) node()      {}
func (Var) node()            {}
func (Return) node()         {}
func (IntLit) node()         {}
func (FloatLit) node()       {}
func (StrLit) node()         {}

// --- Stringers -------------------------------------------------------------

func (n Ident) String() string { return n.Name }

func (n Assign) String() string {
	return fmt.Sprintf("%s = %s", n.Left, n.Right)
}

func (n StructInstance) String() string {
	fields := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Value)
	}
	return fmt.Sprintf("%s { %s }", n.Name, strings.Join(fields, ", "))
}

func (n Array) String() string {
	return "[" + join(n.Items) + "]"
}

func (n Call) String() string {
	return fmt.Sprintf("%s(%s)", n.Callee, join(n.Args))
}

func (n PropertyAccess) String() string {
	return fmt.Sprintf("%s.%s", n.Object, n.Property)
}

func (n BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}

func (n Fun) String() string {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.Name
	}
	return fmt.Sprintf("(%s) => { %s }", strings.Join(params, ", "), strings.Join(strs(n.Body), "; "))
}

func (n StructDef) String() string {
	fields := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	return fmt.Sprintf("type %s { %s }", n.Name, strings.Join(fields, ", "))
}

func (n Var) String() string {
	return n.TypeName + " " + n.Name
}

func (n Return) String() string {
	if n.Value == nil {
		return "return"
	}
	return "return " + n.Value.String()
}

func (n IntLit) String() string   { return fmt.Sprintf("%d", n.Value) }
func (n FloatLit) String() string { return fmt.Sprintf("%g", n.Value) }
func (n StrLit) String() string   { return fmt.Sprintf("%q", n.Value) }

func join(nodes []Node) string {
	return strings.Join(strs(nodes), ", ")
}

func strs(nodes []Node) []string {
	s := make([]string, len(nodes))
	for i, n := range nodes {
		s[i] = n.String()
	}
	return s
}
