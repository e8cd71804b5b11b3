package ast

import (
	"testing"
)

func TestStringers(t *testing.T) {
	var tests = []struct {
		node     Node
		expected string
	}{
		{Assign{Left: Ident{"a"}, Right: BinOp{IntLit{1}, Add, IntLit{2}}}, "a = (1 + 2)"},
		{Call{Callee: Call{Callee: Ident{"foo"}, Args: []Node{IntLit{1}}}, Args: []Node{IntLit{2}}}, "foo(1)(2)"},
		{StructInstance{Name: "Ball", Fields: []Field{{"x", IntLit{1}}, {"y", FloatLit{2.5}}}}, "Ball { x: 1, y: 2.5 }"},
		{PropertyAccess{Object: Ident{"a"}, Property: "b"}, "a.b"},
		{Array{Items: []Node{StrLit{"s"}, IntLit{7}}}, `["s", 7]`},
		{Return{}, "return"},
		{Var{Name: "n", TypeName: "Int"}, "Int n"},
	}
	for i, test := range tests {
		if s := test.node.String(); s != test.expected {
			t.Errorf("#%d: expected %q, have %q", i, test.expected, s)
		}
	}
}

func TestPretty(t *testing.T) {
	prog := []Node{
		Assign{Left: Ident{"f"}, Right: Fun{
			Params: []Ident{{"x"}},
			Body:   []Node{Return{Value: BinOp{Ident{"x"}, Mul, IntLit{2}}}},
		}},
		StructDef{Name: "Ball", Fields: []FieldDecl{{"x", "Int"}}},
	}
	expected := `Assign
  Ident f
  Fun (x)
    Return
      BinOp *
        Ident x
        Int 2
StructDef Ball
  x: Int
`
	if s := Pretty(prog); s != expected {
		t.Errorf("unexpected pretty print:\n%s", s)
	}
}
