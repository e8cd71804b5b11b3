package ast

import (
	"fmt"
	"io"
	"strings"
)

// Leveled walks a program depth-first and calls visit for every node, with the
// nesting level of the node and a one-line label. Nodes without children of
// their own are labelled with their source form.
//
// Container nodes produce synthetic entries for their parts ("fields",
// "params", "body"), so that every line of output makes sense on its own.
func Leveled(nodes []Node, visit func(level int, label string)) {
	for _, n := range nodes {
		leveled(n, 0, visit)
	}
}

func leveled(n Node, level int, visit func(int, string)) {
	switch n := n.(type) {
	case Assign:
		visit(level, "Assign")
		leveled(n.Left, level+1, visit)
		leveled(n.Right, level+1, visit)
	case StructInstance:
		visit(level, "StructInstance "+n.Name)
		for _, f := range n.Fields {
			visit(level+1, f.Name+":")
			leveled(f.Value, level+2, visit)
		}
	case Array:
		visit(level, fmt.Sprintf("Array[%d]", len(n.Items)))
		for _, item := range n.Items {
			leveled(item, level+1, visit)
		}
	case Call:
		visit(level, fmt.Sprintf("Call/%d", len(n.Args)))
		leveled(n.Callee, level+1, visit)
		for _, arg := range n.Args {
			leveled(arg, level+1, visit)
		}
	case PropertyAccess:
		visit(level, "Property ."+n.Property)
		leveled(n.Object, level+1, visit)
	case BinOp:
		visit(level, "BinOp "+n.Op.String())
		leveled(n.Left, level+1, visit)
		leveled(n.Right, level+1, visit)
	case Fun:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Name
		}
		visit(level, "Fun ("+strings.Join(params, ", ")+")")
		for _, stmt := range n.Body {
			leveled(stmt, level+1, visit)
		}
	case StructDef:
		visit(level, "StructDef "+n.Name)
		for _, f := range n.Fields {
			visit(level+1, f.Name+": "+f.Type)
		}
	case Return:
		visit(level, "Return")
		if n.Value != nil {
			leveled(n.Value, level+1, visit)
		}
	case Var:
		visit(level, "Var "+n.String())
	case Ident:
		visit(level, "Ident "+n.Name)
	case IntLit:
		visit(level, "Int "+n.String())
	case FloatLit:
		visit(level, "Float "+n.String())
	case StrLit:
		visit(level, "Str "+n.String())
	default:
		visit(level, fmt.Sprintf("%v", n))
	}
}

// Print writes an indented rendering of a program to w, one node per line.
func Print(w io.Writer, nodes []Node) error {
	var err error
	Leveled(nodes, func(level int, label string) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", level), label)
	})
	return err
}

// Pretty returns the rendering of Print as a string.
func Pretty(nodes []Node) string {
	var b strings.Builder
	_ = Print(&b, nodes)
	return b.String()
}
