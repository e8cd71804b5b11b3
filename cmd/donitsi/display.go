package main

import (
	"context"
	"strings"

	"github.com/npillmayer/donitsi/ast"
	"github.com/npillmayer/donitsi/runtime"
	"github.com/npillmayer/donitsi/vm"
	"github.com/pterm/pterm"
)

// hostFunctions are serviced by the console.
var hostFunctions = []string{"print", "info"}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// renderTree displays a syntax tree on the terminal.
func renderTree(nodes []ast.Node) {
	var ll pterm.LeveledList
	ast.Leveled(nodes, func(level int, label string) {
		ll = append(ll, pterm.LeveledListItem{Level: level, Text: label})
	})
	if len(ll) == 0 {
		pterm.Println("(empty)")
		return
	}
	root := pterm.NewTreeFromLeveledList(ll)
	pterm.DefaultTree.WithRoot(root).Render()
}

// console is a host, servicing host functions on the terminal.
type console struct{}

func (console) Handle(ctx context.Context, a vm.Action) (runtime.Value, error) {
	switch a := a.(type) {
	case vm.Call:
		switch a.Name {
		case "print":
			pterm.Println(joinArgs(a.Args))
			return runtime.None, nil
		case "info":
			pterm.Info.Println(joinArgs(a.Args))
			return runtime.None, nil
		}
		pterm.Info.Println("host call " + a.String())
		return runtime.None, nil
	case vm.Import:
		pterm.Error.Println("imports are not supported: " + a.Path)
		return runtime.None, nil
	}
	if verbose {
		pterm.Info.Println(a.String())
	}
	return runtime.None, nil
}

func joinArgs(args []runtime.Value) string {
	s := make([]string, len(args))
	for i, arg := range args {
		s[i] = arg.String()
	}
	return strings.Join(s, " ")
}
