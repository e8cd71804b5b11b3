package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/donitsi/bytecode"
	"github.com/npillmayer/donitsi/host"
	"github.com/npillmayer/donitsi/parser"
	"github.com/npillmayer/donitsi/vm"
	"github.com/npillmayer/schuko/gconf"
	"github.com/pterm/pterm"
)

// Intp is our interpreter object. Every line entered is loaded as a unit of
// its own into the same VM, thus bindings persist from line to line.
type Intp struct {
	vm     *vm.VM
	repl   *readline.Instance
	lineno int
	last   string // name of the last unit loaded
}

// repl starts an interactive session, optionally loading an init file first.
func repl(ctx context.Context, args []string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      gconf.GetString("repl.prompt"),
		HistoryFile: gconf.GetString("repl.history"),
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	intp := &Intp{vm: newVM(), repl: rl}
	pterm.Info.Println("Welcome to donitsi") // colored welcome message
	tracer().Infof("Quit with <ctrl>D or :quit")
	if len(args) > 0 {
		intp.loadInitFile(ctx, args[0])
	}
	intp.REPL(ctx)
	return nil
}

func (intp *Intp) loadInitFile(ctx context.Context, filename string) {
	f, err := os.Open(filename)
	if err != nil {
		tracer().Errorf("Unable to open init file: %s", filename)
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	lineno := 1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			if _, err := intp.Eval(ctx, line); err != nil {
				pterm.Error.Println(fmt.Sprintf("init file line %d: %v", lineno, err))
			}
		}
		lineno++
	}
	if err := scanner.Err(); err != nil {
		tracer().Errorf("Error while reading init file: " + err.Error())
	}
}

// REPL reads lines until EOF or until the user quits.
func (intp *Intp) REPL(ctx context.Context) {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := intp.Eval(ctx, line)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Println("Good bye!")
}

// Eval executes a line of input. Lines starting with a colon are commands:
//
//	:quit        leave the REPL
//	:ast <src>   show the syntax tree of src
//	:dump        show the bytecode of the last line executed
//
// Everything else is executed as a program.
func (intp *Intp) Eval(ctx context.Context, line string) (bool, error) {
	if strings.HasPrefix(line, ":") {
		cmd, arg, _ := strings.Cut(line[1:], " ")
		switch cmd {
		case "quit", "q":
			return true, nil
		case "ast":
			nodes, err := parser.ParseSource(arg)
			if err != nil {
				return false, err
			}
			renderTree(nodes)
			return false, nil
		case "dump":
			if code, ok := intp.vm.Unit(intp.last); ok {
				return false, bytecode.Dump(os.Stdout, code)
			}
			return false, nil
		}
		return false, fmt.Errorf("unknown command :%s", cmd)
	}
	intp.lineno++
	name := fmt.Sprintf("line %d", intp.lineno)
	if err := intp.vm.Load(name, line); err != nil {
		return false, err
	}
	intp.last = name
	err := host.Runner{VM: intp.vm, Handler: console{}}.Run(ctx)
	if intp.vm.Halted() {
		intp.vm.Reset() // keep bindings of previous lines
	}
	return false, err
}
