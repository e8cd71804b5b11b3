package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/npillmayer/donitsi/ast"
	"github.com/npillmayer/donitsi/bytecode"
	"github.com/npillmayer/donitsi/compiler"
	"github.com/npillmayer/donitsi/config"
	"github.com/npillmayer/donitsi/host"
	"github.com/npillmayer/donitsi/parser"
	"github.com/npillmayer/donitsi/vm"
	"github.com/npillmayer/schuko/gconf"
	"github.com/pterm/pterm"
)

// Exit codes
const (
	exitUsage   = 1
	exitLoad    = 2
	exitRuntime = 3
)

var verbose bool

func main() {
	initDisplay()
	conffile := flag.String("config", "donitsi.toml", "Configuration file")
	tlevel := flag.String("trace", "", "Trace level [Debug|Info|Error]")
	flag.BoolVar(&verbose, "v", false, "Show every action dispatched")
	flag.Usage = usage
	flag.Parse()
	if err := setup(*conffile, *tlevel); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(exitUsage)
	}
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(exitUsage)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cmd, args := args[0], args[1:]
	tracer().Infof("command %s %v", cmd, args)
	var err error
	switch cmd {
	case "run":
		err = withSource(args, func(name, src string) error { return run(ctx, name, src) })
	case "ast":
		err = withSource(args, printAST)
	case "dump":
		err = withSource(args, dump)
	case "build":
		err = build(args)
	case "exec":
		err = execImage(ctx, args)
	case "repl":
		err = repl(ctx, args)
	default:
		usage()
		os.Exit(exitUsage)
	}
	if err != nil {
		pterm.Error.Println(err.Error())
		var rterr *vm.RuntimeError
		if errors.As(err, &rterr) || errors.Is(err, vm.ErrAborted) {
			os.Exit(exitRuntime)
		}
		os.Exit(exitLoad)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] run|ast|dump|build|exec|repl <arg>\n", os.Args[0])
	flag.PrintDefaults()
}

// setup reads the configuration and installs it globally, together with
// tracing.
func setup(conffile, tlevel string) error {
	conf, err := config.Load(conffile)
	if err != nil {
		return err
	}
	if tlevel != "" {
		conf.Set("tracelevel.root", tlevel)
		conf.Set("tracinginterpreter", tlevel)
	}
	gconf.Initialize(conf)
	return config.SetupTracing(conf)
}

func withSource(args []string, f func(name, src string) error) error {
	if len(args) != 1 {
		return errors.New("expected exactly one program argument")
	}
	name, src, err := host.Source(args[0])
	if err != nil {
		return err
	}
	return f(name, src)
}

func newVM() *vm.VM {
	opts := append(vm.ConfiguredOptions(), vm.HostSymbols(hostFunctions...))
	return vm.New(opts...)
}

func run(ctx context.Context, name, src string) error {
	machine := newVM()
	if err := machine.Load(name, src); err != nil {
		return err
	}
	return host.Runner{VM: machine, Handler: console{}}.Run(ctx)
}

// printAST prints the syntax tree of a program, followed by its bytecode.
func printAST(name, src string) error {
	nodes, err := parser.ParseSource(src)
	if err != nil {
		return err
	}
	pterm.Info.Println(name)
	if err := ast.Print(os.Stdout, nodes); err != nil {
		return err
	}
	return dumpProgram(nodes)
}

func dump(name, src string) error {
	nodes, err := parser.ParseSource(src)
	if err != nil {
		return err
	}
	return dumpProgram(nodes)
}

func dumpProgram(nodes []ast.Node) error {
	comp := compiler.New()
	if _, err := comp.CompileUnit(nodes); err != nil {
		return err
	}
	for id, block := range comp.Blocks() {
		fp, err := bytecode.Fingerprint(block)
		if err != nil {
			return err
		}
		pterm.Info.Println(fmt.Sprintf("block #%d  %s", id, fp))
		if err := bytecode.Dump(os.Stdout, block); err != nil {
			return err
		}
	}
	for id, c := range comp.Consts() {
		fmt.Printf("const %3d  %s\n", id, c)
	}
	return nil
}

func build(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	out := fs.String("o", "out.dni", "Image file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return withSource(fs.Args(), func(name, src string) error {
		nodes, err := parser.ParseSource(src)
		if err != nil {
			return err
		}
		comp := compiler.New()
		entry, err := comp.CompileUnit(nodes)
		if err != nil {
			return err
		}
		img, err := comp.Image(entry)
		if err != nil {
			return err
		}
		data, err := compiler.EncodeImage(img)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*out, data, 0644); err != nil {
			return err
		}
		pterm.Info.Println(fmt.Sprintf("wrote %s (%d bytes, %d blocks)", *out, len(data), len(img.Blocks)))
		return nil
	})
}

func execImage(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("expected exactly one image file")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	img, err := compiler.DecodeImage(data)
	if err != nil {
		return err
	}
	opts := append(vm.ConfiguredOptions(), vm.HostSymbols(hostFunctions...))
	machine, err := vm.FromImage(img, opts...)
	if err != nil {
		return err
	}
	return host.Runner{VM: machine, Handler: console{}}.Run(ctx)
}
