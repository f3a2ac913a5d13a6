// Command keic is kei's one-shot compiler driver (C11, spec.md §4.8): it
// selects a pipeline stop point via flags, runs lexing through whichever
// stages that requires, and in compile mode shells out to a host C compiler.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		astFlag     = flag.Bool("ast", false, "stop after parsing, print the AST")
		astJSONFlag = flag.Bool("ast-json", false, "stop after parsing, print the AST as JSON")
		checkFlag   = flag.Bool("check", false, "stop after semantic checking")
		kirFlag     = flag.Bool("kir", false, "stop after lowering, print KIR")
		kirOptFlag  = flag.Bool("kir-opt", false, "stop after mem2reg+de-SSA, print KIR")
		emitCFlag   = flag.Bool("emit-c", false, "stop after C emission, print the generated C")
		buildFlag   = flag.Bool("build", false, "compile the generated C with a host compiler")
		runFlag     = flag.Bool("run", false, "build and run the resulting binary")
		debugFlag   = flag.Bool("debug", false, "trace pipeline stage transitions to stderr")
		stdlibFlag  = flag.String("stdlib", "", "override the standard-library root (takes precedence over kei.yaml)")
		depsFlag    = flag.String("deps", "", "override the third-party module root (takes precedence over kei.yaml)")
		ccFlag      = flag.String("cc", "", "comma-separated host C compiler search order override")
		outFlag     = flag.String("out", "", "output binary/stem name override (default: input file's basename)")
	)

	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}
	file := flag.Arg(0)

	stop := stopTokens
	switch {
	case *astFlag:
		stop = stopAST
	case *astJSONFlag:
		stop = stopASTJSON
	case *checkFlag:
		stop = stopCheck
	case *kirFlag:
		stop = stopKIR
	case *kirOptFlag:
		stop = stopKIROpt
	case *emitCFlag:
		stop = stopEmitC
	case *runFlag:
		stop = stopRun
	case *buildFlag:
		stop = stopBuild
	}

	var cc []string
	if *ccFlag != "" {
		cc = strings.Split(*ccFlag, ",")
	}

	opts := options{
		file:    file,
		stop:    stop,
		debug:   *debugFlag,
		stdlib:  *stdlibFlag,
		deps:    *depsFlag,
		cc:      cc,
		outStem: *outFlag,
	}
	if opts.outStem == "" {
		base := filepath.Base(file)
		opts.outStem = strings.TrimSuffix(base, filepath.Ext(base))
	}

	code := run(opts)
	os.Exit(code)
}

func printUsage() {
	fmt.Println(bold("keic - the kei compiler"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s\n", cyan("keic <file.kei> [flag]"))
	fmt.Println()
	fmt.Println("Flags select a pipeline stop point (mutually exclusive; default dumps tokens):")
	fmt.Println("  --ast         stop after parsing, print the AST")
	fmt.Println("  --ast-json    stop after parsing, print the AST as JSON")
	fmt.Println("  --check       stop after semantic checking")
	fmt.Println("  --kir         stop after lowering, print KIR")
	fmt.Println("  --kir-opt     stop after mem2reg+de-SSA, print KIR")
	fmt.Println("  --emit-c      stop after C emission, print the generated C")
	fmt.Println("  --build       compile the generated C with a host compiler")
	fmt.Println("  --run         build and run the resulting binary, propagating its exit code")
	fmt.Println()
	fmt.Println("Other flags:")
	fmt.Println("  --debug             trace pipeline stage transitions to stderr")
	fmt.Println("  --stdlib <dir>      override the standard-library root")
	fmt.Println("  --deps <dir>        override the third-party module root")
	fmt.Println("  --cc <c1,c2,...>    host C compiler search order override")
	fmt.Println("  --out <name>        output binary/stem name override")
}

// stopPoint names the pipeline stage the driver should stop after.
type stopPoint int

const (
	stopTokens stopPoint = iota
	stopAST
	stopASTJSON
	stopCheck
	stopKIR
	stopKIROpt
	stopEmitC
	stopBuild
	stopRun
)

type options struct {
	file    string
	stop    stopPoint
	debug   bool
	stdlib  string
	deps    string
	cc      []string
	outStem string
}

func (o options) trace(format string, args ...interface{}) {
	if !o.debug {
		return
	}
	fmt.Fprintf(os.Stderr, "DEBUG keic: "+format+"\n", args...)
}

func reportError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", red("error"), fmt.Sprintf(format, args...))
}
