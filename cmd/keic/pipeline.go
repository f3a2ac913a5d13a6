package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keilang/kei/internal/check"
	"github.com/keilang/kei/internal/config"
	"github.com/keilang/kei/internal/diag"
	"github.com/keilang/kei/internal/emit"
	"github.com/keilang/kei/internal/errors"
	"github.com/keilang/kei/internal/lexer"
	"github.com/keilang/kei/internal/lower"
	"github.com/keilang/kei/internal/parser"
	"github.com/keilang/kei/internal/resolve"
	"github.com/keilang/kei/internal/ssa"
)

// run executes the pipeline up to opts.stop and returns the process exit
// code: 0 on success, 1 on any reported error, or the child program's exit
// code when --run reaches a successful build.
func run(opts options) int {
	content, err := os.ReadFile(opts.file)
	if err != nil {
		reportError("cannot read %q: %v", opts.file, err)
		return 1
	}
	source := string(content)

	if opts.stop == stopTokens {
		dumpTokens(source, opts.file)
		return 0
	}

	if opts.stop == stopAST || opts.stop == stopASTJSON {
		l := lexer.New(source, opts.file)
		p := parser.New(l, opts.file)
		file := p.Parse()
		if p.HasErrors() {
			printDiagnostics(p.Diagnostics())
			return 1
		}
		if opts.stop == stopASTJSON {
			data, err := json.MarshalIndent(file, "", "  ")
			if err != nil {
				reportError("marshaling AST: %v", err)
				return 1
			}
			fmt.Println(string(data))
		} else {
			dumpAST(file)
		}
		return 0
	}

	proj, err := config.Load(projectDir(opts.file))
	if err != nil {
		reportError("%v", err)
		return 1
	}
	proj = proj.Resolve(opts.stdlib, opts.deps, opts.cc)

	opts.trace("resolving modules from %s", opts.file)
	res := resolve.New(proj.DepsRoot, proj.StdlibRoot)
	modules, err := res.Resolve(opts.file)
	if err != nil {
		printResolveError(err)
		return 1
	}
	opts.trace("resolved %d modules", len(modules))

	sink := diag.NewSink()
	checker := check.New(sink)
	ok := checker.Check(modules)
	printDiagnostics(sink.Diagnostics())
	if !ok {
		return 1
	}
	if opts.stop == stopCheck {
		fmt.Println(green("ok"))
		return 0
	}

	lowerer := lower.New(checker.Annotations(), sink)
	mod := lowerer.Lower(modules)
	printDiagnostics(sink.Diagnostics())
	if sink.HasErrors() {
		return 1
	}
	if opts.stop == stopKIR {
		dumpKIR(mod)
		return 0
	}

	opts.trace("running mem2reg + de-SSA over %d functions", len(mod.Functions))
	for _, fn := range mod.Functions {
		ssa.Mem2Reg(fn)
		ssa.DeSSA(fn)
	}
	if opts.stop == stopKIROpt {
		dumpKIR(mod)
		return 0
	}

	cSource := emit.Emit(mod)
	if opts.stop == stopEmitC {
		fmt.Print(cSource)
		return 0
	}

	cPath := opts.outStem + ".c"
	if err := os.WriteFile(cPath, []byte(cSource), 0o644); err != nil {
		reportError("writing %s: %v", cPath, err)
		return 1
	}
	opts.trace("wrote %s", cPath)

	ccBin, err := probeHostCompiler(proj.CC)
	if err != nil {
		reportError("%v", err)
		return 1
	}
	opts.trace("using host compiler %s", ccBin)

	if err := compile(ccBin, cPath, opts.outStem); err != nil {
		reportError("%v", err)
		return 1
	}
	fmt.Printf("%s compiled %s\n", green("->"), opts.outStem)
	if opts.stop == stopBuild {
		return 0
	}

	return runBinary(opts.outStem)
}

func printDiagnostics(diags []diag.Diagnostic) {
	for _, d := range diags {
		label := d.Severity.String()
		switch d.Severity {
		case diag.Error:
			label = red(label)
		case diag.Warning:
			label = yellow(label)
		default:
			label = cyan(label)
		}
		fmt.Fprintf(os.Stderr, "%s: %s at %s\n", label, d.Message, d.Span.Start)
	}
}

func printResolveError(err error) {
	if rep, ok := errors.AsReport(err); ok {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("error"), rep.Message)
		return
	}
	reportError("%v", err)
}

// projectDir is the directory keic looks in for an optional kei.yaml: the
// directory containing the main file.
func projectDir(mainFile string) string {
	return filepath.Dir(mainFile)
}

func dumpTokens(source, file string) {
	l := lexer.New(source, file)
	for {
		tok := l.NextToken()
		fmt.Println(tok.String())
		if tok.Type == lexer.EOF {
			break
		}
	}
}
