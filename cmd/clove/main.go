package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"github.com/npillmayer/clove/compiler"
	"github.com/npillmayer/clove/value"
)

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

// tracer traces with key 'clove.cli'.
func tracer() tracing.Trace {
	return tracing.Select("clove.cli")
}

// Exit codes: 0 success, 1 compile error, 2 bad invocation.
const (
	exitOK            = 0
	exitCompileError  = 1
	exitBadInvocation = 2
)

// main drives the clove CLI:
//
//	clove compile <paths>   compile source files to loadable modules
//	clove run <script>      compile and evaluate a script
//	clove repl              interactive read-compile-eval-print loop
//
func main() {
	gtrace.SyntaxTracer = gologadapter.New()
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	cfgPath := flag.String("config", "clove.yaml", "Configuration file")
	flag.Parse()
	tracer().SetTraceLevel(traceLevel(*tlevel))
	//
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(exitBadInvocation)
	}
	cfg := loadConfig(*cfgPath)
	switch args[0] {
	case "compile":
		if len(args) < 2 {
			usage()
			os.Exit(exitBadInvocation)
		}
		cfg.CompileFiles = true
		os.Exit(compileFiles(cfg, args[1:]))
	case "run":
		if len(args) != 2 {
			usage()
			os.Exit(exitBadInvocation)
		}
		os.Exit(runScript(cfg, args[1]))
	case "repl":
		os.Exit(repl(cfg))
	default:
		usage()
		os.Exit(exitBadInvocation)
	}
}

func usage() {
	pterm.Error.Println("usage: clove [flags] compile <paths> | run <script> | repl")
}

func loadConfig(path string) *compiler.Config {
	if _, err := os.Stat(path); err != nil {
		return compiler.DefaultConfig()
	}
	cfg, err := compiler.LoadConfig(path)
	if err != nil {
		pterm.Warning.Printf("cannot read %s: %v\n", path, err)
		return compiler.DefaultConfig()
	}
	return cfg
}

func traceLevel(name string) tracing.TraceLevel {
	switch name {
	case "Debug":
		return tracing.LevelDebug
	case "Info":
		return tracing.LevelInfo
	}
	return tracing.LevelError
}

// --- compile & run -----------------------------------------------------------

func compileFiles(cfg *compiler.Config, paths []string) int {
	c := compiler.NewCompiler(cfg)
	failed := false
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			pterm.Error.Printf("%s: %v\n", path, err)
			failed = true
			continue
		}
		_, err = c.Compile(f, filepath.ToSlash(path))
		f.Close()
		if err != nil {
			failed = true
		}
	}
	printDiagnostics(c)
	if failed {
		return exitCompileError
	}
	for _, a := range c.Artifacts() {
		if a.Path != "" {
			tracer().Infof("wrote %s", a.Path)
		}
	}
	return exitOK
}

func runScript(cfg *compiler.Config, path string) int {
	f, err := os.Open(path)
	if err != nil {
		pterm.Error.Printf("%s: %v\n", path, err)
		return exitBadInvocation
	}
	defer f.Close()
	c := compiler.NewCompiler(cfg)
	val, err := c.Compile(f, filepath.ToSlash(path))
	printDiagnostics(c)
	if err != nil {
		return exitCompileError
	}
	fmt.Println(value.PrintString(val))
	return exitOK
}

func printDiagnostics(c *compiler.Compiler) {
	for _, d := range c.Diagnostics() {
		if d.Warning {
			pterm.Warning.Println(d.String())
		} else {
			pterm.Error.Println(d.String())
		}
	}
}

// --- REPL --------------------------------------------------------------------

func repl(cfg *compiler.Config) int {
	pterm.Info.Println("Clove REPL — quit with <ctrl>D")
	rl, err := readline.New("clove> ")
	if err != nil {
		tracer().Errorf(err.Error())
		return exitBadInvocation
	}
	defer rl.Close()
	c := compiler.NewCompiler(cfg)
	seen := 0
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			pterm.Info.Println("Good bye!")
			return exitOK
		}
		if err != nil {
			tracer().Errorf(err.Error())
			return exitCompileError
		}
		if line == "" {
			continue
		}
		val, err := c.CompileString(line, "repl")
		diags := c.Diagnostics()
		for _, d := range diags[seen:] {
			if d.Warning {
				pterm.Warning.Println(d.String())
			} else {
				pterm.Error.Println(d.String())
			}
		}
		seen = len(diags)
		if err != nil {
			continue
		}
		fmt.Println(value.PrintString(val))
	}
}
