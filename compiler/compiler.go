package compiler

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/analyzer"
	"github.com/npillmayer/clove/coreir"
	"github.com/npillmayer/clove/emitter"
	"github.com/npillmayer/clove/reader"
	"github.com/npillmayer/clove/runtime"
	"github.com/npillmayer/clove/value"
)

const coreNS = "clojure.core"

// Diagnostic is one user-visible warning or error line.
type Diagnostic struct {
	Pos     clove.Pos
	Msg     string
	Warning bool
}

func (d Diagnostic) String() string {
	prefix := "error"
	if d.Warning {
		prefix = "warning"
	}
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, prefix, d.Msg)
	}
	return fmt.Sprintf("%s: %s", prefix, d.Msg)
}

// Artifact is one produced module: callers diff these lists to detect what
// a compile changed.
type Artifact struct {
	Module   string
	Path     string // file path when *compile-files* was set, else empty
	Bytecode []byte
}

// Compiler is the top-level driver. One Compiler owns a namespace registry,
// an environment and a backend, and compiles one form at a time.
type Compiler struct {
	cfg      *Config
	reg      *runtime.Registry
	env      *runtime.Env
	an       *analyzer.Analyzer
	backend  coreir.Backend
	vm       *MemoryBackend
	bindings *runtime.Bindings

	compileFilesVar *runtime.Var

	artifacts   []Artifact
	diagnostics []Diagnostic
	file        string
}

// NewCompiler creates a driver with the in-memory backend.
func NewCompiler(cfg *Config) *Compiler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	reg := runtime.NewRegistry()
	vm := NewMemoryBackend(reg)
	c := &Compiler{
		cfg:      cfg,
		reg:      reg,
		env:      runtime.NewEnv(reg, "user"),
		backend:  vm,
		vm:       vm,
		bindings: vm.Bindings(),
	}
	an := analyzer.New(reg)
	an.MacroEval = c
	an.Warn = func(pos clove.Pos, msg string) {
		c.diagnostics = append(c.diagnostics, Diagnostic{Pos: pos, Msg: msg, Warning: true})
	}
	an.NoWarnSymbolAsErlFun = cfg.NoWarnSymbolAsErlFun
	an.NoWarnDynamicVarName = cfg.NoWarnDynamicVarName
	c.an = an
	c.bootstrap()
	return c
}

// bootstrap sets up the core namespace and the compiler's runtime flags.
func (c *Compiler) bootstrap() {
	core := c.reg.FindOrCreate(coreNS)
	cf := core.Intern("*compile-files*")
	cf.SetDynamic()
	cf.BindRoot(value.Bool(c.cfg.CompileFiles))
	c.compileFilesVar = cf
}

// Registry returns the process-wide namespace registry.
func (c *Compiler) Registry() *runtime.Registry {
	return c.reg
}

// Env returns the current environment; Env().Eval holds the value of the
// most recently compiled form.
func (c *Compiler) Env() *runtime.Env {
	return c.env
}

// Artifacts lists the modules produced so far, in production order.
func (c *Compiler) Artifacts() []Artifact {
	return c.artifacts
}

// Diagnostics lists accumulated warnings and errors.
func (c *Compiler) Diagnostics() []Diagnostic {
	return c.diagnostics
}

// --- Reading ------------------------------------------------------------------

// readerOpts derives reader options from the source file extension: .cljc
// and .clje allow reader conditionals (feature :clje plus the configured
// features), .cljs allows them only when features are configured, and .clj
// and every other extension forbid them.
func (c *Compiler) readerOpts(file string) reader.Opts {
	opts := reader.Opts{
		File:     file,
		Resolver: c,
		ReadEval: c.cfg.ReadEval,
		Eval: func(form value.Value) (value.Value, error) {
			return c.CompileForm(form)
		},
		DefaultReaders: defaultDataReaders(),
	}
	switch filepath.Ext(file) {
	case ".cljc", ".clje":
		opts.Cond = reader.CondAllow
		opts.Features = []value.Keyword{value.Kw("clje")}
		for _, f := range c.cfg.Features {
			opts.Features = append(opts.Features, value.Kw(strings.TrimPrefix(f, ":")))
		}
	case ".cljs":
		// same as .clj unless the caller injects features
		if len(c.cfg.Features) > 0 {
			opts.Cond = reader.CondAllow
			for _, f := range c.cfg.Features {
				opts.Features = append(opts.Features, value.Kw(strings.TrimPrefix(f, ":")))
			}
		} else {
			opts.Cond = reader.CondDisallow
		}
	default:
		opts.Cond = reader.CondDisallow
	}
	return opts
}

// defaultDataReaders installs #inst and #uuid, which pass their form
// through tagged so the runtime library can interpret them.
func defaultDataReaders() map[string]reader.DataReader {
	keep := func(tag string) reader.DataReader {
		return func(form value.Value) (value.Value, error) {
			return value.NewTagged(value.Sym(tag), form, value.PosOf(form)), nil
		}
	}
	return map[string]reader.DataReader{
		"inst": keep("inst"),
		"uuid": keep("uuid"),
	}
}

// CompileString compiles every form of src in order, returning the value of
// the last one.
func (c *Compiler) CompileString(src, file string) (value.Value, error) {
	return c.Compile(strings.NewReader(src), file)
}

// Compile reads forms from r one at a time — read, analyze, emit, load,
// evaluate — strictly in source order.
func (c *Compiler) Compile(r io.Reader, file string) (value.Value, error) {
	c.file = file
	rd := reader.New(r, c.readerOpts(file))
	var last value.Value = value.NilV
	for {
		form, err := rd.ReadOne()
		if err == io.EOF {
			return last, nil
		}
		if err != nil {
			c.report(err)
			return nil, err
		}
		if last, err = c.CompileForm(form); err != nil {
			c.report(err)
			return nil, err
		}
	}
}

func (c *Compiler) report(err error) {
	var pos clove.Pos
	var e *clove.Error
	if errors.As(err, &e) {
		pos = e.Pos
	}
	c.diagnostics = append(c.diagnostics, Diagnostic{Pos: pos, Msg: err.Error()})
}

// --- Compiling one form -------------------------------------------------------

type compileResult struct {
	val   value.Value
	env   *runtime.Env
	err   error
	stack []byte
}

// ErrShutdown is the clean-termination sentinel of a compile child; the
// driver swallows it instead of re-raising.
var ErrShutdown = errors.New("shutdown")

// CompileForm compiles a single top-level form and returns its value.
// Top-level do forms are flattened so module side effects happen in order.
// The compilation itself runs in a freshly spawned child task; the driver
// awaits it synchronously and re-raises failures with the child's stack.
func (c *Compiler) CompileForm(form value.Value) (value.Value, error) {
	if children, ok := analyzer.SplitTopDo(form); ok {
		var last value.Value = value.NilV
		for _, childForm := range children {
			var err error
			if last, err = c.CompileForm(childForm); err != nil {
				return nil, err
			}
		}
		return last, nil
	}
	ch := make(chan compileResult, 1)
	childBindings := c.bindings.Snapshot()
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- compileResult{
					err:   clove.E(clove.BadSpecialForm, value.PosOf(form), "compile task panicked: %v", p),
					stack: debug.Stack(),
				}
			}
		}()
		val, env, err := c.compileOne(form, childBindings)
		ch <- compileResult{val: val, env: env, err: err}
	}()
	res := <-ch
	if res.err != nil {
		if errors.Is(res.err, ErrShutdown) {
			return value.NilV, nil
		}
		// re-raise at the same kind, the child's stack preserved in the trace
		if res.stack != nil {
			tracer().Errorf("compile child failed:\n%s", res.stack)
		}
		return nil, res.err
	}
	// commit the child's environment to the serial loop
	c.env = res.env
	c.env.Eval = res.val
	return res.val, nil
}

// compileOne is the child task's body: analyze → emit → flush → assemble &
// load → evaluate. The child evaluates against its inherited snapshot of
// the dynamic bindings; its local pushes die with it.
func (c *Compiler) compileOne(form value.Value, bindings *runtime.Bindings) (value.Value, *runtime.Env, error) {
	if c.vm != nil {
		saved := c.vm.bindings
		c.vm.bindings = bindings
		defer func() {
			c.vm.bindings = saved
		}()
	}
	mctx := emitter.NewModuleContext()
	node, env, err := c.an.Analyze(form, c.env)
	if err != nil {
		return nil, nil, err
	}
	em := emitter.New(c.reg, mctx)
	exprs, err := em.Emit(node, env)
	if err != nil {
		return nil, nil, err
	}
	for _, mod := range mctx.Flush() {
		if err := c.emitModule(mod); err != nil {
			return nil, nil, err
		}
	}
	val, err := c.backend.Eval(exprs)
	if err != nil {
		return nil, nil, err
	}
	return val, env, nil
}

// emitModule assembles one module and either writes it below the configured
// compile path (when *compile-files* is set) or loads it in memory.
func (c *Compiler) emitModule(mod *coreir.Module) error {
	opts := coreir.AssembleOpts{
		FromCore: true,
		Binary:   true,
		Source:   c.file,
		Extra:    c.cfg.AssemblerOptions,
	}
	bytecode, err := c.backend.Assemble(mod, opts)
	if err != nil {
		return clove.E(clove.AssemblyFailed, clove.Pos{}, "assembling %s", mod.Name).Wrap(err)
	}
	artifact := Artifact{Module: mod.Name, Bytecode: bytecode}
	if c.compileFiles() {
		path, err := c.outputPath(mod)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return clove.E(clove.IOFailure, clove.Pos{}, "creating %s", filepath.Dir(path)).Wrap(err)
		}
		if err := ioutil.WriteFile(path, bytecode, 0o644); err != nil {
			return clove.E(clove.IOFailure, clove.Pos{}, "writing %s", path).Wrap(err)
		}
		artifact.Path = path
		if c.cfg.Output == "core" || c.cfg.Output == "asm" {
			dump := coreir.DumpString(mod)
			ext := "." + c.cfg.Output
			if c.cfg.Output == "asm" {
				ext = ".S"
			}
			dumpPath := strings.TrimSuffix(path, filepath.Ext(path)) + ext
			if err := ioutil.WriteFile(dumpPath, []byte(dump), 0o644); err != nil {
				return clove.E(clove.IOFailure, clove.Pos{}, "writing %s", dumpPath).Wrap(err)
			}
		}
	}
	// modules stay loaded in memory either way; later forms call into them
	if err := c.backend.Load(mod.Name, bytecode); err != nil {
		return clove.E(clove.LoadFailed, clove.Pos{}, "loading %s", mod.Name).Wrap(err)
	}
	c.artifacts = append(c.artifacts, artifact)
	return nil
}

// compileFiles reads the *compile-files* flag.
func (c *Compiler) compileFiles() bool {
	if root, bound := c.bindings.Lookup(c.compileFilesVar); bound {
		if v, ok := root.(value.Value); ok {
			return value.Truthy(v)
		}
	}
	return c.cfg.CompileFiles
}

// outputPath picks the bytecode file location. Protocol-implementation
// modules go below compile_protocols_path, falling back to compile_path
// with a warning when unset.
func (c *Compiler) outputPath(mod *coreir.Module) (string, error) {
	base := c.cfg.CompilePath
	_, isProtocol := mod.Attrs["protocol"]
	_, isImpl := mod.Attrs["impl"]
	if isProtocol || isImpl {
		if c.cfg.CompileProtocolsPath != "" {
			base = c.cfg.CompileProtocolsPath
		} else {
			c.diagnostics = append(c.diagnostics, Diagnostic{
				Msg:     "compile_protocols_path unset, falling back to compile_path",
				Warning: true,
			})
		}
	}
	if base == "" {
		return "", clove.E(clove.CompilePathUnset, clove.Pos{},
			"compile_path is not configured")
	}
	return filepath.Join(base, mod.Name+".bc"), nil
}

// --- analyzer.MacroEvaluator -----------------------------------------------------

// EvalMacro invokes a macro Var's function against the call form. The macro
// receives the unevaluated argument forms.
func (c *Compiler) EvalMacro(v *runtime.Var, form *value.List, env *runtime.Env) (value.Value, error) {
	root, bound := c.bindings.Lookup(v)
	if !bound {
		return nil, fmt.Errorf("macro %s is unbound", v)
	}
	fn, ok := root.(value.Value)
	if !ok {
		return nil, fmt.Errorf("macro %s has an opaque root", v)
	}
	return c.vm.Apply(fn, form.Rest().Slice())
}

// --- reader.Resolver -------------------------------------------------------------

// CurrentNS is part of the reader.Resolver interface.
func (c *Compiler) CurrentNS() string {
	return c.env.CurrentNS()
}

// ResolveAlias is part of the reader.Resolver interface.
func (c *Compiler) ResolveAlias(alias string) (string, bool) {
	if ns := c.env.Namespace().FindAlias(alias); ns != nil {
		return ns.Name, true
	}
	return "", false
}

// ResolveSymbol is part of the reader.Resolver interface.
func (c *Compiler) ResolveSymbol(sym *value.Symbol) *value.Symbol {
	if v := c.reg.Resolve(c.env.Namespace(), sym); v != nil {
		return value.SymQ(v.NS, v.Name)
	}
	return nil
}
