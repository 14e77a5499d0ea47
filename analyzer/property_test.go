package analyzer

import (
	"io"
	"testing"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/reader"
	"github.com/npillmayer/clove/runtime"
)

// Analyzer inputs must either succeed or fail with one of the enumerated
// error kinds — never panic, never an anonymous failure.

var allKinds = map[clove.ErrorKind]bool{
	clove.IOFailure:              true,
	clove.ReaderError:            true,
	clove.UnresolvedSymbol:       true,
	clove.BadSpecialForm:         true,
	clove.DuplicateArity:         true,
	clove.MultipleVariadic:       true,
	clove.InvalidVariadicArity:   true,
	clove.RecurArityMismatch:     true,
	clove.RecurNotInTailPosition: true,
	clove.UnknownFeature:         true,
	clove.MacroExpansionFailed:   true,
	clove.AssemblyFailed:         true,
	clove.LoadFailed:             true,
	clove.NotImplemented:         true,
	clove.CompilePathUnset:       true,
}

func TestAnalyzerNeverPanics(t *testing.T) {
	inputs := []string{
		"42",
		"(def)",
		"(def x y z w)",
		"(if)",
		"(if 1 2 3 4)",
		"(let [x] x)",
		"(let* 1 2)",
		"(fn)",
		"(fn [x y] (recur x))",
		"(fn ([x] x) ([x] x))",
		"(fn [& & x] x)",
		"(recur)",
		"(quote)",
		"(quote a b)",
		"(var 12)",
		"(var undefined-var)",
		"(throw)",
		"(try 1 (catch))",
		"(try 1 (finally 2) (catch :error e e))",
		"(catch :error e e)",
		"(new)",
		"(new Unknown)",
		"(. x)",
		"(set! 1 2)",
		"(set! missing 2)",
		"(case*)",
		"(deftype)",
		"(deftype T)",
		"(defprotocol)",
		"(defprotocol P (m))",
		"(extend-type)",
		"(extend-type :nope)",
		"(import*)",
		"(import* 1)",
		"(monitor-enter)",
		"(receive*)",
		"(receive* 1)",
		"(loop [x 0] (recur))",
		"(unknown-fn 1 2)",
		"((fn [x] x) 1)",
		"[1 (recur 1)]",
		"{:a (recur)}",
	}
	for _, src := range inputs {
		func() {
			defer func() {
				if p := recover(); p != nil {
					t.Errorf("analyzer panicked on %q: %v", src, p)
				}
			}()
			reg := runtime.NewRegistry()
			a := New(reg)
			env := runtime.NewEnv(reg, "user")
			rd := reader.FromString(src, reader.Opts{})
			for {
				form, err := rd.ReadOne()
				if err == io.EOF {
					return
				}
				if err != nil {
					return // reader errors are fine here
				}
				_, env, err = a.Analyze(form, env)
				if err == nil {
					continue
				}
				if !allKinds[clove.KindOf(err)] {
					t.Errorf("analyzing %q: error with unclassified kind: %v", src, err)
				}
				return
			}
		}()
	}
}
