package coreir

import (
	"strings"
	"testing"

	"github.com/npillmayer/clove/value"
)

func TestModuleDefAndLookup(t *testing.T) {
	m := &Module{Name: "ex", Attrs: map[string]value.Value{}}
	m.Def("f", 1, Fun{Params: []string{"X"}, Body: Var{Name: "X"}})
	if _, ok := m.Lookup("f", 1); !ok {
		t.Errorf("cannot find f/1")
	}
	if _, ok := m.Lookup("f", 2); ok {
		t.Errorf("f/2 should not exist")
	}
	if len(m.Exports) != 1 {
		t.Errorf("Def must export")
	}
}

func TestReplaceDefKeepsPosition(t *testing.T) {
	m := &Module{Name: "ex"}
	m.Def("f", 1, Fun{Params: []string{"X"}, Body: Lit{Val: value.Int(1)}})
	m.Def("g", 1, Fun{Params: []string{"X"}, Body: Lit{Val: value.Int(2)}})
	m.ReplaceDef(FunDef{Name: "f", Arity: 1,
		Fun: Fun{Params: []string{"X"}, Body: Lit{Val: value.Int(3)}}})
	if len(m.Defs) != 2 {
		t.Fatalf("replace must not append a duplicate")
	}
	if m.Defs[0].Name != "f" {
		t.Errorf("replace must keep definition order")
	}
	def, _ := m.Lookup("f", 1)
	if lit, ok := def.Fun.Body.(Lit); !ok || !value.Equal(lit.Val, value.Int(3)) {
		t.Errorf("body not replaced")
	}
}

func TestDumpString(t *testing.T) {
	m := &Module{Name: "ex", Attrs: map[string]value.Value{
		"protocol": value.String("ex.P"),
	}}
	m.Def("m", 1, Fun{Params: []string{"X1"}, Body: Case{
		Arg: Call{Module: "clove.dispatch", Function: "tag",
			Args: []Expr{Var{Name: "X1"}}},
		Clauses: []Clause{
			{Patterns: []Pat{PAtom{Name: "integer"}}, Body: Lit{Val: value.Int(1)}},
			{Patterns: []Pat{PWild{}}, Body: Raise{Class: "error",
				Arg: Tuple{Items: []Expr{Atom{Name: "not_implemented"}}}}},
		},
	}})
	dump := DumpString(m)
	for _, want := range []string{"module ex", "exports [m/1]", "attr protocol",
		"def m/1", "'integer", "raise error"} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}
}

func TestPatString(t *testing.T) {
	p := PTuple{Items: []Pat{
		PAtom{Name: "throw"},
		PAlias{Name: "E", Pat: PMap{Entries: []PMapEntry{{
			Key: PAtom{Name: "type"}, Val: PAtom{Name: "ex.T"},
		}}}},
		PWild{},
	}}
	got := PatString(p)
	if !strings.Contains(got, "'throw") || !strings.Contains(got, "E = ") {
		t.Errorf("unexpected pattern rendering: %s", got)
	}
}
