package reader

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"strings"

	"github.com/npillmayer/clove"
	"github.com/npillmayer/clove/value"
	"golang.org/x/exp/rand"
)

// Syntax-quote expansion happens in-reader. Unqualified symbols are resolved
// through the current namespace to their fully-qualified form, auto-gensym
// suffixes name# are replaced consistently within one syntax-quote, and
// unquote / unquote-splicing survive as list-headed clojure.core forms for
// the expansion to consume.

const coreNS = "clojure.core"

// specials are the special-form names; syntax-quote leaves them unqualified.
var specials = map[string]bool{
	"def": true, "if": true, "do": true, "let*": true, "loop*": true,
	"recur": true, "fn*": true, "letfn*": true, "quote": true, "var": true,
	"throw": true, "try": true, "catch": true, "finally": true, "new": true,
	".": true, "set!": true, "case*": true, "reify*": true, "deftype*": true,
	"defprotocol": true, "extend-type": true, "import*": true,
	"monitor-enter": true, "monitor-exit": true, "receive*": true,
	"on-load*": true, "&": true,
}

func (rd *Reader) syntaxQuote(form value.Value, pos clove.Pos) (value.Value, error) {
	rd.gensyms = append(rd.gensyms, make(map[string]*value.Symbol))
	defer func() {
		rd.gensyms = rd.gensyms[:len(rd.gensyms)-1]
	}()
	return rd.sqExpand(form, pos)
}

func (rd *Reader) sqExpand(form value.Value, pos clove.Pos) (value.Value, error) {
	switch x := form.(type) {
	case *value.Symbol:
		return quoted(rd.sqResolve(x)), nil
	case *value.List:
		if isUnquote(x) {
			return x.Cadr(), nil
		}
		if isUnquoteSplicing(x) {
			return nil, clove.ReadError(clove.NoSubkind, pos, "splice not in list")
		}
		if x.IsEmpty() {
			return value.ListOf(value.SymQ(coreNS, "list")), nil
		}
		items, err := rd.sqExpandItems(x.Slice(), pos)
		if err != nil {
			return nil, err
		}
		return coreCall("seq", coreCallV("concat", items)), nil
	case *value.Vector:
		items, err := rd.sqExpandItems(x.Items, pos)
		if err != nil {
			return nil, err
		}
		return coreCall("apply", value.SymQ(coreNS, "vector"),
			coreCall("seq", coreCallV("concat", items))), nil
	case *value.Set:
		items, err := rd.sqExpandItems(x.Elems(), pos)
		if err != nil {
			return nil, err
		}
		return coreCall("apply", value.SymQ(coreNS, "hash-set"),
			coreCall("seq", coreCallV("concat", items))), nil
	case *value.Map:
		var flat []value.Value
		x.Each(func(e value.MapEntry) {
			flat = append(flat, e.Key, e.Val)
		})
		items, err := rd.sqExpandItems(flat, pos)
		if err != nil {
			return nil, err
		}
		return coreCall("apply", value.SymQ(coreNS, "hash-map"),
			coreCall("seq", coreCallV("concat", items))), nil
	case value.Keyword, value.Int, value.BigInt, value.Ratio, value.Float,
		value.BigDec, value.Char, value.String, value.Bool, value.Nil, value.Regex:
		return form, nil
	}
	return quoted(form), nil
}

func (rd *Reader) sqExpandItems(items []value.Value, pos clove.Pos) ([]value.Value, error) {
	var out []value.Value
	for _, item := range items {
		if l, ok := item.(*value.List); ok {
			if isUnquote(l) {
				out = append(out, coreCall("list", l.Cadr()))
				continue
			}
			if isUnquoteSplicing(l) {
				out = append(out, l.Cadr())
				continue
			}
		}
		exp, err := rd.sqExpand(item, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, coreCall("list", exp))
	}
	return out, nil
}

// sqResolve qualifies a symbol the way syntax-quote requires.
func (rd *Reader) sqResolve(sym *value.Symbol) *value.Symbol {
	if strings.HasSuffix(sym.Name, "#") && !sym.IsQualified() {
		table := rd.gensyms[len(rd.gensyms)-1]
		if g, ok := table[sym.Name]; ok {
			return g
		}
		g := rd.gensym(strings.TrimSuffix(sym.Name, "#"))
		table[sym.Name] = g
		return g
	}
	if specials[sym.Name] && !sym.IsQualified() {
		return sym
	}
	if sym.IsQualified() {
		if rd.opts.Resolver != nil {
			if ns, ok := rd.opts.Resolver.ResolveAlias(sym.NS); ok {
				return value.SymQ(ns, sym.Name)
			}
		}
		return sym
	}
	if rd.opts.Resolver != nil {
		if resolved := rd.opts.Resolver.ResolveSymbol(sym); resolved != nil {
			return resolved
		}
	}
	return value.SymQ(rd.currentNS(), sym.Name)
}

// gensym creates a fresh symbol which cannot collide with read symbols.
// A random component keeps names unique across independent reader
// instances, e.g. when macro expansions from several compiles meet.
func (rd *Reader) gensym(prefix string) *value.Symbol {
	rd.counter++
	return value.Sym(fmt.Sprintf("%s__%d__%04d__auto__", prefix, rd.counter, rand.Intn(10000)))
}

// --- Helpers ----------------------------------------------------------------

func quoted(v value.Value) value.Value {
	return value.ListOf(value.Sym("quote"), v)
}

func coreCall(name string, args ...value.Value) value.Value {
	return coreCallV(name, args)
}

func coreCallV(name string, args []value.Value) value.Value {
	elems := append([]value.Value{value.SymQ(coreNS, name)}, args...)
	return value.ListOf(elems...)
}

func isUnquote(l *value.List) bool {
	return headIs(l, "unquote")
}

func isUnquoteSplicing(l *value.List) bool {
	return headIs(l, "unquote-splicing")
}

func headIs(l *value.List, name string) bool {
	if l.IsEmpty() {
		return false
	}
	sym, ok := l.Car.(*value.Symbol)
	if !ok {
		return false
	}
	return sym.Name == name && (sym.NS == "" || sym.NS == coreNS)
}
