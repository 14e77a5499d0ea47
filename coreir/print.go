package coreir

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/clove/value"
)

// Textual dump of module trees, written alongside bytecode when a core dump
// is requested. The format is for humans and tests; the assembler consumes
// the tree itself.

// DumpString renders a module tree.
func DumpString(m *Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s\n", m.Name)
	if len(m.Exports) > 0 {
		var exps []string
		for _, e := range m.Exports {
			exps = append(exps, fmt.Sprintf("%s/%d", e.Name, e.Arity))
		}
		fmt.Fprintf(&sb, "  exports [%s]\n", strings.Join(exps, " "))
	}
	if len(m.Attrs) > 0 {
		keys := make([]string, 0, len(m.Attrs))
		for k := range m.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "  attr %s = %s\n", k, value.PrintString(m.Attrs[k]))
		}
	}
	for _, d := range m.Defs {
		fmt.Fprintf(&sb, "  def %s/%d =\n", d.Name, d.Arity)
		writeExpr(&sb, d.Fun, 2)
	}
	for _, e := range m.OnLoad {
		sb.WriteString("  on-load\n")
		writeExpr(&sb, e, 2)
	}
	return sb.String()
}

// ExprString renders a single expression.
func ExprString(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func writeExpr(sb *strings.Builder, e Expr, depth int) {
	ind := strings.Repeat("  ", depth)
	switch x := e.(type) {
	case nil:
		fmt.Fprintf(sb, "%snil\n", ind)
	case Lit:
		fmt.Fprintf(sb, "%s%s\n", ind, value.PrintString(x.Val))
	case Atom:
		fmt.Fprintf(sb, "%s'%s\n", ind, x.Name)
	case Var:
		fmt.Fprintf(sb, "%s%s\n", ind, x.Name)
	case FnRef:
		fmt.Fprintf(sb, "%s%s/%d\n", ind, x.Name, x.Arity)
	case ErlFunRef:
		fmt.Fprintf(sb, "%sfun %s:%s/%d\n", ind, x.Module, x.Function, x.Arity)
	case Fun:
		fmt.Fprintf(sb, "%sfun (%s) ->\n", ind, strings.Join(x.Params, ", "))
		writeExpr(sb, x.Body, depth+1)
	case Apply:
		fmt.Fprintf(sb, "%sapply\n", ind)
		writeExpr(sb, x.Fn, depth+1)
		for _, a := range x.Args {
			writeExpr(sb, a, depth+1)
		}
	case Call:
		fmt.Fprintf(sb, "%scall %s:%s\n", ind, x.Module, x.Function)
		for _, a := range x.Args {
			writeExpr(sb, a, depth+1)
		}
	case Let:
		fmt.Fprintf(sb, "%slet <%s> =\n", ind, strings.Join(x.Vars, ", "))
		writeExpr(sb, x.Arg, depth+1)
		fmt.Fprintf(sb, "%sin\n", ind)
		writeExpr(sb, x.Body, depth+1)
	case LetRec:
		fmt.Fprintf(sb, "%sletrec\n", ind)
		for _, d := range x.Defs {
			fmt.Fprintf(sb, "%s  %s/%d =\n", ind, d.Name, d.Arity)
			writeExpr(sb, d.Fun, depth+2)
		}
		fmt.Fprintf(sb, "%sin\n", ind)
		writeExpr(sb, x.Body, depth+1)
	case Seq:
		fmt.Fprintf(sb, "%sdo\n", ind)
		writeExpr(sb, x.First, depth+1)
		writeExpr(sb, x.Then, depth+1)
	case Case:
		fmt.Fprintf(sb, "%scase\n", ind)
		writeExpr(sb, x.Arg, depth+1)
		fmt.Fprintf(sb, "%sof\n", ind)
		writeClauses(sb, x.Clauses, depth+1)
	case Try:
		fmt.Fprintf(sb, "%stry\n", ind)
		writeExpr(sb, x.Arg, depth+1)
		fmt.Fprintf(sb, "%sof <%s> ->\n", ind, strings.Join(x.Vars, ", "))
		writeExpr(sb, x.Body, depth+1)
		fmt.Fprintf(sb, "%scatch <%s> ->\n", ind, strings.Join(x.EVars, ", "))
		writeExpr(sb, x.Handler, depth+1)
	case Raise:
		fmt.Fprintf(sb, "%sraise %s\n", ind, x.Class)
		writeExpr(sb, x.Arg, depth+1)
	case Receive:
		fmt.Fprintf(sb, "%sreceive\n", ind)
		writeClauses(sb, x.Clauses, depth+1)
		if x.Timeout != nil {
			fmt.Fprintf(sb, "%safter\n", ind)
			writeExpr(sb, x.Timeout, depth+1)
			writeExpr(sb, x.Action, depth+1)
		}
	case Tuple:
		fmt.Fprintf(sb, "%stuple\n", ind)
		for _, i := range x.Items {
			writeExpr(sb, i, depth+1)
		}
	case ListExpr:
		fmt.Fprintf(sb, "%slist\n", ind)
		for _, i := range x.Items {
			writeExpr(sb, i, depth+1)
		}
		if x.Tail != nil {
			fmt.Fprintf(sb, "%s| tail\n", ind)
			writeExpr(sb, x.Tail, depth+1)
		}
	case MapExpr:
		fmt.Fprintf(sb, "%smap\n", ind)
		for _, p := range x.Pairs {
			writeExpr(sb, p.Key, depth+1)
			writeExpr(sb, p.Val, depth+2)
		}
	case Binary:
		fmt.Fprintf(sb, "%sbinary (%d segments)\n", ind, len(x.Segments))
	default:
		fmt.Fprintf(sb, "%s?%T\n", ind, e)
	}
}

func writeClauses(sb *strings.Builder, clauses []Clause, depth int) {
	ind := strings.Repeat("  ", depth)
	for _, c := range clauses {
		var pats []string
		for _, p := range c.Patterns {
			pats = append(pats, PatString(p))
		}
		fmt.Fprintf(sb, "%s<%s> ->\n", ind, strings.Join(pats, ", "))
		writeExpr(sb, c.Body, depth+1)
	}
}

// PatString renders a pattern on one line.
func PatString(p Pat) string {
	switch x := p.(type) {
	case PLit:
		return value.PrintString(x.Val)
	case PAtom:
		return "'" + x.Name
	case PVar:
		return x.Name
	case PWild:
		return "_"
	case PTuple:
		var items []string
		for _, i := range x.Items {
			items = append(items, PatString(i))
		}
		return "{" + strings.Join(items, ", ") + "}"
	case PList:
		var items []string
		for _, i := range x.Items {
			items = append(items, PatString(i))
		}
		s := "[" + strings.Join(items, ", ")
		if x.Tail != nil {
			s += " | " + PatString(x.Tail)
		}
		return s + "]"
	case PMap:
		var items []string
		for _, e := range x.Entries {
			items = append(items, PatString(e.Key)+" => "+PatString(e.Val))
		}
		return "~{" + strings.Join(items, ", ") + "}~"
	case PAlias:
		return x.Name + " = " + PatString(x.Pat)
	}
	return fmt.Sprintf("?%T", p)
}
