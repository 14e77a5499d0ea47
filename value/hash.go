package value

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"sort"

	"github.com/cnf/structhash"
)

// Structural hashing. Every value maps to a shadow tree of exported structs,
// which structhash serializes. Metadata never contributes to the hash, so
// hashing stays consistent with Equal.

type shadowAtom struct {
	K int
	T string
}

type shadowSeq struct {
	K     int
	Items []interface{}
}

func shadowOf(v Value) interface{} {
	if v == nil {
		return shadowAtom{K: int(NilKind)}
	}
	switch x := v.(type) {
	case *List:
		sh := shadowSeq{K: int(ListKind)}
		x.ForEach(func(e Value) bool {
			sh.Items = append(sh.Items, shadowOf(e))
			return true
		})
		return sh
	case *Vector:
		sh := shadowSeq{K: int(VectorKind)}
		for _, e := range x.Items {
			sh.Items = append(sh.Items, shadowOf(e))
		}
		return sh
	case *Map:
		// entry hashes sorted: map equality ignores insertion order
		var hs []string
		x.Each(func(e MapEntry) {
			hs = append(hs, Hash(e.Key)+"="+Hash(e.Val))
		})
		sort.Strings(hs)
		sh := shadowSeq{K: int(MapKind)}
		for _, h := range hs {
			sh.Items = append(sh.Items, h)
		}
		return sh
	case *Set:
		var hs []string
		x.Each(func(e Value) {
			hs = append(hs, Hash(e))
		})
		sort.Strings(hs)
		sh := shadowSeq{K: int(SetKind)}
		for _, h := range hs {
			sh.Items = append(sh.Items, h)
		}
		return sh
	case *Tagged:
		return shadowSeq{K: int(TaggedKind), Items: []interface{}{
			shadowOf(x.Tag), shadowOf(x.Form),
		}}
	case *Cond:
		sh := shadowSeq{K: int(CondKind)}
		if x.Splicing {
			sh.Items = append(sh.Items, "@")
		}
		sh.Items = append(sh.Items, shadowOf(x.Forms))
		return sh
	case *Symbol:
		return shadowAtom{K: int(SymbolKind), T: x.FullName()}
	case Keyword:
		k := x.Name
		if x.NS != "" {
			k = x.NS + "/" + x.Name
		}
		return shadowAtom{K: int(KeywordKind), T: k}
	default:
		return shadowAtom{K: int(v.Kind()), T: v.String()}
	}
}

// Hash returns the structural hash of v as a hex string.
func Hash(v Value) string {
	return fmt.Sprintf("%x", structhash.Md5(shadowOf(v), 1))
}

// Equal compares two values structurally. Metadata is ignored; map and set
// equality ignores insertion order.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return IsNil(a) && IsNil(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	// cheap paths for the common atoms
	switch x := a.(type) {
	case Keyword:
		return x == b.(Keyword)
	case *Symbol:
		return SameSym(x, b.(*Symbol))
	case Int:
		return x == b.(Int)
	case String:
		return x == b.(String)
	case Bool:
		return x == b.(Bool)
	case Nil:
		return true
	}
	return Hash(a) == Hash(b)
}
