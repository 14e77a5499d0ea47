package reader

import (
	"testing"

	"github.com/npillmayer/clove/value"
	"golang.org/x/exp/rand"
)

// Grammar-generated random forms must survive read(print(v)) unchanged.

func genValue(rng *rand.Rand, depth int) value.Value {
	if depth <= 0 {
		return genAtom(rng)
	}
	switch rng.Intn(8) {
	case 0:
		n := rng.Intn(4)
		var items []value.Value
		for i := 0; i < n; i++ {
			items = append(items, genValue(rng, depth-1))
		}
		return value.ListOf(items...)
	case 1:
		n := rng.Intn(4)
		var items []value.Value
		for i := 0; i < n; i++ {
			items = append(items, genValue(rng, depth-1))
		}
		return value.NewVector(items...)
	case 2:
		m := value.NewMap()
		for i := 0; i < rng.Intn(3); i++ {
			m.Assoc(genAtom(rng), genValue(rng, depth-1))
		}
		return m
	case 3:
		s := value.NewSet()
		for i := 0; i < rng.Intn(3); i++ {
			s.Add(genValue(rng, depth-1))
		}
		return s
	default:
		return genAtom(rng)
	}
}

var atomPool = []value.Value{
	value.NilV,
	value.True,
	value.False,
	value.Int(0),
	value.Int(-42),
	value.Int(123456789),
	value.Float(1.5),
	value.Char('a'),
	value.Char('\n'),
	value.String("hello"),
	value.String("line\nbreak \"q\""),
	value.Kw("kw"),
	value.KwQ("some.ns", "kw"),
	value.Sym("sym"),
	value.SymQ("some.ns", "sym"),
	value.Sym("+"),
	value.Sym("with-dash?"),
}

func genAtom(rng *rand.Rand) value.Value {
	return atomPool[rng.Intn(len(atomPool))]
}

func TestRandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		v := genValue(rng, 3)
		printed := value.PrintString(v)
		rd := FromString(printed, Opts{})
		back, err := rd.ReadOne()
		if err != nil {
			t.Fatalf("cannot re-read %q: %v", printed, err)
		}
		if !value.Equal(v, back) {
			t.Fatalf("round trip failed:\n  printed %q\n  reread  %q",
				printed, value.PrintString(back))
		}
	}
}
