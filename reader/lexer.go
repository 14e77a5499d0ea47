package reader

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
	"sync"

	"github.com/npillmayer/clove"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// Atom lexemes are classified by a lexmachine DFA. The reader slices a raw
// token out of the input (everything up to the next delimiter) and asks the
// classifier which literal shape it is. A classification only counts when
// the DFA consumes the whole lexeme.

// Token types for classified atom lexemes.
const (
	TokSymbol clove.TokType = iota + 1
	TokKeyword
	TokInt
	TokRadixInt
	TokBigInt
	TokFloat
	TokBigDec
	TokRatio
	TokArg // %, %1 … %N, %& inside #(...)
)

var tokNames = map[clove.TokType]string{
	TokSymbol:   "SYMBOL",
	TokKeyword:  "KEYWORD",
	TokInt:      "INT",
	TokRadixInt: "RADIXINT",
	TokBigInt:   "BIGINT",
	TokFloat:    "FLOAT",
	TokBigDec:   "BIGDEC",
	TokRatio:    "RATIO",
	TokArg:      "ARG",
}

var lexer *lexmachine.Lexer
var lexerErr error

var initOnce sync.Once // monitors one-time DFA compilation

func initLexer() {
	initOnce.Do(func() {
		lexer = lexmachine.NewLexer()
		add := func(pattern string, id clove.TokType) {
			lexer.Add([]byte(pattern), makeToken(id))
		}
		// numbers; longest match wins, earlier rule wins ties
		add(`[+\-]?[0-9]+/[0-9]+`, TokRatio)
		add(`[+\-]?[0-9]+[rR][0-9a-zA-Z]+`, TokRadixInt)
		add(`[+\-]?(0[xX][0-9a-fA-F]+|[0-9]+)N`, TokBigInt)
		add(`[+\-]?(0[xX][0-9a-fA-F]+|[0-9]+)`, TokInt)
		add(`[+\-]?[0-9]+\.[0-9]*([eE][+\-]?[0-9]+)?`, TokFloat)
		add(`[+\-]?[0-9]+[eE][+\-]?[0-9]+`, TokFloat)
		add(`[+\-]?[0-9]+(\.[0-9]*)?([eE][+\-]?[0-9]+)?M`, TokBigDec)
		// anonymous-function argument literals
		add(`%([0-9]+|&)?`, TokArg)
		// keywords and symbols; the raw token is already delimiter-free.
		// Whitespace goes in as literal bytes, not as regex escapes, and a
		// symbol cannot start with a digit.
		ws := " \t\n\r\f"
		sym := `[^` + ws + `,;()\[\]{}"'@^` + "`" + `~\\:0-9]`
		symTail := `[^` + ws + `,;()\[\]{}"'@^` + "`" + `~\\]`
		add(`::?`+symTail+`+`, TokKeyword)
		add(sym+symTail+`*`, TokSymbol)
		if err := lexer.Compile(); err != nil {
			tracer().Errorf("error compiling reader DFA: %v", err)
			lexerErr = err
		}
	})
}

func makeToken(id clove.TokType) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(int(id), string(m.Bytes), m), nil
	}
}

// classify runs the DFA over a raw token lexeme. The classification fails
// with InvalidNumber when a digit-initial lexeme does not scan as one number.
func classify(lexeme string, pos clove.Pos) (clove.TokType, error) {
	initLexer()
	if lexerErr != nil {
		return 0, lexerErr
	}
	scan, err := lexer.Scanner([]byte(lexeme))
	if err != nil {
		return 0, clove.ReadError(clove.InvalidNumber, pos, "cannot scan %q: %v", lexeme, err)
	}
	tok, err, eof := scan.Next()
	if err != nil || eof {
		return 0, badLexeme(lexeme, pos)
	}
	token := tok.(*lexmachine.Token)
	if len(token.Lexeme) != len(lexeme) { // partial match: not one atom
		return 0, badLexeme(lexeme, pos)
	}
	typ := clove.TokType(token.Type)
	tracer().Debugf("classified %q as %s", lexeme, tokNames[typ])
	return typ, nil
}

func badLexeme(lexeme string, pos clove.Pos) error {
	if len(lexeme) > 0 && (isDigit(rune(lexeme[0])) ||
		(len(lexeme) > 1 && (lexeme[0] == '+' || lexeme[0] == '-') && isDigit(rune(lexeme[1])))) {
		return clove.ReadError(clove.InvalidNumber, pos, "invalid number: %s", lexeme)
	}
	return clove.ReadError(clove.NoSubkind, pos, "invalid token: %s", lexeme)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func tokTypeName(t clove.TokType) string {
	if n, ok := tokNames[t]; ok {
		return n
	}
	return fmt.Sprintf("TOK[%d]", int(t))
}
