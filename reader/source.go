package reader

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"bufio"
	"io"

	"github.com/npillmayer/clove"
)

// source is a pushback-capable rune stream which tracks source positions.
// Pushback depth is one rune, which is all the reader ever needs.
type source struct {
	r      *bufio.Reader
	file   string
	line   int
	col    int
	offset int
	pushed bool      // one-rune pushback buffer occupied?
	last   rune      // the rune available for re-reading
	lastSz int       // its encoded size
	prev   clove.Pos // position before the last read
	err    error     // sticky I/O error
}

const eofRune = rune(-1)

func newSource(r io.Reader, file string) *source {
	return &source{
		r:    bufio.NewReader(r),
		file: file,
		line: 1,
		col:  1,
	}
}

// pos returns the position of the next rune to be read.
func (s *source) pos() clove.Pos {
	return clove.Pos{File: s.file, Line: s.line, Col: s.col, Offset: s.offset}
}

// next reads one rune. Returns eofRune at end of input or on I/O failure;
// the failure is kept in s.err.
func (s *source) next() rune {
	if s.pushed {
		s.pushed = false
		s.advance(s.last, s.lastSz)
		return s.last
	}
	r, sz, err := s.r.ReadRune()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return eofRune
	}
	s.last = r
	s.lastSz = sz
	s.advance(r, sz)
	return r
}

// unread pushes the last read rune back. Only one pushback is held.
func (s *source) unread() {
	if s.pushed || s.lastSz == 0 {
		return
	}
	s.pushed = true
	s.line = s.prev.Line
	s.col = s.prev.Col
	s.offset = s.prev.Offset
}

// peek returns the next rune without consuming it.
func (s *source) peek() rune {
	r := s.next()
	if r != eofRune {
		s.unread()
	}
	return r
}

func (s *source) advance(r rune, sz int) {
	s.prev = clove.Pos{File: s.file, Line: s.line, Col: s.col, Offset: s.offset}
	s.offset += sz
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
}

// accept consumes the run of runes satisfying the predicate, appending them
// to b. The first non-matching rune is unread.
func (s *source) accept(predicate func(rune) bool, b []rune) []rune {
	for {
		r := s.next()
		if r == eofRune {
			return b
		}
		if !predicate(r) {
			s.unread()
			return b
		}
		b = append(b, r)
	}
}

// ioError returns the sticky I/O error, if any.
func (s *source) ioError() error {
	return s.err
}
