// Copyright © 2018 The ELPS authors

package token

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerTokenLimit(t *testing.T) {
	const bufsize = 10
	s := newScannerBuf("", repeatReader("x"), make([]byte, bufsize))
	for i := 0; i < bufsize; i++ {
		require.NoError(t, s.ScanRune())
	}
	err := s.ScanRune()
	require.Error(t, err)
	assert.Equal(t, "token exceeds maximum allowable size", err.Error())
}

func TestScannerRefill(t *testing.T) {
	// tokens span several refills of a buffer smaller than the input
	s := newScannerBuf("loop", repeatReader("ab\n"), make([]byte, 8))
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			require.NoError(t, s.ScanRune())
		}
		tok := s.EmitToken(SYMBOL)
		assert.Equal(t, "ab\n", tok.Text)
		assert.Equal(t, 3*i, tok.Source.Pos, "token %d", i)
		assert.Equal(t, i+1, tok.Source.Line, "token %d", i)
		assert.Equal(t, 1, tok.Source.Col, "token %d", i)
	}
}

func TestScannerLocations(t *testing.T) {
	s := NewScanner("test", strings.NewReader("(ab\n  cd)\n"))
	isLetter := func(c rune) bool { return unicode.IsLetter(c) }
	var toks []*Token

	require.True(t, s.AcceptRune('('))
	toks = append(toks, s.EmitToken(PAREN_L))
	assert.Equal(t, 2, s.AcceptSeq(isLetter))
	toks = append(toks, s.EmitToken(SYMBOL))
	assert.Equal(t, 3, s.AcceptSeqSpace())
	s.Ignore()
	assert.Equal(t, "test:2:3", s.LocStart().String())
	assert.Equal(t, 2, s.AcceptSeq(isLetter))
	toks = append(toks, s.EmitToken(SYMBOL))
	require.True(t, s.AcceptRune(')'))
	assert.Equal(t, "test:2:5", s.Loc().String())
	toks = append(toks, s.EmitToken(PAREN_R))
	assert.Equal(t, 1, s.AcceptSeqSpace())
	s.Ignore()
	assert.True(t, s.EOF())
	assert.NoError(t, s.Err())

	expect := []struct {
		text string
		loc  string
		pos  int
	}{
		{"(", "test:1:1", 0},
		{"ab", "test:1:2", 1},
		{"cd", "test:2:3", 6},
		{")", "test:2:5", 8},
	}
	require.Len(t, toks, len(expect))
	for i, e := range expect {
		assert.Equal(t, e.text, toks[i].Text)
		assert.Equal(t, e.loc, toks[i].Source.String(), "token %q", e.text)
		assert.Equal(t, e.pos, toks[i].Source.Pos, "token %q", e.text)
	}
}

func TestScannerColumnsCountBytes(t *testing.T) {
	s := NewScanner("t", strings.NewReader("λ x"))
	require.True(t, s.AcceptRune('λ'))
	lambda := s.EmitToken(SYMBOL)
	s.AcceptSeqSpace()
	s.Ignore()
	require.True(t, s.AcceptRune('x'))
	x := s.EmitToken(SYMBOL)

	assert.Equal(t, 1, lambda.Source.Col)
	assert.Equal(t, 4, x.Source.Col)
	assert.Equal(t, 3, x.Source.Pos)

	_, ok := s.Peek()
	assert.False(t, ok)
	assert.True(t, s.EOF())
	assert.Equal(t, io.EOF, s.ScanRune())
}

func TestScannerInvalidUTF8(t *testing.T) {
	s := NewScanner("t", strings.NewReader("a\xffb"))
	require.True(t, s.AcceptRune('a'))
	_, ok := s.Peek()
	assert.False(t, ok)
	err := s.ScanRune()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid utf-8 sequence")
}

func TestScannerReadError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("ab"), iotest.ErrReader(boom))
	s := newScannerBuf("t", r, make([]byte, 20))

	// buffered runes are scanned before the error is reported
	assert.NoError(t, s.Err())
	assert.Equal(t, 2, s.AcceptSeq(func(rune) bool { return true }))
	assert.Equal(t, "ab", s.Text())
	assert.Equal(t, boom, s.Err())
	assert.False(t, s.EOF())
}

func TestScannerAcceptString(t *testing.T) {
	s := NewScanner("t", strings.NewReader(`""x`))
	n, ok := s.AcceptString(`"""`)
	assert.False(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, `""`, s.Text())
	assert.True(t, s.AcceptAny("xyz"))
	assert.False(t, s.AcceptAny("xyz"))
}

// repeatReader returns a reader that repeats pattern forever.
func repeatReader(pattern string) io.Reader {
	return &repeater{pattern: []byte(pattern)}
}

type repeater struct {
	pattern []byte
	rem     []byte
}

func (r *repeater) Read(b []byte) (int, error) {
	var n int
	for n < len(b) {
		if len(r.rem) == 0 {
			r.rem = r.pattern
		}
		c := copy(b[n:], r.rem)
		r.rem = r.rem[c:]
		n += c
	}
	return n, nil
}
