// Copyright © 2018 The ELPS authors

package token

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultBufferSize is the largest token a Scanner returned by NewScanner
// can hold.
const DefaultBufferSize = 128 << 10

// position tracks where the scanner is in the source stream.
type position struct {
	offset int // byte offset in the stream
	line   int // line number, starting at 1
	bol    int // byte offset of the first byte of line
}

func (p position) location(file string) *Location {
	return &Location{
		File: file,
		Line: p.line,
		Col:  p.offset - p.bol + 1,
		Pos:  p.offset,
	}
}

// Scanner reads runes from an io.Reader and groups them into tokens.  The
// text of a token must fit in the scanner's buffer.
type Scanner struct {
	file string
	at   position // the current rune
	tok  position // the first rune of the current token

	r       io.Reader
	readErr error

	buf   []byte
	start int // buf index of the current token
	pos   int // buf index of c
	next  int // buf index of the rune following c
	c     Rune
	peek  []Rune
}

// NewScanner returns a Scanner reading the source named file from r.
func NewScanner(file string, r io.Reader) *Scanner {
	return newScannerBuf(file, r, make([]byte, DefaultBufferSize))
}

func newScannerBuf(file string, r io.Reader, buf []byte) *Scanner {
	s := &Scanner{
		file: file,
		r:    r,
		buf:  buf,
		at:   position{line: 1},
		tok:  position{line: 1},
	}
	s.read(0)
	return s
}

// EmitToken returns a token of type typ containing the text scanned since
// the last call to EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore discards the text scanned since the last call to EmitToken or
// Ignore.
func (s *Scanner) Ignore() {
	s.start = s.next
	s.tok = s.at
	s.tok.offset += s.c.N
	if s.c.C == '\n' {
		s.tok.line++
		s.tok.bol = s.tok.offset
	}
}

// Text returns the text scanned since the last call to EmitToken or Ignore.
func (s *Scanner) Text() string {
	return string(s.buf[s.start:s.next])
}

// Rune returns the last rune scanned.
func (s *Scanner) Rune() rune {
	return s.c.C
}

// Peek returns the next rune without scanning it.  Peek returns false if an
// invalid utf-8 sequence or the end of input follows, in which case the next
// ScanRune returns the cause.
func (s *Scanner) Peek() (rune, bool) {
	if len(s.peek) > 0 {
		return s.peek[0].C, true
	}
	if err := s.ensure(); err != nil {
		return 0, false
	}
	r := decodeRune(s.buf[s.next:])
	if r.IsRuneError() {
		return utf8.RuneError, false
	}
	s.peek = append(s.peek, r)
	return r.C, true
}

// ScanRune scans the next rune into the current token.
func (s *Scanner) ScanRune() error {
	if err := s.checkRuneError(); err != nil {
		return err
	}
	if len(s.peek) > 0 {
		s.advance(s.peek[0])
		s.peek = s.peek[1:]
		return s.checkRuneError()
	}
	if err := s.ensure(); err != nil {
		return err
	}
	s.advance(decodeRune(s.buf[s.next:]))
	if err := s.checkRuneError(); err != nil {
		// a read error can truncate a valid sequence
		if s.readErr != nil {
			return s.readErr
		}
		return err
	}
	return nil
}

func (s *Scanner) advance(r Rune) {
	prev := s.c
	s.c = r
	s.at.offset += prev.N
	s.pos += prev.N
	s.next += r.N
	if prev.C == '\n' {
		s.at.line++
		s.at.bol = s.at.offset
	}
}

// Err returns the error from the last read of the input.  Err returns nil
// at the end of input and while buffered runes remain to be scanned.
func (s *Scanner) Err() error {
	if s.readErr == nil || s.readErr == io.EOF {
		return nil
	}
	rem := s.buf[s.next:]
	switch {
	case len(rem) == 0:
		return s.readErr
	case len(rem) < utf8.UTFMax && decodeRune(rem).IsRuneError():
		// a truncated sequence can never be scanned
		return s.readErr
	}
	return nil
}

// EOF returns true once every rune of the input has been scanned.
func (s *Scanner) EOF() bool {
	if len(s.buf) == 0 {
		return true
	}
	return s.readErr == io.EOF && s.next >= len(s.buf)
}

// Accept scans the next rune if fn returns true for it.
func (s *Scanner) Accept(fn func(rune) bool) bool {
	c, ok := s.Peek()
	return ok && fn(c) && s.ScanRune() == nil
}

// AcceptRune scans the next rune if it is c.
func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(r rune) bool { return r == c })
}

// AcceptAny scans the next rune if it is in charset.
func (s *Scanner) AcceptAny(charset string) bool {
	return s.Accept(func(r rune) bool { return strings.ContainsRune(charset, r) })
}

// AcceptSeq scans runes while fn returns true and returns the number
// scanned.
func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqDigit() int {
	return s.AcceptSeq(func(r rune) bool { return '0' <= r && r <= '9' })
}

func (s *Scanner) AcceptSeqSpace() int {
	return s.AcceptSeq(unicode.IsSpace)
}

// AcceptString scans literal.  If the input does not match, the runes of
// the matching prefix remain scanned and their count is returned with false.
func (s *Scanner) AcceptString(literal string) (int, bool) {
	var n int
	for _, c := range literal {
		if !s.AcceptRune(c) {
			return n, false
		}
		n++
	}
	return n, true
}

func (s *Scanner) checkRuneError() error {
	if s.c.IsRuneError() {
		return fmt.Errorf("invalid utf-8 sequence in source text starting with byte %q", s.buf[s.pos])
	}
	return nil
}

// LocStart returns the location of the first rune of the current token.
// Following EmitToken or Ignore it is the location of the next rune.
func (s *Scanner) LocStart() *Location {
	return s.tok.location(s.file)
}

// Loc returns the location of the last rune scanned.
func (s *Scanner) Loc() *Location {
	return s.at.location(s.file)
}

// ensure makes room for a complete rune after next.
func (s *Scanner) ensure() error {
	if len(s.buf)-s.next < utf8.UTFMax {
		s.compact()
	}
	if len(s.buf) == 0 {
		return io.EOF
	}
	if s.next == len(s.buf) {
		// no EOF yet and the current token fills the buffer
		return fmt.Errorf("token exceeds maximum allowable size")
	}
	return nil
}

// compact moves the current token to the front of the buffer and reads
// into the freed space.
func (s *Scanner) compact() {
	if s.start == 0 {
		return
	}
	end := copy(s.buf, s.buf[s.start:])
	s.pos -= s.start
	s.next -= s.start
	s.start = 0
	s.read(end)
}

func (s *Scanner) read(end int) {
	if s.readErr == io.EOF {
		s.buf = s.buf[:end]
	}
	n, err := io.ReadFull(s.r, s.buf[end:])
	s.buf = s.buf[:end+n]
	if err == io.ErrUnexpectedEOF {
		return
	}
	s.readErr = err
}

func decodeRune(b []byte) Rune {
	c, n := utf8.DecodeRune(b)
	return Rune{c, n}
}

// Rune is a decoded rune and its width in bytes.
type Rune struct {
	C rune
	N int
}

// IsRuneError returns true if r is an invalid utf-8 sequence.
func (r Rune) IsRuneError() bool {
	return r.C == utf8.RuneError && r.N == 1
}
