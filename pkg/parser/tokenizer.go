package parser

import (
	"fmt"
	"strings"

	"github.com/singy15/trivial-lang/pkg/ast"
)

// DefaultMaxReads bounds how many read attempts the tokenizer and the parser
// make before stopping silently.
const DefaultMaxReads = 10000

// Options configures the tokenizer and parser safety valves.
type Options struct {
	// MaxReads overrides DefaultMaxReads when positive.
	MaxReads int
}

func (o Options) maxReads() int {
	if o.MaxReads > 0 {
		return o.MaxReads
	}
	return DefaultMaxReads
}

// SyntaxError reports a character that matches no token class.
type SyntaxError struct {
	Offset int
	Line   int
	Column int
	Char   rune
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at character %d", e.Offset)
}

// Position renders the line and column of the offending character.
func (e *SyntaxError) Position() string {
	return fmt.Sprintf("line %d, column %d", e.Line, e.Column)
}

// Scanner converts source text into tokens. A Scanner is single use.
type Scanner struct {
	src       []rune
	pos       int
	c         rune
	reads     int
	max       int
	truncated bool
	tokens    []ast.Token
}

// NewScanner prepares a scanner over source.
func NewScanner(source string, opts Options) *Scanner {
	return &Scanner{
		src:    []rune(source),
		pos:    -1,
		max:    opts.maxReads(),
		tokens: make([]ast.Token, 0),
	}
}

// Tokenize scans source with the default read cap.
func Tokenize(source string) ([]ast.Token, error) {
	return NewScanner(source, Options{}).Scan()
}

// Truncated reports whether the read cap stopped scanning before the end of
// the input.
func (s *Scanner) Truncated() bool {
	return s.truncated
}

// Reads returns the number of read attempts made so far.
func (s *Scanner) Reads() int {
	return s.reads
}

// Scan consumes the input and returns the accepted tokens.
func (s *Scanner) Scan() ([]ast.Token, error) {
	for s.read() {
		c := s.c
		switch {
		case c == ' ' || c == '\n':
		case c == '(':
			s.accept(ast.TokenOpenParen, "(")
		case c == ')':
			s.accept(ast.TokenCloseParen, ")")
		case c == '"':
			s.scanString()
		case isDigit(c) || (c == '-' && isDigit(s.peek())):
			s.scanRun(ast.TokenNumber, string(c), isNumberPart)
		case c == '\'':
			s.scanRun(ast.TokenQuote, "", isSymbolPart)
		case isSymbolStart(c):
			s.scanRun(ast.TokenSymbol, string(c), isSymbolPart)
		default:
			return nil, s.syntaxError()
		}
	}
	return s.tokens, nil
}

func (s *Scanner) read() bool {
	s.reads++
	if s.reads > s.max {
		if s.pos+1 < len(s.src) {
			s.truncated = true
		}
		return false
	}
	s.pos++
	if s.pos >= len(s.src) {
		return false
	}
	s.c = s.src[s.pos]
	return true
}

func (s *Scanner) back() {
	s.pos--
}

func (s *Scanner) peek() rune {
	if s.pos+1 < len(s.src) {
		return s.src[s.pos+1]
	}
	return 0
}

func (s *Scanner) accept(kind ast.TokenKind, text string) {
	s.tokens = append(s.tokens, ast.Token{Kind: kind, Text: text})
}

// scanRun accumulates characters accepted by member after the already
// consumed prefix. The terminating character is pushed back.
func (s *Scanner) scanRun(kind ast.TokenKind, prefix string, member func(rune) bool) {
	var b strings.Builder
	b.WriteString(prefix)
	for s.read() {
		if member(s.c) {
			b.WriteRune(s.c)
			continue
		}
		s.back()
		s.accept(kind, b.String())
		return
	}
	if !s.truncated {
		s.accept(kind, b.String())
	}
}

// scanString reads up to the closing quote. An unterminated string yields no
// token.
func (s *Scanner) scanString() {
	var b strings.Builder
	escape := false
	for s.read() {
		c := s.c
		if escape {
			b.WriteRune(c)
			escape = false
			continue
		}
		switch c {
		case '\\':
			escape = true
		case '"':
			s.accept(ast.TokenString, b.String())
			return
		default:
			b.WriteRune(c)
		}
	}
}

func (s *Scanner) syntaxError() *SyntaxError {
	line, col := 1, 1
	for _, r := range s.src[:s.pos] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &SyntaxError{Offset: s.pos, Line: line, Column: col, Char: s.c}
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSymbolStart(c rune) bool {
	if isLetter(c) {
		return true
	}
	switch c {
	case '+', '-', '/', '*', '=', ':', '>', '<', '?', '!':
		return true
	}
	return false
}

func isSymbolPart(c rune) bool {
	return isSymbolStart(c) || isDigit(c)
}

func isNumberPart(c rune) bool {
	return isDigit(c) || c == '.'
}
