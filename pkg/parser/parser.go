package parser

import "github.com/singy15/trivial-lang/pkg/ast"

// Parser assembles tokens into a tree rooted at a synthetic progn branch.
type Parser struct {
	tokens    []ast.Token
	pos       int
	reads     int
	max       int
	truncated bool
}

// NewParser prepares a parser over tokens.
func NewParser(tokens []ast.Token, opts Options) *Parser {
	return &Parser{tokens: tokens, pos: -1, max: opts.maxReads()}
}

// Parse builds the tree using the default read cap.
func Parse(tokens []ast.Token) *ast.Branch {
	return NewParser(tokens, Options{}).Parse()
}

// ParseSource tokenizes and parses source in one step.
func ParseSource(source string, opts Options) (*ast.Branch, error) {
	tokens, err := NewScanner(source, opts).Scan()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, opts).Parse(), nil
}

// Truncated reports whether the read cap stopped parsing before every token
// was consumed.
func (p *Parser) Truncated() bool {
	return p.truncated
}

// Parse consumes the tokens. Brackets are not validated: a close paren at the
// top level is ignored and unclosed branches stay attached where they were
// opened.
func (p *Parser) Parse() *ast.Branch {
	root := ast.NewRoot()
	open := []*ast.Branch{root}

	for {
		tok, ok := p.next()
		if !ok {
			break
		}
		top := open[len(open)-1]
		switch tok.Kind {
		case ast.TokenOpenParen:
			child := ast.NewBranch()
			top.Append(child)
			open = append(open, child)
		case ast.TokenCloseParen:
			if len(open) > 1 {
				open = open[:len(open)-1]
			}
		default:
			top.Append(ast.NewAtom(tok))
		}
	}
	return root
}

func (p *Parser) next() (ast.Token, bool) {
	p.reads++
	if p.reads > p.max {
		if p.pos+1 < len(p.tokens) {
			p.truncated = true
		}
		return ast.Token{}, false
	}
	p.pos++
	if p.pos >= len(p.tokens) {
		return ast.Token{}, false
	}
	return p.tokens[p.pos], true
}
