package ast

import "fmt"

// TokenKind identifies the lexical category of a token.
type TokenKind int

const (
	TokenOpenParen TokenKind = iota
	TokenCloseParen
	TokenString
	TokenNumber
	TokenSymbol
	TokenQuote
)

func (k TokenKind) String() string {
	switch k {
	case TokenOpenParen:
		return "LP"
	case TokenCloseParen:
		return "RP"
	case TokenString:
		return "STR"
	case TokenNumber:
		return "NUM"
	case TokenSymbol:
		return "SYM"
	case TokenQuote:
		return "QTE"
	default:
		return fmt.Sprintf("unknown_token_%d", int(k))
	}
}

// Token is an immutable (kind, text) pair produced by the tokenizer.
type Token struct {
	Kind TokenKind
	Text string
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

type NodeType string

const (
	NodeAtom   NodeType = "Atom"
	NodeBranch NodeType = "Branch"
)

// Node is implemented only by *Atom and *Branch.
type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	Type NodeType
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) isNode()              {}

// Atom is a leaf wrapping a single token.
type Atom struct {
	nodeImpl

	Token Token
}

func NewAtom(tok Token) *Atom {
	return &Atom{nodeImpl: newNodeImpl(NodeAtom), Token: tok}
}

// IsSymbol reports whether the atom is a symbol, optionally with the given name.
func (a *Atom) IsSymbol(name ...string) bool {
	if a == nil || a.Token.Kind != TokenSymbol {
		return false
	}
	if len(name) == 0 {
		return true
	}
	return a.Token.Text == name[0]
}

// Branch is an ordered list of children. The first child is the operator
// position.
type Branch struct {
	nodeImpl

	Children []Node
}

func NewBranch(children ...Node) *Branch {
	return &Branch{nodeImpl: newNodeImpl(NodeBranch), Children: children}
}

// Append adds a child at the end of the branch.
func (b *Branch) Append(child Node) {
	b.Children = append(b.Children, child)
}

// Head returns the first child as a symbol atom, if it is one.
func (b *Branch) Head() (*Atom, bool) {
	if b == nil || len(b.Children) == 0 {
		return nil, false
	}
	atom, ok := b.Children[0].(*Atom)
	if !ok || !atom.IsSymbol() {
		return nil, false
	}
	return atom, true
}

// Progn is the name of the synthetic sequencing form wrapping every program.
const Progn = "progn"

// NewRoot returns an empty synthetic root: (progn).
func NewRoot() *Branch {
	return NewBranch(Sym(Progn))
}

// Builders used by tests and by code that synthesizes forms.

func Sym(name string) *Atom   { return NewAtom(Token{Kind: TokenSymbol, Text: name}) }
func Num(text string) *Atom   { return NewAtom(Token{Kind: TokenNumber, Text: text}) }
func Str(text string) *Atom   { return NewAtom(Token{Kind: TokenString, Text: text}) }
func Quote(text string) *Atom { return NewAtom(Token{Kind: TokenQuote, Text: text}) }
func List(children ...Node) *Branch {
	return NewBranch(children...)
}
