package esdl

import "fmt"

// Pos is a 1-based line/column position in a pipeline definition.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokEOL
	tokName
	tokNumber
	tokString
	tokSymbol
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokEOL:
		return "end of statement"
	case tokName:
		return "name"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	default:
		return "symbol"
	}
}

type token struct {
	kind  tokenKind
	text  string
	pos   Pos
	num   float64
	isInt bool
	ival  int64
}

// keyword reports whether the token is the given reserved word. ESDL
// keywords are matched case-insensitively; FROM and from are the same
// statement.
func (t token) keyword(word string) bool {
	return t.kind == tokName && equalFold(t.text, word)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
