package esdl

import "fmt"

// SyntaxError reports malformed pipeline text. It carries the position and
// the offending token so hosts can point at the source line.
type SyntaxError struct {
	Pos   Pos
	Token string
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("syntax error at %s near %q: %s", e.Pos, e.Token, e.Msg)
}

func syntaxErr(tok token, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Pos:   tok.pos,
		Token: tok.text,
		Msg:   fmt.Sprintf(format, args...),
	}
}
