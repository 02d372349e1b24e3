package esdl

import (
	"strconv"
	"strings"
)

// lexer produces the token stream for one pipeline definition. Statements
// end at newlines or semicolons; `#` and `//` start comments that run to the
// end of the line.
type lexer struct {
	src  string
	i    int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

const symbolChars = "()[],=+-*/%^.<>!"

func (lx *lexer) next() (token, *SyntaxError) {
	lx.skipBlanks()

	pos := Pos{Line: lx.line, Col: lx.col}
	if lx.i >= len(lx.src) {
		return token{kind: tokEOF, pos: pos}, nil
	}

	c := lx.src[lx.i]
	switch {
	case c == '\n' || c == '\r' || c == ';':
		lx.advance()
		if c == '\r' && lx.i < len(lx.src) && lx.src[lx.i] == '\n' {
			lx.advance()
		}
		return token{kind: tokEOL, text: string(c), pos: pos}, nil

	case isDigit(c):
		return lx.lexNumber(pos)

	case isNameStart(c):
		start := lx.i
		for lx.i < len(lx.src) && isNameChar(lx.src[lx.i]) {
			lx.advance()
		}
		return token{kind: tokName, text: lx.src[start:lx.i], pos: pos}, nil

	case c == '"' || c == '\'':
		return lx.lexString(pos, c)

	case strings.IndexByte(symbolChars, c) >= 0:
		return lx.lexSymbol(pos)
	}

	tok := token{kind: tokSymbol, text: string(c), pos: pos}
	return tok, syntaxErr(tok, "unexpected character")
}

// skipBlanks consumes spaces, tabs and comments but never statement
// terminators.
func (lx *lexer) skipBlanks() {
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		if c == ' ' || c == '\t' || c == '\v' {
			lx.advance()
			continue
		}
		if c == '#' || (c == '/' && lx.i+1 < len(lx.src) && lx.src[lx.i+1] == '/') {
			for lx.i < len(lx.src) && lx.src[lx.i] != '\n' {
				lx.advance()
			}
			continue
		}
		return
	}
}

func (lx *lexer) lexNumber(pos Pos) (token, *SyntaxError) {
	start := lx.i
	sawDot, sawExp := false, false
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		if isDigit(c) {
			lx.advance()
			continue
		}
		if c == '.' && !sawDot && !sawExp && lx.i+1 < len(lx.src) && isDigit(lx.src[lx.i+1]) {
			sawDot = true
			lx.advance()
			continue
		}
		if (c == 'e' || c == 'E') && !sawExp {
			j := lx.i + 1
			if j < len(lx.src) && (lx.src[j] == '+' || lx.src[j] == '-') {
				j++
			}
			if j < len(lx.src) && isDigit(lx.src[j]) {
				sawExp = true
				for lx.i < j {
					lx.advance()
				}
				lx.advance()
				continue
			}
		}
		break
	}
	text := lx.src[start:lx.i]
	tok := token{kind: tokNumber, text: text, pos: pos}
	if !sawDot && !sawExp {
		iv, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return tok, syntaxErr(tok, "invalid integer literal")
		}
		tok.isInt = true
		tok.ival = iv
		tok.num = float64(iv)
		return tok, nil
	}
	fv, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return tok, syntaxErr(tok, "invalid numeric literal")
	}
	tok.num = fv
	return tok, nil
}

func (lx *lexer) lexString(pos Pos, quote byte) (token, *SyntaxError) {
	lx.advance() // opening quote
	var sb strings.Builder
	for lx.i < len(lx.src) {
		c := lx.src[lx.i]
		switch c {
		case quote:
			lx.advance()
			return token{kind: tokString, text: sb.String(), pos: pos}, nil
		case '\n', '\r':
			tok := token{kind: tokString, text: sb.String(), pos: pos}
			return tok, syntaxErr(tok, "unterminated string literal")
		case '\\':
			lx.advance()
			if lx.i >= len(lx.src) {
				tok := token{kind: tokString, text: sb.String(), pos: pos}
				return tok, syntaxErr(tok, "unterminated string literal")
			}
			switch lx.src[lx.i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(lx.src[lx.i])
			}
			lx.advance()
		default:
			sb.WriteByte(c)
			lx.advance()
		}
	}
	tok := token{kind: tokString, text: sb.String(), pos: pos}
	return tok, syntaxErr(tok, "unterminated string literal")
}

func (lx *lexer) lexSymbol(pos Pos) (token, *SyntaxError) {
	c := lx.src[lx.i]
	lx.advance()
	text := string(c)
	// two-character comparison operators
	if lx.i < len(lx.src) && lx.src[lx.i] == '=' {
		switch c {
		case '=', '!', '<', '>':
			text += "="
			lx.advance()
		}
	}
	tok := token{kind: tokSymbol, text: text, pos: pos}
	if text == "!" {
		return tok, syntaxErr(tok, "unexpected character")
	}
	return tok, nil
}

func (lx *lexer) advance() {
	if lx.src[lx.i] == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	lx.i++
}

func isDigit(c byte) bool     { return '0' <= c && c <= '9' }
func isNameStart(c byte) bool { return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
func isNameChar(c byte) bool  { return isNameStart(c) || isDigit(c) }
