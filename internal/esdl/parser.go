package esdl

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Parse turns pipeline source text into a Program. It is a single forward
// pass with one token of lookahead; on failure the returned error is a
// *SyntaxError and no partial Program is returned.
func Parse(src string) (*Program, error) {
	p := &parser{lx: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return prog, nil
}

var reserved = map[string]bool{
	"from": true, "select": true, "using": true, "yield": true,
	"eval": true, "begin": true, "end": true,
	"true": true, "false": true, "and": true, "or": true, "not": true,
}

type parser struct {
	lx  *lexer
	tok token
}

func (p *parser) advance() *SyntaxError {
	tok, err := p.lx.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) parseProgram() (*Program, *SyntaxError) {
	prog := &Program{}
	for {
		if err := p.skipTerminators(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokEOF {
			return prog, nil
		}
		if p.tok.keyword("BEGIN") {
			block, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			for _, existing := range prog.Blocks {
				if existing.Name == block.Name {
					return nil, &SyntaxError{Pos: block.BeginAt, Token: block.Name, Msg: "duplicate block name"}
				}
			}
			prog.Blocks = append(prog.Blocks, block)
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Init = append(prog.Init, stmt)
	}
}

func (p *parser) parseBlock() (*Block, *SyntaxError) {
	begin := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.parseName("block name")
	if err != nil {
		return nil, err
	}
	if err := p.expectTerminator(); err != nil {
		return nil, err
	}
	block := &Block{Name: name, BeginAt: begin}
	for {
		if err := p.skipTerminators(); err != nil {
			return nil, err
		}
		switch {
		case p.tok.kind == tokEOF:
			return nil, syntaxErr(p.tok, "missing END for block %q", name)
		case p.tok.keyword("BEGIN"):
			return nil, syntaxErr(p.tok, "blocks cannot nest")
		case p.tok.keyword("END"):
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind == tokName && !p.tok.keyword("END") {
				endName := strings.ToLower(p.tok.text)
				if endName != name {
					return nil, syntaxErr(p.tok, "END %s does not match BEGIN %s", endName, name)
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
			if err := p.expectTerminator(); err != nil {
				return nil, err
			}
			return block, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, stmt)
	}
}

func (p *parser) parseStatement() (Statement, *SyntaxError) {
	switch {
	case p.tok.keyword("FROM"):
		return p.parseFrom()
	case p.tok.keyword("YIELD"):
		return p.parseYield()
	case p.tok.keyword("EVAL"):
		return p.parseEval()
	case p.tok.keyword("END"):
		return nil, syntaxErr(p.tok, "END without matching BEGIN")
	case p.tok.kind == tokName && !reserved[strings.ToLower(p.tok.text)]:
		return p.parseAssign()
	}
	return nil, syntaxErr(p.tok, "expected FROM, YIELD, EVAL, BEGIN or an assignment")
}

func (p *parser) parseFrom() (Statement, *SyntaxError) {
	at := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}

	var sources []Source
	for {
		srcAt := p.tok.pos
		name, err := p.parseName("population or generator name")
		if err != nil {
			return nil, err
		}
		if p.tok.kind == tokSymbol && p.tok.text == "(" {
			call, err := p.parseCallArgs(name, srcAt)
			if err != nil {
				return nil, err
			}
			sources = append(sources, Source{Call: call, At: srcAt})
		} else {
			sources = append(sources, Source{Group: name, At: srcAt})
		}
		if p.tok.kind == tokSymbol && p.tok.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if !p.tok.keyword("SELECT") {
		return nil, syntaxErr(p.tok, "expected SELECT")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	count, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	dest, err := p.parseName("destination population name")
	if err != nil {
		return nil, err
	}

	var using []*OpCall
	if p.tok.keyword("USING") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for {
			callAt := p.tok.pos
			name, err := p.parseName("operator name")
			if err != nil {
				return nil, err
			}
			call := &OpCall{Name: name, At: callAt}
			if p.tok.kind == tokSymbol && p.tok.text == "(" {
				call, err = p.parseCallArgs(name, callAt)
				if err != nil {
					return nil, err
				}
			}
			using = append(using, call)
			if p.tok.kind == tokSymbol && p.tok.text == "," {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}

	if err := p.expectTerminator(); err != nil {
		return nil, err
	}
	return &From{Sources: sources, Count: count, Dest: dest, Using: using, At: at}, nil
}

func (p *parser) parseYield() (Statement, *SyntaxError) {
	at := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	groups, err := p.parseNameList("population name")
	if err != nil {
		return nil, err
	}
	if err := p.expectTerminator(); err != nil {
		return nil, err
	}
	return &Yield{Groups: groups, At: at}, nil
}

func (p *parser) parseEval() (Statement, *SyntaxError) {
	at := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	groups, err := p.parseNameList("population name")
	if err != nil {
		return nil, err
	}
	var using *OpCall
	if p.tok.keyword("USING") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		callAt := p.tok.pos
		name, err := p.parseName("evaluator name")
		if err != nil {
			return nil, err
		}
		using = &OpCall{Name: name, At: callAt}
		if p.tok.kind == tokSymbol && p.tok.text == "(" {
			var serr *SyntaxError
			using, serr = p.parseCallArgs(name, callAt)
			if serr != nil {
				return nil, serr
			}
		}
	}
	if err := p.expectTerminator(); err != nil {
		return nil, err
	}
	return &Eval{Groups: groups, Using: using, At: at}, nil
}

func (p *parser) parseAssign() (Statement, *SyntaxError) {
	at := p.tok.pos
	name := strings.ToLower(p.tok.text)
	if err := p.advance(); err != nil {
		return nil, err
	}
	if !(p.tok.kind == tokSymbol && p.tok.text == "=") {
		return nil, syntaxErr(p.tok, "expected = after %q", name)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectTerminator(); err != nil {
		return nil, err
	}
	return &Assign{Name: name, Value: value, At: at}, nil
}

// parseCallArgs parses `(key=value, ...)` after an operator name. The
// opening parenthesis is the current token.
func (p *parser) parseCallArgs(name string, at Pos) (*OpCall, *SyntaxError) {
	if err := p.advance(); err != nil { // consume (
		return nil, err
	}
	call := &OpCall{Name: name, At: at}
	if p.tok.kind == tokSymbol && p.tok.text == ")" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return call, nil
	}
	for {
		argAt := p.tok.pos
		argName, err := p.parseName("argument name")
		if err != nil {
			return nil, err
		}
		if !(p.tok.kind == tokSymbol && p.tok.text == "=") {
			return nil, syntaxErr(p.tok, "expected = after argument %q", argName)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, xerr := p.parseExpr()
		if xerr != nil {
			return nil, xerr
		}
		call.Args = append(call.Args, Arg{Name: argName, Value: value, At: argAt})

		if p.tok.kind == tokSymbol && p.tok.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if p.tok.kind == tokSymbol && p.tok.text == ")" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			return call, nil
		}
		return nil, syntaxErr(p.tok, "expected , or ) in argument list")
	}
}

func (p *parser) parseName(what string) (string, *SyntaxError) {
	if p.tok.kind != tokName {
		return "", syntaxErr(p.tok, "expected %s", what)
	}
	name := strings.ToLower(p.tok.text)
	if reserved[name] {
		return "", syntaxErr(p.tok, "%q is reserved and cannot be used as %s", name, what)
	}
	if err := p.advance(); err != nil {
		return "", err
	}
	return name, nil
}

func (p *parser) parseNameList(what string) ([]string, *SyntaxError) {
	var names []string
	for {
		name, err := p.parseName(what)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.tok.kind == tokSymbol && p.tok.text == "," {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		return names, nil
	}
}

func (p *parser) skipTerminators() *SyntaxError {
	for p.tok.kind == tokEOL {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) expectTerminator() *SyntaxError {
	if p.tok.kind == tokEOL || p.tok.kind == tokEOF {
		return nil
	}
	return syntaxErr(p.tok, "expected end of statement")
}

// Expression parsing: precedence climbing over the restricted grammar.
// or < and < not < comparison < additive < multiplicative < unary minus <
// power (right associative) < atom.

func (p *parser) parseExpr() (Expr, *SyntaxError) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, *SyntaxError) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.keyword("or") {
		at := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "or", L: left, R: right, At: at}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, *SyntaxError) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.tok.keyword("and") {
		at := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "and", L: left, R: right, At: at}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, *SyntaxError) {
	if p.tok.keyword("not") {
		at := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "not", X: x, At: at}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() (Expr, *SyntaxError) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokSymbol && comparisonOps[p.tok.text] {
		op, at := p.tok.text, p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, L: left, R: right, At: at}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (Expr, *SyntaxError) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokSymbol && (p.tok.text == "+" || p.tok.text == "-") {
		op, at := p.tok.text, p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right, At: at}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Expr, *SyntaxError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokSymbol && (p.tok.text == "*" || p.tok.text == "/" || p.tok.text == "%") {
		op, at := p.tok.text, p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right, At: at}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, *SyntaxError) {
	if p.tok.kind == tokSymbol && p.tok.text == "-" {
		at := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "-", X: x, At: at}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, *SyntaxError) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.tok.kind == tokSymbol && p.tok.text == "^" {
		at := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		exp, err := p.parseUnary() // right associative
		if err != nil {
			return nil, err
		}
		return &Binary{Op: "^", L: base, R: exp, At: at}, nil
	}
	return base, nil
}

func (p *parser) parseAtom() (Expr, *SyntaxError) {
	tok := p.tok
	switch {
	case tok.kind == tokNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if tok.isInt {
			return &Literal{Value: cty.NumberIntVal(tok.ival), At: tok.pos}, nil
		}
		return &Literal{Value: cty.NumberFloatVal(tok.num), At: tok.pos}, nil

	case tok.kind == tokString:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Literal{Value: cty.StringVal(tok.text), At: tok.pos}, nil

	case tok.keyword("true"), tok.keyword("false"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Literal{Value: cty.BoolVal(tok.keyword("true")), At: tok.pos}, nil

	case tok.kind == tokName && !reserved[strings.ToLower(tok.text)]:
		path := []string{strings.ToLower(tok.text)}
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.tok.kind == tokSymbol && p.tok.text == "." {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.kind != tokName {
				return nil, syntaxErr(p.tok, "expected name after .")
			}
			path = append(path, strings.ToLower(p.tok.text))
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		return &Ref{Path: path, At: tok.pos}, nil

	case tok.kind == tokSymbol && tok.text == "(":
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !(p.tok.kind == tokSymbol && p.tok.text == ")") {
			return nil, syntaxErr(p.tok, "expected )")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, syntaxErr(tok, "expected a value")
}
