package landscape

import (
	"fmt"
	"strconv"
	"strings"
)

// parseArith parses the arithmetic phenome text emitted by grammar
// expansion: numbers, the variable x, + - * /, and parentheses. The parsed
// form is evaluated once per sample point.
type arithNode interface {
	eval(x float64) float64
}

type arithConst float64

func (c arithConst) eval(float64) float64 { return float64(c) }

type arithVar struct{}

func (arithVar) eval(x float64) float64 { return x }

type arithBinary struct {
	op   byte
	l, r arithNode
}

func (b arithBinary) eval(x float64) float64 {
	l, r := b.l.eval(x), b.r.eval(x)
	switch b.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	default:
		return l / r
	}
}

type arithParser struct {
	src string
	i   int
}

func parseArith(src string) (arithNode, error) {
	p := &arithParser{src: src}
	node, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.i < len(p.src) {
		return nil, fmt.Errorf("unexpected trailing text at %d", p.i)
	}
	return node, nil
}

func (p *arithParser) parseSum() (arithNode, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.i >= len(p.src) || (p.src[p.i] != '+' && p.src[p.i] != '-') {
			return left, nil
		}
		op := p.src[p.i]
		p.i++
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = arithBinary{op: op, l: left, r: right}
	}
}

func (p *arithParser) parseProduct() (arithNode, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.i >= len(p.src) || (p.src[p.i] != '*' && p.src[p.i] != '/') {
			return left, nil
		}
		op := p.src[p.i]
		p.i++
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = arithBinary{op: op, l: left, r: right}
	}
}

func (p *arithParser) parseAtom() (arithNode, error) {
	p.skipSpace()
	if p.i >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	c := p.src[p.i]
	switch {
	case c == '(':
		p.i++
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.i >= len(p.src) || p.src[p.i] != ')' {
			return nil, fmt.Errorf("missing ) at %d", p.i)
		}
		p.i++
		return inner, nil
	case c == 'x':
		p.i++
		return arithVar{}, nil
	case c >= '0' && c <= '9' || c == '.':
		start := p.i
		for p.i < len(p.src) && (p.src[p.i] >= '0' && p.src[p.i] <= '9' || p.src[p.i] == '.') {
			p.i++
		}
		v, err := strconv.ParseFloat(p.src[start:p.i], 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", p.src[start:p.i])
		}
		return arithConst(v), nil
	case c == '-':
		p.i++
		inner, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return arithBinary{op: '-', l: arithConst(0), r: inner}, nil
	}
	return nil, fmt.Errorf("unexpected character %q at %d", string(c), p.i)
}

func (p *arithParser) skipSpace() {
	p.i += len(p.src[p.i:]) - len(strings.TrimLeft(p.src[p.i:], " \t\n"))
}
