package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zooba/esec/internal/model"
)

var (
	// ErrRecursionLimit is returned when the derivation work stack exceeds
	// its budget. Grammars are user-authored and can be unintentionally
	// left-recursive; the budget keeps that a deterministic failure instead
	// of an out-of-memory condition.
	ErrRecursionLimit = errors.New("grammar recursion limit exceeded")

	// ErrIndentUnderflow is returned when DEC_INDENT would take the indent
	// depth below zero.
	ErrIndentUnderflow = errors.New("indent depth below zero")

	// ErrGenomeExhausted is returned when the genome (including any allowed
	// wraps) runs out of codons before the derivation terminates.
	ErrGenomeExhausted = errors.New("genome exhausted during mapping")

	// ErrNoTerminals is returned when the grammar uses TERMINAL but the host
	// supplied no terminal symbols.
	ErrNoTerminals = errors.New("grammar uses TERMINAL but no terminals are defined")
)

// DefaultMaxDepth bounds the derivation work stack.
const DefaultMaxDepth = 500

// DefaultWrapLimit is how many times an exhausted genome restarts under the
// wrap policy.
const DefaultWrapLimit = 10

// Options configures one expansion. The zero value means: no terminals,
// wrap policy with the default wrap limit, default stack budget.
type Options struct {
	// Terminals is the host-supplied symbol set selected by TERMINAL.
	Terminals []string
	// Wrap selects the exhausted-genome policy; empty means WrapRestart.
	Wrap model.WrapPolicy
	// WrapLimit bounds restarts under WrapRestart; 0 means DefaultWrapLimit.
	WrapLimit int
	// MaxDepth bounds the work stack; 0 means DefaultMaxDepth.
	MaxDepth int
}

// Result is the outcome of a successful expansion.
type Result struct {
	// Text is the emitted target-language text.
	Text string
	// EffectiveSize is the number of codons consumed, which may exceed the
	// genome length when the genome wrapped.
	EffectiveSize int
}

// codonStream walks a genome under the configured exhaustion policy.
type codonStream struct {
	genome    []int64
	i         int
	wraps     int
	wrapLimit int
	policy    model.WrapPolicy
	consumed  int
}

func (cs *codonStream) next() (int64, error) {
	if cs.i >= len(cs.genome) {
		switch cs.policy {
		case model.WrapFail:
			return 0, ErrGenomeExhausted
		case model.WrapPad:
			cs.consumed++
			return 0, nil
		default:
			if len(cs.genome) == 0 || cs.wraps >= cs.wrapLimit {
				return 0, ErrGenomeExhausted
			}
			cs.wraps++
			cs.i = 0
		}
	}
	codon := cs.genome[cs.i]
	cs.i++
	cs.consumed++
	return codon, nil
}

// Expand performs a depth-first derivation from the start rule, selecting
// productions by `codon mod len(productions)`. Rules with a single
// production consume no codon. The expansion is pure: identical
// (table, genome, options) always produce identical output.
func (t *Table) Expand(genome []int64, opts Options) (Result, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	wrapLimit := opts.WrapLimit
	if wrapLimit <= 0 {
		wrapLimit = DefaultWrapLimit
	}

	codons := &codonStream{
		genome:    genome,
		wrapLimit: wrapLimit,
		policy:    opts.Wrap,
	}

	var out strings.Builder
	indent := 0

	// Explicit work stack rather than call recursion: the depth budget is
	// enforced the same way regardless of host stack limits.
	stack := []symbol{{text: StartRule, isRule: true}}
	for len(stack) > 0 {
		if len(stack) > maxDepth {
			return Result{}, fmt.Errorf("%w (depth %d)", ErrRecursionLimit, maxDepth)
		}
		sym := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !sym.isRule {
			out.WriteString(sym.text)
			continue
		}

		switch sym.text {
		case RuleTerminal:
			if len(opts.Terminals) == 0 {
				return Result{}, ErrNoTerminals
			}
			codon, err := codons.next()
			if err != nil {
				return Result{}, err
			}
			out.WriteString(opts.Terminals[mod(codon, len(opts.Terminals))])
			continue
		case RuleNewline:
			out.WriteByte('\n')
			continue
		case RuleIndent:
			out.WriteString(strings.Repeat(" ", indent))
			continue
		case RuleIncIndent:
			indent++
			continue
		case RuleDecIndent:
			if indent == 0 {
				return Result{}, ErrIndentUnderflow
			}
			indent--
			continue
		}

		productions := t.rules[sym.text]
		var chosen production
		if len(productions) == 1 {
			chosen = productions[0]
		} else {
			codon, err := codons.next()
			if err != nil {
				return Result{}, err
			}
			chosen = productions[mod(codon, len(productions))]
		}
		for i := len(chosen) - 1; i >= 0; i-- {
			stack = append(stack, chosen[i])
		}
	}

	return Result{Text: out.String(), EffectiveSize: codons.consumed}, nil
}

// mod is a non-negative modulus so negative codons still select a valid
// production.
func mod(codon int64, n int) int {
	m := int(codon % int64(n))
	if m < 0 {
		m += n
	}
	return m
}
