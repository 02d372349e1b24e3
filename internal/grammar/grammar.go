package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// StartRule is the key of the designated start rule in a rule mapping.
const StartRule = "*"

// Built-in rules are always present and are supplied by the host, not
// authored in the mapping.
const (
	RuleTerminal  = "TERMINAL"
	RuleIndent    = "INDENT"
	RuleIncIndent = "INC_INDENT"
	RuleDecIndent = "DEC_INDENT"
	RuleNewline   = "NEWLINE"
)

var builtins = map[string]bool{
	RuleTerminal:  true,
	RuleIndent:    true,
	RuleIncIndent: true,
	RuleDecIndent: true,
	RuleNewline:   true,
}

// DefinitionError reports every violation found while validating a rule
// mapping. Grammars are authored once; validation is exhaustive rather than
// short-circuiting so all mistakes surface at definition time.
type DefinitionError struct {
	Problems []string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid grammar: %s", strings.Join(e.Problems, "; "))
}

// symbol is one token of a production: either a literal emitted verbatim or
// a reference to another rule.
type symbol struct {
	text   string
	isRule bool
}

type production []symbol

// Table is an immutable, validated set of named derivation rules with a
// single designated start rule. Rule names are case-sensitive.
type Table struct {
	rules map[string][]production
}

// NewTable parses and validates a rule mapping. Each production string is a
// space-delimited sequence of double-quoted literals and bare rule-name
// references.
func NewTable(rules map[string][]string) (*Table, error) {
	var problems []string

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	table := &Table{rules: make(map[string][]production, len(rules))}
	for _, name := range names {
		if strings.ContainsAny(name, " \t\v\"'") {
			problems = append(problems, fmt.Sprintf("rule name %q contains whitespace or quote characters", name))
		}
		if builtins[name] {
			problems = append(problems, fmt.Sprintf("rule %q redefines a built-in rule", name))
		}
		raw := rules[name]
		if len(raw) == 0 {
			problems = append(problems, fmt.Sprintf("rule %q has no productions", name))
		}
		productions := make([]production, 0, len(raw))
		for i, text := range raw {
			prod, err := parseProduction(text)
			if err != nil {
				problems = append(problems, fmt.Sprintf("rule %q production %d: %v", name, i, err))
				continue
			}
			productions = append(productions, prod)
		}
		table.rules[name] = productions
	}

	if _, ok := table.rules[StartRule]; !ok {
		problems = append(problems, fmt.Sprintf("missing start rule %q", StartRule))
	}

	for _, name := range names {
		for i, prod := range table.rules[name] {
			for _, sym := range prod {
				if !sym.isRule || builtins[sym.text] {
					continue
				}
				if _, ok := table.rules[sym.text]; !ok {
					problems = append(problems, fmt.Sprintf("rule %q production %d references undeclared rule %q", name, i, sym.text))
				}
			}
		}
	}

	if len(problems) > 0 {
		return nil, &DefinitionError{Problems: problems}
	}
	return table, nil
}

// parseProduction splits a production string into literal and rule-reference
// symbols. Literals are delimited by double quotes; everything else is
// whitespace-separated rule references.
func parseProduction(text string) (production, error) {
	var prod production
	var word strings.Builder
	literal := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if literal {
			if c == '"' {
				prod = append(prod, symbol{text: word.String()})
				word.Reset()
				literal = false
				continue
			}
			word.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			if word.Len() > 0 {
				prod = append(prod, symbol{text: word.String(), isRule: true})
				word.Reset()
			}
			literal = true
		case ' ', '\t':
			if word.Len() > 0 {
				prod = append(prod, symbol{text: word.String(), isRule: true})
				word.Reset()
			}
		default:
			word.WriteByte(c)
		}
	}
	if literal {
		return nil, fmt.Errorf("unterminated literal")
	}
	if word.Len() > 0 {
		prod = append(prod, symbol{text: word.String(), isRule: true})
	}
	return prod, nil
}

// Rules returns the declared rule names in sorted order.
func (t *Table) Rules() []string {
	names := make([]string, 0, len(t.rules))
	for name := range t.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders the table in a BNF-like form for diagnostics.
func (t *Table) String() string {
	var sb strings.Builder
	for _, name := range t.Rules() {
		sb.WriteString(name)
		sep := "\n    : "
		for _, prod := range t.rules[name] {
			sb.WriteString(sep)
			sep = "\n    | "
			for i, sym := range prod {
				if i > 0 {
					sb.WriteByte(' ')
				}
				if sym.isRule {
					sb.WriteString(sym.text)
				} else {
					sb.WriteString(`"` + sym.text + `"`)
				}
			}
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}
