package esdl

import (
	"errors"
	"strings"
	"testing"

	"github.com/zclconf/go-cty/cty"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return prog
}

func parseErr(t *testing.T, src string) *SyntaxError {
	t.Helper()
	_, err := Parse(src)
	if err == nil {
		t.Fatalf("Parse(%q) succeeded, want syntax error", src)
	}
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("error type %T, want *SyntaxError", err)
	}
	return serr
}

func TestParseFullPipeline(t *testing.T) {
	src := `
# initial population
size = 10
FROM random_binary(length=8) SELECT size population
YIELD population

BEGIN generation
  FROM population SELECT size parents USING binary_tournament
  FROM parents SELECT size population USING crossover_one_point, mutate_bitflip(per_gene_rate=0.05)
  YIELD population
END generation
`
	prog := mustParse(t, src)

	if len(prog.Init) != 3 {
		t.Fatalf("got %d init statements, want 3", len(prog.Init))
	}
	assign, ok := prog.Init[0].(*Assign)
	if !ok || assign.Name != "size" {
		t.Fatalf("init[0] = %#v, want assignment to size", prog.Init[0])
	}
	from, ok := prog.Init[1].(*From)
	if !ok {
		t.Fatalf("init[1] = %#v, want *From", prog.Init[1])
	}
	if len(from.Sources) != 1 || from.Sources[0].Call == nil {
		t.Fatalf("FROM sources = %#v, want one generator call", from.Sources)
	}
	if from.Sources[0].Call.Name != "random_binary" {
		t.Errorf("generator = %q, want random_binary", from.Sources[0].Call.Name)
	}
	if from.Dest != "population" {
		t.Errorf("dest = %q, want population", from.Dest)
	}
	if _, ok := from.Count.(*Ref); !ok {
		t.Errorf("count = %#v, want reference to size", from.Count)
	}
	if _, ok := prog.Init[2].(*Yield); !ok {
		t.Fatalf("init[2] = %#v, want *Yield", prog.Init[2])
	}

	block := prog.Block("generation")
	if block == nil {
		t.Fatal("no generation block")
	}
	if len(block.Body) != 3 {
		t.Fatalf("got %d block statements, want 3", len(block.Body))
	}
	breedFrom, ok := block.Body[1].(*From)
	if !ok {
		t.Fatalf("block[1] = %#v, want *From", block.Body[1])
	}
	if len(breedFrom.Using) != 2 {
		t.Fatalf("got %d USING operators, want 2", len(breedFrom.Using))
	}
	if breedFrom.Using[1].Name != "mutate_bitflip" || len(breedFrom.Using[1].Args) != 1 {
		t.Errorf("using[1] = %#v, want mutate_bitflip(per_gene_rate=...)", breedFrom.Using[1])
	}
}

func TestParseKeywordsAreCaseInsensitive(t *testing.T) {
	prog := mustParse(t, "from Pop select 5 Next using Select_All\n")
	from, ok := prog.Init[0].(*From)
	if !ok {
		t.Fatalf("statement = %#v, want *From", prog.Init[0])
	}
	if from.Sources[0].Group != "pop" {
		t.Errorf("source group = %q, want pop", from.Sources[0].Group)
	}
	if from.Dest != "next" {
		t.Errorf("dest = %q, want next", from.Dest)
	}
	if from.Using[0].Name != "select_all" {
		t.Errorf("operator = %q, want select_all", from.Using[0].Name)
	}
}

func TestParseSemicolonTerminators(t *testing.T) {
	prog := mustParse(t, "a = 1; b = 2 // trailing comment\n")
	if len(prog.Init) != 2 {
		t.Fatalf("got %d statements, want 2", len(prog.Init))
	}
}

func TestParseMultipleSourcesAndGroups(t *testing.T) {
	prog := mustParse(t, "FROM parents, offspring, random_int(length=3) SELECT 20 merged\nYIELD merged, parents\n")
	from := prog.Init[0].(*From)
	if len(from.Sources) != 3 {
		t.Fatalf("got %d sources, want 3", len(from.Sources))
	}
	if from.Sources[2].Call == nil {
		t.Fatalf("sources[2] should be a generator call")
	}
	yield := prog.Init[1].(*Yield)
	if len(yield.Groups) != 2 {
		t.Fatalf("yield groups = %v, want 2", yield.Groups)
	}
}

func TestParseEvalUsing(t *testing.T) {
	prog := mustParse(t, "EVAL population USING sphere\n")
	eval, ok := prog.Init[0].(*Eval)
	if !ok {
		t.Fatalf("statement = %#v, want *Eval", prog.Init[0])
	}
	if eval.Using == nil || eval.Using.Name != "sphere" {
		t.Fatalf("eval.Using = %#v, want sphere", eval.Using)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	prog := mustParse(t, "x = 1 + 2 * 3\n")
	assign := prog.Init[0].(*Assign)
	add, ok := assign.Value.(*Binary)
	if !ok || add.Op != "+" {
		t.Fatalf("value = %#v, want + at root", assign.Value)
	}
	mul, ok := add.R.(*Binary)
	if !ok || mul.Op != "*" {
		t.Fatalf("right = %#v, want * below +", add.R)
	}
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	prog := mustParse(t, "x = 2 ^ 3 ^ 2\n")
	assign := prog.Init[0].(*Assign)
	outer, ok := assign.Value.(*Binary)
	if !ok || outer.Op != "^" {
		t.Fatalf("value = %#v, want ^ at root", assign.Value)
	}
	if inner, ok := outer.R.(*Binary); !ok || inner.Op != "^" {
		t.Fatalf("right = %#v, want nested ^", outer.R)
	}
}

func TestParseUnaryAndComparison(t *testing.T) {
	prog := mustParse(t, "ok = not system.debug and -x < 3\n")
	assign := prog.Init[0].(*Assign)
	and, ok := assign.Value.(*Binary)
	if !ok || and.Op != "and" {
		t.Fatalf("value = %#v, want and at root", assign.Value)
	}
	if u, ok := and.L.(*Unary); !ok || u.Op != "not" {
		t.Fatalf("left = %#v, want not", and.L)
	}
	cmp, ok := and.R.(*Binary)
	if !ok || cmp.Op != "<" {
		t.Fatalf("right = %#v, want <", and.R)
	}
	if u, ok := cmp.L.(*Unary); !ok || u.Op != "-" {
		t.Fatalf("comparison left = %#v, want unary -", cmp.L)
	}
}

func TestParseDottedRef(t *testing.T) {
	prog := mustParse(t, "n = system.population.size\n")
	ref, ok := prog.Init[0].(*Assign).Value.(*Ref)
	if !ok {
		t.Fatalf("value = %#v, want *Ref", prog.Init[0].(*Assign).Value)
	}
	if ref.Name() != "system.population.size" {
		t.Fatalf("ref = %q, want system.population.size", ref.Name())
	}
}

func TestParseLiterals(t *testing.T) {
	prog := mustParse(t, `a = 42; b = 2.5; c = "text"; d = true`)
	values := []cty.Value{
		cty.NumberIntVal(42),
		cty.NumberFloatVal(2.5),
		cty.StringVal("text"),
		cty.True,
	}
	for i, want := range values {
		lit, ok := prog.Init[i].(*Assign).Value.(*Literal)
		if !ok {
			t.Fatalf("init[%d] value is not a literal", i)
		}
		if !lit.Value.RawEquals(want) {
			t.Errorf("init[%d] = %#v, want %#v", i, lit.Value, want)
		}
	}
}

func TestParseErrorPosition(t *testing.T) {
	serr := parseErr(t, "x = \n")
	if serr.Pos != (Pos{Line: 1, Col: 5}) {
		t.Fatalf("pos = %v, want 1:5", serr.Pos)
	}
}

func TestParseErrorOnSecondLine(t *testing.T) {
	serr := parseErr(t, "x = 1\nFROM pop SELECT\n")
	if serr.Pos.Line != 2 {
		t.Fatalf("error line = %d, want 2: %v", serr.Pos.Line, serr)
	}
}

func TestParseBlockErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"missing end", "BEGIN generation\nYIELD pop\n", "missing END"},
		{"mismatched end", "BEGIN generation\nYIELD pop\nEND other\n", "does not match"},
		{"nested begin", "BEGIN outer\nBEGIN inner\nEND inner\nEND outer\n", "cannot nest"},
		{"end without begin", "END generation\n", "without matching BEGIN"},
		{"duplicate block", "BEGIN g\nYIELD p\nEND g\nBEGIN g\nYIELD p\nEND g\n", "duplicate block name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			serr := parseErr(t, tc.src)
			if !strings.Contains(serr.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", serr.Error(), tc.want)
			}
		})
	}
}

func TestParseReservedNames(t *testing.T) {
	serr := parseErr(t, "FROM select SELECT 5 pop\n")
	if !strings.Contains(serr.Error(), "reserved") {
		t.Fatalf("error %q should mention reserved", serr.Error())
	}
}

func TestParseUnterminatedString(t *testing.T) {
	serr := parseErr(t, `a = "oops`)
	if !strings.Contains(serr.Error(), "unterminated string") {
		t.Fatalf("error %q should mention unterminated string", serr.Error())
	}
}

func TestParseUnexpectedCharacter(t *testing.T) {
	serr := parseErr(t, "a = 1 @ 2\n")
	if !strings.Contains(serr.Error(), "unexpected character") {
		t.Fatalf("error %q should mention unexpected character", serr.Error())
	}
}
