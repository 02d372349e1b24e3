package breed

import (
	"strings"
	"testing"

	"github.com/zooba/esec/internal/model"
)

func TestRandomBinary(t *testing.T) {
	rt := newRT()
	out := apply(t, rt, "random_binary", nil, 5, map[string]any{"length": 8})
	if len(out) != 5 {
		t.Fatalf("got %d individuals, want 5", len(out))
	}
	births := map[int]bool{}
	for _, ind := range out {
		if ind.Genome.Kind != model.KindBinary || len(ind.Genome.Bits) != 8 {
			t.Fatalf("genome = %+v, want 8-bit binary", ind.Genome)
		}
		if ind.Valid {
			t.Fatal("fresh individuals must be unevaluated")
		}
		if births[ind.Birth] {
			t.Fatalf("duplicate birth %d", ind.Birth)
		}
		births[ind.Birth] = true
	}
}

func TestRandomBinaryBadLength(t *testing.T) {
	if _, err := tryApply(newRT(), "random_binary", nil, 1, map[string]any{"length": 0}); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}

func TestRandomReal(t *testing.T) {
	out := apply(t, newRT(), "random_real", nil, 10, map[string]any{
		"length": 3, "lowest": -2.0, "highest": 2.0,
	})
	for _, ind := range out {
		if ind.Genome.Kind != model.KindReal {
			t.Fatalf("kind = %s", ind.Genome.Kind)
		}
		if ind.Genome.Lowest != -2 || ind.Genome.Highest != 2 {
			t.Fatalf("bounds = %g..%g", ind.Genome.Lowest, ind.Genome.Highest)
		}
		for _, x := range ind.Genome.Reals {
			if x < -2 || x >= 2 {
				t.Fatalf("gene %g outside [-2, 2)", x)
			}
		}
	}
}

func TestRandomRealBadBounds(t *testing.T) {
	_, err := tryApply(newRT(), "random_real", nil, 1, map[string]any{
		"length": 3, "lowest": 5.0, "highest": 1.0,
	})
	if err == nil || !strings.Contains(err.Error(), "below lowest") {
		t.Fatalf("err = %v, want bounds error", err)
	}
}

func TestRandomInt(t *testing.T) {
	out := apply(t, newRT(), "random_int", nil, 10, map[string]any{
		"length": 4, "lowest": 3, "highest": 6,
	})
	for _, ind := range out {
		if ind.Genome.Kind != model.KindInteger || len(ind.Genome.Ints) != 4 {
			t.Fatalf("genome = %+v", ind.Genome)
		}
		for _, v := range ind.Genome.Ints {
			if v < 3 || v > 6 {
				t.Fatalf("gene %d outside [3, 6]", v)
			}
		}
	}
}

func TestRandomIntIsDeterministic(t *testing.T) {
	a := apply(t, newRT(), "random_int", nil, 5, map[string]any{"length": 6})
	b := apply(t, newRT(), "random_int", nil, 5, map[string]any{"length": 6})
	for i := range a {
		for j := range a[i].Genome.Ints {
			if a[i].Genome.Ints[j] != b[i].Genome.Ints[j] {
				t.Fatalf("draws differ at %d/%d under identical seeds", i, j)
			}
		}
	}
}

func TestRandomGEFixedLength(t *testing.T) {
	out := apply(t, newRT(), "random_ge", nil, 6, map[string]any{
		"length": 12, "highest": 99,
	})
	for _, ind := range out {
		g := ind.Genome
		if g.Kind != model.KindGE || len(g.Ints) != 12 {
			t.Fatalf("genome = %+v", g)
		}
		if g.Wrap != model.WrapRestart || g.WrapLimit != 10 {
			t.Fatalf("wrap = %s/%d, want wrap/10", g.Wrap, g.WrapLimit)
		}
		for _, v := range g.Ints {
			if v < 0 || v > 99 {
				t.Fatalf("codon %d outside [0, 99]", v)
			}
		}
	}
}

func TestRandomGEVariableLength(t *testing.T) {
	out := apply(t, newRT(), "random_ge", nil, 20, map[string]any{
		"shortest": 5, "longest": 9,
	})
	for _, ind := range out {
		n := len(ind.Genome.Ints)
		if n < 5 || n > 9 {
			t.Fatalf("genome length %d outside [5, 9]", n)
		}
	}
}

func TestRandomGEWrapPolicy(t *testing.T) {
	out := apply(t, newRT(), "random_ge", nil, 1, map[string]any{"wrap": "fail"})
	if out[0].Genome.Wrap != model.WrapFail {
		t.Fatalf("wrap = %s, want fail", out[0].Genome.Wrap)
	}
	if _, err := tryApply(newRT(), "random_ge", nil, 1, map[string]any{"wrap": "sideways"}); err == nil {
		t.Fatal("expected error for unknown wrap policy")
	}
}
