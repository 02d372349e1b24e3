package landscape

import (
	"math"
	"testing"
)

func TestParseArith(t *testing.T) {
	cases := []struct {
		src  string
		x    float64
		want float64
	}{
		{"42", 0, 42},
		{"x", 3, 3},
		{"x+1", 2, 3},
		{"2+3*4", 0, 14},
		{"(2+3)*4", 0, 20},
		{"10-4-3", 0, 3},
		{"8/4/2", 0, 1},
		{"-x", 5, -5},
		{"-(x+1)*2", 2, -6},
		{"0.5*x", 4, 2},
		{" x + 2 ", 1, 3},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			node, err := parseArith(tc.src)
			if err != nil {
				t.Fatalf("parseArith(%q): %v", tc.src, err)
			}
			if got := node.eval(tc.x); math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("eval(%g) = %g, want %g", tc.x, got, tc.want)
			}
		})
	}
}

func TestParseArithErrors(t *testing.T) {
	for _, src := range []string{"", "x+", "(x", "x)", "x y", "1..2", "+x", "x++"} {
		t.Run(src, func(t *testing.T) {
			if _, err := parseArith(src); err == nil {
				t.Fatalf("parseArith(%q) succeeded, want error", src)
			}
		})
	}
}

func TestDivisionByZeroIsNonFinite(t *testing.T) {
	node, err := parseArith("1/x")
	if err != nil {
		t.Fatalf("parseArith: %v", err)
	}
	if v := node.eval(0); !math.IsInf(v, 1) {
		t.Fatalf("1/0 = %g, want +Inf", v)
	}
}
