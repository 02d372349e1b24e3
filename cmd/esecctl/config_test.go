package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.esdl")
	const text = "FROM random_binary(length=8) SELECT 10 population\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := loadDefinition(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != text {
		t.Fatalf("got %q", got)
	}

	if _, err := loadDefinition(""); err == nil {
		t.Fatal("empty path accepted")
	}
	if _, err := loadDefinition(filepath.Join(t.TempDir(), "missing.esdl")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestLoadGrammar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grammar.yaml")
	const text = `
"*":
  - EXPR
EXPR:
  - TERMINAL
  - EXPR "+" EXPR
`
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rules, err := loadGrammar(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rules["*"]) != 1 || len(rules["EXPR"]) != 2 {
		t.Fatalf("rules = %+v", rules)
	}
	if rules["EXPR"][1] != `EXPR "+" EXPR` {
		t.Fatalf("production = %q", rules["EXPR"][1])
	}

	// No grammar flag means no grammar.
	rules, err = loadGrammar("")
	if err != nil || rules != nil {
		t.Fatalf("empty path: rules=%v err=%v", rules, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadGrammar(bad); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}

func TestSetFlags(t *testing.T) {
	flags := setFlags{}
	for _, arg := range []string{"size=100", "rate=0.5", "elitism=true", "name=trial"} {
		if err := flags.Set(arg); err != nil {
			t.Fatalf("set %q: %v", arg, err)
		}
	}
	if flags["size"] != int64(100) {
		t.Fatalf("size = %#v", flags["size"])
	}
	if flags["rate"] != 0.5 {
		t.Fatalf("rate = %#v", flags["rate"])
	}
	if flags["elitism"] != true {
		t.Fatalf("elitism = %#v", flags["elitism"])
	}
	if flags["name"] != "trial" {
		t.Fatalf("name = %#v", flags["name"])
	}

	if err := flags.Set("novalue"); err == nil {
		t.Fatal("missing = accepted")
	}
	if err := flags.Set("=5"); err == nil {
		t.Fatal("empty key accepted")
	}
}

func TestParseScalar(t *testing.T) {
	cases := []struct {
		raw  string
		want any
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"2.5", 2.5},
		{"true", true},
		{"false", false},
		{"hello", "hello"},
		{"1e3", 1000.0},
	}
	for _, tc := range cases {
		if got := parseScalar(tc.raw); got != tc.want {
			t.Errorf("parseScalar(%q) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestParseGenome(t *testing.T) {
	genome, err := parseGenome("4, 1,99")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(genome) != 3 || genome[0] != 4 || genome[1] != 1 || genome[2] != 99 {
		t.Fatalf("genome = %v", genome)
	}

	if _, err := parseGenome(""); err == nil {
		t.Fatal("empty genome accepted")
	}
	if _, err := parseGenome("1,x,3"); err == nil {
		t.Fatal("non-numeric codon accepted")
	}
}
