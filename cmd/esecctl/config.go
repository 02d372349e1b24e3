package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadDefinition reads a pipeline definition file.
func loadDefinition(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("a definition file is required (-definition)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// loadGrammar reads a YAML grammar file: a mapping of rule name to a list
// of production strings, with "*" as the start rule.
func loadGrammar(path string) (map[string][]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules map[string][]string
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("grammar %s: %w", path, err)
	}
	return rules, nil
}

// setFlags collects repeated -set key=value flags.
type setFlags map[string]any

func (s setFlags) String() string { return "" }

func (s setFlags) Set(value string) error {
	key, raw, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	s[key] = parseScalar(raw)
	return nil
}

// parseScalar interprets an override the way a YAML scalar would read.
func parseScalar(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// parseGenome parses a comma-separated codon list.
func parseGenome(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("a genome is required (-genome)")
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		codon, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad codon %q", part)
		}
		out = append(out, codon)
	}
	return out, nil
}
