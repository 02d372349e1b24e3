package config

import (
	"fmt"
	"os"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// LoadYAML reads a nested YAML mapping and flattens it into dotted keys.
// Scalars become cty values; nesting contributes key segments, so
//
//	system:
//	  size: 100
//
// yields `system.size` = 100.
func LoadYAML(path string) (map[string]cty.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ParseYAML flattens YAML bytes into dotted keys.
func ParseYAML(data []byte) (map[string]cty.Value, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	out := make(map[string]cty.Value)
	if err := flatten("", raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, raw map[string]any, out map[string]cty.Value) error {
	for key, value := range raw {
		dotted := key
		if prefix != "" {
			dotted = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			if err := flatten(dotted, v, out); err != nil {
				return err
			}
		default:
			cv, err := FromGo(v)
			if err != nil {
				return fmt.Errorf("configuration key %s: %w", dotted, err)
			}
			out[dotted] = cv
		}
	}
	return nil
}

// FromGo converts a decoded YAML/JSON scalar into a cty value.
func FromGo(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case string:
		return cty.StringVal(x), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value type %T", v)
	}
}
