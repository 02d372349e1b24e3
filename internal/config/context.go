package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Layer names, in overlay order from weakest to strongest. The binding
// resolver consults the composed snapshot; statement-local assignments
// shadow all of these.
const (
	LayerSpecies  = "species"
	LayerPlugin   = "plugin"
	LayerNamed    = "named"
	LayerOverride = "override"
)

var layerOrder = []string{LayerSpecies, LayerPlugin, LayerNamed, LayerOverride}

// Context is an overlay-composed mapping of dotted keys to values. Layers
// are applied species default < plug-in default < named configuration <
// explicit override. A Context is mutable while being assembled; the
// interpreter consumes an immutable Snapshot.
type Context struct {
	layers map[string]map[string]cty.Value
}

func NewContext() *Context {
	return &Context{layers: make(map[string]map[string]cty.Value)}
}

// Set places one dotted key into the named layer.
func (c *Context) Set(layer, key string, value cty.Value) error {
	if !validLayer(layer) {
		return fmt.Errorf("unknown configuration layer: %s", layer)
	}
	m := c.layers[layer]
	if m == nil {
		m = make(map[string]cty.Value)
		c.layers[layer] = m
	}
	m[strings.ToLower(key)] = value
	return nil
}

// SetAll places a whole dotted-key map into the named layer.
func (c *Context) SetAll(layer string, values map[string]cty.Value) error {
	for key, value := range values {
		if err := c.Set(layer, key, value); err != nil {
			return err
		}
	}
	return nil
}

func validLayer(layer string) bool {
	for _, name := range layerOrder {
		if name == layer {
			return true
		}
	}
	return false
}

// Snapshot is the fully composed, read-only view consumed per generation.
type Snapshot struct {
	values map[string]cty.Value
}

// Snapshot composes the layers in overlay order.
func (c *Context) Snapshot() Snapshot {
	values := make(map[string]cty.Value)
	for _, layer := range layerOrder {
		for key, value := range c.layers[layer] {
			values[key] = value
		}
	}
	return Snapshot{values: values}
}

// EmptySnapshot returns a snapshot with no keys.
func EmptySnapshot() Snapshot {
	return Snapshot{values: map[string]cty.Value{}}
}

// Lookup resolves a dotted key.
func (s Snapshot) Lookup(key string) (cty.Value, bool) {
	v, ok := s.values[strings.ToLower(key)]
	return v, ok
}

// Keys returns the snapshot's dotted keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of the snapshot with one extra binding. Used by the
// binder for statement-local assignments.
func (s Snapshot) With(key string, value cty.Value) Snapshot {
	values := make(map[string]cty.Value, len(s.values)+1)
	for k, v := range s.values {
		values[k] = v
	}
	values[strings.ToLower(key)] = value
	return Snapshot{values: values}
}
