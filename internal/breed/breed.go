// Package breed holds the built-in pipeline operators: generators that
// create fresh populations, selectors that draw from existing ones,
// variators that recombine and mutate, and filters. All stochastic
// decisions draw from the breeding stream only, so a seed fully determines
// a run's breeding behaviour.
package breed

import "github.com/zooba/esec/internal/op"

// RegisterAll installs every built-in operator into the registry.
func RegisterAll(r *op.Registry) error {
	var all []op.Descriptor
	all = append(all, generatorDescriptors()...)
	all = append(all, selectorDescriptors()...)
	all = append(all, variatorDescriptors()...)
	all = append(all, filterDescriptors()...)
	for _, d := range all {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
