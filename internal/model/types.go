package model

import "time"

// SpeciesKind tags the representation carried by a Genome. Operators and the
// interpreter stay representation-agnostic; only the grammar mapper
// specializes on KindGE.
type SpeciesKind string

const (
	KindBinary  SpeciesKind = "binary"
	KindReal    SpeciesKind = "real"
	KindInteger SpeciesKind = "integer"
	KindGE      SpeciesKind = "ge"
)

// WrapPolicy selects how grammar mapping treats an exhausted genome.
type WrapPolicy string

const (
	WrapRestart WrapPolicy = "wrap"
	WrapFail    WrapPolicy = "fail"
	WrapPad     WrapPolicy = "pad"
)

// Genome is a tagged variant. Exactly one payload slice is populated,
// selected by Kind. Bounds apply to integer, real and ge genomes and are
// carried so mutation can reintroduce values missing from the genome.
type Genome struct {
	Kind SpeciesKind `json:"kind"`

	Bits  []bool    `json:"bits,omitempty"`
	Reals []float64 `json:"reals,omitempty"`
	Ints  []int64   `json:"ints,omitempty"`

	Lowest  float64 `json:"lowest,omitempty"`
	Highest float64 `json:"highest,omitempty"`

	Wrap      WrapPolicy `json:"wrap,omitempty"`
	WrapLimit int        `json:"wrap_limit,omitempty"`
}

// Len returns the number of genes regardless of representation.
func (g Genome) Len() int {
	switch g.Kind {
	case KindBinary:
		return len(g.Bits)
	case KindReal:
		return len(g.Reals)
	default:
		return len(g.Ints)
	}
}

// Clone returns a deep copy of the genome.
func (g Genome) Clone() Genome {
	out := g
	if g.Bits != nil {
		out.Bits = append([]bool(nil), g.Bits...)
	}
	if g.Reals != nil {
		out.Reals = append([]float64(nil), g.Reals...)
	}
	if g.Ints != nil {
		out.Ints = append([]int64(nil), g.Ints...)
	}
	return out
}

// Individual is one candidate solution: a genome, a fitness slot and
// accumulated statistic tags. Fitness starts unset and is cached once
// evaluated; variation produces fresh individuals with unset fitness.
type Individual struct {
	Genome  Genome         `json:"genome"`
	Fitness float64        `json:"fitness"`
	Valid   bool           `json:"valid"`
	Stats   map[string]int `json:"stats,omitempty"`
	Birth   int            `json:"birth"`
}

// Clone returns a deep copy suitable for publication outside the
// interpreter; observers of a yield must copy what they keep.
func (ind *Individual) Clone() *Individual {
	out := &Individual{
		Genome:  ind.Genome.Clone(),
		Fitness: ind.Fitness,
		Valid:   ind.Valid,
		Birth:   ind.Birth,
	}
	if ind.Stats != nil {
		out.Stats = make(map[string]int, len(ind.Stats))
		for k, v := range ind.Stats {
			out.Stats[k] = v
		}
	}
	return out
}

// Invalidate clears any cached fitness.
func (ind *Individual) Invalidate() {
	ind.Fitness = 0
	ind.Valid = false
}

// Tag increments a statistic counter on the individual.
func (ind *Individual) Tag(name string, delta int) {
	if ind.Stats == nil {
		ind.Stats = make(map[string]int)
	}
	ind.Stats[name] += delta
}

// RunRecord describes one completed (or failed) experiment run.
type RunRecord struct {
	ID            string    `json:"id"`
	Definition    string    `json:"definition"`
	Landscape     string    `json:"landscape"`
	BreedingSeed  int64     `json:"breeding_seed"`
	LandscapeSeed int64     `json:"landscape_seed"`
	Generations   int       `json:"generations"`
	Evaluations   int       `json:"evaluations"`
	BestFitness   float64   `json:"best_fitness"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// GenerationStats summarises one yield checkpoint.
type GenerationStats struct {
	Generation  int     `json:"generation"`
	Group       string  `json:"group"`
	Size        int     `json:"size"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	StddevFit   float64 `json:"stddev_fitness"`
	Evaluations int     `json:"evaluations"`
}

// BestIndividual is a stored snapshot of the best individual seen in a run.
type BestIndividual struct {
	RunID      string     `json:"run_id"`
	Generation int        `json:"generation"`
	Individual Individual `json:"individual"`
	Phenome    string     `json:"phenome,omitempty"`
}
