package rng

import "math/rand"

// DefaultSeed seeds both streams unless the host asks for time-based
// seeding.
const DefaultSeed = 12345

// Service supplies two independently seeded deterministic streams: one for
// every stochastic breeding decision (selection, crossover, mutation) and
// one consumed exclusively by landscape/evaluator code. Reseeding one stream
// never perturbs the other; a given seed always reproduces the same sequence
// of draws across runs and process restarts.
type Service struct {
	breeding  *rand.Rand
	landscape *rand.Rand

	breedingSeed  int64
	landscapeSeed int64
}

// New creates a service with the given seeds. Seeds <= 0 fall back to
// DefaultSeed.
func New(breedingSeed, landscapeSeed int64) *Service {
	s := &Service{}
	s.ReseedBreeding(breedingSeed)
	s.ReseedLandscape(landscapeSeed)
	return s
}

// Breeding returns the breeding-system stream.
func (s *Service) Breeding() *rand.Rand { return s.breeding }

// Landscape returns the landscape/evaluator stream.
func (s *Service) Landscape() *rand.Rand { return s.landscape }

// BreedingSeed reports the seed the breeding stream was last seeded with.
func (s *Service) BreedingSeed() int64 { return s.breedingSeed }

// LandscapeSeed reports the seed the landscape stream was last seeded with.
func (s *Service) LandscapeSeed() int64 { return s.landscapeSeed }

// ReseedBreeding restarts the breeding stream from seed.
func (s *Service) ReseedBreeding(seed int64) {
	if seed <= 0 {
		seed = DefaultSeed
	}
	s.breedingSeed = seed
	s.breeding = rand.New(rand.NewSource(seed))
}

// ReseedLandscape restarts the landscape stream from seed.
func (s *Service) ReseedLandscape(seed int64) {
	if seed <= 0 {
		seed = DefaultSeed
	}
	s.landscapeSeed = seed
	s.landscape = rand.New(rand.NewSource(seed))
}
