package spread

import (
	"log"
	"math/rand"
	"sync"

	"agridefender/models"
)

// Sample is one training example: the observed sequence and the frame the
// model should learn to predict.
type Sample struct {
	ThreatType models.ThreatType `json:"threat_type"`
	Input      Sequence          `json:"input"`
	Target     *Grid             `json:"target"`
}

// DatasetConfig controls synthetic dataset generation.
type DatasetConfig struct {
	Size        int
	SpatialDim  int
	TimeSteps   int
	ThreatTypes []models.ThreatType
	Seed        int64
	Workers     int
}

// GenerateDataset produces Size independent spread sequences for training.
// Samples share no state: each owns a rand.Rand derived from the base seed
// and its index, so generation is parallel yet reproducible regardless of
// scheduling order.
func GenerateDataset(cfg DatasetConfig) []Sample {
	if cfg.SpatialDim <= 0 {
		cfg.SpatialDim = 32
	}
	if cfg.TimeSteps <= 0 {
		cfg.TimeSteps = 7
	}
	if len(cfg.ThreatTypes) == 0 {
		cfg.ThreatTypes = SimulatedTypes()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	log.Printf("Generating synthetic dataset with %d samples", cfg.Size)

	samples := make([]Sample, cfg.Size)
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				samples[i] = generateSample(cfg, i)
			}
		}()
	}

	for i := 0; i < cfg.Size; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return samples
}

func generateSample(cfg DatasetConfig, index int) Sample {
	rng := rand.New(rand.NewSource(cfg.Seed + int64(index)))

	threatType := cfg.ThreatTypes[rng.Intn(len(cfg.ThreatTypes))]
	concentration := 0.3 + 0.6*rng.Float64()
	numPoints := 1 + rng.Intn(3)

	initial := GenerateInitialState(cfg.SpatialDim, concentration, numPoints, rng)

	// TimeSteps frames of input plus one frame to predict.
	sequence := Simulate(initial, cfg.TimeSteps+1, threatType, rng)

	return Sample{
		ThreatType: threatType,
		Input:      sequence[:cfg.TimeSteps],
		Target:     sequence[cfg.TimeSteps],
	}
}

// GenerateShowcase produces one fixed-seed demo sequence per simulated
// threat type, all starting from the same initial state.
func GenerateShowcase() map[models.ThreatType]Sequence {
	const (
		dim       = 32
		timeSteps = 8
		seed      = 42
	)

	showcase := make(map[models.ThreatType]Sequence, len(SimulatedTypes()))
	for _, threatType := range SimulatedTypes() {
		log.Printf("Generating showcase for %s", threatType)

		initial := GenerateInitialState(dim, 0.7, 1, rand.New(rand.NewSource(seed)))
		showcase[threatType] = Simulate(initial, timeSteps, threatType, rand.New(rand.NewSource(seed)))
	}
	return showcase
}
