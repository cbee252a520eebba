package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"agridefender/spread"
)

func main() {
	size := flag.Int("size", 1000, "Number of samples to generate")
	dim := flag.Int("dim", 32, "Spatial grid dimension")
	steps := flag.Int("steps", 7, "Input frames per sample")
	seed := flag.Int64("seed", 42, "Base random seed")
	workers := flag.Int("workers", 4, "Parallel generation workers")
	outputFile := flag.String("out", "data/spread_dataset.json", "Output JSON file")
	showcaseFile := flag.String("showcase", "", "Also write fixed-seed showcase sequences to this file")
	flag.Parse()

	cfg := spread.DatasetConfig{
		Size:       *size,
		SpatialDim: *dim,
		TimeSteps:  *steps,
		Seed:       *seed,
		Workers:    *workers,
	}

	samples := spread.GenerateDataset(cfg)
	if err := writeJSON(*outputFile, samples); err != nil {
		log.Fatalf("failed to write dataset: %v", err)
	}
	log.Printf("Wrote %d samples to %s", len(samples), *outputFile)

	if *showcaseFile != "" {
		showcase := spread.GenerateShowcase()
		if err := writeJSON(*showcaseFile, showcase); err != nil {
			log.Fatalf("failed to write showcase: %v", err)
		}
		log.Printf("Wrote showcase sequences to %s", *showcaseFile)
	}
}

func writeJSON(path string, payload interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
