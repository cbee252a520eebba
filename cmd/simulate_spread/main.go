package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"agridefender/models"
	"agridefender/spread"
)

func main() {
	dim := flag.Int("dim", 32, "Spatial grid dimension")
	steps := flag.Int("steps", 8, "Frames to simulate (including the initial state)")
	threat := flag.String("type", "FUNGAL", "Threat type (FUNGAL, BACTERIAL, VIRAL, PEST)")
	seed := flag.Int64("seed", 42, "Random seed")
	concentration := flag.Float64("concentration", 0.7, "Initial outbreak concentration")
	points := flag.Int("points", 1, "Number of initial outbreak points")
	outputFile := flag.String("out", "data/spread_sequence.json", "Output JSON file")
	flag.Parse()

	threatType := models.ThreatType(strings.ToUpper(*threat))

	rng := rand.New(rand.NewSource(*seed))
	initial := spread.GenerateInitialState(*dim, *concentration, *points, rng)
	sequence := spread.Simulate(initial, *steps, threatType, rng)

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	data, err := json.MarshalIndent(sequence, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal sequence: %v", err)
	}
	if err := os.WriteFile(*outputFile, data, 0644); err != nil {
		log.Fatalf("failed to write output file: %v", err)
	}

	log.Printf("Wrote %d frames of %s spread to %s", len(sequence), threatType, *outputFile)
}
