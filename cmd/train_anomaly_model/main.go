package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"agridefender/anomaly"
	"agridefender/models"

	"github.com/joho/godotenv"
)

func main() {
	inputFile := flag.String("in", "", "JSON file with historical readings ([{feature: value, ...}, ...])")
	sensor := flag.String("sensor", "soil", "Sensor type the readings came from (soil, weather, image)")
	flag.Parse()

	_ = godotenv.Load()

	if *inputFile == "" {
		log.Fatal("missing -in file with historical readings")
	}

	data, err := os.ReadFile(*inputFile)
	if err != nil {
		log.Fatalf("failed to read input file: %v", err)
	}

	var historical []map[string]float64
	if err := json.Unmarshal(data, &historical); err != nil {
		log.Fatalf("failed to parse input file: %v", err)
	}
	if len(historical) == 0 {
		log.Fatalf("no readings found in %s", *inputFile)
	}

	model, err := anomaly.TrainModel(historical, models.SensorType(*sensor))
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	log.Printf("Trained %s anomaly model on %d readings (%d features)",
		model.SensorType, len(historical), len(model.FeatureNames))
}
