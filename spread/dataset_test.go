package spread

import (
	"testing"

	"agridefender/models"
)

func TestGenerateDatasetShapes(t *testing.T) {
	t.Parallel()

	cfg := DatasetConfig{
		Size:       6,
		SpatialDim: 12,
		TimeSteps:  3,
		Seed:       7,
		Workers:    2,
	}
	samples := GenerateDataset(cfg)
	if len(samples) != cfg.Size {
		t.Fatalf("got %d samples, want %d", len(samples), cfg.Size)
	}

	allowed := make(map[models.ThreatType]bool)
	for _, threatType := range SimulatedTypes() {
		allowed[threatType] = true
	}

	for i, sample := range samples {
		if len(sample.Input) != cfg.TimeSteps {
			t.Fatalf("sample %d: got %d input frames, want %d", i, len(sample.Input), cfg.TimeSteps)
		}
		if sample.Target == nil {
			t.Fatalf("sample %d: missing target frame", i)
		}
		if sample.Target.Dim() != cfg.SpatialDim {
			t.Fatalf("sample %d: target dim %d, want %d", i, sample.Target.Dim(), cfg.SpatialDim)
		}
		if !allowed[sample.ThreatType] {
			t.Fatalf("sample %d: unexpected threat type %q", i, sample.ThreatType)
		}
	}
}

func TestGenerateDatasetReproducibleAcrossWorkerCounts(t *testing.T) {
	t.Parallel()

	cfg := DatasetConfig{
		Size:       5,
		SpatialDim: 10,
		TimeSteps:  3,
		Seed:       99,
	}

	cfg.Workers = 1
	serial := GenerateDataset(cfg)
	cfg.Workers = 4
	parallel := GenerateDataset(cfg)

	for i := range serial {
		if serial[i].ThreatType != parallel[i].ThreatType {
			t.Fatalf("sample %d: threat type differs across worker counts", i)
		}
		for f := range serial[i].Input {
			if !serial[i].Input[f].Equal(parallel[i].Input[f]) {
				t.Fatalf("sample %d: input frame %d differs across worker counts", i, f)
			}
		}
		if !serial[i].Target.Equal(parallel[i].Target) {
			t.Fatalf("sample %d: target differs across worker counts", i)
		}
	}
}

func TestGenerateShowcaseSharesInitialState(t *testing.T) {
	t.Parallel()

	showcase := GenerateShowcase()
	if len(showcase) != len(SimulatedTypes()) {
		t.Fatalf("got %d showcase sequences, want %d", len(showcase), len(SimulatedTypes()))
	}

	reference := showcase[models.ThreatFungal]
	if len(reference) != 8 {
		t.Fatalf("got %d frames, want 8", len(reference))
	}

	for threatType, sequence := range showcase {
		if len(sequence) != len(reference) {
			t.Fatalf("%s: got %d frames, want %d", threatType, len(sequence), len(reference))
		}
		if !sequence[0].Equal(reference[0]) {
			t.Fatalf("%s: showcase does not start from the shared initial state", threatType)
		}
	}
}
