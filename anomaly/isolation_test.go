package anomaly

import (
	"math/rand"
	"testing"
)

func trainingCluster(rng *rand.Rand, n int) [][]float64 {
	samples := make([][]float64, n)
	for i := range samples {
		samples[i] = []float64{rng.Float64(), rng.Float64()}
	}
	return samples
}

func TestIsolationForestUntrainedIsNeutral(t *testing.T) {
	t.Parallel()

	forest := NewIsolationForest()
	if forest.Trained() {
		t.Fatal("fresh forest must not report trained")
	}
	if score := forest.Score([]float64{100, 100}); score != 0.5 {
		t.Fatalf("untrained forest must score neutral, got %f", score)
	}
	if forest.Predict([]float64{100, 100}) {
		t.Fatal("untrained forest must never vote outlier")
	}
}

func TestIsolationForestSeparatesOutlier(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	samples := trainingCluster(rng, 400)

	forest := NewIsolationForest()
	forest.Fit(samples, rng)

	inlier := []float64{0.5, 0.5}
	outlier := []float64{10, 10}

	inlierScore := forest.Score(inlier)
	outlierScore := forest.Score(outlier)
	if outlierScore <= inlierScore {
		t.Fatalf("outlier score %.4f must exceed inlier score %.4f", outlierScore, inlierScore)
	}
	if !forest.Predict(outlier) {
		t.Fatalf("far point must vote outlier (score %.4f, threshold %.4f)", outlierScore, forest.Threshold)
	}
	if forest.Predict(inlier) {
		t.Fatalf("cluster center must not vote outlier (score %.4f, threshold %.4f)", inlierScore, forest.Threshold)
	}
}

func TestIsolationForestDeterministicFit(t *testing.T) {
	t.Parallel()

	samples := trainingCluster(rand.New(rand.NewSource(7)), 300)

	a := NewIsolationForest()
	a.Fit(samples, rand.New(rand.NewSource(42)))
	b := NewIsolationForest()
	b.Fit(samples, rand.New(rand.NewSource(42)))

	point := []float64{0.9, 0.1}
	if a.Score(point) != b.Score(point) {
		t.Fatalf("same seed must give identical scores: %.8f vs %.8f", a.Score(point), b.Score(point))
	}
	if a.Threshold != b.Threshold {
		t.Fatalf("same seed must give identical thresholds: %.8f vs %.8f", a.Threshold, b.Threshold)
	}
}

func TestIsolationForestHandlesConstantData(t *testing.T) {
	t.Parallel()

	samples := make([][]float64, 50)
	for i := range samples {
		samples[i] = []float64{1, 1, 1}
	}

	forest := NewIsolationForest()
	forest.Fit(samples, rand.New(rand.NewSource(1)))
	if !forest.Trained() {
		t.Fatal("forest should still fit constant data")
	}

	// Every point isolates at depth zero, so scores are uniform and
	// nothing should stand out.
	if a, b := forest.Score([]float64{1, 1, 1}), forest.Score([]float64{1, 1, 1}); a != b {
		t.Fatalf("identical points must score identically: %f vs %f", a, b)
	}
}

func TestFeatureScalerZeroVariance(t *testing.T) {
	t.Parallel()

	scaler, err := NewFeatureScaler([][]float64{{2, 5}, {2, 7}, {2, 9}})
	if err != nil {
		t.Fatalf("scaler fit failed: %v", err)
	}
	out := scaler.Transform([]float64{2, 7})
	if out[0] != 0 {
		t.Fatalf("constant feature must scale to 0, got %f", out[0])
	}
	if out[1] != 0 {
		t.Fatalf("mean value must scale to 0, got %f", out[1])
	}
}

func TestFeatureScalerRejectsDegenerateInput(t *testing.T) {
	t.Parallel()

	if _, err := NewFeatureScaler(nil); err == nil {
		t.Fatal("expected an error for an empty training matrix")
	}
	if _, err := NewFeatureScaler([][]float64{{}}); err == nil {
		t.Fatal("expected an error for feature-less samples")
	}
	if _, err := NewFeatureScaler([][]float64{{1, 2}, {3}}); err == nil {
		t.Fatal("expected an error for ragged samples")
	}
}
