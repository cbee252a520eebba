package anomaly

import (
	"errors"
	"math"
)

// FeatureScaler standardizes features using z-score normalization: each
// dimension is transformed to mean 0, standard deviation 1. Without it a
// single large-magnitude feature (potassium in ppm vs pH) dominates the
// isolation splits.
type FeatureScaler struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

// NewFeatureScaler computes scaling parameters from a training matrix.
func NewFeatureScaler(samples [][]float64) (*FeatureScaler, error) {
	if len(samples) == 0 {
		return nil, errors.New("no samples provided")
	}
	featureCount := len(samples[0])
	if featureCount == 0 {
		return nil, errors.New("samples have no features")
	}

	mean := make([]float64, featureCount)
	for _, sample := range samples {
		if len(sample) != featureCount {
			return nil, errors.New("inconsistent feature dimensions")
		}
		for i, v := range sample {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(samples))
	}

	stddev := make([]float64, featureCount)
	for _, sample := range samples {
		for i, v := range sample {
			diff := v - mean[i]
			stddev[i] += diff * diff
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / float64(len(samples)))
		// Constant features would otherwise divide by zero.
		if stddev[i] < 1e-10 {
			stddev[i] = 1.0
		}
	}

	return &FeatureScaler{Mean: mean, Stddev: stddev}, nil
}

// Transform applies z-score standardization to one feature vector.
func (fs *FeatureScaler) Transform(features []float64) []float64 {
	if len(features) != len(fs.Mean) {
		return features
	}
	scaled := make([]float64, len(features))
	for i, v := range features {
		scaled[i] = (v - fs.Mean[i]) / fs.Stddev[i]
	}
	return scaled
}
