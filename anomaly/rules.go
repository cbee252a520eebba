package anomaly

import (
	"fmt"
	"math"
	"sort"
)

// ruleBasedDetection checks every known feature against its normal range
// and returns one human-readable anomaly string per violation plus an
// overall confidence (the mean of the per-violation confidences).
//
// A feature exactly on a range bound is normal. Deviation is measured in
// units of 10% of the violated bound, and the per-violation confidence is
// 0.5 + 0.1 per deviation unit, capped at 0.95.
func ruleBasedDetection(features map[string]float64, ranges map[string]featureRange) ([]string, float64) {
	if len(ranges) == 0 {
		return nil, 0
	}

	names := make([]string, 0, len(features))
	for name := range features {
		if _, known := ranges[name]; known {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var anomalies []string
	var confidenceSum float64
	for _, name := range names {
		value := features[name]
		bounds := ranges[name]

		var bound float64
		var label string
		switch {
		case value > bounds.Max:
			bound, label = bounds.Max, "High"
		case value < bounds.Min:
			bound, label = bounds.Min, "Low"
		default:
			continue
		}

		deviation := math.Abs(value-bound) / (math.Abs(bound) * 0.1)
		confidence := math.Min(0.95, 0.5+0.1*deviation)

		anomalies = append(anomalies, fmt.Sprintf("%s %s: %v (normal range: %v-%v)",
			label, name, value, bounds.Min, bounds.Max))
		confidenceSum += confidence
	}

	if len(anomalies) == 0 {
		return nil, 0
	}
	return anomalies, confidenceSum / float64(len(anomalies))
}
