package anomaly

import (
	"math"
	"math/rand"
	"sort"
)

// Detector is the capability the model-based fallback stage is polymorphic
// over. Any isolation-style or density-based outlier model fits.
type Detector interface {
	Fit(samples [][]float64, rng *rand.Rand)
	Score(point []float64) float64
	Predict(point []float64) bool
}

// Default isolation forest parameters, used on cold start when no trained
// artifact exists yet.
const (
	defaultTreeCount     = 100
	defaultSubsampleSize = 256
	defaultContamination = 0.05
)

// isolationNode is one node of an isolation tree. Leaves carry the number
// of samples that ended up in them.
type isolationNode struct {
	SplitFeature int            `json:"split_feature"`
	SplitValue   float64        `json:"split_value"`
	Left         *isolationNode `json:"left,omitempty"`
	Right        *isolationNode `json:"right,omitempty"`
	Size         int            `json:"size"`
}

// IsolationForest isolates points via repeated random axis-aligned splits;
// points that need fewer splits to isolate score as more anomalous. Scores
// are in [0,1] with 0.5 neutral.
type IsolationForest struct {
	TreeCount     int              `json:"tree_count"`
	SubsampleSize int              `json:"subsample_size"`
	Contamination float64          `json:"contamination"`
	Trees         []*isolationNode `json:"trees,omitempty"`
	Threshold     float64          `json:"threshold"`
}

// NewIsolationForest returns an untrained forest with default parameters.
func NewIsolationForest() *IsolationForest {
	return &IsolationForest{
		TreeCount:     defaultTreeCount,
		SubsampleSize: defaultSubsampleSize,
		Contamination: defaultContamination,
	}
}

// Trained reports whether the forest has fitted trees.
func (f *IsolationForest) Trained() bool { return len(f.Trees) > 0 }

// Fit builds the forest from a training matrix. The binary-vote threshold
// is set so roughly Contamination of the training data votes "outlier".
func (f *IsolationForest) Fit(samples [][]float64, rng *rand.Rand) {
	if len(samples) == 0 {
		return
	}

	subsample := f.SubsampleSize
	if subsample > len(samples) {
		subsample = len(samples)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(subsample)))) + 1

	f.Trees = make([]*isolationNode, f.TreeCount)
	for t := 0; t < f.TreeCount; t++ {
		perm := rng.Perm(len(samples))
		subset := make([][]float64, subsample)
		for i := 0; i < subsample; i++ {
			subset[i] = samples[perm[i]]
		}
		f.Trees[t] = buildIsolationTree(subset, 0, maxDepth, rng)
	}

	scores := make([]float64, len(samples))
	for i, sample := range samples {
		scores[i] = f.Score(sample)
	}
	sort.Float64s(scores)
	idx := int(math.Ceil(float64(len(scores)) * (1 - f.Contamination)))
	if idx >= len(scores) {
		idx = len(scores) - 1
	}
	f.Threshold = scores[idx]
}

// Score returns the anomaly score of a point. An untrained forest scores
// everything as neutral (0.5), so the fallback stage degrades to "no
// anomaly" on cold start instead of failing.
func (f *IsolationForest) Score(point []float64) float64 {
	if !f.Trained() {
		return 0.5
	}

	var totalPath float64
	for _, tree := range f.Trees {
		totalPath += pathLength(tree, point, 0)
	}
	avgPath := totalPath / float64(len(f.Trees))

	return math.Pow(2, -avgPath/averagePathLength(f.SubsampleSize))
}

// Predict is the ensemble's binary outlier vote.
func (f *IsolationForest) Predict(point []float64) bool {
	if !f.Trained() {
		return false
	}
	return f.Score(point) >= f.Threshold
}

func buildIsolationTree(samples [][]float64, depth, maxDepth int, rng *rand.Rand) *isolationNode {
	if len(samples) <= 1 || depth >= maxDepth {
		return &isolationNode{Size: len(samples), SplitFeature: -1}
	}

	featureCount := len(samples[0])

	// Pick a feature that still varies; give up after a few draws (the
	// subset may be constant in every dimension).
	var splitFeature = -1
	var lo, hi float64
	for attempt := 0; attempt < featureCount*2; attempt++ {
		candidate := rng.Intn(featureCount)
		cLo, cHi := samples[0][candidate], samples[0][candidate]
		for _, s := range samples[1:] {
			if s[candidate] < cLo {
				cLo = s[candidate]
			}
			if s[candidate] > cHi {
				cHi = s[candidate]
			}
		}
		if cHi > cLo {
			splitFeature, lo, hi = candidate, cLo, cHi
			break
		}
	}
	if splitFeature < 0 {
		return &isolationNode{Size: len(samples), SplitFeature: -1}
	}

	splitValue := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, s := range samples {
		if s[splitFeature] < splitValue {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	return &isolationNode{
		SplitFeature: splitFeature,
		SplitValue:   splitValue,
		Left:         buildIsolationTree(left, depth+1, maxDepth, rng),
		Right:        buildIsolationTree(right, depth+1, maxDepth, rng),
	}
}

func pathLength(node *isolationNode, point []float64, depth int) float64 {
	if node == nil {
		return float64(depth)
	}
	if node.SplitFeature < 0 || node.Left == nil && node.Right == nil {
		return float64(depth) + averagePathLength(node.Size)
	}
	if node.SplitFeature < len(point) && point[node.SplitFeature] < node.SplitValue {
		return pathLength(node.Left, point, depth+1)
	}
	return pathLength(node.Right, point, depth+1)
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// BST search over n points, used to normalize isolation depths.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		const eulerMascheroni = 0.5772156649
		h := math.Log(float64(n-1)) + eulerMascheroni
		return 2*h - 2*float64(n-1)/float64(n)
	}
}
