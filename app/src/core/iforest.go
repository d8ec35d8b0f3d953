package core

import (
	"math"
	"math/rand"
	"sort"
)

// OutlierModel is the pluggable multivariate outlier scorer used by the
// isolation detector. FitAndScore fits on rows and scores the same rows;
// this is retrospective stream analysis, not an online predictive model.
// Returned scores are higher-is-worse.
type OutlierModel interface {
	FitAndScore(rows [][]float64) (isOutlier []bool, scores []float64)
}

// isolationForest is a from-scratch isolation forest: random binary trees
// isolate outliers in fewer splits than inliers, so short average path
// lengths translate into high anomaly scores.
type isolationForest struct {
	trees         int
	subsampleSize int
	contamination float64
	seed          int64
}

// newIsolationForest builds a forest with the standard defaults for any
// non-positive parameter. Contamination is the expected outlier fraction
// used to place the decision cutoff.
func newIsolationForest(trees, subsampleSize int, contamination float64, seed int64) *isolationForest {
	if trees <= 0 {
		trees = 100
	}
	if subsampleSize <= 0 {
		subsampleSize = 256
	}
	if contamination <= 0 || contamination >= 1 {
		contamination = 0.05
	}
	return &isolationForest{
		trees:         trees,
		subsampleSize: subsampleSize,
		contamination: contamination,
		seed:          seed,
	}
}

type isoNode struct {
	left, right *isoNode
	feature     int
	split       float64
	size        int
}

// FitAndScore fits the forest on rows and scores every row it was fit on.
// The model is rebuilt from scratch on each call; fitted state is never
// reused across streams.
func (f *isolationForest) FitAndScore(rows [][]float64) ([]bool, []float64) {
	n := len(rows)
	if n == 0 {
		return nil, nil
	}

	rnd := rand.New(rand.NewSource(f.seed))
	sample := f.subsampleSize
	if sample > n {
		sample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample)))) + 1

	roots := make([]*isoNode, f.trees)
	for t := range roots {
		idx := rnd.Perm(n)[:sample]
		subset := make([][]float64, sample)
		for i, j := range idx {
			subset[i] = rows[j]
		}
		roots[t] = buildIsoTree(subset, 0, maxDepth, rnd)
	}

	norm := avgPathLength(sample)
	scores := make([]float64, n)
	for i, row := range rows {
		total := 0.0
		for _, root := range roots {
			total += pathLength(root, row, 0)
		}
		avgPath := total / float64(f.trees)
		// Anomaly score in (0,1]; short paths mean easy isolation.
		scores[i] = math.Pow(2, -avgPath/norm)
	}

	cutoff := scoreCutoff(scores, f.contamination)
	outliers := make([]bool, n)
	for i, s := range scores {
		outliers[i] = s >= cutoff
	}
	return outliers, scores
}

func buildIsoTree(rows [][]float64, depth, maxDepth int, rnd *rand.Rand) *isoNode {
	n := len(rows)
	if n <= 1 || depth >= maxDepth {
		return &isoNode{size: n}
	}

	features := len(rows[0])
	feature := rnd.Intn(features)

	lo, hi := rows[0][feature], rows[0][feature]
	for _, row := range rows[1:] {
		v := row[feature]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &isoNode{size: n}
	}

	split := lo + rnd.Float64()*(hi-lo)
	var left, right [][]float64
	for _, row := range rows {
		if row[feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &isoNode{
		feature: feature,
		split:   split,
		size:    n,
		left:    buildIsoTree(left, depth+1, maxDepth, rnd),
		right:   buildIsoTree(right, depth+1, maxDepth, rnd),
	}
}

func pathLength(node *isoNode, row []float64, depth int) float64 {
	if node.left == nil && node.right == nil {
		return float64(depth) + avgPathLength(node.size)
	}
	if row[node.feature] < node.split {
		return pathLength(node.left, row, depth+1)
	}
	return pathLength(node.right, row, depth+1)
}

// avgPathLength is the expected path length of an unsuccessful BST search
// among n points, the standard isolation-forest normalisation term.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}

// scoreCutoff returns the score above which the expected outlier fraction
// lies, i.e. the (1 - contamination) quantile of the scores.
func scoreCutoff(scores []float64, contamination float64) float64 {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	idx := int(math.Ceil(float64(len(sorted)) * (1 - contamination)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

var _ OutlierModel = (*isolationForest)(nil)
