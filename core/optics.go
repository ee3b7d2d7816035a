package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	m "pairscan/models"
)

// ClusterOptions tunes the density clustering. MinSamples is the number of
// points (the point itself included) needed in a neighborhood for a point to
// be a core point. Epsilon is the reachability cut used when extracting
// clusters from the ordering; zero derives one from the reachability profile
// so the engine stays basically parameterless.
type ClusterOptions struct {
	MinSamples int
	Epsilon    float64
}

// Cluster groups assets by density over their feature vectors using an OPTICS
// ordering: points are walked by reachability distance and clusters are the
// dense stretches separated by low-density points. Assets that fit no dense
// region get the noise label -1. The number of clusters is never fixed in
// advance.
func Cluster(features *m.FeatureMatrix, opts ClusterOptions) (*m.ClusterAssignment, error) {
	if features == nil || features.NumAssets() == 0 {
		return nil, fmt.Errorf("cluster: %w: reduce features before clustering", ErrNotReady)
	}

	minSamples := opts.MinSamples
	if minSamples < 2 {
		minSamples = 2
	}

	dist := pairwiseDistances(features.Loadings)

	ordering, reach, coreDist := opticsOrdering(dist, minSamples)

	eps := opts.Epsilon
	if eps == 0 {
		eps = extractionEpsilon(reach)
	}

	labels := extractClusters(ordering, reach, coreDist, eps)
	demoteSmallClusters(labels, minSamples)

	return &m.ClusterAssignment{
		Assets: features.Assets,
		Labels: labels,
	}, nil
}

func pairwiseDistances(points [][]float64) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}

	for i := range n {
		for j := i + 1; j < n; j++ {
			var sum float64
			for k := range points[i] {
				d := points[i][k] - points[j][k]
				sum += d * d
			}
			d := math.Sqrt(sum)
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	return dist
}

// opticsOrdering produces the reachability ordering. With an unbounded
// neighborhood every point with at least minSamples peers is a core point, so
// only the first point of each connected walk keeps an undefined (+Inf)
// reachability.
func opticsOrdering(dist [][]float64, minSamples int) (ordering []int, reach, coreDist []float64) {
	n := len(dist)
	reach = make([]float64, n)
	coreDist = make([]float64, n)
	processed := make([]bool, n)
	ordering = make([]int, 0, n)

	for i := range n {
		reach[i] = math.Inf(1)
		coreDist[i] = kthNearestDistance(dist[i], minSamples)
	}

	for start := range n {
		if processed[start] {
			continue
		}

		// seed a new walk at the first unprocessed point
		current := start
		for current >= 0 {
			processed[current] = true
			ordering = append(ordering, current)

			if !math.IsInf(coreDist[current], 1) {
				for peer := range n {
					if processed[peer] {
						continue
					}
					newReach := math.Max(coreDist[current], dist[current][peer])
					if newReach < reach[peer] {
						reach[peer] = newReach
					}
				}
			}

			// next point is the unprocessed one with the smallest reachability
			current = -1
			best := math.Inf(1)
			for peer := range n {
				if !processed[peer] && reach[peer] <= best {
					if current == -1 || reach[peer] < best {
						best = reach[peer]
						current = peer
					}
				}
			}
			if current != -1 && math.IsInf(reach[current], 1) {
				// disconnected under the density requirement, start a fresh walk
				break
			}
		}
	}

	return ordering, reach, coreDist
}

func kthNearestDistance(row []float64, k int) float64 {
	if k > len(row) {
		return math.Inf(1)
	}

	// self sits at distance zero, so the k-th neighbor including self is the
	// (k-1)-th smallest positive entry; a partial selection is plenty here
	sorted := append([]float64(nil), row...)
	for i := 0; i < k; i++ {
		minIdx := i
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j] < sorted[minIdx] {
				minIdx = j
			}
		}
		sorted[i], sorted[minIdx] = sorted[minIdx], sorted[i]
	}

	return sorted[k-1]
}

// extractionEpsilon picks a reachability cut one standard deviation above the
// mean of the defined reachabilities, so cluster-internal steps stay below it
// and the jumps between dense regions land above it.
func extractionEpsilon(reach []float64) float64 {
	finite := make([]float64, 0, len(reach))
	for _, r := range reach {
		if !math.IsInf(r, 1) {
			finite = append(finite, r)
		}
	}
	if len(finite) == 0 {
		return 0
	}

	return stat.Mean(finite, nil) + stat.StdDev(finite, nil)
}

// extractClusters walks the ordering: a point whose reachability exceeds the
// cut starts a new cluster when it is dense enough itself, otherwise it is
// noise; every following point within the cut joins the open cluster.
func extractClusters(ordering []int, reach, coreDist []float64, eps float64) []int {
	labels := make([]int, len(ordering))
	cluster := -1

	for _, idx := range ordering {
		far := math.IsInf(reach[idx], 1) || reach[idx] > eps
		switch {
		case !far && cluster >= 0:
			labels[idx] = cluster
		case far && coreDist[idx] <= eps:
			cluster++
			labels[idx] = cluster
		default:
			labels[idx] = m.NoiseLabel
		}
	}

	return labels
}

func demoteSmallClusters(labels []int, minSamples int) {
	counts := make(map[int]int)
	for _, l := range labels {
		if l != m.NoiseLabel {
			counts[l]++
		}
	}

	for i, l := range labels {
		if l != m.NoiseLabel && counts[l] < minSamples {
			labels[i] = m.NoiseLabel
		}
	}
}
