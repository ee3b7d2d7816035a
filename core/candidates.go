package core

import (
	"fmt"

	m "pairscan/models"
)

// GenerateCandidates enumerates every unordered 2-combination of assets
// inside each non-noise cluster, in combinatorial order over the cluster's
// member order. Clusters with fewer than two members contribute nothing.
func GenerateCandidates(assignment *m.ClusterAssignment) ([]m.Pair, error) {
	if assignment == nil || len(assignment.Assets) == 0 {
		return nil, fmt.Errorf("generate candidates: %w: cluster before generating pairs", ErrNotReady)
	}

	var pairs []m.Pair
	seen := make(map[m.Pair]bool)

	for _, label := range assignment.ClusterIDs() {
		members := assignment.Members(label)
		for i := range members {
			for j := i + 1; j < len(members); j++ {
				p := m.Pair{Dependent: members[i], Independent: members[j]}
				if members[i] == members[j] || seen[p] || seen[m.Pair{Dependent: members[j], Independent: members[i]}] {
					continue
				}
				seen[p] = true
				pairs = append(pairs, p)
			}
		}
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("generate candidates: %w: no clusters with at least two members", ErrNoCandidates)
	}

	return pairs, nil
}
