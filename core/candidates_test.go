package core

import (
	"errors"
	"testing"

	ex "pairscan/extensions"
	m "pairscan/models"
)

func TestGenerateCandidatesCombinatorialOrder(t *testing.T) {
	assignment := &m.ClusterAssignment{
		Assets: []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF"},
		Labels: []int{0, 0, 0, 1, 1, m.NoiseLabel},
	}

	pairs, err := GenerateCandidates(assignment)
	if err != nil {
		t.Fatalf("Failed to generate candidates: %v", err)
	}

	expected := []m.Pair{
		{Dependent: "AAA", Independent: "BBB"},
		{Dependent: "AAA", Independent: "CCC"},
		{Dependent: "BBB", Independent: "CCC"},
		{Dependent: "DDD", Independent: "EEE"},
	}
	ex.AssertAreEqual(t, "pair count", len(expected), len(pairs))
	for i := range expected {
		ex.AssertAreEqual(t, "pair order", expected[i], pairs[i])
	}
}

func TestGenerateCandidatesSkipsNoiseAndSingletons(t *testing.T) {
	assignment := &m.ClusterAssignment{
		Assets: []string{"AAA", "BBB", "CCC", "DDD"},
		Labels: []int{0, m.NoiseLabel, m.NoiseLabel, 1},
	}

	// both clusters are singletons, nothing to combine
	if _, err := GenerateCandidates(assignment); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Expected ErrNoCandidates for singleton clusters, got %v", err)
	}
}

func TestGenerateCandidatesAllNoise(t *testing.T) {
	assignment := &m.ClusterAssignment{
		Assets: []string{"AAA", "BBB", "CCC"},
		Labels: []int{m.NoiseLabel, m.NoiseLabel, m.NoiseLabel},
	}

	if _, err := GenerateCandidates(assignment); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Expected ErrNoCandidates when everything is noise, got %v", err)
	}
}

func TestGenerateCandidatesNotReady(t *testing.T) {
	if _, err := GenerateCandidates(nil); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady for a nil assignment, got %v", err)
	}

	if _, err := GenerateCandidates(&m.ClusterAssignment{}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady for an empty assignment, got %v", err)
	}
}

func TestGenerateCandidatesNeverDuplicates(t *testing.T) {
	// non-contiguous labels, the id space only needs to be stable
	assignment := &m.ClusterAssignment{
		Assets: []string{"AAA", "BBB", "CCC", "DDD"},
		Labels: []int{7, 7, 7, 7},
	}

	pairs, err := GenerateCandidates(assignment)
	if err != nil {
		t.Fatalf("Failed to generate candidates: %v", err)
	}

	ex.AssertAreEqual(t, "pair count", 6, len(pairs))

	seen := make(map[string]bool)
	for _, p := range pairs {
		if p.Dependent == p.Independent {
			t.Errorf("Pair %s pairs an asset with itself", p.Key())
		}
		reversed := m.Pair{Dependent: p.Independent, Independent: p.Dependent}
		if seen[p.Key()] || seen[reversed.Key()] {
			t.Errorf("Pair %s appears more than once", p.Key())
		}
		seen[p.Key()] = true
	}
}
