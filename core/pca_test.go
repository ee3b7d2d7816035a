package core

import (
	"errors"
	"math"
	"testing"

	ex "pairscan/extensions"
)

func TestReduceFeaturesShape(t *testing.T) {
	n := 500
	returns := makeTestPanel(t, []string{"AAA", "BBB", "CCC", "DDD"}, [][]float64{
		generateAROne(t, n, 0.3, 1.0, 42),
		generateAROne(t, n, 0.3, 1.0, 43),
		generateAROne(t, n, 0.3, 1.0, 44),
		generateAROne(t, n, 0.3, 1.0, 45),
	})

	features, err := ReduceFeatures(returns, 2)
	if err != nil {
		t.Fatalf("Failed to reduce features: %v", err)
	}

	ex.AssertAreEqual(t, "asset count", 4, features.NumAssets())
	ex.AssertAreEqual(t, "feature count", 2, features.NumFeatures())

	for a, vec := range features.Loadings {
		for k, v := range vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("Asset %d, component %d: loading is not finite (%v)", a, k, v)
			}
		}
	}
}

func TestReduceFeaturesIdenticalColumnsGetIdenticalLoadings(t *testing.T) {
	n := 300
	shared := generateAROne(t, n, 0.3, 1.0, 42)
	other := generateAROne(t, n, 0.3, 1.0, 43)

	returns := makeTestPanel(t, []string{"AAA", "BBB", "CCC"}, [][]float64{shared, shared, other})

	features, err := ReduceFeatures(returns, 2)
	if err != nil {
		t.Fatalf("Failed to reduce features: %v", err)
	}

	// equal return columns must land on the same point in feature space
	for k := range 2 {
		ex.AssertClose(t, "duplicate asset loading", features.Loadings[0][k], features.Loadings[1][k], 1e-8)
	}
}

func TestReduceFeaturesScaleInvariance(t *testing.T) {
	n := 300
	base := generateAROne(t, n, 0.3, 0.01, 42)
	loud := make([]float64, n)
	for i, v := range base {
		loud[i] = 1000 * v // same shape, wildly different volatility
	}
	other := generateAROne(t, n, 0.3, 1.0, 43)

	returns := makeTestPanel(t, []string{"AAA", "BBB", "CCC"}, [][]float64{base, loud, other})

	features, err := ReduceFeatures(returns, 2)
	if err != nil {
		t.Fatalf("Failed to reduce features: %v", err)
	}

	// standardization erases the scale difference before the projection
	for k := range 2 {
		ex.AssertClose(t, "scaled asset loading", features.Loadings[0][k], features.Loadings[1][k], 1e-8)
	}
}

func TestReduceFeaturesRejectsBadInput(t *testing.T) {
	if _, err := ReduceFeatures(nil, 2); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady for a nil return panel, got %v", err)
	}

	returns := makeTestPanel(t, []string{"AAA", "BBB"}, [][]float64{
		generateAROne(t, 100, 0.3, 1.0, 42),
		generateAROne(t, 100, 0.3, 1.0, 43),
	})

	if _, err := ReduceFeatures(returns, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero components, got %v", err)
	}
	if _, err := ReduceFeatures(returns, 3); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for more components than assets, got %v", err)
	}
}
