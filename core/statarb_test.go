package core

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	ex "pairscan/extensions"
	m "pairscan/models"
)

func TestHurstExponentRandomWalk(t *testing.T) {
	walk := generateRandomWalk(t, 2000, 0, 1.0, 42)

	h := HurstExponent(walk, 100)

	// sqrt growth of the lag-diff dispersion puts a random walk at 0.5
	ex.AssertClose(t, "hurst of random walk", 0.5, h, 0.1)
}

func TestHurstExponentMeanRevertingSeries(t *testing.T) {
	series := generateAROne(t, 2000, 0.7, 1.0, 42)

	h := HurstExponent(series, 100)

	if math.IsNaN(h) || h >= 0.4 {
		t.Errorf("Expected hurst well below 0.5 for a reverting series, got %.4f", h)
	}
}

func TestHurstExponentDegenerateSeries(t *testing.T) {
	if h := HurstExponent([]float64{1, 2}, 100); !math.IsNaN(h) {
		t.Errorf("Expected NaN for a too-short series, got %.4f", h)
	}

	constant := make([]float64, 200)
	for i := range constant {
		constant[i] = 3.5
	}
	if h := HurstExponent(constant, 100); !math.IsNaN(h) {
		t.Errorf("Expected NaN for a constant series, got %.4f", h)
	}
}

func TestOUHalfLifeRecoversAROneDecay(t *testing.T) {
	phi := 0.9
	series := generateAROne(t, 3000, phi, 1.0, 42)

	expected := -math.Ln2 / math.Log(phi)
	halfLife := ouHalfLife(series)

	ex.AssertClose(t, "half life", expected, halfLife, 2.0)
}

func TestOUHalfLifeNonRevertingSeries(t *testing.T) {
	// explosive growth, the lag coefficient comes out positive
	diverging := make([]float64, 50)
	diverging[0] = 1
	for i := 1; i < len(diverging); i++ {
		diverging[i] = diverging[i-1] * 1.1
	}
	if hl := ouHalfLife(diverging); !math.IsInf(hl, 1) {
		t.Errorf("Expected +Inf half life for a diverging series, got %.4f", hl)
	}

	// perfect alternation overshoots the mean every step
	alternating := make([]float64, 50)
	for i := range alternating {
		alternating[i] = 1
		if i%2 == 1 {
			alternating[i] = -1
		}
	}
	ex.AssertAreEqual(t, "half life of alternating series", 0.0, ouHalfLife(alternating))
}

func TestCountMeanCrossovers(t *testing.T) {
	ex.AssertAreEqual(t, "alternating crossings", 3, countMeanCrossovers([]float64{1, -1, 1, -1}))

	// values sitting exactly on the mean carry no sign and are skipped
	ex.AssertAreEqual(t, "crossings with on-mean values", 3, countMeanCrossovers([]float64{1, -1, 0, 1, -1, 0}))

	ex.AssertAreEqual(t, "crossings of one-sided series", 0, countMeanCrossovers([]float64{1, 1, 1, 1}))
}

func TestMacKinnonPValueSurface(t *testing.T) {
	ex.AssertClose(t, "p at 1pct critical value", 0.01, mackinnonPValue(-3.896), 1e-9)
	ex.AssertClose(t, "p at 5pct critical value", 0.05, mackinnonPValue(-3.336), 1e-9)
	ex.AssertClose(t, "p at 10pct critical value", 0.10, mackinnonPValue(-3.044), 1e-9)

	// strictly increasing until the upper clamp takes over
	taus := []float64{-8, -4, -3.5, -3.1}
	prev := 0.0
	for _, tau := range taus {
		p := mackinnonPValue(tau)
		if p <= prev {
			t.Errorf("Expected p-value to increase with tau, got p(%.2f)=%.6f after %.6f", tau, p, prev)
		}
		prev = p
	}

	if p := mackinnonPValue(-50); p < 1e-4 {
		t.Errorf("Expected lower clamp at 1e-4, got %.2e", p)
	}
	if p := mackinnonPValue(10); p > 0.99 {
		t.Errorf("Expected upper clamp at 0.99, got %.4f", p)
	}
}

func TestEngleGrangerSeparatesCointegratedPairs(t *testing.T) {
	n := 1500
	factor := generateRandomWalk(t, n, 100, 1.0, 42)
	noise := generateAROne(t, n, 0.8, 2.0, 43)

	dep := make([]float64, n)
	for i := range n {
		dep[i] = 50 + 1.5*factor[i] + noise[i]
	}

	pvalue, ratio := engleGranger(dep, factor)
	if pvalue > 0.01 {
		t.Errorf("Expected a cointegrated pair to test well below 0.01, got %.4f", pvalue)
	}
	ex.AssertClose(t, "hedge ratio", 1.5, ratio, 0.05)

	// independent drifting walks share no common factor
	walkA := generateDriftingWalk(t, n, 200, 1.0, 0.3, 44)
	walkB := generateDriftingWalk(t, n, 300, 1.5, -0.2, 45)

	pvalue, _ = engleGranger(walkA, walkB)
	if pvalue <= 0.01 {
		t.Errorf("Expected independent walks to fail the test, got p=%.4f", pvalue)
	}
}

func TestRunCointegrationTestsKeepsPairOrder(t *testing.T) {
	n := 800
	panel := makeTestPanel(t, []string{"AAA", "BBB", "CCC"}, [][]float64{
		generateRandomWalk(t, n, 100, 1.0, 42),
		generateRandomWalk(t, n, 200, 1.0, 43),
		generateRandomWalk(t, n, 300, 1.0, 44),
	})
	pairs := []m.Pair{
		{Dependent: "AAA", Independent: "BBB"},
		{Dependent: "AAA", Independent: "CCC"},
		{Dependent: "BBB", Independent: "CCC"},
	}

	tester := &EngleGrangerTester{Workers: 4}
	results, err := tester.RunCointegrationTests(context.Background(), panel, pairs)
	if err != nil {
		t.Fatalf("Failed to run cointegration tests: %v", err)
	}

	ex.AssertAreEqual(t, "result count", len(pairs), len(results))
	for i := range pairs {
		ex.AssertAreEqual(t, "result order", pairs[i].Key(), results[i].Pair.Key())
	}
}

func TestRunCointegrationTestsUnknownColumn(t *testing.T) {
	panel := makeTestPanel(t, []string{"AAA"}, [][]float64{generateRandomWalk(t, 50, 100, 1.0, 42)})
	pairs := []m.Pair{{Dependent: "AAA", Independent: "ZZZ"}}

	tester := &EngleGrangerTester{Workers: 1}
	if _, err := tester.RunCointegrationTests(context.Background(), panel, pairs); err == nil {
		t.Error("Expected an error for a pair referencing an unknown column")
	}
}

func TestRunOUTestsAppliesTrailingWindow(t *testing.T) {
	n := 1000
	window := 504
	spread := generateAROne(t, n, 0.85, 1.0, 42)

	pair := m.Pair{Dependent: "AAA", Independent: "BBB"}
	spreads := makeTestPanel(t, []string{pair.Key()}, [][]float64{spread})

	estimator := &AROneEstimator{Workers: 2}
	results, err := estimator.RunOUTests(context.Background(), spreads, []m.Pair{pair}, window, 12)
	if err != nil {
		t.Fatalf("Failed to run ou tests: %v", err)
	}

	ex.AssertAreEqual(t, "result count", 1, len(results))

	r := results[0]
	expectedHalfLife := -math.Ln2 / math.Log(0.85)
	ex.AssertClose(t, "half life", expectedHalfLife, r.HalfLife, 3.0)

	// an ar(1) at 0.85 flips sign far more often than once a month
	required := 12 * window / m.Daily
	if r.Crossovers < required {
		t.Errorf("Expected at least %d crossovers over the window, got %d", required, r.Crossovers)
	}
	if !r.CrossoverPass {
		t.Error("Expected the crossover criterion to pass")
	}

	// windowed fit must ignore everything before the trailing slice
	tail := spread[len(spread)-window:]
	ex.AssertAreEqual(t, "windowed crossover count", countMeanCrossovers(tail), r.Crossovers)
}

func TestRunPairJobsComputesEveryIndex(t *testing.T) {
	n := 100
	results := make([]int, n)

	err := runPairJobs(context.Background(), 8, n, func(i int) error {
		results[i] = i * 2
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to run jobs: %v", err)
	}

	for i := range n {
		if results[i] != i*2 {
			t.Errorf("Index %d: expected %d, got %d", i, i*2, results[i])
		}
	}
}

func TestRunPairJobsHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runPairJobs(ctx, 4, 50, func(i int) error { return nil })
	if err == nil {
		t.Error("Expected a cancelled context to surface as an error")
	}
}

// Helper: random walk with unit-normal steps scaled by step, from a fixed seed
func generateRandomWalk(t *testing.T, n int, start, step float64, seed uint64) []float64 {
	t.Helper()
	return generateDriftingWalk(t, n, start, step, 0, seed)
}

// Helper: random walk with a deterministic per-step drift on top
func generateDriftingWalk(t *testing.T, n int, start, step, drift float64, seed uint64) []float64 {
	t.Helper()

	src := rand.NewPCG(seed, 0)
	normalDist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	series := make([]float64, n)
	level := start
	for i := range n {
		level += drift + step*normalDist.Rand()
		series[i] = level
	}
	return series
}

// Helper: zero-mean AR(1) with the given lag coefficient
func generateAROne(t *testing.T, n int, phi, sigma float64, seed uint64) []float64 {
	t.Helper()

	src := rand.NewPCG(seed, 0)
	normalDist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	series := make([]float64, n)
	prev := 0.0
	for i := range n {
		prev = phi*prev + sigma*normalDist.Rand()
		series[i] = prev
	}
	return series
}

// Helper: build a panel with a daily index from fixed per-column series
func makeTestPanel(t *testing.T, columns []string, series [][]float64) *m.Panel {
	t.Helper()

	n := len(series[0])
	for _, s := range series {
		if len(s) != n {
			t.Fatalf("test series lengths differ: %d vs %d", len(s), n)
		}
	}

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	index := make([]time.Time, n)
	for i := range n {
		index[i] = base.AddDate(0, 0, i)
	}

	panel := m.NewPanel(columns, index)
	for i := range n {
		for j := range columns {
			panel.Values[i][j] = series[j][i]
		}
	}
	return panel
}
