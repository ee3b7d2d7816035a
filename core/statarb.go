package core

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	ex "pairscan/extensions"
	m "pairscan/models"
)

const StatWorkers = 8

// CointegrationTester produces one {p-value, hedge ratio} record per
// candidate pair, in candidate order.
type CointegrationTester interface {
	RunCointegrationTests(ctx context.Context, prices *m.Panel, pairs []m.Pair) ([]m.CointegrationResult, error)
}

// OUEstimator fits a mean-reversion model to each spread over the trailing
// test window and reports half-life and mean-crossover outcome, in pair order.
type OUEstimator interface {
	RunOUTests(ctx context.Context, spreads *m.Panel, pairs []m.Pair, window, minCrossoversPerYear int) ([]m.OUFitResult, error)
}

// EngleGrangerTester is the default cointegration tester: an OLS regression of
// the dependent price on the independent one gives the hedge ratio, and an
// augmented Dickey-Fuller test on the regression residuals gives the p-value
// via the MacKinnon approximate surface for the two-variable case.
type EngleGrangerTester struct {
	Workers int
}

func (t *EngleGrangerTester) RunCointegrationTests(ctx context.Context, prices *m.Panel, pairs []m.Pair) ([]m.CointegrationResult, error) {
	results := make([]m.CointegrationResult, len(pairs))

	err := runPairJobs(ctx, t.Workers, len(pairs), func(i int) error {
		dep, err := prices.Column(pairs[i].Dependent)
		if err != nil {
			return fmt.Errorf("cointegration test for %s: %w", pairs[i].Key(), err)
		}
		ind, err := prices.Column(pairs[i].Independent)
		if err != nil {
			return fmt.Errorf("cointegration test for %s: %w", pairs[i].Key(), err)
		}

		pvalue, ratio := engleGranger(dep, ind)
		results[i] = m.CointegrationResult{
			Pair:       pairs[i],
			PValue:     pvalue,
			HedgeRatio: ratio,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

func engleGranger(dep, ind []float64) (pvalue, hedgeRatio float64) {
	alpha, beta := stat.LinearRegression(ind, dep, nil, false)

	residuals := make([]float64, len(dep))
	for i := range dep {
		residuals[i] = dep[i] - (alpha + beta*ind[i])
	}

	tau := adfStatistic(residuals)
	return mackinnonPValue(tau), beta
}

// adfStatistic runs a lag-1 augmented Dickey-Fuller regression without a
// constant (the residuals already come out of an intercepted regression):
// de_t = gamma*e_{t-1} + delta*de_{t-1}, returning the t statistic on gamma.
func adfStatistic(e []float64) float64 {
	n := len(e)
	if n < 4 {
		return 0
	}

	de := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		de[i] = e[i+1] - e[i]
	}

	// y = de[1:], x1 = level lag, x2 = lagged difference
	nObs := n - 2
	var x11, x12, x22, x1y, x2y float64
	for i := 0; i < nObs; i++ {
		x1 := e[i+1]
		x2 := de[i]
		y := de[i+1]
		x11 += x1 * x1
		x12 += x1 * x2
		x22 += x2 * x2
		x1y += x1 * y
		x2y += x2 * y
	}

	det := x11*x22 - x12*x12
	if det == 0 {
		return 0
	}
	gamma := (x22*x1y - x12*x2y) / det
	delta := (x11*x2y - x12*x1y) / det

	var rss float64
	for i := 0; i < nObs; i++ {
		r := de[i+1] - gamma*e[i+1] - delta*de[i]
		rss += r * r
	}

	dof := float64(nObs - 2)
	if dof <= 0 {
		return 0
	}
	sigma2 := rss / dof
	seGamma := math.Sqrt(sigma2 * x22 / det)
	if seGamma == 0 {
		return math.Inf(-1)
	}

	return gamma / seGamma
}

// MacKinnon (2010) asymptotic critical values for the Engle-Granger residual
// test, two variables, constant in the cointegrating regression.
var egTauSurface = []struct{ tau, p float64 }{
	{-3.896, 0.01},
	{-3.336, 0.05},
	{-3.044, 0.10},
}

// mackinnonPValue interpolates log(p) linearly in tau over the critical value
// surface and extrapolates with the edge slopes, clamped to [1e-4, 0.99].
func mackinnonPValue(tau float64) float64 {
	s := egTauSurface

	var logp float64
	switch {
	case tau <= s[0].tau:
		slope := (math.Log(s[1].p) - math.Log(s[0].p)) / (s[1].tau - s[0].tau)
		logp = math.Log(s[0].p) + slope*(tau-s[0].tau)
	case tau >= s[len(s)-1].tau:
		last, prev := s[len(s)-1], s[len(s)-2]
		slope := (math.Log(last.p) - math.Log(prev.p)) / (last.tau - prev.tau)
		logp = math.Log(last.p) + slope*(tau-last.tau)
	default:
		for k := 0; k < len(s)-1; k++ {
			if tau >= s[k].tau && tau <= s[k+1].tau {
				frac := (tau - s[k].tau) / (s[k+1].tau - s[k].tau)
				logp = math.Log(s[k].p) + frac*(math.Log(s[k+1].p)-math.Log(s[k].p))
				break
			}
		}
	}

	p := math.Exp(logp)
	return math.Min(0.99, math.Max(1e-4, p))
}

// AROneEstimator is the default OU estimator. The spread over the trailing
// window is fit as an AR(1) in differences, ds = a + b*s_lag, so the
// mean-reversion rate is theta = -log(1+b) and the half-life log(2)/theta.
// A crossover is a strict sign change of the window-demeaned spread between
// consecutive observations.
type AROneEstimator struct {
	Workers int
}

func (t *AROneEstimator) RunOUTests(ctx context.Context, spreads *m.Panel, pairs []m.Pair, window, minCrossoversPerYear int) ([]m.OUFitResult, error) {
	results := make([]m.OUFitResult, len(pairs))

	err := runPairJobs(ctx, t.Workers, len(pairs), func(i int) error {
		spread, err := spreads.Column(pairs[i].Key())
		if err != nil {
			return fmt.Errorf("ou fit for %s: %w", pairs[i].Key(), err)
		}

		if window > 0 && len(spread) > window {
			spread = spread[len(spread)-window:]
		}

		halfLife := ouHalfLife(spread)
		crossovers := countMeanCrossovers(spread)
		required := float64(minCrossoversPerYear) * float64(len(spread)) / float64(m.Daily)

		results[i] = m.OUFitResult{
			Pair:          pairs[i],
			HalfLife:      halfLife,
			Crossovers:    crossovers,
			CrossoverPass: float64(crossovers) >= required,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

func ouHalfLife(spread []float64) float64 {
	if len(spread) < 3 {
		return math.Inf(1)
	}

	lag := spread[:len(spread)-1]
	diff := make([]float64, len(spread)-1)
	for i := range diff {
		diff[i] = spread[i+1] - spread[i]
	}

	_, b := stat.LinearRegression(lag, diff, nil, false)
	if b >= 0 {
		return math.Inf(1) // not reverting at all
	}
	if 1+b <= 0 {
		return 0 // overshoots the mean within a single step
	}

	return -math.Ln2 / math.Log(1+b)
}

func countMeanCrossovers(spread []float64) int {
	mean := stat.Mean(spread, nil)

	count := 0
	lastSign := 0
	for _, v := range spread {
		sign := 0
		if v > mean {
			sign = 1
		} else if v < mean {
			sign = -1
		}
		if sign == 0 {
			continue
		}
		if lastSign != 0 && sign != lastSign {
			count++
		}
		lastSign = sign
	}

	return count
}

// runPairJobs fans n independent per-pair computations out over a small
// worker pool; results are written by index so the caller keeps the input
// ordering regardless of scheduling.
func runPairJobs(ctx context.Context, workers, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	if workers <= 0 {
		workers = StatWorkers
	}

	jobs := make(chan int, n)
	for i := range n {
		jobs <- i
	}
	close(jobs)

	g, ctx := errgroup.WithContext(ctx)
	for range ex.Min(workers, n) {
		g.Go(func() error {
			for i := range jobs {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}
