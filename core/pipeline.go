package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	m "pairscan/models"
)

// Pipeline sequences the full selection: returns, feature reduction,
// clustering, candidate generation and the three-stage filtering cascade.
// Each stage writes its artifact onto the pipeline and later stages refuse to
// run while their prerequisite artifact is missing, so a caller can either
// Run end to end or step through and inspect intermediates. Artifacts are
// never mutated once written.
type Pipeline struct {
	Tester    CointegrationTester
	Estimator OUEstimator
	Params    m.SelectionParams

	Prices        *m.Panel
	Returns       *m.Panel
	Features      *m.FeatureMatrix
	Assignment    *m.ClusterAssignment
	Combinations  []m.Pair
	CointResults  []m.CointegrationResult
	CointPairs    []m.Pair
	Spreads       *m.Panel
	HurstPairs    []m.Pair
	HalfLifePairs []m.Pair
	FinalPairs    []m.Pair

	finalized bool
}

func NewPipeline(prices *m.Panel, params m.SelectionParams) *Pipeline {
	return &Pipeline{
		Tester:    &EngleGrangerTester{Workers: StatWorkers},
		Estimator: &AROneEstimator{Workers: StatWorkers},
		Params:    params,
		Prices:    prices,
	}
}

// Run executes every stage in order and returns the final pair list.
func (p *Pipeline) Run(ctx context.Context) ([]m.Pair, error) {
	if err := p.ComputeReturns(); err != nil {
		return nil, err
	}
	if err := p.ReduceFeatures(); err != nil {
		return nil, err
	}
	if err := p.Cluster(); err != nil {
		return nil, err
	}
	if err := p.GenerateCandidates(); err != nil {
		return nil, err
	}
	if err := p.FilterCointegrated(ctx); err != nil {
		return nil, err
	}
	if err := p.FilterHurst(); err != nil {
		return nil, err
	}
	if err := p.FilterMeanReversion(ctx); err != nil {
		return nil, err
	}

	return p.FinalPairs, nil
}

func (p *Pipeline) ComputeReturns() error {
	if p.Prices.IsEmpty() {
		return fmt.Errorf("pipeline: %w: no price panel supplied", ErrInvalidInput)
	}

	returns, err := ComputeReturns(p.Prices)
	if err != nil {
		return err
	}
	p.Returns = returns

	log.Debug().Int("rows", returns.NumRows()).Int("assets", returns.NumColumns()).Msg("return panel computed")
	return nil
}

func (p *Pipeline) ReduceFeatures() error {
	if p.Returns == nil {
		return fmt.Errorf("pipeline: %w: returns missing, run ComputeReturns first", ErrNotReady)
	}

	features, err := ReduceFeatures(p.Returns, p.Params.NumFeatures)
	if err != nil {
		return err
	}
	p.Features = features

	log.Debug().Int("assets", features.NumAssets()).Int("components", features.NumFeatures()).Msg("feature vectors reduced")
	return nil
}

func (p *Pipeline) Cluster() error {
	if p.Features == nil {
		return fmt.Errorf("pipeline: %w: feature vectors missing, run ReduceFeatures first", ErrNotReady)
	}

	assignment, err := Cluster(p.Features, ClusterOptions{
		MinSamples: p.Params.MinSamples,
		Epsilon:    p.Params.Epsilon,
	})
	if err != nil {
		return err
	}
	p.Assignment = assignment

	log.Debug().Int("clusters", len(assignment.ClusterIDs())).Msg("assets clustered")
	return nil
}

func (p *Pipeline) GenerateCandidates() error {
	if p.Assignment == nil {
		return fmt.Errorf("pipeline: %w: cluster assignment missing, run Cluster first", ErrNotReady)
	}

	pairs, err := GenerateCandidates(p.Assignment)
	if err != nil {
		return err
	}
	p.Combinations = pairs

	log.Debug().Int("combinations", len(pairs)).Msg("candidate pairs generated")
	return nil
}

func (p *Pipeline) FilterCointegrated(ctx context.Context) error {
	if p.Combinations == nil {
		return fmt.Errorf("pipeline: %w: candidate pairs missing, run GenerateCandidates first", ErrNotReady)
	}

	results, pairs, err := FilterCointegrated(ctx, p.Tester, p.Prices, p.Combinations, p.Params.PValueThreshold)
	if err != nil {
		return err
	}
	p.CointResults = results
	p.CointPairs = pairs

	log.Debug().Int("survivors", len(pairs)).Msg("cointegration filter applied")
	return nil
}

func (p *Pipeline) FilterHurst() error {
	if p.CointResults == nil {
		return fmt.Errorf("pipeline: %w: cointegration results missing, run FilterCointegrated first", ErrNotReady)
	}

	spreads, pairs, err := FilterHurst(p.Prices, p.CointResults, p.Params.HurstThreshold, p.Params.MaxLag)
	if err != nil {
		return err
	}
	p.Spreads = spreads
	p.HurstPairs = pairs

	log.Debug().Int("survivors", len(pairs)).Msg("hurst filter applied")
	return nil
}

func (p *Pipeline) FilterMeanReversion(ctx context.Context) error {
	if p.Spreads == nil {
		return fmt.Errorf("pipeline: %w: spreads missing, run FilterHurst first", ErrNotReady)
	}

	halfLifePass, finalPairs, err := FilterMeanReversion(ctx, p.Estimator, p.Spreads, p.HurstPairs, p.Params.TestWindow, p.Params.MinCrossoversPerYear)
	if err != nil {
		return err
	}
	p.HalfLifePairs = halfLifePass
	p.FinalPairs = finalPairs
	p.finalized = true

	log.Debug().Int("halfLifePass", len(halfLifePass)).Int("final", len(finalPairs)).Msg("mean reversion filter applied")
	return nil
}
