package core

import (
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	m "pairscan/models"
)

// RunSelection loads the requested universe from storage, assembles the price
// panel, records the run, and drives the pipeline end to end.
func (sc *ServiceContext) RunSelection(request m.SelectionRequest) (*m.SelectionResponse, error) {
	start := time.Now()

	if len(request.Symbols) < 2 {
		return nil, fmt.Errorf("run selection: %w: need at least two symbols, got %d", ErrInvalidInput, len(request.Symbols))
	}

	log.Info().Int("symbols", len(request.Symbols)).Msg("received request to run pair selection")

	runId, err := sc.PostgresConnection.InsertSelectionRunHistory(sc.Context, m.SelectionRunHistory{
		NumFeatures:          request.Params.NumFeatures,
		MinSamples:           request.Params.MinSamples,
		PValueThreshold:      request.Params.PValueThreshold,
		HurstThreshold:       request.Params.HurstThreshold,
		MinCrossoversPerYear: request.Params.MinCrossoversPerYear,
		TestWindow:           request.Params.TestWindow,
		UniverseSize:         len(request.Symbols),
	})
	if err != nil {
		log.Error().Err(err).Msg("error inserting selection run history")
		return nil, err
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("assembling price panel")
	panel, err := sc.getPricePanel(request.Symbols)
	if err != nil {
		log.Error().Err(err).Msg("error assembling price panel")
		return sc.markSelectionRunAsFailure(runId, err.Error())
	}

	log.Info().
		Int("rows", panel.NumRows()).
		Int("assets", panel.NumColumns()).
		Dur("elapsed", time.Since(start)).
		Msg("running selection pipeline")

	pipeline := NewPipeline(panel, request.Params)
	finalPairs, err := pipeline.Run(sc.Context)
	if err != nil {
		log.Error().Err(err).Msg("error running selection pipeline")
		return sc.markSelectionRunAsFailure(runId, err.Error())
	}

	if err := sc.PostgresConnection.UpdateSelectionRunAsSuccess(sc.Context, runId); err != nil {
		log.Error().Err(err).Int32("runId", runId).Msg("error updating selection run as success")
		return nil, err
	}

	summary, err := pipeline.Summary()
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("finalPairs", len(finalPairs)).
		Dur("elapsed", time.Since(start)).
		Msg("selection completed")

	return &m.SelectionResponse{
		FinalPairs:    finalPairs,
		HalfLifePairs: pipeline.HalfLifePairs,
		HurstPairs:    pipeline.HurstPairs,
		Cointegrated:  pipeline.CointResults,
		Summary:       summary,
	}, nil
}

func (sc *ServiceContext) markSelectionRunAsFailure(runId int32, errorMessage string) (*m.SelectionResponse, error) {
	if err := sc.PostgresConnection.UpdateSelectionRunAsFailure(sc.Context, runId, errorMessage); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("selection run %d failed: %s", runId, errorMessage)
}

// getPricePanel inner-joins the stored per-symbol histories on timestamp so
// every panel row is complete; assets trade on different calendars and the
// pipeline needs one shared index.
func (sc *ServiceContext) getPricePanel(symbols []string) (*m.Panel, error) {
	prices, err := sc.PostgresConnection.GetDailyPrices(sc.Context, symbols)
	if err != nil {
		return nil, fmt.Errorf("error getting daily prices: %w", err)
	}

	bySymbol := make(map[string]map[int64]float64, len(symbols))
	for _, p := range prices {
		if bySymbol[p.Symbol] == nil {
			bySymbol[p.Symbol] = make(map[int64]float64)
		}
		bySymbol[p.Symbol][p.Timestamp.UTC().Unix()] = p.AdjustedClose
	}

	for _, s := range symbols {
		if len(bySymbol[s]) == 0 {
			return nil, fmt.Errorf("symbol %s has no stored price history", s)
		}
	}

	// timestamps present for every symbol
	var shared []int64
	for ts := range bySymbol[symbols[0]] {
		ok := true
		for _, s := range symbols[1:] {
			if _, found := bySymbol[s][ts]; !found {
				ok = false
				break
			}
		}
		if ok {
			shared = append(shared, ts)
		}
	}
	slices.Sort(shared)

	if len(shared) < 2 {
		return nil, fmt.Errorf("symbols share only %d observation timestamps", len(shared))
	}

	index := make([]time.Time, len(shared))
	for i, ts := range shared {
		index[i] = time.Unix(ts, 0).UTC()
	}

	panel := m.NewPanel(slices.Clone(symbols), index)
	for i, ts := range shared {
		for j, s := range symbols {
			panel.Values[i][j] = bySymbol[s][ts]
		}
	}

	if err := panel.Validate(); err != nil {
		return nil, fmt.Errorf("assembled panel is invalid: %w", err)
	}

	return panel, nil
}
