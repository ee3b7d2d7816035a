package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	m "pairscan/models"
)

func (pg *Postgres) InsertSelectionRunHistory(ctx context.Context, run m.SelectionRunHistory) (int32, error) {
	query := `
		INSERT INTO selection_run_history
			(num_features, min_samples, pvalue_threshold, hurst_threshold,
			 min_crossovers_per_year, test_window, universe_size, started_at)
		VALUES
			(@num_features, @min_samples, @pvalue_threshold, @hurst_threshold,
			 @min_crossovers_per_year, @test_window, @universe_size, now())
		RETURNING id`

	args := pgx.NamedArgs{
		"num_features":            run.NumFeatures,
		"min_samples":             run.MinSamples,
		"pvalue_threshold":        run.PValueThreshold,
		"hurst_threshold":         run.HurstThreshold,
		"min_crossovers_per_year": run.MinCrossoversPerYear,
		"test_window":             run.TestWindow,
		"universe_size":           run.UniverseSize,
	}

	var runId int32
	if err := pg.db.QueryRow(ctx, query, args).Scan(&runId); err != nil {
		return 0, fmt.Errorf("error inserting selection run history: %w", err)
	}

	return runId, nil
}

func (pg *Postgres) UpdateSelectionRunAsFailure(ctx context.Context, runId int32, errorMessage string) error {
	cleanErrorMessage := strings.TrimSpace(errorMessage)
	if cleanErrorMessage == "" {
		return fmt.Errorf("error message is required if selection run is failing, occurred in %d", runId)
	}

	return pg.updateSelectionRun(ctx, pgx.NamedArgs{
		"id":            runId,
		"error_message": cleanErrorMessage,
	})
}

func (pg *Postgres) UpdateSelectionRunAsSuccess(ctx context.Context, runId int32) error {
	return pg.updateSelectionRun(ctx, pgx.NamedArgs{
		"id":            runId,
		"error_message": nil,
	})
}

func (pg *Postgres) updateSelectionRun(ctx context.Context, args pgx.NamedArgs) error {
	query := `
		UPDATE selection_run_history
		SET finished_at = now(),
		    error_message = @error_message
		WHERE id = @id`

	if _, err := pg.db.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("error updating selection run: %w", err)
	}
	return nil
}
