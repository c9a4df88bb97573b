package analysis

import (
	"context"
	"fmt"

	domain "chesscoach/internal/domain/analysis"
	errs "chesscoach/internal/errors"
)

// Interval sampling bounds: 1 analyzes every ply, larger values skip plies
// between samples and bound the number of engine calls for a game.
const (
	MinAnalyzeInterval     = 1
	MaxAnalyzeInterval     = 10
	DefaultAnalyzeInterval = 3
)

// AnalyzeGameFunc walks the full game and analyzes every Nth ply, calling fn
// with each report entry in ply order. One engine handle is held for the
// whole game; skipped plies advance the walk but are never sent to the
// engine. Cancellation is honored between plies, not
// mid-engine-call. Any per-ply analysis failure aborts the walk and carries
// the ply index; there is no partial report.
func (a *Analyzer) AnalyzeGameFunc(ctx context.Context, req domain.GameRequest, fn func(domain.ReportEntry) error) error {
	interval := req.AnalyzeInterval
	if interval == 0 {
		interval = DefaultAnalyzeInterval
	}
	if interval < MinAnalyzeInterval || interval > MaxAnalyzeInterval {
		return fmt.Errorf("%w: analyze_interval %d not in [%d,%d]",
			errs.ErrInvalidParameter, interval, MinAnalyzeInterval, MaxAnalyzeInterval)
	}

	params, err := a.ResolveParams(req.Depth, req.MultiPV, nil)
	if err != nil {
		return err
	}

	engine, err := a.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer a.pool.Release(engine)

	counter := 0
	return Walk(req.PGN, func(step Step) error {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: ply %d: %w", errs.ErrGameAnalysisFailed, step.Ply, ctx.Err())
		default:
		}

		counter++
		if counter%interval != 0 {
			return nil
		}

		result, err := engine.Evaluate(ctx, step.FEN, params)
		if err != nil {
			return fmt.Errorf("%w: ply %d: %w", errs.ErrGameAnalysisFailed, step.Ply, err)
		}

		return fn(domain.ReportEntry{
			Ply:        step.Ply,
			MoveNumber: (step.Ply + 1) / 2,
			Color:      colorForPly(step.Ply),
			FEN:        step.FEN,
			MoveUCI:    step.MoveUCI,
			Eval:       result,
		})
	})
}

// AnalyzeGame materializes the full report. Streaming callers (the
// websocket surface) use AnalyzeGameFunc directly.
func (a *Analyzer) AnalyzeGame(ctx context.Context, req domain.GameRequest) (domain.GameAnalysisReport, error) {
	var report domain.GameAnalysisReport

	err := a.AnalyzeGameFunc(ctx, req, func(entry domain.ReportEntry) error {
		report.Entries = append(report.Entries, entry)
		return nil
	})
	if err != nil {
		return domain.GameAnalysisReport{}, err
	}

	report.TotalAnalyzed = len(report.Entries)
	return report, nil
}

// colorForPly derives the mover from ply parity: odd plies belong to the
// side that moved first (White in standard chess).
func colorForPly(ply int) string {
	if ply%2 == 1 {
		return "white"
	}
	return "black"
}
