package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "chesscoach/internal/domain/analysis"
	errs "chesscoach/internal/errors"
)

// Ten plies of a Ruy Lopez.
const ruyLopezPGN = "1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 4. Ba4 Nf6 5. O-O Be7"

func TestAnalyzeGame_IntervalSampling(t *testing.T) {
	engine := &stubEngine{result: domain.EvaluationResult{BestMove: "d2d4"}}
	pool := &stubPool{engine: engine}
	a := newTestAnalyzer(pool)

	report, err := a.AnalyzeGame(context.Background(), domain.GameRequest{
		PGN:             ruyLopezPGN,
		AnalyzeInterval: 3,
	})
	require.NoError(t, err)

	require.Equal(t, 3, report.TotalAnalyzed)
	require.Len(t, report.Entries, 3)

	assert.Equal(t, 3, report.Entries[0].Ply)
	assert.Equal(t, 6, report.Entries[1].Ply)
	assert.Equal(t, 9, report.Entries[2].Ply)

	assert.Equal(t, "white", report.Entries[0].Color)
	assert.Equal(t, "black", report.Entries[1].Color)
	assert.Equal(t, "white", report.Entries[2].Color)

	assert.Equal(t, 2, report.Entries[0].MoveNumber)
	assert.Equal(t, 3, report.Entries[1].MoveNumber)
	assert.Equal(t, 5, report.Entries[2].MoveNumber)

	assert.Equal(t, "a7a6", report.Entries[1].MoveUCI)
	assert.Equal(t, 3, engine.calls, "skipped plies must not reach the engine")
}

func TestAnalyzeGame_EveryPly(t *testing.T) {
	engine := &stubEngine{result: domain.EvaluationResult{BestMove: "d2d4"}}
	pool := &stubPool{engine: engine}
	a := newTestAnalyzer(pool)

	report, err := a.AnalyzeGame(context.Background(), domain.GameRequest{
		PGN:             ruyLopezPGN,
		AnalyzeInterval: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, report.TotalAnalyzed)
	assert.Equal(t, 10, engine.calls)
}

func TestAnalyzeGame_SingleHandleForWholeGame(t *testing.T) {
	engine := &stubEngine{result: domain.EvaluationResult{BestMove: "d2d4"}}
	pool := &stubPool{engine: engine}
	a := newTestAnalyzer(pool)

	_, err := a.AnalyzeGame(context.Background(), domain.GameRequest{
		PGN:             ruyLopezPGN,
		AnalyzeInterval: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, pool.acquires)
	assert.Equal(t, 1, pool.releases)
}

func TestAnalyzeGame_InvalidInterval(t *testing.T) {
	pool := &stubPool{engine: &stubEngine{}}
	a := newTestAnalyzer(pool)

	for _, interval := range []int{-1, MaxAnalyzeInterval + 1} {
		_, err := a.AnalyzeGame(context.Background(), domain.GameRequest{
			PGN:             ruyLopezPGN,
			AnalyzeInterval: interval,
		})
		assert.ErrorIs(t, err, errs.ErrInvalidParameter, "interval %d", interval)
	}
	assert.Zero(t, pool.acquires)
}

func TestAnalyzeGame_MalformedPgn(t *testing.T) {
	pool := &stubPool{engine: &stubEngine{}}
	a := newTestAnalyzer(pool)

	_, err := a.AnalyzeGame(context.Background(), domain.GameRequest{PGN: "not a game"})
	assert.ErrorIs(t, err, errs.ErrInvalidPgn)
	assert.Equal(t, pool.acquires, pool.releases, "handle must not leak on parse failure")
}

func TestAnalyzeGame_EngineFailureCarriesPly(t *testing.T) {
	cause := errors.New("engine gone")
	engine := &stubEngine{err: cause}
	pool := &stubPool{engine: engine}
	a := newTestAnalyzer(pool)

	_, err := a.AnalyzeGame(context.Background(), domain.GameRequest{
		PGN:             ruyLopezPGN,
		AnalyzeInterval: 3,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrGameAnalysisFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ply 3")
	assert.Equal(t, 1, engine.calls, "walk must abort on the first failure")
	assert.Equal(t, 1, pool.releases, "handle must be released on failure")
}

func TestAnalyzeGame_CancellationBetweenPlies(t *testing.T) {
	engine := &stubEngine{result: domain.EvaluationResult{BestMove: "d2d4"}}
	pool := &stubPool{engine: engine}
	a := newTestAnalyzer(pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.AnalyzeGame(ctx, domain.GameRequest{
		PGN:             ruyLopezPGN,
		AnalyzeInterval: 1,
	})

	assert.ErrorIs(t, err, errs.ErrGameAnalysisFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, engine.calls)
	assert.Equal(t, 1, pool.releases)
}

func TestAnalyzeGameFunc_StreamsInPlyOrder(t *testing.T) {
	engine := &stubEngine{result: domain.EvaluationResult{BestMove: "d2d4"}}
	pool := &stubPool{engine: engine}
	a := newTestAnalyzer(pool)

	var plies []int
	err := a.AnalyzeGameFunc(context.Background(), domain.GameRequest{
		PGN:             ruyLopezPGN,
		AnalyzeInterval: 2,
	}, func(entry domain.ReportEntry) error {
		plies = append(plies, entry.Ply)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4, 6, 8, 10}, plies)
}

func TestAnalyzeGameFunc_ConsumerErrorAborts(t *testing.T) {
	engine := &stubEngine{result: domain.EvaluationResult{BestMove: "d2d4"}}
	pool := &stubPool{engine: engine}
	a := newTestAnalyzer(pool)

	sentinel := errors.New("client went away")
	err := a.AnalyzeGameFunc(context.Background(), domain.GameRequest{
		PGN:             ruyLopezPGN,
		AnalyzeInterval: 1,
	}, func(entry domain.ReportEntry) error {
		if entry.Ply == 4 {
			return sentinel
		}
		return nil
	})

	assert.Equal(t, sentinel, err)
	assert.Equal(t, 4, engine.calls)
	assert.Equal(t, 1, pool.releases)
}
