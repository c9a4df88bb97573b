package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "chesscoach/internal/domain/rating"
	errs "chesscoach/internal/errors"
)

func newTestEngine() *Engine {
	return NewEngine(32, 1200)
}

func TestExpectedScore_EqualRatings(t *testing.T) {
	e := newTestEngine()

	for _, r := range []int{0, 800, 1200, 1500, 2400} {
		assert.InDelta(t, 0.5, e.ExpectedScore(r, r), 1e-9, "rating %d", r)
	}
}

func TestExpectedScore_Symmetry(t *testing.T) {
	e := newTestEngine()

	pairs := [][2]int{
		{1200, 1200},
		{1500, 1300},
		{800, 2400},
		{0, 3000},
		{1999, 2000},
	}
	for _, p := range pairs {
		sum := e.ExpectedScore(p[0], p[1]) + e.ExpectedScore(p[1], p[0])
		assert.InDelta(t, 1.0, sum, 1e-9, "ratings %v", p)
	}
}

func TestExpectedScore_FavorsHigherRating(t *testing.T) {
	e := newTestEngine()

	assert.Greater(t, e.ExpectedScore(1600, 1400), 0.5)
	assert.Less(t, e.ExpectedScore(1400, 1600), 0.5)
}

func TestCalculateNewRatings_ZeroSum(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		player, opponent int
		score            float64
	}{
		{1200, 1200, 1},
		{1200, 1200, 0},
		{1200, 1200, 0.5},
		{1500, 1300, 1},
		{1300, 1500, 0},
		{1000, 2000, 0.5},
		{2000, 1000, 1},
	}

	for _, c := range cases {
		newPlayer, newOpponent, err := e.CalculateNewRatings(c.player, c.opponent, c.score)
		require.NoError(t, err)

		deltaPlayer := newPlayer - c.player
		deltaOpponent := newOpponent - c.opponent
		// Pure redistribution up to integer rounding.
		assert.InDelta(t, 0, deltaPlayer+deltaOpponent, 1.0,
			"player %d opponent %d score %v", c.player, c.opponent, c.score)
	}
}

func TestCalculateNewRatings_KnownValues(t *testing.T) {
	e := newTestEngine()

	// Equal ratings, win: expected 0.5, change = 32*0.5 = 16.
	newPlayer, newOpponent, err := e.CalculateNewRatings(1200, 1200, 1)
	require.NoError(t, err)
	assert.Equal(t, 1216, newPlayer)
	assert.Equal(t, 1184, newOpponent)

	// Draw between equals changes nothing.
	newPlayer, newOpponent, err = e.CalculateNewRatings(1500, 1500, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1500, newPlayer)
	assert.Equal(t, 1500, newOpponent)
}

func TestCalculateNewRatings_InvalidInput(t *testing.T) {
	e := newTestEngine()

	_, _, err := e.CalculateNewRatings(-1, 1200, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidRatingInput)

	_, _, err = e.CalculateNewRatings(1200, -5, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidRatingInput)

	_, _, err = e.CalculateNewRatings(1200, 1200, 1.5)
	assert.ErrorIs(t, err, errs.ErrInvalidRatingInput)

	_, _, err = e.CalculateNewRatings(1200, 1200, -0.5)
	assert.ErrorIs(t, err, errs.ErrInvalidRatingInput)
}

func TestCalculatePerformanceRating_NoGames(t *testing.T) {
	e := newTestEngine()

	got, err := e.CalculatePerformanceRating(nil, DefaultInitialGuess)
	require.NoError(t, err)
	assert.Equal(t, 1200, got)
}

func TestCalculatePerformanceRating_ClosedForm(t *testing.T) {
	e := newTestEngine()

	// Single win against 1500: 1500 + 400*(1-0.5) = 1700.
	got, err := e.CalculatePerformanceRating([]domain.Record{
		{OpponentRating: 1500, Score: 1},
	}, DefaultInitialGuess)
	require.NoError(t, err)
	assert.Equal(t, 1700, got)

	// Single loss mirrors it: 1500 - 200 = 1300.
	got, err = e.CalculatePerformanceRating([]domain.Record{
		{OpponentRating: 1500, Score: 0},
	}, DefaultInitialGuess)
	require.NoError(t, err)
	assert.Equal(t, 1300, got)

	// Four draws against mixed opposition: average opponent rating.
	got, err = e.CalculatePerformanceRating([]domain.Record{
		{OpponentRating: 1400, Score: 0.5},
		{OpponentRating: 1450, Score: 0.5},
		{OpponentRating: 1550, Score: 0.5},
		{OpponentRating: 1600, Score: 0.5},
	}, DefaultInitialGuess)
	require.NoError(t, err)
	assert.Equal(t, 1500, got)
}

func TestCalculatePerformanceRating_IterativeStableFixedPoint(t *testing.T) {
	e := newTestEngine()

	// Ten draws against equal-rated opponents: no information to move the
	// trial rating off 1500.
	results := make([]domain.Record, 10)
	for i := range results {
		results[i] = domain.Record{OpponentRating: 1500, Score: 0.5}
	}

	got, err := e.CalculatePerformanceRating(results, 1500)
	require.NoError(t, err)
	assert.Equal(t, 1500, got)
}

func TestCalculatePerformanceRating_IterativeMovesTowardResults(t *testing.T) {
	e := newTestEngine()

	wins := make([]domain.Record, 6)
	for i := range wins {
		wins[i] = domain.Record{OpponentRating: 1500, Score: 1}
	}
	losses := make([]domain.Record, 6)
	for i := range losses {
		losses[i] = domain.Record{OpponentRating: 1500, Score: 0}
	}

	perfWins, err := e.CalculatePerformanceRating(wins, DefaultInitialGuess)
	require.NoError(t, err)
	perfLosses, err := e.CalculatePerformanceRating(losses, DefaultInitialGuess)
	require.NoError(t, err)

	assert.Greater(t, perfWins, 1500)
	assert.Less(t, perfLosses, 1500)
}

func TestCalculatePerformanceRating_Deterministic(t *testing.T) {
	e := newTestEngine()

	results := []domain.Record{
		{OpponentRating: 1450, Score: 1},
		{OpponentRating: 1520, Score: 0.5},
		{OpponentRating: 1610, Score: 0},
		{OpponentRating: 1380, Score: 1},
		{OpponentRating: 1490, Score: 0.5},
		{OpponentRating: 1550, Score: 1},
	}

	first, err := e.CalculatePerformanceRating(results, DefaultInitialGuess)
	require.NoError(t, err)
	second, err := e.CalculatePerformanceRating(results, DefaultInitialGuess)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculatePerformanceRating_InvalidInput(t *testing.T) {
	e := newTestEngine()

	_, err := e.CalculatePerformanceRating([]domain.Record{
		{OpponentRating: -100, Score: 0.5},
	}, DefaultInitialGuess)
	assert.ErrorIs(t, err, errs.ErrInvalidRatingInput)

	_, err = e.CalculatePerformanceRating([]domain.Record{
		{OpponentRating: 1500, Score: 2},
	}, DefaultInitialGuess)
	assert.ErrorIs(t, err, errs.ErrInvalidRatingInput)
}

func TestCalculateRatingDeviation_FewGames(t *testing.T) {
	e := newTestEngine()

	for n := 0; n < 5; n++ {
		results := make([]domain.Record, n)
		for i := range results {
			results[i] = domain.Record{OpponentRating: 1500, Score: 0.5}
		}

		got, err := e.CalculateRatingDeviation(results, 1500)
		require.NoError(t, err)
		assert.Equal(t, 200.0, got, "with %d games", n)
	}
}

func TestCalculateRatingDeviation_PerfectPrediction(t *testing.T) {
	e := newTestEngine()

	// Draws against equal opposition predict exactly: zero deviation.
	results := make([]domain.Record, 8)
	for i := range results {
		results[i] = domain.Record{OpponentRating: 1500, Score: 0.5}
	}

	got, err := e.CalculateRatingDeviation(results, 1500)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestCalculateRatingDeviation_SurprisingResults(t *testing.T) {
	e := newTestEngine()

	// Wins against equal opposition are half-surprising each game:
	// error 0.5 per game, RMS 0.5, scaled by 400 = 200.
	results := make([]domain.Record, 6)
	for i := range results {
		results[i] = domain.Record{OpponentRating: 1500, Score: 1}
	}

	got, err := e.CalculateRatingDeviation(results, 1500)
	require.NoError(t, err)
	assert.InDelta(t, 200.0, got, 1e-9)
}

func TestCalculateRatingDeviation_WindowLimit(t *testing.T) {
	e := newTestEngine()

	// Twelve results ordered most recent first: the ten recent draws are
	// inside the window, the two old losses beyond it must not count.
	results := make([]domain.Record, 0, 12)
	for i := 0; i < 10; i++ {
		results = append(results, domain.Record{OpponentRating: 1500, Score: 0.5})
	}
	results = append(results,
		domain.Record{OpponentRating: 1500, Score: 0},
		domain.Record{OpponentRating: 1500, Score: 0},
	)

	got, err := e.CalculateRatingDeviation(results, 1500)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestCalculateRatingDeviation_InvalidInput(t *testing.T) {
	e := newTestEngine()

	_, err := e.CalculateRatingDeviation([]domain.Record{{OpponentRating: 1500, Score: 0.5}}, -1)
	assert.ErrorIs(t, err, errs.ErrInvalidRatingInput)
}
