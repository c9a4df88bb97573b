package rating

import (
	"fmt"
	"math"

	domain "chesscoach/internal/domain/rating"
	errs "chesscoach/internal/errors"
)

// Behavioral contracts of the performance-rating fixed point. The iteration
// cap and the convergence threshold are part of the rating semantics, not
// tuning knobs.
const (
	MaxIterations        = 20
	ConvergenceThreshold = 1.0

	// DefaultInitialGuess seeds the iterative search.
	DefaultInitialGuess = 1500

	// closedFormMaxGames is the largest result count handled by the direct
	// linear estimate; iteration over so few games diverges easily.
	closedFormMaxGames = 4

	// deviationMinGames results are needed before the deviation is
	// estimated from evidence; below that HighDeviation is returned.
	deviationMinGames = 5

	// deviationWindow caps how many recent results feed the deviation.
	deviationWindow = 10

	// HighDeviation is the fixed uncertainty reported when there is too
	// little evidence to estimate one.
	HighDeviation = 200.0
)

// Engine is the pure rating calculator. It holds no cross-call state, does
// no I/O and is safe for concurrent use; outputs are deterministic for
// identical inputs.
type Engine struct {
	kFactor       float64
	defaultRating int
}

func NewEngine(kFactor, defaultRating int) *Engine {
	return &Engine{
		kFactor:       float64(kFactor),
		defaultRating: defaultRating,
	}
}

// ExpectedScore is the logistic expectation 1/(1+10^((b-a)/400)).
// ExpectedScore(a,b)+ExpectedScore(b,a) == 1 for all a, b.
func (e *Engine) ExpectedScore(ratingA, ratingB int) float64 {
	return expected(float64(ratingA), float64(ratingB))
}

func expected(ratingA, ratingB float64) float64 {
	return 1 / (1 + math.Pow(10, (ratingB-ratingA)/400))
}

// CalculateNewRatings applies one game outcome to both players. The two
// deltas are equal in magnitude and opposite in sign, so the rating pool of
// the pair is preserved up to rounding.
func (e *Engine) CalculateNewRatings(playerRating, opponentRating int, score float64) (newPlayer, newOpponent int, err error) {
	if playerRating < 0 || opponentRating < 0 {
		return 0, 0, fmt.Errorf("%w: negative rating", errs.ErrInvalidRatingInput)
	}
	if score < 0 || score > 1 {
		return 0, 0, fmt.Errorf("%w: score %v not in [0,1]", errs.ErrInvalidRatingInput, score)
	}

	exp := e.ExpectedScore(playerRating, opponentRating)
	change := e.kFactor * (score - exp)

	newPlayer = int(math.Round(float64(playerRating) + change))
	newOpponent = int(math.Round(float64(opponentRating) - change))
	return newPlayer, newOpponent, nil
}

// CalculatePerformanceRating summarizes a set of results as one rating.
//
// No results returns the default rating. Up to four results use a direct
// linear estimate: average opponent rating plus 400*(averageScore-0.5).
// More results run a fixed-point search from initialGuess: each iteration
// compares the sum of expected scores at the trial rating against the sum of
// actual scores and nudges the trial by kFactor times the difference,
// stopping once the step drops below ConvergenceThreshold or after
// MaxIterations regardless.
func (e *Engine) CalculatePerformanceRating(results []domain.Record, initialGuess int) (int, error) {
	if err := validateRecords(results); err != nil {
		return 0, err
	}

	if len(results) == 0 {
		return e.defaultRating, nil
	}

	if len(results) <= closedFormMaxGames {
		totalRating := 0
		totalScore := 0.0
		for _, r := range results {
			totalRating += r.OpponentRating
			totalScore += r.Score
		}
		n := float64(len(results))
		estimate := float64(totalRating)/n + 400*(totalScore/n-0.5)
		return int(math.Round(estimate)), nil
	}

	trial := float64(initialGuess)
	for i := 0; i < MaxIterations; i++ {
		sumExpected := 0.0
		sumActual := 0.0
		for _, r := range results {
			sumExpected += expected(trial, float64(r.OpponentRating))
			sumActual += r.Score
		}

		next := trial + e.kFactor*(sumActual-sumExpected)
		if math.Abs(next-trial) < ConvergenceThreshold {
			break
		}
		trial = next
	}

	return int(math.Round(trial)), nil
}

// CalculateRatingDeviation estimates the uncertainty of currentRating from
// recent results, ordered most recent first. Fewer than five results return
// the fixed HighDeviation; otherwise the root mean squared prediction error
// over at most the ten most recent results is scaled by 400 into
// rating-point space.
func (e *Engine) CalculateRatingDeviation(results []domain.Record, currentRating int) (float64, error) {
	if err := validateRecords(results); err != nil {
		return 0, err
	}
	if currentRating < 0 {
		return 0, fmt.Errorf("%w: negative rating", errs.ErrInvalidRatingInput)
	}

	if len(results) < deviationMinGames {
		return HighDeviation, nil
	}

	window := results
	if len(window) > deviationWindow {
		window = window[:deviationWindow]
	}

	sumSquaredError := 0.0
	for _, r := range window {
		exp := e.ExpectedScore(currentRating, r.OpponentRating)
		err := r.Score - exp
		sumSquaredError += err * err
	}

	meanSquaredError := sumSquaredError / float64(len(window))
	return math.Sqrt(meanSquaredError) * 400, nil
}

// DefaultRating returns the rating assigned when no information exists.
func (e *Engine) DefaultRating() int {
	return e.defaultRating
}

func validateRecords(results []domain.Record) error {
	for i, r := range results {
		if r.OpponentRating < 0 {
			return fmt.Errorf("%w: result %d has negative opponent rating", errs.ErrInvalidRatingInput, i)
		}
		if r.Score < 0 || r.Score > 1 {
			return fmt.Errorf("%w: result %d has score %v outside [0,1]", errs.ErrInvalidRatingInput, i, r.Score)
		}
	}
	return nil
}
