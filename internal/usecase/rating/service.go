package rating

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domain "chesscoach/internal/domain/rating"
	"chesscoach/internal/domain/user"
)

// performanceWindow caps how many recent results feed a performance summary.
const performanceWindow = 20

// Store is the persisted side of the rating subsystem. The pure Engine
// never touches it; only this service reads and writes ratings.
type Store interface {
	GetUser(ctx context.Context, userID string) (user.User, error)
	UpdateUserRating(ctx context.Context, userID string, newRating int, score float64) error
	SaveGameResult(ctx context.Context, result domain.GameResult) (string, error)
	RecentResults(ctx context.Context, userID string, limit int) ([]domain.Record, error)
}

type Service struct {
	engine *Engine
	store  Store
	log    *zap.SugaredLogger
}

func NewService(engine *Engine, store Store, log *zap.SugaredLogger) *Service {
	return &Service{
		engine: engine,
		store:  store,
		log:    log,
	}
}

// RecordOutcome carries both players' ratings after one recorded game.
type RecordOutcome struct {
	UserRating     int `json:"user_rating"`
	OpponentRating int `json:"opponent_rating"`
}

// RecordGameResult applies one finished game: both ratings are updated with
// the paired Elo adjustment and a result document is stored for each side,
// so either player's history window sees the game.
func (s *Service) RecordGameResult(ctx context.Context, userID, opponentID string, score float64) (RecordOutcome, error) {
	player, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return RecordOutcome{}, err
	}
	opponent, err := s.store.GetUser(ctx, opponentID)
	if err != nil {
		return RecordOutcome{}, err
	}

	newPlayer, newOpponent, err := s.engine.CalculateNewRatings(player.Rating, opponent.Rating, score)
	if err != nil {
		return RecordOutcome{}, err
	}

	_, err = s.store.SaveGameResult(ctx, domain.GameResult{
		UserID:         userID,
		OpponentID:     opponentID,
		UserRating:     player.Rating,
		OpponentRating: opponent.Rating,
		Score:          score,
	})
	if err != nil {
		return RecordOutcome{}, fmt.Errorf("record result for %s: %w", userID, err)
	}

	_, err = s.store.SaveGameResult(ctx, domain.GameResult{
		UserID:         opponentID,
		OpponentID:     userID,
		UserRating:     opponent.Rating,
		OpponentRating: player.Rating,
		Score:          1 - score,
	})
	if err != nil {
		return RecordOutcome{}, fmt.Errorf("record result for %s: %w", opponentID, err)
	}

	if err := s.store.UpdateUserRating(ctx, userID, newPlayer, score); err != nil {
		return RecordOutcome{}, err
	}
	if err := s.store.UpdateUserRating(ctx, opponentID, newOpponent, 1-score); err != nil {
		return RecordOutcome{}, err
	}

	s.log.Infow("ratings updated",
		"user", userID, "rating", newPlayer,
		"opponent", opponentID, "opponent_rating", newOpponent)

	return RecordOutcome{UserRating: newPlayer, OpponentRating: newOpponent}, nil
}

// PerformanceSummary computes a fresh performance estimate over the user's
// recent results. Nothing is persisted.
func (s *Service) PerformanceSummary(ctx context.Context, userID string) (domain.PerformanceEstimate, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return domain.PerformanceEstimate{}, err
	}

	records, err := s.store.RecentResults(ctx, userID, performanceWindow)
	if err != nil {
		return domain.PerformanceEstimate{}, err
	}

	performance, err := s.engine.CalculatePerformanceRating(records, DefaultInitialGuess)
	if err != nil {
		return domain.PerformanceEstimate{}, err
	}

	deviation, err := s.engine.CalculateRatingDeviation(records, u.Rating)
	if err != nil {
		return domain.PerformanceEstimate{}, err
	}

	return domain.PerformanceEstimate{
		PerformanceRating: performance,
		RatingDeviation:   deviation,
		GamesCounted:      len(records),
	}, nil
}
