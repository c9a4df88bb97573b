package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"chesscoach/internal/domain/rating"
	"chesscoach/internal/domain/user"
	errs "chesscoach/internal/errors"
)

const (
	usersCollection   = "users"
	resultsCollection = "results"
)

// RatingStore owns the persisted side of the rating subsystem: user ratings
// and per-game results. The rating math itself never touches this store; it
// only hands windows of results to callers.
type RatingStore struct {
	db  *mongo.Database
	log *zap.SugaredLogger
}

func NewRatingStore(db *mongo.Database, log *zap.SugaredLogger) *RatingStore {
	return &RatingStore{
		db:  db,
		log: log,
	}
}

func (s *RatingStore) GetUser(ctx context.Context, userID string) (user.User, error) {
	var u user.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return user.User{}, errs.ErrUserNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}

func (s *RatingStore) UpdateUserRating(ctx context.Context, userID string, newRating int, score float64) error {
	inc := bson.M{}
	switch {
	case score == 1:
		inc["statistic.wins"] = 1
	case score == 0:
		inc["statistic.losses"] = 1
	default:
		inc["statistic.draws"] = 1
	}

	update := bson.M{
		"$set": bson.M{"rating": newRating, "updated_at": time.Now()},
		"$inc": inc,
	}

	res, err := s.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update rating for %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (s *RatingStore) SaveGameResult(ctx context.Context, result rating.GameResult) (string, error) {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.PlayedAt.IsZero() {
		result.PlayedAt = time.Now()
	}

	_, err := s.db.Collection(resultsCollection).InsertOne(ctx, result)
	if err != nil {
		return "", fmt.Errorf("save game result: %w", err)
	}
	return result.ID, nil
}

// RecentResults returns the user's most recent game outcomes, newest first,
// reduced to the shape the rating math consumes.
func (s *RatingStore) RecentResults(ctx context.Context, userID string, limit int) ([]rating.Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "played_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(resultsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find results for %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var results []rating.GameResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode results for %s: %w", userID, err)
	}

	records := make([]rating.Record, 0, len(results))
	for _, r := range results {
		records = append(records, rating.Record{
			OpponentRating: r.OpponentRating,
			Score:          r.Score,
		})
	}
	return records, nil
}
