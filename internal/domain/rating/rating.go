package rating

import "time"

// Record is one historical game outcome as seen from the rated player's
// side: the opponent's rating at the time and the score achieved
// (1 win, 0.5 draw, 0 loss; continuous values allowed for aggregates).
type Record struct {
	OpponentRating int     `json:"opponent_rating" bson:"opponent_rating"`
	Score          float64 `json:"score" bson:"score"`
}

// GameResult is the persisted shape of a finished game.
type GameResult struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	UserID         string    `json:"user_id" bson:"user_id"`
	OpponentID     string    `json:"opponent_id" bson:"opponent_id"`
	UserRating     int       `json:"user_rating" bson:"user_rating"`
	OpponentRating int       `json:"opponent_rating" bson:"opponent_rating"`
	Score          float64   `json:"score" bson:"score"`
	PlayedAt       time.Time `json:"played_at" bson:"played_at"`
}

// PerformanceEstimate summarizes a window of results: a single performance
// rating and an uncertainty on it. Computed fresh per call, never persisted.
type PerformanceEstimate struct {
	PerformanceRating int     `json:"performance_rating"`
	RatingDeviation   float64 `json:"rating_deviation"`
	GamesCounted      int     `json:"games_counted"`
}
