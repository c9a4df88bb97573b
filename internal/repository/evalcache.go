package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chesscoach/internal/domain/analysis"
	"chesscoach/internal/fen"
)

// EvalCache keeps recent engine evaluations in Redis so repeated requests
// for the same position skip the engine entirely. Cache failures are soft:
// they are logged and treated as a miss, never surfaced to the caller.
type EvalCache struct {
	redis *redis.Client
	log   *zap.SugaredLogger
	ttl   time.Duration
}

func NewEvalCache(client *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *EvalCache {
	return &EvalCache{
		redis: client,
		log:   log,
		ttl:   ttl,
	}
}

// Key normalizes the FEN (clock fields dropped) so transpositions reached at
// different move numbers share an entry. Requests restricted to specific
// lines are never cached: their TopMoves are a filtered subset.
func (c *EvalCache) Key(fenStr string, params analysis.SearchParameters) (string, bool) {
	if len(params.Lines) > 0 {
		return "", false
	}
	normalized, err := fen.Normalize(fenStr)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("eval:%s:d%d:m%d", normalized, params.Depth, params.MultiPV), true
}

func (c *EvalCache) Get(ctx context.Context, fenStr string, params analysis.SearchParameters) (analysis.EvaluationResult, bool) {
	key, ok := c.Key(fenStr, params)
	if !ok {
		return analysis.EvaluationResult{}, false
	}

	raw, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return analysis.EvaluationResult{}, false
	}
	if err != nil {
		c.log.Warnw("eval cache read failed", "error", err)
		return analysis.EvaluationResult{}, false
	}

	var result analysis.EvaluationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.log.Warnw("eval cache entry corrupt", "key", key, "error", err)
		return analysis.EvaluationResult{}, false
	}

	return result, true
}

func (c *EvalCache) Put(ctx context.Context, fenStr string, params analysis.SearchParameters, result analysis.EvaluationResult) {
	key, ok := c.Key(fenStr, params)
	if !ok {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		c.log.Warnw("eval cache marshal failed", "error", err)
		return
	}

	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warnw("eval cache write failed", "error", err)
	}
}
