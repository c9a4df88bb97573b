package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/freeeve/uci"
	"go.uber.org/zap"

	"chesscoach/internal/domain/analysis"
	errs "chesscoach/internal/errors"
)

// EngineConfig is set once at pool construction and applies to every
// spawned engine process. Search depth and MultiPV are request-scoped,
// everything else here is not.
type EngineConfig struct {
	Path            string
	HashMB          int
	Threads         int
	TimeoutBase     time.Duration
	TimeoutPerDepth time.Duration
}

// EngineClient owns a single long-lived UCI engine process. A client must
// be held exclusively for the duration of one Evaluate call; the pool
// guarantees no two callers interleave commands to the same process.
type EngineClient struct {
	cfg EngineConfig
	log *zap.SugaredLogger
	eng *uci.Engine

	// healthy is only read and written by the current exclusive holder
	// and by the pool on release, so it needs no lock.
	healthy bool
}

func NewEngineClient(cfg EngineConfig, log *zap.SugaredLogger) (*EngineClient, error) {
	eng, err := uci.NewEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", errs.ErrEngineUnavailable, cfg.Path, err)
	}

	err = eng.SetOptions(uci.Options{
		MultiPV: analysis.DefaultMultiPV,
		Hash:    cfg.HashMB,
		Threads: cfg.Threads,
		Ponder:  false,
		OwnBook: false,
	})
	if err != nil {
		eng.Close()
		return nil, fmt.Errorf("%w: set options: %w", errs.ErrEngineUnavailable, err)
	}

	return &EngineClient{
		cfg:     cfg,
		log:     log,
		eng:     eng,
		healthy: true,
	}, nil
}

// Healthy reports whether the underlying process is still usable. A client
// that timed out or was abandoned mid-command is poisoned: the pool closes
// it and spawns a replacement instead of returning it to circulation.
func (c *EngineClient) Healthy() bool {
	return c.healthy
}

func (c *EngineClient) Close() {
	if c.eng != nil {
		c.eng.Close()
		c.eng = nil
	}
	c.healthy = false
}

type engineReply struct {
	results *uci.Results
	err     error
}

// Evaluate runs one position through the engine at the requested depth and
// MultiPV. The wait is bounded and scales with depth; on timeout the call
// fails with ErrEngineTimeout and the client is marked unhealthy, since the
// engine process may still be searching.
func (c *EngineClient) Evaluate(ctx context.Context, fenStr string, params analysis.SearchParameters) (analysis.EvaluationResult, error) {
	eng := c.eng
	if eng == nil || !c.healthy {
		return analysis.EvaluationResult{}, errs.ErrEngineUnavailable
	}

	timeout := c.cfg.TimeoutBase + time.Duration(params.Depth)*c.cfg.TimeoutPerDepth

	// The goroutine works only on the local eng so an abandon cannot race
	// a field write.
	done := make(chan engineReply, 1)
	go func() {
		err := eng.SetOptions(uci.Options{
			MultiPV: params.MultiPV,
			Hash:    c.cfg.HashMB,
			Threads: c.cfg.Threads,
			Ponder:  false,
			OwnBook: false,
		})
		if err != nil {
			done <- engineReply{nil, err}
			return
		}
		if err := eng.SetFEN(fenStr); err != nil {
			done <- engineReply{nil, err}
			return
		}
		results, err := eng.GoDepth(params.Depth, uci.HighestDepthOnly)
		done <- engineReply{results, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		c.abandon(eng, done)
		return analysis.EvaluationResult{}, fmt.Errorf("%w: %w", errs.ErrEngineTimeout, ctx.Err())
	case <-timer.C:
		c.abandon(eng, done)
		return analysis.EvaluationResult{}, fmt.Errorf("%w: depth %d exceeded %s", errs.ErrEngineTimeout, params.Depth, timeout)
	case reply := <-done:
		if reply.err != nil {
			c.healthy = false
			return analysis.EvaluationResult{}, fmt.Errorf("%w: %w", errs.ErrEngineUnavailable, reply.err)
		}
		return normalizeResults(fenStr, params, reply.results), nil
	}
}

// abandon detaches the engine process from a client whose command is still
// in flight. The client is poisoned immediately so the pool replaces it,
// while the process itself is closed only after the orphaned goroutine has
// delivered its reply, never concurrently with it.
func (c *EngineClient) abandon(eng *uci.Engine, done chan engineReply) {
	c.healthy = false
	c.eng = nil
	go func() {
		<-done
		eng.Close()
	}()
}

// normalizeResults converts raw UCI output into the domain shape.
// Scores are normalized to White's perspective: the engine reports from the
// side to move, so evaluations with Black on move are negated.
func normalizeResults(fenStr string, params analysis.SearchParameters, results *uci.Results) analysis.EvaluationResult {
	out := analysis.EvaluationResult{
		FEN:      fenStr,
		BestMove: results.BestMove,
		TopMoves: make([]analysis.MoveScore, 0, params.MultiPV),
	}

	blackToMove := strings.Contains(fenStr, " b ")

	for _, r := range results.Results {
		if len(r.BestMoves) == 0 {
			continue
		}
		if r.Depth > out.Depth {
			out.Depth = r.Depth
		}

		score := r.Score
		if blackToMove {
			score = -score
		}

		ms := analysis.MoveScore{Move: r.BestMoves[0]}
		if r.Mate {
			mate := score
			ms.Mate = &mate
		} else {
			cp := score
			ms.Centipawns = &cp
		}

		if !wantedLine(params.Lines, ms.Move) {
			continue
		}

		out.TopMoves = append(out.TopMoves, ms)
		if len(out.TopMoves) == params.MultiPV {
			break
		}
	}

	// The first line is the engine's best one.
	if len(out.TopMoves) > 0 {
		out.Centipawns = out.TopMoves[0].Centipawns
		out.Mate = out.TopMoves[0].Mate
	}

	// Depth actually reached; fall back to the requested depth when the
	// engine reported none.
	if out.Depth == 0 {
		out.Depth = params.Depth
	}

	return out
}

// wantedLine filters candidate lines when the caller restricted analysis to
// a subset of moves. An empty restriction keeps everything.
func wantedLine(lines []string, move string) bool {
	if len(lines) == 0 {
		return true
	}
	for _, l := range lines {
		if strings.EqualFold(strings.TrimSpace(l), move) {
			return true
		}
	}
	return false
}
