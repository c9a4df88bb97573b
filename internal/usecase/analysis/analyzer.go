package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	domain "chesscoach/internal/domain/analysis"
	errs "chesscoach/internal/errors"
	"chesscoach/internal/fen"
)

// Engine is one exclusively-held engine handle.
type Engine interface {
	Evaluate(ctx context.Context, fenStr string, params domain.SearchParameters) (domain.EvaluationResult, error)
}

// EnginePool hands out exclusive engine handles. Release must be called for
// every successful Acquire, also on error paths.
type EnginePool interface {
	Acquire(ctx context.Context) (Engine, error)
	Release(e Engine)
}

// Analyzer validates positions and drives the engine pool to evaluate them.
type Analyzer struct {
	pool           EnginePool
	log            *zap.SugaredLogger
	defaultDepth   int
	defaultMultiPV int
}

func NewAnalyzer(pool EnginePool, defaultDepth, defaultMultiPV int, log *zap.SugaredLogger) *Analyzer {
	if defaultDepth == 0 {
		defaultDepth = domain.DefaultDepth
	}
	if defaultMultiPV == 0 {
		defaultMultiPV = domain.DefaultMultiPV
	}
	return &Analyzer{
		pool:           pool,
		log:            log,
		defaultDepth:   defaultDepth,
		defaultMultiPV: defaultMultiPV,
	}
}

// AnalyzePosition evaluates a single position. The FEN is checked twice
// before any engine handle is acquired: a structural check and a full parse
// by the board library, so the engine never sees an illegal position.
func (a *Analyzer) AnalyzePosition(ctx context.Context, req domain.PositionRequest) (domain.EvaluationResult, error) {
	params, err := a.ResolveParams(req.Depth, req.MultiPV, req.Lines)
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	if _, err := parseFEN(req.FEN); err != nil {
		return domain.EvaluationResult{}, err
	}

	engine, err := a.pool.Acquire(ctx)
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	defer a.pool.Release(engine)

	return a.evaluate(ctx, engine, req.FEN, params)
}

// BestMove returns the engine's best move, or an explicit no-move result for
// terminal positions (checkmate, stalemate, insufficient material). Terminal
// positions are detected before the engine is queried; they are a value,
// not an error.
func (a *Analyzer) BestMove(ctx context.Context, fenStr string, depth int) (domain.BestMoveResult, error) {
	params, err := a.ResolveParams(depth, 1, nil)
	if err != nil {
		return domain.BestMoveResult{}, err
	}

	game, err := parseFEN(fenStr)
	if err != nil {
		return domain.BestMoveResult{}, err
	}

	if reason, terminal := terminalReason(game, fenStr); terminal {
		return domain.BestMoveResult{NoMove: true, Reason: reason}, nil
	}

	engine, err := a.pool.Acquire(ctx)
	if err != nil {
		return domain.BestMoveResult{}, err
	}
	defer a.pool.Release(engine)

	result, err := a.evaluate(ctx, engine, fenStr, params)
	if err != nil {
		return domain.BestMoveResult{}, err
	}

	return domain.BestMoveResult{BestMove: result.BestMove}, nil
}

// IsMoveCorrect reports whether the candidate equals the engine's single
// best move at the default depth, case-insensitively. The comparison is
// deliberately strict: a near-equal alternative line is not "correct".
// Callers that want tolerance filter TopMoves from AnalyzePosition instead.
func (a *Analyzer) IsMoveCorrect(ctx context.Context, fenStr, moveUci string) (bool, error) {
	candidate := strings.TrimSpace(moveUci)
	if candidate == "" {
		return false, fmt.Errorf("%w: empty move", errs.ErrInvalidParameter)
	}

	result, err := a.AnalyzePosition(ctx, domain.PositionRequest{FEN: fenStr, MultiPV: 1})
	if err != nil {
		return false, err
	}
	if result.BestMove == "" {
		return false, nil
	}

	return strings.EqualFold(result.BestMove, candidate), nil
}

func (a *Analyzer) evaluate(ctx context.Context, engine Engine, fenStr string, params domain.SearchParameters) (domain.EvaluationResult, error) {
	result, err := engine.Evaluate(ctx, fenStr, params)
	if err != nil {
		return domain.EvaluationResult{}, fmt.Errorf("%w: fen %q: %w", errs.ErrAnalysisFailed, fenStr, err)
	}
	return result, nil
}

// ResolveParams fills in the configured defaults for unset depth and
// multipv and validates the bounds. It is the single place defaults are
// decided; callers that need the resolved values (the eval cache key) ask
// here instead of re-deriving them.
func (a *Analyzer) ResolveParams(depth, multipv int, lines []string) (domain.SearchParameters, error) {
	if depth == 0 {
		depth = a.defaultDepth
	}
	if multipv == 0 {
		multipv = a.defaultMultiPV
	}

	if depth < domain.MinDepth || depth > domain.MaxDepth {
		return domain.SearchParameters{}, fmt.Errorf("%w: depth %d not in [%d,%d]",
			errs.ErrInvalidParameter, depth, domain.MinDepth, domain.MaxDepth)
	}
	if multipv < domain.MinMultiPV || multipv > domain.MaxMultiPV {
		return domain.SearchParameters{}, fmt.Errorf("%w: multipv %d not in [%d,%d]",
			errs.ErrInvalidParameter, multipv, domain.MinMultiPV, domain.MaxMultiPV)
	}

	return domain.SearchParameters{Depth: depth, MultiPV: multipv, Lines: lines}, nil
}

// parseFEN runs the structural legality check and the board library parse.
// The structural check catches positions the library accepts but the engine
// would choke on (missing kings, impossible piece counts).
func parseFEN(fenStr string) (*chess.Game, error) {
	if err := fen.Validate(fenStr); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidFen, err)
	}

	opt, err := chess.FEN(fenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidFen, err)
	}

	return chess.NewGame(opt), nil
}

func terminalReason(game *chess.Game, fenStr string) (string, bool) {
	switch game.Position().Status() {
	case chess.Checkmate:
		return "checkmate", true
	case chess.Stalemate:
		return "stalemate", true
	}

	if material, err := fen.ParseMaterial(fenStr); err == nil && material.InsufficientMaterial() {
		return "insufficient material", true
	}

	return "", false
}
