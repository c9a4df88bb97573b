package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chesscoach/internal/bootstrap"
	domain "chesscoach/internal/domain/analysis"
	errs "chesscoach/internal/errors"
	"chesscoach/internal/httpresponse"
	"chesscoach/internal/repository"
)

// GameAnalyzer is the analysis usecase surface the handlers drive.
type GameAnalyzer interface {
	ResolveParams(depth, multipv int, lines []string) (domain.SearchParameters, error)
	AnalyzePosition(ctx context.Context, req domain.PositionRequest) (domain.EvaluationResult, error)
	AnalyzeGame(ctx context.Context, req domain.GameRequest) (domain.GameAnalysisReport, error)
	AnalyzeGameFunc(ctx context.Context, req domain.GameRequest, fn func(domain.ReportEntry) error) error
	BestMove(ctx context.Context, fenStr string, depth int) (domain.BestMoveResult, error)
	IsMoveCorrect(ctx context.Context, fenStr, moveUci string) (bool, error)
}

type AnalyzeHandler struct {
	cfg      bootstrap.Config
	log      *zap.SugaredLogger
	analyzer GameAnalyzer
	cache    *repository.EvalCache
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewAnalyzeHandler(cfg bootstrap.Config, log *zap.SugaredLogger, analyzer GameAnalyzer, cache *repository.EvalCache) *AnalyzeHandler {
	return &AnalyzeHandler{
		cfg:      cfg,
		log:      log,
		analyzer: analyzer,
		cache:    cache,
	}
}

// HandleAnalyzePosition serves POST /analyze/position.
func (h *AnalyzeHandler) HandleAnalyzePosition(w http.ResponseWriter, r *http.Request) {
	var req domain.PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	ctx := r.Context()
	result, err := h.analyzePositionCached(ctx, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, result)
}

// HandleAnalyzeGame serves POST /analyze/game.
func (h *AnalyzeHandler) HandleAnalyzeGame(w http.ResponseWriter, r *http.Request) {
	var req domain.GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	report, err := h.analyzer.AnalyzeGame(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, report)
}

// HandleBestMove serves GET /analyze/bestmove?fen=...&depth=N.
func (h *AnalyzeHandler) HandleBestMove(w http.ResponseWriter, r *http.Request) {
	fenStr := r.URL.Query().Get("fen")
	if fenStr == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing fen query parameter")
		return
	}

	depth := 0
	if raw := r.URL.Query().Get("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "depth must be an integer")
			return
		}
		depth = parsed
	}

	result, err := h.analyzer.BestMove(r.Context(), fenStr, depth)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, result)
}

type judgeRequest struct {
	FEN  string `json:"fen"`
	Move string `json:"move"`
}

type judgeResponse struct {
	Correct bool `json:"correct"`
}

// HandleJudgeMove serves POST /analyze/judge.
func (h *AnalyzeHandler) HandleJudgeMove(w http.ResponseWriter, r *http.Request) {
	var req judgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	correct, err := h.analyzer.IsMoveCorrect(r.Context(), req.FEN, req.Move)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, judgeResponse{Correct: correct})
}

func (h *AnalyzeHandler) analyzePositionCached(ctx context.Context, req domain.PositionRequest) (domain.EvaluationResult, error) {
	// The analyzer owns default resolution; asking it keeps the cache key
	// matched with the parameters actually analyzed.
	params, err := h.analyzer.ResolveParams(req.Depth, req.MultiPV, req.Lines)
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	req.Depth = params.Depth
	req.MultiPV = params.MultiPV
	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, req.FEN, params); ok {
			return cached, nil
		}
	}

	result, err := h.analyzer.AnalyzePosition(ctx, req)
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	if h.cache != nil {
		h.cache.Put(ctx, req.FEN, params, result)
	}
	return result, nil
}

// writeError maps the error taxonomy onto HTTP statuses. Caller-input
// errors are 4xx and never retried; engine trouble is 5xx and retryable by
// the caller.
func (h *AnalyzeHandler) writeError(w http.ResponseWriter, err error) {
	h.log.Errorw("analysis request failed", "error", err)
	httpresponse.WriteErrorResponse(w, StatusForError(err), err.Error())
}

// StatusForError translates sentinel errors to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidFen),
		errors.Is(err, errs.ErrInvalidPgn),
		errors.Is(err, errs.ErrInvalidParameter),
		errors.Is(err, errs.ErrInvalidRatingInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrEngineTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, errs.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
