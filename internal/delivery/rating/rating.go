package rating

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"chesscoach/internal/delivery/analyze"
	domain "chesscoach/internal/domain/rating"
	"chesscoach/internal/httpresponse"
	ratinguc "chesscoach/internal/usecase/rating"
)

// RatingService is the rating usecase surface the handlers drive.
type RatingService interface {
	RecordGameResult(ctx context.Context, userID, opponentID string, score float64) (ratinguc.RecordOutcome, error)
	PerformanceSummary(ctx context.Context, userID string) (domain.PerformanceEstimate, error)
}

type RatingHandler struct {
	log     *zap.SugaredLogger
	service RatingService
	engine  *ratinguc.Engine
}

func NewRatingHandler(log *zap.SugaredLogger, service RatingService, engine *ratinguc.Engine) *RatingHandler {
	return &RatingHandler{
		log:     log,
		service: service,
		engine:  engine,
	}
}

type resultRequest struct {
	UserID     string  `json:"user_id"`
	OpponentID string  `json:"opponent_id"`
	Score      float64 `json:"score"`
}

// HandleRecordResult serves POST /rating/result.
func (h *RatingHandler) HandleRecordResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	if req.UserID == "" || req.OpponentID == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "user_id and opponent_id are required")
		return
	}

	outcome, err := h.service.RecordGameResult(r.Context(), req.UserID, req.OpponentID, req.Score)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, outcome)
}

// HandlePerformance serves GET /rating/performance?user_id=...
func (h *RatingHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing user_id query parameter")
		return
	}

	estimate, err := h.service.PerformanceSummary(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, estimate)
}

type expectedResponse struct {
	ExpectedScore float64 `json:"expected_score"`
}

// HandleExpectedScore serves GET /rating/expected?a=...&b=...
func (h *RatingHandler) HandleExpectedScore(w http.ResponseWriter, r *http.Request) {
	a, errA := strconv.Atoi(r.URL.Query().Get("a"))
	b, errB := strconv.Atoi(r.URL.Query().Get("b"))
	if errA != nil || errB != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "a and b must be integer ratings")
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, expectedResponse{
		ExpectedScore: h.engine.ExpectedScore(a, b),
	})
}

func (h *RatingHandler) writeError(w http.ResponseWriter, err error) {
	h.log.Errorw("rating request failed", "error", err)
	httpresponse.WriteErrorResponse(w, analyze.StatusForError(err), err.Error())
}
