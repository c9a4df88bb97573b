package rating

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "chesscoach/internal/domain/rating"
	errs "chesscoach/internal/errors"
	ratinguc "chesscoach/internal/usecase/rating"
)

type fakeService struct {
	outcome  ratinguc.RecordOutcome
	estimate domain.PerformanceEstimate
	err      error

	gotUserID     string
	gotOpponentID string
	gotScore      float64
}

func (f *fakeService) RecordGameResult(_ context.Context, userID, opponentID string, score float64) (ratinguc.RecordOutcome, error) {
	f.gotUserID = userID
	f.gotOpponentID = opponentID
	f.gotScore = score
	if f.err != nil {
		return ratinguc.RecordOutcome{}, f.err
	}
	return f.outcome, nil
}

func (f *fakeService) PerformanceSummary(_ context.Context, userID string) (domain.PerformanceEstimate, error) {
	f.gotUserID = userID
	if f.err != nil {
		return domain.PerformanceEstimate{}, f.err
	}
	return f.estimate, nil
}

func newTestHandler(svc RatingService) *RatingHandler {
	return NewRatingHandler(zap.NewNop().Sugar(), svc, ratinguc.NewEngine(32, 1200))
}

func TestHandleRecordResult_OK(t *testing.T) {
	svc := &fakeService{outcome: ratinguc.RecordOutcome{UserRating: 1216, OpponentRating: 1184}}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/rating/result",
		strings.NewReader(`{"user_id": "alice", "opponent_id": "bob", "score": 1}`))
	rec := httptest.NewRecorder()

	h.HandleRecordResult(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", svc.gotUserID)
	assert.Equal(t, "bob", svc.gotOpponentID)
	assert.Equal(t, 1.0, svc.gotScore)

	var resp struct {
		Body ratinguc.RecordOutcome `json:"Body"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1216, resp.Body.UserRating)
	assert.Equal(t, 1184, resp.Body.OpponentRating)
}

func TestHandleRecordResult_MissingIDs(t *testing.T) {
	h := newTestHandler(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/rating/result",
		strings.NewReader(`{"score": 1}`))
	rec := httptest.NewRecorder()

	h.HandleRecordResult(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRecordResult_UnknownUser(t *testing.T) {
	h := newTestHandler(&fakeService{err: errs.ErrUserNotFound})

	req := httptest.NewRequest(http.MethodPost, "/rating/result",
		strings.NewReader(`{"user_id": "alice", "opponent_id": "ghost", "score": 0}`))
	rec := httptest.NewRecorder()

	h.HandleRecordResult(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRecordResult_InvalidScore(t *testing.T) {
	h := newTestHandler(&fakeService{err: errs.ErrInvalidRatingInput})

	req := httptest.NewRequest(http.MethodPost, "/rating/result",
		strings.NewReader(`{"user_id": "alice", "opponent_id": "bob", "score": 7}`))
	rec := httptest.NewRecorder()

	h.HandleRecordResult(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePerformance_OK(t *testing.T) {
	svc := &fakeService{estimate: domain.PerformanceEstimate{
		PerformanceRating: 1540,
		RatingDeviation:   120.5,
		GamesCounted:      12,
	}}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/rating/performance?user_id=alice", nil)
	rec := httptest.NewRecorder()

	h.HandlePerformance(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", svc.gotUserID)

	var resp struct {
		Body domain.PerformanceEstimate `json:"Body"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1540, resp.Body.PerformanceRating)
	assert.Equal(t, 12, resp.Body.GamesCounted)
}

func TestHandlePerformance_MissingUserID(t *testing.T) {
	h := newTestHandler(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/rating/performance", nil)
	rec := httptest.NewRecorder()

	h.HandlePerformance(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExpectedScore(t *testing.T) {
	h := newTestHandler(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/rating/expected?a=1500&b=1500", nil)
	rec := httptest.NewRecorder()

	h.HandleExpectedScore(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Body expectedResponse `json:"Body"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 0.5, resp.Body.ExpectedScore, 1e-9)
}

func TestHandleExpectedScore_BadQuery(t *testing.T) {
	h := newTestHandler(&fakeService{})

	req := httptest.NewRequest(http.MethodGet, "/rating/expected?a=high&b=1500", nil)
	rec := httptest.NewRecorder()

	h.HandleExpectedScore(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
