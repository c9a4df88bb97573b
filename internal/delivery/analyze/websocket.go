package analyze

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	domain "chesscoach/internal/domain/analysis"
)

const (
	msgPositionAnalysis = "position_analysis"
	msgGameAnalysis     = "game_analysis"
)

type wsRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wsMessage struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// HandleAnalyzeWS serves GET /analyze/ws. Clients send typed requests and
// receive either a single analysis_result or, for game analysis, one
// game_entry per analyzed ply in ply order followed by a game_done message.
// A dropped connection cancels an in-flight game analysis between plies.
func (h *AnalyzeHandler) HandleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.log.Info("analysis websocket connected")

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			h.log.Infow("analysis websocket closed", "error", err)
			return
		}

		switch req.Type {
		case msgPositionAnalysis:
			h.wsPosition(r.Context(), conn, req.Data)
		case msgGameAnalysis:
			h.wsGame(r.Context(), conn, req.Data)
		default:
			h.writeWS(conn, wsMessage{Type: "error", Error: "unknown message type: " + req.Type})
		}
	}
}

func (h *AnalyzeHandler) wsPosition(ctx context.Context, conn *websocket.Conn, data json.RawMessage) {
	var req domain.PositionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.writeWS(conn, wsMessage{Type: "error", Error: "invalid position_analysis payload: " + err.Error()})
		return
	}

	result, err := h.analyzePositionCached(ctx, req)
	if err != nil {
		h.writeWS(conn, wsMessage{Type: "error", Error: err.Error()})
		return
	}

	h.writeWS(conn, wsMessage{Type: "analysis_result", Data: result})
}

func (h *AnalyzeHandler) wsGame(ctx context.Context, conn *websocket.Conn, data json.RawMessage) {
	var req domain.GameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.writeWS(conn, wsMessage{Type: "error", Error: "invalid game_analysis payload: " + err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := 0
	err := h.analyzer.AnalyzeGameFunc(ctx, req, func(entry domain.ReportEntry) error {
		// A write failure means the client is gone; returning the error
		// stops the orchestrator before the next engine call.
		if err := conn.WriteJSON(wsMessage{Type: "game_entry", Data: entry}); err != nil {
			cancel()
			return err
		}
		total++
		return nil
	})
	if err != nil {
		h.log.Errorw("websocket game analysis aborted", "error", err)
		h.writeWS(conn, wsMessage{Type: "error", Error: err.Error()})
		return
	}

	h.writeWS(conn, wsMessage{Type: "game_done", Data: map[string]int{"total_positions_analyzed": total}})
}

func (h *AnalyzeHandler) writeWS(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Errorw("websocket write failed", "error", err)
	}
}
