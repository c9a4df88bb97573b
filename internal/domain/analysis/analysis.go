package analysis

// Depth and MultiPV policy bounds. Requests outside these ranges are
// rejected, not clamped.
const (
	MinDepth   = 5
	MaxDepth   = 30
	MinMultiPV = 1
	MaxMultiPV = 5

	DefaultDepth   = 18
	DefaultMultiPV = 3
)

// SearchParameters describe one engine query. Constructed per request,
// never mutated.
type SearchParameters struct {
	Depth   int      `json:"depth"`
	MultiPV int      `json:"multipv"`
	Lines   []string `json:"lines,omitempty"`
}

// MoveScore is one candidate move with its evaluation. Exactly one of
// Centipawns and Mate is set.
type MoveScore struct {
	Move       string `json:"move"`
	Centipawns *int   `json:"centipawns,omitempty"`
	Mate       *int   `json:"mate,omitempty"`
}

// EvaluationResult is the normalized outcome of a single engine call.
// TopMoves is ordered best-first and never longer than the requested MultiPV.
type EvaluationResult struct {
	FEN        string      `json:"fen"`
	BestMove   string      `json:"best_move,omitempty"`
	TopMoves   []MoveScore `json:"top_moves"`
	Centipawns *int        `json:"centipawns,omitempty"`
	Mate       *int        `json:"mate,omitempty"`
	Depth      int         `json:"depth"`
}

// BestMoveResult distinguishes "the best move is X" from "there is no move
// to make": terminal positions yield NoMove with the reason, not an error.
type BestMoveResult struct {
	BestMove string `json:"best_move,omitempty"`
	NoMove   bool   `json:"no_move,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ReportEntry is the analysis of one sampled ply of a game.
type ReportEntry struct {
	Ply        int              `json:"ply"`
	MoveNumber int              `json:"move_number"`
	Color      string           `json:"move_color"`
	FEN        string           `json:"fen"`
	MoveUCI    string           `json:"move"`
	Eval       EvaluationResult `json:"analysis"`
}

// GameAnalysisReport is the ordered per-sampled-ply report for a full game.
// Entries are appended in replay order and never reordered.
type GameAnalysisReport struct {
	Entries       []ReportEntry `json:"analysis"`
	TotalAnalyzed int           `json:"total_positions_analyzed"`
}

// GameRequest is a full-game analysis request.
type GameRequest struct {
	PGN             string `json:"pgn"`
	Depth           int    `json:"depth"`
	MultiPV         int    `json:"multi_pv"`
	AnalyzeInterval int    `json:"analyze_interval"`
}

// PositionRequest is a single-position analysis request.
type PositionRequest struct {
	FEN     string   `json:"fen"`
	Depth   int      `json:"depth"`
	MultiPV int      `json:"multipv"`
	Lines   []string `json:"lines,omitempty"`
}
