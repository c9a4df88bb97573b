package errors

import "errors"

var (
	ErrInvalidFen         = errors.New("invalid or illegal FEN")
	ErrInvalidPgn         = errors.New("PGN does not parse into a legal move sequence")
	ErrInvalidParameter   = errors.New("analysis parameter out of allowed range")
	ErrEngineUnavailable  = errors.New("chess engine could not be reached or initialized")
	ErrEngineTimeout      = errors.New("chess engine did not respond in time")
	ErrAnalysisFailed     = errors.New("position analysis failed")
	ErrGameAnalysisFailed = errors.New("game analysis failed")
	ErrInvalidRatingInput = errors.New("invalid rating input")
	ErrUserNotFound       = errors.New("user with provided id was not found")
	ErrInternal           = errors.New("internal error")
)
