package analysis

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	errs "chesscoach/internal/errors"
)

// Step is one replayed half-move. FEN reflects the board after the move was
// applied; Ply starts at 1 for the first half-move.
type Step struct {
	Ply     int
	FEN     string
	MoveUCI string
}

// Walk parses a PGN and yields its moves one ply at a time, calling fn after
// each. Per-ply positions come from the parsed game itself, so a game
// carrying SetUp/FEN headers walks from its declared starting position, not
// the standard one. An error from fn stops the walk and is returned
// unchanged.
func Walk(pgn string, fn func(Step) error) error {
	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidPgn, err)
	}

	game := chess.NewGame(opt)
	moves := game.Moves()
	if len(moves) == 0 {
		return fmt.Errorf("%w: game has no moves", errs.ErrInvalidPgn)
	}

	// Positions() holds one entry per ply plus the starting position, so
	// positions[i] is the board the move was played from and positions[i+1]
	// the board after it.
	positions := game.Positions()
	for i, move := range moves {
		step := Step{
			Ply:     i + 1,
			FEN:     positions[i+1].String(),
			MoveUCI: chess.UCINotation{}.Encode(positions[i], move),
		}
		if err := fn(step); err != nil {
			return err
		}
	}

	return nil
}
