// Package fen provides FEN (Forsyth-Edwards Notation) validation utilities.
//
// It is an independent structural check performed before a position is handed
// to the engine, so a malformed position never reaches the engine process.
package fen

import (
	"errors"
	"strings"
)

// ErrInvalidFEN indicates the FEN string is malformed or structurally illegal.
var ErrInvalidFEN = errors.New("invalid FEN notation")

// Material represents the piece counts for both sides.
type Material struct {
	WhitePawns   int
	WhiteKnights int
	WhiteBishops int
	WhiteRooks   int
	WhiteQueens  int
	WhiteKings   int

	BlackPawns   int
	BlackKnights int
	BlackBishops int
	BlackRooks   int
	BlackQueens  int
	BlackKings   int
}

// WhiteTotal returns the number of white men on the board.
func (m Material) WhiteTotal() int {
	return m.WhitePawns + m.WhiteKnights + m.WhiteBishops + m.WhiteRooks + m.WhiteQueens + m.WhiteKings
}

// BlackTotal returns the number of black men on the board.
func (m Material) BlackTotal() int {
	return m.BlackPawns + m.BlackKnights + m.BlackBishops + m.BlackRooks + m.BlackQueens + m.BlackKings
}

// InsufficientMaterial reports whether neither side can possibly deliver mate:
// bare kings, king vs king+knight, or king vs king+bishop.
func (m Material) InsufficientMaterial() bool {
	if m.WhitePawns+m.BlackPawns > 0 {
		return false
	}
	if m.WhiteRooks+m.BlackRooks+m.WhiteQueens+m.BlackQueens > 0 {
		return false
	}
	minor := m.WhiteKnights + m.WhiteBishops + m.BlackKnights + m.BlackBishops
	return minor <= 1
}

// Validate checks that the FEN parses to a structurally legal position:
// eight ranks of eight squares, a valid side to move, exactly one king per
// side and piece counts within per-side bounds.
func Validate(fen string) error {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return ErrInvalidFEN
	}

	if !isValidPiecePlacement(parts[0]) {
		return ErrInvalidFEN
	}

	if parts[1] != "w" && parts[1] != "b" {
		return ErrInvalidFEN
	}

	m, err := ParseMaterial(fen)
	if err != nil {
		return err
	}

	if m.WhiteKings != 1 || m.BlackKings != 1 {
		return ErrInvalidFEN
	}
	if m.WhitePawns > 8 || m.BlackPawns > 8 {
		return ErrInvalidFEN
	}
	if m.WhiteTotal() > 16 || m.BlackTotal() > 16 {
		return ErrInvalidFEN
	}

	return nil
}

// Normalize returns a normalized FEN string suitable for cache lookups.
// It keeps only the position, side to move, castling rights and en passant
// square, ignoring the halfmove clock and fullmove number.
func Normalize(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return "", ErrInvalidFEN
	}

	if !isValidPiecePlacement(parts[0]) {
		return "", ErrInvalidFEN
	}

	if parts[1] != "w" && parts[1] != "b" {
		return "", ErrInvalidFEN
	}

	return strings.Join(parts[:4], " "), nil
}

// ParseMaterial extracts material counts from a FEN string.
func ParseMaterial(fen string) (Material, error) {
	parts := strings.Fields(fen)
	if len(parts) == 0 {
		return Material{}, ErrInvalidFEN
	}

	var m Material
	for _, ch := range parts[0] {
		switch ch {
		case 'P':
			m.WhitePawns++
		case 'N':
			m.WhiteKnights++
		case 'B':
			m.WhiteBishops++
		case 'R':
			m.WhiteRooks++
		case 'Q':
			m.WhiteQueens++
		case 'K':
			m.WhiteKings++
		case 'p':
			m.BlackPawns++
		case 'n':
			m.BlackKnights++
		case 'b':
			m.BlackBishops++
		case 'r':
			m.BlackRooks++
		case 'q':
			m.BlackQueens++
		case 'k':
			m.BlackKings++
		case '/', '1', '2', '3', '4', '5', '6', '7', '8':
			// Valid FEN characters, ignore
		default:
			return Material{}, ErrInvalidFEN
		}
	}

	return m, nil
}

// SideToMove returns "w" or "b" from a FEN string.
func SideToMove(fen string) (string, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return "", ErrInvalidFEN
	}
	if parts[1] != "w" && parts[1] != "b" {
		return "", ErrInvalidFEN
	}
	return parts[1], nil
}

// isValidPiecePlacement validates the piece placement part of a FEN.
func isValidPiecePlacement(placement string) bool {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return false
	}

	for _, rank := range ranks {
		squares := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				squares += int(ch - '0')
			case ch == 'P', ch == 'N', ch == 'B', ch == 'R', ch == 'Q', ch == 'K',
				ch == 'p', ch == 'n', ch == 'b', ch == 'r', ch == 'q', ch == 'k':
				squares++
			default:
				return false
			}
		}
		if squares != 8 {
			return false
		}
	}

	return true
}
