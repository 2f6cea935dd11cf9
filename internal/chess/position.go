package chess

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var ErrMalformedPosition = errors.New("malformed position")

// Position is an immutable, parsed FEN. Rule queries run on clones so the
// wrapped game is never advanced.
type Position struct {
	fen  string
	game *nchess.Game
}

// ParsePosition validates fen against the board-notation grammar and the rules
// library's decoder.
func ParsePosition(fen string) (*Position, error) {
	raw := strings.TrimSpace(fen)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty fen", ErrMalformedPosition)
	}
	raw, err := checkFENShape(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPosition, err)
	}
	option, err := nchess.FEN(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPosition, err)
	}
	game := nchess.NewGame(option)
	pos := &Position{fen: game.FEN(), game: game}
	if err := checkKings(pos); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPosition, err)
	}
	return pos, nil
}

// FEN returns the normalized FEN as re-encoded by the rules library.
func (p *Position) FEN() string {
	if p == nil {
		return ""
	}
	return p.fen
}

// Turn reports the side to move.
func (p *Position) Turn() nchess.Color {
	if p == nil || p.game == nil {
		return nchess.NoColor
	}
	return p.game.Position().Turn()
}

// Board exposes the piece placement for renderers.
func (p *Position) Board() *nchess.Board {
	if p == nil || p.game == nil {
		return nil
	}
	return p.game.Position().Board()
}

func (p *Position) String() string { return p.FEN() }

func (p *Position) clone() *nchess.Game {
	return p.game.Clone()
}

// checkFENShape covers the placement and side-to-move fields; the library
// decoder handles the rest. A FEN without move counters gets "0 1".
func checkFENShape(fen string) (string, error) {
	fields := strings.Fields(fen)
	switch len(fields) {
	case 6:
	case 4:
		fields = append(fields, "0", "1")
	default:
		return "", fmt.Errorf("expected 4 or 6 fields, got %d", len(fields))
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return "", fmt.Errorf("expected 8 ranks, got %d", len(ranks))
	}
	for i, rank := range ranks {
		width := 0
		for _, r := range rank {
			switch {
			case r >= '1' && r <= '8':
				width += int(r - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", r):
				width++
			default:
				return "", fmt.Errorf("rank %d: unexpected %q", 8-i, r)
			}
		}
		if width != 8 {
			return "", fmt.Errorf("rank %d: width %d", 8-i, width)
		}
	}
	if fields[1] != "w" && fields[1] != "b" {
		return "", fmt.Errorf("side to move %q", fields[1])
	}
	return strings.Join(fields, " "), nil
}
