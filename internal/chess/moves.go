package chess

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnparseableMove = errors.New("unparseable move token")

// MoveToken is a parsed UCI move: origin, destination and an optional
// promotion piece letter (q, r, b or n).
type MoveToken struct {
	From  string
	To    string
	Promo string
}

func (m MoveToken) String() string { return m.From + m.To + m.Promo }

// ParseMoveToken checks s against the UCI grammar exactly. Squares and the
// promotion letter must be lowercase; surrounding whitespace is not trimmed.
func ParseMoveToken(s string) (MoveToken, error) {
	if len(s) != 4 && len(s) != 5 {
		return MoveToken{}, fmt.Errorf("%w: %q has length %d", ErrUnparseableMove, s, len(s))
	}
	if !isSquare(s[0:2]) || !isSquare(s[2:4]) {
		return MoveToken{}, fmt.Errorf("%w: %q has an invalid square", ErrUnparseableMove, s)
	}
	tok := MoveToken{From: s[0:2], To: s[2:4]}
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
			tok.Promo = s[4:5]
		default:
			return MoveToken{}, fmt.Errorf("%w: %q has an invalid promotion piece", ErrUnparseableMove, s)
		}
	}
	return tok, nil
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// LegalMoves lists every legal move of pos in UCI notation, sorted so repeated
// calls on the same position yield the same sequence.
func LegalMoves(pos *Position) []string {
	if pos == nil || pos.game == nil {
		return nil
	}
	valid := pos.clone().ValidMoves()
	out := make([]string, 0, len(valid))
	for i := range valid {
		out = append(out, valid[i].String())
	}
	sort.Strings(out)
	return out
}
