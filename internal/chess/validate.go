package chess

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

// Validate checks token against the legal moves of pos and, when it is one of
// them, returns the position reached by playing it. pos itself is untouched.
//
// A token that is well formed but names a move the side to move cannot play
// (including a missing or wrong promotion letter) is illegal, not unparseable.
func Validate(pos *Position, token string) Outcome {
	if pos == nil {
		return Rejected(ReasonIllegal, "no position")
	}
	mv, err := ParseMoveToken(token)
	if err != nil {
		return Rejected(ReasonUnparseable, err.Error())
	}
	uci := mv.String()
	if !contains(LegalMoves(pos), uci) {
		return Rejected(ReasonIllegal, fmt.Sprintf("%s is not legal in %s", uci, pos.FEN()))
	}

	next, err := apply(pos, uci)
	if err != nil {
		// membership passed, so the library disagreeing with itself is a bug
		return Rejected(ReasonIllegal, err.Error())
	}
	return Accepted(uci, next)
}

// Apply plays a UCI move on a copy of pos without the membership shortcut.
func Apply(pos *Position, uci string) (*Position, error) {
	if pos == nil {
		return nil, fmt.Errorf("apply %s: nil position", uci)
	}
	return apply(pos, uci)
}

func apply(pos *Position, uci string) (*Position, error) {
	g := pos.clone()
	if err := g.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return nil, fmt.Errorf("apply %s: %w", uci, err)
	}
	return ParsePosition(g.FEN())
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
