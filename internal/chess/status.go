package chess

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Game states reported after a move.
const (
	StateOngoing   = "ongoing"
	StateCheck     = "check"
	StateCheckmate = "checkmate"
	StateStalemate = "stalemate"
	StateDraw      = "draw"
)

// State summarizes a position for a person playing it.
type State struct {
	Status  string
	Turn    string // "White" or "Black"
	Winner  string // set on checkmate
	Method  string // library draw method, e.g. "InsufficientMaterial"
	InCheck bool
}

// Describe reports whether the side to move is in check and whether the
// game is over, using the rules library's outcome and method.
func Describe(pos *Position) State {
	if pos == nil || pos.game == nil {
		return State{}
	}
	g := pos.game
	st := State{
		Status:  StateOngoing,
		Turn:    turnLabel(pos.Turn()),
		InCheck: InCheck(pos),
	}
	switch g.Method() {
	case nchess.Checkmate:
		st.Status = StateCheckmate
		st.Winner = turnLabel(pos.Turn().Other())
		return st
	case nchess.Stalemate:
		st.Status = StateStalemate
		return st
	}
	if g.Outcome() == nchess.Draw {
		st.Status = StateDraw
		st.Method = g.Method().String()
		return st
	}
	if st.InCheck {
		st.Status = StateCheck
	}
	return st
}

// Line is the one-line status shown under the board.
func (s State) Line() string {
	switch s.Status {
	case StateCheckmate:
		return fmt.Sprintf("Checkmate! %s wins", s.Winner)
	case StateStalemate, StateDraw:
		return "Game over, drawn position"
	case StateCheck:
		return fmt.Sprintf("%s to move, %s is in check", s.Turn, s.Turn)
	case "":
		return ""
	}
	return s.Turn + " to move"
}

// InCheck reports whether the side to move is in check.
func InCheck(pos *Position) bool {
	if pos == nil || pos.game == nil {
		return false
	}
	return attacksKing(pos, pos.Turn().Other())
}

// checkKings rejects positions without exactly one king per side and
// positions where the side that just moved is still in check.
func checkKings(pos *Position) error {
	var white, black int
	for _, p := range pos.Board().SquareMap() {
		switch p {
		case nchess.WhiteKing:
			white++
		case nchess.BlackKing:
			black++
		}
	}
	if white != 1 || black != 1 {
		return fmt.Errorf("expected one king per side, got %d white and %d black", white, black)
	}
	if attacksKing(pos, pos.Turn()) {
		return fmt.Errorf("%s king is in check with %s to move",
			turnLabel(pos.Turn().Other()), turnLabel(pos.Turn()))
	}
	return nil
}

// attacksKing reports whether attacker has a move landing on the other
// side's king. The placement is replayed with attacker to move and no
// castling or en passant rights, so only ordinary moves are generated.
func attacksKing(pos *Position, attacker nchess.Color) bool {
	board := pos.Board()
	if board == nil {
		return false
	}
	target := nchess.NoSquare
	for sq, p := range board.SquareMap() {
		if p.Type() == nchess.King && p.Color() == attacker.Other() {
			target = sq
			break
		}
	}
	if target == nchess.NoSquare {
		return false
	}

	placement := strings.Fields(pos.FEN())[0]
	option, err := nchess.FEN(placement + " " + attacker.String() + " - - 0 1")
	if err != nil {
		return false
	}
	for _, m := range nchess.NewGame(option).ValidMoves() {
		if m.S2() == target {
			return true
		}
	}
	return false
}
