package movedto

import "time"

// MoveRequest is the body of POST /move and POST /retry_move.
type MoveRequest struct {
	FEN    string      `json:"fen" validate:"required,max=100"`
	Rating SkillRating `json:"rating" validate:"required,max=64"`
}

// ApplyRequest is the body of POST /api/apply: a move entered by a person.
type ApplyRequest struct {
	FEN  string `json:"fen" validate:"required,max=100"`
	Move string `json:"move" validate:"required,max=5"`
}

// MoveResponse carries either Move or Error.
type MoveResponse struct {
	Move      string      `json:"move,omitempty"`
	ResultFEN string      `json:"fen,omitempty"`
	Status    *GameStatus `json:"status,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
	AttemptID string      `json:"attempt_id,omitempty"`
}

// GameStatus describes the position reached by a move.
type GameStatus struct {
	State   string `json:"state"`
	Turn    string `json:"turn"`
	Winner  string `json:"winner,omitempty"`
	Method  string `json:"method,omitempty"`
	InCheck bool   `json:"in_check"`
	Line    string `json:"line"`
}

// AttemptView is one audit record as served by GET /api/attempts.
type AttemptView struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	FEN        string    `json:"fen"`
	Rating     string    `json:"rating"`
	Retry      bool      `json:"retry"`
	Completion string    `json:"completion,omitempty"`
	Outcome    string    `json:"outcome"`
	Move       string    `json:"move,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	ResultFEN  string    `json:"result_fen,omitempty"`
	LatencyMS  int64     `json:"latency_ms"`
}

type AttemptsResponse struct {
	Attempts []AttemptView `json:"attempts"`
}
