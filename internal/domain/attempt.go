package domain

import "time"

// Attempt is the audit record of one orchestrated propose/validate round.
type Attempt struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	FEN        string        `json:"fen"`
	Rating     string        `json:"rating"`
	Retry      bool          `json:"retry"`
	Completion string        `json:"completion,omitempty"`
	Outcome    string        `json:"outcome"`
	Move       string        `json:"move,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	ResultFEN  string        `json:"result_fen,omitempty"`
	Latency    time.Duration `json:"latency"`
}
