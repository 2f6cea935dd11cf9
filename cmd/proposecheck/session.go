package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/park285/cheese-llm-move/internal/chess"
	"github.com/park285/cheese-llm-move/pkg/movedto"
	"github.com/park285/cheese-llm-move/internal/service/move"
)

type moveService interface {
	ProposeMove(ctx context.Context, fen string, rating movedto.SkillRating) (move.Result, error)
	RetryMove(ctx context.Context, fen string, rating movedto.SkillRating) (move.Result, error)
}

type session struct {
	svc     moveService
	rating  movedto.SkillRating
	lastFEN string
}

func newSession(svc moveService, rating movedto.SkillRating) *session {
	return &session{svc: svc, rating: rating}
}

// handle runs one input line and reports whether to keep reading.
func (s *session) handle(ctx context.Context, line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return true
	case line == "exit" || line == "quit":
		return false
	case strings.HasPrefix(line, "rating "):
		s.rating = movedto.SkillRating(strings.TrimSpace(strings.TrimPrefix(line, "rating ")))
		fmt.Fprintf(out, "rating set to %s\n", s.rating)
		return true
	case line == "retry":
		if s.lastFEN == "" {
			fmt.Fprintln(out, "nothing to retry")
			return true
		}
		res, err := s.svc.RetryMove(ctx, s.lastFEN, s.rating)
		s.report(out, res, err)
		return true
	default:
		s.lastFEN = line
		res, err := s.svc.ProposeMove(ctx, line, s.rating)
		s.report(out, res, err)
		return true
	}
}

func (s *session) report(out io.Writer, res move.Result, err error) {
	if err != nil {
		if errors.Is(err, chess.ErrMalformedPosition) {
			s.lastFEN = ""
		}
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	switch res.Kind {
	case chess.OutcomeAccepted:
		fmt.Fprintf(out, "accepted %s\n%s\n%s\n", res.Move, chess.ReadableDiagram(res.Resulting), chess.Describe(res.Resulting).Line())
	case chess.OutcomeRejected:
		fmt.Fprintf(out, "rejected (%s): %q\n", res.Reason, res.Completion)
	default:
		fmt.Fprintf(out, "upstream failure (timeout=%t): %s\n", res.Timeout, res.Detail)
	}
}
