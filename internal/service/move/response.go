package move

import (
	"errors"
	"net/http"

	"github.com/park285/cheese-llm-move/internal/chess"
	"github.com/park285/cheese-llm-move/pkg/movedto"
)

// ToDomainError classifies a result or error for the wire. ok is true when
// the move was accepted.
func ToDomainError(res Result, err error) (movedto.DomainError, bool) {
	if err != nil {
		if errors.Is(err, ErrMalformedPosition) {
			return movedto.DomainError{Code: movedto.CodeMalformedPosition, Message: "Invalid FEN"}, false
		}
		return movedto.DomainError{Code: movedto.CodeInternal, Message: "Internal error"}, false
	}
	switch res.Kind {
	case chess.OutcomeAccepted:
		return movedto.DomainError{}, true
	case chess.OutcomeUpstreamFailure:
		if res.Timeout {
			return movedto.DomainError{Code: movedto.CodeUpstreamTimeout, Message: "Move service timed out", Retryable: true}, false
		}
		return movedto.DomainError{Code: movedto.CodeUpstreamFailure, Message: "Move service unavailable", Retryable: true}, false
	}
	switch res.Reason {
	case chess.ReasonNoLegalMoves:
		return movedto.DomainError{Code: movedto.CodeNoLegalMoves, Message: "No legal moves in this position"}, false
	case chess.ReasonUnparseable:
		return movedto.DomainError{Code: movedto.CodeMoveUnparseable, Message: "Invalid move generated", Retryable: true}, false
	default:
		return movedto.DomainError{Code: movedto.CodeMoveIllegal, Message: "Invalid move generated", Retryable: true}, false
	}
}

// ToResponse maps a result to the JSON body and HTTP status of the move
// endpoints.
func ToResponse(res Result, err error) (movedto.MoveResponse, int) {
	de, ok := ToDomainError(res, err)
	if ok {
		return movedto.MoveResponse{
			Move:      res.Move,
			ResultFEN: res.Resulting.FEN(),
			Status:    StatusOf(res.Resulting),
			AttemptID: res.AttemptID,
		}, http.StatusOK
	}
	body := movedto.MoveResponse{
		Error:     de.Error(),
		Code:      de.Code,
		Retryable: de.Retryable,
		AttemptID: res.AttemptID,
	}
	if err != nil {
		if de.Code == movedto.CodeMalformedPosition {
			body.Detail = err.Error()
		}
	} else {
		body.Detail = res.Detail
	}
	return body, statusFor(de.Code)
}

// StatusOf reports check and game-over state for pos.
func StatusOf(pos *chess.Position) *movedto.GameStatus {
	if pos == nil {
		return nil
	}
	st := chess.Describe(pos)
	return &movedto.GameStatus{
		State:   st.Status,
		Turn:    st.Turn,
		Winner:  st.Winner,
		Method:  st.Method,
		InCheck: st.InCheck,
		Line:    st.Line(),
	}
}

func statusFor(code string) int {
	switch code {
	case movedto.CodeMalformedPosition, movedto.CodeInvalidRequest:
		return http.StatusBadRequest
	case movedto.CodeMoveUnparseable, movedto.CodeMoveIllegal:
		return http.StatusUnprocessableEntity
	case movedto.CodeNoLegalMoves:
		return http.StatusConflict
	case movedto.CodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case movedto.CodeUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
