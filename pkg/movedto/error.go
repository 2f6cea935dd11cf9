package movedto

const (
	CodeMalformedPosition = "MALFORMED_POSITION"
	CodeUpstreamFailure   = "UPSTREAM_FAILURE"
	CodeUpstreamTimeout   = "UPSTREAM_TIMEOUT"
	CodeMoveUnparseable   = "MOVE_UNPARSEABLE"
	CodeMoveIllegal       = "MOVE_ILLEGAL"
	CodeNoLegalMoves      = "NO_LEGAL_MOVES"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeRateLimited       = "RATE_LIMITED"
	CodeNotFound          = "NOT_FOUND"
	CodeUnavailable       = "UNAVAILABLE"
	CodeInternal          = "INTERNAL"
)

type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "move service error"
}
