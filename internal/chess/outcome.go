package chess

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind int

const (
	OutcomeAccepted OutcomeKind = iota
	OutcomeRejected
	OutcomeUpstreamFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUpstreamFailure:
		return "upstream_failure"
	default:
		return "unknown"
	}
}

// RejectReason explains a Rejected outcome.
type RejectReason string

const (
	ReasonUnparseable  RejectReason = "unparseable"
	ReasonIllegal      RejectReason = "illegal"
	ReasonNoLegalMoves RejectReason = "no legal moves"
)

// Outcome is the result of one proposal attempt. Move and Resulting are set
// only when Kind is OutcomeAccepted, Reason only for OutcomeRejected and
// Detail for OutcomeUpstreamFailure (and optionally Rejected).
type Outcome struct {
	Kind      OutcomeKind
	Move      string
	Resulting *Position
	Reason    RejectReason
	Detail    string
}

func Accepted(move string, resulting *Position) Outcome {
	return Outcome{Kind: OutcomeAccepted, Move: move, Resulting: resulting}
}

func Rejected(reason RejectReason, detail string) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason, Detail: detail}
}

func UpstreamFailure(detail string) Outcome {
	return Outcome{Kind: OutcomeUpstreamFailure, Detail: detail}
}

func (o Outcome) IsAccepted() bool { return o.Kind == OutcomeAccepted }
