package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream matches every failure to obtain a completion.
	ErrUpstream = errors.New("llm upstream failure")
	// ErrUpstreamTimeout matches failures caused by a deadline.
	ErrUpstreamTimeout = errors.New("llm upstream timeout")
)

// UpstreamError describes why the completion service gave no usable text.
type UpstreamError struct {
	Detail  string
	Status  int
	Timeout bool
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := "llm upstream"
	if e.Timeout {
		msg += " timeout"
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" status=%d", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *UpstreamError) Is(target error) bool {
	if target == ErrUpstream {
		return true
	}
	return e.Timeout && target == ErrUpstreamTimeout
}

func (e *UpstreamError) Unwrap() error { return e.Err }
