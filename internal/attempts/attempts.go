package attempts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/park285/cheese-llm-move/internal/domain"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Recorder persists one attempt.
type Recorder interface {
	Record(ctx context.Context, a domain.Attempt) error
}

// Reader lists recent attempts for a position, newest first.
type Reader interface {
	Recent(ctx context.Context, fen string, limit int) ([]domain.Attempt, error)
}

// PositionKey is the stable index key for a FEN.
func PositionKey(fen string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(fen)))
	return hex.EncodeToString(sum[:])
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Fanout records to every recorder and reports all failures together.
type Fanout struct {
	recorders []Recorder
}

func NewFanout(recorders ...Recorder) *Fanout {
	f := &Fanout{}
	for _, r := range recorders {
		if r != nil {
			f.recorders = append(f.recorders, r)
		}
	}
	return f
}

func (f *Fanout) Len() int { return len(f.recorders) }

func (f *Fanout) Record(ctx context.Context, a domain.Attempt) error {
	var result *multierror.Error
	for _, r := range f.recorders {
		if err := r.Record(ctx, a); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
