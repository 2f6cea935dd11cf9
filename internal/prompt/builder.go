package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/park285/cheese-llm-move/internal/msgcat"
	"github.com/park285/cheese-llm-move/pkg/movedto"
)

const (
	keyMove          = "prompt.move"
	keyRetryPreamble = "prompt.retry_preamble"
)

// Builder renders move prompts from the catalog templates.
type Builder struct {
	cat *msgcat.Catalog
}

func NewBuilder(cat *msgcat.Catalog) (*Builder, error) {
	if cat == nil {
		return nil, errors.New("prompt: catalog is required")
	}
	return &Builder{cat: cat}, nil
}

type moveData struct {
	Retry   string
	Rating  string
	Diagram string
	Moves   string
}

// Build is pure: the same inputs always give the same prompt.
func (b *Builder) Build(diagram string, rating movedto.SkillRating, legalMoves []string, isRetry bool) (string, error) {
	data := moveData{
		Rating:  string(rating),
		Diagram: diagram,
		Moves:   strings.Join(legalMoves, ", "),
	}
	if isRetry {
		pre, err := b.cat.Render(keyRetryPreamble, nil)
		if err != nil {
			return "", fmt.Errorf("render retry preamble: %w", err)
		}
		data.Retry = pre
	}
	out, err := b.cat.Render(keyMove, data)
	if err != nil {
		return "", fmt.Errorf("render move prompt: %w", err)
	}
	return out, nil
}
