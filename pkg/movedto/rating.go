package movedto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SkillRating is the strength the model is asked to play at. It is passed
// through verbatim, so "1500" and "club player" are both fine.
type SkillRating string

// UnmarshalJSON accepts a JSON string or number.
func (r *SkillRating) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = SkillRating(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("rating must be a string or number: %w", err)
	}
	*r = SkillRating(n.String())
	return nil
}

func (r SkillRating) String() string { return string(r) }
