package chess

import (
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// ReadableDiagram expands the placement field of the position into one line
// per rank (rank 8 first), one space per empty square, followed by a
// "Turn: White" or "Turn: Black" line. Leading blanks are kept so every rank
// line is exactly eight characters wide.
func ReadableDiagram(pos *Position) string {
	if pos == nil {
		return ""
	}
	placement := strings.Fields(pos.FEN())[0]

	var sb strings.Builder
	sb.Grow(9*8 + 16)
	for _, rank := range strings.Split(placement, "/") {
		for _, r := range rank {
			if r >= '1' && r <= '8' {
				sb.WriteString(strings.Repeat(" ", int(r-'0')))
				continue
			}
			sb.WriteRune(r)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("Turn: ")
	sb.WriteString(turnLabel(pos.Turn()))
	return sb.String()
}

func turnLabel(c nchess.Color) string {
	if c == nchess.Black {
		return "Black"
	}
	return "White"
}
