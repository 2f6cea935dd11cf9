package chess

import (
	"errors"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/stretchr/testify/require"
)

const (
	startFEN     = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	foolsMateFEN = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	stalemateFEN = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	promotionFEN = "8/P7/8/8/8/8/8/k6K w - - 0 1"
)

func mustParse(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParsePosition(fen)
	require.NoError(t, err)
	return pos
}

func TestParsePosition_Malformed(t *testing.T) {
	cases := []string{
		"",
		"not a fen",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/ppppXppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	}
	for _, fen := range cases {
		_, err := ParsePosition(fen)
		require.Error(t, err, fen)
		require.True(t, errors.Is(err, ErrMalformedPosition), fen)
	}
}

func TestReadableDiagram_StartPosition(t *testing.T) {
	pos := mustParse(t, startFEN)
	want := strings.Join([]string{
		"rnbqkbnr",
		"pppppppp",
		"        ",
		"        ",
		"        ",
		"        ",
		"PPPPPPPP",
		"RNBQKBNR",
		"Turn: White",
	}, "\n")
	require.Equal(t, want, ReadableDiagram(pos))
}

func TestReadableDiagram_Deterministic(t *testing.T) {
	pos := mustParse(t, foolsMateFEN)
	first := ReadableDiagram(pos)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, ReadableDiagram(pos))
	}
	lines := strings.Split(first, "\n")
	require.Len(t, lines, 9)
	require.Equal(t, "      Pq", lines[4])
	for _, l := range lines[:8] {
		require.Len(t, l, 8)
	}
}

func TestReadableDiagram_BlackToMove(t *testing.T) {
	pos := mustParse(t, stalemateFEN)
	require.True(t, strings.HasSuffix(ReadableDiagram(pos), "\nTurn: Black"))
	require.True(t, strings.HasPrefix(ReadableDiagram(pos), "       k\n"))
}

func TestLegalMoves_StableAndComplete(t *testing.T) {
	pos := mustParse(t, startFEN)
	moves := LegalMoves(pos)
	require.Len(t, moves, 20)
	require.Equal(t, moves, LegalMoves(pos))
	require.Contains(t, moves, "e2e4")
	require.Contains(t, moves, "g1f3")
	require.NotContains(t, moves, "e2e5")
}

func TestLegalMoves_TerminalPositions(t *testing.T) {
	require.Empty(t, LegalMoves(mustParse(t, foolsMateFEN)))
	require.Empty(t, LegalMoves(mustParse(t, stalemateFEN)))
}

func TestParseMoveToken(t *testing.T) {
	tok, err := ParseMoveToken("e7e8q")
	require.NoError(t, err)
	require.Equal(t, MoveToken{From: "e7", To: "e8", Promo: "q"}, tok)

	for _, bad := range []string{"", "e2", "zz99", "E2E4", "e2e4Q", "e2e4k", "e2e4qq", " e2e4", "e9e4", "i2e4"} {
		_, err := ParseMoveToken(bad)
		require.ErrorIs(t, err, ErrUnparseableMove, bad)
	}
}

func TestValidate_ScenarioA_Accepted(t *testing.T) {
	pos := mustParse(t, startFEN)
	out := Validate(pos, "e2e4")
	require.Equal(t, OutcomeAccepted, out.Kind)
	require.Equal(t, "e2e4", out.Move)
	require.NotNil(t, out.Resulting)
	require.Equal(t, nchess.Black, out.Resulting.Turn())
	require.True(t, strings.HasPrefix(out.Resulting.FEN(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b "))

	// the input position is not advanced
	require.Equal(t, nchess.White, pos.Turn())
	require.True(t, strings.HasPrefix(pos.FEN(), "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w "))
}

func TestValidate_ScenarioB_Illegal(t *testing.T) {
	pos := mustParse(t, startFEN)
	out := Validate(pos, "e2e5")
	require.Equal(t, OutcomeRejected, out.Kind)
	require.Equal(t, ReasonIllegal, out.Reason)
	require.Nil(t, out.Resulting)
}

func TestValidate_ScenarioC_Unparseable(t *testing.T) {
	pos := mustParse(t, startFEN)
	for _, tok := range []string{"zz99", "E2E4", "Nf3", "e4", "I play e2e4"} {
		out := Validate(pos, tok)
		require.Equal(t, OutcomeRejected, out.Kind, tok)
		require.Equal(t, ReasonUnparseable, out.Reason, tok)
	}
}

func TestValidate_RejectionIsIdempotent(t *testing.T) {
	pos := mustParse(t, startFEN)
	for i := 0; i < 3; i++ {
		out := Validate(pos, "a1a8")
		require.Equal(t, ReasonIllegal, out.Reason)
	}
}

func TestValidate_Promotion(t *testing.T) {
	pos := mustParse(t, promotionFEN)

	out := Validate(pos, "a7a8")
	require.Equal(t, ReasonIllegal, out.Reason, "promotion suffix is mandatory")

	out = Validate(pos, "a7a8x")
	require.Equal(t, ReasonUnparseable, out.Reason)

	for _, promo := range []string{"q", "r", "b", "n"} {
		out = Validate(pos, "a7a8"+promo)
		require.Equal(t, OutcomeAccepted, out.Kind, promo)
	}

	// a suffix on a non-promotion move is well formed but illegal
	out = Validate(mustParse(t, startFEN), "e2e4q")
	require.Equal(t, ReasonIllegal, out.Reason)
}

func TestValidate_ConsistentWithApply(t *testing.T) {
	for _, fen := range []string{startFEN, promotionFEN, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"} {
		pos := mustParse(t, fen)
		for _, mv := range LegalMoves(pos) {
			out := Validate(pos, mv)
			require.Equal(t, OutcomeAccepted, out.Kind, mv)

			direct, err := Apply(pos, mv)
			require.NoError(t, err, mv)
			require.Equal(t, direct.FEN(), out.Resulting.FEN(), mv)
			require.NotEqual(t, pos.Turn(), out.Resulting.Turn(), mv)
		}
	}
}

func TestApply_RejectsIllegal(t *testing.T) {
	_, err := Apply(mustParse(t, startFEN), "e2e5")
	require.Error(t, err)
}

func TestParsePosition_ImpossiblePositions(t *testing.T) {
	cases := []string{
		// black king attacked with white to move
		"4k3/4Q3/8/8/8/8/8/4K3 w - - 0 1",
		// no white king
		"4k3/8/8/8/8/8/8/7Q w - - 0 1",
		// two black kings
		"k3k3/8/8/8/8/8/8/4K3 w - - 0 1",
	}
	for _, fen := range cases {
		_, err := ParsePosition(fen)
		require.ErrorIs(t, err, ErrMalformedPosition, fen)
	}

	// the side to move may be in check
	pos := mustParse(t, "4k3/4Q3/8/8/8/8/8/4K3 b - - 0 1")
	require.True(t, InCheck(pos))
}

func TestParsePosition_FourFields(t *testing.T) {
	pos := mustParse(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
	require.Equal(t, startFEN, pos.FEN())

	_, err := ParsePosition("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0")
	require.ErrorIs(t, err, ErrMalformedPosition)
}

func TestDescribe(t *testing.T) {
	st := Describe(mustParse(t, startFEN))
	require.Equal(t, StateOngoing, st.Status)
	require.False(t, st.InCheck)
	require.Equal(t, "White to move", st.Line())

	st = Describe(mustParse(t, foolsMateFEN))
	require.Equal(t, StateCheckmate, st.Status)
	require.Equal(t, "Black", st.Winner)
	require.Equal(t, "Checkmate! Black wins", st.Line())

	st = Describe(mustParse(t, stalemateFEN))
	require.Equal(t, StateStalemate, st.Status)
	require.Equal(t, "Game over, drawn position", st.Line())

	st = Describe(mustParse(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1"))
	require.Equal(t, StateDraw, st.Status)
	require.Equal(t, "InsufficientMaterial", st.Method)

	st = Describe(mustParse(t, "4k3/8/8/8/8/8/4r3/4K3 w - - 0 1"))
	require.Equal(t, StateCheck, st.Status)
	require.True(t, st.InCheck)
	require.Equal(t, "White to move, White is in check", st.Line())
}
