package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-llm-move/internal/msgcat"
)

const preamble = "The last move did not work. Please try again."

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	b, err := NewBuilder(cat)
	require.NoError(t, err)
	return b
}

func TestBuild_FirstAttempt(t *testing.T) {
	b := newBuilder(t)
	diagram := "rnbqkbnr\npppppppp\n        \n        \n        \n        \nPPPPPPPP\nRNBQKBNR\nTurn: White"
	out, err := b.Build(diagram, "1500", []string{"a2a3", "e2e4"}, false)
	require.NoError(t, err)

	require.False(t, strings.Contains(out, preamble))
	require.True(t, strings.HasPrefix(out, "You are playing chess at a skill level of 1500."))
	require.Contains(t, out, "\n\n"+diagram+"\n\n")
	require.Contains(t, out, "legal moves you can choose from: a2a3, e2e4.")
	require.Contains(t, out, "UCI format")
}

func TestBuild_RetryAddsPreamble(t *testing.T) {
	b := newBuilder(t)
	first, err := b.Build("d", "1200", []string{"e2e4"}, false)
	require.NoError(t, err)
	retry, err := b.Build("d", "1200", []string{"e2e4"}, true)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(retry, preamble+" "))
	require.Equal(t, preamble+" "+first, retry)
}

func TestBuild_EmptyMoveList(t *testing.T) {
	b := newBuilder(t)
	out, err := b.Build("d", "800", nil, false)
	require.NoError(t, err)
	require.Contains(t, out, "choose from: (none).")
}

func TestBuild_Deterministic(t *testing.T) {
	b := newBuilder(t)
	moves := []string{"a2a3", "b2b3", "g1f3"}
	a, err := b.Build("x", "label", moves, true)
	require.NoError(t, err)
	c, err := b.Build("x", "label", moves, true)
	require.NoError(t, err)
	require.Equal(t, a, c)
	require.Contains(t, a, "skill level of label.")
}

func TestNewBuilder_NilCatalog(t *testing.T) {
	_, err := NewBuilder(nil)
	require.Error(t, err)
}
