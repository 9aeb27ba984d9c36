package fetch

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sizzlebop/CLIche/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Disable()
	os.Exit(m.Run())
}

func TestTruncateAtBoundaryShortInput(t *testing.T) {
	assert.Equal(t, "hello", TruncateAtBoundary("hello", 100))
	assert.Equal(t, "hello", TruncateAtBoundary("hello", 0), "non-positive limit means no cap")
}

func TestTruncateAtBoundaryPrefersParagraph(t *testing.T) {
	first := strings.Repeat("a", 90)
	second := strings.Repeat("b", 100)
	s := first + "\n\n" + second

	got := TruncateAtBoundary(s, 100)
	assert.Equal(t, first, got, "cut should land on the paragraph break inside the window")
}

func TestTruncateAtBoundaryFallsBackToSentence(t *testing.T) {
	s := strings.Repeat("x", 85) + ". " + strings.Repeat("y", 100)

	got := TruncateAtBoundary(s, 100)
	assert.Equal(t, strings.Repeat("x", 85)+".", got)
}

func TestTruncateAtBoundaryHardCut(t *testing.T) {
	s := strings.Repeat("z", 500)

	got := TruncateAtBoundary(s, 100)
	assert.Len(t, got, 100, "boundary-free text gets a hard cut at the limit")
}

func TestTruncateAtBoundaryIgnoresEarlyBoundaries(t *testing.T) {
	// The only paragraph break sits before the trailing window, so it must
	// not be chosen over a hard cut.
	s := "short.\n\n" + strings.Repeat("w", 300)

	got := TruncateAtBoundary(s, 200)
	assert.Len(t, got, 200)
}
