package chunk

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebop/CLIche/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Disable()
	os.Exit(m.Run())
}

// reassemble concatenates chunk texts in order.
func reassemble(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

func checkInvariants(t *testing.T, corpus string, chunks []Chunk) {
	t.Helper()
	require.NotEmpty(t, chunks)
	assert.Equal(t, corpus, reassemble(chunks), "concatenated chunks must reproduce the corpus")

	prevEnd := 0
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.NotEmpty(t, c.Text, "chunk %d is empty", i)
		assert.Equal(t, prevEnd, c.Start, "chunk %d does not start where the previous ended", i)
		assert.Equal(t, corpus[c.Start:c.End], c.Text, "chunk %d text does not match its span", i)
		prevEnd = c.End
	}
	assert.Equal(t, len(corpus), prevEnd)
}

func TestSplitEmptyCorpus(t *testing.T) {
	assert.Nil(t, DefaultChunker().Split(""))
}

func TestSplitMarkdownHeadings(t *testing.T) {
	corpus := "intro paragraph before any heading.\n\n" +
		"## History\n\ntext about history.\n\n" +
		"## Design\n\ntext about design.\n\n" +
		"## Usage\n\ntext about usage.\n"

	chunks := DefaultChunker().Split(corpus)
	checkInvariants(t, corpus, chunks)
	require.Len(t, chunks, 4)
	assert.Equal(t, "", chunks[0].Heading, "preamble has no heading")
	assert.Equal(t, "History", chunks[1].Heading)
	assert.Equal(t, "Design", chunks[2].Heading)
	assert.Equal(t, "Usage", chunks[3].Heading)
}

func TestSplitCapitalizedLines(t *testing.T) {
	corpus := "Plain text document without markdown markers.\n\n" +
		"Overview\n\nsome overview text here.\n\n" +
		"Key Findings\n\nfindings go here.\n\n" +
		"Conclusion\n\nclosing remarks.\n"

	chunks := DefaultChunker().Split(corpus)
	checkInvariants(t, corpus, chunks)
	require.Len(t, chunks, 4)
	assert.Equal(t, "Overview", chunks[1].Heading)
	assert.Equal(t, "Key Findings", chunks[2].Heading)
	assert.Equal(t, "Conclusion", chunks[3].Heading)
}

func TestSplitFallsBackToParagraphGroups(t *testing.T) {
	// No headings at all: many lowercase paragraphs.
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(strings.Repeat("lorem ipsum dolor sit amet. ", 10))
		b.WriteString("\n\n")
	}
	corpus := b.String()

	chunks := (&Chunker{TargetSize: 1000, MaxSize: 2000}).Split(corpus)
	checkInvariants(t, corpus, chunks)
	assert.Greater(t, len(chunks), 3, "long unstructured text must still be sectioned")
}

func TestSplitEnforcesMaxSize(t *testing.T) {
	corpus := "## Only Heading\n\n" + strings.Repeat("sentence one. sentence two. ", 400)

	chunks := (&Chunker{TargetSize: 1000, MaxSize: 2000}).Split(corpus)
	checkInvariants(t, corpus, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 2000, "chunk %d exceeds the hard limit", c.Index)
	}
}

func TestSplitForceCutsBoundaryFreeText(t *testing.T) {
	corpus := strings.Repeat("x", 10_000)

	chunks := (&Chunker{TargetSize: 3000, MaxSize: 4000}).Split(corpus)
	checkInvariants(t, corpus, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 4000)
	}
}

func TestCapitalLineHeading(t *testing.T) {
	assert.True(t, capitalLineHeading("Overview"))
	assert.True(t, capitalLineHeading("Key Findings, Explained"))
	assert.False(t, capitalLineHeading("lowercase line"))
	assert.False(t, capitalLineHeading(""))
	assert.False(t, capitalLineHeading("This line is way too long to be treated as a heading at all"))
	assert.False(t, capitalLineHeading("Has a period."))
}
