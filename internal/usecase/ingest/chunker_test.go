package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(tokens, " ")
}

func TestSlidingWindowProperty(t *testing.T) {
	// 450 tokens, window 200, overlap 0.25 -> stride 150 -> exactly 3
	// windows, consecutive windows sharing 50 tokens
	c := NewChunker(200, 0.25)
	chunks := c.Chunk(words(450))

	require.Len(t, chunks, 3)
	assert.Equal(t, 200, chunks[0].TokenCount)
	assert.Equal(t, 200, chunks[1].TokenCount)
	assert.Equal(t, 150, chunks[2].TokenCount)

	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Text)
	}

	first := strings.Fields(chunks[0].Text)
	second := strings.Fields(chunks[1].Text)
	third := strings.Fields(chunks[2].Text)
	// window 2 starts at token 150, window 3 at token 300
	assert.Equal(t, first[150:], second[:50])
	assert.Equal(t, second[150:], third[:50])
}

func TestChunkIndicesGapless(t *testing.T) {
	text := "INTRO before headings " + words(50) + "\nFACTS\n" + words(700) + "\nRULING\n" + words(30)
	c := NewChunker(200, 0.25)
	chunks := c.Chunk(text)

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index, "chunk indices must be 0..N-1 with no gaps")
	}
}

func TestSectionTagging(t *testing.T) {
	text := "PEOPLE v. EXAMPLE\nsome preamble text here\nFACTS\nthe facts of the case\nRULING\nthe court rules as follows"
	c := NewChunker(200, 0.25)
	chunks := c.Chunk(text)

	require.Len(t, chunks, 3)
	assert.Nil(t, chunks[0].SectionType)
	require.NotNil(t, chunks[1].SectionType)
	assert.Equal(t, "facts", *chunks[1].SectionType)
	require.NotNil(t, chunks[2].SectionType)
	assert.Equal(t, "ruling", *chunks[2].SectionType)
}

func TestOversizedSectionFallsBackToWindows(t *testing.T) {
	text := "FACTS\n" + words(700)
	c := NewChunker(200, 0.25)
	chunks := c.Chunk(text)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.NotNil(t, chunk.SectionType)
		assert.Equal(t, "facts", *chunk.SectionType)
		assert.LessOrEqual(t, chunk.TokenCount, 200)
	}
}

func TestFinalWindowTruncatedNotPadded(t *testing.T) {
	c := NewChunker(200, 0.25)
	chunks := c.Chunk(words(310))

	require.Len(t, chunks, 2)
	assert.Equal(t, 200, chunks[0].TokenCount)
	assert.Equal(t, 160, chunks[1].TokenCount)
}

func TestTrailingRuntMergesIntoPreviousWindow(t *testing.T) {
	// with no overlap, 405 tokens leave a 5-token tail at 400; that is
	// below the viable minimum and must merge backwards instead of
	// being emitted alone
	c := NewChunker(200, 0)
	chunks := c.Chunk(words(405))

	require.Len(t, chunks, 2)
	assert.Equal(t, 200, chunks[0].TokenCount)
	assert.Equal(t, 205, chunks[1].TokenCount)
}

func TestHeadingOnlyOrEmptyText(t *testing.T) {
	c := NewChunker(200, 0.25)
	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("   \n\t "))
}

func TestNoHeadingsUsesWholeTextWindow(t *testing.T) {
	c := NewChunker(200, 0.25)
	chunks := c.Chunk(words(100))
	require.Len(t, chunks, 1)
	assert.Nil(t, chunks[0].SectionType)
	assert.Equal(t, 100, chunks[0].TokenCount)
}

func TestZeroOverlapAdvancesFullWindow(t *testing.T) {
	c := NewChunker(100, 0)
	chunks := c.Chunk(words(250))
	require.Len(t, chunks, 3)
	assert.Equal(t, 100, chunks[0].TokenCount)
	assert.Equal(t, 100, chunks[1].TokenCount)
	assert.Equal(t, 50, chunks[2].TokenCount)
}
