package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyText(t *testing.T) {
	assert.Nil(t, Chunk("", 100, 10))
}

func TestChunkShorterThanSize(t *testing.T) {
	chunks := Chunk("hello world", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestChunkOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 runes
	chunks := Chunk(text, 40, 10)

	require.Len(t, chunks, 3)
	assert.Equal(t, text[0:40], chunks[0])
	assert.Equal(t, text[30:70], chunks[1])
	assert.Equal(t, text[60:100], chunks[2])

	// consecutive chunks share exactly the overlap
	assert.Equal(t, chunks[0][30:], chunks[1][:10])
	assert.Equal(t, chunks[1][30:], chunks[2][:10])
}

func TestChunkKeepsTrailingContent(t *testing.T) {
	text := strings.Repeat("x", 105)
	chunks := Chunk(text, 50, 0)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 5)

	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(c)
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestChunkExactBoundary(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := Chunk(text, 50, 0)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[1], 50)
}

func TestChunkMultibyteRunes(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 10) // 60 runes
	chunks := Chunk(text, 25, 5)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 25)
	}
	// reassembling without the overlapped prefixes restores the text
	var rebuilt []rune
	for i, c := range chunks {
		runes := []rune(c)
		if i > 0 {
			runes = runes[5:]
		}
		rebuilt = append(rebuilt, runes...)
	}
	assert.Equal(t, text, string(rebuilt))
}

func TestChunkDeterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox ", 200)
	first := Chunk(text, 0, -1)
	second := Chunk(text, 0, -1)
	assert.Equal(t, first, second)
}

func TestChunkDefaults(t *testing.T) {
	text := strings.Repeat("a", DefaultChunkSize+100)
	chunks := Chunk(text, 0, -1)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], DefaultChunkSize)
}

func TestChunkOverlapClampedBelowSize(t *testing.T) {
	text := strings.Repeat("x", 30)
	chunks := Chunk(text, 10, 20)
	require.NotEmpty(t, chunks)
	// the clamped overlap still makes forward progress
	assert.Less(t, len(chunks), 10)
}
