package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Clean("a \t b\n\n  c"))
}

func TestCleanTrims(t *testing.T) {
	assert.Equal(t, "hello world", Clean("  \n hello world \t "))
}

func TestCleanStripsNonPrintable(t *testing.T) {
	assert.Equal(t, "ab", Clean("a\x00\x07b"))
}

func TestCleanEmptyAndWhitespaceOnly(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "", Clean(" \n\t "))
}

func TestCleanKeepsUnicodeText(t *testing.T) {
	assert.Equal(t, "日本語 テキスト", Clean(" 日本語 \n テキスト "))
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"  lots \t of \n space  ",
		"mixed\x00control\x1fchars",
		"",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once))
	}
}
