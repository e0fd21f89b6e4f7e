package ingest

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestSplitText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := splitText("hello", 10, 2)
		gt.Array(t, chunks).Length(1)
		gt.Value(t, chunks[0]).Equal("hello")
	})

	t.Run("window advances by size minus overlap", func(t *testing.T) {
		chunks := splitText("abcdefghij", 4, 2)
		gt.Array(t, chunks).Length(4).Required()
		gt.Value(t, chunks[0]).Equal("abcd")
		gt.Value(t, chunks[1]).Equal("cdef")
		gt.Value(t, chunks[2]).Equal("efgh")
		gt.Value(t, chunks[3]).Equal("ghij")
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		chunks := splitText("日本語のテキスト", 4, 1)
		gt.Array(t, chunks).Length(3).Required()
		gt.Value(t, chunks[0]).Equal("日本語の")
		gt.Value(t, chunks[1]).Equal("のテキス")
		gt.Value(t, chunks[2]).Equal("スト")
	})

	t.Run("empty input yields no chunks", func(t *testing.T) {
		gt.Array(t, splitText("", 10, 2)).Length(0)
	})

	t.Run("adjacent chunks share the overlap", func(t *testing.T) {
		text := strings.Repeat("x y ", 600)
		chunks := splitText(text, DefaultChunkSize, DefaultChunkOverlap)
		gt.Number(t, len(chunks)).Greater(1)
		for i := 1; i < len(chunks); i++ {
			head := []rune(chunks[i])[:DefaultChunkOverlap]
			tail := []rune(chunks[i-1])
			gt.Value(t, string(head)).Equal(string(tail[len(tail)-DefaultChunkOverlap:]))
		}
	})
}
