package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `Some prose.

#+begin_src julia
1 + 1
#+end_src

More prose.
`

func blockAnchors(t *testing.T, b *Buffer) (Position, Position) {
	t.Helper()
	text := b.String()
	start := strings.Index(text, "#+begin_src")
	require.GreaterOrEqual(t, start, 0)
	endLine := strings.Index(text, "#+end_src")
	require.GreaterOrEqual(t, endLine, 0)
	end := endLine + len("#+end_src")
	return b.NewPosition(start), b.NewPosition(end)
}

func TestMarkerShiftsOnInsertBefore(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	start, end := blockAnchors(t, b)

	s0, e0 := start.Offset(), end.Offset()
	b.Insert(0, "A new first line.\n")

	assert.Equal(t, s0+18, start.Offset())
	assert.Equal(t, e0+18, end.Offset())
}

func TestMarkerUnaffectedByInsertAfter(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	start, end := blockAnchors(t, b)

	s0, e0 := start.Offset(), end.Offset()
	b.Insert(b.Len(), "Trailing text.\n")

	assert.Equal(t, s0, start.Offset())
	assert.Equal(t, e0, end.Offset())
}

func TestMarkerCollapsesWhenSpanDeleted(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	start, end := blockAnchors(t, b)

	b.Delete(start.Offset(), end.Offset()+1)

	assert.Equal(t, start.Offset(), end.Offset())
}

func TestIsSourceBlockAt(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	start, end := blockAnchors(t, b)

	assert.True(t, b.IsSourceBlockAt(start))
	assert.True(t, b.IsSourceBlockAt(end))
	assert.False(t, b.IsSourceBlockAt(b.NewPosition(0)))
	assert.False(t, b.IsSourceBlockAt(b.NewPosition(b.Len())))
}

func TestIsSourceBlockAtAfterBlockRemoved(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	start, end := blockAnchors(t, b)

	// Replace the block with prose.
	b.Delete(start.Offset(), end.Offset())
	b.Insert(start.Offset(), "no block here")

	assert.False(t, b.IsSourceBlockAt(start))
}

func TestReplaceResultAtInsertsResultsSection(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	start, end := blockAnchors(t, b)

	require.NoError(t, b.ReplaceResultAt(start, end, "2\n"))

	text := b.String()
	assert.Contains(t, text, "#+end_src\n#+RESULTS:\n: 2\n")
	// Prose after the block is untouched.
	assert.Contains(t, text, "More prose.")
}

func TestReplaceResultAtOverwritesPriorResult(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	start, end := blockAnchors(t, b)

	require.NoError(t, b.ReplaceResultAt(start, end, "2\n"))
	require.NoError(t, b.ReplaceResultAt(start, end, "42\n"))

	text := b.String()
	assert.Equal(t, 1, strings.Count(text, "#+RESULTS:"))
	assert.Contains(t, text, ": 42\n")
	assert.NotContains(t, text, ": 2\n")
}

func TestReplaceResultAtMultiline(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	start, end := blockAnchors(t, b)

	require.NoError(t, b.ReplaceResultAt(start, end, "a\nb\nc\n"))

	assert.Contains(t, b.String(), "#+RESULTS:\n: a\n: b\n: c\n")
}

func TestReplaceResultAtDegenerateAnchor(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	p := b.NewPosition(5)
	q := b.NewPosition(5)

	assert.Error(t, b.ReplaceResultAt(p, q, "x"))
}

func TestReplaceResultAtEndOfBuffer(t *testing.T) {
	doc := "#+begin_src julia\n1\n#+end_src"
	b := NewBuffer("doc", doc)
	start := b.NewPosition(0)
	end := b.NewPosition(len(doc))

	require.NoError(t, b.ReplaceResultAt(start, end, "1\n"))
	assert.Contains(t, b.String(), "#+RESULTS:\n: 1\n")
}

func TestBlockAtReturnsRegionAndSource(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	off := strings.Index(sampleDoc, "1 + 1")

	region, ok := b.BlockAt(off)
	require.True(t, ok)
	assert.Equal(t, strings.Index(sampleDoc, "#+begin_src"), region.Start)
	assert.Equal(t, strings.Index(sampleDoc, "#+end_src")+len("#+end_src"), region.End)
	assert.Equal(t, "1 + 1\n", region.Source)
}

func TestBlockAtOutsideBlock(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	_, ok := b.BlockAt(0)
	assert.False(t, ok)
}

func TestArtifactRefreshCounter(t *testing.T) {
	b := NewBuffer("doc", sampleDoc)
	b.RefreshInlineArtifacts()
	b.RefreshInlineArtifacts()
	assert.Equal(t, 2, b.ArtifactRefreshes())
}
