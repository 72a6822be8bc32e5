package document

import (
	"fmt"
	"strings"
	"sync"
)

// Buffer is an in-memory Document with live marker maintenance and org-style
// source block conventions (#+begin_src / #+end_src, #+RESULTS: sections).
type Buffer struct {
	mu      sync.Mutex
	key     string
	text    string
	markers []*Marker

	artifactRefreshes int
}

// Marker is a live position into a Buffer. Markers keep their place as text
// before them shifts. A marker inside a deleted span collapses to the start
// of the deletion. Insertion exactly at a marker leaves it in place.
type Marker struct {
	buf *Buffer
	off int
}

// Offset returns the marker's current byte offset.
func (m *Marker) Offset() int {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	return m.off
}

// NewBuffer creates a buffer with the given identity and initial text.
func NewBuffer(key, text string) *Buffer {
	return &Buffer{key: key, text: text}
}

// Key identifies the buffer.
func (b *Buffer) Key() string { return b.key }

// String returns the current text.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Len returns the current text length in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.text)
}

// NewPosition returns a live marker at offset, clamped to the buffer.
func (b *Buffer) NewPosition(offset int) Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.text) {
		offset = len(b.text)
	}
	m := &Marker{buf: b, off: offset}
	b.markers = append(b.markers, m)
	return m
}

// Insert inserts s at byte offset at, shifting markers after it.
func (b *Buffer) Insert(at int, s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.insertLocked(at, s)
}

// Delete removes the span [from, to), collapsing markers inside it.
func (b *Buffer) Delete(from, to int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteLocked(from, to)
}

func (b *Buffer) insertLocked(at int, s string) {
	if s == "" {
		return
	}
	if at < 0 {
		at = 0
	}
	if at > len(b.text) {
		at = len(b.text)
	}
	b.text = b.text[:at] + s + b.text[at:]
	for _, m := range b.markers {
		if m.off > at {
			m.off += len(s)
		}
	}
}

func (b *Buffer) deleteLocked(from, to int) {
	if from < 0 {
		from = 0
	}
	if to > len(b.text) {
		to = len(b.text)
	}
	if from >= to {
		return
	}
	n := to - from
	b.text = b.text[:from] + b.text[to:]
	for _, m := range b.markers {
		switch {
		case m.off >= to:
			m.off -= n
		case m.off > from:
			m.off = from
		}
	}
}

// BlockRegion describes one source block: the byte range from the start of
// the #+begin_src line to the end of the #+end_src line, and the body between
// the delimiter lines.
type BlockRegion struct {
	Start  int
	End    int
	Source string
}

// BlockAt returns the source block containing offset.
func (b *Buffer) BlockAt(offset int) (BlockRegion, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	start, end, ok := b.blockRegionAt(offset)
	if !ok {
		return BlockRegion{}, false
	}

	bodyStart := b.lineEndLocked(start)
	if bodyStart < len(b.text) {
		bodyStart++
	}
	endLineStart := strings.LastIndexByte(b.text[:end], '\n') + 1

	source := ""
	if bodyStart < endLineStart {
		source = b.text[bodyStart:endLineStart]
	}
	return BlockRegion{Start: start, End: end, Source: source}, true
}

// IsSourceBlockAt reports whether p currently sits inside a source block.
func (b *Buffer) IsSourceBlockAt(p Position) bool {
	off := p.Offset()
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _, ok := b.blockRegionAt(off)
	return ok
}

// ReplaceResultAt writes text as the result of the block ending at end. An
// existing #+RESULTS: section after the block is overwritten; otherwise a new
// one is inserted. Result lines use the org fixed-width ": " prefix.
func (b *Buffer) ReplaceResultAt(start, end Position, text string) error {
	s := start.Offset()
	e := end.Offset()
	if s == e {
		return fmt.Errorf("degenerate anchor at offset %d", s)
	}
	if s > e {
		s, e = e, s
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if e > len(b.text) {
		return fmt.Errorf("anchor end %d past buffer end %d", e, len(b.text))
	}

	content := formatResultLines(text)

	// Insertion point is the start of the line after the one holding the
	// end anchor (the #+end_src line).
	insertAt := b.lineEndLocked(e)
	if insertAt < len(b.text) {
		insertAt++ // past the newline
	} else {
		b.insertLocked(insertAt, "\n")
		insertAt = len(b.text)
	}

	// Skip blank lines looking for an existing results section.
	scan := insertAt
	for scan < len(b.text) {
		le := b.lineEndLocked(scan)
		line := b.text[scan:le]
		if strings.TrimSpace(line) != "" {
			if strings.HasPrefix(strings.ToLower(line), "#+results:") {
				// Replace the content lines that follow the header.
				contentStart := le
				if contentStart < len(b.text) {
					contentStart++
				}
				contentEnd := contentStart
				for contentEnd < len(b.text) {
					ce := b.lineEndLocked(contentEnd)
					if !strings.HasPrefix(b.text[contentEnd:ce], ": ") {
						break
					}
					contentEnd = ce
					if contentEnd < len(b.text) {
						contentEnd++
					}
				}
				b.deleteLocked(contentStart, contentEnd)
				b.insertLocked(contentStart, content)
				return nil
			}
			break
		}
		scan = le
		if scan < len(b.text) {
			scan++
		}
	}

	b.insertLocked(insertAt, "#+RESULTS:\n"+content)
	return nil
}

// RefreshInlineArtifacts counts refresh requests; an editor front end would
// re-render inline images here.
func (b *Buffer) RefreshInlineArtifacts() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.artifactRefreshes++
}

// ArtifactRefreshes returns how many inline-artifact refreshes were requested.
func (b *Buffer) ArtifactRefreshes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.artifactRefreshes
}

// blockRegionAt returns the [start, end] byte range of the source block
// containing off, where start is the beginning of the #+begin_src line and
// end is the end of the #+end_src line.
func (b *Buffer) blockRegionAt(off int) (int, int, bool) {
	if off < 0 || off > len(b.text) {
		return 0, 0, false
	}

	lineStart := 0
	blockStart := -1
	for lineStart <= len(b.text) {
		lineEnd := b.lineEndLocked(lineStart)
		line := strings.ToLower(strings.TrimSpace(b.text[lineStart:lineEnd]))
		switch {
		case strings.HasPrefix(line, "#+begin_src"):
			blockStart = lineStart
		case strings.HasPrefix(line, "#+end_src"):
			if blockStart >= 0 && off >= blockStart && off <= lineEnd {
				return blockStart, lineEnd, true
			}
			blockStart = -1
		}
		if lineEnd >= len(b.text) {
			break
		}
		lineStart = lineEnd + 1
	}
	return 0, 0, false
}

// lineEndLocked returns the offset of the newline terminating the line that
// contains off, or len(text) for the final line.
func (b *Buffer) lineEndLocked(off int) int {
	if off >= len(b.text) {
		return len(b.text)
	}
	i := strings.IndexByte(b.text[off:], '\n')
	if i < 0 {
		return len(b.text)
	}
	return off + i
}

func formatResultLines(text string) string {
	trimmed := strings.TrimSuffix(text, "\n")
	if trimmed == "" {
		return ": \n"
	}
	var sb strings.Builder
	for _, line := range strings.Split(trimmed, "\n") {
		sb.WriteString(": ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
