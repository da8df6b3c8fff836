package position

import (
	"sort"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// Buffer is an immutable text with a precomputed line start index.
//
// Line breaks are "\n", "\r\n" and a lone "\r". Looking up the line of a byte offset is a binary
// search over the index; the column is the code point count between the line start and the offset.
// A Buffer is never edited, a change produces a new Buffer.
type Buffer struct {
	text       string
	lineStarts []int
}

// NewBuffer indexes text. The returned Buffer is safe for concurrent reads.
func NewBuffer(text string) *Buffer {
	starts := make([]int, 1, 1+len(text)/32)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			starts = append(starts, i+1)
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				continue
			}
			starts = append(starts, i+1)
		}
	}
	return &Buffer{text: text, lineStarts: starts}
}

func (b *Buffer) String() string {
	return b.text
}

// Len is the byte length of the text.
func (b *Buffer) Len() int {
	return len(b.text)
}

// LineCount is the number of lines, an empty text and a text ending in a line break both count the
// trailing empty line.
func (b *Buffer) LineCount() int {
	return len(b.lineStarts)
}

// LineStart returns the byte offset where line begins.
func (b *Buffer) LineStart(line int) (int, error) {
	if line < 0 || line >= len(b.lineStarts) {
		return 0, errors.WithDetails(ErrOutOfBounds, "line", line, "lines", len(b.lineStarts))
	}
	return b.lineStarts[line], nil
}

// lineEnd is the offset of the line break terminating line, or the buffer length for the last line.
func (b *Buffer) lineEnd(line int) int {
	if line+1 >= len(b.lineStarts) {
		return len(b.text)
	}
	end := b.lineStarts[line+1] - 1
	if end > b.lineStarts[line] && b.text[end] == '\n' && b.text[end-1] == '\r' {
		end--
	}
	return end
}

// Line returns the zero-based line containing offset. An offset equal to a line start belongs to
// that line.
func (b *Buffer) Line(offset int) (int, error) {
	if offset < 0 || offset > len(b.text) {
		return 0, errors.WithDetails(ErrOutOfBounds, "offset", offset, "len", len(b.text))
	}
	// first line start strictly after offset, minus one
	return sort.SearchInts(b.lineStarts, offset+1) - 1, nil
}

// Place converts a byte offset to a line and code point column.
func (b *Buffer) Place(offset int) (Place, error) {
	line, err := b.Line(offset)
	if err != nil {
		return Place{}, err
	}
	start := b.lineStarts[line]
	return Place{Line: line, Character: utf8.RuneCountInString(b.text[start:offset])}, nil
}

// Offset converts a place back to a byte offset. A column past the end of the line clamps to the
// line end and a line past the last line clamps to the end of the buffer.
func (b *Buffer) Offset(p Place) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(b.lineStarts) {
		return len(b.text)
	}
	off := b.lineStarts[p.Line]
	end := b.lineEnd(p.Line)
	for n := 0; n < p.Character && off < end; n++ {
		_, size := utf8.DecodeRuneInString(b.text[off:end])
		off += size
	}
	return off
}
