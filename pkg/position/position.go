package position

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// ErrOutOfBounds is returned when a byte offset lies past the end of a Buffer.
var ErrOutOfBounds = errors.Base("position out of bounds")

// Place is a zero-based line and code point column.
type Place struct {
	Line      int
	Character int
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Overlaps reports whether the two half-open spans share at least one byte. An empty span overlaps
// a span containing its offset.
func (s Span) Overlaps(o Span) bool {
	switch {
	case s.Start == s.End:
		return o.Contains(s.Start)
	case o.Start == o.End:
		return s.Contains(o.Start)
	}
	return s.Start < o.End && o.Start < s.End
}

// Contains reports whether offset lies in [Start, End).
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}
