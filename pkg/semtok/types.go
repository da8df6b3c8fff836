package semtok

import (
	"fmt"

	"github.com/walteh/guils/pkg/position"
)

// Kind is the classification the lexer assigns to a byte range.
type Kind uint8

const (
	// KindIgnore is anything that is not highlighted (identifiers, braces, comments)
	KindIgnore Kind = iota

	// KindBool is a boolean literal (true, false)
	KindBool

	// KindNumber is a numeric literal
	KindNumber

	// KindString is a quoted string literal, quotes included
	KindString

	// KindDirective is a preprocessor style directive (#include)
	KindDirective

	// KindSetter is a property name (.title)
	KindSetter

	// KindDefinition is a type or class definition name (@Window)
	KindDefinition

	// KindInherits is the inheritance operator (:)
	KindInherits

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindIgnore:
		return "ignore"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDirective:
		return "directive"
	case KindSetter:
		return "setter"
	case KindDefinition:
		return "definition"
	case KindInherits:
		return "inherits"
	default:
		return "unknown"
	}
}

// Token is a classified half-open byte range of the text it was lexed from.
type Token struct {
	Kind Kind
	Span position.Span
}

func NewToken(kind Kind, start, end int) Token {
	return Token{Kind: kind, Span: position.Span{Start: start, End: end}}
}

func (t Token) String() string {
	return fmt.Sprintf("%s@%d-%d", t.Kind, t.Span.Start, t.Span.End)
}

// Encoded is one entry of a semantic tokens response before flattening.
type Encoded struct {
	DeltaLine  uint32
	DeltaStart uint32
	Length     uint32
	TokenType  uint32
	Modifiers  uint32
}

// Flatten converts encoded entries to the integer array sent on the wire.
func Flatten(enc []Encoded) []uint32 {
	data := make([]uint32, 0, len(enc)*5)
	for _, e := range enc {
		data = append(data, e.DeltaLine, e.DeltaStart, e.Length, e.TokenType, e.Modifiers)
	}
	return data
}

// Absolute is an Encoded entry resolved back to its line and start column.
type Absolute struct {
	Line      uint32
	Character uint32
	Length    uint32
	TokenType uint32
}

// Decode reverses the relative encoding. It is the inverse a client applies to a response.
func Decode(enc []Encoded) []Absolute {
	out := make([]Absolute, 0, len(enc))
	var line, char uint32
	for _, e := range enc {
		if e.DeltaLine == 0 {
			char += e.DeltaStart
		} else {
			line += e.DeltaLine
			char = e.DeltaStart
		}
		out = append(out, Absolute{Line: line, Character: char, Length: e.Length, TokenType: e.TokenType})
	}
	return out
}
