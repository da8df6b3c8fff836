package semtok

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/guils/pkg/position"
)

// Encode produces the relative encoding of every token in the document.
// The input slice is not modified. The result is never nil.
func Encode(ctx context.Context, buf *position.Buffer, tokens []Token) []Encoded {
	return encode(ctx, buf, sorted(tokens), nil)
}

// EncodeRange is Encode restricted to tokens overlapping span. Deltas are still relative to the
// start of the document for the first emitted token, as the protocol requires.
func EncodeRange(ctx context.Context, buf *position.Buffer, tokens []Token, span position.Span) []Encoded {
	return encode(ctx, buf, sorted(tokens), func(tok Token) bool {
		return tok.Span.Overlaps(span)
	})
}

// sorted returns a copy of tokens ordered by start offset, ties keep their input order.
func sorted(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start < out[j].Span.Start
	})
	return out
}

func encode(ctx context.Context, buf *position.Buffer, tokens []Token, include func(Token) bool) []Encoded {
	logger := zerolog.Ctx(ctx)

	result := make([]Encoded, 0, len(tokens))
	var prevLine, prevChar int

	for _, tok := range tokens {
		if include != nil && !include(tok) {
			continue
		}

		tokenType, ok := LegendIndex(tok.Kind)
		if !ok {
			continue
		}

		if tok.Span.End < tok.Span.Start || tok.Span.End > buf.Len() {
			logger.Trace().Stringer("token", tok).Int("len", buf.Len()).Msg("dropping token outside of buffer")
			continue
		}

		place, err := buf.Place(tok.Span.Start)
		if err != nil {
			logger.Trace().Err(err).Stringer("token", tok).Msg("dropping token with unresolvable start")
			continue
		}

		deltaLine := place.Line - prevLine
		deltaChar := place.Character
		if deltaLine == 0 {
			deltaChar = place.Character - prevChar
		}

		result = append(result, Encoded{
			DeltaLine:  uint32(deltaLine),
			DeltaStart: uint32(deltaChar),
			Length:     uint32(tok.Span.Len()),
			TokenType:  tokenType,
		})

		prevLine = place.Line
		prevChar = place.Character
	}

	return result
}
