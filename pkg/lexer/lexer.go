// Package lexer classifies the text of a .gui layout file into semantic token kinds.
package lexer

import (
	"context"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/walteh/guils/pkg/semtok"
	"gitlab.com/tozd/go/errors"
)

var (
	// Rules are matched in order at each offset, the first match wins.
	Rules = []lexer.SimpleRule{
		{Name: "Comment", Pattern: `//[^\r\n]*`},
		{Name: "Whitespace", Pattern: `[ \t\r\n,;]+`},
		{Name: "Bool", Pattern: `(?:true|false)\b`},
		{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\\r\n])*"`},
		{Name: "Directive", Pattern: `#[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Setter", Pattern: `\.[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Definition", Pattern: `@[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Inherits", Pattern: `:`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Punct", Pattern: `[{}()\[\]]`},
	}

	// GuiLexer is the participle definition built from Rules
	GuiLexer = lexer.MustSimple(Rules)

	kinds = buildKinds(GuiLexer.Symbols())
)

func buildKinds(symbols map[string]lexer.TokenType) map[lexer.TokenType]semtok.Kind {
	return map[lexer.TokenType]semtok.Kind{
		symbols["Comment"]:    semtok.KindIgnore,
		symbols["Bool"]:       semtok.KindBool,
		symbols["Number"]:     semtok.KindNumber,
		symbols["String"]:     semtok.KindString,
		symbols["Directive"]:  semtok.KindDirective,
		symbols["Setter"]:     semtok.KindSetter,
		symbols["Definition"]: semtok.KindDefinition,
		symbols["Inherits"]:   semtok.KindInherits,
		symbols["Ident"]:      semtok.KindIgnore,
		symbols["Punct"]:      semtok.KindIgnore,
	}
}

// Error is returned when the text contains input no rule matches, such as an unterminated string.
type Error struct {
	Offset int
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// Classify lexes text and returns its tokens in source order. It keeps no state between calls.
func Classify(ctx context.Context, text string) ([]semtok.Token, error) {
	lex, err := GuiLexer.LexString("", text)
	if err != nil {
		return nil, wrap(err)
	}

	whitespace := GuiLexer.Symbols()["Whitespace"]

	var tokens []semtok.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, wrap(err)
		}
		if tok.EOF() {
			break
		}
		if tok.Type == whitespace {
			continue
		}
		kind, ok := kinds[tok.Type]
		if !ok {
			return nil, errors.Errorf("unexpected token type %d at offset %d", tok.Type, tok.Pos.Offset)
		}
		tokens = append(tokens, semtok.NewToken(kind, tok.Pos.Offset, tok.Pos.Offset+len(tok.Value)))
	}

	return tokens, nil
}

func wrap(err error) error {
	var perr *lexer.Error
	if errors.As(err, &perr) {
		return errors.WithStack(&Error{
			Offset: perr.Pos.Offset,
			Line:   perr.Pos.Line,
			Column: perr.Pos.Column,
			Msg:    perr.Msg,
		})
	}
	return errors.Errorf("lexing: %w", err)
}
