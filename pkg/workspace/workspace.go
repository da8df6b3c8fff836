// Package workspace tracks open documents and their semantic tokens.
//
// Text and tokens live in two separate stores. An open or change first replaces the text, then
// classifies it and replaces the tokens, so between those two steps a concurrent query pairs the
// new text with the previous tokens. Tokens that no longer fit the text are dropped by the encoder.
package workspace

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/guils/pkg/position"
	"github.com/walteh/guils/pkg/semtok"
	"gitlab.com/tozd/go/errors"
)

// Classifier produces the tokens of a text. Implementations must not keep state between calls.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]semtok.Token, error)
}

type ClassifierFunc func(ctx context.Context, text string) ([]semtok.Token, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) ([]semtok.Token, error) {
	return f(ctx, text)
}

type Workspace struct {
	texts      *TextStore
	tokens     *TokenCache
	classifier Classifier
}

type Option func(*options)

type options struct {
	shards int
}

// WithShards sets the shard count of both stores.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

func New(classifier Classifier, opts ...Option) *Workspace {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Workspace{
		texts:      NewTextStore(o.shards),
		tokens:     NewTokenCache(o.shards),
		classifier: classifier,
	}
}

// Open starts tracking uri. A classification error is returned for logging only, the text is
// stored regardless.
func (w *Workspace) Open(ctx context.Context, uri string, text string, version int32) error {
	return w.update(ctx, uri, text, version)
}

// Change replaces the full text of uri. On a classification error the previous tokens are kept.
func (w *Workspace) Change(ctx context.Context, uri string, text string, version int32) error {
	return w.update(ctx, uri, text, version)
}

func (w *Workspace) update(ctx context.Context, uri string, text string, version int32) error {
	w.texts.Put(uri, text, version)

	tokens, err := w.classifier.Classify(ctx, text)
	if err != nil {
		return errors.Errorf("classifying %s at version %d: %w", uri, version, err)
	}

	w.tokens.Put(uri, tokens)

	zerolog.Ctx(ctx).Debug().
		Str("uri", uri).
		Int32("version", version).
		Int("token_count", len(tokens)).
		Msg("document classified")

	return nil
}

// Close forgets uri in both stores.
func (w *Workspace) Close(ctx context.Context, uri string) {
	w.texts.Delete(uri)
	w.tokens.Delete(uri)
}

// Text returns the current text of uri.
func (w *Workspace) Text(uri string) (*Text, bool) {
	return w.texts.Get(uri)
}

// FullTokens encodes every cached token of uri. The second result is false when the document has
// no text or no tokens yet, which is distinct from a document with zero tokens.
func (w *Workspace) FullTokens(ctx context.Context, uri string) ([]semtok.Encoded, bool) {
	text, tokens, ok := w.snapshot(uri)
	if !ok {
		return nil, false
	}
	return semtok.Encode(ctx, text.Buffer, tokens), true
}

// RangeTokens encodes the cached tokens of uri that overlap span.
func (w *Workspace) RangeTokens(ctx context.Context, uri string, span position.Span) ([]semtok.Encoded, bool) {
	text, tokens, ok := w.snapshot(uri)
	if !ok {
		return nil, false
	}
	return semtok.EncodeRange(ctx, text.Buffer, tokens, span), true
}

// RangeTokensBetween is RangeTokens with the span given as line and column places, converted with
// the same text the tokens are encoded against.
func (w *Workspace) RangeTokensBetween(ctx context.Context, uri string, start, end position.Place) ([]semtok.Encoded, bool) {
	text, tokens, ok := w.snapshot(uri)
	if !ok {
		return nil, false
	}
	span := position.Span{Start: text.Buffer.Offset(start), End: text.Buffer.Offset(end)}
	return semtok.EncodeRange(ctx, text.Buffer, tokens, span), true
}

func (w *Workspace) snapshot(uri string) (*Text, []semtok.Token, bool) {
	text, ok := w.texts.Get(uri)
	if !ok {
		return nil, nil, false
	}
	tokens, ok := w.tokens.Get(uri)
	if !ok {
		return nil, nil, false
	}
	return text, tokens, true
}

// Len returns the number of documents with stored text and with cached tokens.
func (w *Workspace) Len() (texts int, tokens int) {
	return w.texts.Len(), w.tokens.Len()
}
