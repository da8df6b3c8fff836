package workspace

import (
	"github.com/walteh/guils/pkg/position"
	"github.com/walteh/guils/pkg/semtok"
	"github.com/walteh/guils/pkg/store"
)

// Text is the current content of one open document.
type Text struct {
	Buffer  *position.Buffer
	Version int32
}

// TextStore maps a document URI to its current Text. Every Put replaces the entry.
type TextStore struct {
	m *store.Sharded[*Text]
}

func NewTextStore(shards int) *TextStore {
	return &TextStore{m: store.NewSharded[*Text](shards)}
}

func (s *TextStore) Put(uri string, text string, version int32) *Text {
	t := &Text{Buffer: position.NewBuffer(text), Version: version}
	s.m.Put(uri, t)
	return t
}

func (s *TextStore) Get(uri string) (*Text, bool) {
	return s.m.Get(uri)
}

func (s *TextStore) Delete(uri string) {
	s.m.Delete(uri)
}

func (s *TextStore) Len() int {
	return s.m.Len()
}

// TokenCache maps a document URI to the tokens of the last text that classified successfully.
type TokenCache struct {
	m *store.Sharded[[]semtok.Token]
}

func NewTokenCache(shards int) *TokenCache {
	return &TokenCache{m: store.NewSharded[[]semtok.Token](shards)}
}

// Put replaces the tokens for uri. The slice must not be modified afterwards.
func (c *TokenCache) Put(uri string, tokens []semtok.Token) {
	c.m.Put(uri, tokens)
}

func (c *TokenCache) Get(uri string) ([]semtok.Token, bool) {
	return c.m.Get(uri)
}

func (c *TokenCache) Delete(uri string) {
	c.m.Delete(uri)
}

func (c *TokenCache) Len() int {
	return c.m.Len()
}
