// Package lsp translates Language Server Protocol messages into workspace operations.
package lsp

import (
	"context"
	"sync/atomic"

	"github.com/creachadair/jrpc2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/walteh/guils/pkg/lsp/protocol"
	"github.com/walteh/guils/pkg/position"
	"github.com/walteh/guils/pkg/semtok"
	"github.com/walteh/guils/pkg/workspace"
)

const (
	DefaultLanguageID = "gui"
	serverName        = "guils"
)

// Server answers LSP requests against a Workspace. No document condition is ever returned to the
// client as an error: lexer failures are logged and unknown documents yield a null result.
type Server struct {
	id         string
	workspace  *workspace.Workspace
	languageID string
	version    string

	shutdown atomic.Bool
}

var _ protocol.Server = (*Server)(nil)

type Option func(*Server)

// WithLanguageID sets the language advertised in the semantic tokens document selector.
func WithLanguageID(id string) Option {
	return func(s *Server) {
		if id != "" {
			s.languageID = id
		}
	}
}

func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

func NewServer(ctx context.Context, ws *workspace.Workspace, opts ...Option) *Server {
	s := &Server{
		id:         xid.New().String(),
		workspace:  ws,
		languageID: DefaultLanguageID,
	}
	for _, opt := range opts {
		opt(s)
	}

	zerolog.Ctx(ctx).Debug().Str("server_id", s.id).Str("language_id", s.languageID).Msg("created language server")

	return s
}

// BuildServerInstance wires the server into a jrpc2 session. When forwardLogs is set, request logs
// are sent to the client as window/logMessage notifications.
func (s *Server) BuildServerInstance(ctx context.Context, opts *jrpc2.ServerOptions, forwardLogs bool) *protocol.ServerInstance {
	ctx = zerolog.Ctx(ctx).With().Str("server_id", s.id).Logger().WithContext(ctx)
	return protocol.NewServerInstance(ctx, s, opts, forwardLogs)
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)

	event := logger.Debug()
	if params.ClientInfo != nil {
		event = event.Str("client_name", params.ClientInfo.Name).Str("client_version", params.ClientInfo.Version)
	}
	event.Str("root_uri", string(params.RootURI)).Msg("initializing server")

	return &protocol.InitializeResult{
		Capabilities: s.capabilities(),
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: s.version,
		},
	}, nil
}

func (s *Server) capabilities() protocol.ServerCapabilities {
	return protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.Full,
		},
		SemanticTokensProvider: &protocol.SemanticTokensOptions{
			DocumentSelector: []protocol.DocumentFilter{
				{Language: s.languageID, Scheme: "file"},
			},
			Legend: protocol.SemanticTokensLegend{
				TokenTypes:     semtok.Legend(),
				TokenModifiers: []string{},
			},
			Full:  true,
			Range: true,
		},
	}
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	logger := zerolog.Ctx(ctx)

	client, ok := protocol.ClientFromContext(ctx)
	if !ok {
		logger.Info().Msg("server initialized")
		return nil
	}

	err := client.LogMessage(ctx, &protocol.LogMessageParams{
		Type:    protocol.Info,
		Message: "server initialized",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("sending initialized message to client")
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)
	texts, tokens := s.workspace.Len()
	zerolog.Ctx(ctx).Debug().Int("open_documents", texts).Int("cached_token_sets", tokens).Msg("shutting down")
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	if !s.shutdown.Load() {
		zerolog.Ctx(ctx).Warn().Msg("exit received before shutdown")
	}
	return nil
}

func (s *Server) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	zerolog.Ctx(ctx).Debug().Str("trace", params.Value).Msg("trace level set")
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	logger := zerolog.Ctx(ctx).With().Str("uri", string(doc.URI)).Int32("version", doc.Version).Logger()

	logger.Debug().Str("language_id", doc.LanguageID).Msg("document opened")

	if err := s.workspace.Open(ctx, string(doc.URI), doc.Text, doc.Version); err != nil {
		logger.Warn().Err(err).Msg("lexing opened document")
	}

	return nil
}

// DidChange applies a full sync change. Only the last content change matters since each one
// replaces the whole text.
func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	logger := zerolog.Ctx(ctx).With().Str("uri", uri).Int32("version", params.TextDocument.Version).Logger()

	if len(params.ContentChanges) == 0 {
		logger.Debug().Msg("change without content changes")
		return nil
	}

	last := params.ContentChanges[len(params.ContentChanges)-1]
	if last.Range != nil {
		logger.Warn().Msg("ignoring range on content change, full sync was negotiated")
	}

	if err := s.workspace.Change(ctx, uri, last.Text, params.TextDocument.Version); err != nil {
		logger.Warn().Err(err).Msg("lexing changed document, keeping previous tokens")
	}

	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	zerolog.Ctx(ctx).Debug().Str("uri", string(params.TextDocument.URI)).Msg("document closed")
	s.workspace.Close(ctx, string(params.TextDocument.URI))
	return nil
}

// SemanticTokensFull returns nil, encoded as a null result, when the document is unknown or has
// never lexed successfully.
func (s *Server) SemanticTokensFull(ctx context.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	uri := string(params.TextDocument.URI)

	encoded, ok := s.workspace.FullTokens(ctx, uri)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("uri", uri).Msg("no tokens available")
		return nil, nil
	}

	return &protocol.SemanticTokens{Data: semtok.Flatten(encoded)}, nil
}

func (s *Server) SemanticTokensRange(ctx context.Context, params *protocol.SemanticTokensRangeParams) (*protocol.SemanticTokens, error) {
	uri := string(params.TextDocument.URI)

	encoded, ok := s.workspace.RangeTokensBetween(ctx, uri, toPlace(params.Range.Start), toPlace(params.Range.End))
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("uri", uri).Msg("no tokens available")
		return nil, nil
	}

	return &protocol.SemanticTokens{Data: semtok.Flatten(encoded)}, nil
}

func toPlace(p protocol.Position) position.Place {
	return position.Place{Line: int(p.Line), Character: int(p.Character)}
}
