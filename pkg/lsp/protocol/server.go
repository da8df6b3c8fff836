package protocol

import (
	"context"

	"github.com/creachadair/jrpc2/handler"
)

// Server is the set of client-to-server methods the language server answers.
type Server interface {
	Initialize(ctx context.Context, params *InitializeParams) (*InitializeResult, error)
	Initialized(ctx context.Context, params *InitializedParams) error
	Shutdown(ctx context.Context) error
	Exit(ctx context.Context) error
	SetTrace(ctx context.Context, params *SetTraceParams) error

	DidOpen(ctx context.Context, params *DidOpenTextDocumentParams) error
	DidChange(ctx context.Context, params *DidChangeTextDocumentParams) error
	DidClose(ctx context.Context, params *DidCloseTextDocumentParams) error

	SemanticTokensFull(ctx context.Context, params *SemanticTokensParams) (*SemanticTokens, error)
	SemanticTokensRange(ctx context.Context, params *SemanticTokensRangeParams) (*SemanticTokens, error)
}

// Client is the set of server-to-client messages the language server sends.
type Client interface {
	LogMessage(ctx context.Context, params *LogMessageParams) error
}

func buildServerDispatchMap(server Server, stop func()) handler.Map {
	return handler.Map{
		"initialize":  createHandler(server.Initialize),
		"initialized": createEmptyResultHandler(server.Initialized),
		"shutdown":    createEmptyHandler(server.Shutdown),
		"exit": createEmptyHandler(func(ctx context.Context) error {
			defer stop()
			return server.Exit(ctx)
		}),
		"$/setTrace": createEmptyResultHandler(server.SetTrace),

		"textDocument/didOpen":   createEmptyResultHandler(server.DidOpen),
		"textDocument/didChange": createEmptyResultHandler(server.DidChange),
		"textDocument/didClose":  createEmptyResultHandler(server.DidClose),

		"textDocument/semanticTokens/full":  createHandler(server.SemanticTokensFull),
		"textDocument/semanticTokens/range": createHandler(server.SemanticTokensRange),
	}
}
