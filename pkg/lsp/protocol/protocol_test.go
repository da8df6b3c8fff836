package protocol_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/guils/pkg/lsp/protocol"
	"gitlab.com/tozd/go/errors"
)

type fakeServer struct {
	mu      sync.Mutex
	calls   []string
	opened  []protocol.DidOpenTextDocumentParams
	changes []protocol.DidChangeTextDocumentParams
	tokens  *protocol.SemanticTokens
}

var _ protocol.Server = (*fakeServer)(nil)

func (f *fakeServer) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeServer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeServer) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	f.record("initialize")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{OpenClose: true, Change: protocol.Full},
		},
		ServerInfo: &protocol.ServerInfo{Name: "fake"},
	}, nil
}

func (f *fakeServer) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	f.record("initialized")
	zerolog.Ctx(ctx).Info().Str("from", "fake").Msg("server initialized")
	return nil
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.record("shutdown")
	return nil
}

func (f *fakeServer) Exit(ctx context.Context) error {
	f.record("exit")
	return nil
}

func (f *fakeServer) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	f.record("setTrace")
	return nil
}

func (f *fakeServer) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	f.mu.Lock()
	f.opened = append(f.opened, *params)
	f.mu.Unlock()
	f.record("didOpen")
	return nil
}

func (f *fakeServer) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	f.mu.Lock()
	f.changes = append(f.changes, *params)
	f.mu.Unlock()
	f.record("didChange")
	return nil
}

func (f *fakeServer) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	f.record("didClose")
	return nil
}

func (f *fakeServer) SemanticTokensFull(ctx context.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	f.record("semanticTokens/full")
	if params.TextDocument.URI == "file:///broken.gui" {
		return nil, errors.New("broken document")
	}
	return f.tokens, nil
}

func (f *fakeServer) SemanticTokensRange(ctx context.Context, params *protocol.SemanticTokensRangeParams) (*protocol.SemanticTokens, error) {
	f.record("semanticTokens/range")
	return f.tokens, nil
}

type session struct {
	client  *jrpc2.Client
	tracker *protocol.RPCTracker
	done    chan error

	mu   sync.Mutex
	logs []*jrpc2.Request
}

func (s *session) Logs() []*jrpc2.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*jrpc2.Request{}, s.logs...)
}

func startSession(t *testing.T, ctx context.Context, server protocol.Server, forwardLogs bool) *session {
	t.Helper()

	serverReader, clientWriter := io.Pipe()
	clientReader, serverWriter := io.Pipe()

	s := &session{
		tracker: protocol.NewRPCTracker(),
		done:    make(chan error, 1),
	}

	instance := protocol.NewServerInstance(ctx, server, &jrpc2.ServerOptions{
		RPCLog:      s.tracker,
		Concurrency: 1,
	}, forwardLogs)

	go func() {
		s.done <- instance.StartAndWait(serverReader, serverWriter)
	}()

	s.client = jrpc2.NewClient(channel.LSP(clientReader, clientWriter), &jrpc2.ClientOptions{
		OnNotify: func(req *jrpc2.Request) {
			if req.Method() != "window/logMessage" {
				return
			}
			s.mu.Lock()
			s.logs = append(s.logs, req)
			s.mu.Unlock()
		},
	})

	t.Cleanup(func() {
		s.client.Close()
		clientWriter.Close()
		serverWriter.Close()
	})

	return s
}

func (s *session) exit(t *testing.T, ctx context.Context) {
	t.Helper()

	_, err := s.client.Call(ctx, "shutdown", nil)
	require.NoError(t, err)
	require.NoError(t, s.client.Notify(ctx, "exit", nil))

	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after exit")
	}
}

func TestInitializationHandshake(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := &fakeServer{}
	s := startSession(t, ctx, server, false)

	var result protocol.InitializeResult
	err := s.client.CallResult(ctx, "initialize", &protocol.InitializeParams{
		RootURI:      "file:///workspace",
		Capabilities: protocol.ClientCapabilities{"textDocument": map[string]any{}},
	}, &result)
	require.NoError(t, err)
	require.NotNil(t, result.Capabilities.TextDocumentSync)
	assert.Equal(t, protocol.Full, result.Capabilities.TextDocumentSync.Change)
	assert.Equal(t, "fake", result.ServerInfo.Name)

	require.NoError(t, s.client.Notify(ctx, "initialized", &protocol.InitializedParams{}))

	s.exit(t, ctx)

	assert.Equal(t, []string{"initialize", "initialized", "shutdown", "exit"}, server.Calls())

	requests := s.tracker.MessagesLike(func(msg protocol.RPCMessage) bool {
		return msg.Request != nil
	})
	require.Len(t, requests, 4)
	assert.Equal(t, "initialize", requests[0].Method)
}

func TestDocumentNotificationsAndTokens(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := &fakeServer{tokens: &protocol.SemanticTokens{Data: []uint32{0, 0, 4, 5, 0}}}
	s := startSession(t, ctx, server, false)

	require.NoError(t, s.client.Notify(ctx, "textDocument/didOpen", &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file:///a.gui", LanguageID: "gui", Version: 1, Text: "true"},
	}))
	require.NoError(t, s.client.Notify(ctx, "textDocument/didChange", &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///a.gui"},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "false"}},
	}))

	var tokens protocol.SemanticTokens
	err := s.client.CallResult(ctx, "textDocument/semanticTokens/full", &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///a.gui"},
	}, &tokens)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 4, 5, 0}, tokens.Data)

	server.mu.Lock()
	require.Len(t, server.opened, 1)
	assert.Equal(t, "true", server.opened[0].TextDocument.Text)
	assert.Equal(t, "gui", server.opened[0].TextDocument.LanguageID)
	require.Len(t, server.changes, 1)
	assert.Equal(t, int32(2), server.changes[0].TextDocument.Version)
	assert.Equal(t, "false", server.changes[0].ContentChanges[0].Text)
	server.mu.Unlock()

	s.exit(t, ctx)
}

func TestNullTokensResult(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := startSession(t, ctx, &fakeServer{}, false)

	rsp, err := s.client.Call(ctx, "textDocument/semanticTokens/range", &protocol.SemanticTokensRangeParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///missing.gui"},
	})
	require.NoError(t, err)
	assert.Equal(t, "null", rsp.ResultString())

	s.exit(t, ctx)
}

func TestHandlerErrorsReachClient(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := startSession(t, ctx, &fakeServer{}, false)

	_, err := s.client.Call(ctx, "textDocument/semanticTokens/full", &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///broken.gui"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken document")

	_, err = s.client.Call(ctx, "textDocument/semanticTokens/full", []int{1, 2})
	require.Error(t, err)

	var rpcErr *jrpc2.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.EqualValues(t, -32700, rpcErr.Code)

	s.exit(t, ctx)
}

func TestCancelRequestIsAccepted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server := &fakeServer{}
	s := startSession(t, ctx, server, false)

	require.NoError(t, s.client.Notify(ctx, "$/cancelRequest", &protocol.CancelParams{ID: 99}))

	cancels, ok := s.tracker.WaitForMessages(1, 2*time.Second, func(msg protocol.RPCMessage) bool {
		return msg.Method == "$/cancelRequest" && msg.Request != nil
	})
	require.True(t, ok)
	assert.Len(t, cancels, 1)

	_, err := s.client.Call(ctx, "shutdown", nil)
	require.NoError(t, err)

	s.exit(t, ctx)
}

func TestLogsForwardedToClient(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ctx = zerolog.New(io.Discard).Level(zerolog.InfoLevel).WithContext(ctx)

	s := startSession(t, ctx, &fakeServer{}, true)

	require.NoError(t, s.client.Notify(ctx, "initialized", &protocol.InitializedParams{}))

	// shutdown is answered after initialized has run, so its log has been pushed already
	_, err := s.client.Call(ctx, "shutdown", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(s.Logs()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	var params protocol.ExtendedLogMessageParams
	require.NoError(t, s.Logs()[0].UnmarshalParams(&params))
	assert.Equal(t, protocol.Info, params.Type)
	assert.Equal(t, "server initialized", params.Message)
	assert.Equal(t, "fake", params.Extra["from"])
	assert.Equal(t, "initialized", params.Extra["rpc_method"])

	s.exit(t, ctx)
}

func TestParseMessageTypeFromZerolog(t *testing.T) {
	assert.Equal(t, protocol.Error, protocol.ParseMessageTypeFromZerolog("error"))
	assert.Equal(t, protocol.Error, protocol.ParseMessageTypeFromZerolog("fatal"))
	assert.Equal(t, protocol.Warning, protocol.ParseMessageTypeFromZerolog("warn"))
	assert.Equal(t, protocol.Info, protocol.ParseMessageTypeFromZerolog("info"))
	assert.Equal(t, protocol.Debug, protocol.ParseMessageTypeFromZerolog("debug"))
	assert.Equal(t, protocol.Log, protocol.ParseMessageTypeFromZerolog("trace"))
}
