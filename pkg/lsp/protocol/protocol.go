package protocol

import (
	"context"
	"encoding/json"
	"io"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	RequestCancelledError = &jrpc2.Error{Code: -32800, Message: "JSON RPC cancelled"}
)

// CallbackClient sends server-initiated messages over the running jrpc2 server.
type CallbackClient struct {
	server *jrpc2.Server
}

var _ Client = (*CallbackClient)(nil)

func NewCallbackClient(server *jrpc2.Server) *CallbackClient {
	return &CallbackClient{server: server}
}

func (c *CallbackClient) Notify(ctx context.Context, method string, params any) error {
	return c.server.Notify(ctx, method, params)
}

func (c *CallbackClient) LogMessage(ctx context.Context, params *LogMessageParams) error {
	return c.Notify(ctx, "window/logMessage", params)
}

func (c *CallbackClient) logEvent(ctx context.Context, params *ExtendedLogMessageParams) error {
	return c.Notify(ctx, "window/logMessage", params)
}

type clientKey struct{}

// ContextWithClient returns a copy of ctx that carries client.
func ContextWithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// ClientFromContext returns the client of the session handling the current request.
func ClientFromContext(ctx context.Context) (Client, bool) {
	client, ok := ctx.Value(clientKey{}).(Client)
	return client, ok
}

// NewServerServer builds the jrpc2 server dispatching to server. Push is always enabled so the
// server can forward its logs to the client.
func NewServerServer(ctx context.Context, server Server, opts *jrpc2.ServerOptions, forwardLogs bool) (*jrpc2.Server, *CallbackClient) {
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}

	opts.AllowPush = true

	var result *jrpc2.Server
	var callbackClient *CallbackClient

	opts.NewContext = func() context.Context {
		if callbackClient == nil {
			return ctx
		}
		reqCtx := ContextWithClient(ctx, callbackClient)
		if forwardLogs {
			reqCtx = ApplyClientToZerolog(reqCtx, callbackClient)
		}
		return reqCtx
	}

	methods := buildServerDispatchMap(server, func() {
		// stopped off the handler goroutine so exit can still return
		go result.Stop()
	})

	methods["$/cancelRequest"] = func(ctx context.Context, r *jrpc2.Request) (any, error) {
		var params CancelParams
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}
		if raw, err := json.Marshal(params.ID); err == nil {
			result.CancelRequest(string(raw))
		}
		return nil, nil
	}

	result = jrpc2.NewServer(methods, opts)
	callbackClient = NewCallbackClient(result)

	return result, callbackClient
}

// ServerInstance runs one language server session over a byte stream.
type ServerInstance struct {
	ctx         context.Context
	server      Server
	opts        *jrpc2.ServerOptions
	forwardLogs bool
}

func NewServerInstance(ctx context.Context, server Server, opts *jrpc2.ServerOptions, forwardLogs bool) *ServerInstance {
	return &ServerInstance{
		ctx:         ctx,
		server:      server,
		opts:        opts,
		forwardLogs: forwardLogs,
	}
}

// StartAndWait serves LSP framed messages read from r and written to w until the client sends
// exit or closes the stream.
func (s *ServerInstance) StartAndWait(r io.Reader, w io.WriteCloser) error {
	srv, _ := NewServerServer(s.ctx, s.server, s.opts, s.forwardLogs)

	zerolog.Ctx(s.ctx).Debug().Msg("starting language server")

	srv.Start(channel.LSP(r, w))

	if err := srv.Wait(); err != nil {
		return errors.Errorf("waiting for language server: %w", err)
	}

	return nil
}

func newParseError(err error) *jrpc2.Error {
	return &jrpc2.Error{
		Code:    -32700, // Parse error
		Message: err.Error(),
	}
}

func createHandler[T any, O any](method func(ctx context.Context, params *T) (O, error)) func(context.Context, *jrpc2.Request) (any, error) {
	return func(ctx context.Context, r *jrpc2.Request) (any, error) {
		if ctx.Err() != nil {
			return nil, RequestCancelledError
		}
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if err := r.UnmarshalParams(&params); err != nil {
			return nil, newParseError(err)
		}
		result, err := method(ctx, &params)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

func createEmptyResultHandler[T any](method func(ctx context.Context, params *T) error) func(context.Context, *jrpc2.Request) (any, error) {
	return func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		var params T
		if r.HasParams() {
			if err := r.UnmarshalParams(&params); err != nil {
				return nil, newParseError(err)
			}
		}
		return nil, method(ctx, &params)
	}
}

func createEmptyHandler(method func(ctx context.Context) error) func(context.Context, *jrpc2.Request) (any, error) {
	return func(ctx context.Context, r *jrpc2.Request) (any, error) {
		ctx = ApplyRequestToZerolog(ctx, r)
		return nil, method(ctx)
	}
}
