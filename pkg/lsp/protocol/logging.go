package protocol

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/walteh/guils/pkg/debug"
)

var myLoggerId = xid.New().String()

// ExtendedLogMessageParams is a window/logMessage payload that also carries the structured fields
// of the zerolog event. Clients that only know LogMessageParams ignore the extras.
type ExtendedLogMessageParams struct {
	Type    MessageType    `json:"type"`
	Message string         `json:"message"`
	Extra   map[string]any `json:"extra,omitempty"`
	Time    string         `json:"time,omitempty"`
	Source  string         `json:"source,omitempty"`
}

type eventSender interface {
	logEvent(ctx context.Context, params *ExtendedLogMessageParams) error
}

// ApplyClientToZerolog returns a context whose logger sends every event to the client instead of
// the console, at the level of the logger already in ctx.
func ApplyClientToZerolog(ctx context.Context, client *CallbackClient) context.Context {
	return applySenderToZerolog(ctx, client)
}

func applySenderToZerolog(ctx context.Context, sender eventSender) context.Context {
	writer := &logWriter{
		sender: sender,
		ctx:    ctx,
	}

	level := zerolog.Ctx(ctx).GetLevel()

	return zerolog.New(writer).With().
		Str("id", myLoggerId).
		Str("lsp_role", "server").
		Logger().
		Level(level).
		Hook(debug.CustomTimeHook{WithColor: false}).
		Hook(debug.CustomCallerHook{WithColor: false}).
		WithContext(ctx)
}

func ApplyRequestToZerolog(ctx context.Context, req *jrpc2.Request) context.Context {
	return zerolog.Ctx(ctx).With().Str("rpc_method", req.Method()).Str("rpc_id", req.ID()).Logger().WithContext(ctx)
}

type logWriter struct {
	sender eventSender
	mu     sync.Mutex
	ctx    context.Context
}

// Write implements io.Writer. Send failures are swallowed; the connection may already be gone
// when the last events of a session are written.
func (w *logWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var logEntry map[string]any
	if err := json.Unmarshal(p, &logEntry); err != nil {
		return len(p), nil
	}

	delete(logEntry, "id")
	delete(logEntry, "lsp_role")

	notification := &ExtendedLogMessageParams{
		Type:    ParseMessageTypeFromZerolog(extractField(logEntry, zerolog.LevelFieldName, "info")),
		Message: extractField(logEntry, zerolog.MessageFieldName, ""),
		Time:    extractField(logEntry, zerolog.TimestampFieldName, ""),
		Source:  extractField(logEntry, zerolog.CallerFieldName, ""),
		Extra:   logEntry,
	}

	if w.sender != nil {
		_ = w.sender.logEvent(w.ctx, notification)
	}

	return len(p), nil
}

func extractField(entry map[string]any, key, defaultValue string) string {
	if v, ok := entry[key].(string); ok {
		delete(entry, key)
		return v
	}
	return defaultValue
}

// ParseMessageTypeFromZerolog converts a zerolog level name to an LSP MessageType.
func ParseMessageTypeFromZerolog(level string) MessageType {
	switch level {
	case "error", "fatal", "panic":
		return Error
	case "warn":
		return Warning
	case "info":
		return Info
	case "debug":
		return Debug
	default:
		return Log
	}
}
