package protocol

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/rs/zerolog"
)

// RPCMessage is one request or response seen by an RPCTracker.
type RPCMessage struct {
	Method   string
	Request  *jrpc2.Request
	Response *jrpc2.Response
	Time     time.Time
}

// RPCTracker records the requests a server receives and the responses it sends. It satisfies
// jrpc2.RPCLogger.
type RPCTracker struct {
	mu sync.RWMutex

	messages     []RPCMessage
	subs         map[chan RPCMessage]struct{}
	knownMethods map[string]string
}

var _ jrpc2.RPCLogger = (*RPCTracker)(nil)

func NewRPCTracker() *RPCTracker {
	return &RPCTracker{
		subs:         make(map[chan RPCMessage]struct{}),
		knownMethods: make(map[string]string),
	}
}

func (t *RPCTracker) LogRequest(ctx context.Context, req *jrpc2.Request) {
	if id := req.ID(); id != "" {
		t.mu.Lock()
		t.knownMethods[id] = req.Method()
		t.mu.Unlock()
	}
	t.Track(RPCMessage{Method: req.Method(), Request: req})
}

func (t *RPCTracker) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	t.mu.RLock()
	method := t.knownMethods[resp.ID()]
	t.mu.RUnlock()
	t.Track(RPCMessage{Method: method, Response: resp})
}

// Track stores msg and hands it to every subscriber with room in its buffer.
func (t *RPCTracker) Track(msg RPCMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg.Time = time.Now()
	t.messages = append(t.messages, msg)

	for ch := range t.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe returns a channel of messages tracked from now on and a function that ends the
// subscription.
func (t *RPCTracker) Subscribe(bufSize int) (<-chan RPCMessage, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan RPCMessage, bufSize)
	t.subs[ch] = struct{}{}

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, ch)
		close(ch)
	}
}

func (t *RPCTracker) Messages() []RPCMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.messages)
}

func (t *RPCTracker) MessagesLike(predicate func(RPCMessage) bool) []RPCMessage {
	return slices.DeleteFunc(t.Messages(), func(msg RPCMessage) bool {
		return !predicate(msg)
	})
}

// WaitForMessages blocks until count tracked messages match predicate or timeout passes. The
// second result reports whether count was reached.
func (t *RPCTracker) WaitForMessages(count int, timeout time.Duration, predicate func(RPCMessage) bool) ([]RPCMessage, bool) {
	ch, unsub := t.Subscribe(64)
	defer unsub()

	result := t.MessagesLike(predicate)
	if len(result) >= count {
		return result, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-ch:
			if predicate(msg) {
				result = append(result, msg)
			}
			if len(result) >= count {
				return result, true
			}
		case <-timer.C:
			return t.MessagesLike(predicate), false
		}
	}
}

// RPCLogger writes every request and response to the logger in the request context.
type RPCLogger struct{}

var _ jrpc2.RPCLogger = (*RPCLogger)(nil)

func (me *RPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	zerolog.Ctx(ctx).Trace().Str("rpc_params", req.ParamString()).Str("rpc_id", req.ID()).Str("rpc_method", req.Method()).Msg("client request")
}

func (me *RPCLogger) LogResponse(ctx context.Context, res *jrpc2.Response) {
	zerolog.Ctx(ctx).Trace().Str("rpc_result", res.ResultString()).Str("rpc_id", res.ID()).Msg("server response")
}

// MultiRPCLogger fans requests and responses out to several loggers.
type MultiRPCLogger []jrpc2.RPCLogger

func (m MultiRPCLogger) LogRequest(ctx context.Context, req *jrpc2.Request) {
	for _, logger := range m {
		logger.LogRequest(ctx, req)
	}
}

func (m MultiRPCLogger) LogResponse(ctx context.Context, resp *jrpc2.Response) {
	for _, logger := range m {
		logger.LogResponse(ctx, resp)
	}
}
