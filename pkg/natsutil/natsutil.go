// Package natsutil provides typed JSON publish, subscribe and request/reply
// helpers over NATS, carrying OpenTelemetry trace context in message
// headers.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// ErrorHeader carries a responder's failure back to the requester.
const ErrorHeader = "Cakg-Error"

// RemoteError is returned by Request when the responder replied with a
// failure instead of a value.
type RemoteError struct {
	Subject string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("natsutil: %s: remote error: %s", e.Subject, e.Message)
}

// headerCarrier adapts nats.Msg headers to otel's TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

func inject(ctx context.Context, msg *nats.Msg) {
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
}

func extract(msg *nats.Msg) context.Context {
	return otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
}

// Publish sends v as JSON on subject.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("natsutil: encode %s: %w", subject, err)
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	inject(ctx, msg)
	return nc.PublishMsg(msg)
}

// Subscribe decodes every JSON message on subject into T and passes it to
// handler with the sender's trace context. Messages that do not decode are
// dropped.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(context.Context, T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return
		}
		handler(extract(msg), v)
	})
}

// Reply serves requests on subject. With a non-empty queue, replicas share
// the subject and each request reaches one of them. A request that does not
// decode, or for which h fails, is answered with an empty body and the
// failure in ErrorHeader.
func Reply[Req, Resp any](nc *nats.Conn, subject, queue string, h func(context.Context, Req) (Resp, error)) (*nats.Subscription, error) {
	serve := func(msg *nats.Msg) {
		if msg.Reply == "" {
			return
		}
		var req Req
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			respondError(msg, fmt.Errorf("decode request: %w", err))
			return
		}
		resp, err := h(extract(msg), req)
		if err != nil {
			respondError(msg, err)
			return
		}
		data, err := json.Marshal(resp)
		if err != nil {
			respondError(msg, fmt.Errorf("encode reply: %w", err))
			return
		}
		_ = msg.Respond(data)
	}
	if queue == "" {
		return nc.Subscribe(subject, serve)
	}
	return nc.QueueSubscribe(subject, queue, serve)
}

func respondError(msg *nats.Msg, err error) {
	reply := nats.NewMsg(msg.Reply)
	reply.Header.Set(ErrorHeader, err.Error())
	_ = msg.RespondMsg(reply)
}

// Request sends req as JSON and decodes the reply. Without a deadline on
// ctx the request times out after nats.DefaultTimeout. A failure reported
// by the responder is returned as *RemoteError.
func Request[Req, Resp any](ctx context.Context, nc *nats.Conn, subject string, req Req) (Resp, error) {
	var zero Resp
	data, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("natsutil: encode %s: %w", subject, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nats.DefaultTimeout)
		defer cancel()
	}

	msg := &nats.Msg{Subject: subject, Data: data}
	inject(ctx, msg)
	resp, err := nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return zero, fmt.Errorf("natsutil: request %s: %w", subject, err)
	}
	if e := resp.Header.Get(ErrorHeader); e != "" {
		return zero, &RemoteError{Subject: subject, Message: e}
	}

	var out Resp
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return zero, fmt.Errorf("natsutil: decode %s reply: %w", subject, err)
	}
	return out, nil
}
