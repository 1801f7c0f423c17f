// Package server implements the HTTP/1.1 server side of spec.md: a
// per-method router, a Service/middleware layering, and a per-connection
// keep-alive session loop. Grounded on original_source/include/server's
// response.hpp/service.hpp/service_builder.hpp/server.hpp/session.hpp,
// re-expressed per spec.md §9's guidance to use a tagged sum instead of
// virtual dispatch for buffered/streaming responses and a single Service
// capability instead of a class hierarchy.
package server

import (
	"bytes"
	"context"
	"fmt"

	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/stream"
)

// ServerAgent is the default Server header value, spec.md §6.4.
const ServerAgent = "cpp-http/server"

// kind tags which variant a Response holds.
type kind int

const (
	kindBuffered kind = iota
	kindStreaming
)

// Response is the tagged sum of spec.md §3 "OutgoingResponse": either a
// fully buffered message or a streaming one backed by a chunk channel.
// Dispatch on WriteTo is a switch over kind, not a virtual call, per
// spec.md §9's "tagged sum with two cases" guidance.
type Response struct {
	kind   kind
	Proto  string
	Status int
	Reason string
	Header httpx.Header

	// Buffered variant only.
	body []byte

	// Streaming variant only: rx is the consumer end of the channel the
	// service's producer goroutine writes Chunks into.
	rx *stream.Channel[httpx.Chunk]
}

// StatusCode returns the response's HTTP status code.
func (r *Response) StatusCode() int { return r.Status }

// IsStreaming reports whether this is a streaming (chunked) response.
func (r *Response) IsStreaming() bool { return r.kind == kindStreaming }

// KeepAlive reports the effective Connection header, defaulting to true
// for HTTP/1.1 and false for HTTP/1.0 when unset.
func (r *Response) KeepAlive(protoMinor int) bool {
	switch r.Header.Get("Connection") {
	case "keep-alive":
		return true
	case "close":
		return false
	default:
		return protoMinor >= 1
	}
}

// WriteTo serializes the response onto w: a buffered response in a
// single pass, a streaming response as header-then-chunk-loop-then-
// terminator, per spec.md §4.5.
func (r *Response) WriteTo(ctx context.Context, w *httpx.ChunkedWriter, rawWriter func(*httpx.Response) error) error {
	switch r.kind {
	case kindBuffered:
		return rawWriter(&httpx.Response{
			Proto:      r.Proto,
			StatusCode: r.Status,
			Status:     r.Reason,
			Header:     r.Header,
			Body:       bytes.NewReader(r.body),
		})
	case kindStreaming:
		if err := rawWriter(&httpx.Response{
			Proto:      r.Proto,
			StatusCode: r.Status,
			Status:     r.Reason,
			Header:     r.Header,
		}); err != nil {
			return err
		}
		for {
			chunk, ok, err := r.rx.Receive(ctx)
			if err != nil {
				return fmt.Errorf("streaming response cancelled: %w", err)
			}
			if !ok {
				return w.Close()
			}
			if !chunk.Valid() {
				continue
			}
			if err := w.WriteChunk(chunk); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("server: invalid response kind %d", r.kind)
	}
}

// ResponseBuilder sets status, version, content-type, server header,
// keep-alive, and arbitrary headers before a terminal Body/Empty/
// Header/Streaming call, per spec.md §4.5.
type ResponseBuilder struct {
	proto  string
	status int
	reason string
	header httpx.Header
}

// NewResponseBuilder starts a builder with the default Server header
// and HTTP/1.1 proto.
func NewResponseBuilder() *ResponseBuilder {
	b := &ResponseBuilder{proto: "HTTP/1.1", status: 200, header: make(httpx.Header)}
	b.header.Set("Server", ServerAgent)
	return b
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.status = code
	return b
}

func (b *ResponseBuilder) Version(proto string) *ResponseBuilder {
	b.proto = proto
	return b
}

func (b *ResponseBuilder) Reason(reason string) *ResponseBuilder {
	b.reason = reason
	return b
}

func (b *ResponseBuilder) ContentType(ct string) *ResponseBuilder {
	b.header.Set("Content-Type", ct)
	return b
}

func (b *ResponseBuilder) KeepAlive(keepAlive bool) *ResponseBuilder {
	if keepAlive {
		b.header.Set("Connection", "keep-alive")
	} else {
		b.header.Set("Connection", "close")
	}
	return b
}

func (b *ResponseBuilder) Set(key, value string) *ResponseBuilder {
	b.header.Set(key, value)
	return b
}

// Body produces a buffered response with Content-Length set from body.
func (b *ResponseBuilder) Body(body []byte) *Response {
	h := b.header.Clone()
	h.Set("Content-Length", fmt.Sprintf("%d", len(body)))
	return &Response{
		kind: kindBuffered, Proto: b.proto, Status: b.status, Reason: b.reason,
		Header: h, body: body,
	}
}

// Empty produces a buffered response with no body.
func (b *ResponseBuilder) Empty() *Response {
	return b.Body(nil)
}

// Header produces a Response carrying only the builder's status line
// and headers, with no body framing applied. Used as the intermediate
// terminal for a streaming/SSE service's header function, which hands
// its builder to streamingService.Handle to have the Transfer-Encoding
// and body channel attached afterward (spec.md §4.7).
func (b *ResponseBuilder) Header() *Response {
	return &Response{
		kind: kindBuffered, Proto: b.proto, Status: b.status, Reason: b.reason,
		Header: b.header.Clone(),
	}
}

// Streaming produces a streaming response: Transfer-Encoding: chunked
// is set automatically, and rx is drained by WriteTo.
func (b *ResponseBuilder) Streaming(rx *stream.Channel[httpx.Chunk]) *Response {
	h := b.header.Clone()
	h.Set("Transfer-Encoding", "chunked")
	h.Set("Cache-Control", "no-cache")
	return &Response{
		kind: kindStreaming, Proto: b.proto, Status: b.status, Reason: b.reason,
		Header: h, rx: rx,
	}
}
