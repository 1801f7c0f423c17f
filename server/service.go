package server

import (
	"context"

	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/stream"
)

// Service is the single request-handling capability of spec.md §4.7 /
// §9: "a single Service capability {handle(request) -> outcome
// <response>}; composition (middleware) is a function Service ->
// Service". Ported from the abstract `service` class in
// original_source/include/server/service.hpp without the inheritance
// hierarchy: Go interfaces plus small wrapper types play the same role
// as the C++ class tree (chunked_service, sse_service, ...).
type Service interface {
	Handle(ctx context.Context, req *httpx.Request) (*Response, error)
}

// HandlerFunc adapts a plain function to Service, the Go analogue of
// original_source's function_service.
type HandlerFunc func(ctx context.Context, req *httpx.Request) (*Response, error)

func (f HandlerFunc) Handle(ctx context.Context, req *httpx.Request) (*Response, error) {
	return f(ctx, req)
}

// StreamingProducer writes Chunks into tx until the response body is
// complete, then returns. The caller (StreamingService) closes tx
// after the producer returns.
type StreamingProducer func(ctx context.Context, req *httpx.Request, tx *stream.Channel[httpx.Chunk])

// HeaderFunc builds the response status/headers for a streaming or SSE
// service; its ResponseBuilder is never given a terminal call by the
// caller directly, since streamingService.Handle calls Header() on it
// itself once ready to attach the body channel.
type HeaderFunc func(ctx context.Context, req *httpx.Request) (*ResponseBuilder, error)

// streamingService wraps a header-only handler plus a producer
// goroutine, mirroring original_source's chunked_service: the caller
// supplies only the response header, and a background task is spawned
// to feed the channel. If the returned header is 2xx, Transfer-
// Encoding: chunked is forced on automatically.
type streamingService struct {
	header   HeaderFunc
	producer StreamingProducer
	capacity int
	policy   stream.BackpressurePolicy
}

// NewStreamingService builds a Service whose Handle returns the header
// from headerFn immediately (as a Streaming Response) and runs
// producer in its own goroutine to populate the chunk channel, per
// spec.md §4.7's StreamingService.
func NewStreamingService(headerFn HeaderFunc, producer StreamingProducer, capacity int, policy stream.BackpressurePolicy) Service {
	return &streamingService{header: headerFn, producer: producer, capacity: capacity, policy: policy}
}

func (s *streamingService) Handle(ctx context.Context, req *httpx.Request) (*Response, error) {
	builder, err := s.header(ctx, req)
	if err != nil {
		return nil, err
	}
	header := builder.Header()

	tx := stream.New[httpx.Chunk](s.capacity, s.policy)
	header.kind = kindStreaming
	header.rx = tx
	if header.Status >= 200 && header.Status < 300 {
		header.Header.Set("Transfer-Encoding", "chunked")
	}

	go func() {
		defer tx.Close()
		s.producer(ctx, req, tx)
	}()

	return header, nil
}

// SSEProducer writes Events until the stream is complete.
type SSEProducer func(ctx context.Context, req *httpx.Request, tx *stream.Channel[httpx.Event])

// NewSSEService specializes NewStreamingService per spec.md §4.7:
// Content-Type: text/event-stream is set on 2xx, and events are
// serialized into Chunks (via Event.ToChunk, spec.md §6.3) before
// being forwarded to the underlying chunk channel.
func NewSSEService(headerFn HeaderFunc, producer SSEProducer, capacity int, policy stream.BackpressurePolicy) Service {
	chunkProducer := func(ctx context.Context, req *httpx.Request, tx *stream.Channel[httpx.Chunk]) {
		events := stream.New[httpx.Event](capacity, policy)
		go func() {
			defer events.Close()
			producer(ctx, req, events)
		}()
		for {
			ev, ok, err := events.Receive(ctx)
			if err != nil || !ok {
				return
			}
			if !ev.Valid() {
				continue
			}
			if err := tx.Send(ctx, ev.ToChunk()); err != nil {
				return
			}
		}
	}

	wrappedHeader := func(ctx context.Context, req *httpx.Request) (*ResponseBuilder, error) {
		builder, err := headerFn(ctx, req)
		if err != nil {
			return nil, err
		}
		if builder.status >= 200 && builder.status < 300 {
			builder.header.Set("Content-Type", "text/event-stream")
		}
		return builder, nil
	}

	return NewStreamingService(wrappedHeader, chunkProducer, capacity, policy)
}

// RequestTransform rewrites an incoming request before it reaches inner.
type RequestTransform func(ctx context.Context, req *httpx.Request) (*httpx.Request, error)

// preRequestService is the Go analogue of original_source's
// pre_request_service.
type preRequestService struct {
	transform RequestTransform
	inner     Service
}

// NewPreRequestService wraps inner, applying transform to the request
// first, per spec.md §4.7's PreRequestService.
func NewPreRequestService(transform RequestTransform, inner Service) Service {
	return &preRequestService{transform: transform, inner: inner}
}

func (s *preRequestService) Handle(ctx context.Context, req *httpx.Request) (*Response, error) {
	next, err := s.transform(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.inner.Handle(ctx, next)
}

// ResponseTransform rewrites inner's (response, error) pair.
type ResponseTransform func(ctx context.Context, resp *Response, err error) (*Response, error)

// afterResponseService is the Go analogue of original_source's
// after_response_service.
type afterResponseService struct {
	transform ResponseTransform
	inner     Service
}

// NewAfterResponseService wraps inner, applying transform to its
// result, per spec.md §4.7's AfterResponseService.
func NewAfterResponseService(transform ResponseTransform, inner Service) Service {
	return &afterResponseService{transform: transform, inner: inner}
}

func (s *afterResponseService) Handle(ctx context.Context, req *httpx.Request) (*Response, error) {
	resp, err := s.inner.Handle(ctx, req)
	return s.transform(ctx, resp, err)
}

// Middleware is a function Service -> Service, per spec.md §4.7/§9.
type Middleware func(Service) Service

// ServiceBuilder composes middleware into a single outermost wrapper,
// the Go analogue of original_source's service_builder (minus its
// identity-middleware default, which a nil-slice Build naturally is).
type ServiceBuilder struct {
	middlewares []Middleware
}

// NewServiceBuilder starts an empty builder.
func NewServiceBuilder() *ServiceBuilder {
	return &ServiceBuilder{}
}

// With appends a middleware layer; layers apply outermost-last, i.e.
// the last With call wraps all previous ones.
func (b *ServiceBuilder) With(m Middleware) *ServiceBuilder {
	b.middlewares = append(b.middlewares, m)
	return b
}

// WithPreRequest is sugar for With(NewPreRequestService-shaped middleware).
func (b *ServiceBuilder) WithPreRequest(transform RequestTransform) *ServiceBuilder {
	return b.With(func(inner Service) Service { return NewPreRequestService(transform, inner) })
}

// WithAfterResponse is sugar for With(NewAfterResponseService-shaped middleware).
func (b *ServiceBuilder) WithAfterResponse(transform ResponseTransform) *ServiceBuilder {
	return b.With(func(inner Service) Service { return NewAfterResponseService(transform, inner) })
}

// Build layers all registered middleware around inner, in registration
// order (the first With call ends up innermost).
func (b *ServiceBuilder) Build(inner Service) Service {
	svc := inner
	for i := 0; i < len(b.middlewares); i++ {
		svc = b.middlewares[i](svc)
	}
	return svc
}
