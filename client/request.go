// Package client implements the HTTP/1.1 client side of spec.md: a
// fluent request builder, a redirect-following send pipeline, and an
// IncomingResponse exposing full/chunked/SSE body iterators. Grounded
// on original_source/include/client's request_builder.hpp/response.hpp/
// client.hpp.
package client

import (
	"fmt"
	"strings"

	"github.com/andycostintoma/httpx/internal/httpx"
)

// UserAgent is the default User-Agent header value, spec.md §6.4.
const UserAgent = "cpp-http/client"

// Request is spec.md §3 "HttpRequest (client side)": built by a
// fluent builder, normalized URL, defaults AutoRedirect=true,
// MaxRedirects=5, TimeoutMs=5000.
type Request struct {
	URL          *httpx.URL
	Method       string
	Header       httpx.Header
	Body         []byte
	AutoRedirect bool
	MaxRedirects uint64
	TimeoutMs    uint64
}

// RequestBuilder is the Go analogue of original_source's
// request_builder<Body>, minus the Body template parameter (a Go
// Request always carries a []byte body; streaming request bodies are
// an explicit Non-goal, spec.md §1).
type RequestBuilder struct {
	req Request
	err error
}

// NewRequestBuilder starts a builder with spec.md §6.6's defaults.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{req: Request{
		Method:       "GET",
		Header:       make(httpx.Header),
		AutoRedirect: true,
		MaxRedirects: 5,
		TimeoutMs:    5000,
	}}
}

// Method sets the HTTP method.
func (b *RequestBuilder) Method(method string) *RequestBuilder {
	b.req.Method = method
	return b
}

// BaseURL parses raw as the target URL.
func (b *RequestBuilder) BaseURL(raw string) *RequestBuilder {
	u, err := httpx.ParseRequestURI(raw)
	if err != nil {
		// Builder methods don't return errors (mirrors the original's
		// throwing boost::urls::url constructor); Build() surfaces the
		// stored error instead.
		b.req.URL = nil
		b.err = err
		return b
	}
	b.req.URL = u
	return b
}

// Target overrides the URL's path+query.
func (b *RequestBuilder) Target(target string) *RequestBuilder {
	if b.req.URL != nil {
		path, query, _ := strings.Cut(target, "?")
		b.req.URL.Path = path
		b.req.URL.RawQuery = query
	}
	return b
}

// Header sets a request header.
func (b *RequestBuilder) Header(key, value string) *RequestBuilder {
	b.req.Header.Set(key, value)
	return b
}

// Body sets the request body bytes.
func (b *RequestBuilder) Body(body []byte) *RequestBuilder {
	b.req.Body = body
	return b
}

// Timeout sets the per-request timeout in milliseconds.
func (b *RequestBuilder) Timeout(ms uint64) *RequestBuilder {
	b.req.TimeoutMs = ms
	return b
}

// AutoRedirect toggles following redirect responses.
func (b *RequestBuilder) AutoRedirect(enable bool) *RequestBuilder {
	b.req.AutoRedirect = enable
	return b
}

// MaxRedirects sets the redirect-count ceiling.
func (b *RequestBuilder) MaxRedirects(max uint64) *RequestBuilder {
	b.req.MaxRedirects = max
	return b
}

// Build returns the constructed Request, or an error if BaseURL failed
// to parse or no URL was ever set.
func (b *RequestBuilder) Build() (*Request, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.req.URL == nil {
		return nil, fmt.Errorf("client: request builder: no base URL set")
	}
	req := b.req
	return &req, nil
}
