package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/netx"
	"github.com/andycostintoma/httpx/internal/stream"
)

// responseState mirrors spec.md §3's IncomingResponse state machine:
// Fresh -> HeaderRead -> Draining -> Done.
type responseState int

const (
	stateFresh responseState = iota
	stateHeaderRead
	stateDraining
	stateDone
)

// ErrBadTransferEncoding is returned when a body-read operation's
// framing doesn't match the response's flags (or a second, different
// body-read operation is attempted), spec.md §4.4.
var ErrBadTransferEncoding = errors.New("client: bad transfer encoding for this read operation")

// IncomingResponse owns the connection and parser for one response,
// per spec.md §3/§4.4. Grounded on original_source/include/client/
// response.hpp's http_response<Body>, replacing its ssl_stream/stream
// union with netx.Conn and its done_/sse_/chunked_ bools with an
// explicit state machine plus two flags.
type IncomingResponse struct {
	conn     netx.Conn
	cr       *netx.CRLFFastReader
	resp     *httpx.Response
	state    responseState
	sse      bool
	chunked  bool
	used     bodyReadKind
	fullBody io.ReadCloser
}

type bodyReadKind int

const (
	bodyReadNone bodyReadKind = iota
	bodyReadFull
	bodyReadChunks
	bodyReadSSE
)

// newIncomingResponse wraps conn, whose request has already been
// written; cr must be positioned to read the status line next.
func newIncomingResponse(conn netx.Conn, cr *netx.CRLFFastReader) *IncomingResponse {
	return &IncomingResponse{conn: conn, cr: cr, state: stateFresh}
}

// initHeader reads the response status line and headers, deriving the
// sse/chunked flags by substring match, per spec.md §4.4.
func (r *IncomingResponse) initHeader(limits httpx.ParseLimits) error {
	resp, err := httpx.ParseResponseHeader(r.cr, limits)
	if err != nil {
		return err
	}
	r.resp = resp
	r.sse = resp.IsSSE()
	r.chunked = resp.IsChunked()
	r.state = stateHeaderRead
	return nil
}

// StatusCode returns the parsed status code.
func (r *IncomingResponse) StatusCode() int { return r.resp.StatusCode }

// Reason returns the parsed reason phrase.
func (r *IncomingResponse) Reason() string { return r.resp.Status }

// Header returns the parsed response headers.
func (r *IncomingResponse) Header() httpx.Header { return r.resp.Header }

// IsOK reports a 2xx status.
func (r *IncomingResponse) IsOK() bool { return r.resp.IsOK() }

// IsRedirection reports one of spec.md §4.9's redirect statuses.
func (r *IncomingResponse) IsRedirection() bool { return r.resp.IsRedirection() }

// RedirectURL returns the parsed Location header, or nil.
func (r *IncomingResponse) RedirectURL() *httpx.URL { return r.resp.RedirectURL() }

// Complete reports whether the response body has been fully consumed.
func (r *IncomingResponse) Complete() bool { return r.state == stateDone }

// Close releases the underlying connection. A dropped IncomingResponse
// closes its connection per spec.md §5.
func (r *IncomingResponse) Close() error {
	r.state = stateDone
	return r.conn.Close()
}

// beginRead enforces the "exactly one body-read API" invariant of
// spec.md §3/§4.4.
func (r *IncomingResponse) beginRead(kind bodyReadKind) error {
	if r.state == stateDone {
		return io.EOF
	}
	if r.used != bodyReadNone && r.used != kind {
		return ErrBadTransferEncoding
	}
	r.used = kind
	r.state = stateDraining
	return nil
}

// ReadFull returns the next chunk of a non-chunked, non-SSE body.
// Repeated calls advance through the body; once the body is complete,
// the following call returns io.EOF.
func (r *IncomingResponse) ReadFull(buf []byte) (int, error) {
	if r.chunked || r.sse {
		return 0, ErrBadTransferEncoding
	}
	if r.used == bodyReadNone {
		if err := r.beginRead(bodyReadFull); err != nil {
			return 0, err
		}
		body, _, err := httpx.NewBodyReader(context.Background(), &httpx.Request{Header: r.resp.Header}, r.cr.Reader(), 0)
		if err != nil {
			return 0, err
		}
		r.fullBody = body
	} else if r.state == stateDone {
		return 0, io.EOF
	}
	n, err := r.fullBody.Read(buf)
	if errors.Is(err, io.EOF) {
		r.state = stateDone
		if n > 0 {
			return n, nil
		}
	}
	return n, err
}

// ReadChunks streams each chunk of a chunked (non-SSE) body into tx,
// one channel item per complete chunk, per spec.md §4.4's read_chunks.
// The body-size limit is unlimited in this mode.
func (r *IncomingResponse) ReadChunks(ctx context.Context, tx *stream.Channel[httpx.Chunk]) error {
	if !r.chunked || r.sse {
		return ErrBadTransferEncoding
	}
	if err := r.beginRead(bodyReadChunks); err != nil {
		return err
	}
	defer func() { r.state = stateDone }()

	var cur httpx.Chunk
	err := httpx.ReadChunksInto(ctx, r.cr.Reader(),
		func(size int64, extensions string) error {
			cur = httpx.Chunk{Extensions: extensions}
			return nil
		},
		func(remaining int64, data []byte) error {
			cur.Body = append(cur.Body, data...)
			if remaining == int64(len(data)) {
				return tx.Send(ctx, cur)
			}
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("client: read chunks: %w", err)
	}
	return nil
}

// ReadSSE streams SSE events into tx, per spec.md §4.4's read_sse: if
// the body is also chunked, it runs the chunked-to-SSE pipeline
// (§4.1 mode 3); otherwise it splits the raw byte stream on blank
// lines directly.
func (r *IncomingResponse) ReadSSE(ctx context.Context, tx *stream.Channel[httpx.Event]) error {
	if !r.sse {
		return ErrBadTransferEncoding
	}
	if err := r.beginRead(bodyReadSSE); err != nil {
		return err
	}
	defer func() { r.state = stateDone }()

	if r.chunked {
		return r.readChunkedSSE(ctx, tx)
	}
	return r.readRawSSE(ctx, tx)
}

func (r *IncomingResponse) readChunkedSSE(ctx context.Context, tx *stream.Channel[httpx.Event]) error {
	var splitter httpx.SSEBlockSplitter
	err := httpx.ReadChunksInto(ctx, r.cr.Reader(), nil,
		func(remaining int64, data []byte) error {
			for _, block := range splitter.Feed(data) {
				if ev, ok := httpx.ParseSSEBlock(block); ok {
					if sendErr := tx.Send(ctx, ev); sendErr != nil {
						return sendErr
					}
				}
			}
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("client: read chunked sse: %w", err)
	}
	if rest, ok := splitter.Flush(); ok {
		if ev, ok := httpx.ParseSSEBlock(rest); ok {
			return tx.Send(ctx, ev)
		}
	}
	return nil
}

func (r *IncomingResponse) readRawSSE(ctx context.Context, tx *stream.Channel[httpx.Event]) error {
	var splitter httpx.SSEBlockSplitter
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := r.cr.Reader().Read(buf)
		if n > 0 {
			for _, block := range splitter.Feed(buf[:n]) {
				if ev, ok := httpx.ParseSSEBlock(block); ok {
					if sendErr := tx.Send(ctx, ev); sendErr != nil {
						return sendErr
					}
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if rest, ok := splitter.Flush(); ok {
					if ev, ok := httpx.ParseSSEBlock(rest); ok {
						return tx.Send(ctx, ev)
					}
				}
				return nil
			}
			return err
		}
	}
}
