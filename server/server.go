package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/netx"
	"github.com/andycostintoma/httpx/internal/obslog"
)

// HeaderDeadline is the per-request header-read timeout, spec.md §4.8/§6.6.
const HeaderDeadline = 30 * time.Second

// defaultParseLimits bounds request-line/header sizes; spec.md leaves
// these unspecified beyond "a growable buffer", so generous but finite
// limits are used instead of the unbounded reads a naive port would do.
var defaultParseLimits = httpx.ParseLimits{MaxLineBytes: 8 << 10, MaxHeaderBytes: 64 << 10}

const maxRequestBodyBytes = 32 << 20

// Server holds a Router and a Logger; the listener is passed to Serve.
// Nothing prevents routes being added after Serve is called. Grounded on original_source/include/server/
// server.hpp's do_listen/do_session functions, replacing the
// coroutine-spawn-per-connection pattern with a goroutine-per-
// connection, Go's native analogue.
type Server struct {
	Router *Router
	Log    obslog.Logger
}

// New constructs a Server around router, defaulting to a stderr logger
// if log is nil.
func New(router *Router, log obslog.Logger) *Server {
	if log == nil {
		log = obslog.Default()
	}
	return &Server{Router: router, Log: log}
}

// Serve accepts connections on ln until ctx is cancelled or Accept
// fails, running one session goroutine per connection. ln may wrap a
// plain net.Listener or a tls.Listener; both satisfy net.Listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		go s.session(ctx, conn)
	}
}

// session runs the per-connection keep-alive loop of spec.md §4.8:
// set a 30s header deadline, read one request, clear the deadline,
// route, write the response, loop while keep-alive holds.
func (s *Server) session(ctx context.Context, conn net.Conn) {
	connID := uuid.NewString()
	log := s.Log.With(obslog.F("conn_id", connID), obslog.F("remote_addr", conn.RemoteAddr().String()))
	defer conn.Close()

	cr := netx.NewCRLFFastReader(conn)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(HeaderDeadline)); err != nil {
			log.Error("set read deadline", err)
			return
		}

		req, err := httpx.ParseRequestFull(ctx, cr, defaultParseLimits, maxRequestBodyBytes)
		if err != nil {
			if isCleanEOF(err) {
				return
			}
			log.Debug("read request failed, terminating session", obslog.F("error", err.Error()))
			return
		}

		if err := conn.SetReadDeadline(time.Time{}); err != nil {
			log.Error("clear read deadline", err)
			return
		}

		resp := s.dispatch(ctx, req)

		// Drain any unread request body before the next request-line
		// read, so a handler that ignored the body doesn't leave stray
		// bytes in front of the next request on the same connection.
		if req.Body != nil {
			_, _ = io.Copy(io.Discard, req.Body)
			_ = req.Body.Close()
		}

		if err := s.write(ctx, conn, resp); err != nil {
			log.Debug("write response failed, terminating session", obslog.F("error", err.Error()))
			return
		}

		if !resp.KeepAlive(req.ProtoMinor) {
			return
		}
	}
}

// dispatch finds the first matching route, or synthesizes 404/500 per
// spec.md §4.8 step 4.
func (s *Server) dispatch(ctx context.Context, req *httpx.Request) *Response {
	svc, ok := s.Router.match(req)
	if !ok {
		return NewResponseBuilder().
			Status(404).Reason("Not Found").
			ContentType("text/plain").
			KeepAlive(req.ProtoMinor >= 1).
			Body([]byte(fmt.Sprintf("the resource %q was not found", req.RequestURI)))
	}

	resp, err := svc.Handle(ctx, req)
	if err != nil {
		return NewResponseBuilder().
			Status(500).Reason("Internal Server Error").
			ContentType("text/plain").
			KeepAlive(req.ProtoMinor >= 1).
			Body([]byte(fmt.Sprintf("an error occurred: %s", err.Error())))
	}
	return resp
}

// write serializes resp onto conn, dispatching on its kind.
func (s *Server) write(ctx context.Context, conn net.Conn, resp *Response) error {
	cw := httpx.NewChunkedWriter(ctx, conn)
	return resp.WriteTo(ctx, cw, func(raw *httpx.Response) error {
		return httpx.WriteResponse(ctx, conn, raw)
	})
}

// isCleanEOF reports a peer closing the connection before sending a
// new request, the keep-alive loop's normal termination per spec.md
// §4.8 step 2 ("EOF => terminate loop cleanly").
func isCleanEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
