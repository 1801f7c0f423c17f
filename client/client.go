package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/netx"
	"github.com/andycostintoma/httpx/internal/obslog"
)

// ErrTooManyRedirects is returned when a redirect chain exceeds the
// request's MaxRedirects, spec.md §4.9.
var ErrTooManyRedirects = errors.New("client: too many redirects")

// ErrBadLocation is returned when a 3xx response's Location header is
// missing or fails to parse, spec.md §4.9.
var ErrBadLocation = errors.New("client: redirect response missing or invalid Location header")

// defaultHeaderParseLimits bounds status-line/header sizes read back
// from the server; mirrors server.defaultParseLimits.
var defaultHeaderParseLimits = httpx.ParseLimits{MaxLineBytes: 8 << 10, MaxHeaderBytes: 64 << 10}

// Client sends Requests and follows redirects, per spec.md §3/§4.9.
// Grounded on original_source/include/client/client.hpp's free
// functions send/send_http/send_https/resolve, collected into a
// receiver the way the teacher groups server-side behavior into Server.
type Client struct {
	Log obslog.Logger
}

// New constructs a Client, defaulting to a stderr logger if log is nil.
func New(log obslog.Logger) *Client {
	if log == nil {
		log = obslog.Default()
	}
	return &Client{Log: log}
}

// Send writes req and returns its IncomingResponse, following redirects
// while req.AutoRedirect holds, per spec.md §4.9. The caller owns the
// returned IncomingResponse and must Close it to release the
// connection; reading the body to the end does not close it.
func (c *Client) Send(ctx context.Context, req *Request) (*IncomingResponse, error) {
	return c.send(ctx, req, 0)
}

func (c *Client) send(ctx context.Context, req *Request, redirectCount uint64) (*IncomingResponse, error) {
	if req.AutoRedirect && redirectCount > req.MaxRedirects {
		return nil, fmt.Errorf("%w: exceeded %d redirects", ErrTooManyRedirects, req.MaxRedirects)
	}

	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	if !req.AutoRedirect || !resp.IsRedirection() {
		return resp, nil
	}

	loc := resp.RedirectURL()
	if loc == nil {
		_ = resp.Close()
		return nil, ErrBadLocation
	}
	_ = resp.Close()

	next := *req
	next.URL = loc
	return c.send(ctx, &next, redirectCount+1)
}

// roundTrip performs one connect+write+read cycle, with no redirect
// handling, per spec.md §4.2/§4.9's per-attempt flow.
func (c *Client) roundTrip(ctx context.Context, req *Request) (*IncomingResponse, error) {
	host, port, err := req.URL.HostPort()
	if err != nil {
		return nil, err
	}
	addr := host + ":" + strconv.Itoa(port)

	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	dialCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var conn netx.Conn
	switch req.URL.Scheme {
	case "https":
		conn, err = netx.DialTLS(dialCtx, addr, host)
	case "http", "":
		conn, err = netx.DialPlain(dialCtx, addr)
	default:
		return nil, fmt.Errorf("client: unsupported scheme %q", req.URL.Scheme)
	}
	if err != nil {
		return nil, err
	}

	log := c.Log.With(obslog.F("host", host), obslog.F("method", req.Method))

	var resp *IncomingResponse
	writeErr := netx.WithDeadline(conn, timeout, func() error {
		if err := writeRequest(conn, req, host); err != nil {
			return err
		}
		cr := netx.NewCRLFFastReader(conn)
		resp = newIncomingResponse(conn, cr)
		return resp.initHeader(defaultHeaderParseLimits)
	})
	if writeErr != nil {
		_ = conn.Close()
		log.Debug("request failed", obslog.F("error", writeErr.Error()))
		return nil, writeErr
	}

	return resp, nil
}

// writeRequest serializes req onto conn: request line, Host (defaulted
// from the URL authority), User-Agent (defaulted), Content-Length, and
// the body, per spec.md §4.9's "populate Host/User-Agent/target before
// write" requirement.
func writeRequest(conn netx.Conn, req *Request, host string) error {
	h := req.Header.Clone()
	if h.Get("Host") == "" {
		h.Set("Host", host)
	}
	if h.Get("User-Agent") == "" {
		h.Set("User-Agent", UserAgent)
	}
	if len(req.Body) > 0 && h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(len(req.Body)))
	}

	line := fmt.Sprintf("%s %s HTTP/1.1\r\n", req.Method, req.URL.Target())
	if _, err := conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("client: write request line: %w", err)
	}
	if err := h.Write(conn); err != nil {
		return fmt.Errorf("client: write headers: %w", err)
	}
	if len(req.Body) > 0 {
		if _, err := conn.Write(req.Body); err != nil {
			return fmt.Errorf("client: write body: %w", err)
		}
	}
	return nil
}
