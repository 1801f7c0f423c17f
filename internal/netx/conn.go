package netx

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"
)

// Conn is the minimal surface spec.md §4.2/§9 requires of a connection:
// a plain TCP socket or a TLS stream, interchangeably. Both *net.TCPConn
// and *tls.Conn satisfy it without adapters.
type Conn interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

var (
	// ErrNetwork wraps connect/reset/EOF-mid-message failures.
	ErrNetwork = errors.New("netx: network error")
	// ErrTLS wraps handshake or certificate/hostname verification failures.
	ErrTLS = errors.New("netx: tls error")
	// ErrTimeout wraps a deadline exceeded during a client operation.
	ErrTimeout = errors.New("netx: timeout")
)

// DialPlain opens a TCP connection to addr ("host:port"), honoring ctx's
// deadline for the connect phase per spec.md §4.2 "Plain" connections.
func DialPlain(ctx context.Context, addr string) (Conn, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return conn, nil
}

// DialTLS opens a TCP connection to addr and performs a TLS client
// handshake with SNI set to host and full peer/hostname verification
// against host, using the process-wide TLS context singleton
// (spec.md §4.2, §5, §9).
func DialTLS(ctx context.Context, addr, host string) (Conn, error) {
	raw, err := DialPlain(ctx, addr)
	if err != nil {
		return nil, err
	}

	cfg := clientTLSConfig(host)
	tc := tls.Client(raw.(net.Conn), cfg)

	if dl, ok := ctx.Deadline(); ok {
		_ = tc.SetDeadline(dl)
	}
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = tc.Close()
		return nil, fmt.Errorf("%w: %v", ErrTLS, err)
	}
	return tc, nil
}

// WithDeadline sets deadline d on conn, runs fn, then clears the
// deadline (SetDeadline(time.Time{})) before returning, per spec.md
// §4.2's "stream timeouts cleared" requirement. A zero d leaves the
// deadline untouched (body streaming, per spec.md §4.8/§4.9, runs with
// no deadline).
func WithDeadline(conn Conn, d time.Duration, fn func() error) error {
	if d <= 0 {
		return fn()
	}
	if err := conn.SetDeadline(time.Now().Add(d)); err != nil {
		return err
	}
	defer conn.SetDeadline(time.Time{})
	return fn()
}
