package client

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/stream"
)

// fakeServer accepts exactly one connection and replies with raw, the
// minimal stand-in for a real listener these tests need: client.go
// dials a real net.Conn, so the fixture must speak on an actual socket.
func fakeServer(t *testing.T, handle func(conn net.Conn)) (addr string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()
	return ln.Addr().String()
}

// fakeServerN accepts up to n connections, running handle on each in
// its own goroutine, for tests that need the client to dial more than
// once (e.g. redirect chains).
func fakeServerN(t *testing.T, n int, handle func(conn net.Conn)) (addr string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		for i := 0; i < n; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				handle(c)
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func TestClientSendReadsFullBody(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		_, _ = r.ReadString('\n') // request line
		for {
			line, _ := r.ReadString('\n')
			if strings.TrimRight(line, "\r\n") == "" {
				break
			}
		}
		_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
	})

	req, err := NewRequestBuilder().BaseURL("http://" + addr + "/").Build()
	require.NoError(t, err)

	c := New(nil)
	resp, err := c.Send(context.Background(), req)
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, 200, resp.StatusCode())
	buf := make([]byte, 16)
	n, err := resp.ReadFull(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestClientSendSetsDefaultHeaders(t *testing.T) {
	var gotLine string
	var gotHeaders []string
	addr := fakeServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		line, _ := r.ReadString('\n')
		gotLine = strings.TrimRight(line, "\r\n")
		for {
			l, _ := r.ReadString('\n')
			trimmed := strings.TrimRight(l, "\r\n")
			if trimmed == "" {
				break
			}
			gotHeaders = append(gotHeaders, trimmed)
		}
		_, _ = conn.Write([]byte("HTTP/1.1 204 No Content\r\nContent-Length: 0\r\n\r\n"))
	})

	req, err := NewRequestBuilder().BaseURL("http://" + addr + "/widgets").Method("POST").Build()
	require.NoError(t, err)

	c := New(nil)
	resp, err := c.Send(context.Background(), req)
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, "POST /widgets HTTP/1.1", gotLine)
	joined := strings.Join(gotHeaders, "\n")
	assert.Contains(t, joined, "User-Agent: "+UserAgent)
	assert.Contains(t, joined, "Host: ")
}

func TestClientFollowsRedirect(t *testing.T) {
	finalAddr := fakeServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		_, _ = r.ReadString('\n')
		for {
			line, _ := r.ReadString('\n')
			if strings.TrimRight(line, "\r\n") == "" {
				break
			}
		}
		_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\ndone"))
	})

	redirectAddr := fakeServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		_, _ = r.ReadString('\n')
		for {
			line, _ := r.ReadString('\n')
			if strings.TrimRight(line, "\r\n") == "" {
				break
			}
		}
		_, _ = conn.Write([]byte("HTTP/1.1 302 Found\r\nLocation: http://" + finalAddr + "/\r\nContent-Length: 0\r\n\r\n"))
	})

	req, err := NewRequestBuilder().BaseURL("http://" + redirectAddr + "/").Build()
	require.NoError(t, err)

	c := New(nil)
	resp, err := c.Send(context.Background(), req)
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, 200, resp.StatusCode())
	buf := make([]byte, 16)
	n, err := resp.ReadFull(buf)
	require.NoError(t, err)
	assert.Equal(t, "done", string(buf[:n]))
}

func TestClientTooManyRedirectsFails(t *testing.T) {
	// MaxRedirects(1) with the strictly-greater-than count in client.go's
	// send lets redirectCount reach 0 and 1 before the check at 2 fails,
	// so the server must serve the initial request plus one redirect hop.
	var addr string
	redirectTo := func(conn net.Conn) {
		r := bufio.NewReader(conn)
		_, _ = r.ReadString('\n')
		for {
			line, _ := r.ReadString('\n')
			if strings.TrimRight(line, "\r\n") == "" {
				break
			}
		}
		_, _ = conn.Write([]byte("HTTP/1.1 302 Found\r\nLocation: http://" + addr + "/\r\nContent-Length: 0\r\n\r\n"))
	}
	addr = fakeServerN(t, 2, redirectTo)

	req, err := NewRequestBuilder().BaseURL("http://" + addr + "/").MaxRedirects(1).Build()
	require.NoError(t, err)

	c := New(nil)
	_, err = c.Send(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestClientReadChunks(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		_, _ = r.ReadString('\n')
		for {
			line, _ := r.ReadString('\n')
			if strings.TrimRight(line, "\r\n") == "" {
				break
			}
		}
		_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"))
	})

	req, err := NewRequestBuilder().BaseURL("http://" + addr + "/").Build()
	require.NoError(t, err)

	c := New(nil)
	resp, err := c.Send(context.Background(), req)
	require.NoError(t, err)
	defer resp.Close()

	tx := stream.New[httpx.Chunk](4, stream.DropWhenFull)
	done := make(chan error, 1)
	go func() { done <- resp.ReadChunks(context.Background(), tx) }()

	ev, ok, err := tx.Receive(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", string(ev.Body))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ReadChunks to finish")
	}
}
