// Package main runs an httpx server demonstrating a literal response,
// a path-parameter route, a chunked stream, and an SSE stream, the
// same four shapes original_source/examples/server/basic.cpp and
// sse.cpp demonstrate.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/andycostintoma/httpx/internal/config"
	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/obslog"
	"github.com/andycostintoma/httpx/internal/stream"
	"github.com/andycostintoma/httpx/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("HTTPX_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpxd: loading config: %v\n", err)
		os.Exit(1)
	}

	log := obslog.NewWriter(os.Stderr, cfg.Server.LogLevel)

	router := server.NewRouter()
	router.Get("/hello", server.HandlerFunc(helloHandler))
	router.Get("/users/:id", server.HandlerFunc(userHandler))
	router.Get("/stream", server.NewStreamingService(streamHeader, streamProducer, stream.DefaultCapacity, cfg.Server.BackpressurePolicy()))
	router.Get("/sse", server.NewSSEService(sseHeader, sseProducer, stream.DefaultCapacity, cfg.Server.BackpressurePolicy()))

	srv := server.New(router, log)

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpxd: listen %s: %v\n", cfg.Server.Addr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("httpxd listening", obslog.F("addr", cfg.Server.Addr))
	if err := srv.Serve(ctx, ln); err != nil {
		log.Error("server exited", err)
		os.Exit(1)
	}
}

func helloHandler(ctx context.Context, req *httpx.Request) (*server.Response, error) {
	return server.NewResponseBuilder().
		Status(200).Reason("OK").
		ContentType("text/plain").
		Body([]byte("Hello, World!")), nil
}

func userHandler(ctx context.Context, req *httpx.Request) (*server.Response, error) {
	id := req.PathParams["id"]
	return server.NewResponseBuilder().
		Status(200).Reason("OK").
		ContentType("text/plain").
		Body([]byte("user " + id)), nil
}

func streamHeader(ctx context.Context, req *httpx.Request) (*server.ResponseBuilder, error) {
	return server.NewResponseBuilder().Status(200).Reason("OK"), nil
}

func streamProducer(ctx context.Context, req *httpx.Request, tx *stream.Channel[httpx.Chunk]) {
	for i := 0; i < 5; i++ {
		body := []byte("chunk " + strconv.Itoa(i) + "\n")
		if err := tx.Send(ctx, httpx.Chunk{Body: body}); err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func sseHeader(ctx context.Context, req *httpx.Request) (*server.ResponseBuilder, error) {
	return server.NewResponseBuilder().Status(200).Reason("OK"), nil
}

func sseProducer(ctx context.Context, req *httpx.Request, tx *stream.Channel[httpx.Event]) {
	for i := 0; i < 5; i++ {
		ev := httpx.Event{Event: "tick", Data: strconv.Itoa(i)}
		if err := tx.Send(ctx, ev); err != nil {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}
