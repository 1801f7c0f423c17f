// Package main is a small command-line client demonstrating full,
// chunked, and SSE response consumption, the three shapes
// original_source/examples/client/basic.cpp, chunked.cpp, and sse.cpp
// each demonstrate against a single hardcoded request.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/andycostintoma/httpx/client"
	"github.com/andycostintoma/httpx/internal/config"
	"github.com/andycostintoma/httpx/internal/httpx"
	"github.com/andycostintoma/httpx/internal/obslog"
	"github.com/andycostintoma/httpx/internal/stream"
)

func main() {
	url := flag.String("url", "http://127.0.0.1:8080/hello", "request URL")
	mode := flag.String("mode", "full", "one of: full, chunked, sse")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("HTTPX_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpxcli: loading config: %v\n", err)
		os.Exit(1)
	}
	log := obslog.NewWriter(os.Stderr, cfg.Client.LogLevel)

	req, err := client.NewRequestBuilder().
		BaseURL(*url).
		AutoRedirect(cfg.Client.AutoRedirect).
		MaxRedirects(uint64(cfg.Client.MaxRedirects)).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpxcli: building request: %v\n", err)
		os.Exit(1)
	}

	c := client.New(log)
	ctx := context.Background()

	resp, err := c.Send(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpxcli: send: %v\n", err)
		os.Exit(1)
	}
	defer resp.Close()

	fmt.Printf("status: %d %s\n", resp.StatusCode(), resp.Reason())

	switch *mode {
	case "chunked":
		tx := stream.New[httpx.Chunk](stream.DefaultCapacity, stream.DropWhenFull)
		go func() {
			if err := resp.ReadChunks(ctx, tx); err != nil {
				fmt.Fprintf(os.Stderr, "httpxcli: read chunks: %v\n", err)
			}
		}()
		for {
			chunk, ok, err := tx.Receive(ctx)
			if err != nil || !ok {
				break
			}
			fmt.Printf("chunk (%d bytes): %s\n", len(chunk.Body), chunk.Body)
		}

	case "sse":
		tx := stream.New[httpx.Event](stream.DefaultCapacity, stream.DropWhenFull)
		go func() {
			if err := resp.ReadSSE(ctx, tx); err != nil {
				fmt.Fprintf(os.Stderr, "httpxcli: read sse: %v\n", err)
			}
		}()
		for {
			ev, ok, err := tx.Receive(ctx)
			if err != nil || !ok {
				break
			}
			fmt.Printf("event: %q data: %q id: %q\n", ev.Event, ev.Data, ev.ID)
		}

	default:
		buf := make([]byte, 4096)
		for {
			n, err := resp.ReadFull(buf)
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "httpxcli: read body: %v\n", err)
				break
			}
		}
		fmt.Println()
	}
}
