package httpx

import (
	"context"
	"strings"
	"testing"
)

func TestReadChunksIntoOrderAndExtensions(t *testing.T) {
	raw := "3; foo=bar\r\nabc\r\n4\r\ndefg\r\n0\r\n\r\n"
	r := strings.NewReader(raw)

	type got struct {
		size int64
		ext  string
		body []byte
	}
	var chunks []got
	cur := -1

	err := ReadChunksInto(context.Background(), r,
		func(size int64, ext string) error {
			chunks = append(chunks, got{size: size, ext: ext})
			cur = len(chunks) - 1
			return nil
		},
		func(remaining int64, data []byte) error {
			if cur >= 0 {
				chunks[cur].body = append(chunks[cur].body, data...)
			}
			return nil
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 header callbacks (incl. terminal), got %d", len(chunks))
	}
	if chunks[0].ext != "foo=bar" || string(chunks[0].body) != "abc" {
		t.Fatalf("chunk 0 mismatch: %+v", chunks[0])
	}
	if chunks[1].ext != "" || string(chunks[1].body) != "defg" {
		t.Fatalf("chunk 1 mismatch: %+v", chunks[1])
	}
	if chunks[2].size != 0 {
		t.Fatalf("expected terminal 0 chunk, got %+v", chunks[2])
	}
}

func TestReadChunksIntoBadEncoding(t *testing.T) {
	r := strings.NewReader("ZZZ\r\nbad\r\n")
	err := ReadChunksInto(context.Background(), r, nil, nil)
	if err == nil {
		t.Fatal("expected error for bad chunk size")
	}
}

func TestReadChunksIntoEmptyIsCleanEOF(t *testing.T) {
	r := strings.NewReader("")
	if err := ReadChunksInto(context.Background(), r, nil, nil); err != nil {
		t.Fatalf("expected EOF treated as success, got %v", err)
	}
}
