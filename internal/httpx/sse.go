package httpx

import (
	"strconv"
	"strings"
)

// Event is a Server-Sent Event per spec.md §3 "ServerSentEvent".
//
// Retry is a pointer so "field absent" is distinguishable from
// "retry: 0"; a nil Retry is omitted from both Valid() and ToChunk().
type Event struct {
	Event string
	ID    string
	Data  string
	Retry *uint64
}

// Valid reports whether any field is set, per spec.md's "valid iff any
// field is present".
func (e Event) Valid() bool {
	return e.Event != "" || e.ID != "" || e.Data != "" || e.Retry != nil
}

// ToChunk serializes the event into the wire form of spec.md §6.3,
// in the exact field order event/id/data/retry, one field per line,
// with a trailing blank line marking the block boundary. The result
// is carried as the Body of an httpx.Chunk when written over a
// chunked response.
func (e Event) ToChunk() Chunk {
	var b strings.Builder
	if e.Event != "" {
		b.WriteString("event: ")
		b.WriteString(e.Event)
		b.WriteByte('\n')
	}
	if e.ID != "" {
		b.WriteString("id: ")
		b.WriteString(e.ID)
		b.WriteByte('\n')
	}
	if e.Data != "" {
		b.WriteString("data: ")
		b.WriteString(e.Data)
		b.WriteByte('\n')
	}
	if e.Retry != nil {
		b.WriteString("retry: ")
		b.WriteString(strconv.FormatUint(*e.Retry, 10))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return Chunk{Body: []byte(b.String())}
}

// ParseSSEBlock parses one SSE block (the text between two blank
// lines) into an Event, per spec.md §4.1 mode 3:
//   - lines are split on '\n'; a trailing '\r' is stripped
//   - each line splits on the first ':' into field/value; a single
//     leading space on value is stripped
//   - "data" fields accumulate, joined by '\n' between successive values
//   - "event"/"id" last-write-wins
//   - "retry" parses as base-10 uint64, silently ignored if unparseable
//   - lines without ':' are treated as field with empty value
//   - lines starting with ':' are comments, ignored
//
// The second return value reports whether any recognised field line
// (data, event, id, or a parseable retry) was seen; it is false (drop)
// for an empty or comment-only block. It can be true for an event whose
// Valid() is false, e.g. a lone "data" line with an empty value.
func ParseSSEBlock(block []byte) (Event, bool) {
	var ev Event
	var data []string
	hasField := false

	for _, raw := range strings.Split(string(block), "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := line, ""
		if i := strings.IndexByte(line, ':'); i >= 0 {
			field, value = line[:i], line[i+1:]
			if strings.HasPrefix(value, " ") {
				value = value[1:]
			}
		}

		switch field {
		case "data":
			data = append(data, value)
			hasField = true
		case "event":
			ev.Event = value
			hasField = true
		case "id":
			ev.ID = value
			hasField = true
		case "retry":
			if n, err := strconv.ParseUint(value, 10, 64); err == nil {
				ev.Retry = &n
				hasField = true
			}
		}
	}

	if len(data) > 0 {
		ev.Data = strings.Join(data, "\n")
	}
	return ev, hasField
}

// SSEBlockSplitter accumulates bytes from a rolling buffer and yields
// complete blocks (separated by a blank line, "\n\n") as they become
// available. Used to decode SSE either over chunked bodies (fed from
// ReadChunksInto's onBody callback) or directly over a raw body stream.
type SSEBlockSplitter struct {
	buf []byte
}

// Feed appends data to the rolling buffer and returns any complete
// blocks it now contains. Each block keeps the '\n' that ends its last
// line; the blank line terminating the block is consumed.
func (s *SSEBlockSplitter) Feed(data []byte) [][]byte {
	s.buf = append(s.buf, data...)

	var blocks [][]byte
	for {
		idx := indexBlankLine(s.buf)
		if idx < 0 {
			break
		}
		blocks = append(blocks, s.buf[:idx+1])
		s.buf = s.buf[idx+2:]
	}
	return blocks
}

// Flush returns any remaining buffered bytes as a final block if
// non-empty (used when the underlying stream ends without a trailing
// blank line).
func (s *SSEBlockSplitter) Flush() ([]byte, bool) {
	if len(s.buf) == 0 {
		return nil, false
	}
	rest := s.buf
	s.buf = nil
	return rest, true
}

// indexBlankLine finds the first "\n\n" boundary, returning the index
// of the first '\n' of the pair, or -1 if none is present yet.
func indexBlankLine(buf []byte) int {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == '\n' && buf[i+1] == '\n' {
			return i
		}
	}
	return -1
}
