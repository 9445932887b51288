package client

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	frameDelimiter = "\n\n"
	eventPrefix    = "event:"
	dataPrefix     = "data:"
)

// frameDecoder incrementally reassembles delimited frames from a chunked
// byte stream. Chunks may split a frame anywhere, including inside a
// multi-byte rune: the decoder only ever cuts the buffer at the blank-line
// delimiter, whose bytes cannot occur inside a UTF-8 sequence, so decoding
// state carries across reads for free.
type frameDecoder struct {
	buf []byte
}

// Feed appends a chunk to the buffer and returns the events decoded from
// every complete frame now available, in stream order. A partial frame at
// the buffer tail is retained until more bytes arrive.
func (d *frameDecoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		idx := bytes.Index(d.buf, []byte(frameDelimiter))
		if idx < 0 {
			break
		}

		frame := d.buf[:idx]
		d.buf = d.buf[idx+len(frameDelimiter):]

		if ev, ok := parseFrame(frame); ok {
			events = append(events, ev)
		}
	}

	return events
}

// parseFrame decodes a single complete frame. Unknown event kinds are
// skipped for forward compatibility. A recognized frame whose payload
// fails to parse is reported as an ErrorEvent rather than aborting the
// stream, since the delimiter framing lets the decoder resynchronize on
// the next frame.
func parseFrame(frame []byte) (Event, bool) {
	var kind string
	var data []byte

	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, eventPrefix) {
			kind = strings.TrimSpace(strings.TrimPrefix(line, eventPrefix))
		} else if strings.HasPrefix(line, dataPrefix) {
			data = []byte(strings.TrimSpace(strings.TrimPrefix(line, dataPrefix)))
		}
	}

	switch kind {
	case "image":
		var ev ImageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return ErrorEvent{Message: "malformed image frame payload", Code: CodeBadFrame}, true
		}
		return ev, true
	case "error":
		var ev ErrorEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return ErrorEvent{Message: "malformed error frame payload", Code: CodeBadFrame}, true
		}
		return ev, true
	case "done":
		return DoneEvent{}, true
	default:
		return nil, false
	}
}
