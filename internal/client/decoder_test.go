package client

import (
	"reflect"
	"testing"
)

const sampleStream = "event: image\ndata: {\"stagedImageUrl\":\"https://x/1.png\",\"stagedId\":\"a1\"}\n\n" +
	"event: image\ndata: {\"stagedImageUrl\":\"https://x/2.png\",\"stagedId\":\"a2\"}\n\n" +
	"event: done\n\n"

func feedAll(t *testing.T, chunks [][]byte) []Event {
	t.Helper()

	decoder := &frameDecoder{}
	var events []Event
	for _, chunk := range chunks {
		events = append(events, decoder.Feed(chunk)...)
	}

	return events
}

func TestDecoderSingleChunk(t *testing.T) {
	events := feedAll(t, [][]byte{[]byte(sampleStream)})

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	first, ok := events[0].(ImageEvent)
	if !ok {
		t.Fatalf("expected ImageEvent, got %T", events[0])
	}
	if first.StagedImageURL != "https://x/1.png" || first.StagedID != "a1" {
		t.Fatalf("unexpected first event: %+v", first)
	}

	if _, ok := events[2].(DoneEvent); !ok {
		t.Fatalf("expected DoneEvent, got %T", events[2])
	}
}

func TestDecoderChunkingIsTransparent(t *testing.T) {
	want := feedAll(t, [][]byte{[]byte(sampleStream)})

	// Every possible two-chunk split, including mid-frame, mid-payload
	// and mid-delimiter.
	for cut := 0; cut <= len(sampleStream); cut++ {
		got := feedAll(t, [][]byte{
			[]byte(sampleStream[:cut]),
			[]byte(sampleStream[cut:]),
		})
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d changed the event sequence: %+v", cut, got)
		}
	}

	// Byte-at-a-time delivery.
	var chunks [][]byte
	for i := 0; i < len(sampleStream); i++ {
		chunks = append(chunks, []byte(sampleStream[i:i+1]))
	}
	if got := feedAll(t, chunks); !reflect.DeepEqual(got, want) {
		t.Fatalf("byte-at-a-time delivery changed the event sequence: %+v", got)
	}
}

func TestDecoderSplitMidMultibyteRune(t *testing.T) {
	stream := "event: image\ndata: {\"stagedImageUrl\":\"https://x/ü.png\",\"stagedId\":\"ü1\"}\n\nevent: done\n\n"
	want := feedAll(t, [][]byte{[]byte(stream)})

	for cut := 0; cut <= len(stream); cut++ {
		got := feedAll(t, [][]byte{[]byte(stream[:cut]), []byte(stream[cut:])})
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d corrupted multi-byte content: %+v", cut, got)
		}
	}
}

func TestDecoderUnknownKindIsSkipped(t *testing.T) {
	stream := "event: image\ndata: {\"stagedId\":\"a1\"}\n\n" +
		"event: progress\ndata: {\"percent\":50}\n\n" +
		"event: image\ndata: {\"stagedId\":\"a2\"}\n\n"

	events := feedAll(t, [][]byte{[]byte(stream)})

	if len(events) != 2 {
		t.Fatalf("expected unknown frame to be skipped, got %d events", len(events))
	}
	if ev := events[0].(ImageEvent); ev.StagedID != "a1" {
		t.Fatalf("unexpected first event: %+v", ev)
	}
	if ev := events[1].(ImageEvent); ev.StagedID != "a2" {
		t.Fatalf("unexpected second event: %+v", ev)
	}
}

func TestDecoderErrorFrame(t *testing.T) {
	stream := "event: error\ndata: {\"message\":\"quota exceeded\",\"code\":\"AI_QUOTA_EXCEEDED\"}\n\n"

	events := feedAll(t, [][]byte{[]byte(stream)})

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev, ok := events[0].(ErrorEvent)
	if !ok {
		t.Fatalf("expected ErrorEvent, got %T", events[0])
	}
	if ev.Message != "quota exceeded" || ev.Code != "AI_QUOTA_EXCEEDED" {
		t.Fatalf("unexpected error event: %+v", ev)
	}
}

func TestDecoderMalformedPayloadResynchronizes(t *testing.T) {
	stream := "event: image\ndata: {not-json\n\n" +
		"event: image\ndata: {\"stagedId\":\"a2\"}\n\n"

	events := feedAll(t, [][]byte{[]byte(stream)})

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	ev, ok := events[0].(ErrorEvent)
	if !ok || ev.Code != CodeBadFrame {
		t.Fatalf("expected BAD_FRAME error event, got %+v", events[0])
	}
	if img := events[1].(ImageEvent); img.StagedID != "a2" {
		t.Fatalf("decoder failed to resynchronize after bad frame: %+v", events[1])
	}
}

func TestDecoderRetainsPartialTail(t *testing.T) {
	decoder := &frameDecoder{}

	if events := decoder.Feed([]byte("event: image\ndata: {\"stagedId\"")); len(events) != 0 {
		t.Fatalf("partial frame must not produce events, got %d", len(events))
	}

	events := decoder.Feed([]byte(":\"a1\"}\n\n"))
	if len(events) != 1 {
		t.Fatalf("expected completed frame to produce 1 event, got %d", len(events))
	}
	if ev := events[0].(ImageEvent); ev.StagedID != "a1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestDecoderCRLFTolerance(t *testing.T) {
	stream := "event: image\r\ndata: {\"stagedId\":\"a1\"}\r\n\n\nevent: done\n\n"
	// The \r\n\n\n above ends the first frame at \n\n after the \r is
	// trimmed from the data line.
	events := feedAll(t, [][]byte{[]byte(stream)})

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if ev := events[0].(ImageEvent); ev.StagedID != "a1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
