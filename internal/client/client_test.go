package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	images []ImageEvent
	errors []ErrorEvent
	dones  int
	done   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnImage: func(ev ImageEvent) { r.images = append(r.images, ev) },
		OnError: func(ev ErrorEvent) { r.errors = append(r.errors, ev) },
		OnDone: func() {
			r.dones++
			close(r.done)
		},
	}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()

	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("session never settled")
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func TestStartHappyPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("roomType"); got != "bedroom" {
			t.Errorf("unexpected roomType: %s", got)
		}
		if got := r.FormValue("stagingStyle"); got != "coastal" {
			t.Errorf("unexpected stagingStyle: %s", got)
		}

		fmt.Fprint(w, "event: image\ndata: {\"stagedImageUrl\":\"https://x/1.png\",\"stagedId\":\"a1\"}\n\nevent: done\n\n")
	}))
	defer ts.Close()

	rec := newRecorder()
	New(ts.URL).Start(context.Background(), GenerationRequest{
		Image:        []byte("fake-image"),
		RoomType:     "bedroom",
		StagingStyle: "coastal",
	}, rec.handlers())

	rec.wait(t)

	if len(rec.images) != 1 {
		t.Fatalf("expected 1 image event, got %d", len(rec.images))
	}
	if rec.images[0].StagedImageURL != "https://x/1.png" || rec.images[0].StagedID != "a1" {
		t.Fatalf("unexpected image event: %+v", rec.images[0])
	}
	if len(rec.errors) != 0 {
		t.Fatalf("expected no error events, got %+v", rec.errors)
	}
	if rec.dones != 1 {
		t.Fatalf("expected exactly one done, got %d", rec.dones)
	}
}

func TestStartSplitMidFrame(t *testing.T) {
	stream := "event: image\ndata: {\"stagedImageUrl\":\"https://x/1.png\",\"stagedId\":\"a1\"}\n\nevent: done\n\n"
	cut := 30 // inside the JSON payload

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, stream[:cut])
		flush(w)
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, stream[cut:])
	}))
	defer ts.Close()

	rec := newRecorder()
	New(ts.URL).Start(context.Background(), GenerationRequest{Image: []byte("x")}, rec.handlers())
	rec.wait(t)

	if len(rec.images) != 1 || rec.images[0].StagedID != "a1" {
		t.Fatalf("chunk split changed observable events: %+v", rec.images)
	}
	if rec.dones != 1 || len(rec.errors) != 0 {
		t.Fatalf("unexpected terminal behavior: dones=%d errors=%+v", rec.dones, rec.errors)
	}
}

func TestStartErrorThenSilentClose(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: error\ndata: {\"message\":\"quota exceeded\",\"code\":\"AI_QUOTA_EXCEEDED\"}\n\n")
		// No done frame: the transport close is the terminal signal.
	}))
	defer ts.Close()

	rec := newRecorder()
	New(ts.URL).Start(context.Background(), GenerationRequest{Image: []byte("x")}, rec.handlers())
	rec.wait(t)

	if len(rec.images) != 0 {
		t.Fatalf("expected no image events, got %+v", rec.images)
	}
	if len(rec.errors) != 1 || rec.errors[0].Code != "AI_QUOTA_EXCEEDED" {
		t.Fatalf("expected quota error passthrough, got %+v", rec.errors)
	}
	if rec.dones != 1 {
		t.Fatalf("completion must still fire exactly once, got %d", rec.dones)
	}
}

func TestStartMissingFileShortCircuits(t *testing.T) {
	var requests atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer ts.Close()

	rec := newRecorder()
	New(ts.URL).Start(context.Background(), GenerationRequest{}, rec.handlers())

	// The validation failure settles synchronously, before Start returns.
	select {
	case <-rec.done:
	default:
		t.Fatal("missing-file failure was not synchronous")
	}

	if len(rec.errors) != 1 || rec.errors[0].Code != CodeNoFile {
		t.Fatalf("expected NO_FILE error, got %+v", rec.errors)
	}
	if rec.dones != 1 {
		t.Fatalf("expected exactly one done, got %d", rec.dones)
	}
	if requests.Load() != 0 {
		t.Fatalf("expected zero HTTP requests, got %d", requests.Load())
	}
}

func TestStartOptionalFieldOmission(t *testing.T) {
	cases := []struct {
		name     string
		teamID   string
		expected []string
	}{
		{"empty is omitted", "", nil},
		{"whitespace is omitted", "   ", nil},
		{"value is sent", "abc", []string{"abc"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Errorf("failed to parse multipart form: %v", err)
				}

				got := r.MultipartForm.Value["teamId"]
				if len(got) != len(tc.expected) {
					t.Errorf("teamId presence mismatch: got %v, want %v", got, tc.expected)
				} else if len(got) == 1 && got[0] != tc.expected[0] {
					t.Errorf("teamId value mismatch: got %q", got[0])
				}

				fmt.Fprint(w, "event: done\n\n")
			}))
			defer ts.Close()

			rec := newRecorder()
			New(ts.URL).Start(context.Background(), GenerationRequest{
				Image:  []byte("x"),
				TeamID: tc.teamID,
			}, rec.handlers())
			rec.wait(t)
		})
	}
}

func TestStartDefaultsAndHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if got := r.Header.Get("x-fingerprint"); got != "device-1" {
			t.Errorf("unexpected fingerprint header: %q", got)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("roomType"); got != "living-room" {
			t.Errorf("expected room type fallback, got %q", got)
		}
		if got := r.FormValue("stagingStyle"); got != "modern" {
			t.Errorf("expected staging style fallback, got %q", got)
		}

		fmt.Fprint(w, "event: done\n\n")
	}))
	defer ts.Close()

	cl := New(ts.URL,
		WithTokenProvider(func() (string, bool) { return "tok-123", true }),
		WithFingerprintProvider(func() (string, error) { return "device-1", nil }),
	)

	rec := newRecorder()
	cl.Start(context.Background(), GenerationRequest{Image: []byte("x")}, rec.handlers())
	rec.wait(t)
}

func TestStartAnonymousSendsNoAuthHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("anonymous request must not carry auth header, got %q", got)
		}
		fmt.Fprint(w, "event: done\n\n")
	}))
	defer ts.Close()

	cl := New(ts.URL, WithTokenProvider(func() (string, bool) { return "", false }))

	rec := newRecorder()
	cl.Start(context.Background(), GenerationRequest{Image: []byte("x")}, rec.handlers())
	rec.wait(t)
}

func TestStartNonOKStatusKeepsServerClassification(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"success":false,"error":{"code":"CREDITS_EXHAUSTED","message":"team has no credits left"}}`)
	}))
	defer ts.Close()

	rec := newRecorder()
	New(ts.URL).Start(context.Background(), GenerationRequest{Image: []byte("x")}, rec.handlers())
	rec.wait(t)

	if len(rec.errors) != 1 || rec.errors[0].Code != "CREDITS_EXHAUSTED" {
		t.Fatalf("expected server classification passthrough, got %+v", rec.errors)
	}
	if rec.dones != 1 {
		t.Fatalf("expected exactly one done, got %d", rec.dones)
	}
}

func TestStartTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	rec := newRecorder()
	New(ts.URL).Start(context.Background(), GenerationRequest{Image: []byte("x")}, rec.handlers())
	rec.wait(t)

	if len(rec.errors) != 1 || rec.errors[0].Code != CodeNetwork {
		t.Fatalf("expected network error, got %+v", rec.errors)
	}
	if rec.dones != 1 {
		t.Fatalf("expected exactly one done, got %d", rec.dones)
	}
}

func TestStartCancellationSettlesOnce(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: image\ndata: {\"stagedId\":\"a1\"}\n\n")
		flush(w)
		<-release
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())

	rec := newRecorder()
	images := make(chan struct{}, 1)
	handlers := rec.handlers()
	onImage := handlers.OnImage
	handlers.OnImage = func(ev ImageEvent) {
		onImage(ev)
		images <- struct{}{}
	}

	New(ts.URL).Start(ctx, GenerationRequest{Image: []byte("x")}, handlers)

	<-images
	cancel()
	rec.wait(t)

	if rec.dones != 1 {
		t.Fatalf("cancellation must still settle exactly once, got %d", rec.dones)
	}
	if len(rec.errors) != 1 {
		t.Fatalf("cancellation should surface one error, got %+v", rec.errors)
	}
}

func TestStartDoneFrameStopsFurtherEvents(t *testing.T) {
	// An image frame buffered after the done frame must not be delivered.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: done\n\nevent: image\ndata: {\"stagedId\":\"late\"}\n\n")
	}))
	defer ts.Close()

	rec := newRecorder()
	New(ts.URL).Start(context.Background(), GenerationRequest{Image: []byte("x")}, rec.handlers())
	rec.wait(t)

	if len(rec.images) != 0 {
		t.Fatalf("no events may follow the terminal frame, got %+v", rec.images)
	}
	if rec.dones != 1 {
		t.Fatalf("expected exactly one done, got %d", rec.dones)
	}
}
