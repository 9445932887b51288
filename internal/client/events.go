package client

// Event is one decoded frame off the staging stream. Exactly one of the
// concrete types below is produced per frame.
type Event interface {
	eventKind() string
}

type ImageEvent struct {
	StagedImageURL string `json:"stagedImageUrl"`
	StagedID       string `json:"stagedId"`
	DemoCount      *int   `json:"demoCount,omitempty"`
	DemoLimit      *int   `json:"demoLimit,omitempty"`
	IsDemo         *bool  `json:"isDemo,omitempty"`
}

type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type DoneEvent struct{}

func (ImageEvent) eventKind() string { return "image" }
func (ErrorEvent) eventKind() string { return "error" }
func (DoneEvent) eventKind() string  { return "done" }

// Handlers receive decoded events in arrival order, each at most once.
// OnDone fires exactly once per session, after which no handler is
// invoked again.
type Handlers struct {
	OnImage func(ImageEvent)
	OnError func(ErrorEvent)
	OnDone  func()
}
