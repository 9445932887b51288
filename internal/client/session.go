package client

type sessionState int

const (
	stateIdle sessionState = iota
	stateSending
	stateStreaming
	stateSettled
)

// session tracks one Start invocation from request construction to the
// terminal signal. It is owned by a single goroutine at a time, so no
// locking is needed; the settled check is what guarantees the
// exactly-once terminal signal when a frame-level error and a transport
// close race.
type session struct {
	handlers  Handlers
	state     sessionState
	images    []ImageEvent
	demoCount int
	demoLimit int
	isDemo    bool
	lastErr   *ErrorEvent
}

func newSession(handlers Handlers) *session {
	return &session{handlers: handlers, state: stateIdle}
}

func (s *session) dispatch(ev Event) {
	if s.state == stateSettled {
		return
	}

	switch e := ev.(type) {
	case ImageEvent:
		s.images = append(s.images, e)
		if e.DemoCount != nil {
			s.demoCount = *e.DemoCount
		}
		if e.DemoLimit != nil {
			s.demoLimit = *e.DemoLimit
		}
		if e.IsDemo != nil {
			s.isDemo = *e.IsDemo
		}
		if s.handlers.OnImage != nil {
			s.handlers.OnImage(e)
		}
	case ErrorEvent:
		s.fail(e)
	case DoneEvent:
		s.settle()
	}
}

// fail reports an error without settling: the server may still close the
// stream with a done frame, and transport close remains the authoritative
// terminal signal either way.
func (s *session) fail(e ErrorEvent) {
	if s.state == stateSettled {
		return
	}

	s.lastErr = &e
	if s.handlers.OnError != nil {
		s.handlers.OnError(e)
	}
}

func (s *session) settle() {
	if s.state == stateSettled {
		return
	}

	s.state = stateSettled
	if s.handlers.OnDone != nil {
		s.handlers.OnDone()
	}
}
