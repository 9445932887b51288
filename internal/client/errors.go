package client

import "fmt"

// Client-side error classifications. Server-declared business codes
// (quota exceeded, content blocked, ...) pass through verbatim and are
// never rewritten to one of these.
const (
	CodeNoFile   = "NO_FILE"
	CodeNetwork  = "NETWORK_ERROR"
	CodeBadFrame = "BAD_FRAME"
)

// APIError is a structured error returned by the non-streaming endpoints,
// carrying the server's classification unchanged.
type APIError struct {
	Code    string
	Message string
	Details interface{}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
