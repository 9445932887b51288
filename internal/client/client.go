package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/homestage-ai/staging-client/internal/types"

	"go.uber.org/zap"
)

// TokenProvider returns the bearer token to attach to requests, or false
// when the session is anonymous.
type TokenProvider func() (string, bool)

// FingerprintProvider returns the persisted device identifier the server
// uses to rate-limit anonymous usage.
type FingerprintProvider func() (string, error)

// GenerationRequest describes one staging job. It is constructed fresh
// per user action and consumed exactly once by Start.
type GenerationRequest struct {
	Image           []byte
	Filename        string
	RoomType        string
	StagingStyle    string
	Prompt          string
	RemoveFurniture bool
	TeamID          string
	ProjectID       string
}

// Client submits staging jobs to the remote generation API and
// demultiplexes the streamed response into discrete events.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	token       TokenProvider
	fingerprint FingerprintProvider
	logger      *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTokenProvider(provider TokenProvider) Option {
	return func(c *Client) {
		c.token = provider
	}
}

func WithFingerprintProvider(provider FingerprintProvider) Option {
	return func(c *Client) {
		c.fingerprint = provider
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// No client-wide timeout: it would cut long-running streams short.
		// Callers bound the session lifetime through the context instead.
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Start submits a staging job and streams decoded events to the handlers,
// in arrival order, exactly once per event. It is fire-and-forget:
// completion is signaled exclusively through handlers.OnDone, which fires
// exactly once whether the stream ends with a done frame, a transport
// close, a failure, or a cancelled context. No retries are performed;
// resubmitting is the caller's job and requires a fresh request.
func (c *Client) Start(ctx context.Context, req GenerationRequest, handlers Handlers) {
	s := newSession(handlers)

	if len(req.Image) == 0 {
		s.fail(ErrorEvent{Message: "no file provided", Code: CodeNoFile})
		s.settle()
		return
	}

	s.state = stateSending
	go c.run(ctx, req, s)
}

func (c *Client) run(ctx context.Context, req GenerationRequest, s *session) {
	httpReq, err := c.buildStageRequest(ctx, req)
	if err != nil {
		s.fail(ErrorEvent{Message: err.Error(), Code: CodeNetwork})
		s.settle()
		return
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		s.fail(ErrorEvent{Message: err.Error(), Code: CodeNetwork})
		s.settle()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.fail(readErrorResponse(resp))
		s.settle()
		return
	}

	s.state = stateStreaming
	c.readStream(resp.Body, s)
}

func (c *Client) readStream(body io.Reader, s *session) {
	decoder := &frameDecoder{}
	buf := make([]byte, 4096)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, ev := range decoder.Feed(buf[:n]) {
				s.dispatch(ev)
				if s.state == stateSettled {
					// Terminal frame seen; anything still buffered is dropped.
					return
				}
			}
		}

		if err != nil {
			if err == io.EOF {
				c.logger.Debug("stream closed by server", zap.Int("images", len(s.images)))
				s.settle()
			} else {
				s.fail(ErrorEvent{Message: err.Error(), Code: CodeNetwork})
				s.settle()
			}
			return
		}
	}
}

func (c *Client) buildStageRequest(ctx context.Context, req GenerationRequest) (*http.Request, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := req.Filename
	if filename == "" {
		filename = "upload.png"
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}

	roomType := req.RoomType
	if roomType == "" {
		roomType = types.DefaultRoomType
	}
	stagingStyle := req.StagingStyle
	if stagingStyle == "" {
		stagingStyle = types.DefaultStagingStyle
	}

	writer.WriteField("roomType", roomType)
	writer.WriteField("stagingStyle", stagingStyle)

	if strings.TrimSpace(req.Prompt) != "" {
		writer.WriteField("prompt", req.Prompt)
	}
	if req.RemoveFurniture {
		writer.WriteField("removeFurniture", "true")
	}

	// The server treats field absence, not an empty string, as "no team"
	// and "no project".
	if teamID := strings.TrimSpace(req.TeamID); teamID != "" {
		writer.WriteField("teamId", teamID)
	}
	if projectID := strings.TrimSpace(req.ProjectID); projectID != "" {
		writer.WriteField("projectId", projectID)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/stage", body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuthHeaders(httpReq)

	return httpReq, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.token != nil {
		if token, ok := c.token(); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	if c.fingerprint != nil {
		if fp, err := c.fingerprint(); err == nil && fp != "" {
			req.Header.Set("x-fingerprint", fp)
		}
	}
}

// readErrorResponse maps a non-OK HTTP status, surfaced before any frame
// was streamed, to an error event. A structured envelope in the body keeps
// the server's classification; anything else becomes a network error.
func readErrorResponse(resp *http.Response) ErrorEvent {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var envelope types.Envelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return ErrorEvent{Message: envelope.Error.Message, Code: envelope.Error.Code}
	}

	return ErrorEvent{
		Message: fmt.Sprintf("staging request failed with status %d", resp.StatusCode),
		Code:    CodeNetwork,
	}
}
