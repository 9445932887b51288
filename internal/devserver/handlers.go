package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/homestage-ai/staging-client/internal/config"
	"github.com/homestage-ai/staging-client/internal/mq"
	"github.com/homestage-ai/staging-client/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Number of staged variants the stub produces per request.
const stubOutputs = 2

// stagedResult is the queue payload between the generation worker and
// the streaming handler.
type stagedResult struct {
	StagedID       string `msgpack:"staged_id"`
	StagedImageURL string `msgpack:"staged_image_url"`
	DemoCount      *int   `msgpack:"demo_count,omitempty"`
	DemoLimit      *int   `msgpack:"demo_limit,omitempty"`
	IsDemo         *bool  `msgpack:"is_demo,omitempty"`
}

// imagePayload is the JSON body of an image frame on the wire.
type imagePayload struct {
	StagedImageURL string `json:"stagedImageUrl"`
	StagedID       string `json:"stagedId"`
	DemoCount      *int   `json:"demoCount,omitempty"`
	DemoLimit      *int   `json:"demoLimit,omitempty"`
	IsDemo         *bool  `json:"isDemo,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (s *Server) stageImage(c *gin.Context) {
	if _, err := c.FormFile("file"); err != nil {
		abortWithError(c, http.StatusBadRequest, "NO_FILE", "no file provided")
		return
	}

	roomType := c.PostForm("roomType")
	stagingStyle := c.PostForm("stagingStyle")
	if roomType == "" || stagingStyle == "" {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "roomType and stagingStyle are required")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	var demo *demoStamp
	if fp, ok := c.Get("fingerprint"); ok {
		count, limit, allowed := s.quota.Take(fp.(string))
		if !allowed {
			// Quota errors are reported in-stream; the transport close is
			// the terminal signal, matching production behavior.
			writeErrorFrame(c, errorPayload{Message: "demo quota exceeded", Code: "AI_QUOTA_EXCEEDED"})
			return
		}
		demo = &demoStamp{count: count, limit: limit}
	}

	requestID := uuid.NewString()
	topic := config.DefaultStagingPrefix + requestID

	go s.generate(c.Request.Host, topic, demo)

	for {
		message, err := s.queue.Receive(c.Request.Context(), topic)
		if err != nil {
			if errors.Is(err, mq.ErrTopicClosed) {
				writeDoneFrame(c)
			} else if !errors.Is(err, context.Canceled) {
				s.logger.Error("failed to receive staged result", zap.Error(err))
				writeErrorFrame(c, errorPayload{Message: "staging pipeline failed", Code: "AI_PIPELINE_ERROR"})
			}
			return
		}

		var result stagedResult
		if err := msgpack.Unmarshal(message, &result); err != nil {
			s.logger.Error("failed to decode staged result", zap.Error(err))
			continue
		}

		writeImageFrame(c, imagePayload{
			StagedImageURL: result.StagedImageURL,
			StagedID:       result.StagedID,
			DemoCount:      result.DemoCount,
			DemoLimit:      result.DemoLimit,
			IsDemo:         result.IsDemo,
		})
	}
}

type demoStamp struct {
	count int
	limit int
}

// generate stands in for the staging pipeline: it mints fake staged
// results and publishes them to the session topic, paced like a slow
// backend.
func (s *Server) generate(host, topic string, demo *demoStamp) {
	ctx := context.Background()

	for i := 0; i < stubOutputs; i++ {
		time.Sleep(10 * time.Millisecond)

		stagedID := uuid.NewString()
		result := stagedResult{
			StagedID:       stagedID,
			StagedImageURL: fmt.Sprintf("http://%s/assets/%s.png", host, stagedID),
		}
		if demo != nil {
			isDemo := true
			result.DemoCount = &demo.count
			result.DemoLimit = &demo.limit
			result.IsDemo = &isDemo
		}

		payload, err := msgpack.Marshal(result)
		if err != nil {
			s.logger.Error("failed to encode staged result", zap.Error(err))
			break
		}

		if err := s.queue.Publish(ctx, topic, payload); err != nil {
			s.logger.Error("failed to publish staged result", zap.Error(err))
			break
		}
	}

	s.queue.CloseTopic(topic)
}

func (s *Server) restageImage(c *gin.Context) {
	var req types.RestageRequest
	if err := c.BindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "failed to parse request body")
		return
	}

	if strings.TrimSpace(req.StagedID) == "" {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "stagedId is required")
		return
	}

	stagedID := uuid.NewString()
	c.JSON(http.StatusOK, types.Envelope{
		Success: true,
		Data: &types.RestageData{
			StagedImageURL: fmt.Sprintf("http://%s/assets/%s.png", c.Request.Host, stagedID),
			StagedID:       stagedID,
			RoomType:       req.RoomType,
			StagingStyle:   req.StagingStyle,
			Prompt:         req.Prompt,
			Storage:        "local",
		},
	})
}

func writeImageFrame(c *gin.Context, payload imagePayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	fmt.Fprintf(c.Writer, "event: image\ndata: %s\n\n", data)
	c.Writer.Flush()
}

func writeErrorFrame(c *gin.Context, payload errorPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	fmt.Fprintf(c.Writer, "event: error\ndata: %s\n\n", data)
	c.Writer.Flush()
}

func writeDoneFrame(c *gin.Context) {
	fmt.Fprintf(c.Writer, "event: done\n\n")
	c.Writer.Flush()
}
