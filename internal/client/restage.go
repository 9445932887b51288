package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/homestage-ai/staging-client/internal/types"
)

// RestageParams refine an already-staged image identified by StagedID.
type RestageParams struct {
	StagedID        string
	RoomType        string
	StagingStyle    string
	Prompt          string
	RemoveFurniture bool
}

// Restage performs a single request/response refinement. Unlike Start it
// is not streamed: it returns the new staged result or a structured
// *APIError carrying the server's classification verbatim. No retries.
func (c *Client) Restage(ctx context.Context, params RestageParams) (*types.RestageData, error) {
	if params.StagedID == "" {
		return nil, errors.New("stagedId is required")
	}

	roomType := params.RoomType
	if roomType == "" {
		roomType = types.DefaultRoomType
	}
	stagingStyle := params.StagingStyle
	if stagingStyle == "" {
		stagingStyle = types.DefaultStagingStyle
	}

	payload, err := json.Marshal(types.RestageRequest{
		StagedID:        params.StagedID,
		RoomType:        roomType,
		StagingStyle:    stagingStyle,
		Prompt:          params.Prompt,
		RemoveFurniture: params.RemoveFurniture,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal restage request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/restage", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("restage request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope types.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("restage failed with status %d: %w", resp.StatusCode, err)
	}

	if !envelope.Success || envelope.Error != nil {
		if envelope.Error == nil {
			return nil, fmt.Errorf("restage failed with status %d", resp.StatusCode)
		}

		return nil, &APIError{
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
			Details: envelope.Error.Details,
		}
	}

	if envelope.Data == nil {
		return nil, errors.New("restage succeeded but returned no data")
	}

	return envelope.Data, nil
}
