package tokenizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPSegmenter delegates segmentation to a remote NLP service.
//
//	POST {baseURL}/sentences {"text": "..."} -> {"sentences": ["...", ...]}
//	POST {baseURL}/tokens    {"text": "..."} -> {"tokens": ["...", ...]}
type HTTPSegmenter struct {
	baseURL string
	client  *http.Client
}

type segmentRequest struct {
	Text string `json:"text"`
}

type segmentResponse struct {
	Sentences []string `json:"sentences"`
	Tokens    []string `json:"tokens"`
}

// NewHTTPSegmenter creates a segmenter for the service at baseURL. A nil client
// gets a 30 second timeout.
func NewHTTPSegmenter(baseURL string, client *http.Client) *HTTPSegmenter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSegmenter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (h *HTTPSegmenter) Sentences(ctx context.Context, text string) ([]string, error) {
	resp, err := h.call(ctx, "/sentences", text)
	if err != nil {
		return nil, err
	}
	return resp.Sentences, nil
}

func (h *HTTPSegmenter) Tokens(ctx context.Context, sentence string) ([]string, error) {
	resp, err := h.call(ctx, "/tokens", sentence)
	if err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

func (h *HTTPSegmenter) call(ctx context.Context, path, text string) (*segmentResponse, error) {
	bodyBytes, err := json.Marshal(segmentRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling segmenter %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("segmenter %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	var out segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding segmenter response: %w", err)
	}
	return &out, nil
}
