package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

// upstreamMessage is a single chat-completions message.
type upstreamMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// completionRequest is an OpenAI-compatible chat completion request.
type completionRequest struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	Messages       []upstreamMessage `json:"messages"`
	Stream         bool              `json:"stream,omitempty"`
	ResponseFormat *responseFormat   `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"` // "json_object"
}

// completionResponse is the one-shot (non-streaming) response shape.
type completionResponse struct {
	Choices []struct {
		Message upstreamMessage `json:"message"`
	} `json:"choices"`
}

// streamEvent is one decoded SSE data payload from a streaming completion.
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// upstreamClient talks to whatever OpenAI-compatible provider the caller's
// session config points at. The gateway holds no credentials of its own.
type upstreamClient struct {
	httpClient *http.Client
}

func newUpstreamClient() *upstreamClient {
	return &upstreamClient{
		httpClient: &http.Client{
			// LLM requests can be slow, especially with thinking blocks
			Timeout: 5 * time.Minute,
		},
	}
}

func (u *upstreamClient) post(ctx context.Context, api chat.APIConfig, req completionRequest) (*http.Response, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(api.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+api.APIKey)

	httpResp, err := u.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		return nil, fmt.Errorf("upstream returned %d: %s", httpResp.StatusCode, string(body))
	}

	return httpResp, nil
}

// complete runs a single non-streaming completion and returns the message text.
func (u *upstreamClient) complete(ctx context.Context, api chat.APIConfig, temperature float64, messages []upstreamMessage, jsonMode bool) (string, error) {
	req := completionRequest{
		Model:       api.ModelName,
		Temperature: temperature,
		Messages:    messages,
	}
	if jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	httpResp, err := u.post(ctx, api, req)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("upstream returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// stream opens a streaming completion and returns a delta reader.
func (u *upstreamClient) stream(ctx context.Context, api chat.APIConfig, temperature float64, messages []upstreamMessage) (*deltaStream, error) {
	httpResp, err := u.post(ctx, api, completionRequest{
		Model:       api.ModelName,
		Temperature: temperature,
		Messages:    messages,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}

	return newDeltaStream(httpResp.Body), nil
}

// deltaStream decodes an SSE chat-completions stream into content deltas.
type deltaStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newDeltaStream(body io.ReadCloser) *deltaStream {
	scanner := bufio.NewScanner(body)
	// Single events can carry large deltas
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &deltaStream{body: body, scanner: scanner}
}

// next returns the next non-empty content delta, or io.EOF when the stream
// ends cleanly (a [DONE] marker or upstream close).
func (s *deltaStream) next() (string, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return "", io.EOF
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			// Skip unparseable keep-alive noise rather than kill the turn
			continue
		}
		if len(event.Choices) == 0 || event.Choices[0].Delta.Content == "" {
			continue
		}
		return event.Choices[0].Delta.Content, nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *deltaStream) Close() error {
	return s.body.Close()
}
