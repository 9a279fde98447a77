package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

// Generator opens one streamed generation call for a role. The returned body
// yields the turn's text as raw UTF-8 bytes in arrival order; stream closure
// is the only end-of-turn marker.
type Generator interface {
	Stream(ctx context.Context, role chat.Role, history []chat.Message) (io.ReadCloser, error)
}

// GeneratorConfig carries the session-constant payload sent with every
// generation request.
type GeneratorConfig struct {
	// BaseURL of the gateway (e.g. "http://localhost:6065").
	BaseURL string

	// API is the opaque session config, passed through unchanged.
	API chat.APIConfig

	// Persona is the fixed scenario descriptor.
	Persona chat.Persona

	// ExtraPrompts holds the free-text injection string for each role.
	ExtraPrompts map[chat.Role]string
}

// HTTPGenerator talks to the per-role generation endpoints over HTTP.
type HTTPGenerator struct {
	config     GeneratorConfig
	httpClient *http.Client
}

// NewHTTPGenerator creates a generator for the gateway at config.BaseURL.
func NewHTTPGenerator(config GeneratorConfig) *HTTPGenerator {
	return &HTTPGenerator{
		config: config,
		httpClient: &http.Client{
			// LLM turns can be slow, especially with thinking models
			Timeout: 5 * time.Minute,
		},
	}
}

// Stream posts the request and returns the streaming body. A non-2xx status
// is a hard failure; its body is returned verbatim inside a *TransportError.
func (g *HTTPGenerator) Stream(ctx context.Context, role chat.Role, history []chat.Message) (io.ReadCloser, error) {
	reqBody, err := json.Marshal(chat.GenerateRequest{
		Config:      g.config.API,
		Persona:     g.config.Persona,
		History:     history,
		ExtraPrompt: g.config.ExtraPrompts[role],
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := g.config.BaseURL + "/api/" + string(role)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		body, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		return nil, &TransportError{Status: httpResp.StatusCode, Body: string(body)}
	}

	return httpResp.Body, nil
}
