package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

// testGateway creates a Gateway wired for testing.
func testGateway(t *testing.T) *Gateway {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return New(Config{ListenAddr: ":0"}, logger)
}

// sseUpstream fakes an OpenAI-compatible provider that streams the given
// deltas and then a [DONE] marker.
func sseUpstream(t *testing.T, deltas ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, delta := range deltas {
			payload, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{{"delta": map[string]string{"content": delta}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func generateBody(t *testing.T, baseURL string, history []chat.Message) []byte {
	t.Helper()
	body, err := json.Marshal(chat.GenerateRequest{
		Config: chat.APIConfig{
			BaseURL:   baseURL,
			ModelName: "deepseek-chat",
			TempJudge: 1.3,
		},
		Persona: chat.Persona{A: "a groom", B: "the sound tech", C: "played the breakup anthem"},
		History: history,
	})
	require.NoError(t, err)
	return body
}

func TestHealthEndpoint(t *testing.T) {
	g := testGateway(t)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := g.server.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "ok", result["status"])
}

func TestGenerateJudgeStreamsPlainText(t *testing.T) {
	upstream := sseUpstream(t, "WHAT ", "did you ", "just play")
	defer upstream.Close()

	g := testGateway(t)
	req := httptest.NewRequest("POST", "/api/judge", bytes.NewReader(generateBody(t, upstream.URL, nil)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.server.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "WHAT did you just play", string(body))
}

func TestGeneratePartnerStreamsPlainText(t *testing.T) {
	upstream := sseUpstream(t, "bold ", "remix")
	defer upstream.Close()

	g := testGateway(t)
	history := []chat.Message{{Role: chat.RoleJudge, Content: "explain yourself"}}
	req := httptest.NewRequest("POST", "/api/partner", bytes.NewReader(generateBody(t, upstream.URL, history)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.server.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "bold remix", string(body))
}

func TestGenerateUpstreamErrorReturns502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer upstream.Close()

	g := testGateway(t)
	req := httptest.NewRequest("POST", "/api/judge", bytes.NewReader(generateBody(t, upstream.URL, nil)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.server.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var result ErrorResponse
	require.NoError(t, json.Unmarshal(body, &result))
	// The upstream failure text travels back to the engine verbatim.
	assert.Contains(t, result.Error, "invalid api key")
}

func TestGenerateInvalidBodyReturns400(t *testing.T) {
	g := testGateway(t)
	req := httptest.NewRequest("POST", "/api/judge", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.server.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestPersonaEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]string{
					"role":    "assistant",
					"content": `{"A": "a magician", "B": "the stage assistant", "C": "roasted the doves"}`,
				},
			}},
		})
	}))
	defer upstream.Close()

	g := testGateway(t)
	body, _ := json.Marshal(PersonaRequest{Config: chat.APIConfig{BaseURL: upstream.URL, ModelName: "gemini-pro"}})
	req := httptest.NewRequest("POST", "/api/persona", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.server.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	var persona chat.Persona
	require.NoError(t, json.Unmarshal(respBody, &persona))
	assert.Equal(t, "a magician", persona.A)
	assert.Equal(t, "the stage assistant", persona.B)
	assert.Equal(t, "roasted the doves", persona.C)
}

func TestPersonaMalformedModelOutputReturns502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]string{"role": "assistant", "content": "sorry, I refuse"},
			}},
		})
	}))
	defer upstream.Close()

	g := testGateway(t)
	body, _ := json.Marshal(PersonaRequest{Config: chat.APIConfig{BaseURL: upstream.URL}})
	req := httptest.NewRequest("POST", "/api/persona", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.server.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, 502, resp.StatusCode)
}

func TestStatsCountersTrackTraffic(t *testing.T) {
	upstream := sseUpstream(t, "x")
	defer upstream.Close()

	g := testGateway(t)

	// Two judge calls against a deepseek model name.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/judge", bytes.NewReader(generateBody(t, upstream.URL, nil)))
		req.Header.Set("Content-Type", "application/json")
		_, err := g.server.Test(req, 5000)
		require.NoError(t, err)
	}

	req := httptest.NewRequest("GET", "/api/admin/stats", nil)
	resp, err := g.server.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var result struct {
		TotalGamesStarted int            `json:"total_games_started"`
		APICalls          map[string]int `json:"api_calls"`
	}
	require.NoError(t, json.Unmarshal(body, &result))

	assert.Equal(t, 0, result.TotalGamesStarted)
	assert.Equal(t, 2, result.APICalls["deepseek"])
	assert.Equal(t, 0, result.APICalls["gemini"])
}

func TestProviderBuckets(t *testing.T) {
	assert.Equal(t, "deepseek", provider("deepseek-chat"))
	assert.Equal(t, "gemini", provider("Gemini-2.0-Flash"))
	assert.Equal(t, "custom", provider("gpt-4o"))
	assert.Equal(t, "custom", provider(""))
}
