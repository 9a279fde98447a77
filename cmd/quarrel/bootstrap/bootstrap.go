// Package bootstrap loads the CLI config and prepares a session against a
// running gateway.
package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/quarrelhq/quarrel/pkg/chat"
	"github.com/quarrelhq/quarrel/pkg/engine"
)

// Config is the quarrel CLI configuration, loaded from a TOML file.
type Config struct {
	// GatewayURL is the base URL of a running gatewayd.
	GatewayURL string `toml:"gateway_url"`

	// LogFile receives zap output while the TUI owns the terminal.
	LogFile string `toml:"log_file"`

	Debug bool `toml:"debug"`

	API     APISection     `toml:"api"`
	Prompts PromptsSection `toml:"prompts"`
}

// APISection is the upstream model selection, forwarded opaquely through the
// gateway on every request.
type APISection struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	ModelName   string  `toml:"model_name"`
	TempPersona float64 `toml:"temp_persona"`
	TempJudge   float64 `toml:"temp_judge"`
	TempPartner float64 `toml:"temp_partner"`
}

// PromptsSection holds the optional per-role extra prompt injections.
type PromptsSection struct {
	Judge   string `toml:"judge"`
	Partner string `toml:"partner"`
}

// Load reads the config from path, or from the default locations when path
// is empty (./quarrel.toml, then ~/.quarrel.toml).
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := defaultPath()
		if err != nil {
			return nil, err
		}
		path = found
	}

	config := defaults()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("could not load config %s: %w", path, err)
	}

	if config.GatewayURL == "" {
		return nil, fmt.Errorf("config %s: gateway_url is required", path)
	}
	if config.API.ModelName == "" {
		return nil, fmt.Errorf("config %s: api.model_name is required", path)
	}
	config.GatewayURL = strings.TrimRight(config.GatewayURL, "/")

	return config, nil
}

func defaults() *Config {
	return &Config{
		GatewayURL: "http://localhost:8000",
		LogFile:    "quarrel.log",
		API: APISection{
			TempPersona: 1.2,
			TempJudge:   1.3,
			TempPartner: 1.3,
		},
	}
}

func defaultPath() (string, error) {
	candidates := []string{"quarrel.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".quarrel.toml"))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no config file found (looked for %s)", strings.Join(candidates, ", "))
}

// APIConfig converts the TOML section into the wire shape.
func (c *Config) APIConfig() chat.APIConfig {
	return chat.APIConfig{
		APIKey:      c.API.APIKey,
		BaseURL:     c.API.BaseURL,
		ModelName:   c.API.ModelName,
		TempPersona: c.API.TempPersona,
		TempJudge:   c.API.TempJudge,
		TempPartner: c.API.TempPartner,
	}
}

// FetchPersona asks the gateway for a fresh scenario.
func FetchPersona(ctx context.Context, gatewayURL string, api chat.APIConfig) (chat.Persona, error) {
	var persona chat.Persona

	body, err := json.Marshal(map[string]chat.APIConfig{"config": api})
	if err != nil {
		return persona, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", gatewayURL+"/api/persona", bytes.NewReader(body))
	if err != nil {
		return persona, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return persona, fmt.Errorf("persona request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return persona, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return persona, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, &persona); err != nil {
		return persona, fmt.Errorf("unmarshal persona: %w", err)
	}
	return persona, nil
}

// NewSession wires a session for this config and persona.
func (c *Config) NewSession(persona chat.Persona, mode chat.Mode, userRole chat.Role, logger *zap.Logger) (*engine.Session, error) {
	gen := engine.NewHTTPGenerator(engine.GeneratorConfig{
		BaseURL: c.GatewayURL,
		API:     c.APIConfig(),
		Persona: persona,
		ExtraPrompts: map[chat.Role]string{
			chat.RoleJudge:   c.Prompts.Judge,
			chat.RolePartner: c.Prompts.Partner,
		},
	})

	return engine.NewSession(engine.Config{
		Mode:      mode,
		UserRole:  userRole,
		Generator: gen,
		Logger:    logger,
	})
}
