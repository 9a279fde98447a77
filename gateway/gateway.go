// Package gateway provides the generation service the conversation engine
// talks to. It owns the role prompts and proxies streamed completions from
// whatever OpenAI-compatible provider the caller's session config names.
package gateway

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/quarrelhq/quarrel/pkg/chat"
)

// upstreamFailureFmt is appended to an already-started plain-text stream when
// the upstream dies mid-turn. Headers are long gone at that point, so the
// failure travels inside the body.
const upstreamFailureFmt = "\n\n[upstream fatal error]: %s"

// ErrorResponse is the JSON error body for non-streaming failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PersonaRequest is the body for the one-shot persona endpoint.
type PersonaRequest struct {
	Config chat.APIConfig `json:"config"`
}

// Gateway is a stateless generation server. It keeps no transcripts and no
// credentials; every request carries its own session config, persona and
// history, so identical requests are interchangeable across instances.
type Gateway struct {
	config   Config
	logger   *zap.Logger
	upstream *upstreamClient
	stats    *stats
	server   *fiber.App
}

// New creates a new Gateway.
func New(config Config, logger *zap.Logger) *Gateway {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	g := &Gateway{
		config:   config,
		logger:   logger,
		upstream: newUpstreamClient(),
		stats:    newStats(),
		server:   app,
	}

	// Register routes
	app.Post("/api/judge", func(c *fiber.Ctx) error {
		return g.handleGenerate(c, chat.RoleJudge)
	})
	app.Post("/api/partner", func(c *fiber.Ctx) error {
		return g.handleGenerate(c, chat.RolePartner)
	})
	app.Post("/api/persona", g.handlePersona)
	app.Get("/api/admin/stats", g.handleStats)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	return g
}

// Run starts the gateway server on the configured listening address.
func (g *Gateway) Run() error {
	g.logger.Info("starting gateway server",
		zap.String("listen", g.config.ListenAddr),
	)

	return g.server.Listen(g.config.ListenAddr)
}

// Shutdown gracefully stops the server.
func (g *Gateway) Shutdown() error {
	return g.server.Shutdown()
}

// handleGenerate streams one turn for the given role as chunked plain text.
// The body is nothing but turn content; stream closure is the end-of-turn
// marker the engine relies on.
func (g *Gateway) handleGenerate(c *fiber.Ctx, role chat.Role) error {
	startTime := time.Now()

	var req chat.GenerateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		g.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	g.stats.recordCall(req.Config.ModelName)

	g.logger.Debug("received generate request",
		zap.String("role", string(role)),
		zap.String("model", req.Config.ModelName),
		zap.Int("history_len", len(req.History)),
	)

	var instruction string
	var temperature float64
	switch role {
	case chat.RoleJudge:
		instruction = judgeInstruction(req.Persona, req.ExtraPrompt)
		temperature = req.Config.TempJudge
	case chat.RolePartner:
		instruction = partnerInstruction(req.Persona, req.ExtraPrompt)
		temperature = req.Config.TempPartner
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "unknown role"})
	}

	messages := buildMessages(role, instruction, req.History)

	stream, err := g.upstream.stream(c.Context(), req.Config, temperature, messages)
	if err != nil {
		g.logger.Error("upstream request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: err.Error()})
	}

	c.Set("Content-Type", "text/plain; charset=utf-8")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer stream.Close()

		var written int
		for {
			delta, err := stream.next()
			if err == io.EOF {
				break
			}
			if err != nil {
				g.logger.Error("error reading upstream stream", zap.Error(err))
				fmt.Fprintf(w, upstreamFailureFmt, err)
				w.Flush()
				return
			}

			written += len(delta)
			w.WriteString(delta)
			w.Flush()
		}

		g.logger.Debug("streaming complete",
			zap.String("role", string(role)),
			zap.Int("bytes", written),
			zap.Duration("duration", time.Since(startTime)),
		)
	}))

	return nil
}

// handlePersona runs the one-shot scenario generator and returns {A,B,C}.
// Hitting it marks the start of a new game.
func (g *Gateway) handlePersona(c *fiber.Ctx) error {
	var req PersonaRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		g.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	g.stats.recordGameStart()
	g.stats.recordCall(req.Config.ModelName)

	text, err := g.upstream.complete(c.Context(), req.Config, req.Config.TempPersona, []upstreamMessage{
		{Role: "system", Content: personaInstruction},
		{Role: "user", Content: personaUserMessage},
	}, true)
	if err != nil {
		g.logger.Error("persona generation failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: err.Error()})
	}

	var persona chat.Persona
	if err := json.Unmarshal([]byte(text), &persona); err != nil {
		g.logger.Error("persona output is not valid JSON",
			zap.Error(err),
			zap.String("output_preview", truncate(text, 100)),
		)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "model returned malformed persona"})
	}

	g.logger.Info("persona generated",
		zap.String("A", persona.A),
		zap.String("B", persona.B),
		zap.String("C", truncate(persona.C, 50)),
	)

	return c.JSON(persona)
}

// handleStats returns the traffic counters.
func (g *Gateway) handleStats(c *fiber.Ctx) error {
	return c.JSON(g.stats.snapshot())
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
