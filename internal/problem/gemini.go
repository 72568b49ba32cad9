// Package problem produces the coding problem for a new battle, either from
// the Gemini API or from a small built-in catalog.
package problem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/syntaxarena/arena/internal/arena"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"
)

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Gemini asks the model for a fresh problem and falls back to the catalog
// on any failure, so a match is never blocked by the model being down.
type Gemini struct {
	cfg    GeminiConfig
	client *http.Client
	logger *slog.Logger
}

func NewGemini(cfg GeminiConfig, logger *slog.Logger) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Gemini{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Generate only fails when ctx is done.
func (g *Gemini) Generate(ctx context.Context, topic, difficulty, language string) (arena.Problem, error) {
	if g.cfg.APIKey == "" {
		return Fallback(difficulty), nil
	}

	p, err := g.generate(ctx, topic, difficulty, language)
	if err != nil {
		if ctx.Err() != nil {
			return arena.Problem{}, fmt.Errorf("generating problem: %w", ctx.Err())
		}
		g.logger.Warn("problem generation failed, using fallback",
			"topic", topic,
			"difficulty", difficulty,
			"error", err,
		)
		return Fallback(difficulty), nil
	}
	p.Difficulty = difficulty
	return p, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type generatedProblem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
	StarterCode string   `json:"starterCode"`
}

func (g *Gemini) generate(ctx context.Context, topic, difficulty, language string) (arena.Problem, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt(topic, difficulty, language)}}}},
	})
	if err != nil {
		return arena.Problem{}, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model, url.QueryEscape(g.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return arena.Problem{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return arena.Problem{}, fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return arena.Problem{}, fmt.Errorf("model returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return arena.Problem{}, fmt.Errorf("decoding response: %w", err)
	}
	return parseCandidate(out)
}

var errEmptyResponse = errors.New("model returned no text")

func parseCandidate(out generateResponse) (arena.Problem, error) {
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return arena.Problem{}, errEmptyResponse
	}

	text := stripFence(out.Candidates[0].Content.Parts[0].Text)
	var gp generatedProblem
	if err := json.Unmarshal([]byte(text), &gp); err != nil {
		return arena.Problem{}, fmt.Errorf("parsing problem: %w", err)
	}
	if gp.Title == "" || gp.Description == "" {
		return arena.Problem{}, fmt.Errorf("parsing problem: missing title or description")
	}
	return arena.Problem{
		Title:       gp.Title,
		Description: gp.Description,
		Examples:    gp.Examples,
		StarterCode: gp.StarterCode,
	}, nil
}

// stripFence removes a surrounding ``` or ```json block.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func prompt(topic, difficulty, language string) string {
	return fmt.Sprintf("Generate a coding interview question. "+
		"Topic: %s. Difficulty: %s. Language: %s. "+
		"Return ONLY a JSON object with fields: title, description, examples (array of strings), starterCode. "+
		"Do not use markdown formatting in the response.",
		topic, difficulty, language)
}
