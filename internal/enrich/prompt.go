// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/bioscience-explorer/internal/httputil"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// analysisPromptTmpl is the prompt sent to the Claude API for each
// publication.
var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`You are an expert in NASA bioscience research. Analyze the publication below and assess its impact on human space exploration.

Provide:
- ai_summary: two or three sentences summarizing the study
- key_findings: two to four short finding statements
- methodology: the experimental approach in one sentence
- mission_relevance: how the results inform crewed missions (Moon, Mars, ISS)
- impact_score: an integer from 1 to 10
- keywords: up to eight lowercase topic labels

Respond with a single JSON object with exactly these fields. Do not include any text outside the JSON object.

Example response:
{"ai_summary": "Mice flown for 30 days lost trabecular bone.", "key_findings": ["Trabecular volume fell 20%"], "methodology": "Micro-CT of femurs after spaceflight", "mission_relevance": "Supports exercise countermeasures for long missions", "impact_score": 8, "keywords": ["bone", "spaceflight"]}

Title: {{.Title}}
Organism: {{.Organism}}
Experiment type: {{.ExperimentType}}
{{- if .Authors}}
Authors: {{.Authors}}
{{- end}}
{{- if .Abstract}}
Abstract: {{.Abstract}}
{{- end}}
`))

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const defaultModel = "claude-sonnet-4-5-20250929"

// ClaudeAnalyzer calls the Claude Messages API to analyze one publication.
type ClaudeAnalyzer struct {
	APIKey string
	Model  string
	Client *http.Client

	// MaxRetries bounds 429/503 retries of a single request.
	MaxRetries int
}

// NewClaudeAnalyzer returns an analyzer configured from cfg.
func NewClaudeAnalyzer(cfg types.AIConfig, client *http.Client) *ClaudeAnalyzer {
	return &ClaudeAnalyzer{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Client:     client,
		MaxRetries: cfg.MaxRetries,
	}
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Analyze renders the prompt for p, calls the API, and parses the first text
// block as an Analysis.
func (c *ClaudeAnalyzer) Analyze(ctx context.Context, p types.Publication) (Analysis, error) {
	prompt, err := renderPrompt(p)
	if err != nil {
		return Analysis{}, fmt.Errorf("rendering prompt: %w", err)
	}

	model := c.Model
	if model == "" {
		model = defaultModel
	}
	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     model,
		MaxTokens: 1024,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return Analysis{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return Analysis{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Analysis{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return Analysis{}, fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		var a Analysis
		if err := json.Unmarshal([]byte(stripFence(block.Text)), &a); err != nil {
			return Analysis{}, fmt.Errorf("parsing AI response JSON: %w", err)
		}
		return a, nil
	}
	return Analysis{}, fmt.Errorf("no text content in Claude API response")
}

// stripFence removes a surrounding ```json code fence if the model added one.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func renderPrompt(p types.Publication) (string, error) {
	var buf bytes.Buffer
	if err := analysisPromptTmpl.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
