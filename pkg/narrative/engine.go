package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/config"
	"github.com/trustscan/pkg/evidence"
)

// Fallback texts substituted when a generation call fails. No generated
// text step may block or fail a scan.
const (
	FallbackNarrative    = "No clear real-world story could be extracted for this token."
	FallbackFundamentals = "Fundamentals analysis is unavailable for this scan."
	FallbackSummary      = "Summary generation was unavailable; see the evidence fields above."
	FallbackHype         = "Hype analysis is unavailable for this scan."
)

// Engine wraps an LLM (Claude / OpenAI / local) behind the pipeline's
// text-transformation contract: prompt context in, text or failure out.
type Engine struct {
	cfg    *config.Config
	client *http.Client

	provider   string // "anthropic", "openai", "ollama"
	apiKey     string
	model      string
	apiBaseURL string
}

func NewEngine(cfg *config.Config) *Engine {
	e := &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}

	provider := cfg.AIProvider
	if provider == "" {
		switch {
		case cfg.AnthropicAPIKey != "":
			provider = "anthropic"
		case cfg.OpenAIAPIKey != "":
			provider = "openai"
		case cfg.OllamaURL != "":
			provider = "ollama"
		}
	}

	switch provider {
	case "anthropic":
		e.provider = provider
		e.apiKey = cfg.AnthropicAPIKey
		e.model = modelOr(cfg.AIModel, "claude-sonnet-4-20250514")
		e.apiBaseURL = "https://api.anthropic.com/v1/messages"
	case "openai":
		e.provider = provider
		e.apiKey = cfg.OpenAIAPIKey
		e.model = modelOr(cfg.AIModel, "gpt-4o-mini")
		e.apiBaseURL = "https://api.openai.com/v1/chat/completions"
	case "ollama":
		e.provider = provider
		e.model = modelOr(cfg.AIModel, "llama3.1")
		e.apiBaseURL = cfg.OllamaURL + "/api/chat"
	}

	if e.provider != "" {
		log.Info().Str("provider", e.provider).Str("model", e.model).Msg("🤖 narrative engine initialized")
	} else {
		log.Warn().Msg("⚠️ no AI provider configured - scans will carry fallback texts")
	}

	return e
}

func (e *Engine) IsEnabled() bool { return e.provider != "" }

// Narrative extracts the token's claimed real-world story from the gathered
// evidence.
func (e *Engine) Narrative(ctx context.Context, rec *evidence.Record) (string, error) {
	prompt := fmt.Sprintf(`You are a crypto due-diligence analyst. Based on the evidence below, describe in 2-4 sentences the real-world story this token claims for itself (its purported purpose, product, team, or cause), and give a provisional verdict on how believable that story is. Do not give financial advice.

%s

Respond with plain text only.`, promptContext(rec))
	return e.callLLM(ctx, prompt)
}

// FundamentalsAnalysis explains the numeric evidence; it does not depend on
// the narrative and may run concurrently with it.
func (e *Engine) FundamentalsAnalysis(ctx context.Context, rec *evidence.Record) (string, error) {
	prompt := fmt.Sprintf(`You are a crypto due-diligence analyst. In 2-3 sentences, assess this token's fundamentals: liquidity, market cap, trading volume, holder base, and security posture. Be blunt about red flags.

%s

Respond with plain text only.`, promptContext(rec))
	return e.callLLM(ctx, prompt)
}

// Summary condenses the whole report; depends on the extracted narrative.
func (e *Engine) Summary(ctx context.Context, rec *evidence.Record, narrative string) (string, error) {
	prompt := fmt.Sprintf(`Write a 2-sentence plain-language summary of this token scan for an end user. Trust score: %d/100.

CLAIMED STORY:
%s

%s

Respond with plain text only.`, rec.TokenScore, narrative, promptContext(rec))
	return e.callLLM(ctx, prompt)
}

// HypeAnalysis judges whether the social traction looks organic; depends on
// the extracted narrative.
func (e *Engine) HypeAnalysis(ctx context.Context, rec *evidence.Record, narrative string) (string, error) {
	prompt := fmt.Sprintf(`You are a crypto due-diligence analyst. In 2-3 sentences, judge whether the social activity around this token looks organic or manufactured (bot swarms, paid shills, engagement farming), given its claimed story.

CLAIMED STORY:
%s

%s

Respond with plain text only.`, narrative, promptContext(rec))
	return e.callLLM(ctx, prompt)
}

// ── LLM call plumbing ───────────────────────────────────────

func (e *Engine) callLLM(ctx context.Context, prompt string) (string, error) {
	switch e.provider {
	case "anthropic":
		return e.callAnthropic(ctx, prompt)
	case "openai":
		return e.callOpenAI(ctx, prompt)
	case "ollama":
		return e.callOllama(ctx, prompt)
	default:
		return "", fmt.Errorf("no AI provider configured")
	}
}

func (e *Engine) callAnthropic(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      e.model,
		"max_tokens": e.maxTokens(),
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	respBody, err := e.post(ctx, reqBody, map[string]string{
		"x-api-key":         e.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	json.Unmarshal(respBody, &result)

	if len(result.Content) > 0 && result.Content[0].Text != "" {
		return result.Content[0].Text, nil
	}
	return "", fmt.Errorf("empty response from anthropic")
}

func (e *Engine) callOpenAI(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": e.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": e.maxTokens(),
	}

	respBody, err := e.post(ctx, reqBody, map[string]string{
		"Authorization": "Bearer " + e.apiKey,
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	json.Unmarshal(respBody, &result)

	if len(result.Choices) > 0 && result.Choices[0].Message.Content != "" {
		return result.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("empty response from openai")
}

func (e *Engine) callOllama(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": e.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}

	respBody, err := e.post(ctx, reqBody, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	json.Unmarshal(respBody, &result)

	if result.Message.Content == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return result.Message.Content, nil
}

func (e *Engine) post(ctx context.Context, reqBody interface{}, headers map[string]string) ([]byte, error) {
	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, "POST", e.apiBaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%s API error %d: %s", e.provider, resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

func (e *Engine) maxTokens() int {
	if e.cfg.AIMaxTokens > 0 {
		return e.cfg.AIMaxTokens
	}
	return 1024
}

func modelOr(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
