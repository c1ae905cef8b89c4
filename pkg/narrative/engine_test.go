package narrative

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustscan/pkg/config"
	"github.com/trustscan/pkg/evidence"
)

func testRecord() *evidence.Record {
	return &evidence.Record{
		Address: "So11111111111111111111111111111111111111112",
		Chain:   "solana",
		Name:    "Wrapped SOL",
		Symbol:  "SOL",
		Market: evidence.Market{
			PriceUSD:     evidence.Float(150.25),
			LiquidityUSD: evidence.Float(2_000_000),
		},
		Social: evidence.Social{
			WebsiteSummary: "The native token of the Solana network.",
			TickerPosts: []evidence.Post{
				{Author: "soldev", Text: "shipping", Likes: 120, Retweets: 10},
			},
		},
		TokenScore: 85,
	}
}

func TestProviderSelection(t *testing.T) {
	e := NewEngine(&config.Config{AnthropicAPIKey: "sk-ant-test"})
	assert.Equal(t, "anthropic", e.provider)
	assert.True(t, e.IsEnabled())

	e = NewEngine(&config.Config{OpenAIAPIKey: "sk-test"})
	assert.Equal(t, "openai", e.provider)

	e = NewEngine(&config.Config{OllamaURL: "http://localhost:11434"})
	assert.Equal(t, "ollama", e.provider)

	// Explicit provider wins over key-based detection.
	e = NewEngine(&config.Config{AIProvider: "openai", AnthropicAPIKey: "sk-ant-test", OpenAIAPIKey: "sk-test"})
	assert.Equal(t, "openai", e.provider)

	e = NewEngine(&config.Config{})
	assert.False(t, e.IsEnabled())
}

func TestNarrativeAnthropic(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		require.Len(t, req.Messages, 1)
		gotPrompt = req.Messages[0].Content

		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"text": "A believable infrastructure token."}},
		})
	}))
	defer srv.Close()

	e := NewEngine(&config.Config{AnthropicAPIKey: "sk-ant-test"})
	e.apiBaseURL = srv.URL

	text, err := e.Narrative(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, "A believable infrastructure token.", text)

	// The prompt carries the evidence, not just the address.
	assert.Contains(t, gotPrompt, "Wrapped SOL")
	assert.Contains(t, gotPrompt, "native token of the Solana network")
	assert.Contains(t, gotPrompt, "@soldev")
}

func TestSummaryCarriesScoreAndNarrative(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.Unmarshal(body, &req)
		gotPrompt = req.Messages[0].Content
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Looks solid."}},
			},
		})
	}))
	defer srv.Close()

	e := NewEngine(&config.Config{OpenAIAPIKey: "sk-test"})
	e.apiBaseURL = srv.URL

	text, err := e.Summary(context.Background(), testRecord(), "An infrastructure token.")
	require.NoError(t, err)
	assert.Equal(t, "Looks solid.", text)
	assert.Contains(t, gotPrompt, "85/100")
	assert.Contains(t, gotPrompt, "An infrastructure token.")
}

func TestCallFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewEngine(&config.Config{AnthropicAPIKey: "sk-ant-test"})
	e.apiBaseURL = srv.URL

	_, err := e.Narrative(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	// Disabled engine fails fast so the caller substitutes fallbacks.
	disabled := NewEngine(&config.Config{})
	_, err = disabled.Narrative(context.Background(), testRecord())
	require.Error(t, err)
}

func TestPromptContextStatesMissingData(t *testing.T) {
	rec := &evidence.Record{Address: "0x1234", Chain: "bnb"}
	ctx := promptContext(rec)

	assert.Contains(t, ctx, "price: unavailable")
	assert.Contains(t, ctx, "no posts found")
	assert.False(t, strings.Contains(ctx, "WARNING"))
}
