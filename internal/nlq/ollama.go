// Package nlq translates natural-language questions into operation
// calls using a local Ollama model. The translator only picks a tool
// and arguments; execution always goes through the dispatcher, so NL
// callers see the same semantics and errors as everyone else.
package nlq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tabulario/datalens/internal/dispatch"
	"github.com/tabulario/datalens/internal/domain/errs"
)

// ToolCall is the translator's verdict: which operation to invoke
// with which arguments. A nil Tool (empty string) means the model
// could not map the question to a tool; Explanation says why.
type ToolCall struct {
	Tool        string         `json:"tool"`
	Parameters  map[string]any `json:"parameters"`
	Explanation string         `json:"explanation"`
}

// Translator converts a natural-language question into a ToolCall.
type Translator interface {
	Translate(ctx context.Context, query string) (*ToolCall, error)
}

// OllamaClient implements Translator against the Ollama chat API.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
	prompt  string
}

// NewOllama creates a translator. The system prompt is built once
// from the operation catalog.
func NewOllama(baseURL, model string, catalog []dispatch.Operation) *OllamaClient {
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
		prompt:  BuildPrompt(catalog),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Translate sends the question to Ollama and parses the tool call
// out of the reply. The context deadline bounds the whole exchange.
func (c *OllamaClient) Translate(ctx context.Context, query string) (*ToolCall, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.prompt},
			{Role: "user", Content: query},
		},
	})
	if err != nil {
		return nil, errs.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, errs.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, errs.NewTimeout("natural-language translation")
		}
		return nil, errs.NewInternal(fmt.Errorf("ollama request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewInternal(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.NewInternal(fmt.Errorf("ollama returned %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, errs.NewInternal(err)
	}

	call := ParseToolCall(chat.Message.Content)
	slog.Debug("query translated",
		"tool", call.Tool,
		"model", c.model,
	)
	return call, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
