package nlq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tabulario/datalens/internal/dispatch"
)

func TestParseToolCallPlainJSON(t *testing.T) {
	call := ParseToolCall(`{"tool": "get_stats", "parameters": {"path": "sales.csv"}, "explanation": "stats"}`)
	assert.Equal(t, "get_stats", call.Tool)
	assert.Equal(t, "sales.csv", call.Parameters["path"])
	assert.Equal(t, "stats", call.Explanation)
}

func TestParseToolCallFencedJSON(t *testing.T) {
	content := "Sure, here is the tool call:\n```json\n" +
		`{"tool": "read_table", "parameters": {"path": "a.csv", "limit": 5}, "explanation": "reading"}` +
		"\n```\nLet me know if you need anything else."

	call := ParseToolCall(content)
	assert.Equal(t, "read_table", call.Tool)
	assert.Equal(t, 5.0, call.Parameters["limit"])
}

func TestParseToolCallNullTool(t *testing.T) {
	call := ParseToolCall(`{"tool": null, "parameters": {}, "explanation": "Which file do you mean?"}`)
	assert.Equal(t, "", call.Tool)
	assert.Equal(t, "Which file do you mean?", call.Explanation)
}

func TestParseToolCallProseFallback(t *testing.T) {
	call := ParseToolCall("I cannot help with that request.")
	assert.Equal(t, "", call.Tool)
	assert.Equal(t, "I cannot help with that request.", call.Explanation)
	assert.Assert(t, call.Parameters != nil)
}

func TestParseToolCallBrokenJSON(t *testing.T) {
	call := ParseToolCall(`{"tool": "get_stats", "parameters":`)
	assert.Equal(t, "", call.Tool)
}

func TestBuildPrompt(t *testing.T) {
	catalog := []dispatch.Operation{
		{
			Name:        "read_table",
			Description: "Read a CSV dataset and return its rows",
			Args: []dispatch.ArgSpec{
				{Name: "path", Type: dispatch.ArgString, Required: true},
				{Name: "limit", Type: dispatch.ArgNumber},
			},
		},
	}

	prompt := BuildPrompt(catalog)
	assert.Assert(t, strings.Contains(prompt, "read_table(path, limit?)"))
	assert.Assert(t, strings.Contains(prompt, "Respond with valid JSON only."))
}

func TestOllamaTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		assert.NilError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 2, len(req.Messages))
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{
				Role:    "assistant",
				Content: `{"tool": "list_datasets", "parameters": {}, "explanation": "listing files"}`,
			},
		})
	}))
	defer server.Close()

	client := NewOllama(server.URL, "test-model", nil)
	call, err := client.Translate(context.Background(), "what files are there?")
	assert.NilError(t, err)
	assert.Equal(t, "list_datasets", call.Tool)
	assert.Equal(t, "listing files", call.Explanation)
}

func TestOllamaTranslateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOllama(server.URL, "test-model", nil)
	_, err := client.Translate(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error from 500 response")
	}
}
