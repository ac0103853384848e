package nlq

import (
	"encoding/json"
	"strings"
)

// ParseToolCall extracts a tool call from model output. Models wrap
// JSON in prose or code fences more often than not, so this scans for
// the outermost object. Anything unparseable becomes an
// explanation-only result rather than an error.
func ParseToolCall(content string) *ToolCall {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start == -1 || end <= start {
		return &ToolCall{Explanation: strings.TrimSpace(content)}
	}

	var call ToolCall
	if err := json.Unmarshal([]byte(content[start:end+1]), &call); err != nil {
		return &ToolCall{Explanation: strings.TrimSpace(content)}
	}
	if call.Parameters == nil {
		call.Parameters = map[string]any{}
	}
	return &call
}
