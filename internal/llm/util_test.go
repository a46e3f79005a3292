package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json fence", "```json\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"generic fence", "```\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"fence with language", "```javascript\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"plain object", `{"key": "value"}`, `{"key": "value"}`},
		{"preamble", "Here is the profile:\n{\"full_name\": \"Ada\"}", `{"full_name": "Ada"}`},
		{"trailing chatter", "{\"key\": \"value\"}\n\nLet me know if you need anything else!", `{"key": "value"}`},
		{"escaped quotes", "Result: {\"message\": \"He said \\\"hi\\\"\"}", `{"message": "He said \"hi\""}`},
		{"array", "Items:\n[\"go\", \"sql\"]", `["go", "sql"]`},
		{"no json", "sorry, I cannot help", "sorry, I cannot help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"nested", `{"outer": {"inner": "value"}}`, `{"outer": {"inner": "value"}}`},
		{"braces inside string", `{"template": "Hello {name}!"}`, `{"template": "Hello {name}!"}`},
		{"trailing text", `{"key": "value"} and more`, `{"key": "value"}`},
		{"unbalanced", `{"key": "value"`, ""},
		{"empty", "", ""},
		{"not an object", "not json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	assert.Equal(t, `[[1, 2], [3, 4]]`, extractJSONArray(`[[1, 2], [3, 4]] extra`))
	assert.Equal(t, `[{"id": 1}]`, extractJSONArray(`[{"id": 1}]`))
	assert.Equal(t, "", extractJSONArray("not array"))
}
