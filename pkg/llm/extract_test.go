package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCodeBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
		lang string
		want string
	}{
		{"tagged fence", "```sql\nSELECT 1\n```", "sql", "SELECT 1"},
		{"prose around fence", "Aqui está:\n```sql\nSELECT nome FROM clientes\n```\nEspero ter ajudado.", "sql", "SELECT nome FROM clientes"},
		{"untagged fence", "```\nSELECT 1\n```", "sql", "SELECT 1"},
		{"other tag", "```postgresql\nSELECT 1\n```", "sql", "SELECT 1"},
		{"keyword on first line kept", "```\nSELECT\n* FROM clientes\n```", "sql", "SELECT\n* FROM clientes"},
		{"unterminated fence", "```sql\nSELECT 1", "sql", "SELECT 1"},
		{"no fence", "  SELECT 1  ", "sql", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCodeBlock(tt.text, tt.lang))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose", `Resultado: {"a":{"b":2}} fim`, `{"a":{"b":2}}`},
		{"none", "sem json aqui", ""},
		{"reversed braces", "} {", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.text))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}
	require.NoError(t, DecodeJSON("```json\n{\"intent\": \"count\"}\n```", &out))
	assert.Equal(t, "count", out.Intent)

	assert.ErrorIs(t, DecodeJSON("nada", &out), ErrNoJSON)
	assert.Error(t, DecodeJSON("{not json}", &out))
}

func TestApplyOptions(t *testing.T) {
	got := Apply(Options{Temperature: 0.1, Model: "base"}, WithModel("other"), WithMaxTokens(64))
	assert.Equal(t, Options{Temperature: 0.1, Model: "other", MaxTokens: 64}, got)
}
