package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sql-agent-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewProvider("secret", srv.URL, "gpt-4o-mini")
	out, err := p.Chat(context.Background(), llm.SystemUser("sys", "q"), llm.WithTemperature(0))
	require.NoError(t, err)

	assert.Equal(t, "ok", out)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, llm.RoleSystem, got.Messages[0].Role)
	assert.Zero(t, got.Temperature)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"http status", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, "status 401"},
		{"api error", http.StatusOK, `{"error":{"message":"overloaded"}}`, "overloaded"},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrEmptyChoices.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewProvider("", srv.URL, "m").Generate(context.Background(), "q")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
