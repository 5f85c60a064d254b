package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-helpdesk-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceProvider_Chat(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	p := NewHuggingFaceProvider("hf-key", server.URL, "some/model")
	out, err := p.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "q"}},
		llm.WithSystemInstruction("sys"),
		llm.WithResponseSchema(&llm.Schema{Type: llm.TypeObject}),
		llm.WithTemperature(0.1))

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, llm.RoleSystem, captured.Messages[0].Role)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_schema", captured.ResponseFormat.Type)
	assert.Equal(t, 0.1, captured.Temperature)
}

func TestHuggingFaceProvider_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p := NewHuggingFaceProvider("", server.URL, "m")
	_, err := p.Generate(context.Background(), "q")
	assert.Error(t, err)
}

func TestHuggingFaceProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[],"error":{"message":"quota"}}`))
	}))
	defer server.Close()

	p := NewHuggingFaceProvider("", server.URL, "m")
	_, err := p.Generate(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}
