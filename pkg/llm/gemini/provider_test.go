package gemini

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

func TestGeminiProvider_Chat(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]string{{"text": `{"ok":`}, {"text": `true}`}},
				}},
			},
		})
	}))
	defer server.Close()

	p := NewGeminiProvider(server.URL, "test-model", "secret-key")
	schema := &llm.Schema{Type: llm.TypeObject, Properties: map[string]*llm.Schema{"ok": {Type: llm.TypeBoolean}}}

	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "hola"},
		{Role: llm.RoleAssistant, Content: "hola, ¿en qué ayudo?"},
		{Role: llm.RoleUser, Content: "necesito ayuda"},
	}, llm.WithSystemInstruction("be helpful"), llm.WithTemperature(0.2), llm.WithResponseSchema(schema))

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	contents := captured["contents"].([]interface{})
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].(map[string]interface{})["role"])
	assert.Equal(t, "model", contents[1].(map[string]interface{})["role"])

	sys := captured["systemInstruction"].(map[string]interface{})
	assert.Equal(t, "be helpful", sys["parts"].([]interface{})[0].(map[string]interface{})["text"])

	gen := captured["generationConfig"].(map[string]interface{})
	assert.Equal(t, 0.2, gen["temperature"])
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.Equal(t, "OBJECT", gen["responseSchema"].(map[string]interface{})["type"])
}

func TestGeminiProvider_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(server.URL, "m", "k")
	_, err := p.Generate(context.Background(), "hi")
	assert.Error(t, err)
}

func TestGeminiProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":503,"message":"overloaded"}}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(server.URL, "m", "k")
	_, err := p.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGeminiProvider_Defaults(t *testing.T) {
	p := NewGeminiProvider("", "", "k")
	assert.Equal(t, DefaultBaseURL, p.BaseURL)
	assert.Equal(t, DefaultModel, p.ModelName)
}
