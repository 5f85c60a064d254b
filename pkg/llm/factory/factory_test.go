package factory

import (
	"testing"

	"ai-helpdesk-be/pkg/llm/gemini"
	"ai-helpdesk-be/pkg/llm/huggingface"
	"ai-helpdesk-be/pkg/llm/ollama"
)

func TestNewLLMProvider(t *testing.T) {
	tests := []struct {
		provider string
		check    func(interface{}) bool
	}{
		{"gemini", func(p interface{}) bool { _, ok := p.(*gemini.GeminiProvider); return ok }},
		{"", func(p interface{}) bool { _, ok := p.(*gemini.GeminiProvider); return ok }},
		{"ollama", func(p interface{}) bool { _, ok := p.(*ollama.OllamaProvider); return ok }},
		{"huggingface", func(p interface{}) bool { _, ok := p.(*huggingface.HuggingFaceProvider); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewLLMProvider(tt.provider, "model", "http://localhost", "key")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(p) {
				t.Errorf("unexpected provider type %T", p)
			}
		})
	}
}

func TestNewLLMProvider_Unsupported(t *testing.T) {
	if _, err := NewLLMProvider("watson", "m", "", ""); err == nil {
		t.Error("expected error for unsupported provider")
	}
}
