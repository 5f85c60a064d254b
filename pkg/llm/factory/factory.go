package factory

import (
	"ai-helpdesk-be/pkg/llm"
	"ai-helpdesk-be/pkg/llm/gemini"
	"ai-helpdesk-be/pkg/llm/huggingface"
	"ai-helpdesk-be/pkg/llm/ollama"
	"fmt"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini", "":
		return gemini.NewGeminiProvider(baseURL, modelName, apiKey), nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface", "openai":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
