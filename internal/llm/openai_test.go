package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/symptia/internal/model"
)

var catalog = []string{
	"Common Cold", "Influenza (Flu)", "Migraine", "Gastroenteritis",
	"Pneumonia", "Anxiety Disorder", "Hypertension", "Diabetes Type 2",
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: content,
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 120},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func migraineReport() model.Report {
	return model.Report{
		Analyzed: true,
		Tags:     []model.SymptomTag{"headache", "nausea"},
		Result: model.AnalysisResult{
			PossibleConditions: []model.ConditionMatch{
				{Name: "Migraine", Confidence: 55, Severity: model.SeverityMedium},
				{Name: "Influenza (Flu)", Confidence: 51, Severity: model.SeverityMedium},
			},
			Urgency: model.UrgencyLow,
		},
	}
}

func TestOpenAIProvider_Explain_Success(t *testing.T) {
	server := chatServer(t, "Your headache and nausea fit a migraine pattern. The flu is less likely.")
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:           "test-key",
		BaseURL:          server.URL,
		Model:            "gpt-4o-mini",
		Timeout:          5,
		StrictConditions: true,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	report := migraineReport()
	resp, err := provider.Explain(context.Background(), ExplainRequest{
		Report:            report,
		AllowedConditions: report.ConditionNames(),
		CatalogConditions: catalog,
	})
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	if !strings.HasPrefix(resp.Text, "Your headache") {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if len(resp.MentionedConditions) != 2 {
		t.Errorf("Expected 2 mentioned conditions, got %v", resp.MentionedConditions)
	}
	if resp.TokensUsed != 120 {
		t.Errorf("Expected 120 tokens, got %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_Explain_ConditionLeak(t *testing.T) {
	server := chatServer(t, "This could also be pneumonia.")
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL, StrictConditions: true})

	report := migraineReport()
	_, err := provider.Explain(context.Background(), ExplainRequest{
		Report:            report,
		AllowedConditions: report.ConditionNames(),
		CatalogConditions: catalog,
	})
	if err == nil || !strings.Contains(err.Error(), "CONDITION LEAK") {
		t.Fatalf("Expected condition leak error, got %v", err)
	}

	lenient, _ := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL, StrictConditions: false})
	resp, err := lenient.Explain(context.Background(), ExplainRequest{
		Report:            report,
		AllowedConditions: report.ConditionNames(),
		CatalogConditions: catalog,
	})
	if err != nil {
		t.Fatalf("Expected no error without strict mode, got %v", err)
	}
	if len(resp.MentionedConditions) != 1 || resp.MentionedConditions[0] != "Pneumonia" {
		t.Errorf("Expected Pneumonia to be reported, got %v", resp.MentionedConditions)
	}
}

func TestOpenAIProvider_Explain_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})

	if _, err := provider.Explain(context.Background(), ExplainRequest{Report: migraineReport()}); err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOpenAIProvider_Explain_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	if _, err := provider.Explain(context.Background(), ExplainRequest{Report: migraineReport()}); err == nil {
		t.Fatal("Expected error for empty choices")
	}
}

func TestOpenAIProvider_Explain_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 1})

	if _, err := provider.Explain(context.Background(), ExplainRequest{Report: migraineReport()}); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestOpenAIProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_, _ = w.Write([]byte(`{"data": [{"id": "gpt-4o-mini"}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Errorf("Expected nil provider for empty config, got %v, %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Error("Expected error for openai without key")
	}

	p, err = NewProvider(Config{Provider: "Ollama"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ollama := p.(*OpenAIProvider)
	if ollama.Name() != "ollama" || ollama.config.BaseURL != DefaultOllamaURL {
		t.Errorf("Unexpected ollama config: %s %s", ollama.Name(), ollama.config.BaseURL)
	}

	if _, err := NewProvider(Config{Provider: "anthropic"}); err == nil {
		t.Error("Expected error for unsupported provider")
	}
}
