package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"menu-spinner/internal/config"

	"github.com/tmc/langchaingo/llms"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", `{"a":1}`, `{"a":1}`},
		{"Whitespace", "\n  [1,2]  \n", `[1,2]`},
		{"JSONFence", "```json\n[{\"name\":\"Rice\"}]\n```", `[{"name":"Rice"}]`},
		{"BareFence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"InlineFence", "```json{\"a\":1}```", `{"a":1}`},
		{"Empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSON(tt.in); got != tt.want {
				t.Errorf("CleanJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGroqClient(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer groq_key" {
				t.Errorf("Unexpected Authorization header '%s'", r.Header.Get("Authorization"))
			}
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}
			if body["model"] != "llama-test" {
				t.Errorf("Expected model llama-test, got %v", body["model"])
			}
			w.Write([]byte(`{
				"choices": [{"message": {"content": "{\"items\": []}"}}],
				"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
			}`))
		}))
		defer server.Close()

		c := newGroqClient("groq_key", "llama-test", 0.1, server.URL)
		resp, err := c.GenerateContent(context.Background(), "hello")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if resp.Content != `{"items": []}` {
			t.Errorf("Unexpected content '%s'", resp.Content)
		}
		if resp.Usage.PromptTokens != 12 || resp.Usage.CompletionTokens != 3 || resp.Usage.Model != "llama-test" {
			t.Errorf("Unexpected usage %+v", resp.Usage)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("slow down"))
		}))
		defer server.Close()

		c := newGroqClient("groq_key", "llama-test", 0.1, server.URL)
		_, err := c.GenerateContent(context.Background(), "hello")
		if err == nil {
			t.Fatal("Expected an error for non-200 status code, got nil")
		}
		if !strings.Contains(err.Error(), "status=429") {
			t.Errorf("Expected status in error, got %v", err)
		}
	})

	t.Run("NoChoices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		c := newGroqClient("groq_key", "llama-test", 0.1, server.URL)
		if _, err := c.GenerateContent(context.Background(), "hello"); err == nil {
			t.Fatal("Expected an error for empty choices, got nil")
		}
	})
}

type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangchainClient(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		model := &fakeModel{resp: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{
				Content: `{"results": []}`,
				GenerationInfo: map[string]any{
					"PromptTokens":     20,
					"CompletionTokens": 5,
					"TotalTokens":      25,
				},
			}},
		}}
		c := &langchainClient{model: model, modelName: "gpt-test"}

		resp, err := c.GenerateContent(context.Background(), "find noodles")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if resp.Content != `{"results": []}` {
			t.Errorf("Unexpected content '%s'", resp.Content)
		}
		if resp.Usage.TotalTokens != 25 || resp.Usage.Model != "gpt-test" {
			t.Errorf("Unexpected usage %+v", resp.Usage)
		}
		if len(model.messages) != 1 || model.messages[0].Role != llms.ChatMessageTypeHuman {
			t.Errorf("Expected a single human message, got %+v", model.messages)
		}
	})

	t.Run("Error", func(t *testing.T) {
		c := &langchainClient{model: &fakeModel{err: errors.New("boom")}}
		if _, err := c.GenerateContent(context.Background(), "x"); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})

	t.Run("NoChoices", func(t *testing.T) {
		c := &langchainClient{model: &fakeModel{resp: &llms.ContentResponse{}}}
		if _, err := c.GenerateContent(context.Background(), "x"); err == nil {
			t.Fatal("Expected an error for empty choices, got nil")
		}
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Run("Groq", func(t *testing.T) {
		gen, err := NewFromConfig(context.Background(), &config.Config{LLMProvider: config.ProviderGroq, GroqAPIKey: "k", GroqModel: "m"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if _, ok := gen.(*groqClient); !ok {
			t.Errorf("Expected *groqClient, got %T", gen)
		}
	})

	t.Run("OpenAI", func(t *testing.T) {
		gen, err := NewFromConfig(context.Background(), &config.Config{
			LLMProvider:   config.ProviderOpenAI,
			OpenAIAPIKey:  "sk-test",
			OpenAIModel:   "gpt-test",
			OpenAIBaseURL: "http://localhost:1234/v1",
		})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if _, ok := gen.(*langchainClient); !ok {
			t.Errorf("Expected *langchainClient, got %T", gen)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if _, err := NewFromConfig(context.Background(), &config.Config{LLMProvider: "x"}); err == nil {
			t.Fatal("Expected an error for unknown provider, got nil")
		}
	})
}
