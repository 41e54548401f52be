package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestOpenAIProvider_CallsBaseURL(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chat/completions":
			var req openai.ChatCompletionRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			gotModel = req.Model
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
				Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "hello"}}},
			})
		case "/v1/models":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"m1","object":"model"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Options{BaseURL: srv.URL + "/v1/", APIKey: "k"})
	resp, err := p.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:    "test-model",
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got, ok := FirstContent(resp); !ok || got != "hello" {
		t.Fatalf("content=%q ok=%v", got, ok)
	}
	if gotModel != "test-model" {
		t.Fatalf("model=%q", gotModel)
	}
	var c Client = p
	lister, ok := c.(ModelLister)
	if !ok {
		t.Fatal("provider should list models")
	}
	models, err := lister.ListModels(context.Background())
	if err != nil || len(models.Models) != 1 {
		t.Fatalf("models=%v err=%v", models.Models, err)
	}
}

func TestFirstContent_NoChoices(t *testing.T) {
	if _, ok := FirstContent(openai.ChatCompletionResponse{}); ok {
		t.Fatal("expected no content")
	}
}
