package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestStub_ClassifiesPrompt(t *testing.T) {
	srv := httptest.NewServer(newMux("stub-model"))
	defer srv.Close()

	cfg := openai.DefaultConfig("k")
	cfg.BaseURL = srv.URL + "/v1"
	client := openai.NewClientWithConfig(cfg)

	models, err := client.ListModels(context.Background())
	if err != nil || len(models.Models) != 1 || models.Models[0].ID != "stub-model" {
		t.Fatalf("models=%+v err=%v", models, err)
	}

	resp, err := client.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model: "stub-model",
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Classify each paragraph as 'heading' or 'body'."},
			{Role: openai.ChatMessageRoleUser, Content: "Analyze:\n\n\nText: Introduction\n\nText: This is a sentence.\n"},
		},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	got := resp.Choices[0].Message.Content
	want := "Text: Introduction - heading\nText: This is a sentence. - body"
	if got != want {
		t.Fatalf("content=%q, want %q", got, want)
	}
}

func TestStub_RejectsOtherPrompts(t *testing.T) {
	srv := httptest.NewServer(newMux("m"))
	defer srv.Close()
	cfg := openai.DefaultConfig("k")
	cfg.BaseURL = srv.URL + "/v1"
	_, err := openai.NewClientWithConfig(cfg).CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model:    "m",
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: "write a poem"}},
	})
	if err == nil {
		t.Fatal("expected error for unrelated prompt")
	}
}

func TestLooksLikeHeading(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Chapter 1", true},
		{"Results:", true},
		{"The end.", false},
		{"", false},
		{strings.Repeat("word ", 12), false},
		{"What happens next?", false},
		{"Übersicht der Ergebnisse", true},
	}
	for _, c := range cases {
		if got := looksLikeHeading(c.text); got != c.want {
			t.Errorf("looksLikeHeading(%q)=%v, want %v", c.text, got, c.want)
		}
	}
}
