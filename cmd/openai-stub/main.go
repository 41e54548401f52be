// Command openai-stub serves a minimal OpenAI-compatible API that answers
// paragraph classification prompts deterministically, for local runs and
// demos without a real model.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	log.Printf("openai-stub listening on %s (model=%s)", addr, model)
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal(err)
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		sys, user := "", ""
		if len(req.Messages) > 0 {
			sys = strings.ToLower(req.Messages[0].Content)
		}
		if len(req.Messages) > 1 {
			user = req.Messages[1].Content
		}
		if !strings.Contains(sys, "heading") || !strings.Contains(sys, "body") {
			http.Error(w, "unexpected system", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": classify(user)}},
			},
		})
	})
	return mux
}

// classify answers one "Text: ... - heading|body" line per entry in the
// prompt.
func classify(prompt string) string {
	var out []string
	for _, line := range strings.Split(prompt, "\n") {
		text, ok := strings.CutPrefix(line, "Text: ")
		if !ok {
			continue
		}
		role := "body"
		if looksLikeHeading(text) {
			role = "heading"
		}
		out = append(out, "Text: "+text+" - "+role)
	}
	return strings.Join(out, "\n")
}

// looksLikeHeading treats short lines without closing punctuation as
// headings.
func looksLikeHeading(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || utf8.RuneCountInString(t) > 80 || len(strings.Fields(t)) > 10 {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(t)
	return !strings.ContainsRune(".,;!?", last)
}
