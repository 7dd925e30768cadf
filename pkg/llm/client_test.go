package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatComplete(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		fmt.Fprint(w, `{
			"choices":[{"message":{"content":"{\"questions\":[]}"}}],
			"usage":{"prompt_tokens":42,"completion_tokens":7,"total_tokens":49}
		}`)
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "test-key", BaseURL: server.URL, ModelName: "gpt-4o-mini"})

	content, usage, err := client.ChatComplete(context.Background(), "system", "user", FormatJSON)
	if err != nil {
		t.Fatalf("chat complete failed: %v", err)
	}
	if !strings.Contains(content, "questions") {
		t.Fatalf("unexpected content %q", content)
	}
	if usage.InputTokens != 42 || usage.OutputTokens != 7 || usage.TotalTokens != 49 {
		t.Fatalf("unexpected usage %+v", usage)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotPayload["model"] != "gpt-4o-mini" {
		t.Fatalf("expected model in payload, got %v", gotPayload["model"])
	}
	if _, ok := gotPayload["response_format"]; !ok {
		t.Fatal("expected response_format for json mode")
	}
}

func TestChatCompleteTextModeOmitsResponseFormat(t *testing.T) {
	var gotPayload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"false"}}],"usage":{}}`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, ModelName: "gpt-4o-mini"})
	if _, _, err := client.ChatComplete(context.Background(), "system", "user", FormatText); err != nil {
		t.Fatalf("chat complete failed: %v", err)
	}
	if _, ok := gotPayload["response_format"]; ok {
		t.Fatal("text mode must not send response_format")
	}
}

func TestChatCompleteErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, ModelName: "gpt-4o-mini"})
	if _, _, err := client.ChatComplete(context.Background(), "system", "user", FormatText); err == nil {
		t.Fatal("expected error on non-200 response")
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[],"usage":{}}`)
	}))
	defer empty.Close()

	client = NewClient(Options{BaseURL: empty.URL, ModelName: "gpt-4o-mini"})
	if _, _, err := client.ChatComplete(context.Background(), "system", "user", FormatText); err == nil {
		t.Fatal("expected error when choices are empty")
	}
}
