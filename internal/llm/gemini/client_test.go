package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/llm"
)

func candidateResponse(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	return string(b)
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "gemini-1.5-flash",
	}, nil)
}

func TestGenerateReturnsCandidateText(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(candidateResponse(`{"vendor":"Acme"}`)))
	})

	text, err := c.Generate(context.Background(), llm.GenerateRequest{
		Image:       []byte("img"),
		MimeType:    "image/png",
		Prompt:      "extract",
		Temperature: 0.05,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != `{"vendor":"Acme"}` {
		t.Errorf("text = %q", text)
	}
	if gotPath != "/models/gemini-1.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("key = %q", gotKey)
	}

	gc, ok := gotBody["generationConfig"].(map[string]any)
	if !ok {
		t.Fatalf("missing generationConfig in %v", gotBody)
	}
	if gc["responseMimeType"] != "application/json" {
		t.Errorf("responseMimeType = %v", gc["responseMimeType"])
	}
	contents, ok := gotBody["contents"].([]any)
	if !ok || len(contents) != 1 {
		t.Fatalf("contents = %v", gotBody["contents"])
	}
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("parts = %v", parts)
	}
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	if inline["mimeType"] != "image/png" {
		t.Errorf("mimeType = %v", inline["mimeType"])
	}
	if parts[1].(map[string]any)["text"] != "extract" {
		t.Errorf("prompt part = %v", parts[1])
	}
}

func TestGenerateNoAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "m"}, nil)
	if c.Ready() {
		t.Fatal("Ready() = true with no key")
	}
	_, err := c.Generate(context.Background(), llm.GenerateRequest{})
	if !errors.Is(err, common.ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestGenerateStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusForbidden, common.ErrPermissionDenied},
		{http.StatusUnauthorized, common.ErrPermissionDenied},
		{http.StatusTooManyRequests, common.ErrRateLimited},
	}
	for _, tt := range tests {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error": "nope"}`))
		})
		_, err := c.Generate(context.Background(), llm.GenerateRequest{})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})
	_, err := c.Generate(context.Background(), llm.GenerateRequest{})
	if !errors.Is(err, common.ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestReloadKeyKeepsOldKeyWhenEnvEmpty(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	c := NewClient(Config{APIKey: "original"}, nil)
	c.ReloadKey()
	if !c.Ready() {
		t.Error("key was invalidated by empty reload")
	}

	t.Setenv("GEMINI_API_KEY", "rotated")
	c.ReloadKey()
	if c.apiKey() != "rotated" {
		t.Errorf("key = %q, want rotated", c.apiKey())
	}
}

func TestGenerateURLContainsModel(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "gemini-1.5-flash:generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(candidateResponse("ok")))
	})
	if _, err := c.Generate(context.Background(), llm.GenerateRequest{}); err != nil {
		t.Fatal(err)
	}
}
