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
	"time"
)

func candidateResponse(texts ...string) map[string]any {
	parts := make([]any, 0, len(texts))
	for _, text := range texts {
		parts = append(parts, map[string]any{"text": text})
	}
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content":      map[string]any{"role": "model", "parts": parts},
				"finishReason": "STOP",
			},
		},
	}
}

func jsonServer(t *testing.T, handler func(t *testing.T, r *http.Request) (int, any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, payload := handler(t, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if s, ok := payload.(string); ok {
			_, _ = io.WriteString(w, s)
			return
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGenerateTextRequestShape(t *testing.T) {
	server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/gemini-3-flash:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key query = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		contents := body["contents"].([]any)
		first := contents[0].(map[string]any)
		if first["role"] != "user" {
			t.Errorf("role = %v", first["role"])
		}
		if text := first["parts"].([]any)[0].(map[string]any)["text"]; text != "hello" {
			t.Errorf("prompt text = %v", text)
		}
		system := body["systemInstruction"].(map[string]any)
		if system["role"] != "system" {
			t.Errorf("system role = %v", system["role"])
		}
		cfg := body["generationConfig"].(map[string]any)
		if cfg["temperature"] != 0.7 {
			t.Errorf("temperature = %v", cfg["temperature"])
		}
		if cfg["responseMimeType"] != "application/json" {
			t.Errorf("responseMimeType = %v", cfg["responseMimeType"])
		}
		return http.StatusOK, candidateResponse(`{"a":`, `1}`)
	})

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL})
	text, err := client.GenerateText(context.Background(), "gemini-3-flash", "be terse", "hello", true)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != `{"a":1}` {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerateTextPlainModeOmitsMimeType(t *testing.T) {
	server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		cfg := body["generationConfig"].(map[string]any)
		if _, ok := cfg["responseMimeType"]; ok {
			t.Errorf("unexpected responseMimeType in plain mode")
		}
		return http.StatusOK, candidateResponse("plain text")
	})
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	text, err := client.GenerateText(context.Background(), "m", "", "hi", false)
	if err != nil || text != "plain text" {
		t.Fatalf("GenerateText = %q, %v", text, err)
	}
}

func TestGenerateTextHeaderAuth(t *testing.T) {
	server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
		if r.URL.Query().Get("key") != "" {
			t.Errorf("key leaked into query")
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Errorf("x-goog-api-key = %q", got)
		}
		return http.StatusOK, candidateResponse("ok")
	})
	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, AuthMode: AuthHeader})
	if _, err := client.GenerateText(context.Background(), "m", "", "hi", false); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
}

func TestGenerateTextNonSuccessIsTransportError(t *testing.T) {
	server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
		return http.StatusBadRequest, `{"error":{"code":400,"message":"bad model"}}`
	})
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.GenerateText(context.Background(), "m", "", "hi", true)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
	if transport.StatusCode != http.StatusBadRequest || !strings.Contains(transport.Body, "bad model") {
		t.Fatalf("unexpected transport detail: %+v", transport)
	}
	if transport.Retryable() {
		t.Fatal("400 should not be retryable")
	}
}

func TestGenerateTextRateLimitCarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.GenerateText(context.Background(), "m", "", "hi", true)
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if !transport.Retryable() || transport.RetryAfter != 3*time.Second {
		t.Fatalf("retryable=%v retryAfter=%s", transport.Retryable(), transport.RetryAfter)
	}
}

func TestGenerateTextAPIErrorInSuccessBody(t *testing.T) {
	server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"error": map[string]any{"code": 503, "message": "overloaded", "status": "UNAVAILABLE"}}
	})
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	_, err := client.GenerateText(context.Background(), "m", "", "hi", true)
	if !errors.Is(err, ErrTransport) || !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("expected transport error with api message, got %v", err)
	}
}

func TestGenerateTextEmptyCandidates(t *testing.T) {
	cases := map[string]any{
		"no candidates": map[string]any{"candidates": []any{}, "promptFeedback": map[string]any{"blockReason": "SAFETY"}},
		"blank text":    candidateResponse("  \n"),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
				return http.StatusOK, payload
			})
			client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
			_, err := client.GenerateText(context.Background(), "m", "", "hi", true)
			if !errors.Is(err, ErrEmptyResponse) {
				t.Fatalf("expected ErrEmptyResponse, got %v", err)
			}
			if errors.Is(err, ErrTransport) {
				t.Fatal("empty response must not be a transport error")
			}
		})
	}
}

func TestGenerateTextUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := server.URL
	server.Close()

	client := NewClient(Config{APIKey: "supersecret", BaseURL: base})
	_, err := client.GenerateText(context.Background(), "m", "", "hi", true)
	var transport *TransportError
	if !errors.As(err, &transport) || transport.StatusCode != 0 {
		t.Fatalf("expected network transport error, got %v", err)
	}
	if !transport.Retryable() {
		t.Fatal("network failure should be retryable")
	}
	if strings.Contains(err.Error(), "supersecret") {
		t.Fatalf("api key leaked into error: %v", err)
	}
}

func TestGenerateTextRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.GenerateText(context.Background(), "m", "", "hi", true); err == nil {
		t.Fatal("expected error without api key")
	}
}

type screening struct {
	AnimalScore int      `json:"animal_score"`
	Tags        []string `json:"tags"`
}

func TestGenerateStructuredParsesJSON(t *testing.T) {
	server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
		return http.StatusOK, candidateResponse(`{"animal_score":4,"tags":["cats"]}`)
	})
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	got, err := GenerateStructured[screening](context.Background(), client, "m", "sys", "prompt")
	if err != nil {
		t.Fatalf("GenerateStructured: %v", err)
	}
	if got.AnimalScore != 4 || len(got.Tags) != 1 || got.Tags[0] != "cats" {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestGenerateStructuredNotJSONIsParseError(t *testing.T) {
	server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
		return http.StatusOK, candidateResponse("not json")
	})
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	got, err := GenerateStructured[screening](context.Background(), client, "m", "sys", "prompt")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if errors.Is(err, ErrTransport) || errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("parse error misclassified: %v", err)
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Raw != "not json" {
		t.Fatalf("raw text not retained: %#v", err)
	}
	if got.AnimalScore != 0 || got.Tags != nil {
		t.Fatalf("partial value returned: %+v", got)
	}
}

func TestDecodeStrictRejectsCoercions(t *testing.T) {
	inputs := []string{
		"```json\n{\"animal_score\":1}\n```",
		`{"animal_score":1} trailing`,
		`{"animal_score":1}}`,
		`null`,
		`{"animal_score":"high"}`,
	}
	for _, input := range inputs {
		if _, err := DecodeStrict[screening](input); !errors.Is(err, ErrParse) {
			t.Fatalf("DecodeStrict(%q) = %v, want ErrParse", input, err)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
		return http.StatusOK, candidateResponse(`{"ok":true}`)
	})
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	if err := client.HealthCheck(context.Background(), "m"); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestHealthCheckUnexpectedPayload(t *testing.T) {
	server := jsonServer(t, func(t *testing.T, r *http.Request) (int, any) {
		return http.StatusOK, candidateResponse(`{"ok":false}`)
	})
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	if err := client.HealthCheck(context.Background(), "m"); err == nil {
		t.Fatal("expected health check failure")
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := ParseRetryAfter("5"); !ok || d != 5*time.Second {
		t.Fatalf("ParseRetryAfter(5) = %s, %v", d, ok)
	}
	if _, ok := ParseRetryAfter("soon"); ok {
		t.Fatal("expected invalid value to fail")
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if d, ok := ParseRetryAfter(future); !ok || d <= 0 {
		t.Fatalf("ParseRetryAfter(date) = %s, %v", d, ok)
	}
}
