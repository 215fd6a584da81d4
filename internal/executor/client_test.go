package executor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stubExecutor(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExecute_RequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Request-ID") != "req-1" {
			t.Errorf("expected X-Request-ID req-1, got %q", r.Header.Get("X-Request-ID"))
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(payload) != 1 || payload["input"] != "Check my calendar" {
			t.Errorf("unexpected payload: %+v", payload)
		}
		io.WriteString(w, `{"content":"ok"}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, testLogger())
	out := c.Execute(context.Background(), "Check my calendar", "req-1")
	if out.Failed || out.Content != "ok" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestExecute_NestedOutputContent(t *testing.T) {
	server := stubExecutor(t, http.StatusOK, `{"output":{"content":"Top tools: A, B, C"}}`)

	out := NewClient(server.URL, testLogger()).Execute(context.Background(), "Research top AI tools", "")
	if out.Failed {
		t.Fatalf("unexpected failure: %s", out.Content)
	}
	if out.Content != "Top tools: A, B, C" {
		t.Errorf("expected nested content, got %q", out.Content)
	}
}

func TestExecute_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	out := NewClient(url, testLogger()).Execute(context.Background(), "anything", "")
	if !out.Failed {
		t.Fatal("expected failure against a closed server")
	}
	if !strings.HasPrefix(out.Content, ErrorPrefix) {
		t.Errorf("expected %q prefix, got %q", ErrorPrefix, out.Content)
	}
}

func TestExecute_NonSuccessStatus(t *testing.T) {
	server := stubExecutor(t, http.StatusInternalServerError, `{"error":"workflow crashed"}`)

	out := NewClient(server.URL, testLogger()).Execute(context.Background(), "x", "")
	if !out.Failed {
		t.Fatal("expected failure for 500")
	}
	if !strings.HasPrefix(out.Content, "Error: executor returned 500") {
		t.Errorf("unexpected content %q", out.Content)
	}
}

func TestExecute_MalformedBody(t *testing.T) {
	server := stubExecutor(t, http.StatusOK, `<html>gateway</html>`)

	out := NewClient(server.URL, testLogger()).Execute(context.Background(), "x", "")
	if !out.Failed || !strings.HasPrefix(out.Content, "Error: parse response") {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested wins", `{"output":{"content":"nested"},"content":"top"}`, "nested"},
		{"top level", `{"content":"top"}`, "top"},
		{"empty nested falls through", `{"output":{"content":""},"content":"top"}`, "top"},
		{"non-string content falls through", `{"content":42}`, "{\n  \"content\": 42\n}"},
		{"dump keeps key order", `{"z":1,"a":{"b":true}}`, "{\n  \"z\": 1,\n  \"a\": {\n    \"b\": true\n  }\n}"},
		{"array body", `[1,2]`, "[\n  1,\n  2\n]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractContent([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorContent_Unknown(t *testing.T) {
	if got := errorContent(nil); got != "Error: Unknown" {
		t.Errorf("got %q", got)
	}
}
