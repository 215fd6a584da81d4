package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/jarvis/internal/config"
	"github.com/MikeSquared-Agency/jarvis/internal/conversation"
	"github.com/MikeSquared-Agency/jarvis/internal/executor"
	"github.com/MikeSquared-Agency/jarvis/internal/kv"
	"github.com/MikeSquared-Agency/jarvis/internal/session"
)

type echoExecutor struct{}

func (echoExecutor) Execute(ctx context.Context, task string, requestID string) executor.Outcome {
	if task == "fail" {
		return executor.Outcome{Content: "Error: boom", Failed: true}
	}
	return executor.Outcome{Content: "done: " + task}
}

func newController(t *testing.T) *session.Controller {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := conversation.NewStore(kv.NewMemoryStore(), "", logger)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	ctrl := session.New(store, echoExecutor{}, logger, session.WithStatusClearDelay(time.Hour))
	t.Cleanup(ctrl.Close)
	return ctrl
}

func TestREPL(t *testing.T) {
	ctrl := newController(t)
	in := strings.NewReader("Check my calendar\n\n   \nfail\n/reset\n")
	var out bytes.Buffer

	runREPL(context.Background(), in, &out, ctrl)

	text := out.String()
	for _, want := range []string{
		"Research top AI tools",
		"Executing...",
		"jarvis: done: Check my calendar",
		"[COMPLETED]",
		"jarvis: Error: boom",
		"[ERROR]",
		"History cleared.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if n := strings.Count(text, "Executing..."); n != 2 {
		t.Errorf("expected 2 executing indicators, got %d", n)
	}
	if len(ctrl.Messages()) != 0 {
		t.Errorf("expected reset to clear history, got %d messages", len(ctrl.Messages()))
	}
}

func TestREPL_ShowsRestoredHistory(t *testing.T) {
	ctrl := newController(t)
	ctrl.Submit(context.Background(), "Summarize tech news")

	var out bytes.Buffer
	runREPL(context.Background(), strings.NewReader(""), &out, ctrl)

	text := out.String()
	if !strings.Contains(text, "you: Summarize tech news") || !strings.Contains(text, "jarvis: done: Summarize tech news") {
		t.Errorf("expected restored history in output:\n%s", text)
	}
	if strings.Contains(text, "Try one of:") {
		t.Error("suggestions should only show for an empty conversation")
	}
}

func TestOpenSlots_Memory(t *testing.T) {
	s, err := openSlots(context.Background(), configWithStore("memory"))
	if err != nil {
		t.Fatalf("openSlots failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*kv.MemoryStore); !ok {
		t.Errorf("expected memory store, got %T", s)
	}
}

func configWithStore(backend string) config.Config {
	return config.Config{StoreBackend: backend}
}
