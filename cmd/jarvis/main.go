package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/jarvis/internal/api"
	"github.com/MikeSquared-Agency/jarvis/internal/config"
	"github.com/MikeSquared-Agency/jarvis/internal/conversation"
	"github.com/MikeSquared-Agency/jarvis/internal/executor"
	"github.com/MikeSquared-Agency/jarvis/internal/hermes"
	"github.com/MikeSquared-Agency/jarvis/internal/kv"
	"github.com/MikeSquared-Agency/jarvis/internal/session"
)

func main() {
	cfg := config.Load()
	serve := len(os.Args) > 1 && os.Args[1] == "serve"
	setupLogging(cfg.LogLevel, serve)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Durable slot
	slots, err := openSlots(ctx, cfg)
	if err != nil {
		slog.Error("failed to open conversation store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer slots.Close()

	store := conversation.NewStore(slots, cfg.HistoryKey, slog.Default())
	if err := store.Load(ctx); err != nil {
		// Stay un-loaded: the session still works, it just won't overwrite the slot.
		slog.Error("failed to load conversation history", "error", err)
	}

	opts := []session.Option{session.WithStatusClearDelay(cfg.StatusClearDelay)}

	// NATS/Hermes (optional)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		opts = append(opts, session.WithPublisher(hermesClient))
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	exec := executor.NewClient(cfg.ExecutorURL, slog.Default())
	ctrl := session.New(store, exec, slog.Default(), opts...)
	defer ctrl.Close()

	if serve {
		runServer(ctx, cfg.Port, ctrl)
		return
	}
	runREPL(ctx, os.Stdin, os.Stdout, ctrl)
}

func openSlots(ctx context.Context, cfg config.Config) (kv.Store, error) {
	switch kv.Backend(cfg.StoreBackend) {
	case kv.BackendBolt:
		return kv.Open(ctx, kv.BackendBolt, kv.WithBoltPath(cfg.StorePath))
	case kv.BackendRedis:
		return kv.Open(ctx, kv.BackendRedis, kv.WithRedisURL(cfg.RedisURL))
	case kv.BackendPostgres:
		return kv.Open(ctx, kv.BackendPostgres, kv.WithDatabaseURL(cfg.DatabaseURL))
	default:
		return kv.Open(ctx, kv.Backend(cfg.StoreBackend))
	}
}

func runServer(ctx context.Context, port int, ctrl *session.Controller) {
	srv := api.NewServer(port, ctrl)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	slog.Info("jarvis ready", "port", port)

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	slog.Info("jarvis stopped")
}

func runREPL(ctx context.Context, in io.Reader, out io.Writer, ctrl *session.Controller) {
	msgs := ctrl.Messages()
	for _, m := range msgs {
		printMessage(out, m)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(out, "Autonomous Execution Operator. Execute tasks. Get results.")
		fmt.Fprintln(out, "Try one of:")
		for _, s := range session.Suggestions {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return
			}
			line = l
		}

		task := strings.TrimSpace(line)
		if task != "" && task != session.ResetCommand {
			fmt.Fprintln(out, "Executing...")
		}

		// Once issued, a task runs to completion even if we are interrupted.
		res := ctrl.Submit(context.WithoutCancel(ctx), line)
		switch res.Outcome {
		case session.Cleared:
			fmt.Fprintln(out, "History cleared.")
		case session.Completed, session.Errored:
			printMessage(out, *res.Reply)
			fmt.Fprintf(out, "[%s]\n", ctrl.Status())
		}
	}
}

func printMessage(out io.Writer, m conversation.Message) {
	who := "you"
	if m.Role == conversation.RoleAssistant {
		who = "jarvis"
	}
	fmt.Fprintf(out, "%s %s: %s\n", m.Timestamp.Local().Format("15:04"), who, m.Content)
}

func setupLogging(level string, serve bool) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if serve {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
