// Command flowcanvas serves a node canvas session over HTTP.
//
// Usage:
//
//	flowcanvas [-config flowcanvas.yaml] [-env .env] [-addr :8080]
//
// Settings come from the optional config file, then FLOWCANVAS_*
// environment variables (a .env file is loaded first when present), then
// flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/canvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/chat"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/config"
	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/journal"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/server"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const shutdownTimeout = 10 * time.Second

type flags struct {
	configPath string
	envPath    string
	addr       string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("flowcanvas", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f flags
	fs.StringVar(&f.configPath, "config", "", "path to a YAML or JSON config file")
	fs.StringVar(&f.envPath, "env", ".env", "dotenv file loaded before reading FLOWCANVAS_* variables")
	fs.StringVar(&f.addr, "addr", "", "listen address, overrides the config")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := godotenv.Load(f.envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "error: load %s: %v\n", f.envPath, err)
		return 1
	}

	settings, err := config.LoadSettings(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if f.addr != "" {
		settings.Addr = f.addr
	}

	logger, err := newLogger(stderr, settings)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, settings, logger); err != nil {
		logger.Error("flowcanvas stopped", "error", err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, s config.Settings) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", s.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(s.LogFormat) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", s.LogFormat)
	}
}

func serve(ctx context.Context, s config.Settings, logger *slog.Logger) error {
	store, err := journal.Open(s.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	retry := fcerrors.DefaultRetry
	retry.MaxAttempts = s.ChatAttempts
	client := chat.NewHTTPClient(s.ChatEndpoint,
		chat.WithTimeout(s.ChatTimeout),
		chat.WithRetry(retry),
		chat.WithLogger(logger),
	)

	sessionOpts := []canvas.Option{
		canvas.WithLogger(logger),
		canvas.WithJournal(store),
		canvas.WithChat(client),
		canvas.WithMaxSteps(s.MaxChainSteps),
		canvas.WithLogCapacity(s.LogCapacity),
		canvas.WithErrorHandler(func(err error) {
			logger.Debug("event handler error", "error", err)
		}),
	}
	var serverOpts []server.Option

	if s.Metrics {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer shutdown(logger, "meter provider", mp.Shutdown)

		metrics, err := observability.NewMetricsRecorder(mp)
		if err != nil {
			return fmt.Errorf("create metrics: %w", err)
		}
		sessionOpts = append(sessionOpts, canvas.WithMetrics(metrics))
		serverOpts = append(serverOpts, server.WithMetricsReader(reader))
	}
	if s.Tracing {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(observability.NewLogSpanProcessor(logger)),
		)
		defer shutdown(logger, "tracer provider", tp.Shutdown)
		sessionOpts = append(sessionOpts, canvas.WithSpans(observability.NewSpanManager(tp)))
	}

	session := canvas.NewSession(sessionOpts...)
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("close session", "error", err)
		}
	}()

	serverOpts = append(serverOpts, server.WithLogger(logger))
	httpServer := &http.Server{
		Addr:              s.Addr,
		Handler:           server.NewServer(session, serverOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", s.Addr, "journal", s.JournalPath, "chat", s.ChatEndpoint)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func shutdown(logger *slog.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("shutdown "+name, "error", err)
	}
}
