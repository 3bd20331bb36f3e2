package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/schemarpc/gateway/internal/config"
	"github.com/schemarpc/gateway/internal/dispatch"
	"github.com/schemarpc/gateway/internal/schema"
	"github.com/schemarpc/gateway/internal/server"
	"github.com/schemarpc/gateway/internal/telemetry"
	"github.com/schemarpc/gateway/internal/types"
)

//go:embed playground
var playgroundFS embed.FS

//go:embed demo/api.json
var demoSchema []byte

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.DefaultFromEnv()

	flags := flag.NewFlagSet("gateway", flag.ExitOnError)
	flags.StringVar(&cfg.Host, "host", cfg.Host, "listen host")
	flags.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	flags.StringVar(&cfg.URLPrefix, "prefix", cfg.URLPrefix, "URL prefix stripped before routing")
	flags.BoolVar(&cfg.DynamicCORS, "dynamic-cors", cfg.DynamicCORS, "echo the request Origin instead of the static CORS policy")
	flags.StringVar(&cfg.PlaygroundDir, "playground", cfg.PlaygroundDir, "playground UI bundle directory")
	flags.StringVar(&cfg.SchemaPath, "schema", cfg.SchemaPath, "compiled interface description (JSON); built-in demo API when empty")
	flags.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	flags.BoolVar(&cfg.Otel, "otel", cfg.Otel, "enable OpenTelemetry stdout exporters")
	flags.Parse(os.Args[1:])

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	data := demoSchema
	if cfg.SchemaPath != "" {
		var err error
		data, err = os.ReadFile(cfg.SchemaPath)
		if err != nil {
			slog.Error("failed to read schema", "path", cfg.SchemaPath, "error", err)
			return 1
		}
	}
	doc, err := schema.FromJSON(data)
	if err != nil {
		slog.Error("failed to parse schema", "error", err)
		return 1
	}

	d := dispatch.New(doc, schema.Passthrough, schema.Passthrough, dispatch.NopHooks{})
	if cfg.SchemaPath == "" {
		registerDemo(d)
	}

	if cfg.Otel {
		shutdown, err := setupOtel()
		if err != nil {
			slog.Error("failed to set up telemetry", "error", err)
			return 1
		}
		defer shutdown()
		telemetry.Instrument(d, telemetry.DefaultConfig())
	}

	srv := server.New(cfg, d)
	if cfg.PlaygroundDir != "" {
		srv.SetPlayground(os.DirFS(cfg.PlaygroundDir))
	} else {
		sub, err := fs.Sub(playgroundFS, "playground")
		if err != nil {
			slog.Error("embedded playground missing", "error", err)
			return 1
		}
		srv.SetPlayground(sub)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return 1
	}
	return 0
}

// registerDemo binds implementations for the built-in demo API.
func registerDemo(d *dispatch.Dispatcher) {
	d.Register("ping", func(ctx context.Context, req *types.CanonicalRequest, args any) (any, error) {
		return true, nil
	})
	d.Register("echo", func(ctx context.Context, req *types.CanonicalRequest, args any) (any, error) {
		m, _ := args.(map[string]any)
		msg, _ := m["message"].(string)
		if msg == "" {
			return nil, &types.CallError{Type: "InvalidArgument", Message: "message must not be empty"}
		}
		return msg, nil
	})
}

// setupOtel installs stdout trace and metric exporters on the global SDK and
// returns a flush/shutdown func.
func setupOtel() (func(), error) {
	traceExp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("stdout trace exporter: %w", err)
	}
	metricExp, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("stdout metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(30*time.Second)),
	))
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tp.Shutdown(ctx)
		mp.Shutdown(ctx)
	}, nil
}
