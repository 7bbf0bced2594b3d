package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/draftsmith/bulwark/pkg/config"
	"github.com/draftsmith/bulwark/pkg/guard"
	"github.com/draftsmith/bulwark/pkg/recorder"
	"github.com/draftsmith/bulwark/pkg/risk"
	"github.com/draftsmith/bulwark/pkg/sanitize"
	"github.com/draftsmith/bulwark/pkg/semantic"
	"github.com/draftsmith/bulwark/pkg/telemetry"
)

const Version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServer()
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: bulwark scan <text>")
			os.Exit(1)
		}
		runScan(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Println("bulwark", Version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Bulwark - prompt injection defense gateway")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bulwark serve         Start the HTTP gateway")
	fmt.Println("  bulwark scan <text>   Scan text from the command line")
	fmt.Println("  bulwark version       Show version")
}

// runScan sanitizes one string and prints the result, for quick manual
// checks and shell scripting.
func runScan(text string) {
	res := sanitize.Sanitize(text, sanitize.MaxSelectedText, "cli-input")
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal result:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	if res.RiskLevel >= risk.Critical {
		os.Exit(2)
	}
}

func runServer() {
	cfg := config.NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "[STARTUP]", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	threshold, err := risk.ParseLevel(cfg.LogRiskThreshold)
	if err != nil {
		logger.Warn("invalid log risk threshold, using high", "value", cfg.LogRiskThreshold)
		threshold = risk.High
	}
	tel := telemetry.New(logger, threshold)

	ctx := context.Background()

	store, closeStore := buildStore(ctx, cfg, logger)
	rec := recorder.New(store, cfg.RecorderCapacity, time.Duration(cfg.RecorderFlushSec)*time.Second, tel)

	scanner := buildScanner(ctx, cfg, logger)
	pipeline := guard.New(scanner, rec, tel)

	app := fiber.New(fiber.Config{
		AppName: "Bulwark Gateway",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"version":  Version,
			"semantic": scanner != nil,
		})
	})

	app.Post("/v1/context", func(c fiber.Ctx) error {
		var req guard.AssistantContext
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		res, err := pipeline.CheckAssistantContext(c.Context(), req)
		return respond(c, res, err)
	})

	app.Post("/v1/writer", func(c fiber.Ctx) error {
		var req guard.WriterInput
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		res, err := pipeline.CheckWriterInput(c.Context(), req)
		return respond(c, res, err)
	})

	app.Post("/v1/prompt/validate", func(c fiber.Ctx) error {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		return c.JSON(guard.ValidatePrompt(req.Prompt))
	})

	app.Post("/v1/output/scan", func(c fiber.Ctx) error {
		var req struct {
			Reply string `json:"reply"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		return c.JSON(guard.ScanOutput(req.Reply))
	})

	go func() {
		logger.Info("gateway listening", "addr", cfg.ListenAddr)
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown", "error", err)
	}
	// best-effort final flush of buffered attack records
	rec.Close()
	closeStore()
}

// respond maps a pipeline result onto the HTTP response. Blocked requests
// get the generic message and nothing about which pattern fired.
func respond(c fiber.Ctx, res *guard.CheckResult, err error) error {
	if err != nil {
		if errors.Is(err, guard.ErrBlocked) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error(), "blocked": true})
		}
		return c.Status(500).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(res)
}

// buildStore picks the attack store: postgres when a DSN is configured, the
// in-memory store otherwise.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (recorder.Store, func()) {
	if cfg.PostgresDSN == "" {
		return recorder.NewMemoryStore(), func() {}
	}
	pg, err := recorder.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("attack store unavailable, keeping records in memory", "error", err)
		return recorder.NewMemoryStore(), func() {}
	}
	logger.Info("attack store connected")
	return pg, pg.Close
}

// buildScanner assembles the semantic layer: remote judge if an endpoint is
// configured, embedding similarity as the fallback backend, redis verdict
// caching around either. Returns nil when the layer is disabled.
func buildScanner(ctx context.Context, cfg *config.Config, logger *slog.Logger) semantic.Scanner {
	if !cfg.SemanticEnabled {
		return nil
	}

	var scanner semantic.Scanner
	timeout := time.Duration(cfg.SemanticTimeoutMs) * time.Millisecond

	switch {
	case cfg.SemanticEndpoint != "":
		scanner = semantic.NewClient(cfg.SemanticEndpoint, cfg.SemanticModel, cfg.SemanticAPIKey, timeout, cfg.SemanticMaxConcurrent)
		logger.Info("semantic scanner: remote judge", "model", cfg.SemanticModel)

	case cfg.EmbeddingsEndpoint != "":
		sim, err := semantic.NewSimilarityScanner(cfg.EmbeddingsEndpoint, cfg.EmbeddingsModel, float32(cfg.SimilarityThreshold), timeout)
		if err != nil {
			logger.Warn("similarity scanner unavailable", "error", err)
			return nil
		}
		if err := sim.Seed(ctx); err != nil {
			logger.Warn("similarity seeding failed, scanner will fail open", "error", err)
		}
		scanner = sim
		logger.Info("semantic scanner: embedding similarity", "model", cfg.EmbeddingsModel)

	default:
		logger.Warn("semantic scanning enabled but no endpoint configured")
		return nil
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		scanner = semantic.NewCachedScanner(scanner, rdb, time.Duration(cfg.VerdictCacheTTLSec)*time.Second)
		logger.Info("verdict cache enabled", "addr", cfg.RedisAddr)
	}
	return scanner
}
