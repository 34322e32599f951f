package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"basegraph.app/advisor/common/id"
	"basegraph.app/advisor/common/llm"
	"basegraph.app/advisor/common/logger"
	"basegraph.app/advisor/common/otel"
	"basegraph.app/advisor/core/config"
	"basegraph.app/advisor/internal/brain"
	"basegraph.app/advisor/internal/export"
	"basegraph.app/advisor/internal/model"
	"basegraph.app/advisor/internal/status"
)

const usage = `usage: advise [-categories Cloud,Security] [-priority High] [-out DIR] [request text]

The request is read from stdin when no text is given.
`

func main() {
	categories := flag.String("categories", "", "comma-separated architecture categories")
	priority := flag.String("priority", "Medium", "Low, Medium, High or Critical")
	outDir := flag.String("out", "", "directory for the exports (default $ADVISE_OUTPUT_DIR)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	os.Exit(run(*categories, *priority, *outDir, flag.Args()))
}

func run(categories, priority, outDir string, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize otel: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// stdout carries the transcript, so logs go to stderr.
	slog.SetDefault(slog.New(logger.NewHandler(cfg, os.Stderr)))

	if err := id.Init(cfg.NodeID); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize id generator: %v\n", err)
		return 1
	}

	text, err := requestText(args, os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read request: %v\n", err)
		return 1
	}

	req := model.Request{
		Text:       text,
		Categories: strings.Split(categories, ","),
		Priority:   model.Priority(priority),
	}
	if err := req.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		return 2
	}

	if !cfg.LLM.Enabled() {
		fmt.Fprintln(os.Stderr, "ADVISOR_LLM_API_KEY (or the provider's API key variable) is required")
		return 1
	}

	advisor, err := newAdvisor(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build advisor: %v\n", err)
		return 1
	}

	advisoryID := id.NewAdvisoryID()
	fmt.Fprintf(os.Stderr, "Running advisory %s with %s (%s)\n", advisoryID, cfg.LLM.Provider, cfg.LLM.Model)

	adv, runErr := advisor.Advise(ctx, advisoryID, req)
	if adv == nil {
		fmt.Fprintf(os.Stderr, "advisory failed: %v\n", runErr)
		return 1
	}

	printTranscript(os.Stdout, adv.Turns)

	if outDir == "" {
		outDir = cfg.OutputDir
	}
	paths, err := writeExports(outDir, adv, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write exports: %v\n", err)
		return 1
	}
	for _, p := range paths {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", p)
	}

	if runErr != nil {
		var failure *brain.GenerationFailure
		switch {
		case errors.As(runErr, &failure):
			fmt.Fprintf(os.Stderr, "Advisory is partial: %s failed at turn %d: %v\n", failure.Agent, failure.Sequence, failure.Cause)
		default:
			fmt.Fprintf(os.Stderr, "Advisory is partial (%s): %v\n", adv.StopReason, runErr)
		}
		return 1
	}
	return 0
}

func newAdvisor(cfg config.Config) (*brain.Advisor, error) {
	client, err := llm.NewClient(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	roster := brain.DefaultRoster()
	if cfg.Council.RosterFile != "" {
		if roster, err = brain.LoadRoster(cfg.Council.RosterFile); err != nil {
			return nil, err
		}
	}

	gen := brain.NewLLMGenerator(client, brain.LLMGeneratorConfig{
		Temperature: llm.Temp(cfg.LLM.Temperature),
		MaxAttempts: cfg.LLM.MaxAttempts,
	})

	return brain.NewAdvisor(gen, roster, status.Nop{}, brain.AdvisorConfig{
		TurnBudget: cfg.Council.TurnBudget,
		MaxTokens:  cfg.LLM.MaxTokens,
	}), nil
}

func requestText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printTranscript(w io.Writer, turns []model.Turn) {
	for _, t := range turns {
		fmt.Fprintf(w, "=== [%d] %s (%s) ===\n", t.Sequence, t.Speaker, t.Speaker.Role())
		fmt.Fprintln(w, strings.TrimSpace(t.Text))
		fmt.Fprintln(w)
	}
}

func writeExports(dir string, adv *brain.Advisory, at time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		artifact, err := export.Render(f, adv.Report, adv.Summary, at)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, artifact.FileName)
		if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
