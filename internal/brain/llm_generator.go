package brain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/advisor/common/llm"
	"basegraph.app/advisor/internal/model"
)

const continuePrompt = "Please continue the discussion from your perspective."

type LLMGeneratorConfig struct {
	Temperature *float64
	MaxAttempts int
	// Backoff returns the wait before retry n (0-based). Defaults to 1s, 2s, 4s...
	Backoff func(attempt int) time.Duration
}

// LLMGenerator answers turns with a chat model. The agent's own earlier
// turns are replayed as assistant messages and everyone else's as named
// user messages.
type LLMGenerator struct {
	client llm.Client
	cfg    LLMGeneratorConfig
}

func NewLLMGenerator(client llm.Client, cfg LLMGeneratorConfig) *LLMGenerator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff == nil {
		cfg.Backoff = func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		}
	}
	return &LLMGenerator{client: client, cfg: cfg}
}

func (g *LLMGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	chat := llm.ChatRequest{
		Messages:    BuildMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	var err error
	for attempt := 0; attempt < g.cfg.MaxAttempts; attempt++ {
		var resp *llm.ChatResponse
		resp, err = g.client.Chat(ctx, chat)
		if err == nil {
			return resp.Content, nil
		}
		if !llm.IsRetryable(ctx, err) {
			return "", fmt.Errorf("generate %s: %w", req.Role, err)
		}
		if attempt == g.cfg.MaxAttempts-1 {
			break
		}

		slog.WarnContext(ctx, "generation retry",
			"agent", req.Role,
			"attempt", attempt+1,
			"error", err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.cfg.Backoff(attempt)):
		}
	}

	return "", fmt.Errorf("generate %s after %d attempts: %w", req.Role, g.cfg.MaxAttempts, err)
}

// BuildMessages turns the transcript into a chat from req.Role's point of view.
func BuildMessages(req GenerateRequest) []llm.Message {
	msgs := make([]llm.Message, 0, len(req.Transcript)+2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: req.SystemPrompt})
	}

	for _, t := range req.Transcript {
		if t.IsBlank() {
			continue
		}
		if t.Speaker == req.Role {
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: t.Text})
			continue
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Name: t.Speaker.String(), Content: t.Text})
	}

	if last := len(msgs) - 1; last < 0 || msgs[last].Role != llm.RoleUser {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Name: model.RequesterAgentID.String(), Content: continuePrompt})
	}
	return msgs
}
