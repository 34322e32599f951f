package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/advisor/common/logger"
	"basegraph.app/advisor/internal/model"
	"basegraph.app/advisor/internal/status"
)

const DefaultTurnBudget = 8

var ErrIncomplete = errors.New("conversation ended before every specialist spoke")

// Generator produces one agent reply. Length limits are its concern.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type GenerateRequest struct {
	SystemPrompt string
	Transcript   []model.Turn
	Role         model.AgentID
	MaxTokens    int
}

type GeneratorFunc func(ctx context.Context, req GenerateRequest) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return f(ctx, req)
}

// GenerationFailure is returned when the generator fails for a turn. The
// conversation returned alongside it still holds every earlier turn.
type GenerationFailure struct {
	Agent    model.AgentID
	Sequence int
	Cause    error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed for %s at turn %d: %v", e.Agent, e.Sequence, e.Cause)
}

func (e *GenerationFailure) Unwrap() error {
	return e.Cause
}

type StopReason string

const (
	StopComplete            StopReason = "complete"
	StopTurnBudgetExhausted StopReason = "turn_budget_exhausted"
	StopGenerationFailed    StopReason = "generation_failed"
	StopCancelled           StopReason = "cancelled"
)

// Conversation is the append-only transcript of one advisory.
type Conversation struct {
	turns      []model.Turn
	StopReason StopReason
}

// Turns returns a copy of the transcript in speaking order.
func (c *Conversation) Turns() []model.Turn {
	out := make([]model.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Complete() bool {
	return c.StopReason == StopComplete
}

func (c *Conversation) append(t model.Turn) {
	c.turns = append(c.turns, t)
}

type ProtocolConfig struct {
	AdvisoryID string
	TurnBudget int // specialist attempts, not counting the opening turn
	MaxTokens  int
}

// Protocol runs one round-robin conversation. Build a new one per request.
type Protocol struct {
	roster    Roster
	gen       Generator
	publisher status.Publisher
	cfg       ProtocolConfig
}

func NewProtocol(roster Roster, gen Generator, publisher status.Publisher, cfg ProtocolConfig) *Protocol {
	if publisher == nil {
		publisher = status.Nop{}
	}
	if cfg.TurnBudget <= 0 {
		cfg.TurnBudget = DefaultTurnBudget
	}
	return &Protocol{roster: roster, gen: gen, publisher: publisher, cfg: cfg}
}

// Run appends the requester's opening turn and then asks the specialists
// in roster order, round after round, until every specialist has spoken.
// Blank replies are dropped and that agent is asked again next round.
//
// The returned Conversation is never nil. On failure it carries whatever
// was produced before the failure.
func (p *Protocol) Run(ctx context.Context, opening string) (*Conversation, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "advisor.brain.protocol"})
	conv := &Conversation{turns: make([]model.Turn, 0, model.SpecialistsNeeded+1)}

	first, err := model.NewTurn(model.RequesterAgentID, opening, 1)
	if err != nil {
		return conv, err
	}
	conv.append(first)
	p.publish(ctx, status.Event{Stage: status.StageStarted, Agent: first.Speaker.String(), Sequence: first.Sequence})

	specialists := p.roster.Specialists()
	if len(specialists) == 0 {
		conv.StopReason = StopTurnBudgetExhausted
		return conv, fmt.Errorf("%w: roster has no specialists", ErrIncomplete)
	}

	for attempt := 0; ; attempt++ {
		if model.DistinctSpecialists(conv.turns) >= model.SpecialistsNeeded {
			conv.StopReason = StopComplete
			p.publish(ctx, status.Event{Stage: status.StageCompleted, Message: fmt.Sprintf("%d turns", len(conv.turns))})
			return conv, nil
		}
		if attempt >= p.cfg.TurnBudget {
			conv.StopReason = StopTurnBudgetExhausted
			err := fmt.Errorf("%w: %d of %d specialists after %d attempts",
				ErrIncomplete, model.DistinctSpecialists(conv.turns), model.SpecialistsNeeded, attempt)
			p.publish(ctx, status.Event{Stage: status.StageFailed, Message: err.Error()})
			return conv, err
		}
		if err := ctx.Err(); err != nil {
			return p.cancelled(ctx, conv, err)
		}

		seat := specialists[attempt%len(specialists)]
		seq := len(conv.turns) + 1

		text, err := p.takeTurn(ctx, seat, conv.Turns(), seq)
		if err != nil {
			if ctx.Err() != nil {
				return p.cancelled(ctx, conv, ctx.Err())
			}
			conv.StopReason = StopGenerationFailed
			failure := &GenerationFailure{Agent: seat.Agent, Sequence: seq, Cause: err}
			p.publish(ctx, status.Event{Stage: status.StageFailed, Agent: seat.Agent.String(), Sequence: seq, Message: err.Error()})
			return conv, failure
		}

		turn, err := model.NewTurn(seat.Agent, text, seq)
		if err != nil || turn.IsBlank() {
			slog.WarnContext(ctx, "dropping blank reply", "agent", seat.Agent, "sequence", seq)
			p.publish(ctx, status.Event{Stage: status.StageSkipped, Agent: seat.Agent.String(), Sequence: seq})
			continue
		}

		conv.append(turn)
		p.publish(ctx, status.Event{Stage: status.StageTurn, Agent: seat.Agent.String(), Sequence: seq, Message: logger.Truncate(text, 200)})
	}
}

func (p *Protocol) cancelled(ctx context.Context, conv *Conversation, err error) (*Conversation, error) {
	conv.StopReason = StopCancelled
	slog.WarnContext(ctx, "conversation cancelled", "turns", len(conv.turns), "error", err)
	p.publish(context.WithoutCancel(ctx), status.Event{Stage: status.StageCancelled, Message: err.Error()})
	return conv, err
}

func (p *Protocol) takeTurn(ctx context.Context, seat Seat, transcript []model.Turn, seq int) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Agent:    logger.Ptr(seat.Agent.String()),
		Sequence: logger.Ptr(seq),
	})
	sc := logger.StartSpan(ctx, "advisor.turn", trace.WithAttributes(
		attribute.String("agent", seat.Agent.String()),
		attribute.Int("sequence", seq),
	))
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "asking agent")

	text, err := p.gen.Generate(ctx, GenerateRequest{
		SystemPrompt: seat.SystemPrompt,
		Transcript:   transcript,
		Role:         seat.Agent,
		MaxTokens:    p.cfg.MaxTokens,
	})
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "agent generation failed", "error", err)
		return "", err
	}

	sc.SetAttributes(attribute.Int("reply_chars", len(text)))
	slog.InfoContext(ctx, "agent replied", "reply", logger.Truncate(text, 120))
	return text, nil
}

func (p *Protocol) publish(ctx context.Context, e status.Event) {
	if p.cfg.AdvisoryID == "" {
		return
	}
	e.AdvisoryID = p.cfg.AdvisoryID
	if err := p.publisher.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "status publish failed", "stage", e.Stage, "error", err)
	}
}
