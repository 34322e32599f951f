package brain_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/advisor/internal/brain"
	"basegraph.app/advisor/internal/model"
	"basegraph.app/advisor/internal/status"
)

// mockGenerator implements brain.Generator for testing.
type mockGenerator struct {
	generateFn func(ctx context.Context, req brain.GenerateRequest) (string, error)
	calls      []brain.GenerateRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req brain.GenerateRequest) (string, error) {
	m.calls = append(m.calls, req)
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return "- " + string(req.Role) + " recommends a modular design", nil
}

// mockPublisher records status events.
type mockPublisher struct {
	mu     sync.Mutex
	events []status.Event
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e status.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func (m *mockPublisher) stages() []status.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]status.Stage, len(m.events))
	for i, e := range m.events {
		out[i] = e.Stage
	}
	return out
}

func speakers(turns []model.Turn) []model.AgentID {
	out := make([]model.AgentID, len(turns))
	for i, t := range turns {
		out[i] = t.Speaker
	}
	return out
}

var _ = Describe("Protocol", func() {
	var (
		gen *mockGenerator
		pub *mockPublisher
		ctx context.Context
	)

	BeforeEach(func() {
		gen = &mockGenerator{}
		pub = &mockPublisher{}
		ctx = context.Background()
	})

	run := func(cfg brain.ProtocolConfig) (*brain.Conversation, error) {
		p := brain.NewProtocol(brain.DefaultRoster(), gen, pub, cfg)
		return p.Run(ctx, "**Architecture Request:** an online shop")
	}

	It("opens with the requester and stops once every specialist has spoken", func() {
		conv, err := run(brain.ProtocolConfig{AdvisoryID: "a1"})

		Expect(err).NotTo(HaveOccurred())
		Expect(conv.Complete()).To(BeTrue())
		Expect(speakers(conv.Turns())).To(Equal([]model.AgentID{
			model.AgentBusinessUser,
			model.AgentHeadOfArchitecture,
			model.AgentCloudArchitect,
			model.AgentOSSArchitect,
			model.AgentLeadArchitect,
		}))
		for i, t := range conv.Turns() {
			Expect(t.Sequence).To(Equal(i + 1))
		}
		Expect(gen.calls).To(HaveLen(4))
	})

	It("passes the cumulative transcript and the speaker's prompt", func() {
		_, err := run(brain.ProtocolConfig{MaxTokens: 2000})
		Expect(err).NotTo(HaveOccurred())

		Expect(gen.calls[0].Transcript).To(HaveLen(1))
		Expect(gen.calls[3].Transcript).To(HaveLen(4))
		Expect(gen.calls[1].Role).To(Equal(model.AgentCloudArchitect))
		Expect(gen.calls[1].SystemPrompt).To(ContainSubstring("Cloud Architect"))
		Expect(gen.calls[1].MaxTokens).To(Equal(2000))
	})

	It("does not terminate early when a specialist returns a blank reply", func() {
		blankOnce := true
		gen.generateFn = func(_ context.Context, req brain.GenerateRequest) (string, error) {
			if req.Role == model.AgentOSSArchitect && blankOnce {
				blankOnce = false
				return "   \n", nil
			}
			return "- advice from " + string(req.Role), nil
		}

		conv, err := run(brain.ProtocolConfig{AdvisoryID: "a2"})

		Expect(err).NotTo(HaveOccurred())
		turns := conv.Turns()
		Expect(turns[len(turns)-1].Speaker).To(Equal(model.AgentOSSArchitect))
		Expect(model.DistinctSpecialists(turns)).To(Equal(4))
		// Head and Cloud speak again before OSS is re-asked.
		Expect(speakers(turns)).To(Equal([]model.AgentID{
			model.AgentBusinessUser,
			model.AgentHeadOfArchitecture,
			model.AgentCloudArchitect,
			model.AgentLeadArchitect,
			model.AgentHeadOfArchitecture,
			model.AgentCloudArchitect,
			model.AgentOSSArchitect,
		}))
		Expect(pub.stages()).To(ContainElement(status.StageSkipped))
	})

	It("halts exactly when the fourth distinct specialist appears", func() {
		calls := 0
		gen.generateFn = func(_ context.Context, req brain.GenerateRequest) (string, error) {
			calls++
			if req.Role == model.AgentLeadArchitect && calls < 8 {
				return "", nil
			}
			return "- ok", nil
		}

		conv, err := run(brain.ProtocolConfig{TurnBudget: 8})

		Expect(err).NotTo(HaveOccurred())
		turns := conv.Turns()
		Expect(turns[len(turns)-1].Speaker).To(Equal(model.AgentLeadArchitect))
		Expect(model.DistinctSpecialists(turns[:len(turns)-1])).To(Equal(3))
	})

	It("reports an exhausted turn budget as incomplete", func() {
		gen.generateFn = func(_ context.Context, req brain.GenerateRequest) (string, error) {
			if req.Role == model.AgentLeadArchitect {
				return "", nil
			}
			return "- ok", nil
		}

		conv, err := run(brain.ProtocolConfig{TurnBudget: 6, AdvisoryID: "a3"})

		Expect(err).To(MatchError(brain.ErrIncomplete))
		Expect(conv.StopReason).To(Equal(brain.StopTurnBudgetExhausted))
		Expect(gen.calls).To(HaveLen(6))
		Expect(model.DistinctSpecialists(conv.Turns())).To(Equal(3))
		Expect(pub.stages()).To(ContainElement(status.StageFailed))
	})

	It("aborts on a generation failure and keeps the partial transcript", func() {
		cause := errors.New("rate limited")
		gen.generateFn = func(_ context.Context, req brain.GenerateRequest) (string, error) {
			if req.Role == model.AgentOSSArchitect {
				return "", cause
			}
			return "- ok", nil
		}

		conv, err := run(brain.ProtocolConfig{})

		var failure *brain.GenerationFailure
		Expect(errors.As(err, &failure)).To(BeTrue())
		Expect(failure.Agent).To(Equal(model.AgentOSSArchitect))
		Expect(failure.Sequence).To(Equal(4))
		Expect(err).To(MatchError(cause))
		Expect(conv.StopReason).To(Equal(brain.StopGenerationFailed))
		Expect(conv.Turns()).To(HaveLen(3))
		Expect(gen.calls).To(HaveLen(3))
	})

	It("stops on cancellation with what it has", func() {
		cctx, cancel := context.WithCancel(ctx)
		ctx = cctx
		gen.generateFn = func(_ context.Context, req brain.GenerateRequest) (string, error) {
			if req.Role == model.AgentCloudArchitect {
				cancel()
			}
			return "- ok", nil
		}

		conv, err := run(brain.ProtocolConfig{AdvisoryID: "42"})

		Expect(err).To(MatchError(context.Canceled))
		Expect(conv.StopReason).To(Equal(brain.StopCancelled))
		Expect(conv.Turns()).To(HaveLen(3))
		stages := pub.stages()
		Expect(stages[len(stages)-1]).To(Equal(status.StageCancelled))
		Expect(stages[len(stages)-1].Terminal()).To(BeTrue())
	})

	It("announces cancellation when the generator fails on a cancelled context", func() {
		cctx, cancel := context.WithCancel(ctx)
		ctx = cctx
		gen.generateFn = func(c context.Context, req brain.GenerateRequest) (string, error) {
			if req.Role == model.AgentCloudArchitect {
				cancel()
				return "", c.Err()
			}
			return "- ok", nil
		}

		conv, err := run(brain.ProtocolConfig{AdvisoryID: "43"})

		Expect(err).To(MatchError(context.Canceled))
		Expect(conv.StopReason).To(Equal(brain.StopCancelled))
		Expect(conv.Turns()).To(HaveLen(2))
		Expect(pub.stages()).To(Equal([]status.Stage{
			status.StageStarted,
			status.StageTurn,
			status.StageCancelled,
		}))
		Expect(pub.events[2].AdvisoryID).To(Equal("43"))
	})

	It("publishes one event per turn and keeps going if publishing fails", func() {
		pub.err = errors.New("redis down")

		conv, err := run(brain.ProtocolConfig{AdvisoryID: "a4"})

		Expect(err).NotTo(HaveOccurred())
		Expect(conv.Complete()).To(BeTrue())
		Expect(pub.stages()).To(Equal([]status.Stage{
			status.StageStarted,
			status.StageTurn, status.StageTurn, status.StageTurn, status.StageTurn,
			status.StageCompleted,
		}))
		for _, e := range pub.events {
			Expect(e.AdvisoryID).To(Equal("a4"))
		}
	})

	It("publishes nothing without an advisory id", func() {
		_, err := run(brain.ProtocolConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(pub.events).To(BeEmpty())
	})

	It("hands out copies of the transcript", func() {
		conv, err := run(brain.ProtocolConfig{})
		Expect(err).NotTo(HaveOccurred())

		turns := conv.Turns()
		turns[0].Text = "tampered"

		Expect(conv.Turns()[0].Text).NotTo(Equal("tampered"))
	})
})
