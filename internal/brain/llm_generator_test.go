package brain_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/advisor/common/llm"
	"basegraph.app/advisor/internal/brain"
	"basegraph.app/advisor/internal/model"
)

// mockLLMClient implements llm.Client for testing.
type mockLLMClient struct {
	chatFn    func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	callCount int
	requests  []llm.ChatRequest
}

func (m *mockLLMClient) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.callCount++
	m.requests = append(m.requests, req)
	if m.chatFn != nil {
		return m.chatFn(ctx, req)
	}
	return &llm.ChatResponse{Content: "- use managed postgres", FinishReason: "stop"}, nil
}

func (m *mockLLMClient) Model() string {
	return "mock-model"
}

type statusErr int

func (e statusErr) Error() string   { return "http error" }
func (e statusErr) HTTPStatus() int { return int(e) }

func noBackoff(int) time.Duration { return 0 }

var _ = Describe("LLMGenerator", func() {
	var (
		client *mockLLMClient
		req    brain.GenerateRequest
		ctx    context.Context
	)

	BeforeEach(func() {
		client = &mockLLMClient{}
		ctx = context.Background()
		req = brain.GenerateRequest{
			SystemPrompt: "You are a Cloud Architect.",
			Role:         model.AgentCloudArchitect,
			MaxTokens:    2000,
			Transcript: []model.Turn{
				{Speaker: model.AgentBusinessUser, Text: "Build a shop", Sequence: 1},
				{Speaker: model.AgentHeadOfArchitecture, Text: "Start small", Sequence: 2},
			},
		}
	})

	It("returns the model's reply", func() {
		gen := brain.NewLLMGenerator(client, brain.LLMGeneratorConfig{Temperature: llm.Temp(0.7)})

		text, err := gen.Generate(ctx, req)

		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("- use managed postgres"))
		Expect(client.callCount).To(Equal(1))
		Expect(client.requests[0].MaxTokens).To(Equal(2000))
		Expect(*client.requests[0].Temperature).To(Equal(0.7))
	})

	It("retries rate limits and server errors", func() {
		client.chatFn = func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
			if client.callCount < 3 {
				return nil, statusErr(429)
			}
			return &llm.ChatResponse{Content: "third time lucky"}, nil
		}
		gen := brain.NewLLMGenerator(client, brain.LLMGeneratorConfig{MaxAttempts: 3, Backoff: noBackoff})

		text, err := gen.Generate(ctx, req)

		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("third time lucky"))
		Expect(client.callCount).To(Equal(3))
	})

	It("gives up after the last attempt", func() {
		client.chatFn = func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
			return nil, statusErr(503)
		}
		gen := brain.NewLLMGenerator(client, brain.LLMGeneratorConfig{MaxAttempts: 2, Backoff: noBackoff})

		_, err := gen.Generate(ctx, req)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("after 2 attempts"))
		Expect(errors.Is(err, statusErr(503))).To(BeTrue())
		Expect(client.callCount).To(Equal(2))
	})

	It("does not retry client errors", func() {
		client.chatFn = func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
			return nil, statusErr(400)
		}
		gen := brain.NewLLMGenerator(client, brain.LLMGeneratorConfig{Backoff: noBackoff})

		_, err := gen.Generate(ctx, req)

		Expect(err).To(HaveOccurred())
		Expect(client.callCount).To(Equal(1))
	})

	It("stops waiting when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		client.chatFn = func(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
			cancel()
			return nil, statusErr(500)
		}
		gen := brain.NewLLMGenerator(client, brain.LLMGeneratorConfig{
			Backoff: func(int) time.Duration { return time.Hour },
		})

		_, err := gen.Generate(cctx, req)

		Expect(err).To(MatchError(context.Canceled))
		Expect(client.callCount).To(Equal(1))
	})
})

var _ = Describe("BuildMessages", func() {
	It("replays the speaker's own turns as assistant messages", func() {
		msgs := brain.BuildMessages(brain.GenerateRequest{
			SystemPrompt: "sys",
			Role:         model.AgentCloudArchitect,
			Transcript: []model.Turn{
				{Speaker: model.AgentBusinessUser, Text: "Build a shop", Sequence: 1},
				{Speaker: model.AgentCloudArchitect, Text: "Use Kubernetes", Sequence: 2},
				{Speaker: model.AgentOSSArchitect, Text: "Use Postgres", Sequence: 3},
			},
		})

		Expect(msgs).To(Equal([]llm.Message{
			{Role: llm.RoleSystem, Content: "sys"},
			{Role: llm.RoleUser, Name: "BusinessUser", Content: "Build a shop"},
			{Role: llm.RoleAssistant, Content: "Use Kubernetes"},
			{Role: llm.RoleUser, Name: "OSSArchitect", Content: "Use Postgres"},
		}))
	})

	It("asks the agent to continue when it spoke last", func() {
		msgs := brain.BuildMessages(brain.GenerateRequest{
			Role: model.AgentLeadArchitect,
			Transcript: []model.Turn{
				{Speaker: model.AgentLeadArchitect, Text: "Layered design", Sequence: 2},
				{Speaker: model.AgentCloudArchitect, Text: "  ", Sequence: 3},
			},
		})

		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Role).To(Equal(llm.RoleAssistant))
		Expect(msgs[1].Role).To(Equal(llm.RoleUser))
		Expect(msgs[1].Name).To(Equal("BusinessUser"))
		Expect(msgs[1].Content).To(ContainSubstring("continue"))
	})
})
