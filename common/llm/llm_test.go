package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/advisor/common/llm"
)

var _ = Describe("SanitizeName", func() {
	DescribeTable("sanitizes participant names for the OpenAI name parameter",
		func(input, expected string) {
			Expect(llm.SanitizeName(input)).To(Equal(expected))
		},
		Entry("agent id unchanged", "CloudArchitect", "CloudArchitect"),
		Entry("spaces replaced", "Cloud Architect", "Cloud_Architect"),
		Entry("hyphens preserved", "lead-architect", "lead-architect"),
		Entry("multiple special chars replaced", "oss.architect@council!", "oss_architect_council_"),
		Entry("long name truncated to 64 chars", strings.Repeat("a", 100), strings.Repeat("a", 64)),
		Entry("empty string unchanged", "", ""),
	)
})

var _ = Describe("NewClient", func() {
	It("requires an API key", func() {
		_, err := llm.NewClient(llm.Config{Provider: llm.ProviderAnthropic})
		Expect(err).To(MatchError(ContainSubstring("API key is required")))
	})

	It("rejects unknown providers", func() {
		_, err := llm.NewClient(llm.Config{Provider: "gemini", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	It("defaults to Anthropic and its model", func() {
		c, err := llm.NewClient(llm.Config{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Model()).To(Equal("claude-3-5-sonnet-20240620"))
	})
})

type httpStatusErr int

func (e httpStatusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e httpStatusErr) HTTPStatus() int { return int(e) }

var _ = Describe("IsRetryable", func() {
	ctx := context.Background()

	DescribeTable("classifies errors",
		func(err error, want bool) {
			Expect(llm.IsRetryable(ctx, err)).To(Equal(want))
		},
		Entry("nil", nil, false),
		Entry("cancelled", fmt.Errorf("chat: %w", context.Canceled), false),
		Entry("deadline", context.DeadlineExceeded, false),
		Entry("rate limited", fmt.Errorf("chat: %w", httpStatusErr(429)), true),
		Entry("server error", httpStatusErr(503), true),
		Entry("bad request", httpStatusErr(400), false),
		Entry("unauthorized", httpStatusErr(401), false),
		Entry("network", errors.New("connection reset by peer"), true),
	)
})

var _ = Describe("OpenAI client", func() {
	It("sends named participants and reads the reply", func() {
		var body map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(HaveSuffix("/chat/completions"))
			raw, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(raw, &body)).To(Succeed())
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"created": 1,
				"model": "gpt-4o",
				"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "- Use managed Postgres"}}],
				"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
			}`)
		}))
		DeferCleanup(server.Close)

		c, err := llm.NewClient(llm.Config{Provider: llm.ProviderOpenAI, APIKey: "k", BaseURL: server.URL + "/v1/"})
		Expect(err).NotTo(HaveOccurred())

		resp, err := c.Chat(context.Background(), llm.ChatRequest{
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: "You are the OSS architect."},
				{Role: llm.RoleUser, Name: "Business User", Content: "Design a shop"},
			},
			MaxTokens:   100,
			Temperature: llm.Temp(0.7),
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal("- Use managed Postgres"))
		Expect(resp.FinishReason).To(Equal("stop"))
		Expect(resp.PromptTokens).To(Equal(12))

		msgs := body["messages"].([]any)
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[1]).To(HaveKeyWithValue("name", "Business_User"))
		Expect(body).To(HaveKeyWithValue("model", "gpt-4o"))
	})
})

var _ = Describe("Anthropic client", func() {
	It("lifts the system prompt and merges consecutive user turns", func() {
		var body map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(HaveSuffix("/v1/messages"))
			raw, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(raw, &body)).To(Succeed())
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{
				"id": "msg_1",
				"type": "message",
				"role": "assistant",
				"model": "claude-3-5-sonnet-20240620",
				"content": [{"type": "text", "text": "1. Use AWS Lambda"}],
				"stop_reason": "end_turn",
				"usage": {"input_tokens": 20, "output_tokens": 6}
			}`)
		}))
		DeferCleanup(server.Close)

		c, err := llm.NewClient(llm.Config{APIKey: "k", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		resp, err := c.Chat(context.Background(), llm.ChatRequest{
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: "You are the cloud architect."},
				{Role: llm.RoleUser, Name: "BusinessUser", Content: "Design a shop"},
				{Role: llm.RoleUser, Name: "HeadOfArchitecture", Content: "Start with scale"},
			},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal("1. Use AWS Lambda"))
		Expect(resp.FinishReason).To(Equal("stop"))
		Expect(resp.CompletionTokens).To(Equal(6))

		Expect(body).To(HaveKey("system"))
		msgs := body["messages"].([]any)
		Expect(msgs).To(HaveLen(1))
		first := msgs[0].(map[string]any)
		Expect(first).To(HaveKeyWithValue("role", "user"))
		Expect(first["content"]).To(HaveLen(2))
	})
})
