package config_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/advisor/core/config"
)

var _ = Describe("Load", func() {
	BeforeEach(func() {
		for _, key := range []string{
			"ADVISOR_LLM_PROVIDER", "ADVISOR_LLM_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY",
			"ADVISOR_LLM_MODEL", "ADVISOR_TURN_BUDGET", "STATUS_STREAM_TTL", "REDIS_URL",
			"ADVISOR_LLM_TEMPERATURE", "OTEL_EXPORTER_OTLP_ENDPOINT",
		} {
			unsetEnv(key)
		}
		// Keep developer .env files out of the picture.
		setEnv("ADVISOR_ENV", "test")
	})

	It("applies the advisory defaults", func() {
		setEnv("ADVISOR_LLM_TEMPERATURE", "not-a-number")
		setEnv("STATUS_STREAM_TTL", "bogus")

		cfg, err := config.Load(config.ServiceTypeServer)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Model).To(Equal("claude-3-5-sonnet-20240620"))
		Expect(cfg.LLM.Temperature).To(Equal(0.7))
		Expect(cfg.Redis.StatusTTL).To(Equal(time.Hour))
		Expect(cfg.Council.TurnBudget).To(Equal(8))
		Expect(cfg.IsDevelopment()).To(BeFalse())
	})

	It("falls back to the provider key variable", func() {
		setEnv("ANTHROPIC_API_KEY", "sk-ant")
		setEnv("OPENAI_API_KEY", "sk-oai")

		cfg, err := config.Load(config.ServiceTypeCLI)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.APIKey).To(Equal("sk-ant"))
		Expect(cfg.LLM.Enabled()).To(BeTrue())

		setEnv("ADVISOR_LLM_PROVIDER", "OpenAI")
		cfg, err = config.Load(config.ServiceTypeCLI)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal("openai"))
		Expect(cfg.LLM.APIKey).To(Equal("sk-oai"))
		Expect(cfg.LLM.Model).To(Equal("gpt-4o"))
	})

	It("prefers the advisor key over provider keys", func() {
		setEnv("ANTHROPIC_API_KEY", "sk-ant")
		setEnv("ADVISOR_LLM_API_KEY", "sk-advisor")

		cfg, err := config.Load(config.ServiceTypeServer)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.APIKey).To(Equal("sk-advisor"))
	})

	It("reads durations and floats", func() {
		setEnv("STATUS_STREAM_TTL", "90s")
		setEnv("ADVISOR_LLM_TEMPERATURE", "0.2")
		setEnv("REDIS_URL", "redis://localhost:6379/0")

		cfg, err := config.Load(config.ServiceTypeServer)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Redis.StatusTTL).To(Equal(90 * time.Second))
		Expect(cfg.LLM.Temperature).To(Equal(0.2))
		Expect(cfg.Redis.Enabled()).To(BeTrue())
		Expect(cfg.OTel.Enabled()).To(BeFalse())
	})

	It("rejects a turn budget too small to hear every specialist", func() {
		setEnv("ADVISOR_TURN_BUDGET", "3")

		_, err := config.Load(config.ServiceTypeServer)

		Expect(err).To(MatchError(ContainSubstring("ADVISOR_TURN_BUDGET")))
	})

	It("rejects unknown providers", func() {
		setEnv("ADVISOR_LLM_PROVIDER", "Gemini")

		_, err := config.Load(config.ServiceTypeServer)

		Expect(err).To(MatchError(ContainSubstring("gemini")))
	})
})

func setEnv(key, value string) {
	restoreLater(key)
	Expect(os.Setenv(key, value)).To(Succeed())
}

func unsetEnv(key string) {
	restoreLater(key)
	Expect(os.Unsetenv(key)).To(Succeed())
}

func restoreLater(key string) {
	old, had := os.LookupEnv(key)
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}
