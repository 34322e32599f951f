package handler_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/advisor/internal/http/handler"
)

var _ = Describe("ReportHandler", func() {
	var (
		router *gin.Engine
		fixed  time.Time
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		fixed = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
		h := handler.NewReportHandler(func() time.Time { return fixed })

		router.GET("/reports/schema", h.Schema)
		router.POST("/reports", h.Build)
		router.POST("/reports/export", h.Export)
	})

	transcript := func() map[string]any {
		return map[string]any{
			"request":    "An online shop",
			"categories": []string{"Cloud", "Data"},
			"priority":   "medium",
			"turns": []map[string]any{
				{"speaker": "BusinessUser", "text": "**Architecture Request:** An online shop", "sequence": 1},
				{"speaker": "CloudArchitect", "text": "- Deploy on AWS\n- Use a managed postgres database", "sequence": 2},
				{"speaker": "OSSArchitect", "text": "- Prefer Apache-licensed tools", "sequence": 3},
			},
		}
	}

	send := func(path string, body any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Build", func() {
		It("mines the supplied turns", func() {
			w := send("/reports", transcript())

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			meta := resp["report"].(map[string]any)["metadata"].(map[string]any)
			Expect(meta["timestamp"]).To(Equal("2025-03-14 09:26:53"))
			Expect(meta["priority"]).To(Equal("Medium"))
			Expect(meta["total_agents"]).To(BeNumerically("==", 2))
			Expect(meta["total_recommendations"]).To(BeNumerically("==", 3))
			Expect(resp["summary"]).To(HaveLen(2))
			Expect(resp["charts"].(map[string]any)["timeline"]).To(HaveLen(4))
		})

		It("accepts an empty transcript", func() {
			w := send("/reports", map[string]any{"request": "nothing yet"})

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["summary"]).To(BeEmpty())
		})

		It("rejects an unknown speaker", func() {
			body := transcript()
			body["turns"] = []map[string]any{{"speaker": "DataArchitect", "text": "hi", "sequence": 1}}

			w := send("/reports", body)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("unknown agent"))
		})

		It("rejects a turn without a sequence", func() {
			body := transcript()
			body["turns"] = []map[string]any{{"speaker": "CloudArchitect", "text": "hi"}}

			w := send("/reports", body)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unknown priority", func() {
			body := transcript()
			body["priority"] = "urgent"

			w := send("/reports", body)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("invalid priority"))
		})
	})

	Describe("Export", func() {
		It("returns the CSV summary as an attachment", func() {
			w := send("/reports/export?format=csv", transcript())

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(HavePrefix("text/csv"))
			Expect(w.Header().Get("Content-Disposition")).To(Equal(`attachment; filename="architecture_summary_20250314_092653.csv"`))

			records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))
			Expect(records[0][0]).To(Equal("Agent"))
			Expect(records[1][0]).To(Equal("CloudArchitect"))
		})

		It("returns markdown for the md alias", func() {
			w := send("/reports/export?format=md", transcript())

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring("architecture_report_20250314_092653.md"))
			Expect(w.Body.String()).To(ContainSubstring("CloudArchitect"))
		})

		It("returns the report as JSON", func() {
			w := send("/reports/export?format=json", transcript())

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKey("agent_summaries"))
		})

		It("rejects an unknown format before reading the body", func() {
			w := send("/reports/export?format=pdf", transcript())

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("markdown"))
		})
	})

	Describe("Schema", func() {
		It("describes the report model", func() {
			req := httptest.NewRequest(http.MethodGet, "/reports/schema", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["properties"]).To(HaveKey("metadata"))
			Expect(resp["properties"]).To(HaveKey("implementation_roadmap"))
		})
	})
})
