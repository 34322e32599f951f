package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/advisor/internal/brain"
	"basegraph.app/advisor/internal/export"
	"basegraph.app/advisor/internal/http/dto"
	"basegraph.app/advisor/internal/model"
	"basegraph.app/advisor/internal/report"
)

// ReportHandler mines transcripts that were produced elsewhere. It never
// calls a model.
type ReportHandler struct {
	now func() time.Time
}

func NewReportHandler(now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{now: now}
}

func (h *ReportHandler) Build(c *gin.Context) {
	adv, ok := h.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToReportResponse(adv))
}

func (h *ReportHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "formats": export.Formats()})
		return
	}

	adv, ok := h.analyze(c)
	if !ok {
		return
	}

	artifact, err := export.Render(format, adv.Report, adv.Summary, h.now())
	if err != nil {
		slog.ErrorContext(ctx, "export failed", "format", format, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render export"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	c.Data(http.StatusOK, artifact.MIMEType, artifact.Data)
}

func (h *ReportHandler) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, export.ReportSchema())
}

func (h *ReportHandler) analyze(c *gin.Context) (*brain.Advisory, bool) {
	ctx := c.Request.Context()

	var req dto.TurnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	turns, err := req.ToTurns()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	mreq := req.ToModel()
	priority, err := model.ParsePriority(string(mreq.Priority))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	mreq.Priority = priority

	return brain.Analyze(&report.Builder{Now: h.now}, turns, mreq), true
}
