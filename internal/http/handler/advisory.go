package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"basegraph.app/advisor/common/id"
	"basegraph.app/advisor/common/logger"
	"basegraph.app/advisor/internal/brain"
	"basegraph.app/advisor/internal/http/dto"
	"basegraph.app/advisor/internal/model"
)

const AdvisoryIDHeader = "X-Advisory-ID"

// AdvisoryService is the part of brain.Advisor the handlers need.
type AdvisoryService interface {
	Advise(ctx context.Context, advisoryID string, req model.Request) (*brain.Advisory, error)
	Roster() brain.Roster
}

type AdvisoryHandler struct {
	advisor AdvisoryService
}

func NewAdvisoryHandler(advisor AdvisoryService) *AdvisoryHandler {
	return &AdvisoryHandler{advisor: advisor}
}

// Create runs a whole advisory inside the request. Callers wanting live
// progress pick an id, send it in X-Advisory-ID and follow the status
// stream for that id while this call is in flight.
func (h *AdvisoryHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AdvisoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	advisoryID := strings.TrimSpace(c.GetHeader(AdvisoryIDHeader))
	if advisoryID == "" {
		advisoryID = id.NewAdvisoryID()
	}
	c.Header(AdvisoryIDHeader, advisoryID)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AdvisoryID: logger.Ptr(advisoryID),
		Component:  "advisor.http.advisory",
	})

	adv, err := h.advisor.Advise(ctx, advisoryID, req.ToModel())
	if adv == nil {
		if errors.Is(err, model.ErrEmptyRequest) || errors.Is(err, model.ErrInvalidPriority) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "advisory failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to run advisory"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAdvisoryResponse(adv, err))
}

func (h *AdvisoryHandler) Agents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": dto.ToAgentResponses(h.advisor.Roster())})
}
