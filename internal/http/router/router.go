package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"basegraph.app/advisor/internal/http/handler"
)

type RouterConfig struct {
	Advisor handler.AdvisoryService
	Redis   *redis.Client // nil disables the status stream
	Now     func() time.Time
}

func SetupRoutes(router *gin.Engine, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		advisoryHandler := handler.NewAdvisoryHandler(cfg.Advisor)
		statusHandler := handler.NewAdvisoryStatusHandler(cfg.Redis)
		AdvisoryRouter(v1, advisoryHandler, statusHandler)

		reportHandler := handler.NewReportHandler(cfg.Now)
		ReportRouter(v1.Group("/reports"), reportHandler)
	}
}

func AdvisoryRouter(rg *gin.RouterGroup, h *handler.AdvisoryHandler, s *handler.AdvisoryStatusHandler) {
	rg.GET("/agents", h.Agents)
	rg.POST("/advisories", h.Create)
	rg.GET("/advisories/:advisory_id/status", s.Stream)
}

func ReportRouter(rg *gin.RouterGroup, h *handler.ReportHandler) {
	rg.GET("/schema", h.Schema)
	rg.POST("", h.Build)
	rg.POST("/export", h.Export)
}
