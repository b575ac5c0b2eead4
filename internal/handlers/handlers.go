package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"leadgen-relay-go/internal/config"
	"leadgen-relay-go/internal/pipeline"
	"leadgen-relay-go/internal/repository"
	"leadgen-relay-go/internal/scheduler"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	repo      *repository.Repository
	service   *pipeline.Service
	scheduler *scheduler.Scheduler
	cfg       *config.Config
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, repo *repository.Repository, service *pipeline.Service, sched *scheduler.Scheduler, cfg *config.Config) *Handlers {
	return &Handlers{
		db:        db,
		repo:      repo,
		service:   service,
		scheduler: sched,
		cfg:       cfg,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	// Health check
	router.GET("/healthz", h.HealthCheck)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		// Ingestion
		api.POST("/ingestion/run", h.RunIngestion)
		api.POST("/ingestion/qualify", h.RunQualification)
		api.GET("/ingestion/status", h.GetIngestionStatus)

		// Leads
		api.GET("/leads", h.ListLeads)
		api.GET("/leads/stats", h.GetLeadStats)
		api.GET("/leads/:id", h.GetLead)
		api.PATCH("/leads/:id/status", h.UpdateLeadStatus)

		// Outreach
		api.POST("/outreach/run", h.RunOutreach)
		api.POST("/outreach/leads/:id", h.RunOutreachForLead)
		api.GET("/outreach/history", h.GetOutreachHistory)

		// Replies
		api.POST("/replies/check", h.CheckReplies)

		// Scheduler control
		api.POST("/scheduler/start", h.StartScheduler)
		api.POST("/scheduler/stop", h.StopScheduler)
		api.POST("/scheduler/run-once", h.RunOnce)
		api.GET("/scheduler/status", h.GetSchedulerStatus)
	}
}
