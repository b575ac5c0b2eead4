package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/pipeline"
	"leadgen-relay-go/internal/repository"
)

// RunOutreachRequest is the request body for an outreach run. DryRun
// defaults to the configured pipeline setting when omitted.
type RunOutreachRequest struct {
	Limit  int   `json:"limit"`
	DryRun *bool `json:"dry_run"`
}

func (h *Handlers) dryRunOrDefault(req *bool) bool {
	if req != nil {
		return *req
	}
	return h.cfg.Pipeline.DryRun
}

// RunOutreach drafts and delivers emails for qualified leads
func (h *Handlers) RunOutreach(c *gin.Context) {
	var req RunOutreachRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error:   "validation_error",
				Message: "Invalid request body",
				Code:    http.StatusBadRequest,
			})
			return
		}
	}

	summary, err := h.service.RunOutreach(c.Request.Context(), req.Limit, h.dryRunOrDefault(req.DryRun))
	if err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			c.JSON(http.StatusConflict, model.ErrorResponse{
				Error:   "pipeline_busy",
				Message: "A pipeline run is already in progress",
				Code:    http.StatusConflict,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "outreach_error",
			Message: "Outreach run failed",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RunOutreachForLead targets a single lead by ID
func (h *Handlers) RunOutreachForLead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid lead ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var req RunOutreachRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error:   "validation_error",
				Message: "Invalid request body",
				Code:    http.StatusBadRequest,
			})
			return
		}
	}

	summary, err := h.service.RunOutreachForLead(c.Request.Context(), uint(id), h.dryRunOrDefault(req.DryRun))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, model.ErrorResponse{
				Error:   "not_found",
				Message: "Lead not found",
				Code:    http.StatusNotFound,
			})
		case errors.Is(err, pipeline.ErrLeadNotQualified):
			c.JSON(http.StatusBadRequest, model.ErrorResponse{
				Error:   "lead_not_qualified",
				Message: "Lead is not in qualified status",
				Code:    http.StatusBadRequest,
			})
		case errors.Is(err, pipeline.ErrBusy):
			c.JSON(http.StatusConflict, model.ErrorResponse{
				Error:   "pipeline_busy",
				Message: "A pipeline run is already in progress",
				Code:    http.StatusConflict,
			})
		default:
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{
				Error:   "outreach_error",
				Message: "Outreach failed",
				Code:    http.StatusInternalServerError,
			})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetOutreachHistory returns recent delivery attempts
func (h *Handlers) GetOutreachHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	emails, err := h.repo.OutreachHistory(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch outreach history",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"emails": emails,
		"count":  len(emails),
	})
}

// CheckReplies polls the inbox for replies to sent outreach
func (h *Handlers) CheckReplies(c *gin.Context) {
	marked, err := h.service.CheckReplies(c.Request.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			c.JSON(http.StatusConflict, model.ErrorResponse{
				Error:   "pipeline_busy",
				Message: "A pipeline run is already in progress",
				Code:    http.StatusConflict,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "replies_error",
			Message: "Reply check failed",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"replied_leads": marked,
	})
}
