package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/repository"
)

// ListLeads returns leads, optionally filtered by status
func (h *Handlers) ListLeads(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	status := model.LeadStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_status",
			Message: "Unknown lead status",
			Code:    http.StatusBadRequest,
		})
		return
	}

	leads, err := h.repo.ListLeads(status, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch leads",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads": leads,
		"count": len(leads),
	})
}

// GetLeadStats returns lead counts grouped by status
func (h *Handlers) GetLeadStats(c *gin.Context) {
	stats, err := h.repo.LeadStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch lead stats",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetLead returns a specific lead
func (h *Handlers) GetLead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid lead ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	lead, err := h.repo.LeadByID(uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{
				Error:   "not_found",
				Message: "Lead not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch lead",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, lead)
}

// UpdateLeadStatusRequest is the request body for a manual status override
type UpdateLeadStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateLeadStatus manually overrides a lead's status. Any known status may
// replace any other; only membership in the enum is validated.
func (h *Handlers) UpdateLeadStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid lead ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	status := model.LeadStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_status",
			Message: "Unknown lead status",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if err := h.repo.UpdateLeadStatus(uint(id), status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, model.ErrorResponse{
				Error:   "not_found",
				Message: "Lead not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to update lead status",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     id,
		"status": status,
	})
}
