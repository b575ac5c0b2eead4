package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/pipeline"
)

// RunIngestionRequest is the request body for an ingestion run
type RunIngestionRequest struct {
	Limit int `json:"limit"`
}

// RunIngestion fetches, filters, and stores new job postings
func (h *Handlers) RunIngestion(c *gin.Context) {
	var req RunIngestionRequest
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

	summary, err := h.service.RunIngestion(c.Request.Context(), req.Limit)
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
			Error:   "ingestion_error",
			Message: "Ingestion run failed",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RunQualificationRequest is the request body for a qualification run
type RunQualificationRequest struct {
	Limit int `json:"limit"`
}

// RunQualification runs AI qualification over unprocessed postings
func (h *Handlers) RunQualification(c *gin.Context) {
	var req RunQualificationRequest
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

	summary, err := h.service.RunQualification(c.Request.Context(), req.Limit)
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
			Error:   "qualification_error",
			Message: "Qualification run failed",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetIngestionStatus reports how many postings still await qualification
func (h *Handlers) GetIngestionStatus(c *gin.Context) {
	count, err := h.repo.CountUnprocessed()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to count unprocessed postings",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unprocessed_postings": count,
	})
}
