package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/salesvelocity/internal/service"
	"github.com/gin-gonic/gin"
)

type BatchHandler struct {
	service *service.BatchService
}

func NewBatchHandler(service *service.BatchService) *BatchHandler {
	return &BatchHandler{service: service}
}

type ingestRequest struct {
	Prefix string `json:"prefix"`
}

// Ingest processes every workbook under a storage prefix and publishes the CSVs.
// The prefix comes from the JSON body or the prefix query parameter; empty uses the configured one.
func (h *BatchHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Prefix == "" {
		req.Prefix = c.Query("prefix")
	}

	result, err := h.service.Ingest(c.Request.Context(), req.Prefix)
	switch {
	case errors.Is(err, service.ErrStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrBatchInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil && result == nil:
		writeError(c, err)
		return
	}

	status := "completed"
	body := gin.H{"result": result}
	if err != nil {
		_ = c.Error(err)
		status = "completed_with_errors"
		body["error"] = err.Error()
	}
	body["status"] = status
	c.JSON(http.StatusOK, body)
}
