package handler

import (
	"github.com/gin-gonic/gin"

	"papir/backend/internal/service"
	"papir/backend/pkg/response"
)

type AdminHandler struct {
	batch        service.BatchService
	defaultCount int
}

func NewAdminHandler(batch service.BatchService, defaultCount int) *AdminHandler {
	return &AdminHandler{batch: batch, defaultCount: defaultCount}
}

type GenerateBatchRequest struct {
	Count int `json:"count"`
}

// GenerateBatch runs the unique-ID generator in-process, as an alternative
// to the batchgen binary.
func (h *AdminHandler) GenerateBatch(c *gin.Context) {
	var req GenerateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Count == 0 {
		req.Count = h.defaultCount
	}

	result, err := h.batch.Generate(c.Request.Context(), req.Count)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"count":    len(result.CardIDs),
		"card_ids": result.CardIDs,
		"manifest": result.ManifestPath,
	})
}
