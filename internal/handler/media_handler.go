package handler

import (
	"github.com/gin-gonic/gin"

	"papir/backend/internal/service"
	"papir/backend/pkg/response"
)

type MediaHandler struct {
	media service.MediaService
}

func NewMediaHandler(media service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

type UploadMediaRequest struct {
	FileData string `json:"fileData" binding:"required"`
	FileName string `json:"fileName" binding:"required"`
	FileType string `json:"fileType"`
	CardID   string `json:"cardId" binding:"required"`
}

func (h *MediaHandler) Upload(c *gin.Context) {
	var req UploadMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.media.Upload(c.Request.Context(), service.UploadInput{
		CardID:   req.CardID,
		FileName: req.FileName,
		FileType: req.FileType,
		FileData: req.FileData,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"url":       result.URL,
		"file_name": result.FileName,
		"file_size": result.FileSize,
		"file_type": result.FileType,
	})
}
