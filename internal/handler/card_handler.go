package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"papir/backend/internal/service"
	"papir/backend/pkg/cardlink"
	"papir/backend/pkg/response"
)

type CardHandler struct {
	cards         service.CardService
	viewerBaseURL string
	apiBaseURL    string
}

func NewCardHandler(cards service.CardService, viewerBaseURL, apiBaseURL string) *CardHandler {
	return &CardHandler{
		cards:         cards,
		viewerBaseURL: viewerBaseURL,
		apiBaseURL:    apiBaseURL,
	}
}

func (h *CardHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)})
}

func (h *CardHandler) List(c *gin.Context) {
	cards, err := h.cards.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"cards": cards, "count": len(cards)})
}

func (h *CardHandler) Get(c *gin.Context) {
	card, err := h.cards.Get(c.Request.Context(), c.Param("card_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"card": card})
}

type SaveCardRequest struct {
	CardID      string  `json:"card_id" binding:"required"`
	MessageType string  `json:"message_type"`
	MessageText *string `json:"message_text"`
	MediaURL    *string `json:"media_url"`
	FileName    *string `json:"file_name"`
	FileSize    *int64  `json:"file_size"`
	FileType    *string `json:"file_type"`
}

func (h *CardHandler) Save(c *gin.Context) {
	var req SaveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	card, err := h.cards.Save(c.Request.Context(), service.SaveCardInput{
		CardID:      req.CardID,
		MessageType: req.MessageType,
		MessageText: req.MessageText,
		MediaURL:    req.MediaURL,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		FileType:    req.FileType,
		ClientIP:    c.ClientIP(),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Created(c, gin.H{
		"card": card,
		"urls": gin.H{
			"viewer": cardlink.ViewerURL(h.viewerBaseURL, card.CardID),
			"qrCode": cardlink.QRImageURL(h.apiBaseURL, card.CardID),
		},
	})
}

func (h *CardHandler) Delete(c *gin.Context) {
	result, err := h.cards.Delete(c.Request.Context(), c.Param("card_id"), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message":       "card deleted",
		"media_deleted": result.MediaDeleted,
	})
}

// QRCode serves the card's viewer URL as a PNG, for embedding and reprints.
func (h *CardHandler) QRCode(c *gin.Context) {
	card, err := h.cards.Get(c.Request.Context(), c.Param("card_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	png, err := cardlink.QRPNG(cardlink.ViewerURL(h.viewerBaseURL, card.CardID))
	if err != nil {
		response.InternalError(c, "failed to render qr code")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

type ActivateCardRequest struct {
	CardID string `json:"card_id" binding:"required"`
}

func (h *CardHandler) Activate(c *gin.Context) {
	var req ActivateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if _, err := h.cards.Activate(c.Request.Context(), req.CardID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{})
}

type IncrementScanRequest struct {
	CardID string `json:"card_id" binding:"required"`
}

func (h *CardHandler) IncrementScan(c *gin.Context) {
	var req IncrementScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	count, err := h.cards.IncrementScanCount(c.Request.Context(), req.CardID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}
