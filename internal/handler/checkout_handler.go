package handler

import (
	"github.com/gin-gonic/gin"

	"papir/backend/internal/service"
	"papir/backend/pkg/response"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
}

func NewCheckoutHandler(checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type CreateCheckoutRequest struct {
	CardID       string `json:"cardId" binding:"required"`
	TemplateName string `json:"templateName" binding:"required"`
	// Price is accepted for backwards compatibility but not trusted;
	// the server prices templates from config.
	Price         float64        `json:"price"`
	Customization map[string]any `json:"customization"`
}

func (h *CheckoutHandler) Create(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.checkout.CreateCheckout(c.Request.Context(), service.CheckoutInput{
		CardID:        req.CardID,
		TemplateName:  req.TemplateName,
		ClientPrice:   req.Price,
		Customization: req.Customization,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response.Success(c, gin.H{
		"sessionId": result.SessionID,
		"url":       result.URL,
	})
}
