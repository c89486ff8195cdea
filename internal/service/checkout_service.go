package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"papir/backend/internal/model"
	"papir/backend/internal/payment"
	"papir/backend/internal/repository"
)

type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
	SessionTTL time.Duration
	// Templates maps template name to price in minor currency units.
	// Pricing is authoritative here; client-supplied prices are ignored.
	Templates map[string]int64
}

type CheckoutInput struct {
	CardID       string
	TemplateName string
	// ClientPrice is what the client claims the card costs, in major
	// units. Used only to log drift against the configured price.
	ClientPrice   float64
	Customization map[string]any
}

type CheckoutResult struct {
	SessionID string
	URL       string
}

// pendingSession is what we park in the state store until the processor
// confirms payment.
type pendingSession struct {
	CardID     string         `json:"card_id"`
	Template   string         `json:"template"`
	Amount     int64          `json:"amount"`
	ExternalID string         `json:"external_id"`
	Custom     map[string]any `json:"customization,omitempty"`
}

type CheckoutService interface {
	CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error)
}

type checkoutService struct {
	payments *payment.Client
	state    repository.StateStore
	cfg      CheckoutConfig
	logger   *zap.Logger
}

func NewCheckoutService(payments *payment.Client, state repository.StateStore, cfg CheckoutConfig, logger *zap.Logger) CheckoutService {
	return &checkoutService{
		payments: payments,
		state:    state,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *checkoutService) CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	cardID := model.NormalizeCardID(in.CardID)
	if cardID == "" {
		return nil, fmt.Errorf("%w: cardId is required", ErrValidation)
	}
	template := strings.TrimSpace(in.TemplateName)
	if template == "" {
		return nil, fmt.Errorf("%w: templateName is required", ErrValidation)
	}

	amount, ok := s.cfg.Templates[template]
	if !ok {
		return nil, fmt.Errorf("%w: unknown template %q", ErrValidation, template)
	}
	if in.ClientPrice > 0 && int64(math.Round(in.ClientPrice*100)) != amount {
		s.logger.Warn("client price differs from configured template price",
			zap.String("template", template),
			zap.Float64("client_price", in.ClientPrice),
			zap.Int64("amount", amount))
	}

	externalID := fmt.Sprintf("papir_%s_%s", cardID, uuid.NewString())
	session, err := s.payments.CreateSession(ctx, payment.CreateSessionRequest{
		ExternalID:  externalID,
		Amount:      amount,
		Currency:    s.cfg.Currency,
		Description: fmt.Sprintf("Papir card %s (%s)", cardID, template),
		SuccessURL:  s.cfg.SuccessURL,
		CancelURL:   s.cfg.CancelURL,
		Metadata:    map[string]string{"card_id": cardID, "template": template},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	pending := pendingSession{
		CardID:     cardID,
		Template:   template,
		Amount:     amount,
		ExternalID: externalID,
		Custom:     in.Customization,
	}
	if raw, err := json.Marshal(pending); err == nil {
		if err := s.state.Set(ctx, "checkout:"+session.ID, raw, s.cfg.SessionTTL); err != nil {
			s.logger.Warn("failed to park checkout session",
				zap.String("session_id", session.ID), zap.Error(err))
		}
	}

	s.logger.Info("checkout session created",
		zap.String("card_id", cardID),
		zap.String("session_id", session.ID),
		zap.Int64("amount", amount))

	return &CheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}
