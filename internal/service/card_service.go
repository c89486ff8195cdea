package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"papir/backend/internal/model"
	"papir/backend/internal/repository"
	"papir/backend/internal/storage"
)

// CreationPolicy selects how never-seen card IDs are handled by Save.
type CreationPolicy string

const (
	// PolicyDirect creates active, content-bearing cards on first save.
	PolicyDirect CreationPolicy = "direct"
	// PolicyPhysical creates pending cards; content saves are gated on
	// activation of the physical card.
	PolicyPhysical CreationPolicy = "physical"
)

type SaveCardInput struct {
	CardID      string
	MessageType string
	MessageText *string
	MediaURL    *string
	FileName    *string
	FileSize    *int64
	FileType    *string
	ClientIP    string
}

// DeleteResult reports the two halves of a delete independently: the record
// flip always decides success, media cleanup is best-effort.
type DeleteResult struct {
	RecordDeleted bool
	MediaDeleted  bool
	MediaError    string
}

type CardService interface {
	Save(ctx context.Context, in SaveCardInput) (*model.Card, error)
	Get(ctx context.Context, cardID string) (*model.Card, error)
	List(ctx context.Context) ([]model.Card, error)
	Delete(ctx context.Context, cardID, clientIP string) (*DeleteResult, error)
	Activate(ctx context.Context, cardID, clientIP string) (*model.Card, error)
	IncrementScanCount(ctx context.Context, cardID string) (int, error)
}

type cardService struct {
	cards  repository.CardRepository
	media  storage.MediaStore
	policy CreationPolicy
	logger *zap.Logger
	now    func() time.Time
}

func NewCardService(cards repository.CardRepository, media storage.MediaStore, policy CreationPolicy, logger *zap.Logger) CardService {
	return &cardService{
		cards:  cards,
		media:  media,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Save is the single client-facing write: it creates the card when the ID is
// new and partially updates it otherwise, so callers never need to know
// which case applies. Two concurrent first saves can both see "absent"; the
// store's unique constraint rejects the loser, surfaced as
// ErrCardAlreadyExists.
func (s *cardService) Save(ctx context.Context, in SaveCardInput) (*model.Card, error) {
	cardID := model.NormalizeCardID(in.CardID)
	if cardID == "" {
		return nil, fmt.Errorf("%w: card_id is required", ErrValidation)
	}
	messageType := strings.TrimSpace(in.MessageType)
	if messageType == "" && s.policy == PolicyDirect {
		return nil, fmt.Errorf("%w: message_type is required", ErrValidation)
	}

	existing, err := s.cards.GetByCardID(ctx, cardID)
	switch {
	case err == nil:
		return s.update(ctx, existing, in, cardID, messageType)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.insert(ctx, in, cardID, messageType)
	default:
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func (s *cardService) insert(ctx context.Context, in SaveCardInput, cardID, messageType string) (*model.Card, error) {
	now := s.now()
	ip := clientIPOrUnknown(in.ClientIP)

	card := &model.Card{
		CardID:      cardID,
		MessageType: messageType,
		MessageText: in.MessageText,
		MediaURL:    in.MediaURL,
		FileName:    in.FileName,
		FileSize:    in.FileSize,
		FileType:    in.FileType,
		ScanCount:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedByIP: ip,
		UpdatedByIP: ip,
	}

	switch s.policy {
	case PolicyPhysical:
		card.Status = model.CardStatusPending
		if card.MessageType == "" {
			card.MessageType = model.MessageTypePlaceholder
		}
	default:
		card.Status = model.CardStatusActive
		card.ActivatedAt = &now
		card.ActivatedByIP = &ip
	}

	if err := s.cards.Create(ctx, card); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrCardAlreadyExists, cardID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Info("card created",
		zap.String("card_id", cardID),
		zap.String("status", string(card.Status)))
	return card, nil
}

func (s *cardService) update(ctx context.Context, existing *model.Card, in SaveCardInput, cardID, messageType string) (*model.Card, error) {
	switch existing.Status {
	case model.CardStatusDeleted:
		// Deleted IDs are never reused.
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	case model.CardStatusPending:
		return nil, fmt.Errorf("%w: %s", ErrCardNotActivated, cardID)
	}

	// Partial update: omitted fields stay as they are.
	fields := map[string]any{
		"updated_at":    s.now(),
		"updated_by_ip": clientIPOrUnknown(in.ClientIP),
	}
	if messageType != "" {
		fields["message_type"] = messageType
	}
	if in.MessageText != nil {
		fields["message_text"] = *in.MessageText
	}
	if in.MediaURL != nil {
		fields["media_url"] = *in.MediaURL
	}
	if in.FileName != nil {
		fields["file_name"] = *in.FileName
	}
	if in.FileSize != nil {
		fields["file_size"] = *in.FileSize
	}
	if in.FileType != nil {
		fields["file_type"] = *in.FileType
	}

	if err := s.cards.UpdateFields(ctx, cardID, fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	card, err := s.cards.GetByCardID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.logger.Info("card updated", zap.String("card_id", cardID))
	return card, nil
}

func (s *cardService) Get(ctx context.Context, cardID string) (*model.Card, error) {
	cardID = model.NormalizeCardID(cardID)
	card, err := s.cards.GetByCardID(ctx, cardID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if card.Status == model.CardStatusDeleted {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	return card, nil
}

func (s *cardService) List(ctx context.Context) ([]model.Card, error) {
	cards, err := s.cards.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return cards, nil
}

// Delete soft-deletes the record, then removes stored media. Media failures
// are reported in the result, never propagated: the record flip already
// happened and losing an orphaned object is preferable to resurrecting a
// deleted card.
func (s *cardService) Delete(ctx context.Context, cardID, clientIP string) (*DeleteResult, error) {
	cardID = model.NormalizeCardID(cardID)

	if _, err := s.Get(ctx, cardID); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"status":        model.CardStatusDeleted,
		"updated_at":    s.now(),
		"updated_by_ip": clientIPOrUnknown(clientIP),
	}
	if err := s.cards.UpdateFields(ctx, cardID, fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	result := &DeleteResult{RecordDeleted: true, MediaDeleted: true}
	if _, err := s.media.DeleteAll(ctx, cardID); err != nil {
		result.MediaDeleted = false
		result.MediaError = err.Error()
		s.logger.Warn("media cleanup failed after card delete",
			zap.String("card_id", cardID), zap.Error(err))
	}

	s.logger.Info("card deleted", zap.String("card_id", cardID))
	return result, nil
}

// Activate performs the one-way pending -> active transition, stamping
// activation and terms-acceptance audit fields in the same update.
func (s *cardService) Activate(ctx context.Context, cardID, clientIP string) (*model.Card, error) {
	cardID = model.NormalizeCardID(cardID)

	card, err := s.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.Status != model.CardStatusPending {
		return nil, fmt.Errorf("%w: %s", ErrCardAlreadyActivated, cardID)
	}

	now := s.now()
	ip := clientIPOrUnknown(clientIP)
	fields := map[string]any{
		"status":            model.CardStatusActive,
		"activated_at":      now,
		"activated_by_ip":   ip,
		"terms_accepted_at": now,
		"terms_accepted_ip": ip,
		"updated_at":        now,
		"updated_by_ip":     ip,
	}
	if err := s.cards.UpdateFields(ctx, cardID, fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	card, err = s.cards.GetByCardID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.logger.Info("card activated", zap.String("card_id", cardID), zap.String("ip", ip))
	return card, nil
}

func (s *cardService) IncrementScanCount(ctx context.Context, cardID string) (int, error) {
	cardID = model.NormalizeCardID(cardID)
	count, err := s.cards.IncrementScanCount(ctx, cardID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

func clientIPOrUnknown(ip string) string {
	if strings.TrimSpace(ip) == "" {
		return "unknown"
	}
	return ip
}
