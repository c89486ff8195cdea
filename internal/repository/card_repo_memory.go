package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"papir/backend/internal/model"
)

type memCard struct {
	card model.Card
	seq  int
}

// memoryCardRepository backs the "memory" store mode (local dev without
// postgres) and the service tests. It mirrors the pg implementation's
// error contract.
type memoryCardRepository struct {
	mu    sync.RWMutex
	cards map[string]*memCard
	seq   int
}

func NewMemoryCardRepository() CardRepository {
	return &memoryCardRepository{cards: make(map[string]*memCard)}
}

func (r *memoryCardRepository) Create(_ context.Context, card *model.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cards[card.CardID]; exists {
		return gorm.ErrDuplicatedKey
	}
	r.insertLocked(card)
	return nil
}

func (r *memoryCardRepository) insertLocked(card *model.Card) {
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	now := time.Now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	if card.UpdatedAt.IsZero() {
		card.UpdatedAt = now
	}
	r.seq++
	stored := *card
	r.cards[card.CardID] = &memCard{card: stored, seq: r.seq}
}

func (r *memoryCardRepository) GetByCardID(_ context.Context, cardID string) (*model.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cards[cardID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	card := entry.card
	return &card, nil
}

func (r *memoryCardRepository) List(_ context.Context) ([]model.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*memCard, 0, len(r.cards))
	for _, e := range r.cards {
		if e.card.Status == model.CardStatusDeleted {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].card.CreatedAt.Equal(entries[j].card.CreatedAt) {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].card.CreatedAt.After(entries[j].card.CreatedAt)
	})

	cards := make([]model.Card, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, e.card)
	}
	return cards, nil
}

func (r *memoryCardRepository) UpdateFields(_ context.Context, cardID string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cards[cardID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for col, val := range fields {
		applyField(&entry.card, col, val)
	}
	return nil
}

func applyField(card *model.Card, col string, val any) {
	switch col {
	case "status":
		card.Status = val.(model.CardStatus)
	case "message_type":
		card.MessageType = val.(string)
	case "message_text":
		v := val.(string)
		card.MessageText = &v
	case "media_url":
		v := val.(string)
		card.MediaURL = &v
	case "file_name":
		v := val.(string)
		card.FileName = &v
	case "file_size":
		v := val.(int64)
		card.FileSize = &v
	case "file_type":
		v := val.(string)
		card.FileType = &v
	case "scan_count":
		card.ScanCount = val.(int)
	case "updated_at":
		card.UpdatedAt = val.(time.Time)
	case "updated_by_ip":
		card.UpdatedByIP = val.(string)
	case "activated_at":
		v := val.(time.Time)
		card.ActivatedAt = &v
	case "activated_by_ip":
		v := val.(string)
		card.ActivatedByIP = &v
	case "terms_accepted_at":
		v := val.(time.Time)
		card.TermsAcceptedAt = &v
	case "terms_accepted_ip":
		v := val.(string)
		card.TermsAcceptedIP = &v
	}
}

func (r *memoryCardRepository) IncrementScanCount(_ context.Context, cardID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.cards[cardID]
	if !ok || entry.card.Status == model.CardStatusDeleted {
		return 0, gorm.ErrRecordNotFound
	}
	entry.card.ScanCount++
	entry.card.UpdatedAt = time.Now()
	return entry.card.ScanCount, nil
}

func (r *memoryCardRepository) CreateBatch(_ context.Context, cards []model.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range cards {
		if _, exists := r.cards[cards[i].CardID]; exists {
			return gorm.ErrDuplicatedKey
		}
	}
	for i := range cards {
		r.insertLocked(&cards[i])
	}
	return nil
}

func (r *memoryCardRepository) ListCardIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.cards))
	for id := range r.cards {
		ids = append(ids, id)
	}
	return ids, nil
}
