package repository

import (
	"context"

	"papir/backend/internal/model"
)

// CardRepository is the storage boundary for cards. Implementations return
// gorm.ErrRecordNotFound for missing rows and gorm.ErrDuplicatedKey for
// unique-constraint violations regardless of backend, so services stay
// backend-agnostic.
type CardRepository interface {
	Create(ctx context.Context, card *model.Card) error
	GetByCardID(ctx context.Context, cardID string) (*model.Card, error)
	// List returns all non-deleted cards, newest first.
	List(ctx context.Context) ([]model.Card, error)
	// UpdateFields applies a partial column update to one card.
	UpdateFields(ctx context.Context, cardID string, fields map[string]any) error
	// IncrementScanCount atomically bumps the counter and returns the new
	// value. Missing scan counts are treated as zero.
	IncrementScanCount(ctx context.Context, cardID string) (int, error)
	// CreateBatch inserts all cards or none.
	CreateBatch(ctx context.Context, cards []model.Card) error
	// ListCardIDs returns every card_id in the store, deleted rows included.
	ListCardIDs(ctx context.Context) ([]string, error)
}
