package repository

import (
	"context"

	"gorm.io/gorm"

	"papir/backend/internal/model"
)

type pgCardRepository struct {
	db *gorm.DB
}

func NewPGCardRepository(db *gorm.DB) CardRepository {
	return &pgCardRepository{db: db}
}

func (r *pgCardRepository) Create(ctx context.Context, card *model.Card) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *pgCardRepository) GetByCardID(ctx context.Context, cardID string) (*model.Card, error) {
	var card model.Card
	if err := r.db.WithContext(ctx).Where("card_id = ?", cardID).First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *pgCardRepository) List(ctx context.Context) ([]model.Card, error) {
	var cards []model.Card
	err := r.db.WithContext(ctx).
		Where("status <> ?", model.CardStatusDeleted).
		Order("created_at DESC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *pgCardRepository) UpdateFields(ctx context.Context, cardID string, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&model.Card{}).
		Where("card_id = ?", cardID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *pgCardRepository) IncrementScanCount(ctx context.Context, cardID string) (int, error) {
	var count int
	res := r.db.WithContext(ctx).Raw(
		"UPDATE cards SET scan_count = COALESCE(scan_count, 0) + 1, updated_at = NOW() "+
			"WHERE card_id = ? AND status <> ? RETURNING scan_count",
		cardID, model.CardStatusDeleted,
	).Scan(&count)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return count, nil
}

func (r *pgCardRepository) CreateBatch(ctx context.Context, cards []model.Card) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&cards).Error
	})
}

func (r *pgCardRepository) ListCardIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Card{}).Pluck("card_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
