package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"papir/backend/internal/model"
	"papir/backend/internal/repository"
)

type fakeMediaStore struct {
	deleted   []string
	deleteErr error
}

func (f *fakeMediaStore) Put(_ context.Context, cardID, fileName string, _ []byte) (string, error) {
	return fmt.Sprintf("http://media.test/media/cards/%s/%s", cardID, fileName), nil
}

func (f *fakeMediaStore) DeleteAll(_ context.Context, cardID string) (int, error) {
	f.deleted = append(f.deleted, cardID)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 1, nil
}

func newTestCardService(repo repository.CardRepository, media *fakeMediaStore, policy CreationPolicy, fixed time.Time) *cardService {
	return &cardService{
		cards:  repo,
		media:  media,
		policy: policy,
		logger: zap.NewNop(),
		now:    func() time.Time { return fixed },
	}
}

func strPtr(s string) *string { return &s }

func TestSaveCreatesActiveCard(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyDirect, fixed)

	card, err := svc.Save(context.Background(), SaveCardInput{
		CardID:      "ABC123",
		MessageType: "text",
		MessageText: strPtr("hi"),
		ClientIP:    "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if card.Status != model.CardStatusActive {
		t.Fatalf("expected active status, got %q", card.Status)
	}
	if card.ScanCount != 0 {
		t.Fatalf("expected scan_count 0, got %d", card.ScanCount)
	}
	if card.MessageText == nil || *card.MessageText != "hi" {
		t.Fatalf("expected message text hi, got %v", card.MessageText)
	}
	if card.CreatedByIP != "203.0.113.7" || card.UpdatedByIP != "203.0.113.7" {
		t.Fatalf("expected audit IPs stamped, got %q/%q", card.CreatedByIP, card.UpdatedByIP)
	}
	if card.ActivatedAt == nil || !card.ActivatedAt.Equal(fixed) {
		t.Fatalf("expected activated_at %v, got %v", fixed, card.ActivatedAt)
	}
}

func TestSaveNormalizesCardID(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyDirect, fixed)

	card, err := svc.Save(context.Background(), SaveCardInput{CardID: "  abc123 ", MessageType: "text"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if card.CardID != "ABC123" {
		t.Fatalf("expected normalized card id ABC123, got %q", card.CardID)
	}

	got, err := svc.Get(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("get with lower-case id: %v", err)
	}
	if got.CardID != "ABC123" {
		t.Fatalf("expected ABC123, got %q", got.CardID)
	}
}

func TestSaveTwiceUpdatesInPlace(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyDirect, fixed)
	ctx := context.Background()

	_, err := svc.Save(ctx, SaveCardInput{
		CardID:      "TWICE01",
		MessageType: "text",
		MessageText: strPtr("first"),
		MediaURL:    strPtr("http://media.test/media/cards/TWICE01/a.jpg"),
	})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}

	card, err := svc.Save(ctx, SaveCardInput{
		CardID:      "TWICE01",
		MessageType: "text",
		MessageText: strPtr("second"),
	})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if card.MessageText == nil || *card.MessageText != "second" {
		t.Fatalf("expected message text second, got %v", card.MessageText)
	}
	// Omitted fields survive the partial update.
	if card.MediaURL == nil || *card.MediaURL != "http://media.test/media/cards/TWICE01/a.jpg" {
		t.Fatalf("expected media_url preserved, got %v", card.MediaURL)
	}

	cards, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected one row after two saves, got %d", len(cards))
	}
}

func TestSaveValidation(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyDirect, fixed)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveCardInput{MessageType: "text"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing card_id, got %v", err)
	}
	if _, err := svc.Save(ctx, SaveCardInput{CardID: "NOMSG"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing message_type, got %v", err)
	}
}

// raceCreateRepo simulates the save/save race: the existence check sees
// "absent" but the insert loses to a concurrent writer.
type raceCreateRepo struct {
	repository.CardRepository
}

func (r *raceCreateRepo) GetByCardID(context.Context, string) (*model.Card, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *raceCreateRepo) Create(context.Context, *model.Card) error {
	return gorm.ErrDuplicatedKey
}

func TestSaveSurfacesDuplicateOnInsertRace(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := &raceCreateRepo{CardRepository: repository.NewMemoryCardRepository()}
	svc := newTestCardService(repo, &fakeMediaStore{}, PolicyDirect, fixed)

	_, err := svc.Save(context.Background(), SaveCardInput{CardID: "RACE01", MessageType: "text"})
	if !errors.Is(err, ErrCardAlreadyExists) {
		t.Fatalf("expected ErrCardAlreadyExists, got %v", err)
	}
}

func TestSavePhysicalCreatesPendingCard(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyPhysical, fixed)

	card, err := svc.Save(context.Background(), SaveCardInput{CardID: "PHYS01"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if card.Status != model.CardStatusPending {
		t.Fatalf("expected pending status, got %q", card.Status)
	}
	if card.MessageType != model.MessageTypePlaceholder {
		t.Fatalf("expected placeholder message type, got %q", card.MessageType)
	}
	if card.ActivatedAt != nil {
		t.Fatalf("pending card must not carry activation stamp, got %v", card.ActivatedAt)
	}
}

func TestSaveOnPendingCardRequiresActivation(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyPhysical, fixed)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveCardInput{CardID: "PHYS02"}); err != nil {
		t.Fatalf("initial save: %v", err)
	}
	_, err := svc.Save(ctx, SaveCardInput{CardID: "PHYS02", MessageType: "text", MessageText: strPtr("hi")})
	if !errors.Is(err, ErrCardNotActivated) {
		t.Fatalf("expected ErrCardNotActivated, got %v", err)
	}
}

func TestActivateTransitionsPendingToActive(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyPhysical, fixed)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveCardInput{CardID: "PHYS03"}); err != nil {
		t.Fatalf("seed pending card: %v", err)
	}

	card, err := svc.Activate(ctx, "phys03", "198.51.100.4")
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if card.Status != model.CardStatusActive {
		t.Fatalf("expected active, got %q", card.Status)
	}
	if card.ActivatedAt == nil || !card.ActivatedAt.Equal(fixed) {
		t.Fatalf("expected activated_at %v, got %v", fixed, card.ActivatedAt)
	}
	if card.ActivatedByIP == nil || *card.ActivatedByIP != "198.51.100.4" {
		t.Fatalf("expected activated_by_ip stamped, got %v", card.ActivatedByIP)
	}
	if card.TermsAcceptedAt == nil || !card.TermsAcceptedAt.Equal(fixed) {
		t.Fatalf("expected terms_accepted_at stamped with activation, got %v", card.TermsAcceptedAt)
	}

	// Content saves are accepted after activation.
	if _, err := svc.Save(ctx, SaveCardInput{CardID: "PHYS03", MessageType: "text", MessageText: strPtr("hi")}); err != nil {
		t.Fatalf("save after activation: %v", err)
	}
}

func TestActivateOnActiveCardFailsUnchanged(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyDirect, fixed)
	ctx := context.Background()

	before, err := svc.Save(ctx, SaveCardInput{CardID: "ACT01", MessageType: "text"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := svc.Activate(ctx, "ACT01", "198.51.100.4"); !errors.Is(err, ErrCardAlreadyActivated) {
		t.Fatalf("expected ErrCardAlreadyActivated, got %v", err)
	}

	after, err := svc.Get(ctx, "ACT01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("failed activation must leave the row unchanged: %v != %v", after.UpdatedAt, before.UpdatedAt)
	}
}

func TestActivateUnknownCard(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyPhysical, fixed)

	if _, err := svc.Activate(context.Background(), "NOPE", "ip"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestDeleteHidesCardAndPurgesMedia(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	media := &fakeMediaStore{}
	svc := newTestCardService(repository.NewMemoryCardRepository(), media, PolicyDirect, fixed)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveCardInput{CardID: "DEL01", MessageType: "text"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	result, err := svc.Delete(ctx, "DEL01", "203.0.113.9")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !result.RecordDeleted || !result.MediaDeleted {
		t.Fatalf("expected record and media deleted, got %+v", result)
	}
	if len(media.deleted) != 1 || media.deleted[0] != "DEL01" {
		t.Fatalf("expected media purge for DEL01, got %v", media.deleted)
	}

	if _, err := svc.Get(ctx, "DEL01"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound after delete, got %v", err)
	}
	cards, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cards) != 0 {
		t.Fatalf("expected deleted card excluded from list, got %d rows", len(cards))
	}
}

func TestDeleteSucceedsWhenMediaCleanupFails(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	media := &fakeMediaStore{deleteErr: errors.New("bucket offline")}
	svc := newTestCardService(repository.NewMemoryCardRepository(), media, PolicyDirect, fixed)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveCardInput{CardID: "DEL02", MessageType: "text"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	result, err := svc.Delete(ctx, "DEL02", "ip")
	if err != nil {
		t.Fatalf("delete must not propagate media failure: %v", err)
	}
	if !result.RecordDeleted {
		t.Fatal("expected record deleted")
	}
	if result.MediaDeleted || result.MediaError == "" {
		t.Fatalf("expected media failure reported, got %+v", result)
	}
	if _, err := svc.Get(ctx, "DEL02"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected card gone despite media failure, got %v", err)
	}
}

func TestDeletedCardIDIsNotReusable(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyDirect, fixed)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveCardInput{CardID: "DEL03", MessageType: "text"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Delete(ctx, "DEL03", "ip"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Save(ctx, SaveCardInput{CardID: "DEL03", MessageType: "text"}); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound for deleted id, got %v", err)
	}
}

// Scan counting is advisory and incremented store-side; sequential calls
// must count exactly.
func TestIncrementScanCountSequential(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyDirect, fixed)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveCardInput{CardID: "SCAN01", MessageType: "text"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var count int
	var err error
	for i := 0; i < 5; i++ {
		count, err = svc.IncrementScanCount(ctx, "SCAN01")
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	if count != 5 {
		t.Fatalf("expected scan count 5, got %d", count)
	}
}

func TestIncrementScanCountUnknownCard(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := newTestCardService(repository.NewMemoryCardRepository(), &fakeMediaStore{}, PolicyDirect, fixed)

	if _, err := svc.IncrementScanCount(context.Background(), "NOPE"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := repository.NewMemoryCardRepository()
	media := &fakeMediaStore{}
	t1 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	ctx := context.Background()

	svc := newTestCardService(repo, media, PolicyDirect, t1)
	if _, err := svc.Save(ctx, SaveCardInput{CardID: "OLD1", MessageType: "text"}); err != nil {
		t.Fatalf("save old: %v", err)
	}
	svc.now = func() time.Time { return t2 }
	if _, err := svc.Save(ctx, SaveCardInput{CardID: "NEW1", MessageType: "text"}); err != nil {
		t.Fatalf("save new: %v", err)
	}

	cards, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cards) != 2 || cards[0].CardID != "NEW1" {
		t.Fatalf("expected NEW1 first, got %v", cards)
	}
}
