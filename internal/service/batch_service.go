package service

import (
	"context"
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"papir/backend/internal/model"
	"papir/backend/internal/repository"
	"papir/backend/pkg/cardlink"
)

// attemptFactor bounds the collision-retry loop at attemptFactor * count
// draws. At the default 8-character base-36 ID space collisions are
// birthday-paradox rare, so running out means the alphabet or length is
// misconfigured, not bad luck.
const attemptFactor = 10

type BatchConfig struct {
	IDLength      int
	IDAlphabet    string
	ViewerBaseURL string
	ManifestDir   string
	QRCodes       bool
}

type BatchResult struct {
	CardIDs      []string
	ManifestPath string
	QRCodeDir    string
}

// BatchService generates collision-free card IDs against the existing store
// population, inserts them as pending cards, and emits a manufacturing
// manifest. The store's unique constraint is the only synchronization point
// between concurrent generator runs; a losing run fails wholesale.
type BatchService interface {
	Generate(ctx context.Context, count int) (*BatchResult, error)
}

type batchService struct {
	cards  repository.CardRepository
	cfg    BatchConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewBatchService(cards repository.CardRepository, cfg BatchConfig, logger *zap.Logger) BatchService {
	return &batchService{
		cards:  cards,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *batchService) Generate(ctx context.Context, count int) (*BatchResult, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: batch count must be positive", ErrValidation)
	}

	// 1. Snapshot the existing ID population.
	existing, err := s.cards.ListCardIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	taken := make(map[string]struct{}, len(existing)+count)
	for _, id := range existing {
		taken[id] = struct{}{}
	}

	// 2. Draw candidates until the batch is full or the budget runs out.
	ids := make([]string, 0, count)
	budget := count * attemptFactor
	for attempts := 0; len(ids) < count; attempts++ {
		if attempts >= budget {
			return nil, fmt.Errorf("%w: %d/%d after %d attempts",
				ErrBatchAttemptsExhausted, len(ids), count, attempts)
		}
		id, err := s.randomCardID()
		if err != nil {
			return nil, fmt.Errorf("draw card id: %w", err)
		}
		if _, collision := taken[id]; collision {
			continue
		}
		taken[id] = struct{}{}
		ids = append(ids, id)
	}

	// 3. Insert all pending rows in one shot; no partial batches.
	now := s.now()
	cards := make([]model.Card, 0, count)
	for _, id := range ids {
		cards = append(cards, model.Card{
			CardID:      id,
			Status:      model.CardStatusPending,
			MessageType: model.MessageTypePlaceholder,
			ScanCount:   0,
			CreatedAt:   now,
			UpdatedAt:   now,
			CreatedByIP: "generator",
			UpdatedByIP: "generator",
		})
	}
	if err := s.cards.CreateBatch(ctx, cards); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent generator run won the race on one of our IDs.
			return nil, fmt.Errorf("%w: %v", ErrBatchInsertFailed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// 4. Only a confirmed insert produces a manifest.
	result := &BatchResult{CardIDs: ids}
	result.ManifestPath, err = s.writeManifest(ids, now)
	if err != nil {
		// The rows are committed at this point; surface the error so the
		// operator can re-derive the manifest instead of reprinting.
		return nil, fmt.Errorf("cards inserted but manifest failed: %w", err)
	}
	if s.cfg.QRCodes {
		result.QRCodeDir = s.writeQRCodes(ids, now)
	}

	s.logger.Info("batch generated",
		zap.Int("count", len(ids)),
		zap.String("manifest", result.ManifestPath))
	return result, nil
}

func (s *batchService) randomCardID() (string, error) {
	b := make([]byte, s.cfg.IDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, s.cfg.IDLength)
	for i, v := range b {
		out[i] = s.cfg.IDAlphabet[int(v)%len(s.cfg.IDAlphabet)]
	}
	return string(out), nil
}

func (s *batchService) writeManifest(ids []string, stamp time.Time) (string, error) {
	if err := os.MkdirAll(s.cfg.ManifestDir, 0o755); err != nil {
		return "", fmt.Errorf("create manifest dir: %w", err)
	}

	path := filepath.Join(s.cfg.ManifestDir, s.batchName(stamp)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Card ID", "QR URL"}); err != nil {
		return "", fmt.Errorf("write manifest header: %w", err)
	}
	for _, id := range ids {
		if err := w.Write([]string{id, cardlink.ViewerURL(s.cfg.ViewerBaseURL, id)}); err != nil {
			return "", fmt.Errorf("write manifest row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush manifest: %w", err)
	}
	return path, nil
}

// writeQRCodes emits one PNG per card next to the manifest. PNG failures
// are logged and skipped; the CSV is the manufacturing contract.
func (s *batchService) writeQRCodes(ids []string, stamp time.Time) string {
	dir := filepath.Join(s.cfg.ManifestDir, s.batchName(stamp)+"-qr")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("create qr dir failed", zap.Error(err))
		return ""
	}
	for _, id := range ids {
		url := cardlink.ViewerURL(s.cfg.ViewerBaseURL, id)
		path := filepath.Join(dir, id+".png")
		if err := qrcode.WriteFile(url, qrcode.Medium, 256, path); err != nil {
			s.logger.Warn("write qr png failed",
				zap.String("card_id", id), zap.Error(err))
		}
	}
	return dir
}

func (s *batchService) batchName(stamp time.Time) string {
	return "batch-" + stamp.Format("20060102-150405")
}
