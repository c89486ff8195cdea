package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"papir/backend/internal/model"
	"papir/backend/internal/storage"
)

// minMediaBytes guards against base64 handling bugs on the client: a real
// photo or audio clip is never this small.
const minMediaBytes = 100

type UploadInput struct {
	CardID   string
	FileName string
	FileType string
	// FileData is base64, with or without a data-URL prefix.
	FileData string
}

type UploadResult struct {
	URL      string
	FileName string
	FileSize int64
	FileType string
}

type MediaService interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
}

type mediaService struct {
	media    storage.MediaStore
	maxBytes int64
	logger   *zap.Logger
}

func NewMediaService(media storage.MediaStore, maxSizeMB int, logger *zap.Logger) MediaService {
	return &mediaService{
		media:    media,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
		logger:   logger,
	}
}

func (s *mediaService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	cardID := model.NormalizeCardID(in.CardID)
	if cardID == "" {
		return nil, fmt.Errorf("%w: cardId is required", ErrValidation)
	}
	if strings.TrimSpace(in.FileName) == "" {
		return nil, fmt.Errorf("%w: fileName is required", ErrValidation)
	}
	if strings.TrimSpace(in.FileData) == "" {
		return nil, fmt.Errorf("%w: fileData is required", ErrValidation)
	}

	data, err := decodeBase64Payload(in.FileData)
	if err != nil {
		return nil, fmt.Errorf("%w: fileData is not valid base64", ErrValidation)
	}
	if len(data) < minMediaBytes {
		return nil, fmt.Errorf("%w: decoded payload is %d bytes, below the %d byte minimum",
			ErrValidation, len(data), minMediaBytes)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: decoded payload exceeds %d bytes", ErrValidation, s.maxBytes)
	}

	url, err := s.media.Put(ctx, cardID, in.FileName, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	s.logger.Info("media uploaded",
		zap.String("card_id", cardID),
		zap.String("file_name", in.FileName),
		zap.Int("size", len(data)))

	return &UploadResult{
		URL:      url,
		FileName: in.FileName,
		FileSize: int64(len(data)),
		FileType: in.FileType,
	}, nil
}

// decodeBase64Payload accepts raw base64 or a browser data URL
// ("data:image/jpeg;base64,...").
func decodeBase64Payload(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, "base64,"); idx >= 0 {
			payload = payload[idx+len("base64,"):]
		}
	}
	return base64.StdEncoding.DecodeString(payload)
}
