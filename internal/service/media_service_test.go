package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"papir/backend/internal/storage"
)

func TestUploadStoresDecodedMedia(t *testing.T) {
	root := t.TempDir()
	svc := NewMediaService(storage.NewLocalStore(root, "http://localhost:8080"), 25, zap.NewNop())

	payload := bytes.Repeat([]byte{0x42}, 512)
	result, err := svc.Upload(context.Background(), UploadInput{
		CardID:   "up001",
		FileName: "photo.jpg",
		FileType: "image/jpeg",
		FileData: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.URL != "http://localhost:8080/media/cards/UP001/photo.jpg" {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if result.FileSize != 512 {
		t.Fatalf("expected size 512, got %d", result.FileSize)
	}

	written, err := os.ReadFile(filepath.Join(root, "cards", "UP001", "photo.jpg"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(written, payload) {
		t.Fatal("stored bytes differ from decoded payload")
	}
}

func TestUploadAcceptsBareBase64(t *testing.T) {
	svc := NewMediaService(storage.NewLocalStore(t.TempDir(), "http://localhost:8080"), 25, zap.NewNop())

	payload := bytes.Repeat([]byte{0x01}, 200)
	_, err := svc.Upload(context.Background(), UploadInput{
		CardID:   "UP002",
		FileName: "clip.mp3",
		FileData: base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		t.Fatalf("upload without data-url prefix: %v", err)
	}
}

func TestUploadOverwritesExistingObject(t *testing.T) {
	root := t.TempDir()
	svc := NewMediaService(storage.NewLocalStore(root, "http://localhost:8080"), 25, zap.NewNop())
	ctx := context.Background()

	first := bytes.Repeat([]byte{0x01}, 200)
	second := bytes.Repeat([]byte{0x02}, 300)
	for _, payload := range [][]byte{first, second} {
		_, err := svc.Upload(ctx, UploadInput{
			CardID:   "UP003",
			FileName: "photo.jpg",
			FileData: base64.StdEncoding.EncodeToString(payload),
		})
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
	}

	written, err := os.ReadFile(filepath.Join(root, "cards", "UP003", "photo.jpg"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(written, second) {
		t.Fatal("expected re-upload to overwrite")
	}
}

func TestUploadRejectsTinyPayload(t *testing.T) {
	svc := NewMediaService(storage.NewLocalStore(t.TempDir(), "http://localhost:8080"), 25, zap.NewNop())

	// 50 bytes decoded: under the 100-byte floor that guards against
	// client-side base64 bugs.
	_, err := svc.Upload(context.Background(), UploadInput{
		CardID:   "UP004",
		FileName: "photo.jpg",
		FileData: base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 50)),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUploadRejectsInvalidBase64(t *testing.T) {
	svc := NewMediaService(storage.NewLocalStore(t.TempDir(), "http://localhost:8080"), 25, zap.NewNop())

	_, err := svc.Upload(context.Background(), UploadInput{
		CardID:   "UP005",
		FileName: "photo.jpg",
		FileData: "not!!base64$$data",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUploadRequiresFields(t *testing.T) {
	svc := NewMediaService(storage.NewLocalStore(t.TempDir(), "http://localhost:8080"), 25, zap.NewNop())
	ctx := context.Background()

	cases := []UploadInput{
		{FileName: "a.jpg", FileData: "aGVsbG8="},
		{CardID: "UP006", FileData: "aGVsbG8="},
		{CardID: "UP006", FileName: "a.jpg"},
	}
	for i, in := range cases {
		if _, err := svc.Upload(ctx, in); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}
