package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"swiftparcel/internal/domain"
	apperrors "swiftparcel/internal/errors"
)

// LocalPhotoStorage writes evidence photos to a directory on disk. The
// returned reference is the relative path under the root, so the root can move
// without invalidating stored references.
type LocalPhotoStorage struct {
	root string
}

func NewLocalPhotoStorage(root string) (*LocalPhotoStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating evidence directory: %w", err)
	}
	return &LocalPhotoStorage{root: root}, nil
}

func (s *LocalPhotoStorage) Store(ctx context.Context, orderID string, slot domain.EvidenceSlot, photo []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, orderID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.NewTransientError("creating order evidence directory", err)
	}

	// Timestamped names so re-recording a slot never clobbers the photo a
	// committed reference points at.
	name := fmt.Sprintf("%s-%d.jpg", slot, time.Now().UTC().UnixNano())
	path := filepath.Join(dir, name)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, photo, 0o644); err != nil {
		return "", apperrors.NewTransientError("writing evidence photo", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", apperrors.NewTransientError("finalizing evidence photo", err)
	}

	return filepath.Join(orderID, name), nil
}
