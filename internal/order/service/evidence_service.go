package service

import (
	"context"
	"fmt"
	"time"

	"swiftparcel/internal/domain"
	apperrors "swiftparcel/internal/errors"

	"go.uber.org/zap"
)

// PhotoStorage is the external blob store. Store must only return once the
// bytes are durable; the returned reference is what gets committed to the
// order.
type PhotoStorage interface {
	Store(ctx context.Context, orderID string, slot domain.EvidenceSlot, photo []byte) (string, error)
}

type EvidenceRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	CommitEvidence(ctx context.Context, id string, slot domain.EvidenceSlot, ref string, now time.Time) error
}

// EvidenceService fills evidence slots in two phases: upload the bytes to
// storage, then commit the returned reference against the order. A crash or
// failure between the phases leaves the slot empty and the whole operation
// retryable; success is never reported without a committed reference.
type EvidenceService struct {
	storage PhotoStorage
	repo    EvidenceRepository
	logger  *zap.Logger
}

func NewEvidenceService(storage PhotoStorage, repo EvidenceRepository, logger *zap.Logger) *EvidenceService {
	return &EvidenceService{
		storage: storage,
		repo:    repo,
		logger:  logger,
	}
}

// CanAdvance reports whether the evidence required to enter target is
// present.
func CanAdvance(order *domain.Order, target domain.Status) bool {
	slot, required := domain.RequiredEvidence(target)
	if !required {
		return true
	}
	return order.Evidence(slot) != nil
}

// Record uploads a photo into a slot. Re-recording a slot replaces the
// previous photo.
func (s *EvidenceService) Record(ctx context.Context, orderID string, slot domain.EvidenceSlot, photo []byte) (*domain.EvidencePhoto, error) {
	if !domain.ValidEvidenceSlot(slot) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown evidence slot %q", slot),
			apperrors.ValidationDetail{Field: "slot", Message: "must be item, pickup or dropoff"})
	}
	if len(photo) == 0 {
		return nil, apperrors.NewValidationError("photo is empty",
			apperrors.ValidationDetail{Field: "photo", Message: "must not be empty"})
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("order %s is %s; evidence can no longer change", orderID, order.Status))
	}

	ref, err := s.storage.Store(ctx, orderID, slot, photo)
	if err != nil {
		if _, ok := apperrors.IsTransientError(err); ok {
			return nil, err
		}
		return nil, apperrors.NewTransientError("storing evidence photo", err)
	}

	now := time.Now().UTC()
	if err := s.repo.CommitEvidence(ctx, orderID, slot, ref, now); err != nil {
		// The bytes are stored but the slot is still empty; the caller
		// retries the whole upload.
		s.logger.Warn("evidence commit failed after upload",
			zap.String("orderId", orderID),
			zap.String("slot", string(slot)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("evidence recorded",
		zap.String("orderId", orderID),
		zap.String("slot", string(slot)))

	return &domain.EvidencePhoto{Ref: ref, UploadedAt: now}, nil
}
