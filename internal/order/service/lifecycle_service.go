package service

import (
	"context"
	"fmt"
	"time"

	"swiftparcel/internal/domain"
	apperrors "swiftparcel/internal/errors"

	"go.uber.org/zap"
)

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	Claim(ctx context.Context, id string, driver domain.Driver, claimableAfter time.Time, now time.Time) error
	UpdateStatus(ctx context.Context, id string, from, to domain.Status, now time.Time) error
}

// Notifier forwards status changes to the external push-notification service.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order *domain.Order)
}

// NopNotifier is used when no push channel is configured.
type NopNotifier struct{}

func (NopNotifier) OrderStatusChanged(context.Context, *domain.Order) {}

// LifecycleService owns the order status progression. Its accepted transition
// order is the single source of truth; every stamp it writes is
// server-observed time, never a client clock.
type LifecycleService struct {
	repo       OrderRepository
	notifier   Notifier
	logger     *zap.Logger
	pendingTTL time.Duration
}

func NewLifecycleService(repo OrderRepository, notifier Notifier, logger *zap.Logger, pendingTTL time.Duration) *LifecycleService {
	return &LifecycleService{
		repo:       repo,
		notifier:   notifier,
		logger:     logger,
		pendingTTL: pendingTTL,
	}
}

// Claim makes the driver the assigned driver of a pending order. Exactly one
// of any number of concurrent claims on the same order succeeds; losers get a
// ConflictError and must pick another order.
func (s *LifecycleService) Claim(ctx context.Context, orderID string, driver domain.Driver) (*domain.Order, error) {
	if driver.ID == "" {
		return nil, apperrors.NewValidationError("driver id is required",
			apperrors.ValidationDetail{Field: "driverId", Message: "must not be empty"})
	}

	now := time.Now().UTC()
	var claimableAfter time.Time
	if s.pendingTTL > 0 {
		claimableAfter = now.Add(-s.pendingTTL)
	}

	err := s.repo.Claim(ctx, orderID, driver, claimableAfter, now)
	if err != nil {
		if _, ok := apperrors.IsConflictError(err); !ok {
			return nil, err
		}
		// Distinguish why the claim missed: gone, expired, or raced.
		order, findErr := s.repo.FindByID(ctx, orderID)
		if findErr != nil {
			return nil, findErr
		}
		if order.Status == domain.StatusPending {
			return nil, apperrors.NewConflictError(fmt.Sprintf("order %s is no longer claimable", orderID))
		}
		return nil, apperrors.NewConflictError(fmt.Sprintf("order %s is already assigned", orderID))
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order claimed",
		zap.String("orderId", orderID),
		zap.String("driverId", driver.ID))
	s.notifier.OrderStatusChanged(ctx, order)

	return order, nil
}

// Advance moves an order to the target status, enforcing the transition graph
// and the evidence guards. A target equal to the current status is a no-op,
// not an error. A conflict from the guarded update is returned as-is: the
// caller must re-fetch authoritative state, never retry blindly.
func (s *LifecycleService) Advance(ctx context.Context, orderID string, target domain.Status, adminOverride bool) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == target {
		return order, nil
	}

	if target == domain.StatusAssigned {
		return nil, apperrors.NewValidationError("orders are assigned by claiming, not by advancing status",
			apperrors.ValidationDetail{Field: "target", Message: "use the claim operation"})
	}

	if !domain.CanTransition(order.Status, target) {
		return nil, apperrors.NewPreconditionError(
			fmt.Sprintf("cannot advance order from %s to %s", order.Status, target), "")
	}

	if target == domain.StatusCancelled && order.Status.IsActive() && !adminOverride {
		return nil, apperrors.NewPreconditionError(
			"cancelling an active order requires administrative override", "")
	}

	if slot, required := domain.RequiredEvidence(target); required {
		if order.Evidence(slot) == nil {
			return nil, apperrors.NewPreconditionError(
				fmt.Sprintf("advancing to %s requires %s evidence", target, slot), string(slot))
		}
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, order.ID, order.Status, target, now); err != nil {
		return nil, err
	}

	if err := domain.ApplyTransition(order, target, now); err != nil {
		return nil, apperrors.NewInternalError("applying accepted transition", err)
	}
	order.UpdatedAt = now

	s.logger.Info("order status advanced",
		zap.String("orderId", order.ID),
		zap.String("status", string(target)))
	s.notifier.OrderStatusChanged(ctx, order)

	return order, nil
}
