package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swiftparcel/internal/domain"
	apperrors "swiftparcel/internal/errors"
)

type FareEstimator interface {
	QuoteStops(pickup, dropoff domain.Coordinate, size domain.PackageSize) (domain.FareSnapshot, error)
}

type CouponResolver interface {
	Apply(ctx context.Context, code, userID string, fare domain.FareSnapshot) (domain.FareSnapshot, *domain.CouponSnapshot, error)
}

type CouponRedeemer interface {
	IncrementRedemption(ctx context.Context, code, userID string) error
}

type OrderWriter interface {
	Insert(ctx context.Context, order *domain.Order) error
}

type CreateOrderInput struct {
	CustomerID   string
	Pickup       domain.Stop
	Dropoff      domain.Stop
	Package      domain.Package
	ItemPhotoRef string
	CouponCode   string
}

// CreateOrderUseCase books an order: it computes the fare, applies any
// coupon, and persists the order with both snapshots frozen. The fare on the
// order row is never recomputed afterwards, whatever happens to rates.
type CreateOrderUseCase struct {
	estimator  FareEstimator
	resolver   CouponResolver
	redeemer   CouponRedeemer
	orders     OrderWriter
	logger     *zap.Logger
	codePrefix string
}

func NewCreateOrderUseCase(
	estimator FareEstimator,
	resolver CouponResolver,
	redeemer CouponRedeemer,
	orders OrderWriter,
	logger *zap.Logger,
	codePrefix string,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		estimator:  estimator,
		resolver:   resolver,
		redeemer:   redeemer,
		orders:     orders,
		logger:     logger,
		codePrefix: codePrefix,
	}
}

func (uc *CreateOrderUseCase) Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	fare, err := uc.estimator.QuoteStops(input.Pickup.Coordinate, input.Dropoff.Coordinate, input.Package.Size)
	if err != nil {
		return nil, err
	}

	var coupon *domain.CouponSnapshot
	if input.CouponCode != "" {
		fare, coupon, err = uc.resolver.Apply(ctx, input.CouponCode, input.CustomerID, fare)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:            uuid.New().String(),
		Code:          newOrderCode(uc.codePrefix),
		CustomerID:    input.CustomerID,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentUnpaid,
		Pickup:        input.Pickup,
		Dropoff:       input.Dropoff,
		Package:       input.Package,
		Pricing:       fare,
		Coupon:        coupon,
		Timeline:      domain.Timeline{CreatedAt: now},
		UpdatedAt:     now,
	}
	order.Package.Photo = &domain.EvidencePhoto{Ref: input.ItemPhotoRef, UploadedAt: now}

	if err := uc.orders.Insert(ctx, order); err != nil {
		return nil, err
	}

	uc.logger.Info("order created",
		zap.String("orderId", order.ID),
		zap.String("code", order.Code),
		zap.Int64("total", order.Pricing.Total))

	// The order is durable; only now does the coupon count as redeemed. A
	// failure here loses one usage count, never an order.
	if coupon != nil {
		if err := uc.redeemer.IncrementRedemption(ctx, coupon.Code, input.CustomerID); err != nil {
			uc.logger.Warn("recording coupon redemption failed",
				zap.String("orderId", order.ID),
				zap.String("coupon", coupon.Code),
				zap.Error(err))
		}
	}

	return order, nil
}

func validateInput(input CreateOrderInput) error {
	var details []apperrors.ValidationDetail
	if input.CustomerID == "" {
		details = append(details, apperrors.ValidationDetail{Field: "customerId", Message: "must not be empty"})
	}
	if input.Pickup.Address == "" {
		details = append(details, apperrors.ValidationDetail{Field: "pickup.address", Message: "must not be empty"})
	}
	if input.Dropoff.Address == "" {
		details = append(details, apperrors.ValidationDetail{Field: "dropoff.address", Message: "must not be empty"})
	}
	if !domain.ValidPackageSize(input.Package.Size) {
		details = append(details, apperrors.ValidationDetail{Field: "package.size", Message: "must be one of XS, S, M, L"})
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid order request", details...)
	}

	// The item photo is taken at booking; an order cannot exist without it.
	if input.ItemPhotoRef == "" {
		return apperrors.NewPreconditionError("an item photo is required to create an order", string(domain.SlotItem))
	}

	return nil
}

// newOrderCode mints the human-shareable code printed on labels and used by
// the public tracking page.
func newOrderCode(prefix string) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return prefix + "-" + raw[:8]
}
