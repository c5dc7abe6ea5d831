package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"swiftparcel/internal/domain"
	"swiftparcel/internal/dto"
	apperrors "swiftparcel/internal/errors"
	"swiftparcel/internal/order/usecase"
)

// 8 MiB is plenty for a compressed evidence photo.
const maxPhotoBytes = 8 << 20

type FareEstimator interface {
	QuoteStops(pickup, dropoff domain.Coordinate, size domain.PackageSize) (domain.FareSnapshot, error)
}

type CouponResolver interface {
	Apply(ctx context.Context, code, userID string, fare domain.FareSnapshot) (domain.FareSnapshot, *domain.CouponSnapshot, error)
}

type OrderCreator interface {
	Create(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error)
}

type Lifecycle interface {
	Claim(ctx context.Context, orderID string, driver domain.Driver) (*domain.Order, error)
	Advance(ctx context.Context, orderID string, target domain.Status, adminOverride bool) (*domain.Order, error)
}

type EvidenceRecorder interface {
	Record(ctx context.Context, orderID string, slot domain.EvidenceSlot, photo []byte) (*domain.EvidencePhoto, error)
}

type OrderController struct {
	estimator FareEstimator
	resolver  CouponResolver
	creator   OrderCreator
	lifecycle Lifecycle
	evidence  EvidenceRecorder
	logger    *zap.Logger
}

func NewOrderController(
	estimator FareEstimator,
	resolver CouponResolver,
	creator OrderCreator,
	lifecycle Lifecycle,
	evidence EvidenceRecorder,
	logger *zap.Logger,
) *OrderController {
	return &OrderController{
		estimator: estimator,
		resolver:  resolver,
		creator:   creator,
		lifecycle: lifecycle,
		evidence:  evidence,
		logger:    logger,
	}
}

func (c *OrderController) EstimateFare(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	var req dto.EstimateFareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, traceID, apperrors.NewValidationError("invalid JSON body"))
		return
	}

	fare, err := c.estimator.QuoteStops(req.Pickup, req.Dropoff, domain.PackageSize(req.PackageSize))
	if err != nil {
		c.writeError(w, traceID, err)
		return
	}

	writeJSON(w, http.StatusOK, fare)
}

func (c *OrderController) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	var req dto.ValidateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, traceID, apperrors.NewValidationError("invalid JSON body"))
		return
	}

	fare, snapshot, err := c.resolver.Apply(r.Context(), req.Code, req.CustomerID, req.Fare)
	if err != nil {
		c.writeError(w, traceID, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CouponValidationResponse{
		Code:     snapshot.Code,
		Discount: snapshot.Discount,
		NewTotal: fare.Total,
		Fare:     fare,
	})
}

func (c *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeError(w, traceID, apperrors.NewValidationError("invalid JSON body"))
		return
	}

	order, err := c.creator.Create(r.Context(), usecase.CreateOrderInput{
		CustomerID:   req.CustomerID,
		Pickup:       req.Pickup.ToDomain(),
		Dropoff:      req.Dropoff.ToDomain(),
		Package:      req.Package.ToDomain(),
		ItemPhotoRef: req.ItemPhotoRef,
		CouponCode:   req.CouponCode,
	})
	if err != nil {
		c.writeError(w, traceID, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewOrderResponse(order))
}

func (c *OrderController) ClaimOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")

	var req dto.ClaimOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, traceID, apperrors.NewValidationError("invalid JSON body"))
		return
	}

	order, err := c.lifecycle.Claim(r.Context(), orderID, domain.Driver{
		ID:    req.DriverID,
		Name:  req.DriverName,
		Phone: req.DriverPhone,
	})
	if err != nil {
		c.writeError(w, traceID, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

func (c *OrderController) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")

	var req dto.AdvanceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, traceID, apperrors.NewValidationError("invalid JSON body"))
		return
	}

	order, err := c.lifecycle.Advance(r.Context(), orderID, domain.Status(req.Target), req.AdminOverride)
	if err != nil {
		c.writeError(w, traceID, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

func (c *OrderController) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")
	slot := domain.EvidenceSlot(chi.URLParam(r, "slot"))

	photo, err := io.ReadAll(io.LimitReader(r.Body, maxPhotoBytes))
	if err != nil {
		c.writeError(w, traceID, apperrors.NewTransientError("reading photo body", err))
		return
	}

	recorded, err := c.evidence.Record(r.Context(), orderID, slot, photo)
	if err != nil {
		c.writeError(w, traceID, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EvidenceResponse{
		Slot:  string(slot),
		Photo: *recorded,
	})
}

func (c *OrderController) writeError(w http.ResponseWriter, traceID string, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		c.logger.Error("request failed", zap.String("traceId", traceID), zap.Error(err))
	}

	resp := dto.ErrorResponse{
		TraceID: traceID,
		Message: err.Error(),
	}
	if ve, ok := apperrors.IsValidationError(err); ok {
		resp.Details = ve.Details
	}
	if pe, ok := apperrors.IsPreconditionError(err); ok {
		resp.Slot = pe.Slot
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal error"
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
