package tracking

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"swiftparcel/internal/domain"
	"swiftparcel/internal/dto"
	apperrors "swiftparcel/internal/errors"
)

// SnapshotResponse is the payload of the public tracking page: the order
// summary plus whatever live data exists right now.
type SnapshotResponse struct {
	Order  dto.PublicOrderSummary `json:"order"`
	Driver *dto.DriverSummary     `json:"driver,omitempty"`
	View   View                   `json:"view"`
}

type Controller struct {
	finder OrderFinder
	store  Store
	orch   *Orchestrator
	logger *zap.Logger
}

func NewController(finder OrderFinder, store Store, orch *Orchestrator, logger *zap.Logger) *Controller {
	return &Controller{
		finder: finder,
		store:  store,
		orch:   orch,
		logger: logger,
	}
}

// GetTrackingSnapshot serves the public tracking page. It is keyed by the
// shareable order code and requires no authentication, so it exposes only the
// public summary.
func (c *Controller) GetTrackingSnapshot(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	code := chi.URLParam(r, "code")

	order, err := c.finder.FindByCode(r.Context(), code)
	if err != nil {
		c.writeError(w, traceID, err)
		return
	}

	resp := SnapshotResponse{
		Order: dto.NewPublicOrderSummary(order),
		View:  c.orch.Snapshot(r.Context(), order),
	}
	if order.Driver != nil {
		resp.Driver = &dto.DriverSummary{Name: order.Driver.Name}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) GetDriverLocation(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")

	sample, err := c.store.Latest(r.Context(), orderID)
	if err != nil {
		c.writeError(w, traceID, apperrors.NewTransientError("fetching driver location", err))
		return
	}
	if sample == nil {
		// Driver has not shared a location; explicitly not an error.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, sample)
}

func (c *Controller) PublishDriverLocation(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	orderID := chi.URLParam(r, "orderId")

	var req dto.PublishLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, traceID, apperrors.NewValidationError("invalid JSON body"))
		return
	}

	order, err := c.finder.FindByID(r.Context(), orderID)
	if err != nil {
		c.writeError(w, traceID, err)
		return
	}
	if !order.Status.IsActive() {
		c.writeError(w, traceID, apperrors.NewConflictError(
			fmt.Sprintf("order %s is %s; location sharing is closed", orderID, order.Status)))
		return
	}

	sample := domain.LocationSample{
		DriverID:   req.DriverID,
		OrderID:    orderID,
		Coordinate: req.Coordinate,
		Heading:    req.Heading,
		SpeedKMH:   req.SpeedKMH,
		CapturedAt: time.Now().UTC(),
	}
	if err := c.store.Publish(r.Context(), sample); err != nil {
		c.writeError(w, traceID, apperrors.NewTransientError("publishing driver location", err))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (c *Controller) writeError(w http.ResponseWriter, traceID string, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		c.logger.Error("tracking request failed", zap.String("traceId", traceID), zap.Error(err))
	}

	resp := dto.ErrorResponse{TraceID: traceID, Message: err.Error()}
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
