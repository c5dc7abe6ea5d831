package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"swiftparcel/internal/order/controller"
	"swiftparcel/internal/tracking"
)

func NewRouter(orders *controller.OrderController, track *tracking.Controller, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/fares/estimate", orders.EstimateFare)
		r.Post("/coupons/validate", orders.ValidateCoupon)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orders.CreateOrder)
			r.Post("/{orderId}/claim", orders.ClaimOrder)
			r.Post("/{orderId}/status", orders.AdvanceStatus)
			r.Post("/{orderId}/evidence/{slot}", orders.UploadEvidence)
			r.Get("/{orderId}/location", track.GetDriverLocation)
			r.Put("/{orderId}/location", track.PublishDriverLocation)
		})

		// Public, keyed by the shareable code rather than the order id.
		r.Get("/track/{code}", track.GetTrackingSnapshot)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
