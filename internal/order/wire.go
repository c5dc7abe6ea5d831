package order

import (
	"database/sql"

	"go.uber.org/zap"

	"swiftparcel/internal/config"
	"swiftparcel/internal/order/controller"
	"swiftparcel/internal/order/repository"
	"swiftparcel/internal/order/service"
	"swiftparcel/internal/order/usecase"
	"swiftparcel/internal/pricing"
)

func NewModule(db *sql.DB, cfg *config.Config, photos service.PhotoStorage, logger *zap.Logger) *controller.OrderController {
	orderRepo := repository.NewMySQLOrderRepository(db)
	couponRepo := repository.NewMySQLCouponRepository(db)

	engine := pricing.NewEngine(cfg.Pricing)
	resolver := pricing.NewResolver(couponRepo, cfg.Pricing.GSTBps)

	lifecycleSvc := service.NewLifecycleService(orderRepo, service.NopNotifier{}, logger, cfg.Order.PendingTTL)
	evidenceSvc := service.NewEvidenceService(photos, orderRepo, logger)

	createOrder := usecase.NewCreateOrderUseCase(
		engine,
		resolver,
		couponRepo,
		orderRepo,
		logger,
		cfg.Order.CodePrefix,
	)

	return controller.NewOrderController(engine, resolver, createOrder, lifecycleSvc, evidenceSvc, logger)
}
