package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carebook/config"
	"carebook/cron"
	"carebook/database"
	listingRepo "carebook/database/repository/listing"
	transactionRepo "carebook/database/repository/transaction"
	"carebook/handlers"
	"carebook/middleware"
	"carebook/routes"
	"carebook/services/availability"
	"carebook/services/booking"
	"carebook/services/cancellation"
	"carebook/services/ledger"
	"carebook/services/payment"
	"carebook/services/refund"
	"carebook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	engineCfg, err := config.NewEngineConfig(config.AppConfig)
	if err != nil {
		logger.Fatal("main: invalid engine configuration", zap.Error(err))
	}

	database.InitDB()
	lockClient := utils.GetLockClient()
	stripe.Key = config.AppConfig.StripeKey

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLoggerMiddleware())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	// repositories.
	setupCtx, setupCancel := context.WithTimeout(context.Background(), 15*time.Second)
	txRepo := transactionRepo.NewMongoTransactionRepo(database.DB(), engineCfg)
	lstRepo := listingRepo.NewMongoListingRepo(database.DB())
	if err := txRepo.EnsureIndexes(setupCtx); err != nil {
		logger.Fatal("main: transaction indexes", zap.Error(err))
	}
	if err := lstRepo.EnsureIndexes(setupCtx); err != nil {
		logger.Fatal("main: listing indexes", zap.Error(err))
	}
	setupCancel()

	// services.
	guard := availability.NewGuard(lstRepo, utils.NewRedisLocker(lockClient), engineCfg, logger)
	refundEngine := refund.NewEngine(engineCfg, payment.NewStripeGateway(logger), logger)
	ledgerService := ledger.NewLedgerService(txRepo, engineCfg, logger)
	cancellationService := cancellation.NewCancellationService(txRepo, refundEngine, availability.NewPruner(guard), engineCfg, logger)
	bookingService := booking.NewBookingService(txRepo, guard, engineCfg, logger)

	taskClient := asynq.NewClient(cron.RedisOpt())
	worker := cron.InitLedgerWorker(ledgerService, logger)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	utils.StartHealthMonitor(monitorCtx, lockClient, database.MongoClient, 30*time.Second)

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(bookingService),
		handlers.NewCancellationHandler(cancellationService),
		handlers.NewLedgerHandler(taskClient),
	)
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}

	// Let in-flight listing prunes finish before the stores go away.
	cancellationService.Wait()
	worker.Shutdown()
	if err := taskClient.Close(); err != nil {
		logger.Warn("main: closing task client", zap.Error(err))
	}
	stopMonitor()
	if err := lockClient.Close(); err != nil {
		logger.Warn("main: closing lock client", zap.Error(err))
	}
	if err := database.CloseDB(ctx); err != nil {
		logger.Warn("main: closing database", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
