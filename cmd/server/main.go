package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pba-bank/backoffice/internal/config"
	"github.com/pba-bank/backoffice/internal/db"
	"github.com/pba-bank/backoffice/internal/domain"
	"github.com/pba-bank/backoffice/internal/events"
	"github.com/pba-bank/backoffice/internal/gateway"
	"github.com/pba-bank/backoffice/internal/httpapi"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to create database pool", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connection pool initialized")

	customerRepo := db.NewCustomerRepository(pool.Pool)
	accountRepo := db.NewAccountRepository(pool.Pool)
	depositRepo := db.NewDepositRepository(pool.Pool)
	loanRepo := db.NewLoanRepository(pool.Pool)
	ledgerRepo := db.NewLedgerRepository(pool.Pool)
	txManager := db.NewTransactionManager(pool.Pool, cfg.LockTimeout)

	// Event publishing is optional: without a broker URL the services run
	// with publishing disabled.
	var publisher domain.MovementPublisher
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbit.Close()
		publisher = rabbit
		logger.Info("movement event publisher initialized",
			zap.String("exchange", cfg.RabbitMQ.Exchange),
			zap.String("routing_key", cfg.RabbitMQ.RoutingKey),
		)
	}

	cardClient := gateway.NewCardClient(cfg.Gateway.BaseURL)

	transferService := domain.NewTransferService(accountRepo, depositRepo, ledgerRepo, txManager, publisher, logger)
	loanService := domain.NewLoanService(accountRepo, depositRepo, loanRepo, ledgerRepo, txManager, publisher, logger)
	historyService := domain.NewHistoryService(accountRepo, ledgerRepo)
	accountService := domain.NewAccountService(customerRepo, accountRepo, depositRepo, loanRepo, ledgerRepo, txManager, cardClient, publisher, logger)
	customerService := domain.NewCustomerService(customerRepo)
	logger.Info("domain services initialized")

	handler := httpapi.NewHandler(transferService, loanService, historyService, accountService, customerService)
	router := httpapi.NewRouter(handler, logger)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("back-office HTTP server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown did not complete cleanly", zap.Error(err))
	}
	logger.Info("HTTP server stopped")
}
