package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lexuanthang19/food-deli-deploy/internal/broadcast"
	"github.com/lexuanthang19/food-deli-deploy/internal/config"
	"github.com/lexuanthang19/food-deli-deploy/internal/database"
	"github.com/lexuanthang19/food-deli-deploy/internal/handler"
	"github.com/lexuanthang19/food-deli-deploy/internal/inventory"
	"github.com/lexuanthang19/food-deli-deploy/internal/lifecycle"
	"github.com/lexuanthang19/food-deli-deploy/internal/payment"
	"github.com/lexuanthang19/food-deli-deploy/internal/queue"
	"github.com/lexuanthang19/food-deli-deploy/internal/repository"
	"github.com/lexuanthang19/food-deli-deploy/internal/router"
	"github.com/lexuanthang19/food-deli-deploy/internal/tables"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and browse cache disabled")
	}

	menuRepo := repository.NewMenuItemRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	tableRepo := repository.NewTableRepo(db)
	branchRepo := repository.NewBranchRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewRefreshTokenRepo(db)

	hub := broadcast.New()
	registry := tables.NewRegistry(tableRepo, hub)

	coord := &lifecycle.Coordinator{
		Menu:                 menuRepo,
		Ledger:               inventory.NewLedger(menuRepo),
		Orders:               orderRepo,
		Tables:               registry,
		Branches:             branchRepo,
		Checkout:             payment.NewStripeProvider(cfg.StripeKey, cfg.FrontendURL),
		Hub:                  hub,
		CheckoutTTL:          cfg.CheckoutTTL,
		RestockOnStaffCancel: cfg.RestockOnStaffCancel,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// durable queue mirror and kitchen log consumer
	go queue.RunBridge(ctx, hub)
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()
	// abandoned-checkout sweeper runs off the request path
	go coord.RunSweeper(ctx, time.Minute)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:   handler.NewAuthHandler(userRepo, tokenRepo, cfg),
		Order:  handler.NewOrderHandler(coord, orderRepo),
		Table:  handler.NewTableHandler(registry, tableRepo, branchRepo),
		Branch: handler.NewBranchHandler(branchRepo),
		Menu:   handler.NewMenuHandler(menuRepo),
		Events: handler.NewEventHandler(hub),
	}, cfg, rdb)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
