package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/hotel-reservation-engine/internal/afip"
	"github.com/iliyamo/hotel-reservation-engine/internal/clock"
	"github.com/iliyamo/hotel-reservation-engine/internal/config"
	"github.com/iliyamo/hotel-reservation-engine/internal/handler"
	"github.com/iliyamo/hotel-reservation-engine/internal/middleware"
	"github.com/iliyamo/hotel-reservation-engine/internal/queue"
	"github.com/iliyamo/hotel-reservation-engine/internal/router"
	"github.com/iliyamo/hotel-reservation-engine/internal/service"
	"github.com/iliyamo/hotel-reservation-engine/internal/telemetry"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		log.Printf("[telemetry] disabled: %v", err)
	}

	st, err := openStores(cfg)
	if err != nil {
		log.Fatalf("[store] open %s: %v", cfg.StoreDriver, err)
	}
	defer st.close()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	// events
	var publisher queue.Publisher = queue.NopPublisher{}
	var async *queue.AsyncPublisher
	if url := cfg.Events.RabbitURL; url != "" {
		async = queue.NewAsyncPublisher(queue.NewAMQPPublisher(url), 10*time.Second)
		publisher = async
		if cfg.Events.AuditConsumer {
			queue.AuditLogPath = cfg.Events.AuditLogPath
			go func() {
				if err := queue.StartAuditConsumer(url); err != nil {
					log.Printf("[queue] audit consumer stopped: %v", err)
				}
			}()
		}
	}

	// tax authority gateway; nil means every invoice is issued in demo mode
	var gateway service.TaxGateway
	if cfg.AFIP.Enabled {
		gateway = afip.NewClient(afip.Config{
			BaseURL:     cfg.AFIP.BaseURL,
			AccessToken: cfg.AFIP.AccessToken,
			Environment: cfg.AFIP.Environment,
			TaxID:       cfg.AFIP.TaxID,
			WSID:        cfg.AFIP.WSID,
			Timeout:     cfg.AFIP.Timeout,
			TokenTTL:    cfg.AFIP.TokenTTL,
		}, afip.WithTokenCache(afip.NewRedisTokenCache(rdb)))
	}

	clk := clock.NewSystem()
	opts := []service.Option{
		service.WithPublisher(publisher),
		service.WithCurrency(cfg.InvoiceCurrency, cfg.AFIP.Currency),
		service.WithDemoExpiry(cfg.AFIP.DemoExpiry),
	}
	availability := service.NewAvailabilityService(st.catalog, st.reservations)
	reservations := service.NewReservationService(st.catalog, st.reservations, availability, clk, opts...)
	ledger := service.NewLedgerService(st.reservations, st.payments, clk, opts...)
	invoices := service.NewInvoiceService(st.catalog, st.reservations, st.invoices, gateway, clk, opts...)
	dashboard := service.NewDashboardService(st.catalog, st.reservations, clk)

	if err := bootstrap(ctx, cfg, st); err != nil {
		log.Fatalf("[bootstrap] %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e, st.ready())
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, st.users, st.tokens), cfg.JWTSecret, limit)
	router.RegisterAPI(e, router.API{
		Reservations: handler.NewReservationHandler(reservations, ledger),
		Invoices:     handler.NewInvoiceHandler(invoices),
		Availability: handler.NewAvailabilityHandler(availability),
		Dashboard:    handler.NewDashboardHandler(dashboard),
		RateLimit:    limit,
		Cache:        middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s store=%s)", addr, cfg.Env, cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if async != nil {
		async.Close()
	}
	if shutdownTelemetry != nil {
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Printf("[telemetry] shutdown: %v", err)
		}
	}
}
