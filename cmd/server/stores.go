package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation-engine/internal/config"
	"github.com/iliyamo/hotel-reservation-engine/internal/database"
	"github.com/iliyamo/hotel-reservation-engine/internal/handler"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/repository"
	"github.com/iliyamo/hotel-reservation-engine/internal/repository/memory"
	"github.com/iliyamo/hotel-reservation-engine/internal/service"
)

type accountCreator interface {
	CreateAccount(ctx context.Context, a model.Account) (model.Account, error)
}

// stores is the persistence surface the server needs, backed by either
// MySQL or the in-memory store.
type stores struct {
	catalog      service.Catalog
	reservations service.ReservationStore
	payments     service.PaymentStore
	invoices     service.InvoiceStore
	users        handler.UserStore
	tokens       handler.TokenStore
	accounts     accountCreator

	db   *sql.DB       // nil on the memory driver
	demo *memory.Store // non-nil on the memory driver
}

func openStores(cfg config.Config) (*stores, error) {
	if cfg.StoreDriver == "memory" {
		log.Printf("[store] using in-memory store; data is lost on restart")
		m := memory.New()
		return &stores{
			catalog: m, reservations: m, payments: m, invoices: m,
			users: m, tokens: m, accounts: m, demo: m,
		}, nil
	}

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	catalog := repository.NewCatalogRepo(db)
	return &stores{
		catalog:      catalog,
		reservations: repository.NewReservationRepo(db),
		payments:     repository.NewPaymentRepo(db),
		invoices:     repository.NewInvoiceRepo(db),
		users:        repository.NewUserRepo(db),
		tokens:       repository.NewTokenRepo(db),
		accounts:     catalog,
		db:           db,
	}, nil
}

// ready returns the pinger behind /readyz.  The memory store is always ready.
func (s *stores) ready() echo.HandlerFunc {
	if s.db == nil {
		return handler.Ready(nil)
	}
	return handler.Ready(s.db)
}

func (s *stores) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
