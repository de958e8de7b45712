package main

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-reservation-engine/internal/config"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/repository"
	"github.com/iliyamo/hotel-reservation-engine/internal/utils"
)

// bootstrap creates the first account and its admin from BOOTSTRAP_*
// settings.  It does nothing once the admin email exists, so it is safe
// to run on every start.
func bootstrap(ctx context.Context, cfg config.Config, s *stores) error {
	b := cfg.Bootstrap
	if b.AdminEmail == "" || b.AdminPassword == "" {
		return nil
	}
	if _, err := s.users.GetUserByEmail(ctx, b.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	acct, err := s.accounts.CreateAccount(ctx, model.Account{Name: b.AccountName, TaxID: b.AccountTaxID})
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(b.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	admin, err := s.users.CreateUser(ctx, model.User{
		AccountID:    acct.ID,
		Email:        b.AdminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	})
	if err != nil {
		return err
	}
	log.Printf("[bootstrap] account=%d admin=%s", acct.ID, admin.Email)

	if s.demo != nil {
		seedDemo(s, acct)
	}
	return nil
}

// seedDemo gives a fresh in-memory account one hotel to book against.
func seedDemo(s *stores, acct model.Account) {
	m := s.demo
	h := m.AddHotel(model.Hotel{AccountID: acct.ID, Name: "Demo Hotel", Address: "Av. Corrientes 1234"})
	double := m.AddRoomType(model.RoomType{HotelID: h.ID, Name: "Double", Capacity: 2, BasePrice: decimal.NewFromInt(50000)})
	suite := m.AddRoomType(model.RoomType{HotelID: h.ID, Name: "Suite", Capacity: 4, BasePrice: decimal.NewFromInt(120000)})
	for _, code := range []string{"101", "102", "103"} {
		m.AddRoom(model.Room{HotelID: h.ID, RoomTypeID: double.ID, Code: code, Floor: "1", IsActive: true})
	}
	m.AddRoom(model.Room{HotelID: h.ID, RoomTypeID: suite.ID, Code: "201", Floor: "2", IsActive: true})
	g := m.AddGuest(model.Guest{AccountID: acct.ID, FullName: "Ana Perez", DocType: "DNI", DocNumber: "30123456"})
	log.Printf("[bootstrap] demo hotel=%d guest=%d", h.ID, g.ID)
}
