package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-reservation-engine/internal/clock"
	"github.com/iliyamo/hotel-reservation-engine/internal/handler"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
	"github.com/iliyamo/hotel-reservation-engine/internal/repository/memory"
	"github.com/iliyamo/hotel-reservation-engine/internal/router"
	"github.com/iliyamo/hotel-reservation-engine/internal/service"
	"github.com/iliyamo/hotel-reservation-engine/internal/utils"
)

const secret = "test-secret"

func TestCacheWrapsOnlyReadSummaries(t *testing.T) {
	s := memory.New()
	clk := clock.NewFixed(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	avail := service.NewAvailabilityService(s, s)
	reservations := service.NewReservationService(s, s, avail, clk)

	var cached []string
	e := echo.New()
	router.RegisterAPI(e, router.API{
		Reservations: handler.NewReservationHandler(reservations, service.NewLedgerService(s, s, clk)),
		Invoices:     handler.NewInvoiceHandler(service.NewInvoiceService(s, s, s, nil, clk)),
		Availability: handler.NewAvailabilityHandler(avail),
		Dashboard:    handler.NewDashboardHandler(service.NewDashboardService(s, s, clk)),
		Cache: func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				cached = append(cached, c.Path())
				return next(c)
			}
		},
	}, secret)

	tok, err := utils.NewAccessToken(secret, utils.Claims{UserID: 1, AccountID: 1, Role: model.RoleStaff}, 5)
	require.NoError(t, err)

	for _, path := range []string{
		"/api/v1/rooms/1/availability?check_in=2024-03-01&check_out=2024-03-02",
		"/api/v1/hotels/1/availability?check_in=2024-03-01&check_out=2024-03-02",
		"/api/v1/hotels/1/dashboard",
		"/api/v1/reservations",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.NotEqual(t, http.StatusUnauthorized, rec.Code, path)
	}

	assert.Equal(t, []string{"/api/v1/hotels/:id/availability", "/api/v1/hotels/:id/dashboard"}, cached)
}
