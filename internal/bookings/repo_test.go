package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/enums"
)

func setupBookingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named in-memory database keeps each test isolated while the shared
	// cache keeps it visible across pooled connections.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	bookingsTable := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  cruise_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  lead_guest_name TEXT NOT NULL,
  lead_guest_email TEXT NOT NULL,
  adult_count INTEGER NOT NULL,
  child_count INTEGER NOT NULL DEFAULT 0,
  senior_count INTEGER NOT NULL DEFAULT 0,
  cabin_type TEXT NOT NULL,
  coupon_code TEXT,
  selected_promotion_id TEXT,
  currency TEXT NOT NULL DEFAULT 'USD',
  base_cruise_fare TEXT NOT NULL,
  cabin_upgrade TEXT NOT NULL,
  extras_total TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  tax_amount TEXT NOT NULL,
  gratuity_amount TEXT NOT NULL,
  discount_amount TEXT NOT NULL,
  final_total TEXT NOT NULL,
  applied_promotions TEXT,
  stripe_payment_intent_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	bookingExtras := `
CREATE TABLE IF NOT EXISTS booking_extras (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  extra_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL
);`
	require.NoError(t, db.Exec(bookingsTable).Error)
	require.NoError(t, db.Exec(bookingExtras).Error)
	return db
}

func seedBooking(intentID *string) *models.Booking {
	booking := &models.Booking{
		ID:                    uuid.New(),
		CruiseID:              uuid.New(),
		Status:                enums.BookingStatusPending,
		LeadGuestName:         "Avery Collins",
		LeadGuestEmail:        "avery@example.com",
		AdultCount:            2,
		CabinType:             enums.CabinTypeInterior,
		Currency:              enums.CurrencyUSD,
		BaseCruiseFare:        decimal.RequireFromString("2000.00"),
		CabinUpgrade:          decimal.Zero,
		ExtrasTotal:           decimal.Zero,
		Subtotal:              decimal.RequireFromString("2000.00"),
		TaxAmount:             decimal.RequireFromString("190.00"),
		GratuityAmount:        decimal.RequireFromString("240.00"),
		DiscountAmount:        decimal.Zero,
		FinalTotal:            decimal.RequireFromString("2430.00"),
		AppliedPromotions:     json.RawMessage(`[]`),
		StripePaymentIntentID: intentID,
	}
	return booking
}

func TestRepositoryCreateAndGet(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	booking := seedBooking(nil)
	booking.Extras = []models.BookingExtra{{
		ID:        uuid.New(),
		BookingID: booking.ID,
		ExtraID:   uuid.New(),
		Name:      "Spa Pass",
		UnitPrice: decimal.RequireFromString("120.00"),
		Quantity:  2,
	}}

	_, err := repo.Create(ctx, booking)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
	assert.Equal(t, enums.BookingStatusPending, got.Status)
	assert.True(t, got.FinalTotal.Equal(decimal.RequireFromString("2430.00")))
	require.Len(t, got.Extras, 1)
	assert.Equal(t, "Spa Pass", got.Extras[0].Name)
}

func TestRepositoryGetByPaymentIntentID(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	intentID := "pi_repo_test"
	booking := seedBooking(&intentID)
	_, err := repo.Create(ctx, booking)
	require.NoError(t, err)

	got, err := repo.GetByPaymentIntentID(ctx, intentID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	_, err = repo.GetByPaymentIntentID(ctx, "pi_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListFiltersByStatus(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	pending := seedBooking(nil)
	_, err := repo.Create(ctx, pending)
	require.NoError(t, err)

	confirmed := seedBooking(nil)
	confirmed.Status = enums.BookingStatusConfirmed
	_, err = repo.Create(ctx, confirmed)
	require.NoError(t, err)

	got, err := repo.List(ctx, ListFilter{Status: enums.BookingStatusConfirmed})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, confirmed.ID, got[0].ID)

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositoryUpdateWithTxRollsBack(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	booking := seedBooking(nil)
	_, err := repo.Create(ctx, booking)
	require.NoError(t, err)

	sentinel := errors.New("redemptions failed")
	err = db.Transaction(func(tx *gorm.DB) error {
		booking.Status = enums.BookingStatusConfirmed
		if _, err := repo.UpdateWithTx(ctx, tx, booking); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	got, err := repo.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusPending, got.Status)
}

func TestRepositoryUpdatePersistsStatus(t *testing.T) {
	db := setupBookingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	booking := seedBooking(nil)
	_, err := repo.Create(ctx, booking)
	require.NoError(t, err)

	booking.Status = enums.BookingStatusCancelled
	_, err = repo.Update(ctx, booking)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCancelled, got.Status)
}
