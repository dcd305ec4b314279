package bookings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborline/cruisebook-backend/internal/cruises"
	"github.com/harborline/cruisebook-backend/internal/pricing"
	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/enums"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
)

var quoteNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

type stubRepo struct {
	createFn      func(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	getByIDFn     func(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	getByIntentFn func(ctx context.Context, intentID string) (*models.Booking, error)
	listFn        func(ctx context.Context, filter ListFilter) ([]models.Booking, error)
	updateFn      func(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	updateTxFn    func(ctx context.Context, tx *gorm.DB, booking *models.Booking) (*models.Booking, error)
}

func (s *stubRepo) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	return s.createFn(ctx, booking)
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubRepo) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error) {
	return s.getByIntentFn(ctx, intentID)
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]models.Booking, error) {
	return s.listFn(ctx, filter)
}

func (s *stubRepo) Update(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	return s.updateFn(ctx, booking)
}

func (s *stubRepo) UpdateWithTx(ctx context.Context, tx *gorm.DB, booking *models.Booking) (*models.Booking, error) {
	if s.updateTxFn != nil {
		return s.updateTxFn(ctx, tx, booking)
	}
	return booking, nil
}

type stubCatalog struct {
	cruise *models.Cruise
}

func (s *stubCatalog) Get(_ context.Context, id uuid.UUID) (*models.Cruise, error) {
	if s.cruise == nil || s.cruise.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cruise not found")
	}
	return s.cruise, nil
}

type stubPromotions struct {
	rules     []pricing.PromotionRule
	byID      map[uuid.UUID]pricing.PromotionRule
	redeemed  [][]uuid.UUID
	redeemErr error
}

func (s *stubPromotions) ActiveRules(context.Context) ([]pricing.PromotionRule, error) {
	return s.rules, nil
}

func (s *stubPromotions) RuleByID(_ context.Context, id uuid.UUID) (*pricing.PromotionRule, error) {
	rule, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
	}
	return &rule, nil
}

func (s *stubPromotions) RecordRedemptionsWithTx(_ context.Context, _ *gorm.DB, ids []uuid.UUID) error {
	if s.redeemErr != nil {
		err := s.redeemErr
		s.redeemErr = nil
		return err
	}
	s.redeemed = append(s.redeemed, ids)
	return nil
}

type stubTxRunner struct {
	calls int
}

func (s *stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(nil)
}

func testCruise() *models.Cruise {
	return &models.Cruise{
		ID:             uuid.New(),
		Name:           "Glacier Bay Explorer",
		CruiseLine:     "Princess",
		Destination:    "Alaska",
		DeparturePort:  "Seattle",
		DepartureDate:  quoteNow.AddDate(0, 3, 0),
		DurationNights: 7,
		BasePrice:      decimal.NewFromInt(1000),
		Currency:       enums.CurrencyUSD,
		IsActive:       true,
		Cabins: []models.CruiseCabin{
			{ID: uuid.New(), CabinType: enums.CabinTypeInterior, PriceModifier: decimal.NewFromInt(1), Capacity: 4},
			{ID: uuid.New(), CabinType: enums.CabinTypeBalcony, PriceModifier: decimal.NewFromFloat(1.5), Capacity: 3},
		},
		Extras: []models.CruiseExtra{
			{ID: uuid.New(), Name: "Drinks Package", UnitPrice: decimal.NewFromInt(250)},
		},
	}
}

func newTestService(repo Repository, catalog CruiseCatalog, promos PromotionSource) *Service {
	return NewService(ServiceParams{
		Repo:       repo,
		Tx:         &stubTxRunner{},
		Catalog:    catalog,
		Promotions: promos,
		Now:        func() time.Time { return quoteNow },
	})
}

func assertMoney(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestQuoteFullPriceBreakdown(t *testing.T) {
	t.Parallel()

	cruise := testCruise()
	svc := newTestService(&stubRepo{}, &stubCatalog{cruise: cruise}, &stubPromotions{})

	quote, err := svc.Quote(context.Background(), QuoteInput{
		CruiseID:   cruise.ID,
		AdultCount: 2,
		CabinType:  enums.CabinTypeInterior,
	}, "checkout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertMoney(t, quote.Breakdown.Subtotal, "2000")
	assertMoney(t, quote.Breakdown.TaxAmount, "190")
	assertMoney(t, quote.Breakdown.GratuityAmount, "240")
	assertMoney(t, quote.Breakdown.FinalTotal, "2430")
	if quote.Currency != enums.CurrencyUSD {
		t.Fatalf("unexpected currency: %s", quote.Currency)
	}
}

func TestQuoteAppliesActivePromotion(t *testing.T) {
	t.Parallel()

	cruise := testCruise()
	promo := pricing.PromotionRule{
		ID:            uuid.NewString(),
		Name:          "Summer Sale",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		ValidFrom:     quoteNow.AddDate(0, -1, 0),
		ValidTo:       quoteNow.AddDate(0, 1, 0),
		IsActive:      true,
	}
	svc := newTestService(&stubRepo{}, &stubCatalog{cruise: cruise}, &stubPromotions{rules: []pricing.PromotionRule{promo}})

	quote, err := svc.Quote(context.Background(), QuoteInput{
		CruiseID:   cruise.ID,
		AdultCount: 2,
		CabinType:  enums.CabinTypeInterior,
	}, "checkout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertMoney(t, quote.Breakdown.DiscountAmount, "200")
	assertMoney(t, quote.Breakdown.FinalTotal, "2230")
	if len(quote.Breakdown.AppliedPromotions) != 1 {
		t.Fatalf("expected one applied promotion, got %d", len(quote.Breakdown.AppliedPromotions))
	}
}

func TestQuoteValidatesGuestCounts(t *testing.T) {
	t.Parallel()

	cruise := testCruise()
	svc := newTestService(&stubRepo{}, &stubCatalog{cruise: cruise}, &stubPromotions{})

	cases := []struct {
		name  string
		input QuoteInput
	}{
		{"no guests", QuoteInput{CruiseID: cruise.ID, CabinType: enums.CabinTypeInterior}},
		{"children only", QuoteInput{CruiseID: cruise.ID, ChildCount: 2, CabinType: enums.CabinTypeInterior}},
		{"negative child count", QuoteInput{CruiseID: cruise.ID, AdultCount: 2, ChildCount: -1, CabinType: enums.CabinTypeInterior}},
		{"bad cabin", QuoteInput{CruiseID: cruise.ID, AdultCount: 2, CabinType: enums.CabinType("penthouse")}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Quote(context.Background(), tc.input, "checkout")
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestQuoteRejectsInactiveCruise(t *testing.T) {
	t.Parallel()

	cruise := testCruise()
	cruise.IsActive = false
	svc := newTestService(&stubRepo{}, &stubCatalog{cruise: cruise}, &stubPromotions{})

	_, err := svc.Quote(context.Background(), QuoteInput{
		CruiseID:   cruise.ID,
		AdultCount: 1,
		CabinType:  enums.CabinTypeInterior,
	}, "checkout")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestQuoteSurfacesUnknownSelectedPromotion(t *testing.T) {
	t.Parallel()

	cruise := testCruise()
	svc := newTestService(&stubRepo{}, &stubCatalog{cruise: cruise}, &stubPromotions{})

	selected := uuid.New()
	quote, err := svc.Quote(context.Background(), QuoteInput{
		CruiseID:            cruise.ID,
		AdultCount:          2,
		CabinType:           enums.CabinTypeInterior,
		SelectedPromotionID: &selected,
	}, "checkout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rejection := quote.Breakdown.SelectedRejection
	if rejection == nil || rejection.Reason != pricing.ReasonNotFound {
		t.Fatalf("expected not-found rejection, got %+v", rejection)
	}
	assertMoney(t, quote.Breakdown.DiscountAmount, "0")
}

func TestQuoteSelectedInactivePromotionGetsPreciseReason(t *testing.T) {
	t.Parallel()

	cruise := testCruise()
	selected := uuid.New()
	inactive := pricing.PromotionRule{
		ID:            selected.String(),
		Name:          "Retired Deal",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(100),
		ValidFrom:     quoteNow.AddDate(0, -2, 0),
		ValidTo:       quoteNow.AddDate(0, 2, 0),
		IsActive:      false,
	}
	promos := &stubPromotions{byID: map[uuid.UUID]pricing.PromotionRule{selected: inactive}}
	svc := newTestService(&stubRepo{}, &stubCatalog{cruise: cruise}, promos)

	quote, err := svc.Quote(context.Background(), QuoteInput{
		CruiseID:            cruise.ID,
		AdultCount:          2,
		CabinType:           enums.CabinTypeInterior,
		SelectedPromotionID: &selected,
	}, "checkout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rejection := quote.Breakdown.SelectedRejection
	if rejection == nil || rejection.Reason != pricing.ReasonInactive {
		t.Fatalf("expected inactive rejection, got %+v", rejection)
	}
}

func TestCreateSnapshotsBreakdown(t *testing.T) {
	t.Parallel()

	cruise := testCruise()
	var persisted *models.Booking
	repo := &stubRepo{
		createFn: func(_ context.Context, booking *models.Booking) (*models.Booking, error) {
			persisted = booking
			return booking, nil
		},
	}
	svc := newTestService(repo, &stubCatalog{cruise: cruise}, &stubPromotions{})

	drinks := cruise.Extras[0]
	booking, err := svc.Create(context.Background(), CreateInput{
		QuoteInput: QuoteInput{
			CruiseID:   cruise.ID,
			AdultCount: 2,
			ChildCount: 1,
			CabinType:  enums.CabinTypeBalcony,
			Extras:     []cruises.ExtraSelection{{ExtraID: drinks.ID, Quantity: 2}},
		},
		LeadGuestName:  "Dana Whitfield",
		LeadGuestEmail: "dana@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persisted == nil {
		t.Fatal("booking was not persisted")
	}
	if booking.Status != enums.BookingStatusPending {
		t.Fatalf("expected pending status, got %s", booking.Status)
	}

	// 3 guests at 1000 base with 1.5 balcony modifier plus 2x250 extras.
	assertMoney(t, booking.BaseCruiseFare, "3000")
	assertMoney(t, booking.CabinUpgrade, "1500")
	assertMoney(t, booking.ExtrasTotal, "500")
	assertMoney(t, booking.Subtotal, "5000")
	assertMoney(t, booking.TaxAmount, "475")
	assertMoney(t, booking.GratuityAmount, "600")
	assertMoney(t, booking.FinalTotal, "6075")

	if len(booking.Extras) != 1 || booking.Extras[0].Quantity != 2 {
		t.Fatalf("unexpected extras snapshot: %+v", booking.Extras)
	}
}

func TestCreateRequiresLeadGuest(t *testing.T) {
	t.Parallel()

	cruise := testCruise()
	svc := newTestService(&stubRepo{}, &stubCatalog{cruise: cruise}, &stubPromotions{})

	_, err := svc.Create(context.Background(), CreateInput{
		QuoteInput: QuoteInput{CruiseID: cruise.ID, AdultCount: 1, CabinType: enums.CabinTypeInterior},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestConfirmByPaymentIntentRecordsRedemptions(t *testing.T) {
	t.Parallel()

	promoID := uuid.New()
	applied, err := json.Marshal([]pricing.AppliedPromotion{{
		ID:             promoID.String(),
		Name:           "Summer Sale",
		DiscountType:   enums.DiscountTypePercentage,
		DiscountValue:  decimal.NewFromInt(10),
		DiscountAmount: decimal.NewFromInt(200),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intentID := "pi_123"
	booking := &models.Booking{
		ID:                    uuid.New(),
		Status:                enums.BookingStatusPending,
		AppliedPromotions:     applied,
		StripePaymentIntentID: &intentID,
	}
	repo := &stubRepo{
		getByIntentFn: func(_ context.Context, got string) (*models.Booking, error) {
			if got != intentID {
				return nil, gorm.ErrRecordNotFound
			}
			return booking, nil
		},
	}
	promos := &stubPromotions{}
	svc := newTestService(repo, &stubCatalog{}, promos)

	confirmed, err := svc.ConfirmByPaymentIntent(context.Background(), intentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmed.Status != enums.BookingStatusConfirmed {
		t.Fatalf("expected confirmed status, got %s", confirmed.Status)
	}
	if len(promos.redeemed) != 1 || len(promos.redeemed[0]) != 1 || promos.redeemed[0][0] != promoID {
		t.Fatalf("unexpected redemptions: %+v", promos.redeemed)
	}
}

func TestConfirmRollsBackWhenRedemptionsFail(t *testing.T) {
	t.Parallel()

	promoID := uuid.New()
	applied, err := json.Marshal([]pricing.AppliedPromotion{{
		ID:             promoID.String(),
		Name:           "Summer Sale",
		DiscountType:   enums.DiscountTypeFixed,
		DiscountValue:  decimal.NewFromInt(100),
		DiscountAmount: decimal.NewFromInt(100),
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intentID := "pi_retry"
	repo := &stubRepo{
		// Fresh pending row per fetch, like a rolled-back database.
		getByIntentFn: func(context.Context, string) (*models.Booking, error) {
			return &models.Booking{
				ID:                    uuid.New(),
				Status:                enums.BookingStatusPending,
				AppliedPromotions:     applied,
				StripePaymentIntentID: &intentID,
			}, nil
		},
	}
	promos := &stubPromotions{redeemErr: pkgerrors.New(pkgerrors.CodeInternal, "usage counters unavailable")}
	svc := newTestService(repo, &stubCatalog{}, promos)

	if _, err := svc.ConfirmByPaymentIntent(context.Background(), intentID); err == nil {
		t.Fatal("expected the first confirmation to fail")
	}
	if len(promos.redeemed) != 0 {
		t.Fatalf("failed confirmation must not record usage: %+v", promos.redeemed)
	}

	confirmed, err := svc.ConfirmByPaymentIntent(context.Background(), intentID)
	if err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if confirmed.Status != enums.BookingStatusConfirmed {
		t.Fatalf("expected confirmed status, got %s", confirmed.Status)
	}
	if len(promos.redeemed) != 1 || promos.redeemed[0][0] != promoID {
		t.Fatalf("retry must record usage exactly once: %+v", promos.redeemed)
	}
}

func TestConfirmByPaymentIntentIsIdempotent(t *testing.T) {
	t.Parallel()

	intentID := "pi_456"
	booking := &models.Booking{
		ID:                    uuid.New(),
		Status:                enums.BookingStatusConfirmed,
		StripePaymentIntentID: &intentID,
	}
	repo := &stubRepo{
		getByIntentFn: func(context.Context, string) (*models.Booking, error) {
			return booking, nil
		},
	}
	promos := &stubPromotions{}
	svc := newTestService(repo, &stubCatalog{}, promos)

	confirmed, err := svc.ConfirmByPaymentIntent(context.Background(), intentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmed.Status != enums.BookingStatusConfirmed {
		t.Fatalf("expected confirmed status, got %s", confirmed.Status)
	}
	if len(promos.redeemed) != 0 {
		t.Fatal("redemptions must not be recorded twice")
	}
}

func TestCancelRejectsCancelledBooking(t *testing.T) {
	t.Parallel()

	booking := &models.Booking{ID: uuid.New(), Status: enums.BookingStatusCancelled}
	repo := &stubRepo{
		getByIDFn: func(context.Context, uuid.UUID) (*models.Booking, error) {
			return booking, nil
		},
	}
	svc := newTestService(repo, &stubCatalog{}, &stubPromotions{})

	_, err := svc.Cancel(context.Background(), booking.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state-conflict code, got %v", err)
	}
}

func TestAttachPaymentIntentRequiresPending(t *testing.T) {
	t.Parallel()

	booking := &models.Booking{ID: uuid.New(), Status: enums.BookingStatusConfirmed}
	repo := &stubRepo{
		getByIDFn: func(context.Context, uuid.UUID) (*models.Booking, error) {
			return booking, nil
		},
	}
	svc := newTestService(repo, &stubCatalog{}, &stubPromotions{})

	_, err := svc.AttachPaymentIntent(context.Background(), booking.ID, "pi_789")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state-conflict code, got %v", err)
	}
}
