package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/cruisebook-backend/internal/cruises"
	"github.com/harborline/cruisebook-backend/internal/pricing"
	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/enums"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
	"github.com/harborline/cruisebook-backend/pkg/logger"
	"github.com/harborline/cruisebook-backend/pkg/metrics"
)

// CruiseCatalog is the slice of the cruise service the booking flow needs.
type CruiseCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Cruise, error)
}

// PromotionSource serves engine rules and records redemptions.
type PromotionSource interface {
	ActiveRules(ctx context.Context) ([]pricing.PromotionRule, error)
	RuleByID(ctx context.Context, id uuid.UUID) (*pricing.PromotionRule, error)
	RecordRedemptionsWithTx(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service prices carts and manages the booking lifecycle. Every persisted
// booking is priced server-side; client-supplied totals are never trusted.
type Service struct {
	repo       Repository
	tx         TxRunner
	catalog    CruiseCatalog
	promotions PromotionSource
	metrics    *metrics.PricingMetrics
	logger     *logger.Logger
	now        func() time.Time
}

// ServiceParams wires the booking service dependencies.
type ServiceParams struct {
	Repo       Repository
	Tx         TxRunner
	Catalog    CruiseCatalog
	Promotions PromotionSource
	Metrics    *metrics.PricingMetrics
	Logger     *logger.Logger
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

func NewService(params ServiceParams) *Service {
	nowFn := params.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		repo:       params.Repo,
		tx:         params.Tx,
		catalog:    params.Catalog,
		promotions: params.Promotions,
		metrics:    params.Metrics,
		logger:     params.Logger,
		now:        nowFn,
	}
}

// Quote prices a cart without persisting anything.
func (s *Service) Quote(ctx context.Context, input QuoteInput, surface string) (*Quote, error) {
	started := s.now()

	quote, _, _, err := s.price(ctx, input)
	if err != nil {
		return nil, err
	}

	discounted := quote.Breakdown.DiscountAmount.IsPositive()
	s.metrics.ObserveQuote(surface, discounted, s.now().Sub(started))
	for _, applied := range quote.Breakdown.AppliedPromotions {
		s.metrics.IncPromotionApplied(applied.ID)
	}
	return quote, nil
}

// Create prices the cart server-side and persists the booking with the full
// monetary snapshot, in pending status.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Booking, error) {
	if input.LeadGuestName == "" || input.LeadGuestEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead guest name and email are required")
	}

	quote, cruise, resolvedExtras, err := s.price(ctx, input.QuoteInput)
	if err != nil {
		return nil, err
	}
	breakdown := quote.Breakdown

	appliedJSON, err := json.Marshal(breakdown.AppliedPromotions)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding applied promotions")
	}

	booking := &models.Booking{
		ID:                  uuid.New(),
		CruiseID:            cruise.ID,
		Status:              enums.BookingStatusPending,
		LeadGuestName:       input.LeadGuestName,
		LeadGuestEmail:      input.LeadGuestEmail,
		AdultCount:          input.AdultCount,
		ChildCount:          input.ChildCount,
		SeniorCount:         input.SeniorCount,
		CabinType:           input.CabinType,
		SelectedPromotionID: input.SelectedPromotionID,
		Currency:            cruise.Currency,
		BaseCruiseFare:      breakdown.BaseCruiseFare,
		CabinUpgrade:        breakdown.CabinUpgrade,
		ExtrasTotal:         breakdown.ExtrasTotal,
		Subtotal:            breakdown.Subtotal,
		TaxAmount:           breakdown.TaxAmount,
		GratuityAmount:      breakdown.GratuityAmount,
		DiscountAmount:      breakdown.DiscountAmount,
		FinalTotal:          breakdown.FinalTotal,
		AppliedPromotions:   appliedJSON,
	}
	if input.CouponCode != "" {
		code := input.CouponCode
		booking.CouponCode = &code
	}
	for _, extra := range resolvedExtras {
		extraID, err := uuid.Parse(extra.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parsing extra id")
		}
		booking.Extras = append(booking.Extras, models.BookingExtra{
			ID:        uuid.New(),
			BookingID: booking.ID,
			ExtraID:   extraID,
			Name:      extra.Name,
			UnitPrice: extra.UnitPrice,
			Quantity:  extra.Quantity,
		})
	}

	created, err := s.repo.Create(ctx, booking)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating booking")
	}

	if s.logger != nil {
		ctx = s.logger.WithBookingID(ctx, created.ID.String())
		s.logger.Info(ctx, fmt.Sprintf("booking created, total %s %s", created.Currency, created.FinalTotal))
	}
	return created, nil
}

// Get fetches one booking.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetching booking")
	}
	return booking, nil
}

// List returns bookings matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Booking, error) {
	bookingList, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing bookings")
	}
	return bookingList, nil
}

// Cancel moves a booking to cancelled if its lifecycle allows it.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, id, enums.BookingStatusCancelled)
}

// AttachPaymentIntent records the Stripe intent backing a pending booking.
func (s *Service) AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != enums.BookingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot take payment for a %s booking", booking.Status)).
			WithDetails(map[string]string{"status": booking.Status.String()})
	}
	booking.StripePaymentIntentID = &intentID

	updated, err := s.repo.Update(ctx, booking)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attaching payment intent")
	}
	return updated, nil
}

// ConfirmByPaymentIntent confirms the booking backing a succeeded payment and
// records promotion redemptions. This is the only path that increments usage
// counters. The status flip and the counters commit in one transaction, so a
// failure on either side leaves the booking pending and the webhook retry
// redoes both.
func (s *Service) ConfirmByPaymentIntent(ctx context.Context, intentID string) (*models.Booking, error) {
	booking, err := s.repo.GetByPaymentIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no booking for payment intent")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetching booking by payment intent")
	}
	if booking.Status == enums.BookingStatusConfirmed {
		return booking, nil
	}
	if !booking.Status.CanTransitionTo(enums.BookingStatusConfirmed) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot confirm a %s booking", booking.Status)).
			WithDetails(map[string]string{"status": booking.Status.String()})
	}

	redeemed, err := appliedPromotionIDs(booking.AppliedPromotions)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding applied promotions")
	}

	booking.Status = enums.BookingStatusConfirmed
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.UpdateWithTx(ctx, tx, booking); err != nil {
			return err
		}
		return s.promotions.RecordRedemptionsWithTx(ctx, tx, redeemed)
	})
	if err != nil {
		booking.Status = enums.BookingStatusPending
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirming booking")
	}

	if s.logger != nil {
		ctx = s.logger.WithBookingID(ctx, booking.ID.String())
		s.logger.Info(ctx, "booking confirmed")
	}
	return booking, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, next enums.BookingStatus) (*models.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move a %s booking to %s", booking.Status, next)).
			WithDetails(map[string]string{"from": booking.Status.String(), "to": next.String()})
	}
	booking.Status = next

	updated, err := s.repo.Update(ctx, booking)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating booking status")
	}
	if s.logger != nil {
		ctx = s.logger.WithBookingID(ctx, updated.ID.String())
		s.logger.Info(ctx, fmt.Sprintf("booking moved to %s", next))
	}
	return updated, nil
}

// price runs the full evaluation: load the sailing, resolve selections, and
// hand the immutable context to the engine.
func (s *Service) price(ctx context.Context, input QuoteInput) (*Quote, *models.Cruise, []pricing.Extra, error) {
	if input.GuestCount() <= 0 {
		return nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one guest is required")
	}
	if input.AdultCount <= 0 {
		return nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one adult is required")
	}
	if input.ChildCount < 0 || input.SeniorCount < 0 {
		return nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "guest counts must be non-negative")
	}
	if !input.CabinType.IsValid() {
		return nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown cabin type")
	}

	cruise, err := s.catalog.Get(ctx, input.CruiseID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !cruise.IsActive {
		return nil, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cruise is not open for booking")
	}

	cabin, err := cruises.CabinFor(cruise, input.CabinType)
	if err != nil {
		return nil, nil, nil, err
	}
	resolvedExtras, err := cruises.ResolveExtras(cruise, input.Extras)
	if err != nil {
		return nil, nil, nil, err
	}

	bookingCtx := pricing.BookingContext{
		GuestCount:        input.GuestCount(),
		AdultCount:        input.AdultCount,
		ChildCount:        input.ChildCount,
		SeniorCount:       input.SeniorCount,
		DepartureDate:     cruise.DepartureDate,
		CruiseLine:        cruise.CruiseLine,
		Destination:       cruise.Destination,
		CabinType:         input.CabinType.String(),
		Extras:            resolvedExtras,
		EnteredCouponCode: input.CouponCode,
	}

	fare := pricing.ComputeFare(cruise.BasePrice, cabin.PriceModifier, bookingCtx.GuestCount, resolvedExtras)

	candidates, err := s.promotions.ActiveRules(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	selectedID := ""
	if input.SelectedPromotionID != nil {
		selectedID = input.SelectedPromotionID.String()
		candidates = s.ensureSelectedCandidate(ctx, candidates, *input.SelectedPromotionID)
	}

	breakdown := pricing.Aggregate(bookingCtx, fare, candidates, selectedID, s.now())

	return &Quote{
		CruiseID:  cruise.ID,
		Currency:  cruise.Currency,
		Breakdown: breakdown,
	}, cruise, resolvedExtras, nil
}

// ensureSelectedCandidate adds a guest-selected promotion that fell outside
// the active set, so the evaluator can name the precise rejection (inactive,
// expired) instead of reporting it missing. A genuinely unknown id is left
// absent.
func (s *Service) ensureSelectedCandidate(ctx context.Context, candidates []pricing.PromotionRule, selected uuid.UUID) []pricing.PromotionRule {
	selectedID := selected.String()
	for _, rule := range candidates {
		if rule.ID == selectedID {
			return candidates
		}
	}
	rule, err := s.promotions.RuleByID(ctx, selected)
	if err != nil {
		return candidates
	}
	return append(candidates, *rule)
}

func appliedPromotionIDs(payload json.RawMessage) ([]uuid.UUID, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var applied []pricing.AppliedPromotion
	if err := json.Unmarshal(payload, &applied); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(applied))
	for _, promo := range applied {
		id, err := uuid.Parse(promo.ID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
