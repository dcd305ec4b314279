package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/enums"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
	"github.com/harborline/cruisebook-backend/pkg/logger"
)

const (
	// EventPaymentSucceeded confirms the backing booking.
	EventPaymentSucceeded = "payment_intent.succeeded"
	// EventPaymentFailed is logged; the booking stays pending for retry.
	EventPaymentFailed = "payment_intent.payment_failed"
	// EventPaymentCanceled cancels the backing booking.
	EventPaymentCanceled = "payment_intent.canceled"

	webhookMarkerTTL = 24 * time.Hour
)

// IntentCreator is the slice of the Stripe client the payment flow needs.
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*stripe.PaymentIntent, error)
}

// BookingFlow is the booking lifecycle surface driven by payment events.
type BookingFlow interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) (*models.Booking, error)
	ConfirmByPaymentIntent(ctx context.Context, intentID string) (*models.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// EventMarker provides at-most-once webhook processing markers.
type EventMarker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookKey(eventID string) string
}

// Service bridges bookings and Stripe: it opens payment intents for pending
// bookings and applies webhook outcomes to the booking lifecycle.
type Service struct {
	intents  IntentCreator
	bookings BookingFlow
	marker   EventMarker
	logger   *logger.Logger
}

// ServiceParams wires the payment service dependencies.
type ServiceParams struct {
	Intents  IntentCreator
	Bookings BookingFlow
	Marker   EventMarker
	Logger   *logger.Logger
}

func NewService(params ServiceParams) *Service {
	return &Service{
		intents:  params.Intents,
		bookings: params.Bookings,
		marker:   params.Marker,
		logger:   params.Logger,
	}
}

// CreateIntent opens a Stripe payment intent for the booking's final total and
// attaches it to the booking record.
func (s *Service) CreateIntent(ctx context.Context, bookingID uuid.UUID) (*stripe.PaymentIntent, error) {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != enums.BookingStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot take payment for a %s booking", booking.Status))
	}
	if booking.StripePaymentIntentID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "booking already has a payment intent")
	}

	amountCents := booking.FinalTotal.Shift(2).Round(0).IntPart()
	intent, err := s.intents.CreatePaymentIntent(ctx, amountCents,
		strings.ToLower(booking.Currency.String()),
		map[string]string{"booking_id": booking.ID.String()})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment intent")
	}

	if _, err := s.bookings.AttachPaymentIntent(ctx, booking.ID, intent.ID); err != nil {
		return nil, err
	}

	if s.logger != nil {
		ctx = s.logger.WithBookingID(ctx, booking.ID.String())
		s.logger.Info(ctx, fmt.Sprintf("payment intent %s opened for %d cents", intent.ID, amountCents))
	}
	return intent, nil
}

// HandleEvent applies one verified Stripe event. Replayed event ids are
// skipped via the marker store; unknown event types are ignored. A failed
// event is unmarked before returning so Stripe's redelivery is not mistaken
// for a replay.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	fresh, err := s.markProcessed(ctx, string(event.ID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking webhook event")
	}
	if !fresh {
		if s.logger != nil {
			s.logger.Info(ctx, fmt.Sprintf("skipping replayed stripe event %s", event.ID))
		}
		return nil
	}

	if err := s.applyEvent(ctx, event); err != nil {
		s.unmark(ctx, string(event.ID))
		return err
	}
	return nil
}

func (s *Service) applyEvent(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case EventPaymentSucceeded, EventPaymentFailed, EventPaymentCanceled:
	default:
		if s.logger != nil {
			s.logger.Info(ctx, fmt.Sprintf("ignoring stripe event type %s", event.Type))
		}
		return nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding payment intent payload")
	}

	switch string(event.Type) {
	case EventPaymentSucceeded:
		booking, err := s.bookings.ConfirmByPaymentIntent(ctx, intent.ID)
		if err != nil {
			return err
		}
		if s.logger != nil {
			ctx = s.logger.WithBookingID(ctx, booking.ID.String())
			s.logger.Info(ctx, "payment succeeded, booking confirmed")
		}
	case EventPaymentFailed:
		if s.logger != nil {
			s.logger.Warn(ctx, fmt.Sprintf("payment failed for intent %s; booking left pending", intent.ID))
		}
	case EventPaymentCanceled:
		bookingID, err := bookingIDFromMetadata(intent.Metadata)
		if err != nil {
			return err
		}
		if _, err := s.bookings.Cancel(ctx, bookingID); err != nil {
			return err
		}
		if s.logger != nil {
			ctx = s.logger.WithBookingID(ctx, bookingID.String())
			s.logger.Info(ctx, "payment canceled, booking cancelled")
		}
	}
	return nil
}

func (s *Service) markProcessed(ctx context.Context, eventID string) (bool, error) {
	if s.marker == nil {
		return true, nil
	}
	return s.marker.SetNX(ctx, s.marker.WebhookKey(eventID), "1", webhookMarkerTTL)
}

// unmark releases the processed marker so a failed event can be redelivered.
func (s *Service) unmark(ctx context.Context, eventID string) {
	if s.marker == nil {
		return
	}
	if err := s.marker.Del(ctx, s.marker.WebhookKey(eventID)); err != nil && s.logger != nil {
		s.logger.Warn(ctx, fmt.Sprintf("failed to unmark stripe event %s: %v", eventID, err))
	}
}

func bookingIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw, ok := metadata["booking_id"]
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent missing booking_id metadata")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking_id metadata")
	}
	return id, nil
}
