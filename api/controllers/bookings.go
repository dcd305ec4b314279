package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/harborline/cruisebook-backend/api/responses"
	"github.com/harborline/cruisebook-backend/api/validators"
	"github.com/harborline/cruisebook-backend/internal/bookings"
	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/enums"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
	"github.com/harborline/cruisebook-backend/pkg/logger"
)

// BookingService is the booking lifecycle surface the endpoints expose.
type BookingService interface {
	Create(ctx context.Context, input bookings.CreateInput) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, filter bookings.ListFilter) ([]models.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// PaymentIntentService opens Stripe intents for pending bookings.
type PaymentIntentService interface {
	CreateIntent(ctx context.Context, bookingID uuid.UUID) (*stripe.PaymentIntent, error)
}

type createBookingRequest struct {
	quoteRequest

	LeadGuestName  string `json:"lead_guest_name" validate:"required"`
	LeadGuestEmail string `json:"lead_guest_email" validate:"required,email"`
}

// CreateBooking prices the cart server-side and persists the booking.
func CreateBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		quoteInput, err := req.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		booking, err := svc.Create(ctx, bookings.CreateInput{
			QuoteInput:     quoteInput,
			LeadGuestName:  strings.TrimSpace(req.LeadGuestName),
			LeadGuestEmail: strings.TrimSpace(req.LeadGuestEmail),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

// GetBooking returns one booking with its extras snapshot.
func GetBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		booking, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// ListBookings returns bookings for the admin surface, optionally filtered by
// status.
func ListBookings(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter := bookings.ListFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseBookingStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = status
		}

		bookingList, err := svc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, bookingList)
	}
}

// CancelBooking moves a booking to cancelled.
func CancelBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		booking, err := svc.Cancel(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// CreateBookingPaymentIntent opens a Stripe payment intent for the booking
// total and returns its client secret.
func CreateBookingPaymentIntent(svc PaymentIntentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{
			"payment_intent_id": intent.ID,
			"client_secret":     intent.ClientSecret,
		})
	}
}
