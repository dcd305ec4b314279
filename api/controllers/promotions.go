package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/api/responses"
	"github.com/harborline/cruisebook-backend/api/validators"
	"github.com/harborline/cruisebook-backend/internal/promotions"
	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/enums"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
	"github.com/harborline/cruisebook-backend/pkg/logger"
)

// PromotionService is the admin surface over the promotion catalog.
type PromotionService interface {
	List(ctx context.Context) ([]models.Promotion, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	Create(ctx context.Context, input promotions.UpsertInput) (*models.Promotion, error)
	Update(ctx context.Context, id uuid.UUID, input promotions.UpsertInput) (*models.Promotion, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
}

type promotionRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`

	DiscountType  string  `json:"discount_type" validate:"required"`
	DiscountValue string  `json:"discount_value" validate:"required"`
	MaxDiscount   *string `json:"max_discount"`

	MinBookingAmount   *string  `json:"min_booking_amount"`
	MinGuests          *int     `json:"min_guests"`
	MaxGuests          *int     `json:"max_guests"`
	EarlyBookingDays   *int     `json:"early_booking_days"`
	LastMinuteDays     *int     `json:"last_minute_days"`
	RequiredCouponCode *string  `json:"required_coupon_code"`
	CruiseLines        []string `json:"cruise_lines"`
	Destinations       []string `json:"destinations"`

	ValidFrom time.Time `json:"valid_from" validate:"required"`
	ValidTo   time.Time `json:"valid_to" validate:"required"`

	IsActive     bool `json:"is_active"`
	IsCombinable bool `json:"is_combinable"`
	Priority     int  `json:"priority"`
}

func (req promotionRequest) toInput() (promotions.UpsertInput, error) {
	discountType, err := enums.ParseDiscountType(req.DiscountType)
	if err != nil {
		return promotions.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	discountValue, err := parseMoney(req.DiscountValue, "discount_value")
	if err != nil {
		return promotions.UpsertInput{}, err
	}
	maxDiscount, err := parseOptionalMoney(req.MaxDiscount, "max_discount")
	if err != nil {
		return promotions.UpsertInput{}, err
	}
	minBookingAmount, err := parseOptionalMoney(req.MinBookingAmount, "min_booking_amount")
	if err != nil {
		return promotions.UpsertInput{}, err
	}

	return promotions.UpsertInput{
		Name:               req.Name,
		Description:        req.Description,
		DiscountType:       discountType,
		DiscountValue:      discountValue,
		MaxDiscount:        maxDiscount,
		MinBookingAmount:   minBookingAmount,
		MinGuests:          req.MinGuests,
		MaxGuests:          req.MaxGuests,
		EarlyBookingDays:   req.EarlyBookingDays,
		LastMinuteDays:     req.LastMinuteDays,
		RequiredCouponCode: req.RequiredCouponCode,
		CruiseLines:        req.CruiseLines,
		Destinations:       req.Destinations,
		ValidFrom:          req.ValidFrom,
		ValidTo:            req.ValidTo,
		IsActive:           req.IsActive,
		IsCombinable:       req.IsCombinable,
		Priority:           req.Priority,
	}, nil
}

func parseMoney(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "invalid decimal value").
			WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

func parseOptionalMoney(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := parseMoney(*raw, field)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// AdminListPromotions returns the full promotion catalog.
func AdminListPromotions(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		promos, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, promos)
	}
}

// AdminGetPromotion returns one promotion.
func AdminGetPromotion(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(r, "promotionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promo, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

// AdminCreatePromotion adds a promotion to the catalog.
func AdminCreatePromotion(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req promotionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promo, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

// AdminUpdatePromotion replaces a promotion's mutable fields.
func AdminUpdatePromotion(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(r, "promotionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req promotionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promo, err := svc.Update(ctx, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

// AdminDeactivatePromotion soft-disables a promotion.
func AdminDeactivatePromotion(svc PromotionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(r, "promotionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		promo, err := svc.Deactivate(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}
