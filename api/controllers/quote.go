package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/harborline/cruisebook-backend/api/responses"
	"github.com/harborline/cruisebook-backend/api/validators"
	"github.com/harborline/cruisebook-backend/internal/bookings"
	"github.com/harborline/cruisebook-backend/internal/cruises"
	"github.com/harborline/cruisebook-backend/pkg/enums"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
	"github.com/harborline/cruisebook-backend/pkg/logger"
)

// Quoter prices a cart without persisting it.
type Quoter interface {
	Quote(ctx context.Context, input bookings.QuoteInput, surface string) (*bookings.Quote, error)
}

type quoteExtraRequest struct {
	ExtraID  string `json:"extra_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type quoteRequest struct {
	CruiseID            string              `json:"cruise_id" validate:"required,uuid"`
	AdultCount          int                 `json:"adult_count" validate:"required,min=1"`
	ChildCount          int                 `json:"child_count" validate:"min=0"`
	SeniorCount         int                 `json:"senior_count" validate:"min=0"`
	CabinType           string              `json:"cabin_type" validate:"required"`
	Extras              []quoteExtraRequest `json:"extras" validate:"dive"`
	CouponCode          string              `json:"coupon_code"`
	SelectedPromotionID string              `json:"selected_promotion_id" validate:"omitempty,uuid"`
}

func (req quoteRequest) toInput() (bookings.QuoteInput, error) {
	cruiseID, err := uuid.Parse(req.CruiseID)
	if err != nil {
		return bookings.QuoteInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cruise id")
	}
	cabinType, err := enums.ParseCabinType(req.CabinType)
	if err != nil {
		return bookings.QuoteInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cabin type")
	}

	input := bookings.QuoteInput{
		CruiseID:    cruiseID,
		AdultCount:  req.AdultCount,
		ChildCount:  req.ChildCount,
		SeniorCount: req.SeniorCount,
		CabinType:   cabinType,
		CouponCode:  req.CouponCode,
	}
	for _, extra := range req.Extras {
		extraID, err := uuid.Parse(extra.ExtraID)
		if err != nil {
			return bookings.QuoteInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid extra id")
		}
		input.Extras = append(input.Extras, cruises.ExtraSelection{ExtraID: extraID, Quantity: extra.Quantity})
	}
	if req.SelectedPromotionID != "" {
		selected, err := uuid.Parse(req.SelectedPromotionID)
		if err != nil {
			return bookings.QuoteInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid promotion id")
		}
		input.SelectedPromotionID = &selected
	}
	return input, nil
}

// CreateQuote prices a cart and returns the itemized breakdown.
func CreateQuote(svc Quoter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		quote, err := svc.Quote(ctx, input, "quote")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
