package promotions

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/internal/pricing"
	"github.com/harborline/cruisebook-backend/pkg/db/models"
	"github.com/harborline/cruisebook-backend/pkg/enums"
)

// UpsertInput is the payload required to create or update a promotion.
type UpsertInput struct {
	Name        string
	Description string

	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	MaxDiscount   *decimal.Decimal

	MinBookingAmount   *decimal.Decimal
	MinGuests          *int
	MaxGuests          *int
	EarlyBookingDays   *int
	LastMinuteDays     *int
	RequiredCouponCode *string
	CruiseLines        []string
	Destinations       []string

	ValidFrom time.Time
	ValidTo   time.Time

	IsActive     bool
	IsCombinable bool
	Priority     int
}

func (in UpsertInput) apply(promo *models.Promotion) {
	promo.Name = in.Name
	promo.Description = in.Description
	promo.DiscountType = in.DiscountType
	promo.DiscountValue = in.DiscountValue
	promo.MaxDiscount = in.MaxDiscount
	promo.MinBookingAmount = in.MinBookingAmount
	promo.MinGuests = in.MinGuests
	promo.MaxGuests = in.MaxGuests
	promo.EarlyBookingDays = in.EarlyBookingDays
	promo.LastMinuteDays = in.LastMinuteDays
	promo.RequiredCouponCode = in.RequiredCouponCode
	promo.CruiseLines = pq.StringArray(in.CruiseLines)
	promo.Destinations = pq.StringArray(in.Destinations)
	promo.ValidFrom = in.ValidFrom
	promo.ValidTo = in.ValidTo
	promo.IsActive = in.IsActive
	promo.IsCombinable = in.IsCombinable
	promo.Priority = in.Priority
}

// RuleFromModel converts a persisted promotion into the engine's rule form.
func RuleFromModel(promo models.Promotion) pricing.PromotionRule {
	return pricing.PromotionRule{
		ID:            promo.ID.String(),
		Name:          promo.Name,
		Description:   promo.Description,
		DiscountType:  promo.DiscountType,
		DiscountValue: promo.DiscountValue,
		MaxDiscount:   promo.MaxDiscount,
		Conditions: pricing.Conditions{
			MinBookingAmount:   promo.MinBookingAmount,
			MinGuests:          promo.MinGuests,
			MaxGuests:          promo.MaxGuests,
			EarlyBookingDays:   promo.EarlyBookingDays,
			LastMinuteDays:     promo.LastMinuteDays,
			RequiredCouponCode: promo.RequiredCouponCode,
			CruiseLines:        []string(promo.CruiseLines),
			Destinations:       []string(promo.Destinations),
		},
		ValidFrom:    promo.ValidFrom,
		ValidTo:      promo.ValidTo,
		IsActive:     promo.IsActive,
		IsCombinable: promo.IsCombinable,
		Priority:     promo.Priority,
	}
}

// RulesFromModels converts a promotion list, preserving order.
func RulesFromModels(promos []models.Promotion) []pricing.PromotionRule {
	rules := make([]pricing.PromotionRule, 0, len(promos))
	for _, promo := range promos {
		rules = append(rules, RuleFromModel(promo))
	}
	return rules
}
