package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/pkg/enums"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
)

// Conditions is the structured set of optional eligibility predicates a
// promotion may carry. Nil pointer / empty slice means the predicate is not
// part of the rule.
type Conditions struct {
	MinBookingAmount   *decimal.Decimal
	MinGuests          *int
	MaxGuests          *int
	EarlyBookingDays   *int
	LastMinuteDays     *int
	RequiredCouponCode *string
	CruiseLines        []string
	Destinations       []string
}

// Validate rejects structurally impossible condition sets at construction
// time so the evaluator never has to re-check shapes.
func (c Conditions) Validate() error {
	if c.MinBookingAmount != nil && c.MinBookingAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum booking amount must be non-negative")
	}
	if c.MinGuests != nil && *c.MinGuests < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum guest count must be non-negative")
	}
	if c.MaxGuests != nil && *c.MaxGuests < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "maximum guest count must be non-negative")
	}
	if c.MinGuests != nil && c.MaxGuests != nil && *c.MinGuests > *c.MaxGuests {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum guest count exceeds maximum")
	}
	if c.EarlyBookingDays != nil && *c.EarlyBookingDays < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "early booking days must be non-negative")
	}
	if c.LastMinuteDays != nil && *c.LastMinuteDays < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "last minute days must be non-negative")
	}
	if c.RequiredCouponCode != nil && *c.RequiredCouponCode == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "required coupon code must not be empty")
	}
	return nil
}

// PromotionRule is a staff-defined offer, evaluated against a BookingContext.
type PromotionRule struct {
	ID          string
	Name        string
	Description string

	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	// MaxDiscount caps the computed discount amount; percentage type only.
	MaxDiscount *decimal.Decimal

	Conditions Conditions

	ValidFrom time.Time
	ValidTo   time.Time

	IsActive     bool
	IsCombinable bool
	// Priority orders exclusive promotions; lower applies first.
	Priority int
}

// Validate checks rule-level invariants: date ordering, discount bounds, and
// the structured condition set.
func (r PromotionRule) Validate() error {
	if r.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion id is required")
	}
	if !r.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type")
	}
	if r.DiscountValue.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be non-negative")
	}
	if r.DiscountType == enums.DiscountTypePercentage && r.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if r.MaxDiscount != nil {
		if r.DiscountType != enums.DiscountTypePercentage {
			return pkgerrors.New(pkgerrors.CodeValidation, "max discount applies to percentage promotions only")
		}
		if r.MaxDiscount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "max discount must be non-negative")
		}
	}
	if r.ValidFrom.After(r.ValidTo) {
		return pkgerrors.New(pkgerrors.CodeValidation, "promotion valid-from must not be after valid-to")
	}
	return r.Conditions.Validate()
}
