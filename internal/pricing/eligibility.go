package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/pkg/enums"
)

// Reason strings are user-facing; callers display them verbatim.
const (
	ReasonInactive      = "promotion inactive"
	ReasonExpired       = "promotion expired"
	ReasonNotYetActive  = "promotion not yet active"
	ReasonInvalidCoupon = "Invalid or missing coupon code"
	ReasonNotFound      = "promotion not found"
)

// EligibilityResult is the outcome of evaluating one rule against one
// booking context. RawDiscount is the pre-aggregation discount amount and is
// only meaningful when Eligible is true.
type EligibilityResult struct {
	Eligible    bool
	Reason      string
	RawDiscount decimal.Decimal
}

func ineligible(reason string) EligibilityResult {
	return EligibilityResult{Eligible: false, Reason: reason}
}

// Evaluate decides whether a rule applies to the context and subtotal at the
// given instant. Checks short-circuit in a fixed order so the first failing
// condition produces the reason. The function is pure: time is an explicit
// argument and no state is touched, so repeated calls with equal inputs
// return equal results.
func Evaluate(rule PromotionRule, ctx BookingContext, subtotal decimal.Decimal, now time.Time) EligibilityResult {
	if !rule.IsActive {
		return ineligible(ReasonInactive)
	}
	if now.Before(rule.ValidFrom) {
		return ineligible(ReasonNotYetActive)
	}
	if now.After(rule.ValidTo) {
		return ineligible(ReasonExpired)
	}

	cond := rule.Conditions

	if cond.MinBookingAmount != nil && subtotal.LessThan(*cond.MinBookingAmount) {
		return ineligible(fmt.Sprintf(
			"Minimum booking amount of $%s required. Current: $%s",
			cond.MinBookingAmount.StringFixed(2), subtotal.StringFixed(2)))
	}
	if cond.MinGuests != nil && ctx.GuestCount < *cond.MinGuests {
		return ineligible(fmt.Sprintf(
			"Requires at least %d guests, have %d", *cond.MinGuests, ctx.GuestCount))
	}
	if cond.MaxGuests != nil && ctx.GuestCount > *cond.MaxGuests {
		return ineligible(fmt.Sprintf(
			"Limited to at most %d guests, have %d", *cond.MaxGuests, ctx.GuestCount))
	}

	if cond.EarlyBookingDays != nil || cond.LastMinuteDays != nil {
		days := daysUntilDeparture(ctx.DepartureDate, now)
		if cond.EarlyBookingDays != nil && days < *cond.EarlyBookingDays {
			return ineligible(fmt.Sprintf(
				"Requires booking at least %d days before departure; only %d days remain",
				*cond.EarlyBookingDays, days))
		}
		if cond.LastMinuteDays != nil && days > *cond.LastMinuteDays {
			return ineligible(fmt.Sprintf(
				"Offer valid only within %d days of departure; departure is %d days away",
				*cond.LastMinuteDays, days))
		}
	}

	if cond.RequiredCouponCode != nil {
		if ctx.EnteredCouponCode == "" || !strings.EqualFold(ctx.EnteredCouponCode, *cond.RequiredCouponCode) {
			return ineligible(ReasonInvalidCoupon)
		}
	}
	if len(cond.CruiseLines) > 0 && !containsFold(cond.CruiseLines, ctx.CruiseLine) {
		return ineligible(fmt.Sprintf("Not valid for cruise line %q", ctx.CruiseLine))
	}
	if len(cond.Destinations) > 0 && !containsFold(cond.Destinations, ctx.Destination) {
		return ineligible(fmt.Sprintf("Not valid for destination %q", ctx.Destination))
	}

	return EligibilityResult{Eligible: true, RawDiscount: rawDiscount(rule, subtotal)}
}

// rawDiscount computes the pre-aggregation discount, clipped to the rule's
// cap and to [0, subtotal] so a single promotion can never exceed the order.
func rawDiscount(rule PromotionRule, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch rule.DiscountType {
	case enums.DiscountTypePercentage:
		discount = roundMoney(subtotal.Mul(rule.DiscountValue).Div(decimal.NewFromInt(100)))
		if rule.MaxDiscount != nil && discount.GreaterThan(*rule.MaxDiscount) {
			discount = *rule.MaxDiscount
		}
	case enums.DiscountTypeFixed:
		discount = rule.DiscountValue
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

// daysUntilDeparture is ceil((departure - now) / 24h). Past departures yield
// zero or negative day counts.
func daysUntilDeparture(departure, now time.Time) int {
	diff := departure.Sub(now)
	day := 24 * time.Hour
	days := int(diff / day)
	if diff%day > 0 {
		days++
	}
	return days
}

func containsFold(haystack []string, needle string) bool {
	for _, candidate := range haystack {
		if strings.EqualFold(candidate, needle) {
			return true
		}
	}
	return false
}
