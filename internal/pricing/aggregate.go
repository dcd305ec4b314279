package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/pkg/enums"
)

// AppliedPromotion records one promotion that contributed to the final total,
// with its post-clip discount amount.
type AppliedPromotion struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	DiscountType   enums.DiscountType `json:"discount_type"`
	DiscountValue  decimal.Decimal    `json:"discount_value"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
}

// SelectedRejection explains why an explicitly requested promotion was not
// applied. Checkout surfaces the reason instead of silently substituting
// another deal.
type SelectedRejection struct {
	PromotionID string `json:"promotion_id"`
	Reason      string `json:"reason"`
}

// PricingBreakdown is the immutable result of one pricing evaluation.
type PricingBreakdown struct {
	BaseCruiseFare decimal.Decimal `json:"base_cruise_fare"`
	CabinUpgrade   decimal.Decimal `json:"cabin_upgrade"`
	ExtrasTotal    decimal.Decimal `json:"extras_total"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	GratuityAmount decimal.Decimal `json:"gratuity_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`

	AppliedPromotions []AppliedPromotion `json:"applied_promotions"`

	SelectedRejection *SelectedRejection `json:"selected_rejection,omitempty"`
}

// Aggregate selects and combines eligible promotions for the context and
// fare, producing the payable total and an itemized breakdown. An empty
// candidate list yields a full-price breakdown, never an error.
//
// selectedID, when non-empty, forces that promotion to the front: if it is
// ineligible (or unknown) its reason is surfaced via SelectedRejection and no
// other exclusive deal is substituted. Otherwise at most one exclusive
// promotion applies (lowest Priority, ties broken by earliest ValidFrom then
// lexicographic ID) alongside every eligible combinable promotion.
func Aggregate(ctx BookingContext, fare Fare, candidates []PromotionRule, selectedID string, now time.Time) PricingBreakdown {
	breakdown := PricingBreakdown{
		BaseCruiseFare:    fare.BaseCruiseFare,
		CabinUpgrade:      fare.CabinUpgrade,
		ExtrasTotal:       fare.ExtrasTotal,
		Subtotal:          fare.Subtotal,
		TaxAmount:         fare.TaxAmount,
		GratuityAmount:    fare.GratuityAmount,
		DiscountAmount:    decimal.Zero,
		AppliedPromotions: []AppliedPromotion{},
	}

	type evaluated struct {
		rule PromotionRule
		res  EligibilityResult
	}

	results := make([]evaluated, 0, len(candidates))
	byID := make(map[string]int, len(candidates))
	for i, rule := range candidates {
		results = append(results, evaluated{rule: rule, res: Evaluate(rule, ctx, fare.Subtotal, now)})
		byID[rule.ID] = i
	}

	var forced *evaluated
	if selectedID != "" {
		idx, ok := byID[selectedID]
		if !ok {
			breakdown.SelectedRejection = &SelectedRejection{PromotionID: selectedID, Reason: ReasonNotFound}
		} else if !results[idx].res.Eligible {
			breakdown.SelectedRejection = &SelectedRejection{PromotionID: selectedID, Reason: results[idx].res.Reason}
		} else {
			forced = &results[idx]
		}
	}

	applied := make([]evaluated, 0, len(results))
	if forced != nil {
		applied = append(applied, *forced)
	}

	// Auto-pick one exclusive only when nothing was explicitly selected; a
	// rejected selection must not be silently substituted.
	if selectedID == "" {
		var exclusives []evaluated
		for _, ev := range results {
			if ev.res.Eligible && !ev.rule.IsCombinable {
				exclusives = append(exclusives, ev)
			}
		}
		sort.SliceStable(exclusives, func(i, j int) bool {
			a, b := exclusives[i].rule, exclusives[j].rule
			if a.Priority != b.Priority {
				return a.Priority < b.Priority
			}
			if !a.ValidFrom.Equal(b.ValidFrom) {
				return a.ValidFrom.Before(b.ValidFrom)
			}
			return a.ID < b.ID
		})
		if len(exclusives) > 0 {
			applied = append(applied, exclusives[0])
		}
	}

	for _, ev := range results {
		if !ev.res.Eligible || !ev.rule.IsCombinable {
			continue
		}
		if forced != nil && ev.rule.ID == forced.rule.ID {
			continue
		}
		applied = append(applied, ev)
	}

	// Stable-order clipping: the discount sum may not exceed the subtotal,
	// and later-applied promotions absorb the reduction first.
	remaining := fare.Subtotal
	total := decimal.Zero
	for _, ev := range applied {
		amount := ev.res.RawDiscount
		if amount.GreaterThan(remaining) {
			amount = remaining
		}
		if !amount.IsPositive() {
			continue
		}
		remaining = remaining.Sub(amount)
		total = total.Add(amount)
		breakdown.AppliedPromotions = append(breakdown.AppliedPromotions, AppliedPromotion{
			ID:             ev.rule.ID,
			Name:           ev.rule.Name,
			DiscountType:   ev.rule.DiscountType,
			DiscountValue:  ev.rule.DiscountValue,
			DiscountAmount: amount,
		})
	}

	breakdown.DiscountAmount = total
	final := fare.Subtotal.Add(fare.TaxAmount).Add(fare.GratuityAmount).Sub(total)
	if final.IsNegative() {
		final = decimal.Zero
	}
	breakdown.FinalTotal = final
	return breakdown
}
