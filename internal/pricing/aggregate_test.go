package pricing

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/pkg/enums"
)

func testFare(subtotal int64) Fare {
	sub := decimal.NewFromInt(subtotal)
	return Fare{
		BaseCruiseFare: sub,
		CabinUpgrade:   decimal.Zero,
		ExtrasTotal:    decimal.Zero,
		Subtotal:       sub,
		TaxAmount:      sub.Mul(TaxRate).Round(2),
		GratuityAmount: sub.Mul(GratuityRate).Round(2),
	}
}

func fixedRule(id string, amount int64, combinable bool) PromotionRule {
	rule := activeRule(id)
	rule.DiscountValue = decimal.NewFromInt(amount)
	rule.IsCombinable = combinable
	return rule
}

func TestAggregateNoCandidates(t *testing.T) {
	t.Parallel()

	breakdown := Aggregate(BookingContext{}, testFare(2000), nil, "", testNow)

	assertMoney(t, "discount", breakdown.DiscountAmount, "0.00")
	assertMoney(t, "final total", breakdown.FinalTotal, "2430.00")
	if len(breakdown.AppliedPromotions) != 0 {
		t.Fatalf("expected no applied promotions, got %d", len(breakdown.AppliedPromotions))
	}
}

func TestAggregateCombinablePromotionsStack(t *testing.T) {
	t.Parallel()

	candidates := []PromotionRule{
		fixedRule("a", 100, true),
		fixedRule("b", 50, true),
	}
	breakdown := Aggregate(BookingContext{}, testFare(2000), candidates, "", testNow)

	assertMoney(t, "discount", breakdown.DiscountAmount, "150.00")
	if len(breakdown.AppliedPromotions) != 2 {
		t.Fatalf("expected 2 applied promotions, got %d", len(breakdown.AppliedPromotions))
	}
	assertMoney(t, "final total", breakdown.FinalTotal, "2280.00")
}

func TestAggregateSingleExclusiveByPriority(t *testing.T) {
	t.Parallel()

	low := fixedRule("low", 200, false)
	low.Priority = 1
	high := fixedRule("high", 500, false)
	high.Priority = 5

	breakdown := Aggregate(BookingContext{}, testFare(2000), []PromotionRule{high, low}, "", testNow)

	if len(breakdown.AppliedPromotions) != 1 {
		t.Fatalf("expected exactly one exclusive applied, got %d", len(breakdown.AppliedPromotions))
	}
	if breakdown.AppliedPromotions[0].ID != "low" {
		t.Fatalf("expected lowest-priority exclusive, got %s", breakdown.AppliedPromotions[0].ID)
	}
}

func TestAggregateExclusiveTieBreaks(t *testing.T) {
	t.Parallel()

	older := fixedRule("zeta", 100, false)
	older.ValidFrom = testNow.AddDate(0, -3, 0)
	newer := fixedRule("alpha", 100, false)
	newer.ValidFrom = testNow.AddDate(0, -1, 0)

	breakdown := Aggregate(BookingContext{}, testFare(2000), []PromotionRule{newer, older}, "", testNow)
	if breakdown.AppliedPromotions[0].ID != "zeta" {
		t.Fatalf("equal priority must fall back to earliest ValidFrom, got %s", breakdown.AppliedPromotions[0].ID)
	}

	// Same priority and ValidFrom: lexicographic ID decides.
	twinA := fixedRule("aaa", 100, false)
	twinB := fixedRule("bbb", 100, false)
	breakdown = Aggregate(BookingContext{}, testFare(2000), []PromotionRule{twinB, twinA}, "", testNow)
	if breakdown.AppliedPromotions[0].ID != "aaa" {
		t.Fatalf("expected lexicographic tie-break, got %s", breakdown.AppliedPromotions[0].ID)
	}
}

func TestAggregateExclusiveStacksWithCombinables(t *testing.T) {
	t.Parallel()

	candidates := []PromotionRule{
		fixedRule("excl", 300, false),
		fixedRule("comb", 100, true),
	}
	breakdown := Aggregate(BookingContext{}, testFare(2000), candidates, "", testNow)

	assertMoney(t, "discount", breakdown.DiscountAmount, "400.00")
	if len(breakdown.AppliedPromotions) != 2 {
		t.Fatalf("expected exclusive plus combinable, got %d", len(breakdown.AppliedPromotions))
	}
	if breakdown.AppliedPromotions[0].ID != "excl" {
		t.Fatalf("exclusive should apply before combinables, got %s first", breakdown.AppliedPromotions[0].ID)
	}
}

func TestAggregateSelectedPromotionForced(t *testing.T) {
	t.Parallel()

	preferred := fixedRule("preferred", 100, false)
	preferred.Priority = 9
	better := fixedRule("better", 500, false)
	better.Priority = 1

	breakdown := Aggregate(BookingContext{}, testFare(2000), []PromotionRule{better, preferred}, "preferred", testNow)

	if len(breakdown.AppliedPromotions) != 1 || breakdown.AppliedPromotions[0].ID != "preferred" {
		t.Fatalf("selected exclusive must win over higher-value deals: %+v", breakdown.AppliedPromotions)
	}
	if breakdown.SelectedRejection != nil {
		t.Fatalf("unexpected rejection: %+v", breakdown.SelectedRejection)
	}
}

func TestAggregateSelectedIneligibleSurfacesReason(t *testing.T) {
	t.Parallel()

	gated := fixedRule("gated", 100, false)
	minGuests := 6
	gated.Conditions.MinGuests = &minGuests
	other := fixedRule("other", 50, false)

	breakdown := Aggregate(BookingContext{GuestCount: 2}, testFare(2000), []PromotionRule{gated, other}, "gated", testNow)

	if breakdown.SelectedRejection == nil {
		t.Fatal("expected a rejection for the selected promotion")
	}
	if breakdown.SelectedRejection.PromotionID != "gated" {
		t.Fatalf("rejection names wrong promotion: %+v", breakdown.SelectedRejection)
	}
	// No silent substitution of another exclusive deal.
	for _, applied := range breakdown.AppliedPromotions {
		if applied.ID == "other" {
			t.Fatal("another exclusive was substituted for the rejected selection")
		}
	}
	assertMoney(t, "discount", breakdown.DiscountAmount, "0.00")
}

func TestAggregateSelectedUnknownPromotion(t *testing.T) {
	t.Parallel()

	breakdown := Aggregate(BookingContext{}, testFare(2000), []PromotionRule{fixedRule("a", 100, true)}, "ghost", testNow)

	if breakdown.SelectedRejection == nil || breakdown.SelectedRejection.Reason != ReasonNotFound {
		t.Fatalf("expected not-found rejection, got %+v", breakdown.SelectedRejection)
	}
}

func TestAggregateClipsLaterPromotionsFirst(t *testing.T) {
	t.Parallel()

	candidates := []PromotionRule{
		fixedRule("first", 700, true),
		fixedRule("second", 500, true),
	}
	breakdown := Aggregate(BookingContext{}, testFare(1000), candidates, "", testNow)

	assertMoney(t, "discount", breakdown.DiscountAmount, "1000.00")
	if len(breakdown.AppliedPromotions) != 2 {
		t.Fatalf("expected both promotions applied, got %d", len(breakdown.AppliedPromotions))
	}
	assertMoney(t, "first amount", breakdown.AppliedPromotions[0].DiscountAmount, "700.00")
	assertMoney(t, "second amount", breakdown.AppliedPromotions[1].DiscountAmount, "300.00")

	// Final total floors at tax+gratuity since discount equals subtotal.
	assertMoney(t, "final total", breakdown.FinalTotal, "215.00")
	if breakdown.FinalTotal.IsNegative() {
		t.Fatal("final total must never be negative")
	}
}

func TestAggregateDiscountNeverExceedsSubtotal(t *testing.T) {
	t.Parallel()

	candidates := []PromotionRule{
		fixedRule("a", 900, true),
		fixedRule("b", 900, true),
		fixedRule("c", 900, true),
	}
	breakdown := Aggregate(BookingContext{}, testFare(1000), candidates, "", testNow)

	if breakdown.DiscountAmount.GreaterThan(breakdown.Subtotal) {
		t.Fatalf("discount %s exceeds subtotal %s", breakdown.DiscountAmount, breakdown.Subtotal)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	t.Parallel()

	minAmount := decimal.NewFromInt(500)
	pct := activeRule("pct")
	pct.DiscountType = enums.DiscountTypePercentage
	pct.DiscountValue = decimal.NewFromInt(10)
	pct.Conditions.MinBookingAmount = &minAmount

	candidates := []PromotionRule{pct, fixedRule("fix", 75, true)}
	ctx := BookingContext{GuestCount: 2, DepartureDate: testNow.AddDate(0, 3, 0)}
	fare := ComputeFare(decimal.NewFromInt(850), decimal.NewFromFloat(1.4), 2, nil)

	first := Aggregate(ctx, fare, candidates, "", testNow)
	second := Aggregate(ctx, fare, candidates, "", testNow)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregate is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestAggregateConservation(t *testing.T) {
	t.Parallel()

	candidates := []PromotionRule{fixedRule("a", 150, true)}
	fare := testFare(2000)
	breakdown := Aggregate(BookingContext{}, fare, candidates, "", testNow)

	expected := fare.Subtotal.Add(fare.TaxAmount).Add(fare.GratuityAmount).Sub(breakdown.DiscountAmount)
	if !breakdown.FinalTotal.Equal(expected) {
		t.Fatalf("conservation violated: %s != %s", breakdown.FinalTotal, expected)
	}
}

func TestAggregateExpiredCandidateSkipped(t *testing.T) {
	t.Parallel()

	expired := fixedRule("old", 100, true)
	expired.ValidTo = testNow.Add(-time.Hour)
	expired.ValidFrom = testNow.AddDate(0, -2, 0)

	breakdown := Aggregate(BookingContext{}, testFare(2000), []PromotionRule{expired}, "", testNow)
	if len(breakdown.AppliedPromotions) != 0 {
		t.Fatalf("expired promotion must not apply: %+v", breakdown.AppliedPromotions)
	}
}
