package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/pkg/enums"
)

func TestRuleValidate(t *testing.T) {
	t.Parallel()

	valid := activeRule("ok")
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inverted := activeRule("inverted")
	inverted.ValidFrom = inverted.ValidTo.AddDate(0, 1, 0)
	if err := inverted.Validate(); err == nil {
		t.Fatal("expected error for valid-from after valid-to")
	}

	over := activeRule("over")
	over.DiscountType = enums.DiscountTypePercentage
	over.DiscountValue = decimal.NewFromInt(130)
	if err := over.Validate(); err == nil {
		t.Fatal("expected error for percentage above 100")
	}

	capped := activeRule("capped-fixed")
	cap := decimal.NewFromInt(50)
	capped.MaxDiscount = &cap
	if err := capped.Validate(); err == nil {
		t.Fatal("max discount on a fixed promotion must be rejected")
	}
}

func TestConditionsValidate(t *testing.T) {
	t.Parallel()

	minG, maxG := 6, 2
	bad := Conditions{MinGuests: &minG, MaxGuests: &maxG}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error when min guests exceeds max")
	}

	negative := -1
	if err := (Conditions{EarlyBookingDays: &negative}).Validate(); err == nil {
		t.Fatal("expected error for negative early booking days")
	}

	empty := ""
	if err := (Conditions{RequiredCouponCode: &empty}).Validate(); err == nil {
		t.Fatal("expected error for empty coupon code")
	}
}
