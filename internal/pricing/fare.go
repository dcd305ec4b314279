package pricing

import "github.com/shopspring/decimal"

// Canonical rates. Older surfaces disagreed (10% tax / 15% gratuity in the
// storefront re-implementations); the booking engine's 9.5% / 12% set is the
// source of truth.
var (
	TaxRate      = decimal.NewFromFloat(0.095)
	GratuityRate = decimal.NewFromFloat(0.12)
)

const moneyPlaces = 2

// Fare is the pre-discount cost decomposition of a cart.
type Fare struct {
	BaseCruiseFare decimal.Decimal
	CabinUpgrade   decimal.Decimal
	ExtrasTotal    decimal.Decimal
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	GratuityAmount decimal.Decimal
}

// ComputeFare derives the subtotal and its taxed/tipped components from raw
// cart inputs. Each derived quantity is rounded half-up to two decimals
// exactly once; components are not re-rounded cumulatively. Negative inputs
// are clamped to zero rather than rejected.
func ComputeFare(baseCruisePrice, cabinPriceModifier decimal.Decimal, guestCount int, extras []Extra) Fare {
	price := clampMoney(baseCruisePrice)
	if guestCount < 0 {
		guestCount = 0
	}
	guests := decimal.NewFromInt(int64(guestCount))

	baseFare := roundMoney(price.Mul(guests))

	one := decimal.NewFromInt(1)
	upgrade := decimal.Zero
	if cabinPriceModifier.GreaterThan(one) {
		upgrade = roundMoney(price.Mul(cabinPriceModifier.Sub(one)).Mul(guests))
	}

	extrasTotal := decimal.Zero
	for _, extra := range extras {
		if extra.Quantity <= 0 {
			continue
		}
		unit := clampMoney(extra.UnitPrice)
		extrasTotal = extrasTotal.Add(unit.Mul(decimal.NewFromInt(int64(extra.Quantity))))
	}
	extrasTotal = roundMoney(extrasTotal)

	subtotal := baseFare.Add(upgrade).Add(extrasTotal)

	return Fare{
		BaseCruiseFare: baseFare,
		CabinUpgrade:   upgrade,
		ExtrasTotal:    extrasTotal,
		Subtotal:       subtotal,
		TaxAmount:      roundMoney(subtotal.Mul(TaxRate)),
		GratuityAmount: roundMoney(subtotal.Mul(GratuityRate)),
	}
}

// roundMoney rounds half-up to two decimals. decimal.Round rounds half away
// from zero, which is half-up for the non-negative amounts handled here.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

func clampMoney(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
