package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Extra is a priced add-on line (shore excursion, drinks package, wifi).
type Extra struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// BookingContext is an immutable snapshot of the cart at pricing time. A new
// context is built for every evaluation (checkout load, coupon entry,
// guest-count change); it is never mutated in place.
type BookingContext struct {
	GuestCount  int
	AdultCount  int
	ChildCount  int
	SeniorCount int

	DepartureDate time.Time

	CruiseLine  string
	Destination string
	CabinType   string

	Extras []Extra

	// EnteredCouponCode is the user-supplied code, compared case-insensitively
	// against rule requirements. Empty means no code was entered.
	EnteredCouponCode string
}
