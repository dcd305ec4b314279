package bookings

import (
	"github.com/google/uuid"

	"github.com/harborline/cruisebook-backend/internal/cruises"
	"github.com/harborline/cruisebook-backend/internal/pricing"
	"github.com/harborline/cruisebook-backend/pkg/enums"
)

// QuoteInput captures the cart a guest wants priced.
type QuoteInput struct {
	CruiseID uuid.UUID

	AdultCount  int
	ChildCount  int
	SeniorCount int

	CabinType enums.CabinType
	Extras    []cruises.ExtraSelection

	CouponCode          string
	SelectedPromotionID *uuid.UUID
}

// GuestCount is the total party size across age bands.
func (in QuoteInput) GuestCount() int {
	return in.AdultCount + in.ChildCount + in.SeniorCount
}

// CreateInput is a quote plus the lead guest identity needed to hold it.
type CreateInput struct {
	QuoteInput

	LeadGuestName  string
	LeadGuestEmail string
}

// Quote pairs the engine's breakdown with the sailing it priced.
type Quote struct {
	CruiseID  uuid.UUID                `json:"cruise_id"`
	Currency  enums.Currency           `json:"currency"`
	Breakdown pricing.PricingBreakdown `json:"breakdown"`
}
