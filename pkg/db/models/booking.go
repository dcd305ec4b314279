package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/pkg/enums"
)

// Booking is a priced reservation. Monetary columns snapshot the engine's
// breakdown at booking time; re-pricing never mutates an existing booking.
type Booking struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CruiseID uuid.UUID `gorm:"column:cruise_id;type:uuid;not null;index"`

	Status enums.BookingStatus `gorm:"column:status;not null;default:pending;index"`

	LeadGuestName  string `gorm:"column:lead_guest_name;not null"`
	LeadGuestEmail string `gorm:"column:lead_guest_email;not null"`

	AdultCount  int `gorm:"column:adult_count;not null"`
	ChildCount  int `gorm:"column:child_count;not null;default:0"`
	SeniorCount int `gorm:"column:senior_count;not null;default:0"`

	CabinType           enums.CabinType `gorm:"column:cabin_type;not null"`
	CouponCode          *string         `gorm:"column:coupon_code"`
	SelectedPromotionID *uuid.UUID      `gorm:"column:selected_promotion_id;type:uuid"`

	Currency       enums.Currency  `gorm:"column:currency;not null;default:USD"`
	BaseCruiseFare decimal.Decimal `gorm:"column:base_cruise_fare;type:numeric(12,2);not null"`
	CabinUpgrade   decimal.Decimal `gorm:"column:cabin_upgrade;type:numeric(12,2);not null"`
	ExtrasTotal    decimal.Decimal `gorm:"column:extras_total;type:numeric(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	GratuityAmount decimal.Decimal `gorm:"column:gratuity_amount;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	FinalTotal     decimal.Decimal `gorm:"column:final_total;type:numeric(12,2);not null"`

	// AppliedPromotions stores the engine's itemized list as JSON so the
	// redemption recorder knows which counters to bump on payment.
	AppliedPromotions json.RawMessage `gorm:"column:applied_promotions;type:jsonb"`

	StripePaymentIntentID *string `gorm:"column:stripe_payment_intent_id;uniqueIndex"`

	Extras []BookingExtra `gorm:"foreignKey:BookingID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Booking) TableName() string { return "bookings" }

// BookingExtra is one add-on line frozen onto a booking.
type BookingExtra struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	BookingID uuid.UUID       `gorm:"column:booking_id;type:uuid;not null;index"`
	ExtraID   uuid.UUID       `gorm:"column:extra_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
}

// TableName overrides the default pluralization.
func (BookingExtra) TableName() string { return "booking_extras" }
