package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/pkg/enums"
)

// Promotion is the persisted form of a staff-defined offer. Optional
// eligibility conditions are nullable columns; allow-lists are Postgres text
// arrays.
type Promotion struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`

	DiscountType  enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MaxDiscount   *decimal.Decimal   `gorm:"column:max_discount;type:numeric(12,2)"`

	MinBookingAmount   *decimal.Decimal `gorm:"column:min_booking_amount;type:numeric(12,2)"`
	MinGuests          *int             `gorm:"column:min_guests"`
	MaxGuests          *int             `gorm:"column:max_guests"`
	EarlyBookingDays   *int             `gorm:"column:early_booking_days"`
	LastMinuteDays     *int             `gorm:"column:last_minute_days"`
	RequiredCouponCode *string          `gorm:"column:required_coupon_code"`
	CruiseLines        pq.StringArray   `gorm:"column:cruise_lines;type:text[]"`
	Destinations       pq.StringArray   `gorm:"column:destinations;type:text[]"`

	ValidFrom time.Time `gorm:"column:valid_from;not null"`
	ValidTo   time.Time `gorm:"column:valid_to;not null"`

	IsActive     bool `gorm:"column:is_active;not null;default:true;index"`
	IsCombinable bool `gorm:"column:is_combinable;not null;default:false"`
	Priority     int  `gorm:"column:priority;not null;default:100"`

	// CurrentUses is incremented only on confirmed payment, never during
	// pricing.
	CurrentUses int `gorm:"column:current_uses;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Promotion) TableName() string { return "promotions" }
