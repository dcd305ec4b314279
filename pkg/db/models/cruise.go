package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborline/cruisebook-backend/pkg/enums"
)

// Cruise is a sailing available for booking.
type Cruise struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string          `gorm:"column:name;not null"`
	CruiseLine     string          `gorm:"column:cruise_line;not null;index"`
	Destination    string          `gorm:"column:destination;not null;index"`
	DeparturePort  string          `gorm:"column:departure_port;not null"`
	DepartureDate  time.Time       `gorm:"column:departure_date;not null"`
	DurationNights int             `gorm:"column:duration_nights;not null"`
	BasePrice      decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	Currency       enums.Currency  `gorm:"column:currency;not null;default:USD"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`

	Cabins []CruiseCabin `gorm:"foreignKey:CruiseID"`
	Extras []CruiseExtra `gorm:"foreignKey:CruiseID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Cruise) TableName() string { return "cruises" }

// CruiseCabin is a bookable cabin category with its fare modifier relative to
// the baseline 1.0.
type CruiseCabin struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CruiseID      uuid.UUID       `gorm:"column:cruise_id;type:uuid;not null;index"`
	CabinType     enums.CabinType `gorm:"column:cabin_type;not null"`
	PriceModifier decimal.Decimal `gorm:"column:price_modifier;type:numeric(6,3);not null;default:1.0"`
	Capacity      int             `gorm:"column:capacity;not null;default:2"`
}

// TableName overrides the default pluralization.
func (CruiseCabin) TableName() string { return "cruise_cabins" }

// CruiseExtra is a purchasable add-on offered on a sailing.
type CruiseExtra struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CruiseID  uuid.UUID       `gorm:"column:cruise_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
}

// TableName overrides the default pluralization.
func (CruiseExtra) TableName() string { return "cruise_extras" }
