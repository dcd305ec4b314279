package enums

import "fmt"

// CabinType enumerates the bookable cabin categories.
type CabinType string

const (
	CabinTypeInterior   CabinType = "interior"
	CabinTypeOceanView  CabinType = "ocean_view"
	CabinTypeBalcony    CabinType = "balcony"
	CabinTypeSuite      CabinType = "suite"
	CabinTypeOwnerSuite CabinType = "owner_suite"
)

var validCabinTypes = []CabinType{
	CabinTypeInterior,
	CabinTypeOceanView,
	CabinTypeBalcony,
	CabinTypeSuite,
	CabinTypeOwnerSuite,
}

// String implements fmt.Stringer.
func (c CabinType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CabinType.
func (c CabinType) IsValid() bool {
	for _, candidate := range validCabinTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCabinType converts raw input into a CabinType.
func ParseCabinType(value string) (CabinType, error) {
	for _, candidate := range validCabinTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cabin type %q", value)
}
