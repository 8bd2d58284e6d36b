package enums

import "fmt"

type ShipperStatus string

const (
	ShipperStatusActive   ShipperStatus = "active"
	ShipperStatusDisabled ShipperStatus = "disabled"
)

var validShipperStatuses = []ShipperStatus{
	ShipperStatusActive,
	ShipperStatusDisabled,
}

// String implements fmt.Stringer.
func (s ShipperStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipperStatus.
func (s ShipperStatus) IsValid() bool {
	for _, candidate := range validShipperStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipperStatus converts raw input into a ShipperStatus.
func ParseShipperStatus(value string) (ShipperStatus, error) {
	for _, candidate := range validShipperStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipper status %q", value)
}
