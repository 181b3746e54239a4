// README: Driver entity as seen by the ride core.
package driver

import "ridecore/internal/types"

type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusInactive  Status = "inactive"
)

type Driver struct {
	ID                types.ID     `json:"id"`
	Status            Status       `json:"status"`
	DocumentsVerified bool         `json:"documents_verified"`
	Rating            float64      `json:"rating"`
	CurrentLocation   *types.Point `json:"current_location,omitempty"`
	VehicleType       string       `json:"vehicle_type"`
	TotalTrips        int          `json:"total_trips"`
	TotalEarnings     types.Money  `json:"total_earnings"`
}

// Eligible reports whether the driver may be offered a ride.
func (d Driver) Eligible() bool {
	return d.Status == StatusAvailable && d.DocumentsVerified
}
