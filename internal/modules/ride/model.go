// README: Ride aggregate, request input and status definitions.
package ride

import (
	"fmt"
	"time"

	"ridecore/internal/modules/pricing"
	"ridecore/internal/types"
)

type Status string

// Searching and in-service phases share StatusActive in the persisted model.
const (
	StatusNone      Status = "none"
	StatusRequested Status = "requested"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Ride struct {
	ID              types.ID       `json:"id"`
	PassengerID     types.ID       `json:"passenger_id"`
	DriverID        *types.ID      `json:"driver_id"`
	Status          Status         `json:"status"`
	StatusVersion   int            `json:"status_version"`
	Pickup          types.Location `json:"pickup"`
	Dropoff         types.Location `json:"dropoff"`
	RideType        pricing.Tier   `json:"ride_type"`
	PassengerCount  int            `json:"passenger_count"`
	Fare            types.Money    `json:"fare"`
	DistanceKm      float64        `json:"distance_km"`
	DurationMinutes int            `json:"duration_minutes"`
	ETA             string         `json:"eta"`
	ScheduledAt     *time.Time     `json:"scheduled_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	CompletedAt     *time.Time     `json:"completed_at"`
}

type RideRequest struct {
	Pickup         types.Location
	Destination    types.Location
	RideType       pricing.Tier
	PassengerCount int
	ScheduledTime  *time.Time
}

func (r RideRequest) Validate() error {
	if err := validateStop("pickup", r.Pickup); err != nil {
		return err
	}
	if err := validateStop("destination", r.Destination); err != nil {
		return err
	}
	if r.PassengerCount < 1 {
		return fmt.Errorf("%w: passenger count must be positive", ErrValidation)
	}
	return nil
}

// validateStop rejects absent or out-of-range coordinates; (0,0) counts as absent.
func validateStop(name string, l types.Location) error {
	if l.Lat == 0 && l.Lng == 0 {
		return fmt.Errorf("%w: %s is required", ErrValidation, name)
	}
	if !l.Point().Valid() {
		return fmt.Errorf("%w: %s coordinates out of range", ErrValidation, name)
	}
	return nil
}

type RouteEstimate struct {
	DistanceKm      float64     `json:"distance_km"`
	DurationMinutes int         `json:"duration_minutes"`
	Fare            types.Money `json:"fare"`
	ETA             string      `json:"eta"`
}

const (
	EventRequested      = "requested"
	EventDriverAssigned = "driver_assigned"
	EventCancelled      = "cancelled"
	EventCompleted      = "completed"
)

const (
	ActorPassenger = "passenger"
	ActorSystem    = "system"
)

type Event struct {
	ID         int64     `json:"-"`
	RideID     types.ID  `json:"ride_id"`
	Type       string    `json:"type"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ActorType  string    `json:"actor_type"`
	ActorID    *types.ID `json:"actor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AllowedTransitions represents the ride state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusRequested: {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
