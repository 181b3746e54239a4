// README: Passenger profile keyed by the identity provider's user id.
package passenger

import (
	"time"

	"ridecore/internal/types"
)

const StatusActive = "active"

type Passenger struct {
	ID         types.ID    `json:"id"`
	UserID     string      `json:"user_id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Status     string      `json:"status"`
	TotalRides int         `json:"total_rides"`
	TotalSpent types.Money `json:"total_spent"`
	CreatedAt  time.Time   `json:"created_at"`
}
