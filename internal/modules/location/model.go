// README: Driver position report and the snapshot persisted for replay.
package location

import (
	"time"

	"ridecore/internal/types"
)

type Update struct {
	DriverID types.ID
	Position types.Point
}

type Snapshot struct {
	ID         int64
	DriverID   types.ID
	Position   types.Point
	Geohash    string
	RecordedAt time.Time
}
