// README: Location service records driver position reports.
package location

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcloughlin/geohash"

	"ridecore/internal/types"
)

// snapshotPrecision 7 is roughly a 150m cell.
const snapshotPrecision = 7

var ErrInvalidPosition = errors.New("invalid position")

type positionStore interface {
	SetDriverPosition(ctx context.Context, id types.ID, pos types.Point) error
	SetGeo(ctx context.Context, id types.ID, pos types.Point) error
	AppendSnapshot(ctx context.Context, snap Snapshot) error
}

type Service struct {
	store positionStore
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store positionStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Update stores the driver's position. The driver row is authoritative; the GEO
// index and snapshot trail are written best-effort.
func (s *Service) Update(ctx context.Context, u Update) error {
	if u.DriverID == "" || !u.Position.Valid() {
		return ErrInvalidPosition
	}
	if err := s.store.SetDriverPosition(ctx, u.DriverID, u.Position); err != nil {
		return err
	}
	if err := s.store.SetGeo(ctx, u.DriverID, u.Position); err != nil {
		s.log.Warn("geo index update failed", "driver_id", u.DriverID, "error", err)
	}
	if err := s.FlushSnapshot(ctx, u); err != nil {
		s.log.Warn("location snapshot failed", "driver_id", u.DriverID, "error", err)
	}
	return nil
}

func (s *Service) FlushSnapshot(ctx context.Context, u Update) error {
	snap := Snapshot{
		DriverID:   u.DriverID,
		Position:   u.Position,
		Geohash:    geohash.EncodeWithPrecision(u.Position.Lat, u.Position.Lng, snapshotPrecision),
		RecordedAt: s.now(),
	}
	return s.store.AppendSnapshot(ctx, snap)
}
