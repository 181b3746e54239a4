// README: Location store backed by Redis GEO and Postgres (driver row + snapshots).
package location

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ridecore/internal/types"
)

const driverGeoKey = "geo:drivers"

var ErrUnknownDriver = errors.New("unknown driver")

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// SetDriverPosition records the last known position on the driver row read by the locator.
func (s *Store) SetDriverPosition(ctx context.Context, id types.ID, pos types.Point) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET current_lat = $2, current_lng = $3, location_updated_at = NOW()
		WHERE id = $1`,
		string(id), pos.Lat, pos.Lng,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownDriver
	}
	return nil
}

func (s *Store) SetGeo(ctx context.Context, id types.ID, pos types.Point) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (s *Store) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO location_snapshots (driver_id, lat, lng, geohash, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(snap.DriverID), snap.Position.Lat, snap.Position.Lng, snap.Geohash, snap.RecordedAt,
	)
	return err
}
