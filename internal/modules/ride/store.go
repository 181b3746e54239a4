// README: Ride store backed by PostgreSQL.
package ride

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridecore/internal/modules/pricing"
	"ridecore/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, r *Ride) error {
	id := types.ID(uuid.NewString())
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (
			id, passenger_id, driver_id, status, status_version,
			pickup_address, pickup_lat, pickup_lng,
			dropoff_address, dropoff_lat, dropoff_lng,
			ride_type, passenger_count, fare_cents, currency,
			distance_km, duration_minutes, eta, scheduled_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18, $19, $20
		)`,
		string(id),
		string(r.PassengerID),
		toStringPtr(r.DriverID),
		string(r.Status),
		r.StatusVersion,
		r.Pickup.Address, r.Pickup.Lat, r.Pickup.Lng,
		r.Dropoff.Address, r.Dropoff.Lat, r.Dropoff.Lng,
		string(r.RideType),
		r.PassengerCount,
		r.Fare.Amount,
		r.Fare.Currency,
		r.DistanceKm,
		r.DurationMinutes,
		r.ETA,
		r.ScheduledAt,
		r.CreatedAt,
	)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

const rideColumns = `id, passenger_id, driver_id, status, status_version,
	pickup_address, pickup_lat, pickup_lng,
	dropoff_address, dropoff_lat, dropoff_lng,
	ride_type, passenger_count, fare_cents, currency,
	distance_km, duration_minutes, eta, scheduled_at, created_at, completed_at`

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func (s *PGStore) ListByPassenger(ctx context.Context, passengerID types.ID) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE passenger_id = $1
		ORDER BY created_at DESC, id DESC`,
		string(passengerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Ride{}
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGStore) AssignDriver(ctx context.Context, id types.ID, version int, driverID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET driver_id = $1,
		    status = 'active',
		    status_version = status_version + 1
		WHERE id = $2
		  AND status_version = $3
		  AND driver_id IS NULL
		  AND status IN ('requested', 'active')`,
		string(driverID),
		string(id),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, fare *types.Money, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET status = $1,
		    status_version = status_version + 1,
		    fare_cents = COALESCE($2, fare_cents),
		    completed_at = CASE WHEN $1 IN ('completed', 'cancelled') THEN $3 ELSE completed_at END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		toCentsPtr(fare),
		at,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO ride_state_events (
			ride_id, event_type, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		string(e.RideID),
		e.Type,
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	).Scan(&e.ID)
}

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	var driverID sql.NullString
	var rideType string
	var scheduledAt, completedAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.PassengerID, &driverID, &r.Status, &r.StatusVersion,
		&r.Pickup.Address, &r.Pickup.Lat, &r.Pickup.Lng,
		&r.Dropoff.Address, &r.Dropoff.Lat, &r.Dropoff.Lng,
		&rideType, &r.PassengerCount, &r.Fare.Amount, &r.Fare.Currency,
		&r.DistanceKm, &r.DurationMinutes, &r.ETA, &scheduledAt, &r.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		d := types.ID(driverID.String)
		r.DriverID = &d
	}
	r.RideType = pricing.ParseTier(rideType)
	r.ScheduledAt = toTimePtr(scheduledAt)
	r.CompletedAt = toTimePtr(completedAt)
	return &r, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toCentsPtr(v *types.Money) *int64 {
	if v == nil {
		return nil
	}
	n := v.Amount
	return &n
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
