// README: Driver store backed by PostgreSQL.
package driver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridecore/internal/types"
)

var ErrNotFound = errors.New("driver not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const driverColumns = `id, status, documents_verified, rating::float8, current_lat, current_lng,
	vehicle_type, total_trips, total_earnings_cents`

func (s *Store) ListAvailable(ctx context.Context) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+driverColumns+`
		FROM drivers
		WHERE status = $1 AND documents_verified = TRUE`,
		string(StatusAvailable),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, string(id))
	d, err := scanDriver(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// SetStatus flips the status only if it still equals from.
func (s *Store) SetStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		string(id), string(to), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) RecordTrip(ctx context.Context, id types.ID, earnings types.Money) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET total_trips = total_trips + 1,
		    total_earnings_cents = total_earnings_cents + $2,
		    updated_at = NOW()
		WHERE id = $1`,
		string(id), earnings.Amount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	var lat, lng sql.NullFloat64
	var earnings int64
	err := row.Scan(
		&d.ID, &d.Status, &d.DocumentsVerified, &d.Rating, &lat, &lng,
		&d.VehicleType, &d.TotalTrips, &earnings,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		d.CurrentLocation = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	d.TotalEarnings = types.Money{Amount: earnings, Currency: types.DefaultCurrency}
	return &d, nil
}
