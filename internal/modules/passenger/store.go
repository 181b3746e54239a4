// README: Passenger store backed by PostgreSQL.
package passenger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridecore/internal/types"
)

var ErrNotFound = errors.New("passenger not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Upsert returns the passenger for p.UserID, creating it on first use. Empty
// profile fields never overwrite stored ones.
func (s *Store) Upsert(ctx context.Context, p *Passenger) (*Passenger, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO passengers (id, user_id, name, email, phone, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			name  = COALESCE(NULLIF(EXCLUDED.name, ''), passengers.name),
			email = COALESCE(NULLIF(EXCLUDED.email, ''), passengers.email),
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), passengers.phone)
		RETURNING `+passengerColumns,
		uuid.NewString(), p.UserID, p.Name, p.Email, p.Phone, StatusActive,
	)
	return scanPassenger(row)
}

func (s *Store) GetByUserID(ctx context.Context, userID string) (*Passenger, error) {
	row := s.db.QueryRow(ctx, `SELECT `+passengerColumns+` FROM passengers WHERE user_id = $1`, userID)
	p, err := scanPassenger(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *Store) RecordRide(ctx context.Context, id types.ID, spent types.Money) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE passengers
		SET total_rides = total_rides + 1,
		    total_spent_cents = total_spent_cents + $2
		WHERE id = $1`,
		string(id), spent.Amount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const passengerColumns = `id, user_id, name, email, phone, status, total_rides, total_spent_cents, created_at`

func scanPassenger(row pgx.Row) (*Passenger, error) {
	var p Passenger
	var spent int64
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.Status,
		&p.TotalRides, &spent, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.TotalSpent = types.Money{Amount: spent, Currency: types.DefaultCurrency}
	return &p, nil
}
