// README: Ride service implements the ride state machine and its side effects on drivers and passengers.
package ride

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ridecore/internal/modules/driver"
	"ridecore/internal/modules/location"
	"ridecore/internal/modules/passenger"
	"ridecore/internal/modules/pricing"
	"ridecore/internal/types"
)

var (
	ErrValidation      = errors.New("invalid ride request")
	ErrNotFound        = errors.New("ride not found")
	ErrAlreadyTerminal = errors.New("ride already completed or cancelled")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrConflict        = errors.New("ride state conflict")
	ErrStore           = errors.New("ride store unavailable")
)

type Store interface {
	// Create assigns r.ID.
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	// ListByPassenger returns rides newest first.
	ListByPassenger(ctx context.Context, passengerID types.ID) ([]*Ride, error)
	AssignDriver(ctx context.Context, id types.ID, version int, driverID types.ID) (bool, error)
	// UpdateStatus also stamps completed_at when to is terminal; a nil fare keeps the stored one.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, fare *types.Money, at time.Time) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type DriverStore interface {
	SetStatus(ctx context.Context, id types.ID, from, to driver.Status) (bool, error)
	RecordTrip(ctx context.Context, id types.ID, earnings types.Money) error
}

type PassengerStore interface {
	Upsert(ctx context.Context, p *passenger.Passenger) (*passenger.Passenger, error)
	GetByUserID(ctx context.Context, userID string) (*passenger.Passenger, error)
	RecordRide(ctx context.Context, id types.ID, spent types.Money) error
}

type Pricing interface {
	Quote(ctx context.Context, distanceKm float64, durationMin int, tier pricing.Tier) types.Money
}

type Locator interface {
	FindNearby(ctx context.Context, pickup types.Point, maxDistanceKm float64) ([]driver.Driver, error)
}

type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

type Deps struct {
	Store      Store
	Drivers    DriverStore
	Passengers PassengerStore
	Pricing    Pricing
	Locator    Locator
	// Publisher is optional.
	Publisher Publisher
	Logger    *slog.Logger
	// RadiusKm bounds driver search; zero uses the locator default.
	RadiusKm float64
}

type Service struct {
	store      Store
	drivers    DriverStore
	passengers PassengerStore
	pricing    Pricing
	locator    Locator
	publisher  Publisher
	log        *slog.Logger
	radiusKm   float64
	now        func() time.Time
}

func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:      d.Store,
		drivers:    d.Drivers,
		passengers: d.Passengers,
		pricing:    d.Pricing,
		locator:    d.Locator,
		publisher:  d.Publisher,
		log:        log.With("module", "ride"),
		radiusKm:   d.RadiusKm,
		now:        time.Now,
	}
}

// RequestRide persists a new active ride for userID and tries to attach a driver.
// A ride is returned even when no driver could be assigned.
func (s *Service) RequestRide(ctx context.Context, userID string, req RideRequest) (*Ride, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tier := pricing.ParseTier(string(req.RideType))

	p, err := s.passengers.Upsert(ctx, &passenger.Passenger{UserID: userID})
	if err != nil {
		return nil, storeErr("upsert passenger", err)
	}

	est := s.estimate(ctx, req.Pickup.Point(), req.Destination.Point(), tier)
	now := s.now()
	r := &Ride{
		PassengerID:     p.ID,
		Status:          StatusActive,
		Pickup:          req.Pickup,
		Dropoff:         req.Destination,
		RideType:        tier,
		PassengerCount:  req.PassengerCount,
		Fare:            est.Fare,
		DistanceKm:      est.DistanceKm,
		DurationMinutes: est.DurationMinutes,
		ETA:             est.ETA,
		ScheduledAt:     req.ScheduledTime,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, storeErr("create ride", err)
	}
	s.recordEvent(ctx, &Event{
		RideID:     r.ID,
		Type:       EventRequested,
		FromStatus: StatusNone,
		ToStatus:   StatusActive,
		ActorType:  ActorPassenger,
		ActorID:    &p.ID,
		CreatedAt:  now,
	})

	assigned, err := s.assignDriver(ctx, r.ID)
	if err != nil {
		s.log.Warn("driver assignment failed", "ride_id", r.ID, "error", err)
		return r, nil
	}
	return assigned, nil
}

// assignDriver claims the best candidate near the pickup. No candidate is not an error.
func (s *Service) assignDriver(ctx context.Context, id types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.DriverID != nil || r.Status.Terminal() || s.locator == nil {
		return r, nil
	}

	candidates, err := s.locator.FindNearby(ctx, r.Pickup.Point(), s.radiusKm)
	if err != nil {
		return nil, fmt.Errorf("find nearby drivers: %w", err)
	}
	for _, d := range candidates {
		claimed, err := s.drivers.SetStatus(ctx, d.ID, driver.StatusAvailable, driver.StatusBusy)
		if err != nil {
			return nil, fmt.Errorf("claim driver %s: %w", d.ID, err)
		}
		if !claimed {
			// taken by a concurrent assignment
			continue
		}

		ok, err := s.store.AssignDriver(ctx, r.ID, r.StatusVersion, d.ID)
		if err != nil || !ok {
			s.releaseDriverQuietly(ctx, d.ID)
			if err != nil {
				return nil, fmt.Errorf("assign driver %s: %w", d.ID, err)
			}
			return nil, ErrConflict
		}

		driverID := d.ID
		r.DriverID = &driverID
		r.Status = StatusActive
		r.StatusVersion++
		s.recordEvent(ctx, &Event{
			RideID:     r.ID,
			Type:       EventDriverAssigned,
			FromStatus: StatusActive,
			ToStatus:   StatusActive,
			ActorType:  ActorSystem,
			ActorID:    &driverID,
			CreatedAt:  s.now(),
		})
		s.log.Info("driver assigned", "ride_id", r.ID, "driver_id", driverID)
		return r, nil
	}

	s.log.Info("no driver available", "ride_id", r.ID, "candidates", len(candidates))
	return r, nil
}

// CancelRide moves a non-terminal ride to cancelled and frees its driver.
func (s *Service) CancelRide(ctx context.Context, id types.ID) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkTransition(r.Status, StatusCancelled); err != nil {
		return err
	}

	now := s.now()
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, StatusCancelled, r.StatusVersion, nil, now)
	if err != nil {
		return storeErr("cancel ride", err)
	}
	if !ok {
		return ErrConflict
	}
	s.recordEvent(ctx, &Event{
		RideID:     r.ID,
		Type:       EventCancelled,
		FromStatus: r.Status,
		ToStatus:   StatusCancelled,
		ActorType:  ActorPassenger,
		ActorID:    &r.PassengerID,
		CreatedAt:  now,
	})

	if r.DriverID != nil {
		if err := s.releaseDriver(ctx, *r.DriverID); err != nil {
			return storeErr("release driver", err)
		}
	}
	return nil
}

// CompleteRide closes a non-terminal ride. actualFare, when set, replaces the estimate.
// Trip and spend counters are updated best-effort.
func (s *Service) CompleteRide(ctx context.Context, id types.ID, actualFare *types.Money) error {
	if actualFare != nil && actualFare.Amount < 0 {
		return fmt.Errorf("%w: actual fare must not be negative", ErrValidation)
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkTransition(r.Status, StatusCompleted); err != nil {
		return err
	}

	fare := r.Fare
	var override *types.Money
	if actualFare != nil {
		fare = types.Money{Amount: actualFare.Amount, Currency: r.Fare.Currency}
		override = &fare
	}

	now := s.now()
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, StatusCompleted, r.StatusVersion, override, now)
	if err != nil {
		return storeErr("complete ride", err)
	}
	if !ok {
		return ErrConflict
	}
	s.recordEvent(ctx, &Event{
		RideID:     r.ID,
		Type:       EventCompleted,
		FromStatus: r.Status,
		ToStatus:   StatusCompleted,
		ActorType:  ActorPassenger,
		ActorID:    &r.PassengerID,
		CreatedAt:  now,
	})

	if err := s.passengers.RecordRide(ctx, r.PassengerID, fare); err != nil {
		s.log.Warn("passenger stats update skipped", "ride_id", r.ID, "passenger_id", r.PassengerID, "error", err)
	}
	if r.DriverID == nil {
		return nil
	}
	if err := s.drivers.RecordTrip(ctx, *r.DriverID, fare); err != nil {
		s.log.Warn("driver stats update skipped", "ride_id", r.ID, "driver_id", *r.DriverID, "error", err)
	}
	if err := s.releaseDriver(ctx, *r.DriverID); err != nil {
		return storeErr("release driver", err)
	}
	return nil
}

// GetRouteEstimate prices a trip exactly as RequestRide would, without persisting anything.
func (s *Service) GetRouteEstimate(ctx context.Context, pickup, destination types.Location, tier pricing.Tier) (RouteEstimate, error) {
	if err := validateStop("pickup", pickup); err != nil {
		return RouteEstimate{}, err
	}
	if err := validateStop("destination", destination); err != nil {
		return RouteEstimate{}, err
	}
	return s.estimate(ctx, pickup.Point(), destination.Point(), pricing.ParseTier(string(tier))), nil
}

// GetUserRides returns the user's rides newest first.
func (s *Service) GetUserRides(ctx context.Context, userID string) ([]*Ride, error) {
	p, err := s.passengers.GetByUserID(ctx, userID)
	if errors.Is(err, passenger.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get passenger", err)
	}
	rides, err := s.store.ListByPassenger(ctx, p.ID)
	if err != nil {
		return nil, storeErr("list rides", err)
	}
	return rides, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	r, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get ride", err)
	}
	return r, nil
}

func (s *Service) estimate(ctx context.Context, a, b types.Point, tier pricing.Tier) RouteEstimate {
	km := location.DistanceKm(a, b)
	minutes := location.EstimatedDurationMinutes(km)
	return RouteEstimate{
		DistanceKm:      km,
		DurationMinutes: minutes,
		Fare:            s.pricing.Quote(ctx, km, minutes, tier),
		ETA:             location.EstimatedArrival(km),
	}
}

// releaseDriver only touches a driver this ride made busy.
func (s *Service) releaseDriver(ctx context.Context, id types.ID) error {
	ok, err := s.drivers.SetStatus(ctx, id, driver.StatusBusy, driver.StatusAvailable)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Info("driver no longer busy, status left unchanged", "driver_id", id)
	}
	return nil
}

func (s *Service) releaseDriverQuietly(ctx context.Context, id types.ID) {
	if err := s.releaseDriver(ctx, id); err != nil {
		s.log.Warn("driver release failed", "driver_id", id, "error", err)
	}
}

// recordEvent writes the audit trail and publishes it; both are best-effort.
func (s *Service) recordEvent(ctx context.Context, e *Event) {
	if err := s.store.AppendEvent(ctx, e); err != nil {
		s.log.Warn("append ride event failed", "ride_id", e.RideID, "event", e.Type, "error", err)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("publish ride event failed", "ride_id", e.RideID, "event", e.Type, "error", err)
	}
}

func checkTransition(from, to Status) error {
	if from.Terminal() {
		return ErrAlreadyTerminal
	}
	if !CanTransition(from, to) {
		return ErrInvalidState
	}
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
