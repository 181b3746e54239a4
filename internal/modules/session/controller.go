// README: Per-user ride session state (ride list, active ride, busy flag) over the ride service.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"ridecore/internal/modules/pricing"
	"ridecore/internal/modules/ride"
	"ridecore/internal/types"
)

type Lifecycle interface {
	RequestRide(ctx context.Context, userID string, req ride.RideRequest) (*ride.Ride, error)
	CancelRide(ctx context.Context, id types.ID) error
	CompleteRide(ctx context.Context, id types.ID, actualFare *types.Money) error
	GetRouteEstimate(ctx context.Context, pickup, destination types.Location, tier pricing.Tier) (ride.RouteEstimate, error)
	GetUserRides(ctx context.Context, userID string) ([]*ride.Ride, error)
}

// Controller is safe for concurrent use. Mutations are not serialized against
// each other; each refreshes state when it finishes.
type Controller struct {
	svc    Lifecycle
	userID string
	log    *slog.Logger

	mu      sync.Mutex
	rides   []*ride.Ride
	active  *ride.Ride
	pending int
}

func NewController(svc Lifecycle, userID string, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{svc: svc, userID: userID, log: log.With("user_id", userID)}
}

func (c *Controller) UserID() string { return c.userID }

func (c *Controller) Rides() []*ride.Ride {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ride.Ride, len(c.rides))
	for i, r := range c.rides {
		out[i] = cloneRide(r)
	}
	return out
}

func (c *Controller) ActiveRide() *ride.Ride {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRide(c.active)
}

func (c *Controller) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending > 0
}

func (c *Controller) RequestRide(ctx context.Context, req ride.RideRequest) (*ride.Ride, error) {
	done := c.begin()
	defer done()

	r, err := c.svc.RequestRide(ctx, c.userID, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.active = r
	c.rides = append([]*ride.Ride{r}, c.rides...)
	c.mu.Unlock()
	return cloneRide(r), nil
}

func (c *Controller) CancelRide(ctx context.Context, id types.ID) error {
	done := c.begin()
	defer done()

	if err := c.ensureOwned(ctx, id); err != nil {
		return err
	}
	if err := c.svc.CancelRide(ctx, id); err != nil {
		return err
	}
	c.afterClose(ctx)
	return nil
}

func (c *Controller) CompleteRide(ctx context.Context, id types.ID, actualFare *types.Money) error {
	done := c.begin()
	defer done()

	if err := c.ensureOwned(ctx, id); err != nil {
		return err
	}
	if err := c.svc.CompleteRide(ctx, id, actualFare); err != nil {
		return err
	}
	c.afterClose(ctx)
	return nil
}

func (c *Controller) GetRouteEstimate(ctx context.Context, pickup, destination types.Location, tier pricing.Tier) (ride.RouteEstimate, error) {
	return c.svc.GetRouteEstimate(ctx, pickup, destination, tier)
}

// LoadRides replaces the session state with the stored rides. A user who has
// never requested a ride has an empty list.
func (c *Controller) LoadRides(ctx context.Context) ([]*ride.Ride, error) {
	rides, err := c.svc.GetUserRides(ctx, c.userID)
	if errors.Is(err, ride.ErrNotFound) {
		rides, err = []*ride.Ride{}, nil
	}
	if err != nil {
		return nil, err
	}

	var active *ride.Ride
	for _, r := range rides {
		if r.Status == ride.StatusActive {
			active = r
			break
		}
	}

	c.mu.Lock()
	c.rides = rides
	c.active = active
	c.mu.Unlock()
	return c.Rides(), nil
}

func (c *Controller) begin() func() {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.pending--
		c.mu.Unlock()
	}
}

func (c *Controller) afterClose(ctx context.Context) {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
	if _, err := c.LoadRides(ctx); err != nil {
		c.log.Warn("ride refresh failed", "error", err)
	}
}

// ensureOwned rejects ride ids outside this user's history, reloading once on a miss.
func (c *Controller) ensureOwned(ctx context.Context, id types.ID) error {
	if c.owns(id) {
		return nil
	}
	if _, err := c.LoadRides(ctx); err != nil {
		return err
	}
	if !c.owns(id) {
		return ride.ErrNotFound
	}
	return nil
}

func (c *Controller) owns(id types.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.rides {
		if r.ID == id {
			return true
		}
	}
	return false
}

func cloneRide(r *ride.Ride) *ride.Ride {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
