package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"ridecore/internal/http/middleware"
	"ridecore/internal/infra"
	"ridecore/internal/modules/pricing"
	"ridecore/internal/modules/ride"
	"ridecore/internal/types"
)

// tokenVerifier treats the raw token as "<uid>" or "<role>:<uid>".
type tokenVerifier struct{}

func (tokenVerifier) VerifyIDToken(_ context.Context, raw string) (*infra.VerifiedToken, error) {
	if raw == "bad" {
		return nil, errors.New("bad token")
	}
	claims := map[string]interface{}{}
	uid := raw
	if role, rest, ok := strings.Cut(raw, ":"); ok {
		claims["role"] = role
		uid = rest
	}
	return &infra.VerifiedToken{UID: uid, Claims: claims}, nil
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(tokenVerifier{}))
	return r
}

func doRequest(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// fakeLifecycle is an in-memory ride service keyed by user id.
type fakeLifecycle struct {
	mu        sync.Mutex
	seq       int
	byUser    map[string][]*ride.Ride
	requests  []ride.RideRequest
	completed map[types.ID]*types.Money
	listErr   error
}

func newFakeLifecycle() *fakeLifecycle {
	return &fakeLifecycle{byUser: map[string][]*ride.Ride{}, completed: map[types.ID]*types.Money{}}
}

func (f *fakeLifecycle) RequestRide(_ context.Context, userID string, req ride.RideRequest) (*ride.Ride, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.seq++
	r := &ride.Ride{
		ID:             types.ID(fmt.Sprintf("ride-%d", f.seq)),
		PassengerID:    types.ID("pas-" + userID),
		Status:         ride.StatusActive,
		Pickup:         req.Pickup,
		Dropoff:        req.Destination,
		RideType:       req.RideType,
		PassengerCount: req.PassengerCount,
		Fare:           types.Cents(12.34),
	}
	f.byUser[userID] = append([]*ride.Ride{r}, f.byUser[userID]...)
	cp := *r
	return &cp, nil
}

func (f *fakeLifecycle) find(id types.ID) *ride.Ride {
	for _, rides := range f.byUser {
		for _, r := range rides {
			if r.ID == id {
				return r
			}
		}
	}
	return nil
}

func (f *fakeLifecycle) CancelRide(_ context.Context, id types.ID) error {
	return f.close(id, ride.StatusCancelled, nil)
}

func (f *fakeLifecycle) CompleteRide(_ context.Context, id types.ID, fare *types.Money) error {
	if fare != nil && fare.Amount < 0 {
		return fmt.Errorf("%w: negative fare", ride.ErrValidation)
	}
	return f.close(id, ride.StatusCompleted, fare)
}

func (f *fakeLifecycle) close(id types.ID, to ride.Status, fare *types.Money) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.find(id)
	if r == nil {
		return ride.ErrNotFound
	}
	if r.Status.Terminal() {
		return ride.ErrAlreadyTerminal
	}
	r.Status = to
	if to == ride.StatusCompleted {
		f.completed[id] = fare
	}
	return nil
}

func (f *fakeLifecycle) GetRouteEstimate(_ context.Context, pickup, destination types.Location, tier pricing.Tier) (ride.RouteEstimate, error) {
	req := ride.RideRequest{Pickup: pickup, Destination: destination, PassengerCount: 1}
	if err := req.Validate(); err != nil {
		return ride.RouteEstimate{}, err
	}
	fare := types.Cents(10)
	if tier == pricing.TierLuxury {
		fare = types.Cents(22)
	}
	return ride.RouteEstimate{DistanceKm: 3.2, DurationMinutes: 8, Fare: fare, ETA: "7 min"}, nil
}

func (f *fakeLifecycle) GetUserRides(_ context.Context, userID string) ([]*ride.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	rides, ok := f.byUser[userID]
	if !ok {
		return nil, ride.ErrNotFound
	}
	out := make([]*ride.Ride, 0, len(rides))
	for _, r := range rides {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

type stubGeocoder struct {
	byAddress map[string]types.Location
}

func (g stubGeocoder) Geocode(_ context.Context, address string) (types.Location, error) {
	loc, ok := g.byAddress[address]
	if !ok {
		return types.Location{}, errors.New("address not found")
	}
	return loc, nil
}
