package ride

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ridecore/internal/modules/driver"
	"ridecore/internal/modules/passenger"
	"ridecore/internal/types"
)

// ---------------------------------------------------------------------------
// In-memory fakes for the store interfaces
// ---------------------------------------------------------------------------

type memRideStore struct {
	mu     sync.Mutex
	seq    int
	rides  map[types.ID]*Ride
	events []Event

	createErr error
	getErr    error
	listErr   error
	updateErr error
	eventErr  error
}

func newMemRideStore() *memRideStore {
	return &memRideStore{rides: map[types.ID]*Ride{}}
}

func (m *memRideStore) Create(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	r.ID = types.ID(fmt.Sprintf("ride-%03d", m.seq))
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *memRideStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRideStore) ListByPassenger(_ context.Context, passengerID types.ID) ([]*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []*Ride{}
	for _, r := range m.rides {
		if r.PassengerID == passengerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memRideStore) AssignDriver(_ context.Context, id types.ID, version int, driverID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.StatusVersion != version || r.DriverID != nil || r.Status.Terminal() {
		return false, nil
	}
	d := driverID
	r.DriverID = &d
	r.Status = StatusActive
	r.StatusVersion++
	return true, nil
}

func (m *memRideStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, fare *types.Money, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return false, m.updateErr
	}
	r, ok := m.rides[id]
	if !ok || r.Status != from || r.StatusVersion != version {
		return false, nil
	}
	r.Status = to
	r.StatusVersion++
	if fare != nil {
		r.Fare.Amount = fare.Amount
	}
	if to.Terminal() {
		t := at
		r.CompletedAt = &t
	}
	return true, nil
}

func (m *memRideStore) AppendEvent(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.eventErr != nil {
		return m.eventErr
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *memRideStore) eventTypes(id types.ID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		if e.RideID == id {
			out = append(out, e.Type)
		}
	}
	return out
}

type memDriverStore struct {
	mu      sync.Mutex
	drivers map[types.ID]*driver.Driver
	// contended drivers lose every claim, as if another ride took them first.
	contended map[types.ID]bool

	listErr   error
	statusErr error
	tripErr   error
}

func newMemDriverStore(ds ...driver.Driver) *memDriverStore {
	m := &memDriverStore{drivers: map[types.ID]*driver.Driver{}, contended: map[types.ID]bool{}}
	for i := range ds {
		d := ds[i]
		m.drivers[d.ID] = &d
	}
	return m
}

func (m *memDriverStore) ListAvailable(context.Context) ([]driver.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []driver.Driver
	for _, d := range m.drivers {
		if d.Status == driver.StatusAvailable && d.DocumentsVerified {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDriverStore) SetStatus(_ context.Context, id types.ID, from, to driver.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return false, m.statusErr
	}
	d, ok := m.drivers[id]
	if !ok || d.Status != from || m.contended[id] {
		return false, nil
	}
	d.Status = to
	return true, nil
}

func (m *memDriverStore) RecordTrip(_ context.Context, id types.ID, earnings types.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tripErr != nil {
		return m.tripErr
	}
	d, ok := m.drivers[id]
	if !ok {
		return driver.ErrNotFound
	}
	d.TotalTrips++
	d.TotalEarnings.Amount += earnings.Amount
	return nil
}

func (m *memDriverStore) get(id types.ID) driver.Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.drivers[id]
}

type memPassengerStore struct {
	mu     sync.Mutex
	seq    int
	byUser map[string]*passenger.Passenger

	upsertErr error
	getErr    error
	recordErr error
}

func newMemPassengerStore() *memPassengerStore {
	return &memPassengerStore{byUser: map[string]*passenger.Passenger{}}
}

func (m *memPassengerStore) Upsert(_ context.Context, p *passenger.Passenger) (*passenger.Passenger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	if existing, ok := m.byUser[p.UserID]; ok {
		cp := *existing
		return &cp, nil
	}
	m.seq++
	np := *p
	np.ID = types.ID(fmt.Sprintf("pas-%03d", m.seq))
	np.Status = passenger.StatusActive
	m.byUser[p.UserID] = &np
	cp := np
	return &cp, nil
}

func (m *memPassengerStore) GetByUserID(_ context.Context, userID string) (*passenger.Passenger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byUser[userID]
	if !ok {
		return nil, passenger.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPassengerStore) RecordRide(_ context.Context, id types.ID, spent types.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	for _, p := range m.byUser {
		if p.ID == id {
			p.TotalRides++
			p.TotalSpent.Amount += spent.Amount
			return nil
		}
	}
	return passenger.ErrNotFound
}

func (m *memPassengerStore) get(userID string) passenger.Passenger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byUser[userID]
}

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	failed bool
}

func (p *recordingPublisher) Publish(_ context.Context, e *Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed {
		return fmt.Errorf("broker unreachable")
	}
	p.keys = append(p.keys, RoutingKey(e))
	return nil
}

type failingLocator struct{ err error }

func (f failingLocator) FindNearby(context.Context, types.Point, float64) ([]driver.Driver, error) {
	return nil, f.err
}
