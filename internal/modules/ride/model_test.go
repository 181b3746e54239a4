package ride

import (
	"errors"
	"testing"

	"ridecore/internal/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusRequested, StatusActive, true},
		{StatusRequested, StatusCancelled, true},
		{StatusRequested, StatusCompleted, false},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusRequested, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusActive, false},
		{StatusCancelled, StatusCompleted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCheckTransition(t *testing.T) {
	if err := checkTransition(StatusCompleted, StatusCancelled); !errors.Is(err, ErrAlreadyTerminal) {
		t.Errorf("expected ErrAlreadyTerminal, got %v", err)
	}
	if err := checkTransition(StatusNone, StatusCancelled); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	if err := checkTransition(StatusActive, StatusCompleted); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRideRequest_Validate(t *testing.T) {
	ok := RideRequest{
		Pickup:         types.Location{Lat: 1, Lng: 1},
		Destination:    types.Location{Lat: 2, Lng: 2},
		PassengerCount: 3,
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := ok
	bad.Destination.Lng = 200
	if err := bad.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
