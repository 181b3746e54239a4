// README: Passenger ride handlers backed by per-user sessions.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridecore/internal/http/middleware"
	"ridecore/internal/modules/pricing"
	"ridecore/internal/modules/ride"
	"ridecore/internal/modules/session"
	"ridecore/internal/types"
)

// Geocoder fills in coordinates for address-only locations.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Location, error)
}

type RideHandler struct {
	sessions *session.Registry
	geocoder Geocoder
}

// NewRideHandler accepts a nil geocoder; address-only locations are then rejected as missing.
func NewRideHandler(sessions *session.Registry, geocoder Geocoder) *RideHandler {
	return &RideHandler{sessions: sessions, geocoder: geocoder}
}

type estimateReq struct {
	Pickup      types.Location `json:"pickup"`
	Destination types.Location `json:"destination"`
	RideType    string         `json:"ride_type"`
}

type requestRideReq struct {
	estimateReq
	PassengerCount *int       `json:"passenger_count"`
	ScheduledTime  *time.Time `json:"scheduled_time"`
}

type completeRideReq struct {
	ActualFare *float64 `json:"actual_fare"`
}

type sessionResp struct {
	Rides      []*ride.Ride `json:"rides"`
	ActiveRide *ride.Ride   `json:"active_ride"`
	Busy       bool         `json:"busy"`
}

func (h *RideHandler) Estimate(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pickup, dest, err := h.resolveStops(c.Request.Context(), req.Pickup, req.Destination)
	if err != nil {
		writeRideError(c, err)
		return
	}
	sess := h.sessions.For(middleware.CallerUID(c))
	est, err := sess.GetRouteEstimate(c.Request.Context(), pickup, dest, pricing.ParseTier(req.RideType))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, est)
}

func (h *RideHandler) Request(c *gin.Context) {
	var req requestRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pickup, dest, err := h.resolveStops(c.Request.Context(), req.Pickup, req.Destination)
	if err != nil {
		writeRideError(c, err)
		return
	}
	count := 1
	if req.PassengerCount != nil {
		count = *req.PassengerCount
	}

	sess := h.sessions.For(middleware.CallerUID(c))
	r, err := sess.RequestRide(c.Request.Context(), ride.RideRequest{
		Pickup:         pickup,
		Destination:    dest,
		RideType:       pricing.ParseTier(req.RideType),
		PassengerCount: count,
		ScheduledTime:  req.ScheduledTime,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

func (h *RideHandler) List(c *gin.Context) {
	rides, err := h.sessions.For(middleware.CallerUID(c)).LoadRides(c.Request.Context())
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"rides": rides})
}

// Session reports the cached session state without reloading it.
func (h *RideHandler) Session(c *gin.Context) {
	sess := h.sessions.For(middleware.CallerUID(c))
	writeJSON(c, http.StatusOK, sessionResp{
		Rides:      sess.Rides(),
		ActiveRide: sess.ActiveRide(),
		Busy:       sess.IsBusy(),
	})
}

func (h *RideHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing ride id")
		return
	}
	if err := h.sessions.For(middleware.CallerUID(c)).CancelRide(c.Request.Context(), types.ID(id)); err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ride_id": id, "status": ride.StatusCancelled})
}

func (h *RideHandler) Complete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing ride id")
		return
	}
	var req completeRideReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	var fare *types.Money
	if req.ActualFare != nil {
		m := types.Cents(*req.ActualFare)
		fare = &m
	}
	if err := h.sessions.For(middleware.CallerUID(c)).CompleteRide(c.Request.Context(), types.ID(id), fare); err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"ride_id": id, "status": ride.StatusCompleted})
}

func (h *RideHandler) resolveStops(ctx context.Context, pickup, dest types.Location) (types.Location, types.Location, error) {
	p, err := h.resolve(ctx, "pickup", pickup)
	if err != nil {
		return types.Location{}, types.Location{}, err
	}
	d, err := h.resolve(ctx, "destination", dest)
	if err != nil {
		return types.Location{}, types.Location{}, err
	}
	return p, d, nil
}

// resolve geocodes a location that carries an address but no coordinates.
func (h *RideHandler) resolve(ctx context.Context, name string, loc types.Location) (types.Location, error) {
	if h.geocoder == nil || loc.Address == "" || loc.Lat != 0 || loc.Lng != 0 {
		return loc, nil
	}
	got, err := h.geocoder.Geocode(ctx, loc.Address)
	if err != nil {
		return types.Location{}, fmt.Errorf("%w: %s address could not be resolved: %v", ride.ErrValidation, name, err)
	}
	return got, nil
}
