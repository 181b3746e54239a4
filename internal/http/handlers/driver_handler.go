// README: Driver handlers for position reports and nearby-driver lookup.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridecore/internal/http/middleware"
	"ridecore/internal/modules/driver"
	"ridecore/internal/modules/location"
	"ridecore/internal/types"
)

const roleDriver = "driver"

type positionUpdater interface {
	Update(ctx context.Context, u location.Update) error
}

type nearbyFinder interface {
	FindNearby(ctx context.Context, pickup types.Point, maxDistanceKm float64) ([]driver.Driver, error)
}

type DriverHandler struct {
	location positionUpdater
	locator  nearbyFinder
}

func NewDriverHandler(loc positionUpdater, locator nearbyFinder) *DriverHandler {
	return &DriverHandler{location: loc, locator: locator}
}

type updateLocationReq struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type nearbyDriver struct {
	driver.Driver
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing id")
		return
	}
	// Only the authenticated driver may update their own location.
	if middleware.CallerRole(c) != roleDriver {
		writeError(c, http.StatusForbidden, "forbidden: driver role required")
		return
	}
	if middleware.CallerUID(c) != id {
		writeError(c, http.StatusForbidden, "forbidden: id does not match authenticated user")
		return
	}
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Lat == nil || req.Lng == nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}

	err := h.location.Update(c.Request.Context(), location.Update{
		DriverID: types.ID(id),
		Position: types.Point{Lat: *req.Lat, Lng: *req.Lng},
	})
	switch {
	case err == nil:
		writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
	case errors.Is(err, location.ErrInvalidPosition):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, location.ErrUnknownDriver):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusServiceUnavailable, "location store unavailable")
	}
}

// Nearby lists eligible drivers around ?lat=&lng=, optionally bounded by ?radius_km=.
func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	pickup := types.Point{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !pickup.Valid() {
		writeError(c, http.StatusBadRequest, "valid lat and lng query parameters are required")
		return
	}
	var radius float64
	if v := c.Query("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 {
			writeError(c, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radius = r
	}

	drivers, err := h.locator.FindNearby(c.Request.Context(), pickup, radius)
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "driver store unavailable")
		return
	}
	out := make([]nearbyDriver, 0, len(drivers))
	for _, d := range drivers {
		nd := nearbyDriver{Driver: d}
		if d.CurrentLocation != nil {
			km := location.DistanceKm(pickup, *d.CurrentLocation)
			nd.DistanceKm = &km
		}
		out = append(out, nd)
	}
	writeJSON(c, http.StatusOK, map[string]any{"drivers": out})
}
