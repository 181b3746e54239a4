// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridecore/internal/http/handlers"
	"ridecore/internal/http/middleware"
	"ridecore/internal/infra"
	"ridecore/internal/modules/driver"
	"ridecore/internal/modules/location"
	"ridecore/internal/modules/session"
)

type RouterDeps struct {
	Verifier  infra.TokenVerifier
	Sessions  *session.Registry
	Geocoder  handlers.Geocoder
	Locations *location.Service
	Locator   *driver.Locator
	Health    map[string]handlers.HealthCheck
	Log       *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	return newEngine(deps)
}

func newEngine(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	health := handlers.NewHealthHandler(deps.Health)
	r.GET("/healthz", health.Get)

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	rides := handlers.NewRideHandler(deps.Sessions, deps.Geocoder)
	api.POST("/rides/estimate", rides.Estimate)
	api.POST("/rides", rides.Request)
	api.GET("/rides", rides.List)
	api.GET("/rides/session", rides.Session)
	api.POST("/rides/:id/cancel", rides.Cancel)
	api.POST("/rides/:id/complete", rides.Complete)

	drivers := handlers.NewDriverHandler(deps.Locations, deps.Locator)
	api.PUT("/drivers/:id/location", drivers.UpdateLocation)
	api.GET("/drivers/nearby", drivers.Nearby)

	return r
}
