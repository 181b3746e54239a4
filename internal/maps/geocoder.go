package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"ridecore/internal/types"
)

// ErrNoMatch is returned when the address does not resolve to any place.
var ErrNoMatch = errors.New("maps: address not found")

// Geocoder resolves free-form addresses to coordinates via the Google Geocoding API.
type Geocoder struct {
	client *maps.Client
}

// NewGeocoder creates a Geocoder with the given API Key.
func NewGeocoder(apiKey string) (*Geocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Geocoder{client: client}, nil
}

// Geocode returns the best match for address. The returned Location keeps
// the caller's address text when the API gives no formatted address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (types.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return types.Location{}, ErrNoMatch
	}
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return types.Location{}, fmt.Errorf("geocoding api error: %w", err)
	}
	return firstLocation(results, address)
}

func firstLocation(results []maps.GeocodingResult, address string) (types.Location, error) {
	if len(results) == 0 {
		return types.Location{}, ErrNoMatch
	}
	r := results[0]
	loc := types.Location{
		Lat:     r.Geometry.Location.Lat,
		Lng:     r.Geometry.Location.Lng,
		Address: r.FormattedAddress,
	}
	if loc.Address == "" {
		loc.Address = address
	}
	return loc, nil
}
