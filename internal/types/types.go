// README: Shared identifiers and geographic value types.
package types

type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Location is a point with the human-readable address a geocoder produced for it.
type Location struct {
	Lat     float64 `json:"latitude"`
	Lng     float64 `json:"longitude"`
	Address string  `json:"address"`
}

func (l Location) Point() Point {
	return Point{Lat: l.Lat, Lng: l.Lng}
}

// IsZero reports whether the location carries neither coordinates nor an address.
func (l Location) IsZero() bool {
	return l.Lat == 0 && l.Lng == 0 && l.Address == ""
}
