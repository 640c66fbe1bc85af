package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/geodesic"
)

var (
	ErrMissingLocation    = errors.New("location not provided")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrOutsideFence       = errors.New("outside booking radius")
)

type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// ParsePoint returns nil without error when either coordinate is blank.
func ParsePoint(lat, lon string) (*Point, error) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinates, lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinates, lon)
	}
	p := &Point{Lat: la, Lon: lo}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinates, la, lo)
	}
	return p, nil
}

// DistanceKm is the geodesic distance on the WGS-84 ellipsoid.
func DistanceKm(a, b Point) float64 {
	var meters float64
	geodesic.WGS84.Inverse(a.Lat, a.Lon, b.Lat, b.Lon, &meters, nil, nil)
	return meters / 1000
}

type DistanceError struct {
	DistanceKm float64
	RadiusKm   float64
}

func (e *DistanceError) Error() string {
	return fmt.Sprintf("%.2f km away, booking radius is %g km", e.DistanceKm, e.RadiusKm)
}

func (e *DistanceError) Unwrap() error { return ErrOutsideFence }

type Fence struct {
	Center   Point
	RadiusKm float64
}

// Check returns the distance from the fence center. A point exactly on the
// radius is inside.
func (f Fence) Check(p *Point) (float64, error) {
	if p == nil {
		return 0, ErrMissingLocation
	}
	if !p.Valid() {
		return 0, ErrInvalidCoordinates
	}
	d := DistanceKm(f.Center, *p)
	if d > f.RadiusKm {
		return d, &DistanceError{DistanceKm: d, RadiusKm: f.RadiusKm}
	}
	return d, nil
}
