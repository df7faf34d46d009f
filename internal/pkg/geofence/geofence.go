// Package geofence decides whether a coordinate lies inside one of the configured work sites.
package geofence

import (
	"errors"
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000

// ErrOutOfRange is matched by every *OutOfRangeError.
var ErrOutOfRange = errors.New("location is outside the allowed radius")

// OutOfRangeError carries the distance to the nearest site.
type OutOfRangeError struct {
	Site     string
	Distance float64
	Radius   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("location is %.0fm from %s, allowed radius is %.0fm", e.Distance, e.Site, e.Radius)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// Site is a work location with an allowed radius in meters.
type Site struct {
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

// Distance returns the great-circle distance between two coordinates in meters (haversine).
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Check returns the distance from the site. A distance equal to the radius is accepted.
func (s Site) Check(lat, lon float64) (float64, error) {
	d := Distance(lat, lon, s.Latitude, s.Longitude)
	if d > s.RadiusMeters {
		return d, &OutOfRangeError{Site: s.Name, Distance: d, Radius: s.RadiusMeters}
	}
	return d, nil
}

// Fence accepts a coordinate when any of its sites does.
type Fence struct {
	Sites []Site
}

func NewFence(sites ...Site) Fence {
	return Fence{Sites: sites}
}

// Check returns the accepting site, or an *OutOfRangeError for the nearest site.
func (f Fence) Check(lat, lon float64) (Site, float64, error) {
	if len(f.Sites) == 0 {
		return Site{}, 0, errors.New("geofence has no sites configured")
	}

	var nearest *OutOfRangeError
	for _, site := range f.Sites {
		d, err := site.Check(lat, lon)
		if err == nil {
			return site, d, nil
		}
		var oor *OutOfRangeError
		if errors.As(err, &oor) && (nearest == nil || oor.Distance < nearest.Distance) {
			nearest = oor
		}
	}
	return Site{}, nearest.Distance, nearest
}
