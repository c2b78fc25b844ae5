// Package geodesy provides distance and speed calculations over recorded latitude/longitude positions
package geodesy

import (
	"time"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean earth radius used for great-circle distances
const EarthRadiusMeters = 6371008.8

// minElapsedSeconds is the smallest time difference between two positions that produces a speed,
// anything less is treated as no movement
const minElapsedSeconds = 0.000001

// Point is a coordinate in degrees
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Position is a Point recorded at a moment in time
type Position struct {
	Point
	Timestamp time.Time `json:"timestamp"`
}

// Distance calculates the great-circle distance between two pairs of coordinates
// returns distance in METERS
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// DistanceTo returns the great-circle distance in meters from p to other
func (p Point) DistanceTo(other Point) float64 {
	return Distance(p.Latitude, p.Longitude, other.Latitude, other.Longitude)
}

// HopDistances returns the distance in meters between each pair of consecutive positions.
// The result has len(positions)-1 elements, hop i joins positions i and i+1.
func HopDistances(positions []Position) []float64 {
	if len(positions) < 2 {
		return []float64{}
	}
	results := make([]float64, len(positions)-1)
	for i := 1; i < len(positions); i++ {
		results[i-1] = positions[i-1].DistanceTo(positions[i].Point)
	}
	return results
}

// Speeds returns the speed in km/h over each hop between consecutive positions.
// Hops where the elapsed time is zero, negative or too small to measure have a speed of 0.
func Speeds(positions []Position) []float64 {
	distances := HopDistances(positions)
	results := make([]float64, len(distances))
	for i, distance := range distances {
		elapsed := positions[i+1].Timestamp.Sub(positions[i].Timestamp).Seconds()
		if elapsed > minElapsedSeconds {
			results[i] = distance / elapsed * 3.6
		}
	}
	return results
}

// TotalDistance sums all hop distances of positions in meters
func TotalDistance(positions []Position) float64 {
	total := 0.0
	for _, distance := range HopDistances(positions) {
		total += distance
	}
	return total
}
