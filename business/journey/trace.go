package journey

import "github.com/OpenTransitTools/journeycheck/foundation/geodesy"

// Trace is the time ordered gps positions recorded during a journey.
// Indexes into the trace delimit every segment.
type Trace []geodesy.Position

// Speeds returns the km/h speed of each hop between consecutive positions, hop i joins positions i and i+1
func (t Trace) Speeds() []float64 {
	return geodesy.Speeds(t)
}

// HopDistances returns the meters covered by each hop between consecutive positions
func (t Trace) HopDistances() []float64 {
	return geodesy.HopDistances(t)
}

// TotalDistance returns the meters covered by the whole trace
func (t Trace) TotalDistance() float64 {
	return geodesy.TotalDistance(t)
}

// clampedSlice returns values[start:end] limited to the bounds of values, empty when start >= end
func clampedSlice(values []float64, start int, end int) []float64 {
	if start < 0 {
		start = 0
	}
	if end > len(values) {
		end = len(values)
	}
	if start >= end {
		return []float64{}
	}
	return values[start:end]
}
