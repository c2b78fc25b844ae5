package journey

import (
	"fmt"
	"log"

	"github.com/OpenTransitTools/journeycheck/business/schedule"
	"github.com/OpenTransitTools/journeycheck/foundation/geodesy"
)

// MatchDistanceMeters is how close a position must be to a stop to count as visiting it
const MatchDistanceMeters = 125.0

// VariantFinder provides the route variants of a line
type VariantFinder interface {
	RouteVariants(mode string, line string) ([]schedule.RouteVariant, error)
}

// TransitMatcher finds the part of a trace travelled on a public transport line
type TransitMatcher struct {
	log    *log.Logger
	finder VariantFinder
}

// NewTransitMatcher creates a TransitMatcher looking up lines with finder
func NewTransitMatcher(log *log.Logger, finder VariantFinder) *TransitMatcher {
	return &TransitMatcher{log: log, finder: finder}
}

// variantMatch is the progress of a trace along one route variant
type variantMatch struct {
	matched    bool
	firstStop  int
	lastStop   int
	startIndex int
	endIndex   int
}

// quality is the number of consecutive stops advanced
func (v variantMatch) quality() int {
	if !v.matched {
		return 0
	}
	return v.lastStop - v.firstStop
}

// Match finds the route variant of line the trace follows furthest and the trace range covering it.
// A match must advance at least one stop, otherwise the returned segment is unresolved.
// Unknown modes or lines are logged and reported as unresolved. Only failures to read a schedule are returned.
func (m *TransitMatcher) Match(trace Trace, mode Mode, line string) (DetectedSegment, error) {
	if mode == Dart {
		line = DartLine
	}
	variants, err := m.finder.RouteVariants(string(mode), line)
	if err != nil {
		if schedule.IsLookupError(err) {
			m.log.Printf("unable to match %s line %q: %v", mode, line, err)
			return DetectedSegment{}, nil
		}
		return DetectedSegment{}, fmt.Errorf("matching %s line %q: %w", mode, line, err)
	}

	var best *variantMatch
	var bestVariant *schedule.RouteVariant
	bestQuality := 0
	for i := range variants {
		match := matchVariant(trace, variants[i].Stops)
		if match.quality() > bestQuality {
			best = &match
			bestVariant = &variants[i]
			bestQuality = match.quality()
		}
	}
	if best == nil {
		return DetectedSegment{}, nil
	}
	return DetectedSegment{
		Start:     intPtr(best.startIndex),
		End:       intPtr(best.endIndex),
		Variant:   bestVariant,
		FirstStop: best.firstStop,
		LastStop:  best.lastStop,
	}, nil
}

// matchVariant walks the trace once. The first position near a stop starts the match, a position near
// the stop following the last one reached extends it, any other stop visit is ignored.
func matchVariant(trace Trace, stops []geodesy.Point) variantMatch {
	match := variantMatch{}
	for index, position := range trace {
		stop, distance := nearestStop(position.Point, stops)
		if stop < 0 || distance >= MatchDistanceMeters {
			continue
		}
		if !match.matched {
			match = variantMatch{
				matched:    true,
				firstStop:  stop,
				lastStop:   stop,
				startIndex: index,
				endIndex:   index,
			}
		} else if stop == match.lastStop+1 {
			match.lastStop = stop
			match.endIndex = index
		}
	}
	return match
}

// nearestStop returns the index of the stop closest to point and its distance in meters.
// The first of equally distant stops wins, -1 is returned when there are no stops.
func nearestStop(point geodesy.Point, stops []geodesy.Point) (int, float64) {
	nearest := -1
	nearestDistance := 0.0
	for i, stop := range stops {
		distance := point.DistanceTo(stop)
		if nearest < 0 || distance < nearestDistance {
			nearest = i
			nearestDistance = distance
		}
	}
	return nearest, nearestDistance
}
