package schedule

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/OpenTransitTools/journeycheck/foundation/geodesy"
)

// Stop is a named location vehicles stop at
type Stop struct {
	StopId string
	Name   string
	geodesy.Point
}

// RouteVariant is one distinct ordered sequence of stops served by a route
type RouteVariant struct {
	RouteId string
	StopIds []string
	Stops   []geodesy.Point
}

// Feed gives indexed access to the schedule of one transport mode.
// Each table is loaded from its Source the first time it is needed and kept for the life of the Feed.
// A failed load is remembered and returned to every later caller.
type Feed struct {
	mode   string
	log    *log.Logger
	source Source

	routesOnce  sync.Once
	routeIds    map[string]string
	routeNames  []string
	routesError error

	tripsOnce    sync.Once
	tripsByRoute map[string][]string
	tripsError   error

	stopTimesOnce  sync.Once
	stopIdsByTrip  map[string][]string
	stopTimesError error

	stopsOnce  sync.Once
	stops      map[string]Stop
	stopsError error

	variantsOnce    sync.Once
	variantsByRoute map[string][]RouteVariant
	variantsError   error
}

// NewFeed creates a Feed for mode reading tables from source
func NewFeed(log *log.Logger, mode string, source Source) *Feed {
	return &Feed{mode: mode, log: log, source: source}
}

// Mode returns the transport mode the Feed schedules
func (f *Feed) Mode() string {
	return f.mode
}

// Routes returns route ids keyed by route short name.
// When several routes share a short name the first one in the source wins. Routes without a short name are skipped.
func (f *Feed) Routes() (map[string]string, error) {
	f.routesOnce.Do(func() {
		routes, err := f.source.Routes()
		if err != nil {
			f.routesError = fmt.Errorf("unable to load %s routes: %w", f.mode, err)
			return
		}
		f.routeIds = make(map[string]string, len(routes))
		f.routeNames = make([]string, 0, len(routes))
		for _, route := range routes {
			if len(route.RouteShortName) == 0 {
				continue
			}
			if _, present := f.routeIds[route.RouteShortName]; present {
				continue
			}
			f.routeIds[route.RouteShortName] = route.RouteId
			f.routeNames = append(f.routeNames, route.RouteShortName)
		}
		sort.Strings(f.routeNames)
	})
	return f.routeIds, f.routesError
}

// Trips returns trip ids keyed by route id, each list sorted by trip id
func (f *Feed) Trips() (map[string][]string, error) {
	f.tripsOnce.Do(func() {
		trips, err := f.source.Trips()
		if err != nil {
			f.tripsError = fmt.Errorf("unable to load %s trips: %w", f.mode, err)
			return
		}
		f.tripsByRoute = make(map[string][]string)
		for _, trip := range trips {
			f.tripsByRoute[trip.RouteId] = append(f.tripsByRoute[trip.RouteId], trip.TripId)
		}
		for _, tripIds := range f.tripsByRoute {
			sort.Strings(tripIds)
		}
	})
	return f.tripsByRoute, f.tripsError
}

// StopTimes returns the stop ids each trip visits, keyed by trip id and ordered by stop sequence
func (f *Feed) StopTimes() (map[string][]string, error) {
	f.stopTimesOnce.Do(func() {
		stopTimes, err := f.source.StopTimes()
		if err != nil {
			f.stopTimesError = fmt.Errorf("unable to load %s stop times: %w", f.mode, err)
			return
		}
		sort.SliceStable(stopTimes, func(i, j int) bool {
			if stopTimes[i].TripId != stopTimes[j].TripId {
				return stopTimes[i].TripId < stopTimes[j].TripId
			}
			return stopTimes[i].StopSequence < stopTimes[j].StopSequence
		})
		f.stopIdsByTrip = make(map[string][]string)
		for _, stopTime := range stopTimes {
			f.stopIdsByTrip[stopTime.TripId] = append(f.stopIdsByTrip[stopTime.TripId], stopTime.StopId)
		}
	})
	return f.stopIdsByTrip, f.stopTimesError
}

// Stops returns stops keyed by stop id
func (f *Feed) Stops() (map[string]Stop, error) {
	f.stopsOnce.Do(func() {
		stops, err := f.source.Stops()
		if err != nil {
			f.stopsError = fmt.Errorf("unable to load %s stops: %w", f.mode, err)
			return
		}
		f.stops = make(map[string]Stop, len(stops))
		for _, stop := range stops {
			f.stops[stop.StopId] = Stop{
				StopId: stop.StopId,
				Name:   stop.StopName,
				Point:  geodesy.Point{Latitude: stop.StopLat, Longitude: stop.StopLon},
			}
		}
	})
	return f.stops, f.stopsError
}

// Lines returns a copy of the sorted route short names of the feed
func (f *Feed) Lines() ([]string, error) {
	if _, err := f.Routes(); err != nil {
		return nil, err
	}
	lines := make([]string, len(f.routeNames))
	copy(lines, f.routeNames)
	return lines, nil
}

// RouteVariants returns the distinct stop sequences of the route named line.
// Returns a *LookupError when no route has that name.
func (f *Feed) RouteVariants(line string) ([]RouteVariant, error) {
	routeIds, err := f.Routes()
	if err != nil {
		return nil, err
	}
	routeId, present := routeIds[line]
	if !present {
		return nil, &LookupError{Mode: f.mode, Line: line}
	}
	variants, err := f.variants()
	if err != nil {
		return nil, err
	}
	return variants[routeId], nil
}

// variants builds the route variants of every route, once
func (f *Feed) variants() (map[string][]RouteVariant, error) {
	f.variantsOnce.Do(func() {
		f.variantsByRoute, f.variantsError = f.buildVariants()
	})
	return f.variantsByRoute, f.variantsError
}

func (f *Feed) buildVariants() (map[string][]RouteVariant, error) {
	tripsByRoute, err := f.Trips()
	if err != nil {
		return nil, err
	}
	stopIdsByTrip, err := f.StopTimes()
	if err != nil {
		return nil, err
	}
	stops, err := f.Stops()
	if err != nil {
		return nil, err
	}

	results := make(map[string][]RouteVariant, len(tripsByRoute))
	for routeId, tripIds := range tripsByRoute {
		seen := make(map[string]bool)
		for _, tripId := range tripIds {
			stopIds, present := stopIdsByTrip[tripId]
			if !present || len(stopIds) == 0 {
				continue
			}
			key := strings.Join(stopIds, "\x00")
			if seen[key] {
				continue
			}
			seen[key] = true

			variant, missingStopId := makeRouteVariant(routeId, stopIds, stops)
			if variant == nil {
				f.log.Printf("dropping %s route %s variant from trip %s, unknown stop %s",
					f.mode, routeId, tripId, missingStopId)
				continue
			}
			results[routeId] = append(results[routeId], *variant)
		}
	}
	return results, nil
}

// makeRouteVariant precomputes the coordinates of stopIds.
// Returns nil and the offending stop id when a stop can not be found.
func makeRouteVariant(routeId string, stopIds []string, stops map[string]Stop) (*RouteVariant, string) {
	points := make([]geodesy.Point, len(stopIds))
	for i, stopId := range stopIds {
		stop, present := stops[stopId]
		if !present {
			return nil, stopId
		}
		points[i] = stop.Point
	}
	return &RouteVariant{RouteId: routeId, StopIds: stopIds, Stops: points}, ""
}
