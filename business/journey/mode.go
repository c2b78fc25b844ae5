package journey

import "github.com/OpenTransitTools/journeycheck/business/bayes"

// Mode is a means of transport a journey segment is declared with
type Mode string

// Modes a journey can be declared with
const (
	Walk Mode = "walk"
	Bike Mode = "bike"
	Car  Mode = "car"
	Bus  Mode = "bus"
	Luas Mode = "luas"
	Dart Mode = "dart"
)

// DartLine is the only line of the dart mode, used whatever line a segment declares
const DartLine = "DART"

// AllModes lists every known mode, private modes first
var AllModes = []Mode{Walk, Bike, Car, Bus, Luas, Dart}

// IsPublic reports whether m runs to a schedule
func (m Mode) IsPublic() bool {
	return m == Bus || m == Luas || m == Dart
}

// IsPrivate reports whether m is a walk, bike or car
func (m Mode) IsPrivate() bool {
	return m == Walk || m == Bike || m == Car
}

// IsKnown reports whether m is one of AllModes
func (m Mode) IsKnown() bool {
	return m.IsPublic() || m.IsPrivate()
}

// category returns the speed classification expected for m, false when m can not be classified by speed
func (m Mode) category() (bayes.Category, bool) {
	switch m {
	case Walk:
		return bayes.Walk, true
	case Bike:
		return bayes.Bike, true
	}
	return bayes.Other, false
}
