package journey

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxSegments is the largest number of segments a journey may declare
const MaxSegments = 5

// ErrInvalidJourney is returned by Validate for journeys that can not be verified
var ErrInvalidJourney = errors.New("invalid journey")

// DeclaredSegment is a part of a journey made with a single mode. Line names the route taken on public modes.
// In json a segment is written as ["walk"] or ["bus", "4A"].
type DeclaredSegment struct {
	Mode Mode
	Line string
}

func (s DeclaredSegment) String() string {
	if len(s.Line) == 0 {
		return string(s.Mode)
	}
	return string(s.Mode) + "-" + s.Line
}

// MarshalJSON writes the segment as a one or two element array
func (s DeclaredSegment) MarshalJSON() ([]byte, error) {
	if len(s.Line) == 0 {
		return json.Marshal([]string{string(s.Mode)})
	}
	return json.Marshal([]string{string(s.Mode), s.Line})
}

// UnmarshalJSON reads a segment from a one or two element array
func (s *DeclaredSegment) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("journey segment must be an array of strings: %w", err)
	}
	switch len(values) {
	case 1:
		*s = DeclaredSegment{Mode: Mode(values[0])}
	case 2:
		*s = DeclaredSegment{Mode: Mode(values[0]), Line: values[1]}
	default:
		return fmt.Errorf("journey segment must have a mode and an optional line, found %d values", len(values))
	}
	return nil
}

// Journey is a commute declared as ordered segments together with the gps trace recorded during it
type Journey struct {
	Id       string            `json:"id,omitempty"`
	Segments []DeclaredSegment `json:"journey"`
	Trace    Trace             `json:"-"`
}

// Validate checks the segments can be verified: between 1 and MaxSegments known modes,
// no private mode directly followed by another, and a repeated public mode must change line.
// The dart has a single line so it may not follow itself.
func (j *Journey) Validate() error {
	if len(j.Segments) == 0 || len(j.Segments) > MaxSegments {
		return fmt.Errorf("%w: %d segments declared, expected 1 to %d", ErrInvalidJourney, len(j.Segments), MaxSegments)
	}
	for i, segment := range j.Segments {
		if !segment.Mode.IsKnown() {
			return fmt.Errorf("%w: unknown mode %q in segment %d", ErrInvalidJourney, segment.Mode, i)
		}
	}
	for i := 0; i < len(j.Segments)-1; i++ {
		current, next := j.Segments[i], j.Segments[i+1]
		if current.Mode == next.Mode {
			if current.Mode.IsPrivate() || current.Mode == Dart {
				return fmt.Errorf("%w: segments %d and %d both declare %s", ErrInvalidJourney, i, i+1, current.Mode)
			}
			if current.Line == next.Line {
				return fmt.Errorf("%w: segments %d and %d both declare %s", ErrInvalidJourney, i, i+1, current)
			}
		}
		if current.Mode.IsPrivate() && next.Mode.IsPrivate() {
			return fmt.Errorf("%w: consecutive private modes %s and %s", ErrInvalidJourney, current.Mode, next.Mode)
		}
	}
	return nil
}
