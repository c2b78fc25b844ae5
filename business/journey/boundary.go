package journey

import "github.com/OpenTransitTools/journeycheck/business/schedule"

// DetectedSegment is the part of a trace attributed to a declared segment.
// Start and End are inclusive trace indexes, nil when they could not be determined.
// Public segments also carry the matched route variant and the first and last stop reached on it.
type DetectedSegment struct {
	Start     *int                   `json:"gps_index_start"`
	End       *int                   `json:"gps_index_end"`
	Variant   *schedule.RouteVariant `json:"-"`
	FirstStop int                    `json:"first_stop,omitempty"`
	LastStop  int                    `json:"last_stop,omitempty"`
}

// Resolved reports whether both bounds are known
func (d DetectedSegment) Resolved() bool {
	return d.Start != nil && d.End != nil
}

func intPtr(i int) *int {
	return &i
}

// ResolveBoundaries assigns a trace range to every declared segment of a trace with n positions.
// public holds the detections of public segments by segment index, a missing entry means not found.
// A private segment starts at the beginning of the trace or right after a resolved public predecessor,
// and ends at the end of the trace or right before a resolved public successor. Any other neighbour
// leaves that bound unknown. The inputs are not modified.
func ResolveBoundaries(segments []DeclaredSegment, public map[int]DetectedSegment, n int) []DetectedSegment {
	results := make([]DetectedSegment, len(segments))
	for i, segment := range segments {
		if segment.Mode.IsPublic() {
			results[i] = public[i]
		}
	}

	for i, segment := range segments {
		if !segment.Mode.IsPrivate() {
			continue
		}
		var start, end *int
		if i == 0 {
			start = intPtr(0)
		} else if prev := results[i-1]; segments[i-1].Mode.IsPublic() && prev.Resolved() {
			start = intPtr(*prev.End + 1)
		}
		if i == len(segments)-1 {
			end = intPtr(n - 1)
		} else if next := results[i+1]; segments[i+1].Mode.IsPublic() && next.Resolved() {
			end = intPtr(*next.Start - 1)
		}
		// an empty trace or public neighbours with no room between them
		if start != nil && end != nil && *start > *end {
			start, end = nil, nil
		}
		results[i] = DetectedSegment{Start: start, End: end}
	}
	return results
}
