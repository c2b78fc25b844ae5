// Package journey verifies declared multi modal journeys against the gps trace recorded during them.
package journey

import (
	"log"

	"github.com/OpenTransitTools/journeycheck/business/bayes"
)

// MinimalGapSpeeds is the fewest speed samples a gap needs before it is checked as walking
const MinimalGapSpeeds = 20

// Gap is the range of speed indexes between two segments, or before the first or after the last one.
// Start is inclusive and End exclusive, either is nil when the neighbouring segment is unresolved.
type Gap struct {
	Start *int `json:"start"`
	End   *int `json:"end"`
}

// Resolved reports whether both bounds are known
func (g Gap) Resolved() bool {
	return g.Start != nil && g.End != nil
}

// Verdict is the outcome of verifying a journey
type Verdict struct {
	// SegmentsChecked holds, for each declared segment, whether the trace supports it
	SegmentsChecked []bool `json:"segments_checked"`
	// GapsChecked holds, for each gap, whether it is plausibly walked. It has one more entry than SegmentsChecked.
	GapsChecked []bool `json:"gaps_checked"`
	// Segments holds the trace range attributed to each declared segment
	Segments []DetectedSegment `json:"segments"`
	Gaps     []Gap             `json:"gaps"`
	// DistanceByMode holds the meters travelled with each mode, gaps count as walk
	DistanceByMode map[string]float64 `json:"distance_by_mode"`
}

// Valid reports whether every segment and gap was checked
func (v *Verdict) Valid() bool {
	for _, checked := range v.SegmentsChecked {
		if !checked {
			return false
		}
	}
	for _, checked := range v.GapsChecked {
		if !checked {
			return false
		}
	}
	return true
}

// Verifier checks journeys against schedules and speed profiles
type Verifier struct {
	log        *log.Logger
	matcher    *TransitMatcher
	classifier *bayes.Classifier
}

// NewVerifier creates a Verifier finding public transport lines with finder and classifying speeds with classifier
func NewVerifier(log *log.Logger, finder VariantFinder, classifier *bayes.Classifier) *Verifier {
	return &Verifier{
		log:        log,
		matcher:    NewTransitMatcher(log, finder),
		classifier: classifier,
	}
}

// Verify checks every declared segment and the gaps around them.
// Problems with a single segment only leave that segment unchecked, an error is returned
// only when a schedule could not be read.
func (v *Verifier) Verify(j *Journey) (*Verdict, error) {
	public := make(map[int]DetectedSegment)
	for i, segment := range j.Segments {
		if !segment.Mode.IsPublic() {
			continue
		}
		detected, err := v.matcher.Match(j.Trace, segment.Mode, segment.Line)
		if err != nil {
			return nil, err
		}
		public[i] = detected
	}
	segments := ResolveBoundaries(j.Segments, public, len(j.Trace))
	speeds := j.Trace.Speeds()

	verdict := Verdict{
		SegmentsChecked: make([]bool, len(j.Segments)),
		GapsChecked:     make([]bool, len(j.Segments)+1),
		Segments:        segments,
		Gaps:            makeGaps(segments, len(speeds)),
	}
	for i, segment := range j.Segments {
		verdict.SegmentsChecked[i] = v.checkSegment(j.Id, i, segment, segments[i], speeds)
	}
	for i, gap := range verdict.Gaps {
		verdict.GapsChecked[i] = v.checkGap(gap, speeds)
	}
	verdict.DistanceByMode = distanceByMode(j.Segments, segments, verdict.Gaps, j.Trace.HopDistances())
	return &verdict, nil
}

func (v *Verifier) checkSegment(journeyId string, index int, declared DeclaredSegment,
	detected DetectedSegment, speeds []float64) bool {
	switch {
	case declared.Mode == Car:
		return true
	case declared.Mode.IsPublic():
		return detected.Resolved()
	case declared.Mode.IsPrivate():
		category, _ := declared.Mode.category()
		if !detected.Resolved() {
			return false
		}
		return v.classifier.Check(clampedSlice(speeds, *detected.Start, *detected.End), category)
	}
	v.log.Printf("journey %s: unknown mode %q declared in segment %d", journeyId, declared.Mode, index)
	return false
}

// checkGap checks a gap long enough to judge is walked. Short or unresolved gaps give no reason for doubt.
func (v *Verifier) checkGap(gap Gap, speeds []float64) bool {
	if !gap.Resolved() || *gap.End-*gap.Start < MinimalGapSpeeds {
		return true
	}
	return v.classifier.Check(clampedSlice(speeds, *gap.Start, *gap.End), bayes.Walk)
}

// makeGaps builds the gaps before, between and after segments over speedCount speed samples
func makeGaps(segments []DetectedSegment, speedCount int) []Gap {
	gaps := make([]Gap, len(segments)+1)
	if len(segments) == 0 {
		gaps[0] = Gap{Start: intPtr(0), End: intPtr(speedCount)}
		return gaps
	}
	for i := range gaps {
		var gap Gap
		switch i {
		case 0:
			gap = Gap{Start: intPtr(0), End: segments[0].Start}
		case len(segments):
			gap = Gap{Start: segments[i-1].End, End: intPtr(speedCount)}
		default:
			gap = Gap{Start: segments[i-1].End, End: segments[i].Start}
		}
		if !gap.Resolved() {
			gap = Gap{}
		}
		gaps[i] = gap
	}
	return gaps
}

// distanceByMode sums hop distances per mode. Each hop counts once, first for the resolved segment
// covering it then for a gap, which counts as walk.
func distanceByMode(declared []DeclaredSegment, segments []DetectedSegment, gaps []Gap, hops []float64) map[string]float64 {
	results := make(map[string]float64)
	attributed := make([]bool, len(hops))
	attribute := func(mode Mode, start int, end int) {
		for h := max(start, 0); h < end && h < len(hops); h++ {
			if attributed[h] {
				continue
			}
			attributed[h] = true
			results[string(mode)] += hops[h]
		}
	}

	for i, segment := range segments {
		if !segment.Resolved() || !declared[i].Mode.IsKnown() {
			continue
		}
		results[string(declared[i].Mode)] += 0
		attribute(declared[i].Mode, *segment.Start, *segment.End)
	}
	for _, gap := range gaps {
		if gap.Resolved() && *gap.End > *gap.Start {
			attribute(Walk, *gap.Start, *gap.End)
		}
	}
	return results
}
