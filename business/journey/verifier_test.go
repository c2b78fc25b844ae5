package journey

import (
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/OpenTransitTools/journeycheck/business/bayes"
	"github.com/OpenTransitTools/journeycheck/business/schedule"
	"github.com/OpenTransitTools/journeycheck/foundation/geodesy"
	"github.com/matryer/is"
)

func defaultClassifier(t *testing.T) *bayes.Classifier {
	table, err := bayes.DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable() error = %v", err)
	}
	return bayes.NewClassifier(table)
}

func busRepository(logWriter *testLogWriter) *schedule.Repository {
	return schedule.NewRepository(
		schedule.NewFeed(logWriter.log, "bus", schedule.NewFileSource(logWriter.log, filepath.Join("testdata", "bus"))),
	)
}

// eastward returns count positions heading east from start, hops of meters every interval
func eastward(start geodesy.Position, count int, meters float64, interval time.Duration) Trace {
	step := meters / (geodesy.EarthRadiusMeters * math.Pi / 180 * math.Cos(start.Latitude*math.Pi/180))
	trace := make(Trace, count)
	for i := range trace {
		trace[i] = geodesy.Position{
			Point:     geodesy.Point{Latitude: start.Latitude, Longitude: start.Longitude + float64(i)*step},
			Timestamp: start.Timestamp.Add(time.Duration(i) * interval),
		}
	}
	return trace
}

func origin() geodesy.Position {
	return geodesy.Position{
		Point:     geodesy.Point{Latitude: 53.3, Longitude: -6.26},
		Timestamp: time.Date(2023, 3, 14, 8, 0, 0, 0, time.UTC),
	}
}

func gapBounds(gaps []Gap) [][2]int {
	detected := make([]DetectedSegment, len(gaps))
	for i, gap := range gaps {
		detected[i] = DetectedSegment{Start: gap.Start, End: gap.End}
	}
	return bounds(detected)
}

func TestVerifier_WalkThenBus(t *testing.T) {
	is := is.New(t)
	logWriter := makeTestLogWriter()
	j, err := ReadFile(filepath.Join("testdata", "walk_bus.json"))
	is.NoErr(err)

	verifier := NewVerifier(logWriter.log, busRepository(logWriter), defaultClassifier(t))
	verdict, err := verifier.Verify(j)
	is.NoErr(err)

	is.Equal(verdict.SegmentsChecked, []bool{true, true})
	is.Equal(verdict.GapsChecked, []bool{true, true, true})
	is.True(verdict.Valid())
	is.Equal(bounds(verdict.Segments), [][2]int{{0, 19}, {20, 60}})
	is.Equal(verdict.Segments[1].FirstStop, 0)
	is.Equal(verdict.Segments[1].LastStop, 4)
	is.Equal(verdict.Segments[1].Variant.StopIds, []string{"s0", "s1", "s2", "s3", "s4", "s5"})
	is.Equal(gapBounds(verdict.Gaps), [][2]int{{0, 0}, {19, 20}, {60, 79}})

	is.True(math.Abs(verdict.DistanceByMode["walk"]-5850) < 1)
	is.True(math.Abs(verdict.DistanceByMode["bus"]-8006) < 1)
	sum := 0.0
	for _, meters := range verdict.DistanceByMode {
		sum += meters
	}
	is.True(sum <= j.Trace.TotalDistance()+1e-6) // a hop is never counted twice
}

func TestVerifier_Verify(t *testing.T) {
	stops := []geodesy.Point{
		{Latitude: 53.3, Longitude: -6.26},
		{Latitude: 53.318, Longitude: -6.26},
		{Latitude: 53.336, Longitude: -6.26},
	}
	bus := traceThrough(stops, 9, 30*time.Second) // 21 positions, 200m every 30s
	driving := eastward(bus[len(bus)-1], 26, 250, 30*time.Second)[1:] // 25 positions at 30km/h

	finder := &fakeFinder{variants: map[string][]schedule.RouteVariant{
		"bus/4A": {{RouteId: "r4a", Stops: stops}},
	}}

	tests := []struct {
		name            string
		segments        []DeclaredSegment
		trace           Trace
		segmentsChecked []bool
		gapsChecked     []bool
		segmentBounds   [][2]int
		gapBounds       [][2]int
		distanceModes   []string
	}{
		{
			name:            "walking",
			segments:        segments("walk"),
			trace:           eastward(origin(), 30, 150, 2*time.Minute),
			segmentsChecked: []bool{true},
			gapsChecked:     []bool{true, true},
			segmentBounds:   [][2]int{{0, 29}},
			gapBounds:       [][2]int{{0, 0}, {29, 29}},
			distanceModes:   []string{"walk"},
		},
		{
			name:            "driving declared as walking",
			segments:        segments("walk"),
			trace:           eastward(origin(), 30, 250, 30*time.Second),
			segmentsChecked: []bool{false},
			gapsChecked:     []bool{true, true},
			segmentBounds:   [][2]int{{0, 29}},
			gapBounds:       [][2]int{{0, 0}, {29, 29}},
			distanceModes:   []string{"walk"},
		},
		{
			name:            "cycling",
			segments:        segments("bike"),
			trace:           eastward(origin(), 30, 250, time.Minute),
			segmentsChecked: []bool{true},
			gapsChecked:     []bool{true, true},
			segmentBounds:   [][2]int{{0, 29}},
			gapBounds:       [][2]int{{0, 0}, {29, 29}},
			distanceModes:   []string{"bike"},
		},
		{
			name:            "car is never doubted",
			segments:        segments("car"),
			trace:           eastward(origin(), 30, 150, 2*time.Minute),
			segmentsChecked: []bool{true},
			gapsChecked:     []bool{true, true},
			segmentBounds:   [][2]int{{0, 29}},
			gapBounds:       [][2]int{{0, 0}, {29, 29}},
			distanceModes:   []string{"car"},
		},
		{
			name:            "long undeclared drive after the bus",
			segments:        segments("bus-4A"),
			trace:           append(append(Trace{}, bus...), driving...),
			segmentsChecked: []bool{true},
			gapsChecked:     []bool{true, false},
			segmentBounds:   [][2]int{{0, 20}},
			gapBounds:       [][2]int{{0, 0}, {20, 45}},
			distanceModes:   []string{"bus", "walk"},
		},
		{
			name:            "short undeclared drive after the bus",
			segments:        segments("bus-4A"),
			trace:           append(append(Trace{}, bus...), driving[:10]...),
			segmentsChecked: []bool{true},
			gapsChecked:     []bool{true, true},
			segmentBounds:   [][2]int{{0, 20}},
			gapBounds:       [][2]int{{0, 0}, {20, 30}},
			distanceModes:   []string{"bus", "walk"},
		},
		{
			name:            "bus line not followed",
			segments:        segments("walk", "bus-4A", "walk"),
			trace:           eastward(origin(), 30, 150, 2*time.Minute)[1:],
			segmentsChecked: []bool{false, false, false},
			gapsChecked:     []bool{true, true, true, true},
			segmentBounds:   [][2]int{{0, -1}, {-1, -1}, {-1, 28}},
			gapBounds:       [][2]int{{0, 0}, {-1, -1}, {-1, -1}, {28, 28}},
		},
		{
			name:            "consecutive private segments",
			segments:        segments("walk", "bike"),
			trace:           eastward(origin(), 30, 150, 2*time.Minute),
			segmentsChecked: []bool{false, false},
			gapsChecked:     []bool{true, true, true},
			segmentBounds:   [][2]int{{0, -1}, {-1, 29}},
			gapBounds:       [][2]int{{0, 0}, {-1, -1}, {29, 29}},
		},
		{
			name:            "no segments",
			segments:        nil,
			trace:           eastward(origin(), 30, 150, 2*time.Minute),
			segmentsChecked: []bool{},
			gapsChecked:     []bool{true},
			segmentBounds:   [][2]int{},
			gapBounds:       [][2]int{{0, 29}},
			distanceModes:   []string{"walk"},
		},
		{
			name:            "empty trace",
			segments:        segments("walk"),
			trace:           Trace{},
			segmentsChecked: []bool{false},
			gapsChecked:     []bool{true, true},
			segmentBounds:   [][2]int{{-1, -1}},
			gapBounds:       [][2]int{{-1, -1}, {-1, -1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := NewVerifier(makeTestLogWriter().log, finder, defaultClassifier(t))
			j := Journey{Id: tt.name, Segments: tt.segments, Trace: tt.trace}
			got, err := verifier.Verify(&j)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if !reflect.DeepEqual(got.SegmentsChecked, tt.segmentsChecked) {
				t.Errorf("Verify() segments checked = %v, want %v", got.SegmentsChecked, tt.segmentsChecked)
			}
			if !reflect.DeepEqual(got.GapsChecked, tt.gapsChecked) {
				t.Errorf("Verify() gaps checked = %v, want %v", got.GapsChecked, tt.gapsChecked)
			}
			if b := bounds(got.Segments); !reflect.DeepEqual(b, tt.segmentBounds) {
				t.Errorf("Verify() segments = %v, want %v", b, tt.segmentBounds)
			}
			if b := gapBounds(got.Gaps); !reflect.DeepEqual(b, tt.gapBounds) {
				t.Errorf("Verify() gaps = %v, want %v", b, tt.gapBounds)
			}
			if len(got.DistanceByMode) != len(tt.distanceModes) {
				t.Errorf("Verify() distance by mode = %v, want modes %v", got.DistanceByMode, tt.distanceModes)
			}
			for _, mode := range tt.distanceModes {
				if _, present := got.DistanceByMode[mode]; !present {
					t.Errorf("Verify() distance by mode = %v, missing %s", got.DistanceByMode, mode)
				}
			}
			sum := 0.0
			for _, meters := range got.DistanceByMode {
				sum += meters
			}
			if total := tt.trace.TotalDistance(); sum > total+1e-6 {
				t.Errorf("Verify() distances sum to %v, more than the %v travelled", sum, total)
			}
		})
	}
}

func TestVerifier_UnknownModeIsLogged(t *testing.T) {
	is := is.New(t)
	logWriter := makeTestLogWriter()
	verifier := NewVerifier(logWriter.log, &fakeFinder{}, defaultClassifier(t))
	j := Journey{Id: "ferry-trip", Segments: segments("ferry"), Trace: eastward(origin(), 10, 150, 2*time.Minute)}

	verdict, err := verifier.Verify(&j)
	is.NoErr(err)
	is.Equal(verdict.SegmentsChecked, []bool{false})
	is.True(!verdict.Valid())
	is.True(logWriter.contains(`journey ferry-trip: unknown mode "ferry" declared in segment 0`))
	is.Equal(len(verdict.DistanceByMode), 0)
}

func TestVerifier_ScheduleErrorStopsVerification(t *testing.T) {
	is := is.New(t)
	scheduleErr := errors.New("relation \"route\" does not exist")
	verifier := NewVerifier(makeTestLogWriter().log, &fakeFinder{err: scheduleErr}, defaultClassifier(t))
	j := Journey{Id: "x", Segments: segments("walk", "luas-Green"), Trace: eastward(origin(), 10, 150, 2*time.Minute)}

	verdict, err := verifier.Verify(&j)
	is.True(errors.Is(err, scheduleErr))
	is.True(verdict == nil)
}

func Test_distanceByMode(t *testing.T) {
	is := is.New(t)
	hops := []float64{1, 2, 4, 8, 16}
	declared := segments("walk", "bus-4A")
	detected := []DetectedSegment{found(0, 2), found(1, 7)}
	// the bus range overlaps a walk hop and runs past the last hop
	gaps := []Gap{{Start: intPtr(0), End: intPtr(0)}, {Start: intPtr(2), End: intPtr(2)}, {Start: intPtr(5), End: intPtr(5)}}

	got := distanceByMode(declared, detected, gaps, hops)
	is.Equal(got, map[string]float64{"walk": 3, "bus": 28})
}
