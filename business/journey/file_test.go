package journey

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/OpenTransitTools/journeycheck/foundation/geodesy"
	"github.com/matryer/is"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Time
		wantErr bool
	}{
		{value: "2023-03-14T08:00:00", want: time.Date(2023, 3, 14, 8, 0, 0, 0, time.UTC)},
		{value: "2023-03-14 08:00:00", want: time.Date(2023, 3, 14, 8, 0, 0, 0, time.UTC)},
		{value: " 2023-03-14 08:00:00.25 ", want: time.Date(2023, 3, 14, 8, 0, 0, 250000000, time.UTC)},
		{value: "2023-03-14T08:00:00Z", want: time.Date(2023, 3, 14, 8, 0, 0, 0, time.UTC)},
		{value: "2023-03-14T09:00:00+01:00", want: time.Date(2023, 3, 14, 8, 0, 0, 0, time.UTC)},
		{value: "2023-03-14 09:00:00+0100", want: time.Date(2023, 3, 14, 8, 0, 0, 0, time.UTC)},
		{value: "14/03/2023 08:00", wantErr: true},
		{value: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	first := geodesy.Position{
		Point:     geodesy.Point{Latitude: 53.3, Longitude: -6.26},
		Timestamp: time.Date(2023, 3, 14, 8, 0, 0, 0, time.UTC),
	}
	second := geodesy.Position{
		Point:     geodesy.Point{Latitude: 53.301, Longitude: -6.261},
		Timestamp: time.Date(2023, 3, 14, 8, 0, 30, 0, time.UTC),
	}
	tests := []struct {
		name    string
		data    string
		want    Trace
		wantErr bool
	}{
		{
			name: "csv text",
			data: `{"gps": "created,longitude,latitude\n2023-03-14T08:00:00,-6.26,53.3\n2023-03-14T08:00:30,-6.261,53.301\n",
				"journey": [["bus", "4A"]]}`,
			want: Trace{first, second},
		},
		{
			name: "rows starting with created",
			data: `{"gps": [["2023-03-14T08:00:00", -6.26, 53.3], ["2023-03-14 08:00:30", -6.261, 53.301]],
				"journey": [["bus", "4A"]]}`,
			want: Trace{first, second},
		},
		{
			name: "rows ending with created",
			data: `{"gps": [[-6.26, 53.3, "2023-03-14T08:00:00"], [-6.261, 53.301, "2023-03-14T08:00:30Z"]],
				"journey": [["bus", "4A"]]}`,
			want: Trace{first, second},
		},
		{
			name: "empty rows",
			data: `{"gps": [], "journey": [["bus", "4A"]]}`,
			want: Trace{},
		},
		{
			name:    "short row",
			data:    `{"gps": [[-6.26, 53.3]], "journey": [["bus", "4A"]]}`,
			wantErr: true,
		},
		{
			name:    "bad timestamp",
			data:    `{"gps": [["yesterday", -6.26, 53.3]], "journey": [["bus", "4A"]]}`,
			wantErr: true,
		},
		{
			name:    "gps object",
			data:    `{"gps": {"lat": 53.3}, "journey": [["bus", "4A"]]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `gps,journey`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJSON([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got.Segments, []DeclaredSegment{{Mode: Bus, Line: "4A"}}) {
				t.Errorf("DecodeJSON() segments = %v", got.Segments)
			}
			if len(got.Trace) != len(tt.want) {
				t.Fatalf("DecodeJSON() trace = %v, want %v", got.Trace, tt.want)
			}
			for i := range tt.want {
				if got.Trace[i].Point != tt.want[i].Point || !got.Trace[i].Timestamp.Equal(tt.want[i].Timestamp) {
					t.Errorf("DecodeJSON() position %d = %v, want %v", i, got.Trace[i], tt.want[i])
				}
			}
		})
	}
}

func TestSegmentsFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     []DeclaredSegment
	}{
		{
			filename: "walk.csv",
			want:     []DeclaredSegment{{Mode: Walk}},
		},
		{
			filename: "/data/traces/walk_bus-4A#morning.csv",
			want:     []DeclaredSegment{{Mode: Walk}, {Mode: Bus, Line: "4A"}},
		},
		{
			filename: "bike_luas-Green_walk_dart#late-again.csv",
			want:     []DeclaredSegment{{Mode: Bike}, {Mode: Luas, Line: "Green"}, {Mode: Walk}, {Mode: Dart}},
		},
		{
			filename: "bus-X-1.csv",
			want:     []DeclaredSegment{{Mode: Bus, Line: "X-1"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := SegmentsFromFilename(tt.filename); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SegmentsFromFilename() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	is := is.New(t)

	j, err := ReadFile(filepath.Join("testdata", "walk_bus.json"))
	is.NoErr(err)
	is.Equal(j.Id, "walk-bus-4a")
	is.Equal(len(j.Trace), 80)
	is.Equal(j.Segments, []DeclaredSegment{{Mode: Walk}, {Mode: Bus, Line: "4A"}})
	is.NoErr(j.Validate())

	j, err = ReadFile(filepath.Join("testdata", "walk_bus-4A#morning.csv"))
	is.NoErr(err)
	is.Equal(j.Id, "walk_bus-4A#morning.csv")
	is.Equal(j.Segments, []DeclaredSegment{{Mode: Walk}, {Mode: Bus, Line: "4A"}})
	is.Equal(len(j.Trace), 4)
	is.Equal(j.Trace[2].Timestamp, time.Date(2023, 3, 14, 8, 2, 0, 500000000, time.UTC))
	is.Equal(j.Trace[3].Point, geodesy.Point{Latitude: 53.3002, Longitude: -6.267})

	j, err = ReadFile(filepath.Join("testdata", "no_gps.json"))
	is.NoErr(err)
	is.Equal(j.Id, "no_gps.json") // id defaults to the file name
	is.Equal(len(j.Trace), 0)

	_, err = ReadFile(filepath.Join("testdata", "bus", "routes.txt"))
	is.True(err != nil) // unknown extension

	_, err = ReadFile(filepath.Join("testdata", "missing.json"))
	is.True(err != nil)
}
