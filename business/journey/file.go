package journey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OpenTransitTools/journeycheck/foundation/geodesy"
	"github.com/gocarina/gocsv"
)

// Separators used in legacy csv file names such as walk_bus-4A#morning.csv
const (
	commentSeparator = "#"
	segmentSeparator = "_"
	lineSeparator    = "-"
)

// timestampLayouts are tried in order, fractional seconds are accepted by each
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z0700",
}

// ParseTimestamp reads an ISO-8601 timestamp with or without zone, timestamps without a zone are UTC
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp %q", value)
}

// gpsRow is a row of a csv gps trace
type gpsRow struct {
	Created   string  `csv:"created"`
	Longitude float64 `csv:"longitude"`
	Latitude  float64 `csv:"latitude"`
}

// decodeCSVTrace reads a trace from csv with created, longitude and latitude columns
func decodeCSVTrace(r io.Reader) (Trace, error) {
	var rows []*gpsRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("unable to read gps csv: %w", err)
	}
	trace := make(Trace, len(rows))
	for i, row := range rows {
		created, err := ParseTimestamp(row.Created)
		if err != nil {
			return nil, fmt.Errorf("gps row %d: %w", i+1, err)
		}
		trace[i] = geodesy.Position{
			Point:     geodesy.Point{Latitude: row.Latitude, Longitude: row.Longitude},
			Timestamp: created,
		}
	}
	return trace, nil
}

// decodeJSONTrace reads the gps value of a journey document. It is either csv text or rows of
// [created, longitude, latitude]. Rows starting with a number are [longitude, latitude, created].
func decodeJSONTrace(raw json.RawMessage) (Trace, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Trace{}, nil
	}
	if raw[0] == '"' {
		var csvText string
		if err := json.Unmarshal(raw, &csvText); err != nil {
			return nil, err
		}
		return decodeCSVTrace(strings.NewReader(csvText))
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("gps must be csv text or an array of rows: %w", err)
	}
	timeFirst := len(rows) > 0 && len(rows[0]) > 0 && bytes.HasPrefix(bytes.TrimSpace(rows[0][0]), []byte(`"`))

	trace := make(Trace, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("gps row %d has %d values, expected 3", i, len(row))
		}
		createdIndex, lonIndex, latIndex := 2, 0, 1
		if timeFirst {
			createdIndex, lonIndex, latIndex = 0, 1, 2
		}
		var created string
		var position geodesy.Position
		if err := json.Unmarshal(row[createdIndex], &created); err != nil {
			return nil, fmt.Errorf("gps row %d: %w", i, err)
		}
		if err := json.Unmarshal(row[lonIndex], &position.Longitude); err != nil {
			return nil, fmt.Errorf("gps row %d longitude: %w", i, err)
		}
		if err := json.Unmarshal(row[latIndex], &position.Latitude); err != nil {
			return nil, fmt.Errorf("gps row %d latitude: %w", i, err)
		}
		timestamp, err := ParseTimestamp(created)
		if err != nil {
			return nil, fmt.Errorf("gps row %d: %w", i, err)
		}
		position.Timestamp = timestamp
		trace[i] = position
	}
	return trace, nil
}

// document is the json form of a journey
type document struct {
	Id      string            `json:"id"`
	GPS     json.RawMessage   `json:"gps"`
	Journey []DeclaredSegment `json:"journey"`
}

// DecodeJSON reads a journey document with gps and journey members
func DecodeJSON(data []byte) (*Journey, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to decode journey: %w", err)
	}
	trace, err := decodeJSONTrace(doc.GPS)
	if err != nil {
		return nil, err
	}
	return &Journey{Id: doc.Id, Segments: doc.Journey, Trace: trace}, nil
}

// SegmentsFromFilename reads the declared segments encoded in a legacy csv file name,
// walk_bus-4A_luas-Green#comment.csv declares walk, bus line 4A then luas line Green
func SegmentsFromFilename(filename string) []DeclaredSegment {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.SplitN(name, commentSeparator, 2)[0]

	parts := strings.Split(name, segmentSeparator)
	results := make([]DeclaredSegment, 0, len(parts))
	for _, part := range parts {
		modeAndLine := strings.SplitN(part, lineSeparator, 2)
		segment := DeclaredSegment{Mode: Mode(modeAndLine[0])}
		if len(modeAndLine) > 1 {
			segment.Line = modeAndLine[1]
		}
		results = append(results, segment)
	}
	return results
}

// ReadFile loads a journey from a .json document or a legacy .csv trace whose name declares the segments
func ReadFile(path string) (*Journey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		j, err := DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(j.Id) == 0 {
			j.Id = filepath.Base(path)
		}
		return j, nil
	case ".csv":
		trace, err := decodeCSVTrace(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &Journey{Id: filepath.Base(path), Segments: SegmentsFromFilename(path), Trace: trace}, nil
	}
	return nil, fmt.Errorf("unknown journey file type %s, must be .csv or .json", path)
}
