// Package gtfsfeed reads the gtfs files of a schedule from a directory or a zip archive
package gtfsfeed

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/OpenTransitTools/journeycheck/business/data/gtfs"
)

// Names of the gtfs files a schedule is read from
const (
	RoutesFile    = "routes.txt"
	TripsFile     = "trips.txt"
	StopTimesFile = "stop_times.txt"
	StopsFile     = "stops.txt"
)

// RequiredFiles lists every gtfs file needed to match journeys against a schedule, in the order they are loaded
var RequiredFiles = []string{RoutesFile, StopsFile, TripsFile, StopTimesFile}

// ErrMissingFile is returned when a requested gtfs file is not part of the feed
var ErrMissingFile = errors.New("gtfs file missing from feed")

// Recorder receives batches of records as they are parsed from a feed
type Recorder interface {
	RecordRoutes(routes []*gtfs.Route) error
	RecordTrips(trips []*gtfs.Trip) error
	RecordStopTimes(stopTimes []*gtfs.StopTime) error
	RecordStops(stops []*gtfs.Stop) error
}

// Feed provides access to the gtfs files found in a directory or zip archive
type Feed struct {
	log      *log.Logger
	path     string
	zip      *zip.ReadCloser
	zipFiles map[string]*zip.File
}

// Open prepares the feed at location, which may be a directory holding gtfs files or a zip archive of them.
// Zip archives must be closed with Close when no longer needed.
func Open(log *log.Logger, location string) (*Feed, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("unable to open gtfs feed: %w", err)
	}
	feed := Feed{log: log, path: location}
	if info.IsDir() {
		return &feed, nil
	}

	r, err := zip.OpenReader(location)
	if err != nil {
		return nil, fmt.Errorf("unable to open gtfs zip file %s: %w", location, err)
	}
	feed.zip = r
	feed.zipFiles = make(map[string]*zip.File)
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// some archives nest their files inside a folder
		feed.zipFiles[path.Base(f.Name)] = f
	}
	return &feed, nil
}

// Path returns the location the feed was opened from
func (f *Feed) Path() string {
	return f.path
}

// Close releases the zip archive, if any
func (f *Feed) Close() error {
	if f.zip == nil {
		return nil
	}
	return f.zip.Close()
}

// MissingFiles returns which of RequiredFiles can not be found in the feed
func (f *Feed) MissingFiles() []string {
	missing := make([]string, 0)
	for _, name := range RequiredFiles {
		rc, err := f.open(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		_ = rc.Close()
	}
	return missing
}

func (f *Feed) open(name string) (io.ReadCloser, error) {
	if f.zip != nil {
		zf, present := f.zipFiles[name]
		if !present {
			return nil, fmt.Errorf("%s in %s: %w", name, f.path, ErrMissingFile)
		}
		return zf.Open()
	}
	file, err := os.Open(filepath.Join(f.path, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s in %s: %w", name, f.path, ErrMissingFile)
	}
	return file, err
}

// Read parses each named gtfs file in order and hands the records to recorder.
// Reading halts on the first error, which is returned.
func (f *Feed) Read(recorder Recorder, names ...string) error {
	for _, name := range names {
		reader, err := newRowReader(name, recorder)
		if err != nil {
			return err
		}
		if err = f.readFile(name, reader); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll parses every required gtfs file into recorder
func (f *Feed) ReadAll(recorder Recorder) error {
	if missing := f.MissingFiles(); len(missing) > 0 {
		return fmt.Errorf("gtfs feed %s is missing the following file(s) %s: %w",
			f.path, strings.Join(missing, ","), ErrMissingFile)
	}
	return f.Read(recorder, RequiredFiles...)
}

func newRowReader(name string, recorder Recorder) (rowReader, error) {
	switch name {
	case RoutesFile:
		return newBatchingRowReader(buildRoute, recorder.RecordRoutes), nil
	case TripsFile:
		return newBatchingRowReader(buildTrip, recorder.RecordTrips), nil
	case StopTimesFile:
		return newBatchingRowReader(buildStopTime, recorder.RecordStopTimes), nil
	case StopsFile:
		return newBatchingRowReader(buildStop, recorder.RecordStops), nil
	}
	return nil, fmt.Errorf("no reader available for gtfs file %s", name)
}

// readFile opens a gtfs file and reads every row with rowReader
func (f *Feed) readFile(name string, reader rowReader) error {
	start := time.Now()
	rc, err := f.open(name)
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()

	parser, err := makeFileParser(rc, name)
	if err != nil {
		return err
	}
	if err = loadRows(parser, reader); err != nil {
		return err
	}
	f.log.Printf("Loaded %d rows in file %s from %s in %v\n", parser.line-1, name, f.path, time.Since(start))
	return nil
}

// loadRows iterates over all rows in fileParser and feeds them into rowReader.
// reading halts if an error occurs and the error is returned
func loadRows(parser *fileParser, reader rowReader) error {
	for {
		err := parser.nextLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("in file %v, line %v: %w", parser.Filename, parser.line, err)
		}
		if err = reader.addRow(parser); err != nil {
			return err
		}
	}
	return reader.flush()
}

// Collector is a Recorder keeping every record in memory
type Collector struct {
	Routes    []*gtfs.Route
	Trips     []*gtfs.Trip
	StopTimes []*gtfs.StopTime
	Stops     []*gtfs.Stop
}

// RecordRoutes appends routes
func (c *Collector) RecordRoutes(routes []*gtfs.Route) error {
	c.Routes = append(c.Routes, routes...)
	return nil
}

// RecordTrips appends trips
func (c *Collector) RecordTrips(trips []*gtfs.Trip) error {
	c.Trips = append(c.Trips, trips...)
	return nil
}

// RecordStopTimes appends stopTimes
func (c *Collector) RecordStopTimes(stopTimes []*gtfs.StopTime) error {
	c.StopTimes = append(c.StopTimes, stopTimes...)
	return nil
}

// RecordStops appends stops
func (c *Collector) RecordStops(stops []*gtfs.Stop) error {
	c.Stops = append(c.Stops, stops...)
	return nil
}
