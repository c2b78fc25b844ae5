package schedule

import (
	"database/sql"
	"errors"
	"log"
	"sync"

	"github.com/OpenTransitTools/journeycheck/business/data/gtfs"
	"github.com/OpenTransitTools/journeycheck/business/gtfsfeed"
	"github.com/jmoiron/sqlx"
)

// Source loads the records of one mode's schedule. Each method is called at most once per Feed.
type Source interface {
	Routes() ([]*gtfs.Route, error)
	Trips() ([]*gtfs.Trip, error)
	StopTimes() ([]*gtfs.StopTime, error)
	Stops() ([]*gtfs.Stop, error)
}

// FileSource reads schedule tables from a gtfs directory or zip archive
type FileSource struct {
	log      *log.Logger
	location string
}

// NewFileSource creates a FileSource for the gtfs feed at location
func NewFileSource(log *log.Logger, location string) *FileSource {
	return &FileSource{log: log, location: location}
}

func (s *FileSource) read(name string) (*gtfsfeed.Collector, error) {
	feed, err := gtfsfeed.Open(s.log, s.location)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = feed.Close()
	}()
	collector := gtfsfeed.Collector{}
	if err = feed.Read(&collector, name); err != nil {
		return nil, err
	}
	return &collector, nil
}

// Routes reads routes.txt
func (s *FileSource) Routes() ([]*gtfs.Route, error) {
	collector, err := s.read(gtfsfeed.RoutesFile)
	if err != nil {
		return nil, err
	}
	return collector.Routes, nil
}

// Trips reads trips.txt
func (s *FileSource) Trips() ([]*gtfs.Trip, error) {
	collector, err := s.read(gtfsfeed.TripsFile)
	if err != nil {
		return nil, err
	}
	return collector.Trips, nil
}

// StopTimes reads stop_times.txt
func (s *FileSource) StopTimes() ([]*gtfs.StopTime, error) {
	collector, err := s.read(gtfsfeed.StopTimesFile)
	if err != nil {
		return nil, err
	}
	return collector.StopTimes, nil
}

// Stops reads stops.txt
func (s *FileSource) Stops() ([]*gtfs.Stop, error) {
	collector, err := s.read(gtfsfeed.StopsFile)
	if err != nil {
		return nil, err
	}
	return collector.Stops, nil
}

// DatabaseSource reads schedule tables from the latest saved gtfs.DataSet of a mode
type DatabaseSource struct {
	db      *sqlx.DB
	mode    string
	once    sync.Once
	dataSet *gtfs.DataSet
	err     error
}

// NewDatabaseSource creates a DatabaseSource for mode
func NewDatabaseSource(db *sqlx.DB, mode string) *DatabaseSource {
	return &DatabaseSource{db: db, mode: mode}
}

// dataSetId finds the data set to read from, once. A mode without a saved data set has no schedule.
func (s *DatabaseSource) dataSetId() (int64, error) {
	s.once.Do(func() {
		s.dataSet, s.err = gtfs.GetLatestSavedDataSet(s.db, s.mode)
		if errors.Is(s.err, sql.ErrNoRows) {
			s.err = &LookupError{Mode: s.mode}
		}
	})
	if s.err != nil {
		return 0, s.err
	}
	return s.dataSet.Id, nil
}

// Routes reads the route table
func (s *DatabaseSource) Routes() ([]*gtfs.Route, error) {
	id, err := s.dataSetId()
	if err != nil {
		return nil, err
	}
	return gtfs.GetRoutes(s.db, id)
}

// Trips reads the trip table
func (s *DatabaseSource) Trips() ([]*gtfs.Trip, error) {
	id, err := s.dataSetId()
	if err != nil {
		return nil, err
	}
	return gtfs.GetTrips(s.db, id)
}

// StopTimes reads the stop_time table
func (s *DatabaseSource) StopTimes() ([]*gtfs.StopTime, error) {
	id, err := s.dataSetId()
	if err != nil {
		return nil, err
	}
	return gtfs.GetStopTimes(s.db, id)
}

// Stops reads the stop table
func (s *DatabaseSource) Stops() ([]*gtfs.Stop, error) {
	id, err := s.dataSetId()
	if err != nil {
		return nil, err
	}
	return gtfs.GetStops(s.db, id)
}
