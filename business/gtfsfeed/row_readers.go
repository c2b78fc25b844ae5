package gtfsfeed

import (
	"github.com/OpenTransitTools/journeycheck/business/data/gtfs"
)

const batchedRowCount = 250

// rowReader reads rows from a gtfs csv file and hands the resulting records to a Recorder
type rowReader interface {

	// addRow should read the current line from fileParser and record the result,
	// or store the record to be recorded in a batch later via flush
	addRow(parser *fileParser) error

	// flush should record any pending records, if any
	flush() error
}

// batchingRowReader implements rowReader for one record type, recording records in batches
type batchingRowReader[T any] struct {
	build  func(parser *fileParser) (*T, error)
	record func(batch []*T) error
	batch  []*T
}

func newBatchingRowReader[T any](build func(*fileParser) (*T, error),
	record func([]*T) error) *batchingRowReader[T] {
	return &batchingRowReader[T]{
		build:  build,
		record: record,
		batch:  make([]*T, 0, batchedRowCount),
	}
}

func (r *batchingRowReader[T]) addRow(parser *fileParser) error {
	row, err := r.build(parser)
	if err != nil {
		return err
	}
	r.batch = append(r.batch, row)

	if len(r.batch) == batchedRowCount {
		return r.flush()
	}
	return nil
}

func (r *batchingRowReader[T]) flush() error {
	if len(r.batch) == 0 {
		return nil
	}
	if err := r.record(r.batch); err != nil {
		return err
	}
	r.batch = make([]*T, 0, batchedRowCount)
	return nil
}

func buildRoute(parser *fileParser) (*gtfs.Route, error) {
	route := gtfs.Route{
		RouteId:        parser.getString("route_id", false),
		AgencyId:       parser.getStringPointer("agency_id", true),
		RouteShortName: parser.getString("route_short_name", true),
		RouteLongName:  parser.getStringPointer("route_long_name", true),
		RouteType:      parser.getInt("route_type", true),
	}
	return &route, parser.getError()
}

func buildTrip(parser *fileParser) (*gtfs.Trip, error) {
	trip := gtfs.Trip{
		TripId:       parser.getString("trip_id", false),
		RouteId:      parser.getString("route_id", false),
		ServiceId:    parser.getString("service_id", true),
		TripHeadsign: parser.getStringPointer("trip_headsign", true),
		DirectionId:  parser.getIntPointer("direction_id", true),
		ShapeId:      parser.getStringPointer("shape_id", true),
	}
	return &trip, parser.getError()
}

func buildStopTime(parser *fileParser) (*gtfs.StopTime, error) {
	stopTime := gtfs.StopTime{
		TripId:        parser.getString("trip_id", false),
		StopId:        parser.getString("stop_id", false),
		StopSequence:  uint32(parser.getInt("stop_sequence", false)),
		ArrivalTime:   parser.getGTFSTimePointer("arrival_time", true),
		DepartureTime: parser.getGTFSTimePointer("departure_time", true),
	}
	return &stopTime, parser.getError()
}

func buildStop(parser *fileParser) (*gtfs.Stop, error) {
	stop := gtfs.Stop{
		StopId:   parser.getString("stop_id", false),
		StopCode: parser.getStringPointer("stop_code", true),
		StopName: parser.getString("stop_name", true),
		StopLat:  parser.getFloat64("stop_lat", false),
		StopLon:  parser.getFloat64("stop_lon", false),
	}
	return &stop, parser.getError()
}
