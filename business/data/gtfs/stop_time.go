package gtfs

import (
	"github.com/OpenTransitTools/journeycheck/foundation/database"
	"github.com/jmoiron/sqlx"
)

// StopTime contains a record from a gtfs stop_times.txt file
// represents a scheduled visit of a trip at a stop.
type StopTime struct {
	DataSetId     int64  `db:"data_set_id" json:"data_set_id"`
	TripId        string `db:"trip_id" json:"trip_id"`
	StopSequence  uint32 `db:"stop_sequence" json:"stop_sequence"`
	StopId        string `db:"stop_id" json:"stop_id"`
	ArrivalTime   *int   `db:"arrival_time" json:"arrival_time"`
	DepartureTime *int   `db:"departure_time" json:"departure_time"`
}

// RecordStopTimes saves stopTimes to database in batch
func (dsTx *DataSetTransaction) RecordStopTimes(stopTimes []*StopTime) error {
	for _, stopTime := range stopTimes {
		stopTime.DataSetId = dsTx.DS.Id
	}

	statementString := "insert into stop_time ( " +
		"data_set_id, " +
		"trip_id, " +
		"stop_sequence, " +
		"stop_id, " +
		"arrival_time, " +
		"departure_time) " +
		"values (" +
		":data_set_id, " +
		":trip_id, " +
		":stop_sequence, " +
		":stop_id, " +
		":arrival_time, " +
		":departure_time)"
	_, err := dsTx.Tx.NamedExec(statementString, stopTimes)
	return err
}

// GetStopTimes retrieves all stop times in the DataSet ordered by trip_id and stop_sequence
func GetStopTimes(db sqlx.Ext, dataSetId int64) ([]*StopTime, error) {
	var results []*StopTime
	err := database.SelectNamed(db, &results,
		"select * from stop_time where data_set_id = :data_set_id order by trip_id, stop_sequence",
		map[string]interface{}{"data_set_id": dataSetId})
	return results, err
}
