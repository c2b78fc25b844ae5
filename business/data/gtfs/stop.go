package gtfs

import (
	"github.com/OpenTransitTools/journeycheck/foundation/database"
	"github.com/jmoiron/sqlx"
)

// Stop contains a record from a gtfs stops.txt file
type Stop struct {
	DataSetId int64   `db:"data_set_id" json:"data_set_id"`
	StopId    string  `db:"stop_id" json:"stop_id"`
	StopCode  *string `db:"stop_code" json:"stop_code"`
	StopName  string  `db:"stop_name" json:"stop_name"`
	StopLat   float64 `db:"stop_lat" json:"stop_lat"`
	StopLon   float64 `db:"stop_lon" json:"stop_lon"`
}

// RecordStops saves stops to database in batch
func (dsTx *DataSetTransaction) RecordStops(stops []*Stop) error {
	for _, stop := range stops {
		stop.DataSetId = dsTx.DS.Id
	}
	statementString := "insert into stop ( " +
		"data_set_id, " +
		"stop_id, " +
		"stop_code, " +
		"stop_name, " +
		"stop_lat, " +
		"stop_lon) " +
		"values (" +
		":data_set_id, " +
		":stop_id, " +
		":stop_code, " +
		":stop_name, " +
		":stop_lat, " +
		":stop_lon)"
	_, err := dsTx.Tx.NamedExec(statementString, stops)
	return err
}

// GetStops retrieves all stops in the DataSet
func GetStops(db sqlx.Ext, dataSetId int64) ([]*Stop, error) {
	var results []*Stop
	err := database.SelectNamed(db, &results, "select * from stop where data_set_id = :data_set_id order by stop_id",
		map[string]interface{}{"data_set_id": dataSetId})
	return results, err
}
