package gtfs

import (
	"github.com/OpenTransitTools/journeycheck/foundation/database"
	"github.com/jmoiron/sqlx"
)

// Trip contains data from a gtfs trip definition in a trips.txt file
type Trip struct {
	DataSetId    int64   `db:"data_set_id" json:"data_set_id"`
	TripId       string  `db:"trip_id" json:"trip_id"`
	RouteId      string  `db:"route_id" json:"route_id"`
	ServiceId    string  `db:"service_id" json:"service_id"`
	TripHeadsign *string `db:"trip_headsign" json:"trip_headsign"`
	DirectionId  *int    `db:"direction_id" json:"direction_id"`
	ShapeId      *string `db:"shape_id" json:"shape_id"`
}

// RecordTrips saves trips to database in batch
func (dsTx *DataSetTransaction) RecordTrips(trips []*Trip) error {
	for _, trip := range trips {
		trip.DataSetId = dsTx.DS.Id
	}
	statementString := "insert into trip ( " +
		"data_set_id, " +
		"trip_id, " +
		"route_id, " +
		"service_id, " +
		"trip_headsign, " +
		"direction_id, " +
		"shape_id) " +
		"values (" +
		":data_set_id, " +
		":trip_id, " +
		":route_id, " +
		":service_id, " +
		":trip_headsign, " +
		":direction_id, " +
		":shape_id)"
	_, err := dsTx.Tx.NamedExec(statementString, trips)
	return err
}

// GetTrips retrieves all trips in the DataSet ordered by trip_id
func GetTrips(db sqlx.Ext, dataSetId int64) ([]*Trip, error) {
	var results []*Trip
	err := database.SelectNamed(db, &results, "select * from trip where data_set_id = :data_set_id order by trip_id",
		map[string]interface{}{"data_set_id": dataSetId})
	return results, err
}
