package gtfs

import (
	"github.com/OpenTransitTools/journeycheck/foundation/database"
	"github.com/jmoiron/sqlx"
)

// Route contains data from a gtfs route definition in a routes.txt file
type Route struct {
	DataSetId      int64   `db:"data_set_id" json:"data_set_id"`
	RouteId        string  `db:"route_id" json:"route_id"`
	AgencyId       *string `db:"agency_id" json:"agency_id"`
	RouteShortName string  `db:"route_short_name" json:"route_short_name"`
	RouteLongName  *string `db:"route_long_name" json:"route_long_name"`
	RouteType      int     `db:"route_type" json:"route_type"`
}

// RecordRoutes saves routes to database in batch
func (dsTx *DataSetTransaction) RecordRoutes(routes []*Route) error {
	for _, route := range routes {
		route.DataSetId = dsTx.DS.Id
	}
	statementString := "insert into route ( " +
		"data_set_id, " +
		"route_id, " +
		"agency_id, " +
		"route_short_name, " +
		"route_long_name, " +
		"route_type) " +
		"values (" +
		":data_set_id, " +
		":route_id, " +
		":agency_id, " +
		":route_short_name, " +
		":route_long_name, " +
		":route_type)"
	_, err := dsTx.Tx.NamedExec(statementString, routes)
	return err
}

// GetRoutes retrieves all routes in the DataSet in the order they were recorded
func GetRoutes(db sqlx.Ext, dataSetId int64) ([]*Route, error) {
	query := "select data_set_id, route_id, agency_id, route_short_name, route_long_name, route_type " +
		"from route where data_set_id = :data_set_id order by recorded_order"
	var results []*Route
	err := database.SelectNamed(db, &results, query, map[string]interface{}{"data_set_id": dataSetId})
	return results, err
}
