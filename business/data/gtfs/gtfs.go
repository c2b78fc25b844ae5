// Package gtfs provides gtfs related CRUD functionality for the schedules of each public transport mode
package gtfs

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// DataSetTransaction contains required data for recording new gtfs records owned by a DataSet
type DataSetTransaction struct {
	DS DataSet
	Tx *sqlx.Tx
}

// DataSet encompasses a gtfs schedule for one transport mode available from a source at a point in time.
// The same source will be loaded over time.
// Each record from a gtfs file shares the DataSet.Id value as part of the primary key.
type DataSet struct {
	Id   int64
	Mode string
	URL  string
	// ETag is the ETag header if available from the source web site for the gtfs file. Is empty if not available
	ETag string `db:"e_tag"`
	// LastModifiedTimestamp is the unix epoch seconds the source web site provided for the last time the gtfs file was modified
	// is 0 if not available
	LastModifiedTimestamp int64      `db:"last_modified_timestamp"`
	DownloadedAt          time.Time  `db:"downloaded_at"`
	SavedAt               *time.Time `db:"saved_at"`
}

func (d DataSet) String() string {
	lastModified := ""
	if d.LastModifiedTimestamp != 0 {
		lastModTime := time.Unix(d.LastModifiedTimestamp, 0)
		lastModified = formatTime(&lastModTime)
	}
	return fmt.Sprintf("DataSet Id:%d, mode:%s, url:%s, ETag:%s, lastModified:%s downloaded:%s savedAt:%s",
		d.Id, d.Mode, d.URL, d.ETag, lastModified, formatTime(&d.DownloadedAt), formatTime(d.SavedAt))
}

func formatTime(time *time.Time) string {
	if time == nil {
		return ""
	}
	return time.Format("2006-01-02T15:04:05")
}

// SaveDataSet saves new or updates existing DataSets. Existing records are determined by a non-zero DataSet.Id
func SaveDataSet(tx *sqlx.Tx, ds *DataSet) error {
	if ds.Id != 0 {
		statementString := "update data_set set " +
			"mode = :mode, " +
			"url = :url, " +
			"e_tag = :e_tag, " +
			"last_modified_timestamp = :last_modified_timestamp, " +
			"downloaded_at = :downloaded_at, " +
			"saved_at = :saved_at " +
			"where id = :id"
		_, err := tx.NamedExec(statementString, ds)
		return err
	}

	statementString := "insert into data_set ( " +
		"mode, " +
		"url, " +
		"e_tag, " +
		"last_modified_timestamp, " +
		"downloaded_at, " +
		"saved_at) " +
		"values (" +
		":mode, " +
		":url, " +
		":e_tag, " +
		":last_modified_timestamp, " +
		":downloaded_at, " +
		":saved_at) returning id"
	query, args, err := tx.BindNamed(statementString, ds)
	if err != nil {
		return err
	}
	return tx.Get(&ds.Id, query, args...)
}

// GetDataSet retrieves DataSet with dataSetId
func GetDataSet(db sqlx.Queryer, dataSetId int64) (*DataSet, error) {
	query := "select * from data_set where id = $1"
	ds := DataSet{}
	err := sqlx.Get(db, &ds, query, dataSetId)
	return &ds, err
}

// GetLatestSavedDataSet retrieves the latest DataSet for mode with a saved_at date
// returns sql.ErrNoRows if no schedule has been saved for the mode
func GetLatestSavedDataSet(db sqlx.Queryer, mode string) (*DataSet, error) {
	query := "select * from data_set where mode = $1 and saved_at is not null " +
		"order by saved_at desc, downloaded_at desc limit 1"
	ds := DataSet{}
	err := sqlx.Get(db, &ds, query, mode)
	return &ds, err
}

// GetAllDataSets retrieves all DataSets currently loaded, ordered by mode
func GetAllDataSets(db sqlx.Queryer) ([]DataSet, error) {
	query := "select * from data_set order by mode, id"
	var results []DataSet
	err := sqlx.Select(db, &results, query)
	return results, err
}

// DeleteDataSet removes the DataSet with dataSetId and every record it owns.
// Returns the number of rows removed from each table keyed by table name.
func DeleteDataSet(tx *sqlx.Tx, dataSetId int64) (map[string]int64, error) {
	deleteStatements := []struct {
		name  string
		query string
	}{
		{name: "stop_time", query: "delete from stop_time where data_set_id = $1"},
		{name: "trip", query: "delete from trip where data_set_id = $1"},
		{name: "route", query: "delete from route where data_set_id = $1"},
		{name: "stop", query: "delete from stop where data_set_id = $1"},
		{name: "data_set", query: "delete from data_set where id = $1"},
	}
	results := make(map[string]int64, len(deleteStatements))
	for _, deleteStatement := range deleteStatements {
		result, err := tx.Exec(deleteStatement.query, dataSetId)
		if err != nil {
			return results, fmt.Errorf("error running '%s' error:%w", deleteStatement.query, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return results, fmt.Errorf("error retrieving rows affected after '%s' error:%w", deleteStatement.query, err)
		}
		results[deleteStatement.name] = rows
	}
	return results, nil
}
