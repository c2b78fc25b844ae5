// Package gtfsmanager provides support for retrieving, reading, deleting and saving the gtfs schedule of each
// public transport mode to a database
package gtfsmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenTransitTools/journeycheck/business/data/gtfs"
	"github.com/OpenTransitTools/journeycheck/business/gtfsfeed"
	"github.com/OpenTransitTools/journeycheck/foundation/database"
	"github.com/OpenTransitTools/journeycheck/foundation/httpclient"
	"github.com/jmoiron/sqlx"
)

// DeleteGTFSSchedule deletes all gtfs records associated with gtfs.DataSet with dataSetId
func DeleteGTFSSchedule(log *log.Logger, db *sqlx.DB, dataSetId int64) error {
	dataSet, err := gtfs.GetDataSet(db, dataSetId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no DataSet found with id %d", dataSetId)
		}
		return err
	}
	log.Printf("Removing %v", dataSet)
	var deleted map[string]int64
	err = database.Transact(db, func(tx *sqlx.Tx) error {
		var innerErr error
		deleted, innerErr = gtfs.DeleteDataSet(tx, dataSetId)
		return innerErr
	})
	if err != nil {
		return err
	}
	for table, rows := range deleted {
		log.Printf("Deleted %d lines from %s\n", rows, table)
	}
	log.Printf("Deleted %v", dataSet)
	return nil
}

// UpdateGTFSSchedule checks for an updated gtfs schedule of mode on a remote server.
// If a new version is detected the zip archive at url is downloaded to localDownloadDirectory and saved to the database.
// forceDownload bypasses the remote check.
func UpdateGTFSSchedule(ctx context.Context,
	log *log.Logger,
	db *sqlx.DB,
	client *httpclient.Client,
	mode string,
	localDownloadDirectory string,
	url string,
	forceDownload bool) error {
	if forceDownload {
		log.Printf("Not checking remote %s gtfs file for new information, forcing load of gtfs file", mode)
	} else if !shouldUpdateGTFSSchedule(ctx, log, db, client, mode, url) {
		return nil
	}

	err := makeDirectoryIfNotPresent(localDownloadDirectory)
	if err != nil {
		return err
	}
	start := time.Now()
	localGtfsZipFile := filepath.Join(localDownloadDirectory, mode+"_gtfs.zip")
	log.Printf("Downloading file from %s to %s\n", url, localGtfsZipFile)
	downloadedFile, err := client.DownloadRemoteFile(ctx, localGtfsZipFile, url)

	//remove downloaded file after we are done
	defer func() {
		if _, err := os.Stat(localGtfsZipFile); err == nil {
			err = os.Remove(localGtfsZipFile)
			if err != nil {
				log.Printf("Unable to remove downloaded file. error:%v", err)
			}
		}
	}()
	if err != nil {
		return err
	}

	log.Printf("Downloaded %v bytes in %v\n", downloadedFile.Size, downloadedFile.DownloadedAt.Sub(start))

	_, err = LoadGTFSScheduleFromFile(log, db, mode, downloadedFile.LocalFilePath, downloadedFile.RemoteFileInfo,
		downloadedFile.DownloadedAt)
	return err
}

// shouldUpdateGTFSSchedule compares the latest saved gtfs.DataSet of mode to what's available on the remote
// server and returns true when they differ. On error logs and returns false.
func shouldUpdateGTFSSchedule(ctx context.Context,
	log *log.Logger,
	db *sqlx.DB,
	client *httpclient.Client,
	mode string,
	url string) bool {
	remoteFileInfo, err := client.GetRemoteFileInfo(ctx, url)
	if err != nil {
		log.Printf("Unable to retrieve remote file information from '%s' error: %v", url, err)
		return false
	}

	existingDataSet, err := gtfs.GetLatestSavedDataSet(db, mode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("No %s DataSet loaded, should perform initial load", mode)
			return true
		}
		log.Printf("Received error checking DataSet from database. error: %v", err)
		return false
	}
	if len(remoteFileInfo.ETag) == 0 && remoteFileInfo.LastModifiedTimestamp == 0 {
		log.Printf("Unable to determine remote file timestamp or eTag, can't determine if dataset should be reloaded")
		return false
	}
	if remoteFileInfo.IsDifferent(existingDataSet.ETag, existingDataSet.LastModifiedTimestamp) {
		log.Printf("Remote file indicates new file available")
		return true
	}
	log.Printf("Remote file indicates the loaded DataSet is current: %v", existingDataSet)
	return false
}

// ListGTFSSchedules writes a list of all DataSets to out
func ListGTFSSchedules(db *sqlx.DB, out io.Writer) error {
	dataSets, err := gtfs.GetAllDataSets(db)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, "Loaded DataSets:")
	if err != nil {
		return err
	}
	for _, ds := range dataSets {
		if _, err = fmt.Fprintln(out, ds); err != nil {
			return err
		}
	}
	return nil
}

// LoadGTFSScheduleFromFile reads the gtfs directory or zip file at location and saves it as a new DataSet of mode
// inside a single transaction. The DataSet is only marked saved once every record was written.
func LoadGTFSScheduleFromFile(log *log.Logger,
	db *sqlx.DB,
	mode string,
	location string,
	remoteFileInfo httpclient.RemoteFileInfo,
	downloadedAt time.Time) (*gtfs.DataSet, error) {
	feed, err := gtfsfeed.Open(log, location)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = feed.Close()
	}()
	if missing := feed.MissingFiles(); len(missing) > 0 {
		return nil, fmt.Errorf("%s is missing %v: %w", location, missing, gtfsfeed.ErrMissingFile)
	}

	ds := gtfs.DataSet{
		Mode:                  mode,
		URL:                   remoteFileInfo.Path,
		ETag:                  remoteFileInfo.ETag,
		LastModifiedTimestamp: remoteFileInfo.LastModifiedTimestamp,
		DownloadedAt:          downloadedAt,
	}
	if len(ds.URL) == 0 {
		ds.URL = location
	}
	err = database.Transact(db, func(tx *sqlx.Tx) error {
		err := gtfs.SaveDataSet(tx, &ds)
		if err != nil {
			return err
		}

		// create DataSetTransaction for recording gtfs records
		dsTx := gtfs.DataSetTransaction{
			DS: ds,
			Tx: tx,
		}
		if err = feed.ReadAll(&dsTx); err != nil {
			return err
		}
		now := time.Now()
		ds.SavedAt = &now
		return gtfs.SaveDataSet(tx, &ds)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Saved %v", ds)
	return &ds, nil
}

func makeDirectoryIfNotPresent(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err = os.MkdirAll(directory, os.ModePerm)
		if err != nil {
			return err
		}
	}
	return nil
}
