package gtfsfeed

import (
	"archive/zip"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTransitTools/journeycheck/business/data/gtfs"
	"github.com/matryer/is"
)

type testLogWriter struct {
	logLines []string
	log      *log.Logger
}

func makeTestLogWriter() *testLogWriter {
	logWriter := testLogWriter{
		logLines: make([]string, 0),
	}
	logWriter.log = log.New(&logWriter, "GTFS_FEED : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return &logWriter
}

func (t *testLogWriter) Write(p []byte) (n int, err error) {
	t.logLines = append(t.logLines, string(p))
	return len(p), nil
}

// zipDirectory writes every file in directory into a zip archive nested under folder
func zipDirectory(t *testing.T, directory string, folder string) string {
	t.Helper()
	destination := filepath.Join(t.TempDir(), "gtfs.zip")
	out, err := os.Create(destination)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = out.Close()
	}()
	w := zip.NewWriter(out)
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		contents, err := os.ReadFile(filepath.Join(directory, entry.Name()))
		if err != nil {
			t.Fatal(err)
		}
		f, err := w.Create(folder + entry.Name())
		if err != nil {
			t.Fatal(err)
		}
		if _, err = f.Write(contents); err != nil {
			t.Fatal(err)
		}
	}
	if err = w.Close(); err != nil {
		t.Fatal(err)
	}
	return destination
}

func TestFeed_ReadAll(t *testing.T) {
	tests := []struct {
		name     string
		location func(t *testing.T) string
	}{
		{
			name:     "directory",
			location: func(t *testing.T) string { return filepath.Join("testdata", "bus") },
		},
		{
			name:     "zip archive",
			location: func(t *testing.T) string { return zipDirectory(t, filepath.Join("testdata", "bus"), "") },
		},
		{
			name:     "zip archive with nested folder",
			location: func(t *testing.T) string { return zipDirectory(t, filepath.Join("testdata", "bus"), "gtfs/") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			logWriter := makeTestLogWriter()
			feed, err := Open(logWriter.log, tt.location(t))
			is.NoErr(err)
			defer func() {
				_ = feed.Close()
			}()

			is.Equal(len(feed.MissingFiles()), 0)
			collector := Collector{}
			is.NoErr(feed.ReadAll(&collector))

			is.Equal(len(collector.Routes), 3)
			is.Equal(collector.Routes[0].RouteId, "r4a") // byte order mark removed from first header
			is.Equal(collector.Routes[2].RouteShortName, "4A")
			is.Equal(len(collector.Trips), 4)
			is.Equal(len(collector.StopTimes), 11)
			is.Equal(len(collector.Stops), 4)
			is.Equal(collector.Stops[3].StopCode, nil)
			is.Equal(collector.StopTimes[9].ArrivalTime, nil)
			is.Equal(*collector.StopTimes[6].ArrivalTime, 25*3600)
			is.Equal(len(logWriter.logLines), 4)
		})
	}
}

func TestFeed_Read(t *testing.T) {
	is := is.New(t)
	feed, err := Open(makeTestLogWriter().log, filepath.Join("testdata", "bus"))
	is.NoErr(err)

	collector := Collector{}
	is.NoErr(feed.Read(&collector, StopsFile))
	is.Equal(len(collector.Stops), 4)
	is.Equal(len(collector.Routes), 0)

	err = feed.Read(&collector, "shapes.txt")
	is.True(err != nil)
}

func TestFeed_MissingFiles(t *testing.T) {
	is := is.New(t)
	directory := t.TempDir()
	err := os.WriteFile(filepath.Join(directory, RoutesFile), []byte("route_id,route_short_name\nr1,1\n"), 0644)
	is.NoErr(err)

	feed, err := Open(makeTestLogWriter().log, directory)
	is.NoErr(err)
	is.Equal(feed.MissingFiles(), []string{StopsFile, TripsFile, StopTimesFile})

	err = feed.ReadAll(&Collector{})
	is.True(errors.Is(err, ErrMissingFile))

	err = feed.Read(&Collector{}, TripsFile)
	is.True(errors.Is(err, ErrMissingFile))

	_, err = Open(makeTestLogWriter().log, filepath.Join(directory, "nothing-here"))
	is.True(err != nil)
}

type countingRecorder struct {
	Collector
	stopBatches []int
}

func (r *countingRecorder) RecordStops(stops []*gtfs.Stop) error {
	r.stopBatches = append(r.stopBatches, len(stops))
	return r.Collector.RecordStops(stops)
}

func TestFeed_ReadBatches(t *testing.T) {
	is := is.New(t)
	directory := t.TempDir()
	var contents strings.Builder
	contents.WriteString("stop_id,stop_name,stop_lat,stop_lon\n")
	for i := 0; i < batchedRowCount+10; i++ {
		contents.WriteString(fmt.Sprintf("s%d,Stop %d,53.%d,-6.2\n", i, i, i))
	}
	is.NoErr(os.WriteFile(filepath.Join(directory, StopsFile), []byte(contents.String()), 0644))

	feed, err := Open(makeTestLogWriter().log, directory)
	is.NoErr(err)
	recorder := countingRecorder{}
	is.NoErr(feed.Read(&recorder, StopsFile))
	is.Equal(recorder.stopBatches, []int{batchedRowCount, 10})
	is.Equal(len(recorder.Stops), batchedRowCount+10)
}

func TestFeed_ReadParseError(t *testing.T) {
	is := is.New(t)
	directory := t.TempDir()
	err := os.WriteFile(filepath.Join(directory, StopsFile),
		[]byte("stop_id,stop_name,stop_lat,stop_lon\ns1,Good,53.1,-6.2\ns2,Bad,north,-6.2\n"), 0644)
	is.NoErr(err)

	feed, err := Open(makeTestLogWriter().log, directory)
	is.NoErr(err)
	collector := Collector{}
	err = feed.Read(&collector, StopsFile)
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "line 3"))
	is.Equal(len(collector.Stops), 0) // nothing flushed from a failed file
}
