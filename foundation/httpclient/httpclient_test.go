package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
)

func newFeedServer(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gtfs.zip" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("ETag", `"v42"`)
		w.Header().Set("Last-Modified", "Tue, 14 Mar 2023 08:00:00 GMT")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}

func TestClient_GetRemoteFileInfo(t *testing.T) {
	is := is.New(t)
	server := newFeedServer("content")
	defer server.Close()
	client := NewClient(5 * time.Second)

	info, err := client.GetRemoteFileInfo(context.Background(), server.URL+"/gtfs.zip")
	is.NoErr(err)
	is.Equal(info.ETag, `"v42"`)
	is.Equal(info.LastModifiedTimestamp, time.Date(2023, 3, 14, 8, 0, 0, 0, time.UTC).Unix())
	is.True(!info.IsDifferent(`"v42"`, 0))
	is.True(info.IsDifferent(`"v41"`, info.LastModifiedTimestamp))

	_, err = client.GetRemoteFileInfo(context.Background(), server.URL+"/missing.zip")
	is.True(err != nil)
}

func TestRemoteFileInfo_IsDifferent(t *testing.T) {
	tests := []struct {
		name         string
		info         RemoteFileInfo
		etag         string
		lastModified int64
		want         bool
	}{
		{
			name: "same etag",
			info: RemoteFileInfo{ETag: "a", LastModifiedTimestamp: 1},
			etag: "a", lastModified: 2,
			want: false,
		},
		{
			name: "etag changed",
			info: RemoteFileInfo{ETag: "b", LastModifiedTimestamp: 1},
			etag: "a", lastModified: 1,
			want: true,
		},
		{
			name: "no etag, same modification time",
			info: RemoteFileInfo{LastModifiedTimestamp: 10},
			etag: "", lastModified: 10,
			want: false,
		},
		{
			name: "no etag, modified",
			info: RemoteFileInfo{LastModifiedTimestamp: 11},
			etag: "", lastModified: 10,
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.IsDifferent(tt.etag, tt.lastModified); got != tt.want {
				t.Errorf("IsDifferent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_DownloadRemoteFile(t *testing.T) {
	is := is.New(t)
	server := newFeedServer("route_id,route_short_name\n")
	defer server.Close()
	client := NewClient(5 * time.Second)
	destination := filepath.Join(t.TempDir(), "gtfs.zip")

	downloaded, err := client.DownloadRemoteFile(context.Background(), destination, server.URL+"/gtfs.zip")
	is.NoErr(err)
	is.Equal(downloaded.Size, int64(len("route_id,route_short_name\n")))
	is.Equal(downloaded.RemoteFileInfo.ETag, `"v42"`)
	is.Equal(downloaded.LocalFilePath, destination)

	contents, err := os.ReadFile(destination)
	is.NoErr(err)
	is.Equal(string(contents), "route_id,route_short_name\n")

	_, err = client.DownloadRemoteFile(context.Background(), destination, server.URL+"/missing.zip")
	is.True(err != nil)
}
