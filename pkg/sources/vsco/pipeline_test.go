package vsco

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profilesync/internal/downloader"
	"profilesync/pkg/config"
	"profilesync/pkg/errors"
	"profilesync/pkg/logger"
	"profilesync/pkg/retry"
	"profilesync/pkg/storage"
)

func TestTransformMedias(t *testing.T) {
	raw := []mediaItem{
		{ID: "m1", UploadDate: 1700000000000, Description: "fog", ResponsiveURL: "im.vsco.co/1/m1.jpg", Width: 900, Height: 600},
		{ID: "m2", UploadDate: 1700000100000, ResponsiveURL: "im.vsco.co/1/m2.jpg", IsVideo: true},
		{ID: "m3", UploadDate: 1700000200000, ResponsiveURL: ""},
		{ID: "m4", UploadDate: 1700000300000, ResponsiveURL: "https://im.vsco.co/1/m4.jpg"},
	}

	items := transformMedias(raw)

	require.Len(t, items, 2, "videos and image-less entries are dropped")
	assert.Equal(t, "m1", items[0].ID)
	assert.Equal(t, int64(1700000000), items[0].Timestamp, "upload date converts ms to s")
	assert.Equal(t, "https://im.vsco.co/1/m1.jpg", items[0].Image.URL, "scheme is added")
	assert.Equal(t, "https://im.vsco.co/1/m4.jpg", items[1].Image.URL, "existing scheme kept")
}

func newTestPipeline(t *testing.T, serverURL string) (*Pipeline, *storage.Manager, *storage.PhotoStore) {
	t.Helper()
	log := logger.NewTestLogger()

	client := NewClient("test-agent", 5*time.Second, log)
	client.SetBaseURL(serverURL + "/api/2.0")

	docs, err := storage.NewManager(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	photos, err := storage.NewPhotoStore(filepath.Join(t.TempDir(), "photos"))
	require.NoError(t, err)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 1
	retryCfg.Logger = log
	pool := downloader.NewPool(2, client.Downloader(), photos, nil, retryCfg, log)

	cfg := config.VSCOConfig{Username: "somegrid", Count: 12}
	return NewPipeline(cfg, client, docs, pool, log), docs, photos
}

func TestSyncEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/sites", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "somegrid", r.URL.Query().Get("subdomain"))
		fmt.Fprint(w, `{"sites":[{"id":113950,"subdomain":"somegrid"}]}`)
	})
	mux.HandleFunc("/api/2.0/medias", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "113950", r.URL.Query().Get("site_id"))
		assert.Equal(t, "12", r.URL.Query().Get("size"))
		fmt.Fprintf(w, `{"media":[
			{"_id":"m1","upload_date":1700000000000,"description":"fog","responsive_url":"http://%s/img/m1.jpg","width":900,"height":600}
		]}`, r.Host)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pipeline, docs, photos := newTestPipeline(t, server.URL)

	result, err := pipeline.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Items)

	var doc document
	require.NoError(t, docs.ReadDocument(documentName, &doc))
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "fog", doc.Items[0].Caption)
	assert.True(t, photos.Exists("m1.jpg"))
}

func TestSyncUnknownProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sites":[]}`)
	}))
	defer server.Close()

	pipeline, _, _ := newTestPipeline(t, server.URL)

	_, err := pipeline.Sync(context.Background())

	require.Error(t, err)
	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeNotFound, apiErr.Type)
}

func TestSyncFailedDownloadFailsRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/sites", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sites":[{"id":1}]}`)
	})
	mux.HandleFunc("/api/2.0/medias", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"media":[{"_id":"m1","upload_date":1,"responsive_url":"http://%s/img/gone.jpg"}]}`, r.Host)
	})
	mux.HandleFunc("/img/", http.NotFound)
	server := httptest.NewServer(mux)
	defer server.Close()

	pipeline, _, _ := newTestPipeline(t, server.URL)

	_, err := pipeline.Sync(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "downloads failed")
}
