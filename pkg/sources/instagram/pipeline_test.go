package instagram

import (
	"context"
	"encoding/json"
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
	"profilesync/pkg/models"
	"profilesync/pkg/retry"
	"profilesync/pkg/storage"
	"profilesync/pkg/syncer"
)

func TestTransformItemTopLevelImage(t *testing.T) {
	item := feedItem{
		ID:      "3141_592",
		TakenAt: 1700000000,
		Caption: &caption{Text: "sunset"},
		ImageVersions: &imageVersions{Candidates: []candidate{
			{URL: "https://cdn.example/full.jpg", Width: 1080, Height: 1350},
			{URL: "https://cdn.example/small.jpg", Width: 320, Height: 400},
		}},
	}

	media, ok := transformItem(item)

	require.True(t, ok)
	assert.Equal(t, "3141_592", media.ID)
	assert.Equal(t, int64(1700000000), media.Timestamp)
	assert.Equal(t, "sunset", media.Caption)
	assert.Equal(t, models.Image{URL: "https://cdn.example/full.jpg", Width: 1080, Height: 1350}, media.Image)
}

func TestTransformItemCarouselNested(t *testing.T) {
	// No top-level image: the first carousel candidate must be promoted.
	item := feedItem{
		PK:      443711036,
		TakenAt: 1700000001,
		CarouselMedia: []carouselItem{
			{ImageVersions: &imageVersions{Candidates: []candidate{
				{URL: "https://cdn.example/carousel-0.webp", Width: 1440, Height: 1800},
			}}},
			{ImageVersions: &imageVersions{Candidates: []candidate{
				{URL: "https://cdn.example/carousel-1.webp", Width: 1440, Height: 1800},
			}}},
		},
	}

	media, ok := transformItem(item)

	require.True(t, ok)
	assert.Equal(t, "443711036", media.ID, "pk is the fallback identity")
	assert.Equal(t, "https://cdn.example/carousel-0.webp", media.Image.URL)
	assert.Equal(t, 1440, media.Image.Width)
	assert.Equal(t, 1800, media.Image.Height)
	require.Len(t, media.Carousel, 2)
	assert.Equal(t, "https://cdn.example/carousel-1.webp", media.Carousel[1].URL)
}

func TestTransformItemNoImage(t *testing.T) {
	_, ok := transformItem(feedItem{ID: "no-image"})
	assert.False(t, ok)
}

func TestDownloadJobsDedupeURLs(t *testing.T) {
	items := []models.MediaItem{
		{
			Image: models.Image{URL: "https://cdn.example/a.jpg"},
			Carousel: []models.Image{
				{URL: "https://cdn.example/a.jpg"},
				{URL: "https://cdn.example/b.jpg"},
			},
		},
	}

	jobs := downloadJobs(items)

	require.Len(t, jobs, 2)
	assert.Equal(t, "a.jpg", jobs[0].Filename)
	assert.Equal(t, "b.jpg", jobs[1].Filename)
}

func newTestPipeline(t *testing.T, serverURL string) (*Pipeline, *storage.Manager, *storage.PhotoStore) {
	t.Helper()
	log := logger.NewTestLogger()

	client := NewClient("session", "csrf", "test-agent", 5*time.Second, log)
	client.SetBaseURL(serverURL)

	docs, err := storage.NewManager(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	photos, err := storage.NewPhotoStore(filepath.Join(t.TempDir(), "photos"))
	require.NoError(t, err)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 1
	retryCfg.Logger = log
	pool := downloader.NewPool(2, client.Downloader(), photos, nil, retryCfg, log)

	cfg := config.InstagramConfig{UserID: "99", Count: 12}
	return NewPipeline(cfg, client, docs, pool, log), docs, photos
}

func TestSyncEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/user/99/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12", r.URL.Query().Get("count"))
		assert.Contains(t, r.Header.Get("Cookie"), "sessionid=session")
		assert.Equal(t, "csrf", r.Header.Get("X-CSRFToken"))
		host := "http://" + r.Host
		fmt.Fprintf(w, `{"status":"ok","items":[
			{"id":"1","taken_at":1700000000,"caption":{"text":"first"},
			 "image_versions2":{"candidates":[{"url":"%s/img/443711036_417575674565247_1156670569594802102_n.webp","width":1080,"height":1350}]}},
			{"id":"2","taken_at":1700000100,
			 "carousel_media":[{"image_versions2":{"candidates":[{"url":"%s/img/two.jpg","width":640,"height":640}]}}]}
		]}`, host, host)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pipeline, docs, photos := newTestPipeline(t, server.URL)

	result, err := pipeline.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &syncer.Result{Items: 2, Skipped: 0}, result)

	var doc document
	require.NoError(t, docs.ReadDocument(documentName, &doc))
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "first", doc.Items[0].Caption)
	assert.Equal(t, "2", doc.Items[1].ID)

	assert.True(t, photos.Exists("443711036_417575674565247_1156670569594802102_n.webp"))
	assert.True(t, photos.Exists("two.jpg"))
}

func TestSyncSecondRunSkipsDownloads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/user/99/", func(w http.ResponseWriter, r *http.Request) {
		host := "http://" + r.Host
		fmt.Fprintf(w, `{"status":"ok","items":[
			{"id":"1","taken_at":1700000000,
			 "image_versions2":{"candidates":[{"url":"%s/img/a.jpg","width":100,"height":100}]}}
		]}`, host)
	})
	downloads := 0
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		downloads++
		w.Write([]byte("bytes"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pipeline, _, _ := newTestPipeline(t, server.URL)

	_, err := pipeline.Sync(context.Background())
	require.NoError(t, err)
	result, err := pipeline.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, downloads, "second run must not re-download")
	assert.Equal(t, 1, result.Skipped)
}

func TestSyncExpiredSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/user/99/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/accounts/login/", http.StatusFound)
	})
	mux.HandleFunc("/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":"login"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pipeline, _, _ := newTestPipeline(t, server.URL)

	_, err := pipeline.Sync(context.Background())

	require.Error(t, err)
	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeAuth, apiErr.Type)
}

func TestDocumentFullReplacement(t *testing.T) {
	feed := `{"status":"ok","items":[{"id":"%s","taken_at":1,"image_versions2":{"candidates":[{"url":"http://%s/img/%s.jpg","width":1,"height":1}]}}]}`
	current := "old"
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/user/99/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, feed, current, r.Host, current)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pipeline, docs, _ := newTestPipeline(t, server.URL)

	_, err := pipeline.Sync(context.Background())
	require.NoError(t, err)
	current = "new"
	_, err = pipeline.Sync(context.Background())
	require.NoError(t, err)

	var doc document
	require.NoError(t, docs.ReadDocument(documentName, &doc))
	require.Len(t, doc.Items, 1, "document is replaced, not appended")
	assert.Equal(t, "new", doc.Items[0].ID)

	// The raw document should decode as a plain object as well.
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"new"`)
}
