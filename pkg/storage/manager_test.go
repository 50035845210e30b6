package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"profilesync/pkg/models"
)

func TestManagerWriteAndReadDocument(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	doc := []models.CatalogEntry{
		{UUID: "a1", Title: "Dune", Category: "movie", CreatedTime: "2025-05-01T10:00:00Z"},
		{UUID: "b2", Title: "Severance", Category: "tv", CreatedTime: "2025-04-01T10:00:00Z"},
	}

	if err := manager.WriteDocument("neodb/movie.json", doc); err != nil {
		t.Fatalf("Failed to write document: %v", err)
	}

	// Nested directory was created.
	if _, err := os.Stat(filepath.Join(tempDir, "neodb", "movie.json")); err != nil {
		t.Fatalf("Expected document on disk: %v", err)
	}

	var reloaded []models.CatalogEntry
	if err := manager.ReadDocument("neodb/movie.json", &reloaded); err != nil {
		t.Fatalf("Failed to read document: %v", err)
	}

	if len(reloaded) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(reloaded))
	}
	if reloaded[0].UUID != "a1" || reloaded[1].Title != "Severance" {
		t.Errorf("Reloaded entries do not match: %+v", reloaded)
	}
}

func TestManagerOverwrite(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.WriteDocument("quote.json", models.QuoteSnapshot{ID: 1, Text: "first"}); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := manager.WriteDocument("quote.json", models.QuoteSnapshot{ID: 2, Text: "second"}); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	var got models.QuoteSnapshot
	if err := manager.ReadDocument("quote.json", &got); err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	// Full replacement, last write wins.
	if got.ID != 2 || got.Text != "second" {
		t.Errorf("Expected second write to win, got %+v", got)
	}
}

func TestManagerReadMissingDocument(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var target models.QuoteSnapshot
	err = manager.ReadDocument("missing.json", &target)
	if err == nil {
		t.Fatal("Expected error for missing document")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestManagerDocumentExists(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.DocumentExists("lastfm.json") {
		t.Error("Expected document to not exist yet")
	}

	if err := manager.WriteDocument("lastfm.json", models.TrackSnapshot{Artist: "x"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !manager.DocumentExists("lastfm.json") {
		t.Error("Expected document to exist after write")
	}
}

func TestManagerNoTempLeftovers(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.WriteDocument("doc.json", map[string]int{"n": 1}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("Found leftover temp file: %s", e.Name())
		}
	}
}

func TestPhotoStoreSaveAndExists(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create photo store: %v", err)
	}

	if store.Exists("photo.jpg") {
		t.Error("Expected photo to not exist yet")
	}

	data := []byte("image bytes")
	if err := store.Save(bytes.NewReader(data), "photo.jpg"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !store.Exists("photo.jpg") {
		t.Error("Expected photo to exist after save")
	}

	content, err := os.ReadFile(filepath.Join(store.Dir(), "photo.jpg"))
	if err != nil {
		t.Fatalf("Failed to read saved photo: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Error("Saved content does not match")
	}

	if store.Count() != 1 {
		t.Errorf("Expected count 1, got %d", store.Count())
	}
}

func TestPhotoStoreScansExistingFiles(t *testing.T) {
	dir := t.TempDir()

	name := "443711036_417575674565247_1156670569594802102_n.webp"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("existing"), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}
	// Leftover temp files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "partial.jpg.tmp"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to seed temp file: %v", err)
	}

	store, err := NewPhotoStore(dir)
	if err != nil {
		t.Fatalf("Failed to create photo store: %v", err)
	}

	if !store.Exists(name) {
		t.Error("Expected pre-existing photo to be detected")
	}
	if store.Exists("partial.jpg.tmp") {
		t.Error("Expected temp leftover to be ignored")
	}
	if store.Count() != 1 {
		t.Errorf("Expected count 1, got %d", store.Count())
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "cdn media basename kept",
			url:  "https://scontent.cdninstagram.com/v/t51.2885-15/443711036_417575674565247_1156670569594802102_n.webp?stp=dst-jpg&_nc_ht=x",
			want: "443711036_417575674565247_1156670569594802102_n.webp",
		},
		{
			name: "plain jpg basename kept",
			url:  "https://im.vsco.co/aws-us-west-2/abc/def/vsco5f3a.jpg",
			want: "vsco5f3a.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilenameFromURL(tt.url); got != tt.want {
				t.Errorf("FilenameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestFilenameFromURLFallback(t *testing.T) {
	url := "https://cdn.example.com/media/render?id=12345"

	got := FilenameFromURL(url)
	if got == "" {
		t.Fatal("Expected non-empty fallback filename")
	}
	// Fallback must be a valid single-component filename.
	if filepath.Base(got) != got {
		t.Errorf("Fallback contains path separators: %q", got)
	}
	if filepath.Ext(got) == "" {
		t.Errorf("Fallback has no extension: %q", got)
	}

	// Deterministic for the same URL.
	if again := FilenameFromURL(url); again != got {
		t.Errorf("Fallback not deterministic: %q vs %q", got, again)
	}

	// Different URLs map to different names.
	other := FilenameFromURL("https://cdn.example.com/media/render?id=99999")
	if other == got {
		t.Error("Expected distinct fallback names for distinct URLs")
	}
}

func TestPhotoStoreIdempotentSave(t *testing.T) {
	store, err := NewPhotoStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create photo store: %v", err)
	}

	if err := store.Save(bytes.NewReader([]byte("one")), "a.jpg"); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	// The pipelines check Exists before downloading; a second run sees
	// the file and skips without error.
	if !store.Exists("a.jpg") {
		t.Fatal("Expected file to exist")
	}
	if store.Count() != 1 {
		t.Errorf("Expected count to stay 1, got %d", store.Count())
	}
}
