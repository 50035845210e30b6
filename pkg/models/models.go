package models

// Image is a single renderable image reference.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MediaItem is the simplified record persisted for Instagram and VSCO
// posts. Carousel holds the images of multi-image posts in their original
// order; Image is always the first (or only) image of the post.
type MediaItem struct {
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"`
	Caption   string  `json:"caption,omitempty"`
	Image     Image   `json:"image"`
	Carousel  []Image `json:"carousel,omitempty"`
}

// CatalogEntry is the simplified record persisted for a NeoDB shelf item.
// UUID is the natural key; CreatedTime is the RFC 3339 time the item was
// marked on the shelf.
type CatalogEntry struct {
	UUID          string  `json:"uuid"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	Rating        float64 `json:"rating,omitempty"`
	CoverImageURL string  `json:"cover_image_url,omitempty"`
	CreatedTime   string  `json:"created_time"`
}

// QuoteSnapshot is the single-record document persisted for Hitokoto.
// Overwritten on every run, no history kept.
type QuoteSnapshot struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	FetchedAt int64  `json:"fetched_at"`
}

// TrackSnapshot is the single-record document persisted for Last.fm.
type TrackSnapshot struct {
	Artist     string `json:"artist"`
	Track      string `json:"track"`
	Album      string `json:"album,omitempty"`
	NowPlaying bool   `json:"now_playing"`
	PlayedAt   int64  `json:"played_at,omitempty"`
	Ago        string `json:"ago,omitempty"`
}

// LanguageStat is one language row of a WakaTime weekly breakdown.
type LanguageStat struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Text    string  `json:"text,omitempty"`
}

// CodingStats is the single-record document persisted for WakaTime.
type CodingStats struct {
	Range     string         `json:"range"`
	Languages []LanguageStat `json:"languages"`
	FetchedAt int64          `json:"fetched_at"`
}
