package domain

// Track represents a concrete playable track in the domain layer.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ArtistID   string `json:"artist_id"`
	ArtistName string `json:"artist_name"`
	Album      string `json:"album,omitempty"`
	DurationMs int    `json:"duration_ms,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}
