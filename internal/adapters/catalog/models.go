package catalog

// catalogArtist represents an artist object from the catalog API.
type catalogArtist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  struct {
		Total int `json:"total"`
	} `json:"followers"`
}

// catalogTrack represents a track object from the catalog API.
type catalogTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	DurationMs int    `json:"duration_ms"`
	PreviewURL string `json:"preview_url"`
}
