package playback

import (
	"time"

	"github.com/llehouerou/wavelane/internal/source"
)

// Track is a playable catalogue entry. It is treated as immutable once handed
// to the engine.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	ArtworkURL string
	Duration   time.Duration
	// AudioURL is a local path, file:// URL or http(s):// URL.
	AudioURL   string
	Format     source.Codec
	HiRes      bool
	Downloaded bool
}

// DisplayName returns "Artist - Title", falling back to whichever is set.
func (t Track) DisplayName() string {
	switch {
	case t.Artist != "" && t.Title != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	case t.Artist != "":
		return t.Artist
	}
	return t.ID
}
