package notify

import (
	"net/url"
	"strings"
	"sync"

	"github.com/llehouerou/wavelane/internal/playback"
)

const (
	// nowPlayingTimeout is how long a track-change notification stays up, in ms.
	nowPlayingTimeout = 4000
	musicIcon         = "audio-x-generic"
	musicCategory     = "x-gnome.music"
)

// NowPlaying announces track changes, replacing its previous notification
// instead of stacking a new one per track.
type NowPlaying struct {
	notifier Notifier
	mu       sync.Mutex
	lastID   uint32
}

// NewNowPlaying wraps n.
func NewNowPlaying(n Notifier) *NowPlaying {
	return &NowPlaying{notifier: n}
}

// Announce shows t as the current track.
func (p *NowPlaying) Announce(t playback.Track) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, err := p.notifier.Notify(Notification{
		Title:      t.Title,
		Body:       trackBody(t),
		Icon:       musicIcon,
		ImagePath:  iconPath(t.ArtworkURL),
		Category:   musicCategory,
		Timeout:    nowPlayingTimeout,
		ReplacesID: p.lastID,
		Urgency:    UrgencyLow,
		Transient:  true,
	})
	if err != nil {
		return err
	}
	p.lastID = id
	return nil
}

// Dismiss closes the last announcement, if any.
func (p *NowPlaying) Dismiss() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastID == 0 {
		return nil
	}
	id := p.lastID
	p.lastID = 0
	return p.notifier.Close(id)
}

func trackBody(t playback.Track) string {
	parts := make([]string, 0, 2)
	if t.Artist != "" {
		parts = append(parts, t.Artist)
	}
	if t.Album != "" {
		parts = append(parts, t.Album)
	}
	return strings.Join(parts, " - ")
}

// iconPath turns a file:// artwork URL into the path notification servers
// expect. Remote artwork is not fetched.
func iconPath(artwork string) string {
	u, err := url.Parse(artwork)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return u.Path
}
