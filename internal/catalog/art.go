package catalog

import (
	"crypto/sha1" //nolint:gosec // content address, not a security boundary
	"encoding/hex"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// coverNames lists common album art filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"album.jpg", "album.png", "album.jpeg",
	"front.jpg", "front.png", "front.jpeg",
}

// FindAlbumArt looks for album art in the same directory as the track.
// Returns the path to the art file, or empty string if not found.
func FindAlbumArt(trackPath string) string {
	dir := filepath.Dir(trackPath)
	for _, name := range coverNames {
		for _, candidate := range []string{name, strings.ToUpper(name)} {
			p := filepath.Join(dir, candidate)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// artworkURL returns a file:// URL for the track's cover, preferring folder
// images over embedded art, or "" when there is none.
func (c *Catalog) artworkURL(trackPath string) string {
	if p := FindAlbumArt(trackPath); p != "" {
		return fileURL(p)
	}
	if c.artDir == "" {
		return ""
	}
	p, err := c.extractEmbeddedArt(trackPath)
	if err != nil {
		c.logger.Debug("embedded art", "path", trackPath, "err", err)
		return ""
	}
	if p == "" {
		return ""
	}
	return fileURL(p)
}

// extractEmbeddedArt writes the embedded picture to the art directory, named
// by content so tracks of one album share a file.
func (c *Catalog) extractEmbeddedArt(trackPath string) (string, error) {
	data, ext, err := embeddedPicture(trackPath)
	if errors.Is(err, errNoPicture) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	sum := sha1.Sum(data) //nolint:gosec // content address
	p := filepath.Join(c.artDir, hex.EncodeToString(sum[:])+"."+ext)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	if err := os.MkdirAll(c.artDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil { //nolint:gosec // cache file
		return "", err
	}
	return p, nil
}

// embeddedPicture reads the cover stored in the file's tags.
func embeddedPicture(trackPath string) ([]byte, string, error) {
	isFLAC := strings.EqualFold(filepath.Ext(trackPath), extFLAC)
	f, err := os.Open(trackPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err == nil {
		if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
			ext := pic.Ext
			if ext == "" {
				ext = "jpg"
			}
			return pic.Data, ext, nil
		}
	}
	if isFLAC {
		return readFLACPicture(trackPath)
	}
	if err != nil {
		return nil, "", err
	}
	return nil, "", errNoPicture
}

func fileURL(p string) string {
	return (&url.URL{Scheme: "file", Path: p}).String()
}
