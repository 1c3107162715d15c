package catalog

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavelane/internal/source"
)

const testRate = 8000

func writeWAV(t *testing.T, dir, name string, frames int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()
	format := beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Take(frames, beep.Silence(-1)), format))
	return p
}

// writeTaggedMP3 writes a single MP3 frame header behind an ID3v2 tag.
func writeTaggedMP3(t *testing.T, dir string, picture []byte) string {
	t.Helper()
	p := filepath.Join(dir, "tagged.mp3")
	frame := make([]byte, 417)
	frame[0], frame[1], frame[2] = 0xff, 0xfb, 0x90
	require.NoError(t, os.WriteFile(p, frame, 0o600))

	tg, err := id3v2.Open(p, id3v2.Options{Parse: true})
	require.NoError(t, err)
	tg.SetTitle("Song")
	tg.SetAlbum("Record")
	tg.AddTextFrame("TPE2", id3v2.EncodingUTF8, "Band")
	if picture != nil {
		tg.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Picture:     picture,
		})
	}
	require.NoError(t, tg.Save())
	require.NoError(t, tg.Close())
	return p
}

func TestTrackID_Stable(t *testing.T) {
	assert.Equal(t, TrackID("file:///a.mp3"), TrackID("file:///a.mp3"))
	assert.NotEqual(t, TrackID("file:///a.mp3"), TrackID("file:///b.mp3"))
	assert.Len(t, TrackID("x"), 36)
}

func TestResolve_LocalWAV(t *testing.T) {
	dir := t.TempDir()
	p := writeWAV(t, dir, "01 Intro.wav", testRate*2)

	c := New()
	tr, err := c.Resolve(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "01 Intro", tr.Title)
	assert.Equal(t, p, tr.AudioURL)
	assert.Equal(t, source.CodecWAV, tr.Format)
	assert.Equal(t, 2*time.Second, tr.Duration)
	assert.True(t, tr.Downloaded)
	assert.False(t, tr.HiRes)
	assert.Equal(t, TrackID("file://"+p), tr.ID)
	assert.Empty(t, tr.ArtworkURL)

	// file:// form resolves to the same track
	viaURL, err := c.Resolve(context.Background(), (&url.URL{Scheme: "file", Path: p}).String())
	require.NoError(t, err)
	assert.Equal(t, tr.ID, viaURL.ID)
}

func TestResolve_FolderArt(t *testing.T) {
	dir := t.TempDir()
	p := writeWAV(t, dir, "track.wav", testRate)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "folder.jpg"), []byte("jpg"), 0o600))

	tr, err := New().Resolve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(dir, "folder.jpg"), tr.ArtworkURL)
}

func TestFindAlbumArt(t *testing.T) {
	dir := t.TempDir()
	track := filepath.Join(dir, "song.flac")

	assert.Empty(t, FindAlbumArt(track))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "front.png"), nil, 0o600))
	assert.Equal(t, filepath.Join(dir, "front.png"), FindAlbumArt(track))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpg"), nil, 0o600))
	assert.Equal(t, filepath.Join(dir, "cover.jpg"), FindAlbumArt(track), "cover wins over front")
}

func TestFindAlbumArt_Uppercase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "COVER.JPG"), nil, 0o600))

	assert.Equal(t, filepath.Join(dir, "COVER.JPG"), FindAlbumArt(filepath.Join(dir, "a.mp3")))
}

func TestResolve_Remote(t *testing.T) {
	tests := []struct {
		ref    string
		title  string
		format source.Codec
	}{
		{"https://cdn.example.com/music/Night%20Drive.flac", "Night Drive", source.CodecFLAC},
		{"http://example.com/a/b/track.mp3?sig=1", "track", source.CodecMP3},
		{"https://example.com/stream", "stream", ""},
		{"https://example.com/", "example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			tr, err := New().Resolve(context.Background(), tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.title, tr.Title)
			assert.Equal(t, tt.format, tr.Format)
			assert.Equal(t, tt.ref, tr.AudioURL)
			assert.False(t, tr.Downloaded)
			assert.Equal(t, TrackID(tt.ref), tr.ID)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hi"), 0o600))

	_, err := New().Resolve(context.Background(), txt)
	require.ErrorIs(t, err, source.ErrUnsupportedFormat)

	_, err = New().Resolve(context.Background(), filepath.Join(dir, "missing.wav"))
	require.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Resolve(ctx, txt)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveAll_KeepsOrderAndSkipsFailures(t *testing.T) {
	dir := t.TempDir()
	refs := []string{
		writeWAV(t, dir, "one.wav", testRate),
		filepath.Join(dir, "missing.wav"),
		writeWAV(t, dir, "two.wav", testRate),
		"https://example.com/three.mp3",
		writeWAV(t, dir, "four.wav", testRate),
	}

	tracks, err := New(WithWorkers(2)).ResolveAll(context.Background(), refs)
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)

	titles := make([]string, len(tracks))
	for i, tr := range tracks {
		titles[i] = tr.Title
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, titles)
}

func TestResolveAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().ResolveAll(ctx, []string{"https://example.com/a.mp3"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadTags_ID3(t *testing.T) {
	p := writeTaggedMP3(t, t.TempDir(), nil)

	tg, err := readTags(p)
	require.NoError(t, err)
	assert.Equal(t, "Song", tg.Title)
	assert.Equal(t, "Band", tg.Artist, "falls back to album artist")
	assert.Equal(t, "Record", tg.Album)

	fallback, err := readMP3WithID3v2Fallback(p)
	require.NoError(t, err)
	assert.Equal(t, *tg, *fallback)
}

func TestExtractEmbeddedArt(t *testing.T) {
	dir := t.TempDir()
	artDir := filepath.Join(dir, "art")
	picture := []byte{0xff, 0xd8, 0xff, 0xe0, 1, 2, 3}
	p := writeTaggedMP3(t, dir, picture)

	c := New(WithArtDir(artDir))
	out, err := c.extractEmbeddedArt(p)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, artDir, filepath.Dir(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, picture, data)

	// second extraction reuses the file
	again, err := c.extractEmbeddedArt(p)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	assert.Equal(t, "file://"+out, c.artworkURL(p))
}

func TestArtworkURL_NoArtDir(t *testing.T) {
	dir := t.TempDir()
	p := writeTaggedMP3(t, dir, []byte{1, 2, 3})

	assert.Empty(t, New().artworkURL(p))
}

func TestSkipID3v2(t *testing.T) {
	p := writeTaggedMP3(t, t.TempDir(), nil)
	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, skipID3v2(f))
	b := make([]byte, 2)
	_, err = f.Read(b)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfb}, b)
}
