package source

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = beep.SampleRate(22050)

// writeWAV writes n frames of silence as a 16-bit stereo WAV file.
func writeWAV(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Take(n, beep.Silence(-1)), format))
	return path
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   container
	}{
		{"id3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), containerID3},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x64}, containerMP3},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), containerFLAC},
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVE"), containerWAV},
		{"riff not wave", []byte("RIFF\x24\x00\x00\x00AVI "), containerUnknown},
		{"mp4", []byte("\x00\x00\x00\x20ftypM4A "), containerMP4},
		{"empty", nil, containerUnknown},
		{"text", []byte("hello world!"), containerUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniff(tt.header))
		})
	}
}

func TestSkipID3v2(t *testing.T) {
	tag := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 5}
	data := append(append(tag, 1, 2, 3, 4, 5), []byte("fLaC")...)
	r := bytes.NewReader(data)

	require.NoError(t, skipID3v2(r))
	pos, _ := r.Seek(0, 1)
	assert.Equal(t, int64(15), pos)
}

func TestSkipID3v2_NoTagRewinds(t *testing.T) {
	r := bytes.NewReader([]byte("fLaC and more bytes"))

	require.NoError(t, skipID3v2(r))
	pos, _ := r.Seek(0, 1)
	assert.Zero(t, pos)
}

func TestCodec_Lossless(t *testing.T) {
	assert.True(t, CodecFLAC.Lossless())
	assert.True(t, CodecALAC.Lossless())
	assert.False(t, CodecMP3.Lossless())
	assert.False(t, CodecAAC.Lossless())
}

func TestLoader_OpenLocalWAV(t *testing.T) {
	path := writeWAV(t, 2205)
	l := NewLoader()

	for _, url := range []string{path, "file://" + path} {
		src, err := l.Open(context.Background(), url)
		require.NoError(t, err, url)

		assert.Equal(t, CodecWAV, src.Codec)
		assert.Equal(t, testRate, src.Format.SampleRate)
		assert.Equal(t, 2205, src.Streamer.Len())
		require.NoError(t, src.Close())
	}
}

func TestLoader_OpenMissingFile(t *testing.T) {
	_, err := NewLoader().Open(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio at all"), 0o600))

	_, err := NewLoader().Open(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoader_FetchHTTP(t *testing.T) {
	data, err := os.ReadFile(writeWAV(t, 4410))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/track" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	l := NewLoader(WithHTTPClient(srv.Client()), WithFetchRate(1000))

	src, err := l.Open(context.Background(), srv.URL+"/track")
	require.NoError(t, err)
	assert.Equal(t, 4410, src.Streamer.Len())
	require.NoError(t, src.Streamer.Seek(2000))
	assert.Equal(t, 2000, src.Streamer.Position())

	_, err = l.Open(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader().Open(ctx, "https://example.invalid/track.mp3")
	assert.ErrorIs(t, err, context.Canceled)
}
