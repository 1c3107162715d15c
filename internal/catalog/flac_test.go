package catalog

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavelane/internal/source"
)

// streamInfo96k describes 3 s of 24-bit stereo at 96 kHz.
func streamInfo96k() *goflac.MetaDataBlock {
	data := make([]byte, 34)
	data[10], data[11], data[12], data[13] = 0x17, 0x70, 0x03, 0x70
	data[14], data[15], data[16], data[17] = 0x00, 0x04, 0x65, 0x00
	return &goflac.MetaDataBlock{Type: goflac.StreamInfo, Data: data}
}

func vorbisBlock(t *testing.T, kv ...string) *goflac.MetaDataBlock {
	t.Helper()
	cmts := flacvorbis.New()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, cmts.Add(kv[i], kv[i+1]))
	}
	block := cmts.Marshal()
	return &block
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pictureBlock(t *testing.T, kind flacpicture.PictureType, data []byte) *goflac.MetaDataBlock {
	t.Helper()
	pic, err := flacpicture.NewFromImageData(kind, "cover", data, "image/png")
	require.NoError(t, err)
	block := pic.Marshal()
	return &block
}

func writeFLAC(t *testing.T, dir string, blocks ...*goflac.MetaDataBlock) string {
	t.Helper()
	f := &goflac.File{Meta: append([]*goflac.MetaDataBlock{streamInfo96k()}, blocks...)}
	p := filepath.Join(dir, "track.flac")
	require.NoError(t, os.WriteFile(p, f.Marshal(), 0o600))
	return p
}

func TestReadFLACStreamInfo(t *testing.T) {
	p := writeFLAC(t, t.TempDir())

	info, err := readFLACStreamInfo(p)
	require.NoError(t, err)

	assert.Equal(t, 96000, info.SampleRate)
	assert.Equal(t, 24, info.BitDepth)
	assert.Equal(t, 3*time.Second, info.Duration)
	assert.Equal(t, source.CodecFLAC, info.Codec)
}

func TestReadFLACTags(t *testing.T) {
	p := writeFLAC(t, t.TempDir(), vorbisBlock(t,
		flacvorbis.FIELD_TITLE, "Nocturne",
		"ALBUMARTIST", "Ensemble",
		flacvorbis.FIELD_ALBUM, "Night Music",
	))

	tg, err := readFLACTags(p)
	require.NoError(t, err)

	assert.Equal(t, "Nocturne", tg.Title)
	assert.Equal(t, "Ensemble", tg.Artist)
	assert.Equal(t, "Night Music", tg.Album)
}

func TestReadFLACTags_NoComments(t *testing.T) {
	p := writeFLAC(t, t.TempDir())

	tg, err := readFLACTags(p)
	require.NoError(t, err)
	assert.Empty(t, tg.Title)
}

func TestReadFLACPicture_PrefersFrontCover(t *testing.T) {
	front := pngImage(t)
	other := append([]byte(nil), front...)
	p := writeFLAC(t, t.TempDir(),
		pictureBlock(t, flacpicture.PictureTypeBackCover, other),
		pictureBlock(t, flacpicture.PictureTypeFrontCover, front),
	)

	data, ext, err := readFLACPicture(p)
	require.NoError(t, err)
	assert.Equal(t, front, data)
	assert.Equal(t, "png", ext)
}

func TestReadFLACPicture_None(t *testing.T) {
	p := writeFLAC(t, t.TempDir())

	_, _, err := readFLACPicture(p)
	assert.ErrorIs(t, err, errNoPicture)
}

func TestResolve_LocalFLACIsHiRes(t *testing.T) {
	dir := t.TempDir()
	cover := pngImage(t)
	p := writeFLAC(t, dir,
		vorbisBlock(t, flacvorbis.FIELD_TITLE, "Nocturne", flacvorbis.FIELD_ARTIST, "Ensemble"),
		pictureBlock(t, flacpicture.PictureTypeFrontCover, cover),
	)
	artDir := filepath.Join(dir, "art")

	tr, err := New(WithArtDir(artDir)).Resolve(context.Background(), p)
	require.NoError(t, err)

	assert.True(t, tr.HiRes)
	assert.Equal(t, source.CodecFLAC, tr.Format)
	assert.Equal(t, 3*time.Second, tr.Duration)
	assert.Equal(t, "Nocturne", tr.Title)
	assert.Equal(t, "Ensemble", tr.Artist)
	require.NotEmpty(t, tr.ArtworkURL)

	entries, err := os.ReadDir(artDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(artDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, cover, data)
}

func TestMimeExt(t *testing.T) {
	assert.Equal(t, "png", mimeExt("image/PNG"))
	assert.Equal(t, "jpg", mimeExt("image/jpeg"))
	assert.Equal(t, "jpg", mimeExt(""))
}
