package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	goflac "github.com/go-flac/go-flac"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
	"github.com/llehouerou/go-m4a"
	"github.com/llehouerou/go-mp3"

	"github.com/llehouerou/wavelane/internal/source"
)

// File extensions the catalog reads.
const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extM4A  = ".m4a"
	extMP4  = ".mp4"
	extWAV  = ".wav"
)

// id3Magic is the magic bytes for ID3v2 header detection.
const id3Magic = "ID3"

type tags struct {
	Title  string
	Artist string
	Album  string
}

// audioInfo holds stream properties read without decoding the whole file.
type audioInfo struct {
	Duration   time.Duration
	Codec      source.Codec
	SampleRate int
	BitDepth   int
}

// readTags reads title, artist and album from a music file.
func readTags(path string) (*tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		switch strings.ToLower(filepath.Ext(path)) {
		case extMP3:
			// dhowden/tag has issues with some UTF-16 encoded ID3 tags
			return readMP3WithID3v2Fallback(path)
		case extFLAC:
			return readFLACTags(path)
		}
		return nil, err
	}

	artist := m.Artist()
	if artist == "" {
		artist = m.AlbumArtist()
	}
	return &tags{Title: m.Title(), Artist: artist, Album: m.Album()}, nil
}

// readMP3WithID3v2Fallback reads MP3 metadata using only the id3v2 library.
func readMP3WithID3v2Fallback(path string) (*tags, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer id3tag.Close()

	artist := id3tag.Artist()
	if artist == "" {
		artist = textFrame(id3tag, "TPE2") // album artist
	}
	return &tags{Title: id3tag.Title(), Artist: artist, Album: id3tag.Album()}, nil
}

func textFrame(id3tag *id3v2.Tag, frameID string) string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}

// readAudioInfo reads duration and stream format from the file headers.
func readAudioInfo(path string) (*audioInfo, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case extMP3:
		return readMP3AudioInfo(path)
	case extFLAC:
		return readFLACStreamInfo(path)
	case extM4A, extMP4:
		return readM4AAudioInfo(path)
	case extWAV:
		return readWAVAudioInfo(path)
	}
	return nil, fmt.Errorf("%w: %s", source.ErrUnsupportedFormat, ext)
}

func readMP3AudioInfo(path string) (*audioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return nil, errors.New("mp3: invalid sample rate")
	}
	sampleCount := max(decoder.SampleCount(), 0)

	return &audioInfo{
		Duration:   time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second)),
		Codec:      source.CodecMP3,
		SampleRate: sampleRate,
		BitDepth:   16,
	}, nil
}

// readFLACStreamInfo parses the STREAMINFO block.
func readFLACStreamInfo(path string) (*audioInfo, error) {
	flacFile, err := goflac.ParseFile(path)
	if err != nil {
		// prepended ID3 tags confuse go-flac
		return readFLACWithBeep(path)
	}

	for _, meta := range flacFile.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data
		// 20 bits sample rate, 3 bits channels, 5 bits depth-1, 36 bits total samples
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		bitDepth := (int(data[12])&0x01)<<4 | int(data[13])>>4 + 1
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 |
			int64(data[16])<<8 | int64(data[17])

		var d time.Duration
		if sampleRate > 0 {
			d = time.Duration(float64(totalSamples) / float64(sampleRate) * float64(time.Second))
		}
		return &audioInfo{Duration: d, Codec: source.CodecFLAC, SampleRate: sampleRate, BitDepth: bitDepth}, nil
	}

	return readFLACWithBeep(path)
}

func readFLACWithBeep(path string) (*audioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := skipID3v2(f); err != nil {
		return nil, err
	}
	streamer, format, err := flac.Decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	return &audioInfo{
		Duration:   format.SampleRate.D(streamer.Len()),
		Codec:      source.CodecFLAC,
		SampleRate: int(format.SampleRate),
		BitDepth:   format.Precision * 8,
	}, nil
}

func readM4AAudioInfo(path string) (*audioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	container, err := m4a.Open(f)
	if err != nil {
		return nil, err
	}

	info := &audioInfo{
		Duration:   container.Duration(),
		Codec:      source.CodecAAC,
		SampleRate: int(container.SampleRate()),
		BitDepth:   16,
	}
	switch container.Codec() {
	case m4a.CodecALAC:
		info.Codec = source.CodecALAC
		info.BitDepth = int(container.SampleSize())
	case m4a.CodecAAC:
	default:
		return nil, fmt.Errorf("%w: m4a codec", source.ErrUnsupportedFormat)
	}
	return info, nil
}

func readWAVAudioInfo(path string) (*audioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, err
	}
	return &audioInfo{
		Duration:   format.SampleRate.D(streamer.Len()),
		Codec:      source.CodecWAV,
		SampleRate: int(format.SampleRate),
		BitDepth:   format.Precision * 8,
	}, nil
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the file.
func skipID3v2(f *os.File) error {
	header := make([]byte, 10)
	n, err := f.Read(header)
	if err != nil {
		return err
	}
	if n < 10 || string(header[0:3]) != id3Magic {
		_, err = f.Seek(0, io.SeekStart)
		return err
	}
	// syncsafe size in bytes 6-9
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = f.Seek(10+size, io.SeekStart)
	return err
}
