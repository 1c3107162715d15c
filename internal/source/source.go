// Package source opens and decodes the audio behind a track URL.
//
// The container is sniffed from the first bytes of the stream rather than
// trusted from the file extension, since remote URLs rarely carry one.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned when the stream is not a known container.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Codec names the decoded audio encoding.
type Codec string

const (
	CodecMP3  Codec = "MP3"
	CodecAAC  Codec = "AAC"
	CodecALAC Codec = "ALAC"
	CodecFLAC Codec = "FLAC"
	CodecWAV  Codec = "WAV"
)

// Lossless reports whether the codec preserves the original samples.
func (c Codec) Lossless() bool {
	return c == CodecFLAC || c == CodecALAC || c == CodecWAV
}

// Source is a decoded, seekable audio stream. Closing the streamer releases
// the underlying file or buffer.
type Source struct {
	Streamer beep.StreamSeekCloser
	Format   beep.Format
	Codec    Codec
}

// Close releases the stream.
func (s *Source) Close() error {
	return s.Streamer.Close()
}

type container int

const (
	containerUnknown container = iota
	containerID3
	containerMP3
	containerFLAC
	containerWAV
	containerMP4
)

// sniff identifies a container from its first bytes.
func sniff(header []byte) container {
	switch {
	case len(header) >= 3 && string(header[:3]) == "ID3":
		return containerID3
	case len(header) >= 4 && string(header[:4]) == "fLaC":
		return containerFLAC
	case len(header) >= 12 && string(header[:4]) == "RIFF" && string(header[8:12]) == "WAVE":
		return containerWAV
	case len(header) >= 8 && string(header[4:8]) == "ftyp":
		return containerMP4
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return containerMP3
	}
	return containerUnknown
}

// Decode identifies and decodes r. On success the returned source owns r;
// on failure r is closed.
func Decode(r io.ReadSeekCloser) (*Source, error) {
	src, err := decode(r)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return src, nil
}

func decode(r io.ReadSeekCloser) (*Source, error) {
	header, err := peek(r, 12)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	kind := sniff(header)
	if kind == containerID3 {
		// FLAC files occasionally carry an ID3v2 prefix; anything else
		// behind an ID3 tag is MP3.
		if err := skipID3v2(r); err != nil {
			return nil, fmt.Errorf("skip id3 tag: %w", err)
		}
		next := make([]byte, 4)
		if _, err := io.ReadFull(r, next); err == nil && bytes.Equal(next, []byte("fLaC")) {
			return decodeFLACAfterTag(r)
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		kind = containerMP3
	}

	switch kind {
	case containerMP3:
		s, format, err := decodeMP3(r)
		if err != nil {
			return nil, fmt.Errorf("decode mp3: %w", err)
		}
		return &Source{Streamer: s, Format: format, Codec: CodecMP3}, nil
	case containerFLAC:
		s, format, err := flac.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("decode flac: %w", err)
		}
		return &Source{Streamer: s, Format: format, Codec: CodecFLAC}, nil
	case containerWAV:
		s, format, err := wav.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("decode wav: %w", err)
		}
		return &Source{Streamer: s, Format: format, Codec: CodecWAV}, nil
	case containerMP4:
		s, format, codec, err := decodeM4A(r)
		if err != nil {
			return nil, fmt.Errorf("decode m4a: %w", err)
		}
		return &Source{Streamer: s, Format: format, Codec: codec}, nil
	}
	return nil, ErrUnsupportedFormat
}

func decodeFLACAfterTag(r io.ReadSeekCloser) (*Source, error) {
	if _, err := r.Seek(-4, io.SeekCurrent); err != nil {
		return nil, err
	}
	s, format, err := flac.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode flac: %w", err)
	}
	return &Source{Streamer: s, Format: format, Codec: CodecFLAC}, nil
}

// peek reads up to n bytes and rewinds r.
func peek(r io.ReadSeeker, n int) ([]byte, error) {
	buf := make([]byte, n)
	k, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return buf[:k], nil
}

// skipID3v2 positions r after an ID3v2 tag, or at the start when there is
// none.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	if _, err := io.ReadFull(r, header); err != nil || string(header[:3]) != "ID3" {
		_, serr := r.Seek(0, io.SeekStart)
		return serr
	}

	// syncsafe size: 7 bits per byte
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	if header[5]&0x10 != 0 {
		size += 10 // footer
	}
	_, err := r.Seek(10+size, io.SeekStart)
	return err
}
