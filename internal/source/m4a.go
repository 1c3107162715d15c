package source

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

// alacFrameSize is the default ALAC frames-per-packet.
const alacFrameSize = 4096

// m4aStream reads access units from an MP4 container and decodes them with
// faad2 (AAC) or the ALAC decoder. Output is always stereo.
type m4aStream struct {
	container *m4a.Reader
	closer    io.Closer
	codec     m4a.CodecType
	rate      int
	channels  int
	bits      int
	length    int
	next      int
	err       error

	aac  *faad2.Decoder
	alac *alac.Alac

	pending [][2]float64
	off     int
}

func decodeM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, Codec, error) {
	c, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, "", err
	}

	d := &m4aStream{
		container: c,
		closer:    rc,
		codec:     c.Codec(),
		rate:      int(c.SampleRate()),
		channels:  int(c.Channels()),
		bits:      int(c.SampleSize()),
	}
	d.length = int(c.Duration().Seconds() * float64(d.rate))

	format := beep.Format{
		SampleRate:  beep.SampleRate(d.rate),
		NumChannels: 2,
		Precision:   2,
	}

	var codec Codec
	switch d.codec {
	case m4a.CodecAAC:
		ctx := context.Background()
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, beep.Format{}, "", err
		}
		if err := dec.Init(ctx, c.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, beep.Format{}, "", err
		}
		d.aac = dec
		codec = CodecAAC
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  d.rate,
			SampleSize:  d.bits,
			NumChannels: d.channels,
			FrameSize:   alacFrameSize,
		})
		if err != nil {
			return nil, beep.Format{}, "", err
		}
		d.alac = dec
		if d.bits == 24 {
			format.Precision = 3
		}
		codec = CodecALAC
	default:
		return nil, beep.Format{}, "", ErrUnsupportedFormat
	}
	return d, format, codec, nil
}

func (d *m4aStream) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}
	for n < len(samples) {
		if d.off < len(d.pending) {
			k := copy(samples[n:], d.pending[d.off:])
			d.off += k
			n += k
			continue
		}
		if d.next >= d.container.SampleCount() {
			return n, n > 0
		}
		if err := d.decodeNext(); err != nil {
			d.err = err
			return n, n > 0
		}
	}
	return n, true
}

func (d *m4aStream) decodeNext() error {
	unit, err := d.container.ReadSample(d.next)
	if err != nil {
		return err
	}
	d.next++

	switch d.codec {
	case m4a.CodecAAC:
		pcm, err := d.aac.Decode(context.Background(), unit)
		if err != nil {
			return err
		}
		d.pending = int16Frames(pcm, d.channels)
	case m4a.CodecALAC:
		raw := d.alac.Decode(unit)
		if d.bits == 24 {
			d.pending = pcm24Frames(raw, d.channels)
		} else {
			d.pending = pcm16Frames(raw, d.channels)
		}
	default:
		return errors.New("unsupported codec")
	}
	d.off = 0
	return nil
}

func (d *m4aStream) Err() error { return d.err }

func (d *m4aStream) Len() int { return d.length }

func (d *m4aStream) Position() int {
	return int(d.container.SampleTime(d.next).Seconds() * float64(d.rate))
}

func (d *m4aStream) Seek(p int) error {
	p = min(max(p, 0), d.length)
	at := time.Duration(float64(p) / float64(d.rate) * float64(time.Second))
	d.next = d.container.SeekToTime(at)
	d.pending = nil
	d.off = 0
	d.err = nil
	return nil
}

func (d *m4aStream) Close() error {
	if d.aac != nil {
		d.aac.Close(context.Background())
	}
	return d.closer.Close()
}

// int16Frames converts interleaved samples to stereo frames, duplicating
// mono.
func int16Frames(pcm []int16, channels int) [][2]float64 {
	if channels < 2 {
		frames := make([][2]float64, len(pcm))
		for i, s := range pcm {
			v := float64(s) / 32768.0
			frames[i] = [2]float64{v, v}
		}
		return frames
	}
	frames := make([][2]float64, len(pcm)/channels)
	for i := range frames {
		frames[i][0] = float64(pcm[i*channels]) / 32768.0
		frames[i][1] = float64(pcm[i*channels+1]) / 32768.0
	}
	return frames
}

func pcm16Frames(data []byte, channels int) [][2]float64 {
	stride := 2 * channels
	frames := make([][2]float64, len(data)/stride)
	for i := range frames {
		o := i * stride
		left := int16(data[o]) | int16(data[o+1])<<8
		right := left
		if channels >= 2 {
			right = int16(data[o+2]) | int16(data[o+3])<<8
		}
		frames[i] = [2]float64{float64(left) / 32768.0, float64(right) / 32768.0}
	}
	return frames
}

func pcm24Frames(data []byte, channels int) [][2]float64 {
	stride := 3 * channels
	frames := make([][2]float64, len(data)/stride)
	for i := range frames {
		o := i * stride
		left := int24(data[o:])
		right := left
		if channels >= 2 {
			right = int24(data[o+3:])
		}
		frames[i] = [2]float64{float64(left) / 8388608.0, float64(right) / 8388608.0}
	}
	return frames
}

// int24 reads a little-endian signed 24-bit sample.
func int24(b []byte) int32 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if v&0x800000 != 0 {
		v |= ^0xFFFFFF
	}
	return v
}
