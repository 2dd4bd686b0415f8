package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	gowav "github.com/go-audio/wav"
	"github.com/spf13/afero"
)

const (
	extMP3  = ".mp3"
	extWAV  = ".wav"
	extFLAC = ".flac"
	extOGG  = ".ogg"
	extOGA  = ".oga"
)

// decodeTrack opens path and returns a seekable stream for it. The
// stream owns the file; closing it closes the file.
func decodeTrack(fs afero.Fs, path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case extMP3, extWAV, extFLAC, extOGG, extOGA:
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", errUnsupportedFormat, ext)
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open %s: %w", path, err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case extMP3:
		stream, format, err = mp3.Decode(f)
	case extWAV:
		if _, err = probeWAV(f); err == nil {
			if _, err = f.Seek(0, io.SeekStart); err == nil {
				stream, format, err = wav.Decode(f)
			}
		}
	case extFLAC:
		stream, format, err = flac.Decode(f)
	case extOGG, extOGA:
		stream, format, err = vorbis.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return stream, format, nil
}

// probeWAV validates a RIFF/WAVE header and reports the PCM duration.
func probeWAV(r io.ReadSeeker) (time.Duration, error) {
	d := gowav.NewDecoder(r)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("invalid wav header")
	}
	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav duration: %w", err)
	}
	return dur, nil
}

// streamSeconds converts a sample count at format's rate to seconds.
func streamSeconds(format beep.Format, samples int) float64 {
	return format.SampleRate.D(samples).Seconds()
}
