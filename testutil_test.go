package main

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// generateTestImage creates a simple test image with specified dimensions and colors
// Useful for testing artwork processing functions
func generateTestImage(width, height int, fillColor color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// generateGradientImage creates a vertical gradient test image for color extraction testing
func generateGradientImage(width, height int, startColor, endColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		ratio := float64(y) / float64(height)
		r := uint8(float64(startColor.R)*(1-ratio) + float64(endColor.R)*ratio)
		g := uint8(float64(startColor.G)*(1-ratio) + float64(endColor.G)*ratio)
		b := uint8(float64(startColor.B)*(1-ratio) + float64(endColor.B)*ratio)
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}

// assertError is a test helper that checks if an error occurred and fails the test if not
func assertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("Expected error: %s, got nil", msg)
	}
}

// assertNoError is a test helper that fails the test if an error occurred
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// assertEqual is a generic test helper for comparing values
func assertEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

// isValidHexColor checks if a string is a valid hex color (e.g., "#RRGGBB")
func isValidHexColor(color string) bool {
	if len(color) != 7 || color[0] != '#' {
		return false
	}
	for i := 1; i < 7; i++ {
		c := color[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// writeTestWAV writes seconds of 16-bit stereo silence to path on fs
func writeTestWAV(t *testing.T, fs afero.Fs, path string, sampleRate, seconds int) {
	t.Helper()
	f, err := fs.Create(path)
	assertNoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, sampleRate*seconds*2),
		SourceBitDepth: 16,
	}
	assertNoError(t, enc.Write(buf))
	assertNoError(t, enc.Close())
}

// fakeAudio is an in-memory Audio whose events are fired by the test.
// Listeners run synchronously, as they would on the UI loop.
type fakeAudio struct {
	source    string
	pos       float64
	dur       float64
	volume    float64
	paused    bool
	closed    bool
	err       error
	listeners map[Event][]func()

	// playResult is handed to every Play callback. With holdPlay set the
	// callbacks wait in pending until resolvePlay.
	playResult error
	holdPlay   bool
	pending    []func(error)

	playCalls  int
	pauseCalls int
}

func newFakeAudio(source string) *fakeAudio {
	return &fakeAudio{
		source:    source,
		dur:       math.NaN(),
		volume:    -1,
		paused:    true,
		listeners: make(map[Event][]func()),
	}
}

func (f *fakeAudio) Source() string    { return f.source }
func (f *fakeAudio) Position() float64 { return f.pos }
func (f *fakeAudio) Duration() float64 { return f.dur }
func (f *fakeAudio) SetVolume(v float64) {
	f.volume = v
}
func (f *fakeAudio) Err() error { return f.err }

func (f *fakeAudio) SetPosition(seconds float64) {
	f.pos = seconds
	f.fire(EventTimeUpdate)
}

func (f *fakeAudio) Play(done func(error)) {
	f.playCalls++
	if f.holdPlay {
		f.pending = append(f.pending, done)
		return
	}
	f.finishPlay(done)
}

func (f *fakeAudio) finishPlay(done func(error)) {
	if f.playResult == nil {
		f.paused = false
	}
	done(f.playResult)
}

// resolvePlay settles the oldest held Play request
func (f *fakeAudio) resolvePlay() {
	done := f.pending[0]
	f.pending = f.pending[1:]
	f.finishPlay(done)
}

func (f *fakeAudio) Pause() {
	f.pauseCalls++
	f.paused = true
}

func (f *fakeAudio) On(e Event, fn func()) {
	f.listeners[e] = append(f.listeners[e], fn)
}

func (f *fakeAudio) Close() error {
	f.closed = true
	return nil
}

func (f *fakeAudio) fire(e Event) {
	for _, fn := range f.listeners[e] {
		fn()
	}
}

// loadMetadata makes the duration known and fires loadedmetadata
func (f *fakeAudio) loadMetadata(duration float64) {
	f.dur = duration
	f.fire(EventLoadedMetadata)
}

// advance moves playback to pos and fires timeupdate
func (f *fakeAudio) advance(pos float64) {
	f.pos = pos
	f.fire(EventTimeUpdate)
}

// fakeFactory records every Audio it builds
type fakeFactory struct {
	created    []*fakeAudio
	playResult error
	holdPlay   bool
}

func (ff *fakeFactory) New(source string) Audio {
	a := newFakeAudio(source)
	a.playResult = ff.playResult
	a.holdPlay = ff.holdPlay
	ff.created = append(ff.created, a)
	return a
}

func (ff *fakeFactory) last() *fakeAudio {
	if len(ff.created) == 0 {
		return nil
	}
	return ff.created[len(ff.created)-1]
}

// captureNotifier records alerts instead of showing them
type captureNotifier struct {
	alerts []string
}

func (c *captureNotifier) Alert(msg string) {
	c.alerts = append(c.alerts, msg)
}

var testDefaultTrack = TrackMetadata{
	Source:  "assets/audio/default.mp3",
	Title:   "Default Title",
	Artists: "Default Artist",
}

// newTestController wires a controller to fakes with every element bound
func newTestController() (*Controller, Bindings, *fakeFactory, *captureNotifier) {
	ui := newBindings(knownElements, 0.8, 0.1)
	ff := &fakeFactory{}
	n := &captureNotifier{}
	c := NewController(ui, ff.New, n, newDiscardLogger(), ControllerOptions{
		DefaultTrack:  testDefaultTrack,
		DefaultVolume: 1,
		SkipSeconds:   10,
	})
	return c, ui, ff, n
}
