package main

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/spf13/afero"
)

// Output rate of the shared speaker. Tracks are resampled to it.
const speakerRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(100*time.Millisecond))
	})
	return speakerErr
}

// newBeepFactory returns an AudioFactory playing files from fs through the
// system speaker. Events are delivered through dispatch; interval is the
// timeupdate cadence while playing.
func newBeepFactory(fs afero.Fs, dispatch Dispatcher, interval time.Duration) AudioFactory {
	return func(source string) Audio {
		a := newBeepAudio(fs, source, dispatch, interval)
		go a.load()
		return a
	}
}

// beepAudio is an Audio backed by a beep decoder.
//
// Lock order is a.mu, then speaker.Lock. Code running on the speaker
// goroutine must not take a.mu.
type beepAudio struct {
	source   string
	fs       afero.Fs
	dispatch Dispatcher
	interval time.Duration

	// closed once loading finished, whatever the outcome
	loaded chan struct{}

	mu        sync.Mutex
	listeners map[Event][]func()
	err       error
	stream    beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	volume    *effects.Volume
	level     float64
	startAt   float64
	attached  bool
	closed    bool
	playReq   uint64
	stopTick  chan struct{}
}

func newBeepAudio(fs afero.Fs, source string, dispatch Dispatcher, interval time.Duration) *beepAudio {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &beepAudio{
		source:    source,
		fs:        fs,
		dispatch:  dispatch,
		interval:  interval,
		loaded:    make(chan struct{}),
		listeners: make(map[Event][]func()),
		level:     1,
	}
}

func (a *beepAudio) load() {
	defer close(a.loaded)

	stream, format, err := decodeTrack(a.fs, a.source)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		if err == nil {
			stream.Close()
		}
		return
	}
	if err != nil {
		a.err = err
		a.mu.Unlock()
		a.emit(EventError)
		return
	}

	a.stream = stream
	a.format = format
	a.volume = &effects.Volume{Base: 2}
	a.ctrl = &beep.Ctrl{Streamer: a.volume, Paused: true}
	a.applyVolume()
	if a.startAt > 0 {
		a.seek(a.startAt)
	}
	a.mu.Unlock()

	a.emit(EventLoadedMetadata)
}

func (a *beepAudio) Source() string { return a.source }

func (a *beepAudio) Position() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stream == nil {
		return a.startAt
	}
	speaker.Lock()
	p := a.stream.Position()
	speaker.Unlock()
	return streamSeconds(a.format, p)
}

func (a *beepAudio) SetPosition(seconds float64) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	if a.stream == nil {
		a.startAt = math.Max(0, seconds)
		a.mu.Unlock()
		return
	}
	a.seek(seconds)
	a.mu.Unlock()

	a.emit(EventTimeUpdate)
}

// seek must be called with a.mu held and a loaded stream.
func (a *beepAudio) seek(seconds float64) {
	n := a.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	n = max(0, min(n, a.stream.Len()))
	speaker.Lock()
	err := a.stream.Seek(n)
	speaker.Unlock()
	if err != nil {
		a.err = fmt.Errorf("seek %s: %w", a.source, err)
	}
}

func (a *beepAudio) Duration() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stream == nil {
		return math.NaN()
	}
	return streamSeconds(a.format, a.stream.Len())
}

func (a *beepAudio) SetVolume(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.level = v
	if a.volume == nil {
		return
	}
	speaker.Lock()
	a.applyVolume()
	speaker.Unlock()
}

// applyVolume maps the linear level onto the base-2 gain of the effect.
func (a *beepAudio) applyVolume() {
	a.volume.Silent = a.level <= 0
	if !a.volume.Silent {
		a.volume.Volume = math.Log2(a.level)
	}
}

func (a *beepAudio) Play(done func(error)) {
	a.mu.Lock()
	a.playReq++
	req := a.playReq
	a.mu.Unlock()

	go func() {
		<-a.loaded
		err := a.start(req)
		a.dispatch(func() { done(err) })
	}()
}

func (a *beepAudio) start(req uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.closed:
		return errClosed
	case a.stream == nil:
		return fmt.Errorf("%w: %v", errNotLoaded, a.err)
	case req != a.playReq:
		return errInterrupted
	}
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	speaker.Lock()
	a.ctrl.Paused = false
	speaker.Unlock()

	if !a.attached {
		// The resampler cannot be reused once it has run dry.
		a.volume.Streamer = beep.Resample(4, a.format.SampleRate, speakerRate, a.stream)
		a.attached = true
		speaker.Play(beep.Seq(a.ctrl, beep.Callback(func() {
			go a.ended()
		})))
	}
	a.startTicker()
	return nil
}

func (a *beepAudio) ended() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.attached = false
	speaker.Lock()
	a.ctrl.Paused = true
	speaker.Unlock()
	a.stopTicker()
	a.mu.Unlock()

	a.emit(EventTimeUpdate)
	a.emit(EventEnded)
}

func (a *beepAudio) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.playReq++
	if a.ctrl != nil {
		speaker.Lock()
		a.ctrl.Paused = true
		speaker.Unlock()
	}
	a.stopTicker()
}

func (a *beepAudio) On(e Event, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners[e] = append(a.listeners[e], fn)
}

func (a *beepAudio) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *beepAudio) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.playReq++
	a.stopTicker()
	if a.ctrl != nil {
		// A nil streamer ends the speaker sequence.
		speaker.Lock()
		a.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if a.stream != nil {
		return a.stream.Close()
	}
	return nil
}

// emit hands e to the UI loop. Listeners are looked up when the closure
// runs, so ones attached right after construction are not missed.
func (a *beepAudio) emit(e Event) {
	a.dispatch(func() {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return
		}
		fns := append([]func(){}, a.listeners[e]...)
		a.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	})
}

// startTicker must be called with a.mu held.
func (a *beepAudio) startTicker() {
	if a.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	a.stopTick = stop
	go func() {
		t := time.NewTicker(a.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				a.emit(EventTimeUpdate)
			}
		}
	}()
}

// stopTicker must be called with a.mu held.
func (a *beepAudio) stopTicker() {
	if a.stopTick != nil {
		close(a.stopTick)
		a.stopTick = nil
	}
}
