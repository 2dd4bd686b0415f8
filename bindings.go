package main

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// IconState is the appearance of the play-state icon.
type IconState int

const (
	IconPaused IconState = iota
	IconPlaying
)

// Icon is the play/pause indicator.
type Icon struct {
	state IconState
}

func (i *Icon) Set(s IconState)  { i.state = s }
func (i *Icon) State() IconState { return i.state }

// Fill is the filled portion of the progress bar, as a width percentage.
type Fill struct {
	percent float64
}

func (f *Fill) SetWidth(percent float64) { f.percent = percent }
func (f *Fill) Width() float64           { return f.percent }

// Label is a text element. A label that was never written reports unset.
type Label struct {
	text string
	set  bool
}

func (l *Label) SetText(s string) {
	l.text = s
	l.set = true
}

// Clear returns the label to its unset state.
func (l *Label) Clear() {
	l.text = ""
	l.set = false
}

func (l *Label) Text() string { return l.text }
func (l *Label) IsSet() bool  { return l.set }

// Slider is a ranged numeric input, used for volume.
type Slider struct {
	value float64
	step  float64
}

// NewSlider returns a slider in [0, 1] starting at value.
func NewSlider(value, step float64) *Slider {
	return &Slider{value: lo.Clamp(value, 0, 1), step: step}
}

func (s *Slider) Value() float64 { return s.value }

func (s *Slider) SetValue(v float64) { s.value = lo.Clamp(v, 0, 1) }

// Step moves the slider by n steps.
func (s *Slider) Step(n int) { s.SetValue(s.value + float64(n)*s.step) }

// Bar is the clickable progress-bar container.
type Bar struct {
	width int
}

func (b *Bar) SetWidth(cells int) { b.width = cells }
func (b *Bar) Width() int         { return b.width }

// Bindings is the set of page elements the controller drives. Every
// handle is optional; commands touching an absent handle do nothing.
type Bindings struct {
	PlayIcon     mo.Option[*Icon]
	ProgressFill mo.Option[*Fill]
	CurrentTime  mo.Option[*Label]
	Duration     mo.Option[*Label]
	Volume       mo.Option[*Slider]
	Title        mo.Option[*Label]
	Artists      mo.Option[*Label]
	ProgressBar  mo.Option[*Bar]
}

// Element names accepted in ui.elements.
const (
	ElementIcon        = "icon"
	ElementProgress    = "progress"
	ElementCurrentTime = "current_time"
	ElementDuration    = "duration"
	ElementVolume      = "volume"
	ElementTitle       = "title"
	ElementArtists     = "artists"
)

var knownElements = []string{
	ElementIcon,
	ElementProgress,
	ElementCurrentTime,
	ElementDuration,
	ElementVolume,
	ElementTitle,
	ElementArtists,
}

// newBindings builds bindings for the named elements. The progress
// element brings both the fill and its clickable bar.
func newBindings(elements []string, defaultVolume, volumeStep float64) Bindings {
	has := func(name string) bool { return lo.Contains(elements, name) }

	b := Bindings{}
	if has(ElementIcon) {
		b.PlayIcon = mo.Some(&Icon{})
	}
	if has(ElementProgress) {
		b.ProgressFill = mo.Some(&Fill{})
		b.ProgressBar = mo.Some(&Bar{})
	}
	if has(ElementCurrentTime) {
		b.CurrentTime = mo.Some(&Label{})
	}
	if has(ElementDuration) {
		b.Duration = mo.Some(&Label{})
	}
	if has(ElementVolume) {
		b.Volume = mo.Some(NewSlider(defaultVolume, volumeStep))
	}
	if has(ElementTitle) {
		b.Title = mo.Some(&Label{})
	}
	if has(ElementArtists) {
		b.Artists = mo.Some(&Label{})
	}
	return b
}

// with runs fn on the handle if it is bound.
func with[T any](o mo.Option[T], fn func(T)) {
	if v, ok := o.Get(); ok {
		fn(v)
	}
}
