package main

import (
	"math"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

const (
	msgLoadError     = "Error loading audio file. Please check the file path."
	msgStartRejected = "Please press play again to start the music."
)

// TrackMetadata describes the track a session plays.
type TrackMetadata struct {
	Source  string
	Title   string
	Artists string
}

// SeekEvent is a click on the progress bar: the horizontal offset of the
// click inside the bar and the bar's total width, in the same unit.
type SeekEvent struct {
	OffsetX float64
	Width   float64
}

// ControllerOptions carries the controller's tunables.
type ControllerOptions struct {
	// DefaultTrack is loaded when play is pressed with nothing loaded.
	DefaultTrack TrackMetadata
	// DefaultVolume applies when no volume control is bound.
	DefaultVolume float64
	// SkipSeconds is the step of SeekBackward/SeekForward.
	SkipSeconds float64
}

// session is the live binding to one loaded audio resource.
type session struct {
	audio    Audio
	track    TrackMetadata
	playing  bool
	starting bool
}

// Controller keeps one playback session and the page bindings in sync.
// It is not safe for concurrent use; every method and every engine
// callback runs on the UI loop.
type Controller struct {
	ui       Bindings
	newAudio AudioFactory
	notify   Notifier
	log      logrus.FieldLogger
	opts     ControllerOptions

	cur mo.Option[*session]
	// seq identifies the latest transport request. Start results carrying
	// an older value are dropped.
	seq uint64

	onTrack func(TrackMetadata)
}

// NewController returns a controller with no session loaded.
func NewController(ui Bindings, factory AudioFactory, notify Notifier, log logrus.FieldLogger, opts ControllerOptions) *Controller {
	if opts.SkipSeconds <= 0 {
		opts.SkipSeconds = 10
	}
	return &Controller{
		ui:       ui,
		newAudio: factory,
		notify:   notify,
		log:      log,
		opts:     opts,
		cur:      mo.None[*session](),
	}
}

// OnTrackChange registers fn to run after every InitPlayer.
func (c *Controller) OnTrackChange(fn func(TrackMetadata)) {
	c.onTrack = fn
}

// InitPlayer stops and discards the current session, if any, and loads
// source as the new one. Load failures are reported asynchronously.
func (c *Controller) InitPlayer(source, title, artists string) {
	c.discard()

	c.seq++
	track := TrackMetadata{Source: source, Title: title, Artists: artists}
	s := &session{audio: c.newAudio(source), track: track}
	c.cur = mo.Some(s)

	with(c.ui.Title, func(l *Label) { l.SetText(title) })
	with(c.ui.Artists, func(l *Label) { l.SetText(artists) })
	c.setIcon(IconPaused)
	with(c.ui.ProgressFill, func(f *Fill) { f.SetWidth(0) })
	with(c.ui.CurrentTime, func(l *Label) { l.SetText(FormatTime(0)) })
	with(c.ui.Duration, func(l *Label) { l.Clear() })

	c.attach(s)

	volume := c.opts.DefaultVolume
	with(c.ui.Volume, func(sl *Slider) { volume = sl.Value() })
	s.audio.SetVolume(volume)

	c.log.WithField("source", source).Info("player initialized")

	if c.onTrack != nil {
		c.onTrack(track)
	}
}

func (c *Controller) discard() {
	s, ok := c.cur.Get()
	if !ok {
		return
	}
	s.audio.Pause()
	s.audio.SetPosition(0)
	s.playing = false
	s.starting = false
	if err := s.audio.Close(); err != nil {
		c.log.WithError(err).WithField("source", s.track.Source).Warn("closing previous audio")
	}
	c.cur = mo.None[*session]()
}

func (c *Controller) attach(s *session) {
	a := s.audio

	a.On(EventLoadedMetadata, func() {
		if !c.isCurrent(s) {
			return
		}
		c.log.WithField("duration", a.Duration()).Debug("audio loaded")
		with(c.ui.Duration, func(l *Label) { l.SetText(FormatTime(a.Duration())) })
	})

	a.On(EventTimeUpdate, func() {
		if !c.isCurrent(s) {
			return
		}
		c.updateProgress(a)
	})

	a.On(EventEnded, func() {
		if !c.isCurrent(s) {
			return
		}
		c.log.Debug("audio ended")
		c.seq++
		s.playing = false
		s.starting = false
		c.setIcon(IconPaused)
		a.SetPosition(0)
		with(c.ui.ProgressFill, func(f *Fill) { f.SetWidth(0) })
	})

	a.On(EventError, func() {
		if !c.isCurrent(s) {
			return
		}
		c.log.WithError(a.Err()).WithField("source", a.Source()).Error("audio error")
		c.notify.Alert(msgLoadError)
	})
}

func (c *Controller) updateProgress(a Audio) {
	d := a.Duration()
	if !knownDuration(d) {
		return
	}
	pos := a.Position()
	with(c.ui.ProgressFill, func(f *Fill) { f.SetWidth(pos / d * 100) })
	with(c.ui.CurrentTime, func(l *Label) { l.SetText(FormatTime(pos)) })
}

// TogglePlay pauses a playing session or starts a paused one. With no
// session it only loads the default track.
func (c *Controller) TogglePlay() {
	s, ok := c.cur.Get()
	if !ok {
		d := c.opts.DefaultTrack
		c.InitPlayer(d.Source, d.Title, d.Artists)
		return
	}

	if s.playing || s.starting {
		c.seq++
		s.audio.Pause()
		s.playing = false
		s.starting = false
		c.setIcon(IconPaused)
		return
	}

	c.seq++
	seq := c.seq
	s.starting = true
	s.audio.Play(func(err error) {
		if seq != c.seq || !c.isCurrent(s) {
			return
		}
		s.starting = false
		if err != nil {
			c.log.WithError(err).WithField("source", s.track.Source).Warn("audio play error")
			c.notify.Alert(msgStartRejected)
			return
		}
		s.playing = true
		c.setIcon(IconPlaying)
	})
}

// Seek jumps to the clicked fraction of the track.
func (c *Controller) Seek(ev SeekEvent) {
	s, ok := c.cur.Get()
	if !ok || ev.Width <= 0 {
		return
	}
	d := s.audio.Duration()
	if !knownDuration(d) {
		return
	}
	s.audio.SetPosition(ev.OffsetX / ev.Width * d)
}

func (c *Controller) SeekBackward() {
	s, ok := c.cur.Get()
	if !ok {
		return
	}
	target := s.audio.Position() - c.opts.SkipSeconds
	if d := s.audio.Duration(); knownDuration(d) {
		target = lo.Clamp(target, 0, d)
	} else {
		target = math.Max(0, target)
	}
	s.audio.SetPosition(target)
}

// SeekForward skips ahead, stopping at the end of the track. It does
// nothing until the duration is known.
func (c *Controller) SeekForward() {
	s, ok := c.cur.Get()
	if !ok {
		return
	}
	d := s.audio.Duration()
	if !knownDuration(d) {
		return
	}
	s.audio.SetPosition(lo.Clamp(s.audio.Position()+c.opts.SkipSeconds, 0, d))
}

// ChangeVolume applies the volume control's value to the session.
func (c *Controller) ChangeVolume() {
	s, ok := c.cur.Get()
	if !ok {
		return
	}
	with(c.ui.Volume, func(sl *Slider) { s.audio.SetVolume(sl.Value()) })
}

// StepVolume moves the volume control by n steps and applies it.
func (c *Controller) StepVolume(n int) {
	sl, ok := c.ui.Volume.Get()
	if !ok {
		return
	}
	sl.Step(n)
	c.ChangeVolume()
}

// Close releases the current session.
func (c *Controller) Close() {
	c.seq++
	c.discard()
}

func (c *Controller) Playing() bool {
	s, ok := c.cur.Get()
	return ok && s.playing
}

func (c *Controller) HasSession() bool { return c.cur.IsPresent() }

func (c *Controller) Position() float64 {
	if s, ok := c.cur.Get(); ok {
		return s.audio.Position()
	}
	return 0
}

func (c *Controller) Duration() float64 {
	if s, ok := c.cur.Get(); ok {
		return s.audio.Duration()
	}
	return math.NaN()
}

func (c *Controller) Track() (TrackMetadata, bool) {
	if s, ok := c.cur.Get(); ok {
		return s.track, true
	}
	return TrackMetadata{}, false
}

func (c *Controller) setIcon(state IconState) {
	with(c.ui.PlayIcon, func(i *Icon) { i.Set(state) })
}

func (c *Controller) isCurrent(s *session) bool {
	cur, ok := c.cur.Get()
	return ok && cur == s
}

func knownDuration(d float64) bool {
	return d > 0 && !math.IsInf(d, 0)
}
