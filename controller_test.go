package main

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInitPlayer(t *testing.T) {
	Convey("InitPlayer", t, func() {
		c, ui, ff, _ := newTestController()
		c.InitPlayer("songs/a.mp3", "T", "A")
		a := ff.last()

		Convey("Should create one session for the source", func() {
			So(len(ff.created), ShouldEqual, 1)
			So(a.Source(), ShouldEqual, "songs/a.mp3")
			So(c.HasSession(), ShouldBeTrue)
			So(c.Playing(), ShouldBeFalse)
		})

		Convey("Should reset the page", func() {
			So(ui.Title.MustGet().Text(), ShouldEqual, "T")
			So(ui.Artists.MustGet().Text(), ShouldEqual, "A")
			So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPaused)
			So(ui.ProgressFill.MustGet().Width(), ShouldEqual, 0)
			So(ui.CurrentTime.MustGet().Text(), ShouldEqual, "0:00")
			So(ui.Duration.MustGet().IsSet(), ShouldBeFalse)
		})

		Convey("Should apply the volume control's value", func() {
			So(a.volume, ShouldEqual, 0.8)
		})

		Convey("Should render the duration once metadata loads", func() {
			a.loadMetadata(185.7)
			So(ui.Duration.MustGet().Text(), ShouldEqual, "3:05")
		})

		Convey("Should track progress on timeupdate", func() {
			a.loadMetadata(200)
			a.advance(50)
			So(ui.ProgressFill.MustGet().Width(), ShouldEqual, 25)
			So(ui.CurrentTime.MustGet().Text(), ShouldEqual, "0:50")
		})

		Convey("Should ignore timeupdate while the duration is unknown", func() {
			a.advance(50)
			So(ui.ProgressFill.MustGet().Width(), ShouldEqual, 0)
			So(ui.CurrentTime.MustGet().Text(), ShouldEqual, "0:00")
		})

		Convey("When switching tracks", func() {
			c.TogglePlay()
			So(c.Playing(), ShouldBeTrue)
			a.loadMetadata(100)
			a.advance(40)

			c.InitPlayer("songs/b.mp3", "T2", "A2")
			b := ff.last()

			Convey("Should stop and discard the previous session", func() {
				So(a.paused, ShouldBeTrue)
				So(a.pos, ShouldEqual, 0)
				So(a.closed, ShouldBeTrue)
				So(c.Playing(), ShouldBeFalse)
				track, ok := c.Track()
				So(ok, ShouldBeTrue)
				So(track.Source, ShouldEqual, "songs/b.mp3")
			})

			Convey("Should reset the page for the new track", func() {
				So(ui.Title.MustGet().Text(), ShouldEqual, "T2")
				So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPaused)
				So(ui.ProgressFill.MustGet().Width(), ShouldEqual, 0)
				So(ui.CurrentTime.MustGet().Text(), ShouldEqual, "0:00")
				So(ui.Duration.MustGet().IsSet(), ShouldBeFalse)
			})

			Convey("Should ignore events from the previous session", func() {
				a.loadMetadata(999)
				a.fire(EventEnded)
				a.fire(EventError)
				So(ui.Duration.MustGet().IsSet(), ShouldBeFalse)
				b.loadMetadata(60)
				So(ui.Duration.MustGet().Text(), ShouldEqual, "1:00")
			})
		})
	})
}

func TestInitPlayerWithoutBindings(t *testing.T) {
	Convey("With no page elements bound", t, func() {
		ff := &fakeFactory{}
		n := &captureNotifier{}
		c := NewController(Bindings{}, ff.New, n, newDiscardLogger(), ControllerOptions{DefaultVolume: 0.5})

		Convey("Every command should be a silent no-op on the page", func() {
			So(func() {
				c.InitPlayer("x.mp3", "T", "A")
				a := ff.last()
				a.loadMetadata(30)
				a.advance(10)
				c.TogglePlay()
				c.Seek(SeekEvent{OffsetX: 5, Width: 10})
				c.SeekForward()
				c.SeekBackward()
				c.ChangeVolume()
				c.StepVolume(1)
				a.fire(EventEnded)
			}, ShouldNotPanic)
		})

		Convey("Should fall back to the default volume", func() {
			c.InitPlayer("x.mp3", "T", "A")
			So(ff.last().volume, ShouldEqual, 0.5)
		})
	})
}

func TestCommandsBeforeInit(t *testing.T) {
	Convey("Before any session exists", t, func() {
		c, ui, ff, n := newTestController()

		Convey("Seek commands and volume changes should do nothing", func() {
			So(func() {
				c.Seek(SeekEvent{OffsetX: 10, Width: 100})
				c.SeekBackward()
				c.SeekForward()
				c.ChangeVolume()
				c.StepVolume(-1)
			}, ShouldNotPanic)
			So(len(ff.created), ShouldEqual, 0)
			So(c.HasSession(), ShouldBeFalse)
			So(n.alerts, ShouldBeEmpty)
			So(c.Position(), ShouldEqual, 0)
		})

		Convey("StepVolume should still move the control", func() {
			c.StepVolume(-1)
			So(ui.Volume.MustGet().Value(), ShouldAlmostEqual, 0.7)
		})
	})
}

func TestTogglePlay(t *testing.T) {
	Convey("TogglePlay", t, func() {
		c, ui, ff, n := newTestController()

		Convey("First call without a session loads the default track only", func() {
			c.TogglePlay()
			So(len(ff.created), ShouldEqual, 1)
			So(ff.last().Source(), ShouldEqual, testDefaultTrack.Source)
			So(ui.Title.MustGet().Text(), ShouldEqual, testDefaultTrack.Title)
			So(ff.last().playCalls, ShouldEqual, 0)
			So(c.Playing(), ShouldBeFalse)

			Convey("Second call starts playback", func() {
				c.TogglePlay()
				So(ff.last().playCalls, ShouldEqual, 1)
				So(c.Playing(), ShouldBeTrue)
				So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPlaying)

				Convey("Third call pauses", func() {
					c.TogglePlay()
					So(ff.last().paused, ShouldBeTrue)
					So(c.Playing(), ShouldBeFalse)
					So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPaused)
				})
			})
		})

		Convey("A rejected start leaves the player paused and alerts", func() {
			ff.playResult = errors.New("no audio device")
			c.InitPlayer("a.mp3", "T", "A")
			c.TogglePlay()
			So(c.Playing(), ShouldBeFalse)
			So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPaused)
			So(n.alerts, ShouldResemble, []string{msgStartRejected})

			Convey("and the user can try again", func() {
				ff.last().playResult = nil
				c.TogglePlay()
				So(c.Playing(), ShouldBeTrue)
			})
		})

		Convey("With a slow start", func() {
			ff.holdPlay = true
			c.InitPlayer("a.mp3", "T", "A")
			a := ff.last()
			c.TogglePlay()

			Convey("The flag waits for the start to settle", func() {
				So(c.Playing(), ShouldBeFalse)
				So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPaused)
				a.resolvePlay()
				So(c.Playing(), ShouldBeTrue)
				So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPlaying)
			})

			Convey("A toggle before it settles cancels it", func() {
				c.TogglePlay()
				So(a.pauseCalls, ShouldEqual, 1)
				a.resolvePlay()
				So(c.Playing(), ShouldBeFalse)
				So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPaused)
				So(n.alerts, ShouldBeEmpty)
			})

			Convey("A track switch before it settles drops the result", func() {
				c.InitPlayer("b.mp3", "T", "A")
				a.resolvePlay()
				So(c.Playing(), ShouldBeFalse)
				So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPaused)
			})
		})
	})
}

func TestEngineEvents(t *testing.T) {
	Convey("Engine events", t, func() {
		c, ui, ff, n := newTestController()
		c.InitPlayer("a.mp3", "T", "A")
		a := ff.last()
		a.loadMetadata(120)

		Convey("Ended resets playback regardless of prior state", func() {
			c.TogglePlay()
			a.advance(119)
			So(ui.ProgressFill.MustGet().Width(), ShouldBeGreaterThan, 99)

			a.fire(EventEnded)
			So(c.Playing(), ShouldBeFalse)
			So(ui.PlayIcon.MustGet().State(), ShouldEqual, IconPaused)
			So(c.Position(), ShouldEqual, 0)
			So(ui.ProgressFill.MustGet().Width(), ShouldEqual, 0)
		})

		Convey("Ended while paused still resets", func() {
			a.advance(60)
			a.fire(EventEnded)
			So(c.Position(), ShouldEqual, 0)
			So(ui.ProgressFill.MustGet().Width(), ShouldEqual, 0)
		})

		Convey("A load error alerts the user once", func() {
			a.err = errors.New("decode: bad header")
			a.fire(EventError)
			So(n.alerts, ShouldResemble, []string{msgLoadError})
		})
	})
}

func TestSeeking(t *testing.T) {
	Convey("Seeking", t, func() {
		c, _, ff, _ := newTestController()
		c.InitPlayer("a.mp3", "T", "A")
		a := ff.last()

		Convey("Without a known duration", func() {
			a.pos = 30

			Convey("Seek does nothing", func() {
				c.Seek(SeekEvent{OffsetX: 10, Width: 20})
				So(c.Position(), ShouldEqual, 30)
			})
			Convey("SeekForward does nothing", func() {
				c.SeekForward()
				So(c.Position(), ShouldEqual, 30)
			})
			Convey("SeekBackward still steps back", func() {
				c.SeekBackward()
				So(c.Position(), ShouldEqual, 20)
			})
		})

		Convey("With a known duration", func() {
			a.loadMetadata(200)

			Convey("Seek maps the click fraction onto the duration", func() {
				c.Seek(SeekEvent{OffsetX: 25, Width: 100})
				So(c.Position(), ShouldEqual, 50)
			})
			Convey("Seek ignores a zero-width bar", func() {
				c.Seek(SeekEvent{OffsetX: 25, Width: 0})
				So(c.Position(), ShouldEqual, 0)
			})
			Convey("SeekBackward clamps at zero", func() {
				a.pos = 5
				c.SeekBackward()
				So(c.Position(), ShouldEqual, 0)
			})
			Convey("SeekBackward steps ten seconds", func() {
				a.pos = 75
				c.SeekBackward()
				So(c.Position(), ShouldEqual, 65)
			})
			Convey("SeekForward clamps at the duration", func() {
				a.pos = 197
				c.SeekForward()
				So(c.Position(), ShouldEqual, 200)
			})
			Convey("SeekForward steps ten seconds", func() {
				a.pos = 100
				c.SeekForward()
				So(c.Position(), ShouldEqual, 110)
			})
		})
	})
}

func TestVolume(t *testing.T) {
	Convey("Volume", t, func() {
		c, ui, ff, _ := newTestController()
		c.InitPlayer("a.mp3", "T", "A")
		a := ff.last()
		slider := ui.Volume.MustGet()

		Convey("ChangeVolume applies the control's value", func() {
			slider.SetValue(0.3)
			c.ChangeVolume()
			So(a.volume, ShouldEqual, 0.3)
		})

		Convey("StepVolume moves the control and applies it", func() {
			c.StepVolume(-3)
			So(slider.Value(), ShouldAlmostEqual, 0.5)
			So(a.volume, ShouldAlmostEqual, 0.5)
		})

		Convey("StepVolume stays within range", func() {
			c.StepVolume(20)
			So(a.volume, ShouldEqual, 1)
			c.StepVolume(-20)
			So(a.volume, ShouldEqual, 0)
		})
	})
}

func TestClose(t *testing.T) {
	Convey("Close releases the session", t, func() {
		c, _, ff, _ := newTestController()
		c.InitPlayer("a.mp3", "T", "A")
		c.Close()
		So(ff.last().closed, ShouldBeTrue)
		So(c.HasSession(), ShouldBeFalse)
		So(func() { c.Close() }, ShouldNotPanic)
	})
}
