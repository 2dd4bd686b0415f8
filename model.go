package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"
	"github.com/spf13/afero"
)

// page is the set of elements the player renders, shared by every copy of
// the model.
type page struct {
	ui     Bindings
	alerts *alertQueue
	// newTrack is set by the controller when a session is loaded and
	// consumed by the model.
	newTrack mo.Option[TrackMetadata]
}

func newPage(cfg Config) *page {
	p := &page{
		ui:     newBindings(cfg.UI.Elements, cfg.Player.DefaultVolume, cfg.Player.VolumeStep),
		alerts: &alertQueue{},
	}
	with(p.ui.ProgressBar, func(b *Bar) { b.SetWidth(barWidth(cfg)) })
	return p
}

// model is the Bubble Tea model for the TUI application
type model struct {
	page *page
	ctrl *Controller
	fs   afero.Fs

	color string

	// Album artwork support
	supportsKitty  bool
	artworkEncoded string

	// Text scrolling state
	scrollOffset int
	scrollPause  int
	scrollTick   int

	showHelp bool
}

// UI refresh tick
type tickMsg time.Time

func newModel(p *page, ctrl *Controller, fs afero.Fs, cfg Config, kitty bool) model {
	ctrl.OnTrackChange(func(t TrackMetadata) {
		p.newTrack = mo.Some(t)
	})
	return model{
		page:          p,
		ctrl:          ctrl,
		fs:            fs,
		color:         cfg.UI.Color,
		supportsKitty: kitty,
	}
}

// Schedule next UI refresh tick
func tickCmd() tea.Cmd {
	cfg := config.Get()
	return tea.Tick(time.Duration(cfg.Timing.UIRefreshMs)*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), watchConfigCmd()}
	if t, ok := m.page.newTrack.Get(); ok {
		m.page.newTrack = mo.None[TrackMetadata]()
		cmds = append(cmds, loadArtworkCmd(m.fs, t.Source, config.Get(), m.supportsKitty))
	}
	return tea.Batch(cmds...)
}

// trackChanged resets per-track view state after the controller loaded a
// new session and starts loading its artwork.
func (m model) trackChanged() (model, tea.Cmd) {
	t, ok := m.page.newTrack.Get()
	if !ok {
		return m, nil
	}
	m.page.newTrack = mo.None[TrackMetadata]()
	m.scrollOffset = 0
	m.scrollPause = 30
	m.scrollTick = 0
	m.artworkEncoded = ""
	return m, loadArtworkCmd(m.fs, t.Source, config.Get(), m.supportsKitty)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.ctrl.Close()
			return m, tea.Quit
		}
		if m.page.alerts.Active() {
			switch msg.String() {
			case "enter", "esc", " ":
				m.page.alerts.Dismiss()
			}
			return m, nil
		}
		switch msg.String() {
		case "q":
			m.ctrl.Close()
			return m, tea.Quit
		case " ", "p":
			m.ctrl.TogglePlay()
		case "left", "h":
			m.ctrl.SeekBackward()
		case "right", "l":
			m.ctrl.SeekForward()
		case "+", "=":
			m.ctrl.StepVolume(1)
		case "-", "_":
			m.ctrl.StepVolume(-1)
		case "?":
			m.showHelp = !m.showHelp
		}
		return m.trackChanged()

	case tea.MouseMsg:
		if m.page.alerts.Active() {
			return m, nil
		}
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if ev, ok := m.seekEventAt(msg.X, msg.Y); ok {
			m.ctrl.Seek(ev)
		}
		return m, nil

	case dispatchMsg:
		msg()
		return m.trackChanged()

	case artworkMsg:
		if t, ok := m.ctrl.Track(); !ok || t.Source != msg.source {
			return m, nil
		}
		if msg.err != nil {
			log.WithError(msg.err).WithField("source", msg.source).Debug("no artwork")
			return m, nil
		}
		m.artworkEncoded = msg.encoded
		if config.Get().UI.ColorMode == "auto" && msg.color != "" {
			m.color = msg.color
		}
		return m, nil

	case configReloadMsg:
		cfg := config.Get()
		if cfg.UI.ColorMode == "manual" {
			m.color = cfg.UI.Color
		}
		with(m.page.ui.ProgressBar, func(b *Bar) { b.SetWidth(barWidth(cfg)) })
		if !cfg.Artwork.Enabled {
			m.artworkEncoded = ""
		}
		return m, watchConfigCmd()

	case tickMsg:
		m.advanceScroll(config.Get())
		return m, tickCmd()
	}

	return m, nil
}

// advanceScroll moves long labels one cell every third tick and pauses at
// the start of each loop.
func (m *model) advanceScroll(cfg Config) {
	m.scrollTick++
	if m.scrollPause > 0 {
		m.scrollPause--
		return
	}
	if m.scrollTick%3 != 0 {
		return
	}
	m.scrollOffset++

	longest := 0
	for _, l := range []mo.Option[*Label]{m.page.ui.Title, m.page.ui.Artists} {
		with(l, func(l *Label) { longest = max(longest, len([]rune(l.Text()))) })
	}
	if longest > cfg.Text.MaxLength && m.scrollOffset >= longest+len([]rune(scrollSeparator)) {
		m.scrollOffset = 0
		m.scrollPause = 30
	}
}

// seekEventAt maps a click at screen cell (x, y) onto the progress bar.
func (m model) seekEventAt(x, y int) (SeekEvent, bool) {
	bar, ok := m.page.ui.ProgressBar.Get()
	if !ok || bar.Width() <= 0 {
		return SeekEvent{}, false
	}
	_, row := m.contentLines(config.Get())
	if row < 0 {
		return SeekEvent{}, false
	}
	x0, y0 := barOrigin(row)
	if y != y0 || x < x0 || x >= x0+bar.Width() {
		return SeekEvent{}, false
	}
	return SeekEvent{OffsetX: float64(x - x0), Width: float64(bar.Width())}, true
}
