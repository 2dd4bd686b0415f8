package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
)

// The box is drawn at the top-left corner: one border cell and two
// padding cells before the content on each row, one border row and one
// padding row above it.
const (
	contentX = 3
	contentY = 2
)

// labelWidth is the width of a rendered "Title: " prefix and the space
// after it.
const labelWidth = 8

// contentWidth is the width the box wraps its content at.
func contentWidth(cfg Config) int {
	return cfg.UI.MaxWidth - 4
}

// barWidth is the number of cells of the progress bar, leaving room for
// the time labels on the same row.
func barWidth(cfg Config) int {
	return cfg.UI.MaxWidth - 20
}

// barOrigin is the screen cell of the first bar cell, given the bar's row
// within the content.
func barOrigin(row int) (x, y int) {
	return contentX, contentY + row
}

func (m model) styles() (highlight, dim, label lipgloss.Style) {
	color := lipgloss.Color(m.color)
	highlight = lipgloss.NewStyle().Foreground(color)
	dim = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	label = lipgloss.NewStyle().Foreground(color).Bold(true)
	return highlight, dim, label
}

func (m model) showArtwork(cfg Config) bool {
	return m.artworkEncoded != "" && m.supportsKitty && cfg.Artwork.Enabled
}

// contentLines renders the rows inside the box and reports the screen row,
// counted from the top of the content, that holds the progress bar, or -1.
func (m model) contentLines(cfg Config) ([]string, int) {
	highlight, dim, label := m.styles()
	ui := m.page.ui

	pad := ""
	if m.showArtwork(cfg) {
		pad = strings.Repeat(" ", cfg.Artwork.Padding)
	}
	// Labels scroll inside what is left of the row, so they never wrap.
	maxLen := max(1, min(cfg.Text.MaxLength, contentWidth(cfg)-len(pad)-labelWidth))

	lines := []string{pad + highlight.Render("♪ Now Playing"), ""}

	addLine := func(name string, l *Label) {
		if l.Text() == "" {
			return
		}
		text := scrollText(l.Text(), maxLen, m.scrollOffset)
		lines = append(lines, fmt.Sprintf("%s%s %s", pad, label.Render(name), text))
	}
	with(ui.Title, func(l *Label) { addLine("Title: ", l) })
	with(ui.Artists, func(l *Label) { addLine("Artist:", l) })

	with(ui.PlayIcon, func(i *Icon) {
		status := "▶ Paused"
		if i.State() == IconPlaying {
			status = "⏸ Playing"
		}
		lines = append(lines, pad+highlight.Render(status))
	})

	if !m.ctrl.HasSession() {
		lines = append(lines, pad+dim.Render("Nothing loaded, press space to load a track"))
	}

	lines = append(lines, "")

	barRow := -1
	var row []string
	with(ui.ProgressFill, func(f *Fill) {
		width := 0
		with(ui.ProgressBar, func(b *Bar) { width = b.Width() })
		barRow = renderedHeight(lines, contentWidth(cfg))
		row = append(row, renderBar(f.Width(), width, highlight, dim))
	})

	var times []string
	with(ui.CurrentTime, func(l *Label) { times = append(times, l.Text()) })
	with(ui.Duration, func(l *Label) {
		if l.IsSet() {
			times = append(times, l.Text())
		} else {
			times = append(times, "-:--")
		}
	})
	if len(times) > 0 {
		row = append(row, highlight.Render(strings.Join(times, " / ")))
	}
	if len(row) > 0 {
		lines = append(lines, strings.Join(row, " "))
	}

	with(ui.Volume, func(s *Slider) {
		lines = append(lines, fmt.Sprintf("%s %s %3.0f%%",
			label.Render("Vol"),
			renderBar(s.Value()*100, 10, highlight, dim),
			s.Value()*100,
		))
	})

	return lines, barRow
}

// renderedHeight is the number of rows lines take once wrapped at width.
func renderedHeight(lines []string, width int) int {
	if len(lines) == 0 {
		return 0
	}
	return lipgloss.Height(lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n")))
}

// renderBar draws percent of width cells as filled.
func renderBar(percent float64, width int, filledStyle, emptyStyle lipgloss.Style) string {
	if width <= 0 {
		return ""
	}
	filled := int(float64(width) * lo.Clamp(percent, 0, 100) / 100)
	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

func (m model) View() string {
	cfg := config.Get()
	highlight, dim, _ := m.styles()

	lines, _ := m.contentLines(cfg)

	// The image is placed where the first content cell is drawn, left of
	// the padded text.
	if m.supportsKitty {
		if m.showArtwork(cfg) {
			lines[0] = m.artworkEncoded + lines[0]
		} else {
			lines[0] = clearKittyImages + lines[0]
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.color)).
		Padding(1, 2).
		Width(cfg.UI.MaxWidth).
		Render(strings.Join(lines, "\n"))

	var footer string
	if msg, ok := m.page.alerts.Current(); ok {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		footer = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(0, 1).
			Width(cfg.UI.MaxWidth).
			Render(errorStyle.Render(msg) + "\n" + dim.Render("Press enter to dismiss"))
	} else if m.showHelp {
		footer = lipgloss.NewStyle().
			Width(cfg.UI.MaxWidth).
			Render(strings.Join([]string{
				"Play/Pause: " + highlight.Render("space"),
				"Back/Forward: " + highlight.Render("←/→"),
				"Volume: " + highlight.Render("-/+"),
				"Seek: " + highlight.Render("click bar"),
				"Quit: " + highlight.Render("q"),
				"Hide: " + highlight.Render("?"),
			}, "  "))
	} else {
		footer = dim.Render("Press ? for help")
	}

	return lipgloss.JoinVertical(lipgloss.Left, box, footer)
}
