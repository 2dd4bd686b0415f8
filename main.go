package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   appName + " [file]",
	Short: "A single-track terminal audio player",
	Long: "Plays one audio file (mp3, wav, flac, ogg) with play/pause, seeking,\n" +
		"volume control and a clickable progress bar.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		cfg := config.Get()
		if noArt, _ := cmd.Flags().GetBool("no-artwork"); noArt {
			cfg.Artwork.Enabled = false
			config.Set(cfg)
		}

		logFile, err := setupLogging(cfg)
		if err != nil {
			return err
		}
		defer logFile.Close()

		track := TrackMetadata{
			Source:  cfg.Player.DefaultSource,
			Title:   cfg.Player.DefaultTitle,
			Artists: cfg.Player.DefaultArtists,
		}
		if len(args) == 1 {
			track = trackFromFlags(cmd, args[0])
		}
		return run(cfg, track)
	},
}

func init() {
	rootCmd.Flags().StringP("title", "t", "", "Track title (defaults to the file name)")
	rootCmd.Flags().StringP("artists", "a", "", "Track artists")

	rootCmd.Flags().StringP("color", "c", "", "Accent color (ANSI code or hex)")
	lo.Must0(viper.BindPFlag("ui.color", rootCmd.Flags().Lookup("color")))

	rootCmd.Flags().Float64("volume", 1, "Initial volume between 0 and 1")
	lo.Must0(viper.BindPFlag("player.default_volume", rootCmd.Flags().Lookup("volume")))

	rootCmd.Flags().Bool("no-artwork", false, "Disable album artwork display")
}

// trackFromFlags describes the file given on the command line.
func trackFromFlags(cmd *cobra.Command, source string) TrackMetadata {
	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	artists, _ := cmd.Flags().GetString("artists")
	return TrackMetadata{Source: source, Title: title, Artists: artists}
}

func run(cfg Config, track TrackMetadata) error {
	dispatcher := newLoopDispatcher()
	factory := newBeepFactory(fsys.Fs, dispatcher.Dispatch, time.Duration(cfg.Timing.TimeUpdateMs)*time.Millisecond)

	p := newPage(cfg)
	ctrl := NewController(p.ui, factory, p.alerts, log, ControllerOptions{
		DefaultTrack: TrackMetadata{
			Source:  cfg.Player.DefaultSource,
			Title:   cfg.Player.DefaultTitle,
			Artists: cfg.Player.DefaultArtists,
		},
		DefaultVolume: cfg.Player.DefaultVolume,
		SkipSeconds:   cfg.Player.SkipSeconds,
	})
	m := newModel(p, ctrl, fsys.Fs, cfg, supportsKittyGraphics())

	// The page loads a track up front only when it shows a play icon.
	if p.ui.PlayIcon.IsPresent() {
		ctrl.InitPlayer(track.Source, track.Title, track.Artists)
	} else {
		log.Info("play icon not shown, skipping initialization")
	}

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.run(ctx, program.Send)

	_, err := program.Run()
	ctrl.Close()
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
