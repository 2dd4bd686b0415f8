package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const appName = "trackplayer"

// Config holds all application configuration
type Config struct {
	UI struct {
		Color     string   `mapstructure:"color"`
		ColorMode string   `mapstructure:"color_mode"`
		MaxWidth  int      `mapstructure:"max_width"`
		Elements  []string `mapstructure:"elements"`
	} `mapstructure:"ui"`
	Player struct {
		DefaultSource  string  `mapstructure:"default_source"`
		DefaultTitle   string  `mapstructure:"default_title"`
		DefaultArtists string  `mapstructure:"default_artists"`
		DefaultVolume  float64 `mapstructure:"default_volume"`
		VolumeStep     float64 `mapstructure:"volume_step"`
		SkipSeconds    float64 `mapstructure:"skip_seconds"`
	} `mapstructure:"player"`
	Artwork struct {
		Enabled      bool `mapstructure:"enabled"`
		Padding      int  `mapstructure:"padding"`
		WidthPixels  int  `mapstructure:"width_pixels"`
		WidthColumns int  `mapstructure:"width_columns"`
	} `mapstructure:"artwork"`
	Text struct {
		MaxLength int `mapstructure:"max_length"`
	} `mapstructure:"text"`
	Timing struct {
		UIRefreshMs  int `mapstructure:"ui_refresh_ms"`
		TimeUpdateMs int `mapstructure:"time_update_ms"`
	} `mapstructure:"timing"`
	Logs struct {
		Write bool   `mapstructure:"write"`
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"logs"`
}

// defaults is the factory configuration, keyed by viper path.
var defaults = map[string]any{
	"ui.color":               "2",
	"ui.color_mode":          "manual",
	"ui.max_width":           52,
	"ui.elements":            knownElements,
	"player.default_source":  "assets/audio/Gehra Hua.mp3",
	"player.default_title":   "Gehra Hua",
	"player.default_artists": "Mittal",
	"player.default_volume":  1.0,
	"player.volume_step":     0.1,
	"player.skip_seconds":    10.0,
	"artwork.enabled":        true,
	"artwork.padding":        16,
	"artwork.width_pixels":   300,
	"artwork.width_columns":  13,
	"text.max_length":        36,
	"timing.ui_refresh_ms":   100,
	"timing.time_update_ms":  250,
	"logs.write":             false,
	"logs.level":             "info",
	"logs.json":              false,
}

// defaultConfig returns the factory configuration without touching viper
func defaultConfig() Config {
	var cfg Config
	cfg.UI.Color = defaults["ui.color"].(string)
	cfg.UI.ColorMode = defaults["ui.color_mode"].(string)
	cfg.UI.MaxWidth = defaults["ui.max_width"].(int)
	cfg.UI.Elements = append([]string{}, knownElements...)
	cfg.Player.DefaultSource = defaults["player.default_source"].(string)
	cfg.Player.DefaultTitle = defaults["player.default_title"].(string)
	cfg.Player.DefaultArtists = defaults["player.default_artists"].(string)
	cfg.Player.DefaultVolume = defaults["player.default_volume"].(float64)
	cfg.Player.VolumeStep = defaults["player.volume_step"].(float64)
	cfg.Player.SkipSeconds = defaults["player.skip_seconds"].(float64)
	cfg.Artwork.Enabled = defaults["artwork.enabled"].(bool)
	cfg.Artwork.Padding = defaults["artwork.padding"].(int)
	cfg.Artwork.WidthPixels = defaults["artwork.width_pixels"].(int)
	cfg.Artwork.WidthColumns = defaults["artwork.width_columns"].(int)
	cfg.Text.MaxLength = defaults["text.max_length"].(int)
	cfg.Timing.UIRefreshMs = defaults["timing.ui_refresh_ms"].(int)
	cfg.Timing.TimeUpdateMs = defaults["timing.time_update_ms"].(int)
	cfg.Logs.Write = defaults["logs.write"].(bool)
	cfg.Logs.Level = defaults["logs.level"].(string)
	cfg.Logs.JSON = defaults["logs.json"].(bool)
	return cfg
}

// SafeConfig wraps Config with thread-safe access
type SafeConfig struct {
	mu  sync.RWMutex
	cfg Config
}

// Get returns a copy of the current config (thread-safe read)
func (sc *SafeConfig) Get() Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cfg
}

// Set updates the config (thread-safe write)
func (sc *SafeConfig) Set(cfg Config) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cfg = cfg
}

var config = func() *SafeConfig {
	sc := &SafeConfig{}
	sc.Set(defaultConfig())
	return sc
}()

// Config file changed notification
type configReloadMsg struct{}

var configChangeChan = make(chan struct{}, 1)

// Watch for config file changes
func watchConfigCmd() tea.Cmd {
	return func() tea.Msg {
		<-configChangeChan
		return configReloadMsg{}
	}
}

// configDir follows XDG: $XDG_CONFIG_HOME/trackplayer, else ~/.config/trackplayer
func configDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, appName)
}

// initConfig loads defaults, the config file and TRACKPLAYER_* variables
// into viper, then publishes the result to config. Flags must already be
// bound with viper.BindPFlag.
func initConfig() error {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	viper.SetFs(fsys.Fs)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if dir := configDir(); dir != "" {
		viper.AddConfigPath(dir)
	}

	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, problems, err := loadConfig()
	if err != nil {
		return err
	}
	for _, problem := range problems {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", problem)
	}
	config.Set(cfg)

	viper.OnConfigChange(func(e fsnotify.Event) {
		newCfg, problems, err := loadConfig()
		if err != nil {
			log.WithError(err).WithField("file", e.Name).Warn("config reload failed")
			return
		}
		for _, problem := range problems {
			log.WithField("file", e.Name).Warn(problem)
		}
		config.Set(newCfg)
		select {
		case configChangeChan <- struct{}{}:
		default:
			// a reload is already pending
		}
	})
	if viper.ConfigFileUsed() != "" {
		viper.WatchConfig()
	}
	return nil
}

// loadConfig unmarshals viper's state and repairs invalid values,
// returning what it had to repair.
func loadConfig() (Config, []error, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, nil, fmt.Errorf("parse config: %w", err)
	}
	problems := validateConfig(&cfg)
	return cfg, problems, nil
}

// validateConfig checks every field, resets the invalid ones to their
// defaults and returns one error per reset.
func validateConfig(cfg *Config) []error {
	def := defaultConfig()
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !isValidColor(cfg.UI.Color) {
		invalid("ui.color %q is not an ANSI code or hex color, using %q", cfg.UI.Color, def.UI.Color)
		cfg.UI.Color = def.UI.Color
	}
	if cfg.UI.ColorMode != "manual" && cfg.UI.ColorMode != "auto" {
		invalid("ui.color_mode must be manual or auto, got %q", cfg.UI.ColorMode)
		cfg.UI.ColorMode = def.UI.ColorMode
	}
	if cfg.UI.MaxWidth < 30 || cfg.UI.MaxWidth > 200 {
		invalid("ui.max_width must be between 30 and 200, got %d", cfg.UI.MaxWidth)
		cfg.UI.MaxWidth = def.UI.MaxWidth
	}
	if unknown, _ := lo.Difference(cfg.UI.Elements, knownElements); len(unknown) > 0 {
		invalid("ui.elements has unknown entries %v", unknown)
		cfg.UI.Elements = lo.Filter(cfg.UI.Elements, func(e string, _ int) bool {
			return lo.Contains(knownElements, e)
		})
	}

	if cfg.Player.DefaultVolume < 0 || cfg.Player.DefaultVolume > 1 {
		invalid("player.default_volume must be between 0 and 1, got %v", cfg.Player.DefaultVolume)
		cfg.Player.DefaultVolume = def.Player.DefaultVolume
	}
	if cfg.Player.VolumeStep <= 0 || cfg.Player.VolumeStep > 1 {
		invalid("player.volume_step must be in (0, 1], got %v", cfg.Player.VolumeStep)
		cfg.Player.VolumeStep = def.Player.VolumeStep
	}
	if cfg.Player.SkipSeconds <= 0 {
		invalid("player.skip_seconds must be positive, got %v", cfg.Player.SkipSeconds)
		cfg.Player.SkipSeconds = def.Player.SkipSeconds
	}

	if cfg.Artwork.Padding < 0 || cfg.Artwork.Padding > 50 {
		invalid("artwork.padding must be between 0 and 50, got %d", cfg.Artwork.Padding)
		cfg.Artwork.Padding = def.Artwork.Padding
	}
	if cfg.Artwork.WidthPixels < 50 || cfg.Artwork.WidthPixels > 1000 {
		invalid("artwork.width_pixels must be between 50 and 1000, got %d", cfg.Artwork.WidthPixels)
		cfg.Artwork.WidthPixels = def.Artwork.WidthPixels
	}
	if cfg.Artwork.WidthColumns < 5 || cfg.Artwork.WidthColumns > 50 {
		invalid("artwork.width_columns must be between 5 and 50, got %d", cfg.Artwork.WidthColumns)
		cfg.Artwork.WidthColumns = def.Artwork.WidthColumns
	}

	if cfg.Text.MaxLength < 10 {
		invalid("text.max_length must be at least 10, got %d", cfg.Text.MaxLength)
		cfg.Text.MaxLength = def.Text.MaxLength
	}

	if cfg.Timing.UIRefreshMs < 16 || cfg.Timing.UIRefreshMs > 1000 {
		invalid("timing.ui_refresh_ms must be between 16 and 1000, got %d", cfg.Timing.UIRefreshMs)
		cfg.Timing.UIRefreshMs = def.Timing.UIRefreshMs
	}
	if cfg.Timing.TimeUpdateMs < 50 || cfg.Timing.TimeUpdateMs > 5000 {
		invalid("timing.time_update_ms must be between 50 and 5000, got %d", cfg.Timing.TimeUpdateMs)
		cfg.Timing.TimeUpdateMs = def.Timing.TimeUpdateMs
	}

	return errs
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// isValidColor accepts ANSI codes 0-255 and #RGB / #RRGGBB hex colors
func isValidColor(color string) bool {
	if strings.HasPrefix(color, "#") {
		return hexColor.MatchString(color)
	}
	if color == "" || len(color) > 3 {
		return false
	}
	n, err := strconv.Atoi(color)
	return err == nil && n >= 0 && n <= 255 && strconv.Itoa(n) == color
}
