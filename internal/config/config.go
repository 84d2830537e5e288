// Package config resolves viewer settings from flags, environment, an
// optional config file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	css "github.com/mazznoer/csscolorparser"
	"github.com/spf13/viper"

	"lucidia/internal/anim"
	"lucidia/internal/controls"
	"lucidia/internal/render"
	"lucidia/internal/texcache"
)

// ErrNoImages is returned when no usable image path was configured.
var ErrNoImages = render.ErrNoImages

const (
	Name      = "lucidia"
	EnvPrefix = "LUCIDIA"

	DefaultWidth   = 1280
	DefaultHeight  = 720
	DefaultWorkers = 2
	MaxWorkers     = 16
	minTexture     = 64

	DefaultHUDColor = "white"
)

// Extensions lists the file types picked up when a directory is given.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// Settings is the resolved configuration.
type Settings struct {
	Profile        string        `mapstructure:"profile"`
	Images         []string      `mapstructure:"images"`
	FadeRate       float64       `mapstructure:"fade_rate"`
	Fullscreen     bool          `mapstructure:"fullscreen"`
	Width          int           `mapstructure:"width"`
	Height         int           `mapstructure:"height"`
	VSync          bool          `mapstructure:"vsync"`
	Debug          bool          `mapstructure:"debug"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxTextureSize int           `mapstructure:"max_texture_size"`
	DecodeWorkers  int           `mapstructure:"decode_workers"`
	Preload        bool          `mapstructure:"preload"`
	Seed           int64         `mapstructure:"seed"`
	HUDColor       string        `mapstructure:"hud_color"`

	// TextColor is HUDColor parsed.
	TextColor color.NRGBA `mapstructure:"-"`
}

var knownKeys = map[string]bool{
	"profile": true, "images": true, "fade_rate": true, "fullscreen": true,
	"width": true, "height": true, "vsync": true, "debug": true,
	"idle_timeout": true, "max_texture_size": true, "decode_workers": true,
	"preload": true, "seed": true, "hud_color": true,
}

// SetDefaults registers the built-in value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("profile", render.ProfileGallery)
	v.SetDefault("images", []string{})
	v.SetDefault("fade_rate", anim.FadeRate)
	v.SetDefault("fullscreen", false)
	v.SetDefault("width", DefaultWidth)
	v.SetDefault("height", DefaultHeight)
	v.SetDefault("vsync", true)
	v.SetDefault("debug", false)
	v.SetDefault("idle_timeout", controls.DefaultIdleTimeout)
	v.SetDefault("max_texture_size", texcache.DefaultMaxSize)
	v.SetDefault("decode_workers", DefaultWorkers)
	v.SetDefault("preload", true)
	v.SetDefault("seed", 0)
	v.SetDefault("hud_color", DefaultHUDColor)
}

// New returns a viper instance that looks for lucidia.{yaml,toml,json} in
// the working directory and the user config directory, and reads
// LUCIDIA_* environment variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName(Name)
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, Name))
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Read loads the config file if there is one. A missing file is not an
// error.
func Read(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load decodes v into Settings and repairs invalid values, logging a warning
// for each one. Image paths are expanded but not opened.
func Load(v *viper.Viper, logger *log.Logger) (*Settings, error) {
	if logger == nil {
		logger = log.Default()
	}
	if file := v.ConfigFileUsed(); file != "" {
		logger.Debug("using config file", "path", file)
	}
	for _, key := range v.AllKeys() {
		if !knownKeys[key] {
			logger.Warn("unrecognised setting", "key", key)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	s.validate(logger)

	images, err := ExpandImages(s.Images)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	s.Images = images
	return s, nil
}

func (s *Settings) validate(logger *log.Logger) {
	if _, err := render.ProfileByName(s.Profile); err != nil {
		logger.Warn("unknown profile, using default", "profile", s.Profile, "default", render.ProfileGallery)
		s.Profile = render.ProfileGallery
	}
	if s.FadeRate <= 0 || s.FadeRate > 1 {
		logger.Warn("fade_rate must be in (0, 1], using default", "fade_rate", s.FadeRate, "default", anim.FadeRate)
		s.FadeRate = anim.FadeRate
	}
	if s.Width < 1 || s.Height < 1 {
		logger.Warn("window size must be positive, using default",
			"width", s.Width, "height", s.Height, "default", fmt.Sprintf("%dx%d", DefaultWidth, DefaultHeight))
		s.Width, s.Height = DefaultWidth, DefaultHeight
	}
	if s.IdleTimeout <= 0 {
		logger.Warn("idle_timeout must be positive, using default", "idle_timeout", s.IdleTimeout, "default", controls.DefaultIdleTimeout)
		s.IdleTimeout = controls.DefaultIdleTimeout
	}
	if s.MaxTextureSize < minTexture {
		logger.Warn("max_texture_size too small, using default", "max_texture_size", s.MaxTextureSize, "default", texcache.DefaultMaxSize)
		s.MaxTextureSize = texcache.DefaultMaxSize
	}
	switch {
	case s.DecodeWorkers < 1:
		logger.Warn("decode_workers must be at least 1, using default", "decode_workers", s.DecodeWorkers, "default", DefaultWorkers)
		s.DecodeWorkers = DefaultWorkers
	case s.DecodeWorkers > MaxWorkers:
		logger.Warn("decode_workers clamped", "decode_workers", s.DecodeWorkers, "max", MaxWorkers)
		s.DecodeWorkers = MaxWorkers
	}
	c, err := ParseColor(s.HUDColor)
	if err != nil {
		logger.Warn("invalid hud_color, using default", "hud_color", s.HUDColor, "err", err, "default", DefaultHUDColor)
		s.HUDColor = DefaultHUDColor
		c, _ = ParseColor(DefaultHUDColor)
	}
	s.TextColor = c
}

// ParseColor accepts any CSS colour: names, hex, rgb(), hsl() and so on.
func ParseColor(str string) (color.NRGBA, error) {
	c, err := css.Parse(str)
	if err != nil {
		return color.NRGBA{}, err
	}
	return color.NRGBA{
		R: channel(c.R),
		G: channel(c.G),
		B: channel(c.B),
		A: channel(c.A),
	}, nil
}

func channel(v float64) uint8 {
	return uint8(v*255 + 0.5)
}

// RenderProfile returns the profile named by the settings with the
// configured fade rate applied.
func (s *Settings) RenderProfile() render.Profile {
	p, err := render.ProfileByName(s.Profile)
	if err != nil {
		p = render.GalleryProfile()
	}
	p.Anim.FadeRate = s.FadeRate
	return p
}

// ExpandImages replaces every directory in paths with the image files it
// contains, sorted by name. Files are kept as given, in order.
func ExpandImages(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			// Missing files surface later as per-image load failures.
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", p, err)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && IsImage(e.Name()) {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// IsImage reports whether name has one of Extensions.
func IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
