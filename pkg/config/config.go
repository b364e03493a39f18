// Package config loads overlay3d settings from a TOML file and the environment.
//
// Precedence, lowest first: built-in defaults, the TOML file, OVERLAY3D_*
// environment variables. Command-line flags are applied by the CLI on top.
//
//	[server]
//	addr = ":3001"
//
//	[stats]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the default config file name.
const FileName = "overlay3d.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OVERLAY3D_"

// Config is the complete configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Storage Storage `toml:"storage"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Fonts   Fonts   `toml:"fonts"`
	Render  Render  `toml:"render"`
	Stats   Stats   `toml:"stats"`
	Cache   Cache   `toml:"cache"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string   `toml:"addr"`
	MaxVideoMB     int64    `toml:"max_video_mb"`
	MaxOverlayMB   int64    `toml:"max_overlay_mb"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RenderDuration float64  `toml:"render_duration"`
}

// Storage configures on-disk locations.
type Storage struct {
	Root      string `toml:"root"`
	PublicDir string `toml:"public_dir"`
}

// FFmpeg configures the external encoder.
type FFmpeg struct {
	Path         string `toml:"path"`
	ProbePath    string `toml:"probe_path"`
	Codec        string `toml:"codec"`
	Preset       string `toml:"preset"`
	Tune         string `toml:"tune"`
	Profile      string `toml:"profile"`
	Level        string `toml:"level"`
	CRF          int    `toml:"crf"`
	PixFmt       string `toml:"pix_fmt"`
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
	AudioRate    int    `toml:"audio_rate"`
	Channels     int    `toml:"audio_channels"`
	FrameRate    int    `toml:"frame_rate"`
}

// Fonts configures font lookup.
type Fonts struct {
	Dir       string   `toml:"dir"`
	Preload   bool     `toml:"preload"`
	Fallbacks []string `toml:"fallbacks"`
}

// Render configures overlay generation defaults.
type Render struct {
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	FPS        int     `toml:"fps"`
	Duration   float64 `toml:"duration"`
	SpinPeriod float64 `toml:"spin_period"`
}

// Stats configures the usage statistics backend.
type Stats struct {
	Backend  string `toml:"backend"` // file, redis or mongo
	File     string `toml:"file"`
	RedisURL string `toml:"redis_url"`
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// Cache configures the artifact cache.
type Cache struct {
	Backend  string `toml:"backend"` // file, redis or none
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":3001",
			MaxVideoMB:     80,
			MaxOverlayMB:   200,
			AllowedOrigins: []string{"*"},
			RenderDuration: 5,
		},
		Storage: Storage{Root: "uploads"},
		FFmpeg: FFmpeg{
			Path:         "ffmpeg",
			ProbePath:    "ffprobe",
			Codec:        "libx264",
			Preset:       "veryfast",
			Tune:         "fastdecode",
			Profile:      "baseline",
			Level:        "3.1",
			CRF:          50,
			PixFmt:       "yuv420p",
			AudioCodec:   "aac",
			AudioBitrate: "128k",
			AudioRate:    44100,
			Channels:     2,
			FrameRate:    20,
		},
		Fonts: Fonts{Preload: false},
		Render: Render{
			Width:      720,
			Height:     1280,
			FPS:        20,
			Duration:   5,
			SpinPeriod: 8,
		},
		Stats: Stats{Backend: "file", File: "stats.json", MongoDB: "overlay3d"},
		Cache: Cache{Backend: "file"},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error when path is the default name.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = FileName
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.applyEnv(os.LookupEnv)
		}
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.applyEnv(os.LookupEnv)
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// WriteFile writes cfg to path, creating parent directories. Existing files are
// kept unless overwrite is set.
func WriteFile(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, cfg)
}

// StatsPath returns the stats file, relative to the storage root when not absolute.
func (c Config) StatsPath() string {
	if filepath.IsAbs(c.Stats.File) {
		return c.Stats.File
	}
	return filepath.Join(c.Storage.Root, c.Stats.File)
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("ADDR", &c.Server.Addr)
	if v, ok := lookup(EnvPrefix + "PORT"); ok {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	str("STORAGE_ROOT", &c.Storage.Root)
	str("PUBLIC_DIR", &c.Storage.PublicDir)
	str("FFMPEG_PATH", &c.FFmpeg.Path)
	str("FFPROBE_PATH", &c.FFmpeg.ProbePath)
	str("FONTS_DIR", &c.Fonts.Dir)
	str("STATS_BACKEND", &c.Stats.Backend)
	str("STATS_FILE", &c.Stats.File)
	str("REDIS_URL", &c.Stats.RedisURL)
	str("MONGO_URI", &c.Stats.MongoURI)
	str("MONGO_DB", &c.Stats.MongoDB)
	str("CACHE_BACKEND", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	str("CACHE_REDIS_URL", &c.Cache.RedisURL)
	num("RENDER_WIDTH", &c.Render.Width)
	num("RENDER_HEIGHT", &c.Render.Height)
	num("RENDER_FPS", &c.Render.FPS)

	return errors.Join(errs...)
}
