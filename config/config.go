// Package config loads bvhkit settings from a YAML file, the environment and
// command line flags.
package config

import (
	"fmt"
	"os"
	"strconv"

	yaml "gopkg.in/yaml.v2"
)

type Config struct {
	// Scale multiplies offsets and position channels on load.
	Scale    float64 `yaml:"scale"`
	EndSites bool    `yaml:"endSites"`

	Preview Preview `yaml:"preview"`
	Server  Server  `yaml:"server"`
	Player  Player  `yaml:"player"`
}

type Preview struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Supersample int     `yaml:"supersample"`
	Yaw         float64 `yaml:"yaw"`
	Pitch       float64 `yaml:"pitch"`
}

type Server struct {
	Addr    string `yaml:"addr"`
	DataDir string `yaml:"dataDir"`
	// MaxUploadBytes limits POST /api/parse bodies.
	MaxUploadBytes int64 `yaml:"maxUploadBytes"`
}

type Player struct {
	FPS        int     `yaml:"fps"`
	Speed      float64 `yaml:"speed"`
	Loop       bool    `yaml:"loop"`
	AutoRotate bool    `yaml:"autoRotate"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Scale:   1,
		Preview: Preview{Width: 256, Height: 256, Supersample: 2},
		Server:  Server{Addr: ":8090", DataDir: ".", MaxUploadBytes: 32 << 20},
		Player:  Player{FPS: 30, Speed: 1, Loop: true},
	}
}

// Load reads a YAML file. Fields missing from the file keep Default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load for an optional path.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Scale   float64
	Addr    string
	DataDir string
	FPS     int
	Yaw     float64
	Width   int
}

// Resolve applies environment overrides, then non-zero flags, then fills
// remaining zero values with defaults.
func (c *Config) Resolve(flags Flags) {
	c.Server.Addr = envOr("BVHKIT_ADDR", c.Server.Addr)
	c.Server.DataDir = envOr("BVHKIT_DATA", c.Server.DataDir)
	c.Server.MaxUploadBytes = envInt64("BVHKIT_MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)

	if flags.Scale != 0 {
		c.Scale = flags.Scale
	}
	if flags.Addr != "" {
		c.Server.Addr = flags.Addr
	}
	if flags.DataDir != "" {
		c.Server.DataDir = flags.DataDir
	}
	if flags.FPS > 0 {
		c.Player.FPS = flags.FPS
	}
	if flags.Yaw != 0 {
		c.Preview.Yaw = flags.Yaw
	}
	if flags.Width > 0 {
		c.Preview.Width = flags.Width
		c.Preview.Height = flags.Width
	}

	d := Default()
	if c.Scale == 0 {
		c.Scale = d.Scale
	}
	if c.Preview.Width <= 0 {
		c.Preview.Width = d.Preview.Width
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = c.Preview.Width
	}
	if c.Preview.Supersample <= 0 {
		c.Preview.Supersample = d.Preview.Supersample
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = d.Server.DataDir
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = d.Server.MaxUploadBytes
	}
	if c.Player.FPS <= 0 {
		c.Player.FPS = d.Player.FPS
	}
	if c.Player.Speed == 0 {
		c.Player.Speed = d.Player.Speed
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
