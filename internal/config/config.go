package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/msalah0e/kgviz/internal/engine"
	"github.com/msalah0e/kgviz/internal/layout"
	"github.com/msalah0e/kgviz/internal/logging"
	"github.com/msalah0e/kgviz/internal/viewport"
)

// Config holds kgviz configuration.
type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Viewport   ViewportConfig   `toml:"viewport"`
	Render     RenderConfig     `toml:"render"`
	Serve      ServeConfig      `toml:"serve"`
	Log        logging.Config   `toml:"log"`
	Parallel   ParallelConfig   `toml:"parallel"`
	UI         UIConfig         `toml:"ui"`

	// Repaired lists keys LoadFile reset to defaults.
	Repaired []string `toml:"-"`
}

// SimulationConfig tunes the force layout.
type SimulationConfig struct {
	Width              float64 `toml:"width"`
	Height             float64 `toml:"height"`
	LinkDistance       float64 `toml:"link_distance"`
	ChargeStrength     float64 `toml:"charge_strength"`
	Theta              float64 `toml:"theta"`
	CenterStrength     float64 `toml:"center_strength"`
	CollisionPadding   float64 `toml:"collision_padding"`
	AlphaDecay         float64 `toml:"alpha_decay"`
	AlphaMin           float64 `toml:"alpha_min"`
	ReheatAlpha        float64 `toml:"reheat_alpha"`
	VelocityDecay      float64 `toml:"velocity_decay"`
	BarnesHutThreshold int     `toml:"barnes_hut_threshold"`
	ParallelThreshold  int     `toml:"parallel_threshold"`
	Seed               int64   `toml:"seed"`
	MaxTicks           int     `toml:"max_ticks"`
}

// ViewportConfig bounds zoom.
type ViewportConfig struct {
	MinScale    float64 `toml:"min_scale"`
	MaxScale    float64 `toml:"max_scale"`
	ZoomStep    float64 `toml:"zoom_step"`
	ZoomOutStep float64 `toml:"zoom_out_step"`
}

// RenderConfig controls drawing.
type RenderConfig struct {
	NodeRadius float64 `toml:"node_radius"`
	FrameRate  int     `toml:"frame_rate"`
}

// ServeConfig controls the live viewer.
type ServeConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// ParallelConfig controls concurrent execution.
type ParallelConfig struct {
	Enabled     bool `toml:"enabled"`
	Concurrency int  `toml:"concurrency"`
}

// UIConfig controls terminal output.
type UIConfig struct {
	Color bool `toml:"color"`
}

// Default returns the default configuration.
func Default() *Config {
	l := layout.Defaults()
	return &Config{
		Simulation: SimulationConfig{
			Width:              l.Width,
			Height:             l.Height,
			LinkDistance:       l.LinkDistance,
			ChargeStrength:     l.ChargeStrength,
			Theta:              l.Theta,
			CenterStrength:     l.CenterStrength,
			CollisionPadding:   l.CollisionPadding,
			AlphaDecay:         l.AlphaDecay,
			AlphaMin:           l.AlphaMin,
			ReheatAlpha:        l.ReheatAlpha,
			VelocityDecay:      l.VelocityDecay,
			BarnesHutThreshold: l.BarnesHutThreshold,
			ParallelThreshold:  l.ParallelThreshold,
			Seed:               l.Seed,
			MaxTicks:           1000,
		},
		Viewport: ViewportConfig{MinScale: viewport.DefaultMinScale, MaxScale: viewport.DefaultMaxScale, ZoomStep: 1.5, ZoomOutStep: 0.7},
		Render:   RenderConfig{NodeRadius: l.NodeRadius, FrameRate: 60},
		Serve:    ServeConfig{Addr: "127.0.0.1:8080", AllowedOrigins: []string{"*"}},
		Log:      logging.Config{Level: "info", Format: "console"},
		Parallel: ParallelConfig{Enabled: true, Concurrency: 4},
		UI:       UIConfig{Color: true},
	}
}

// ConfigDir returns the kgviz config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "kgviz")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the default config file. A missing or unreadable file yields
// the defaults.
func Load() *Config {
	cfg, err := LoadFile(Path())
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile reads a config file over the defaults and repairs invalid
// values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Repaired = cfg.Validate()
	return cfg, nil
}

// Validate resets out-of-range values to their defaults and reports
// which keys were repaired.
func (c *Config) Validate() []string {
	d := Default()
	var fixed []string
	fix := func(bad bool, key string, reset func()) {
		if bad {
			reset()
			fixed = append(fixed, key)
		}
	}

	s, ds := &c.Simulation, d.Simulation
	fix(s.Width <= 0, "simulation.width", func() { s.Width = ds.Width })
	fix(s.Height <= 0, "simulation.height", func() { s.Height = ds.Height })
	fix(s.LinkDistance <= 0, "simulation.link_distance", func() { s.LinkDistance = ds.LinkDistance })
	fix(s.ChargeStrength > 0, "simulation.charge_strength", func() { s.ChargeStrength = ds.ChargeStrength })
	fix(s.Theta <= 0, "simulation.theta", func() { s.Theta = ds.Theta })
	fix(s.CenterStrength < 0 || s.CenterStrength > 1, "simulation.center_strength", func() { s.CenterStrength = ds.CenterStrength })
	fix(s.CollisionPadding < 0, "simulation.collision_padding", func() { s.CollisionPadding = ds.CollisionPadding })
	fix(s.AlphaDecay <= 0 || s.AlphaDecay >= 1, "simulation.alpha_decay", func() { s.AlphaDecay = ds.AlphaDecay })
	fix(s.AlphaMin <= 0 || s.AlphaMin >= 1, "simulation.alpha_min", func() { s.AlphaMin = ds.AlphaMin })
	fix(s.ReheatAlpha <= 0 || s.ReheatAlpha > 1, "simulation.reheat_alpha", func() { s.ReheatAlpha = ds.ReheatAlpha })
	fix(s.VelocityDecay <= 0 || s.VelocityDecay >= 1, "simulation.velocity_decay", func() { s.VelocityDecay = ds.VelocityDecay })
	fix(s.BarnesHutThreshold < 0, "simulation.barnes_hut_threshold", func() { s.BarnesHutThreshold = ds.BarnesHutThreshold })
	fix(s.ParallelThreshold < 0, "simulation.parallel_threshold", func() { s.ParallelThreshold = ds.ParallelThreshold })
	fix(s.MaxTicks <= 0, "simulation.max_ticks", func() { s.MaxTicks = ds.MaxTicks })

	v, dv := &c.Viewport, d.Viewport
	fix(v.MinScale <= 0, "viewport.min_scale", func() { v.MinScale = dv.MinScale })
	fix(v.MaxScale < v.MinScale, "viewport.max_scale", func() { v.MaxScale = dv.MaxScale })
	fix(v.ZoomStep <= 1, "viewport.zoom_step", func() { v.ZoomStep = dv.ZoomStep })
	fix(v.ZoomOutStep <= 0 || v.ZoomOutStep >= 1, "viewport.zoom_out_step", func() { v.ZoomOutStep = dv.ZoomOutStep })

	fix(c.Render.NodeRadius <= 0, "render.node_radius", func() { c.Render.NodeRadius = d.Render.NodeRadius })
	fix(c.Render.FrameRate <= 0 || c.Render.FrameRate > 240, "render.frame_rate", func() { c.Render.FrameRate = d.Render.FrameRate })
	fix(c.Serve.Addr == "", "serve.addr", func() { c.Serve.Addr = d.Serve.Addr })
	fix(c.Parallel.Concurrency < 1, "parallel.concurrency", func() { c.Parallel.Concurrency = d.Parallel.Concurrency })

	return fixed
}

// Layout converts the simulation and render sections to layout options.
func (c *Config) Layout() layout.Options {
	o := layout.Defaults()
	s := c.Simulation
	o.Width, o.Height = s.Width, s.Height
	o.LinkDistance = s.LinkDistance
	o.ChargeStrength = s.ChargeStrength
	o.Theta = s.Theta
	o.CenterStrength = s.CenterStrength
	o.NodeRadius = c.Render.NodeRadius
	o.CollisionPadding = s.CollisionPadding
	o.AlphaDecay = s.AlphaDecay
	o.AlphaMin = s.AlphaMin
	o.ReheatAlpha = s.ReheatAlpha
	o.VelocityDecay = s.VelocityDecay
	o.BarnesHutThreshold = s.BarnesHutThreshold
	o.ParallelThreshold = s.ParallelThreshold
	o.Seed = s.Seed
	o.Concurrency = 1
	if c.Parallel.Enabled {
		o.Concurrency = c.Parallel.Concurrency
	}
	return o
}

// Engine converts the config to engine options.
func (c *Config) Engine() engine.Options {
	o := engine.DefaultOptions()
	o.Layout = c.Layout()
	o.MinScale = c.Viewport.MinScale
	o.MaxScale = c.Viewport.MaxScale
	o.ZoomStep = c.Viewport.ZoomStep
	o.ZoomOutStep = c.Viewport.ZoomOutStep
	o.Interaction.HitRadius = c.Render.NodeRadius
	o.Interaction.ReheatAlpha = c.Simulation.ReheatAlpha
	o.FrameInterval = time.Second / time.Duration(c.Render.FrameRate)
	return o
}

// Save writes the config to the default path.
func Save(cfg *Config) error {
	return SaveFile(cfg, Path())
}

// SaveFile writes the config to path.
func SaveFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
