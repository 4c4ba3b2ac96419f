package footlight

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/footlight/footlight/internal/core/fault"
	"github.com/footlight/footlight/internal/core/save"
)

// Config describes a full engine instance. The zero value is not usable;
// start from DefaultConfig or LoadConfig and adjust.
type Config struct {
	// Version is the payload version stamped into every save. It must be
	// a semantic version; the migrator orders its steps by it.
	Version string `json:"version" yaml:"version"`

	Renderer RendererConfig `json:"renderer" yaml:"renderer"`
	Loop     LoopConfig     `json:"loop" yaml:"loop"`
	Save     SaveConfig     `json:"save" yaml:"save"`
	Audio    AudioConfig    `json:"audio" yaml:"audio"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// RendererConfig selects a backend from the renderer registry. Hosts that
// build their own Renderer pass it through WithRenderer instead and leave
// Backend empty.
type RendererConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	// Target is handed to Renderer.Init, typically a DOM element id or a
	// canvas selector. Backends that render headless ignore it.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
}

// LoopConfig shapes the engine-driven loop started by Engine.Start. Hosts
// that drive ticks themselves (browser rAF) never start that loop and can
// ignore this section.
type LoopConfig struct {
	// TickRate is updates per second.
	TickRate int `json:"tick_rate" yaml:"tick_rate"`
}

// SaveConfig picks the storage adapter. A non-empty Dir selects the file
// adapter rooted there; otherwise saves live in memory unless the host
// supplies an adapter through WithStorage.
type SaveConfig struct {
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Slots caps how many distinct save slots may exist. Zero means
	// unlimited.
	Slots int `json:"slots,omitempty" yaml:"slots,omitempty"`
}

// AudioConfig seeds the mixer. Channels maps channel names to their gain;
// the three default channels exist regardless, and unknown names here are
// created on boot.
type AudioConfig struct {
	MasterGain float64            `json:"master_gain" yaml:"master_gain"`
	Muted      bool               `json:"muted,omitempty" yaml:"muted,omitempty"`
	Channels   map[string]float64 `json:"channels,omitempty" yaml:"channels,omitempty"`
}

type LogConfig struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

// DefaultConfig returns a config that boots headless: noop renderer,
// in-memory saves, 60 ticks per second.
func DefaultConfig() Config {
	return Config{
		Version:  save.DefaultVersion,
		Renderer: RendererConfig{Backend: "noop"},
		Loop:     LoopConfig{TickRate: 60},
		Audio:    AudioConfig{MasterGain: 1},
		Log:      LogConfig{Level: "info", Encoding: "json"},
	}
}

// LoadConfig reads a YAML config file. Missing fields keep their defaults,
// so a file only needs the values it changes.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	return ReadConfig(f)
}

// ReadConfig decodes YAML from r over the defaults.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalizes the config in place and rejects values no default
// can repair.
func (c *Config) Validate() error {
	if c.Version == "" {
		c.Version = save.DefaultVersion
	}
	if !semver.IsValid("v" + c.Version) {
		return fault.New(fault.CodeInvalidConfig,
			fmt.Sprintf("version %q is not a semantic version", c.Version), fault.ErrInvalidConfig)
	}
	if c.Renderer.Backend == "" {
		c.Renderer.Backend = "noop"
	}
	if c.Loop.TickRate <= 0 {
		c.Loop.TickRate = 60
	}
	if c.Save.Slots < 0 {
		c.Save.Slots = 0
	}
	if c.Audio.MasterGain < 0 {
		c.Audio.MasterGain = 0
	}
	for name, gain := range c.Audio.Channels {
		if gain < 0 {
			c.Audio.Channels[name] = 0
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "json"
	}
	return nil
}
