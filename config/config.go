package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for capture, detection and triggering.
// Fields may be loaded from a YAML or TOML file and overridden by command-line flags.
type Config struct {
	Debug      DebugConfig      `yaml:"debug" toml:"debug"`
	Window     WindowConfig     `yaml:"window" toml:"window"`
	Keys       KeysConfig       `yaml:"keys" toml:"keys"`
	Region     RegionConfig     `yaml:"region" toml:"region"`
	Preprocess PreprocessConfig `yaml:"preprocess" toml:"preprocess"`
	Reticle    ReticleConfig    `yaml:"reticle" toml:"reticle"`
	Templates  TemplatesConfig  `yaml:"templates" toml:"templates"`
	Timing     TimingConfig     `yaml:"timing" toml:"timing"`
}

type DebugConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// StatsIntervalMs controls the runtime stats logger period.
	StatsIntervalMs int `yaml:"stats_interval_ms" toml:"stats_interval_ms"`
	// DumpDir receives gray/blurred/edge PNGs on activation and trigger. Empty disables dumps.
	DumpDir string `yaml:"dump_dir" toml:"dump_dir"`
}

// WindowConfig selects the target window by substring of its title or owning app.
type WindowConfig struct {
	Match string `yaml:"match" toml:"match"`
}

type KeysConfig struct {
	Trigger      string `yaml:"trigger" toml:"trigger"`
	Toggle       string `yaml:"toggle" toml:"toggle"`
	PressDelayMs int    `yaml:"press_delay_ms" toml:"press_delay_ms"`
	RequireFocus bool   `yaml:"require_focus" toml:"require_focus"`
	StartEnabled bool   `yaml:"start_enabled" toml:"start_enabled"`
}

// RegionConfig crops captured frames before preprocessing. A zero width or
// height means the full window is used.
type RegionConfig struct {
	X      int  `yaml:"x" toml:"x"`
	Y      int  `yaml:"y" toml:"y"`
	Width  uint `yaml:"width" toml:"width"`
	Height uint `yaml:"height" toml:"height"`
}

type PreprocessConfig struct {
	BlurSigma float64 `yaml:"blur_sigma" toml:"blur_sigma"`
	CannyLow  float64 `yaml:"canny_low" toml:"canny_low"`
	CannyHigh float64 `yaml:"canny_high" toml:"canny_high"`
}

type ReticleConfig struct {
	ActivationThreshold float64 `yaml:"activation_threshold" toml:"activation_threshold"`
	TriggerDistancePx   uint    `yaml:"trigger_distance_px" toml:"trigger_distance_px"`
	CooldownMs          uint    `yaml:"cooldown_ms" toml:"cooldown_ms"`
	TargetX             int     `yaml:"target_x" toml:"target_x"`
	TargetY             int     `yaml:"target_y" toml:"target_y"`
}

// TemplatesConfig points at the template images. Empty paths disable the
// corresponding capability.
type TemplatesConfig struct {
	Puzzle  string `yaml:"puzzle" toml:"puzzle"`
	Reticle string `yaml:"reticle" toml:"reticle"`
	// Preprocessed marks templates that are already edge maps.
	Preprocessed bool `yaml:"preprocessed" toml:"preprocessed"`
	// PuzzleScales lists template scale factors tried for puzzle detection,
	// e.g. [0.75, 1, 1.25]. Empty or a single factor disables multi-scale.
	PuzzleScales []float64 `yaml:"puzzle_scales,omitempty" toml:"puzzle_scales,omitempty"`
}

// TimingConfig holds the per-state loop cadence in milliseconds.
type TimingConfig struct {
	DisabledMs        int `yaml:"disabled_ms" toml:"disabled_ms"`
	EnabledMs         int `yaml:"enabled_ms" toml:"enabled_ms"`
	ActiveMs          int `yaml:"active_ms" toml:"active_ms"`
	TriggerCooldownMs int `yaml:"trigger_cooldown_ms" toml:"trigger_cooldown_ms"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug: DebugConfig{
			Enabled:         false,
			StatsIntervalMs: 5000,
		},
		Window: WindowConfig{Match: ""},
		Keys: KeysConfig{
			Trigger:      "space",
			Toggle:       "f8",
			PressDelayMs: 10,
		},
		Preprocess: PreprocessConfig{
			BlurSigma: 1.4,
			CannyLow:  50,
			CannyHigh: 150,
		},
		Reticle: ReticleConfig{
			ActivationThreshold: 0.7,
			TriggerDistancePx:   20,
			CooldownMs:          500,
		},
		Timing: TimingConfig{
			DisabledMs:        100,
			EnabledMs:         1000,
			ActiveMs:          16,
			TriggerCooldownMs: 100,
		},
	}
}

// Validate clamps/normalizes values to safe ranges. It returns an error only
// for settings that cannot be repaired.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Debug.StatsIntervalMs <= 0 {
		c.Debug.StatsIntervalMs = def.Debug.StatsIntervalMs
	}
	c.Keys.Trigger = strings.ToLower(strings.TrimSpace(c.Keys.Trigger))
	c.Keys.Toggle = strings.ToLower(strings.TrimSpace(c.Keys.Toggle))
	if c.Keys.Trigger == "" {
		c.Keys.Trigger = def.Keys.Trigger
	}
	if c.Keys.Toggle == "" {
		c.Keys.Toggle = def.Keys.Toggle
	}
	if c.Keys.Trigger == c.Keys.Toggle {
		return fmt.Errorf("config: trigger and toggle key are both %q", c.Keys.Trigger)
	}
	if c.Keys.PressDelayMs <= 0 {
		c.Keys.PressDelayMs = def.Keys.PressDelayMs
	}
	if c.Preprocess.BlurSigma < 0 {
		c.Preprocess.BlurSigma = 0
	}
	if c.Preprocess.CannyLow < 0 {
		c.Preprocess.CannyLow = 0
	}
	if c.Preprocess.CannyHigh < c.Preprocess.CannyLow {
		c.Preprocess.CannyLow, c.Preprocess.CannyHigh = c.Preprocess.CannyHigh, c.Preprocess.CannyLow
	}
	if c.Reticle.ActivationThreshold <= 0 || c.Reticle.ActivationThreshold > 1 {
		c.Reticle.ActivationThreshold = def.Reticle.ActivationThreshold
	}
	if c.Timing.DisabledMs <= 0 {
		c.Timing.DisabledMs = def.Timing.DisabledMs
	}
	if c.Timing.EnabledMs <= 0 {
		c.Timing.EnabledMs = def.Timing.EnabledMs
	}
	if c.Timing.ActiveMs <= 0 {
		c.Timing.ActiveMs = def.Timing.ActiveMs
	}
	if c.Timing.TriggerCooldownMs < 0 {
		c.Timing.TriggerCooldownMs = 0
	}
	scales := c.Templates.PuzzleScales[:0]
	for _, f := range c.Templates.PuzzleScales {
		if f > 0 {
			scales = append(scales, f)
		}
	}
	c.Templates.PuzzleScales = scales
	// Enabled scanning must never poll faster than active tracking.
	if c.Timing.ActiveMs > c.Timing.EnabledMs {
		c.Timing.ActiveMs = c.Timing.EnabledMs
	}
	return nil
}

// Durations derived from TimingConfig.
func (t TimingConfig) Disabled() time.Duration { return ms(t.DisabledMs) }
func (t TimingConfig) Enabled() time.Duration  { return ms(t.EnabledMs) }
func (t TimingConfig) Active() time.Duration   { return ms(t.ActiveMs) }
func (t TimingConfig) TriggerCooldown() time.Duration {
	return ms(t.TriggerCooldownMs)
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// Load attempts to read configuration from the given path. Files ending in
// .toml are decoded as TOML, anything else as YAML (which also accepts JSON).
// If the file does not exist it returns DefaultConfig(). On decode error it
// returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	loaded := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, loaded)
	} else {
		err = yaml.Unmarshal(data, loaded)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := loaded.Validate(); err != nil {
		return cfg, err
	}
	return loaded, nil
}

// Save writes the configuration to path, choosing the format by extension.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	data, err := c.Marshal(isTOML(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal encodes the configuration as TOML or YAML.
func (c *Config) Marshal(asTOML bool) ([]byte, error) {
	if asTOML {
		return toml.Marshal(c)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("config: yaml encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
