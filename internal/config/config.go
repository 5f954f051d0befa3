package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sysfs-pwm/internal/fancontrol"
	"sysfs-pwm/internal/pwm"
)

type Config struct {
	Sysfs    SysfsConfig     `yaml:"sysfs"`
	Log      LogConfig       `yaml:"log"`
	Channels []ChannelConfig `yaml:"channels"`
	Fan      FanConfig       `yaml:"fan"`
}

type SysfsConfig struct {
	Root           string        `yaml:"root"`
	ExportAttempts int           `yaml:"export_attempts"`
	ExportInterval time.Duration `yaml:"export_interval"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error. Empty means silent.
	Level string `yaml:"level"`
}

// ChannelConfig is a named channel preset. Unset fields are left as the
// kernel has them.
type ChannelConfig struct {
	Name    string `yaml:"name"`
	Chip    uint32 `yaml:"chip"`
	Channel uint32 `yaml:"channel"`

	PeriodNS    *uint64  `yaml:"period_ns"`
	DutyCycle   *float64 `yaml:"duty_cycle"`
	DutyCycleNS *uint64  `yaml:"duty_cycle_ns"`
	Polarity    string   `yaml:"polarity"`
	Enable      *bool    `yaml:"enable"`
}

type FanConfig struct {
	Enable bool `yaml:"enable"`
	// Channel names an entry in channels.
	Channel        string        `yaml:"channel"`
	TempPath       string        `yaml:"temp_path"`
	TempTargetC    float64       `yaml:"temp_target_c"`
	DutyMin        float64       `yaml:"duty_min"`
	UpdateInterval time.Duration `yaml:"update_interval"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes and validates a YAML config, filling in defaults.
func Parse(b []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if cfg.Sysfs.Root == "" {
		cfg.Sysfs.Root = pwm.DefaultRoot
	}
	if cfg.Sysfs.ExportAttempts == 0 {
		cfg.Sysfs.ExportAttempts = pwm.DefaultExportAttempts
	}
	if cfg.Sysfs.ExportAttempts < 0 {
		return Config{}, fmt.Errorf("sysfs.export_attempts must be > 0")
	}
	if cfg.Sysfs.ExportInterval == 0 {
		cfg.Sysfs.ExportInterval = pwm.DefaultExportInterval
	}
	if cfg.Sysfs.ExportInterval < 0 {
		return Config{}, fmt.Errorf("sysfs.export_interval must be > 0")
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	seen := make(map[string]bool, len(cfg.Channels))
	for i := range cfg.Channels {
		ch := &cfg.Channels[i]
		if ch.Name == "" {
			return Config{}, fmt.Errorf("channels[%d].name is required", i)
		}
		if seen[ch.Name] {
			return Config{}, fmt.Errorf("channels[%d].name %q is duplicated", i, ch.Name)
		}
		seen[ch.Name] = true

		if ch.DutyCycle != nil && ch.DutyCycleNS != nil {
			return Config{}, fmt.Errorf("channels[%d].duty_cycle and duty_cycle_ns cannot both be set", i)
		}
		if ch.DutyCycle != nil && !(*ch.DutyCycle >= 0 && *ch.DutyCycle <= 1) {
			return Config{}, fmt.Errorf("channels[%d].duty_cycle must be within [0, 1]", i)
		}
		if ch.PeriodNS != nil && ch.DutyCycleNS != nil && *ch.DutyCycleNS > *ch.PeriodNS {
			return Config{}, fmt.Errorf("channels[%d].duty_cycle_ns must not exceed period_ns", i)
		}
		if ch.Polarity != "" {
			if _, err := pwm.ParsePolarity(ch.Polarity); err != nil {
				return Config{}, fmt.Errorf("channels[%d].polarity must be 'normal' or 'inversed'", i)
			}
		}
	}

	if cfg.Fan.TempPath == "" {
		cfg.Fan.TempPath = fancontrol.DefaultTempPath
	}
	if cfg.Fan.TempTargetC == 0 {
		cfg.Fan.TempTargetC = 50.0
	}
	if cfg.Fan.UpdateInterval <= 0 {
		cfg.Fan.UpdateInterval = 5 * time.Second
	}
	if !(cfg.Fan.DutyMin >= 0 && cfg.Fan.DutyMin <= 1) {
		return Config{}, fmt.Errorf("fan.duty_min must be within [0, 1]")
	}
	if cfg.Fan.Enable {
		if cfg.Fan.Channel == "" {
			return Config{}, fmt.Errorf("fan.channel is required when fan.enable is true")
		}
		if !seen[cfg.Fan.Channel] {
			return Config{}, fmt.Errorf("fan.channel %q does not name an entry in channels", cfg.Fan.Channel)
		}
	}

	return cfg, nil
}

// Channel returns the preset with the given name.
func (c Config) Channel(name string) (ChannelConfig, bool) {
	for _, ch := range c.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return ChannelConfig{}, false
}

// PWMOptions turns the sysfs section into options for the pwm package.
func (c Config) PWMOptions() []pwm.Option {
	return []pwm.Option{
		pwm.WithRoot(c.Sysfs.Root),
		pwm.WithExportPoll(c.Sysfs.ExportAttempts, c.Sysfs.ExportInterval),
	}
}

// Settings converts the preset into a partial channel configuration.
func (c ChannelConfig) Settings() pwm.Settings {
	return pwm.Settings{
		PeriodNS:    c.PeriodNS,
		DutyCycle:   c.DutyCycle,
		DutyCycleNS: c.DutyCycleNS,
		Polarity:    pwm.Polarity(c.Polarity),
		Enable:      c.Enable,
	}
}
