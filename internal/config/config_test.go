package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sysfs-pwm/internal/fancontrol"
	"sysfs-pwm/internal/pwm"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_EmptyFileGetsDefaults(t *testing.T) {
	path := writeTempConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Sysfs.Root != pwm.DefaultRoot {
		t.Fatalf("root=%q want %q", cfg.Sysfs.Root, pwm.DefaultRoot)
	}
	if cfg.Sysfs.ExportAttempts != pwm.DefaultExportAttempts {
		t.Fatalf("attempts=%d want %d", cfg.Sysfs.ExportAttempts, pwm.DefaultExportAttempts)
	}
	if cfg.Sysfs.ExportInterval != pwm.DefaultExportInterval {
		t.Fatalf("interval=%s want %s", cfg.Sysfs.ExportInterval, pwm.DefaultExportInterval)
	}
	if cfg.Fan.TempPath != fancontrol.DefaultTempPath {
		t.Fatalf("temp_path=%q want %q", cfg.Fan.TempPath, fancontrol.DefaultTempPath)
	}
	if cfg.Fan.UpdateInterval != 5*time.Second || cfg.Fan.TempTargetC != 50 {
		t.Fatalf("expected fan defaults applied: %+v", cfg.Fan)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTempConfig(t, `
sysfs:
  root: /tmp/pwm
  export_attempts: 10
  export_interval: 25ms
log:
  level: debug
channels:
  - name: fan
    chip: 0
    channel: 1
    period_ns: 40000
    duty_cycle: 0.5
    polarity: inversed
    enable: true
  - name: led
    chip: 1
    channel: 0
    duty_cycle_ns: 100
fan:
  enable: true
  channel: fan
  duty_min: 0.2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Sysfs.ExportAttempts != 10 || cfg.Sysfs.ExportInterval != 25*time.Millisecond {
		t.Fatalf("sysfs=%+v", cfg.Sysfs)
	}
	fan, ok := cfg.Channel("fan")
	if !ok {
		t.Fatalf("fan preset missing")
	}
	if fan.Channel != 1 || *fan.PeriodNS != 40000 || *fan.DutyCycle != 0.5 || fan.Polarity != "inversed" || !*fan.Enable {
		t.Fatalf("fan=%+v", fan)
	}
	led, _ := cfg.Channel("led")
	if led.PeriodNS != nil || led.Enable != nil || *led.DutyCycleNS != 100 {
		t.Fatalf("led=%+v", led)
	}
	if _, ok := cfg.Channel("nope"); ok {
		t.Fatalf("unexpected preset")
	}
	if len(cfg.PWMOptions()) != 2 {
		t.Fatalf("expected root and poll options")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "NegativeAttempts",
			body: "sysfs:\n  export_attempts: -1\n",
			want: "sysfs.export_attempts must be > 0",
		},
		{
			name: "BadLogLevel",
			body: "log:\n  level: loud\n",
			want: "log.level must be one of debug, info, warn, error",
		},
		{
			name: "NameRequired",
			body: "channels:\n  - chip: 0\n",
			want: "channels[0].name is required",
		},
		{
			name: "DuplicateName",
			body: "channels:\n  - name: a\n  - name: a\n",
			want: `channels[1].name "a" is duplicated`,
		},
		{
			name: "DutyBothForms",
			body: "channels:\n  - name: a\n    duty_cycle: 0.5\n    duty_cycle_ns: 10\n",
			want: "channels[0].duty_cycle and duty_cycle_ns cannot both be set",
		},
		{
			name: "DutyFractionRange",
			body: "channels:\n  - name: a\n    duty_cycle: 1.5\n",
			want: "channels[0].duty_cycle must be within [0, 1]",
		},
		{
			name: "DutyFractionNaN",
			body: "channels:\n  - name: a\n    duty_cycle: .nan\n",
			want: "channels[0].duty_cycle must be within [0, 1]",
		},
		{
			name: "DutyExceedsPeriod",
			body: "channels:\n  - name: a\n    period_ns: 10\n    duty_cycle_ns: 11\n",
			want: "channels[0].duty_cycle_ns must not exceed period_ns",
		},
		{
			name: "Polarity",
			body: "channels:\n  - name: a\n    polarity: inverse\n",
			want: "channels[0].polarity must be 'normal' or 'inversed'",
		},
		{
			name: "FanRequiresChannel",
			body: "fan:\n  enable: true\n",
			want: "fan.channel is required when fan.enable is true",
		},
		{
			name: "FanUnknownChannel",
			body: "fan:\n  enable: true\n  channel: cpu\n",
			want: `fan.channel "cpu" does not name an entry in channels`,
		},
		{
			name: "FanDutyMin",
			body: "fan:\n  duty_min: 2\n",
			want: "fan.duty_min must be within [0, 1]",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempConfig(t, tc.body)
			_, err := Load(path)
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeTempConfig(t, "sysfs:\n  base: /tmp\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "field base not found") {
		t.Fatalf("err=%v want unknown field error", err)
	}
}

func TestChannelConfig_Settings(t *testing.T) {
	cfg, err := Parse([]byte("channels:\n  - name: a\n    period_ns: 100\n    polarity: normal\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := cfg.Channels[0].Settings()
	if s.PeriodNS == nil || *s.PeriodNS != 100 || s.Polarity != pwm.PolarityNormal {
		t.Fatalf("settings=%+v", s)
	}
	if s.DutyCycle != nil || s.DutyCycleNS != nil || s.Enable != nil {
		t.Fatalf("unset fields must stay nil: %+v", s)
	}
}
