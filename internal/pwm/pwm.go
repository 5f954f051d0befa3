// Package pwm controls PWM channels exported through the Linux sysfs PWM
// interface (/sys/class/pwm).
//
// A Channel is plain data: a chip number and a channel number. Whether the
// channel is exported is kernel state and is re-read from the filesystem on
// every call; nothing here caches it.
//
// Layout under the root:
//
//	pwmchipN/export       write M to export pwmM
//	pwmchipN/unexport     write M to unexport pwmM
//	pwmchipN/npwm         number of channels on the chip
//	pwmchipN/pwmM/enable      "1" or "0"
//	pwmchipN/pwmM/period      nanoseconds
//	pwmchipN/pwmM/duty_cycle  nanoseconds
//	pwmchipN/pwmM/polarity    "normal" or "inversed"
package pwm

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultRoot is where the kernel exposes PWM chips.
	DefaultRoot = "/sys/class/pwm"

	// DefaultExportAttempts and DefaultExportInterval bound the wait for
	// the kernel to create a channel's attribute files after export.
	DefaultExportAttempts = 50
	DefaultExportInterval = 10 * time.Millisecond
)

// Attribute file names.
const (
	attrEnable    = "enable"
	attrPeriod    = "period"
	attrDutyCycle = "duty_cycle"
	attrPolarity  = "polarity"
	attrCapture   = "capture"
	attrNPWM      = "npwm"
	attrExport    = "export"
	attrUnexport  = "unexport"

	// readySentinel is the attribute whose presence marks a channel as
	// usable after export.
	readySentinel = attrEnable
)

// Polarity selects whether the active part of the period is driven high or low.
type Polarity string

const (
	PolarityNormal   Polarity = "normal"
	PolarityInversed Polarity = "inversed"
)

// ParsePolarity accepts exactly the strings the kernel uses.
func ParsePolarity(s string) (Polarity, error) {
	switch Polarity(s) {
	case PolarityNormal, PolarityInversed:
		return Polarity(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolarity, s)
}

type options struct {
	root     string
	fs       FS
	attempts int
	interval time.Duration
	log      *zap.Logger
	sleep    func(time.Duration)
}

// Option customizes a Chip or Channel.
type Option func(*options)

// WithRoot replaces DefaultRoot, e.g. for a test fixture tree.
func WithRoot(root string) Option {
	return func(o *options) { o.root = root }
}

// WithFS replaces the OS-backed file access.
func WithFS(fsys FS) Option {
	return func(o *options) { o.fs = fsys }
}

// WithExportPoll sets the readiness poll budget used by Export.
// Non-positive values keep the defaults.
func WithExportPoll(attempts int, interval time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.attempts = attempts
		}
		if interval > 0 {
			o.interval = interval
		}
	}
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		root:     DefaultRoot,
		fs:       OSFS{},
		attempts: DefaultExportAttempts,
		interval: DefaultExportInterval,
		log:      zap.NewNop(),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
