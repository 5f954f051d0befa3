package pwm

import (
	"errors"
	"fmt"
	"io/fs"
	"math"

	"go.uber.org/zap"
)

// Channel identifies pwmM on pwmchipN. Creating one does no I/O and the
// handle never needs to be released; the kernel resource it names is
// released with Unexport.
//
// Multiple handles for the same channel are independent. Callers that
// share a channel across goroutines coordinate themselves.
type Channel struct {
	chip   uint32
	number uint32
	o      options
}

// New returns a handle for channel on chip.
func New(chip, channel uint32, opts ...Option) *Channel {
	return &Channel{chip: chip, number: channel, o: buildOptions(opts)}
}

func (c *Channel) Chip() uint32   { return c.chip }
func (c *Channel) Number() uint32 { return c.number }

// Path is the channel's attribute directory, present only while exported.
func (c *Channel) Path() string { return channelPath(c.o.root, c.chip, c.number) }

func (c *Channel) String() string { return fmt.Sprintf("pwmchip%d/pwm%d", c.chip, c.number) }

func (c *Channel) attrs() attrIO { return attrIO{fs: c.o.fs, dir: c.Path()} }

// Export makes the channel available, waiting for the kernel to create its
// attribute files. Exporting an exported channel is a no-op.
func (c *Channel) Export() error { return export(c.o, c.chip, c.number) }

// Unexport releases the channel. Unexporting a channel that is not exported
// fails with an *IOError the caller may ignore.
func (c *Channel) Unexport() error { return unexport(c.o, c.chip, c.number) }

// IsExported reports whether the channel directory currently exists.
func (c *Channel) IsExported() (bool, error) {
	p := c.Path()
	_, err := c.o.fs.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, &IOError{Op: "stat", Path: p, Err: err}
}

// WithExported exports the channel, runs work and then unexports it, also
// when work fails or panics. An error from work is returned in preference
// to an unexport error, which is then only logged.
func (c *Channel) WithExported(work func() error) (err error) {
	if err := c.Export(); err != nil {
		return err
	}
	defer func() {
		uerr := c.Unexport()
		if uerr == nil {
			return
		}
		if err != nil {
			c.o.log.Warn("pwm unexport failed after work error",
				zap.Stringer("channel", c),
				zap.NamedError("unexport_error", uerr),
				zap.Error(err))
			return
		}
		err = uerr
	}()
	return work()
}

// ReadAttr returns the trimmed contents of an attribute file.
func (c *Channel) ReadAttr(name string) (string, error) { return c.attrs().read(name) }

// WriteAttr replaces the contents of an attribute file.
func (c *Channel) WriteAttr(name, value string) error { return c.attrs().write(name, value) }

func (c *Channel) Enabled() (bool, error) { return c.attrs().readBool(attrEnable) }

func (c *Channel) SetEnabled(on bool) error { return c.attrs().writeBool(attrEnable, on) }

func (c *Channel) Enable() error { return c.SetEnabled(true) }

func (c *Channel) Disable() error { return c.SetEnabled(false) }

// PeriodNS returns the period in nanoseconds.
func (c *Channel) PeriodNS() (uint64, error) { return c.attrs().readUint(attrPeriod) }

// SetPeriodNS sets the period. The kernel rejects a period shorter than the
// current duty cycle.
func (c *Channel) SetPeriodNS(ns uint64) error { return c.attrs().writeUint(attrPeriod, ns) }

// DutyCycleNS returns the active time in nanoseconds.
func (c *Channel) DutyCycleNS() (uint64, error) { return c.attrs().readUint(attrDutyCycle) }

// SetDutyCycleNS sets the active time. It must not exceed the period; the
// kernel enforces that.
func (c *Channel) SetDutyCycleNS(ns uint64) error { return c.attrs().writeUint(attrDutyCycle, ns) }

// DutyCycle returns duty_cycle/period in [0, 1].
func (c *Channel) DutyCycle() (float64, error) {
	a := c.attrs()
	duty, err := a.readUint(attrDutyCycle)
	if err != nil {
		return 0, err
	}
	period, err := a.readUint(attrPeriod)
	if err != nil {
		return 0, err
	}
	if period == 0 {
		return 0, ErrZeroPeriod
	}
	if duty > period {
		return 0, &ParseError{
			Path:  a.path(attrDutyCycle),
			Value: fmt.Sprint(duty),
			Want:  fmt.Sprintf("at most the period (%d)", period),
		}
	}
	return float64(duty) / float64(period), nil
}

// SetDutyCycle sets the duty cycle to round(f * period). f must be in
// [0, 1]; nothing is written otherwise.
func (c *Channel) SetDutyCycle(f float64) error {
	if math.IsNaN(f) || f < 0 || f > 1 {
		return fmt.Errorf("%w: %v", ErrDutyCycleRange, f)
	}
	a := c.attrs()
	period, err := a.readUint(attrPeriod)
	if err != nil {
		return err
	}
	if period == 0 {
		return ErrZeroPeriod
	}
	// float64(period) can round above MaxUint64; convert only below it.
	duty := period
	if x := math.Round(f * float64(period)); x < float64(period) {
		duty = uint64(x)
	}
	return a.writeUint(attrDutyCycle, duty)
}

func (c *Channel) Polarity() (Polarity, error) { return c.attrs().readPolarity(attrPolarity) }

// SetPolarity writes p. Most drivers only accept a polarity change while
// the channel is disabled.
func (c *Channel) SetPolarity(p Polarity) error {
	if _, err := ParsePolarity(string(p)); err != nil {
		return err
	}
	return c.attrs().write(attrPolarity, string(p))
}

// Capture reads the capture attribute: the measured period and duty cycle
// of an input signal, in nanoseconds. Only capture-capable drivers have it.
func (c *Channel) Capture() (period, duty uint64, err error) {
	return c.attrs().readUintPair(attrCapture)
}
