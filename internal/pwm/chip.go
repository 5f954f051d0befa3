package pwm

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
)

// Chip is a PWM controller, pwmchipN under the root.
type Chip struct {
	number uint32
	o      options
}

// OpenChip returns the chip after checking that its directory exists.
func OpenChip(number uint32, opts ...Option) (*Chip, error) {
	c := &Chip{number: number, o: buildOptions(opts)}
	p := c.Path()
	if _, err := c.o.fs.Stat(p); err != nil {
		return nil, &IOError{Op: "stat", Path: p, Err: err}
	}
	return c, nil
}

func (c *Chip) Number() uint32 { return c.number }

// Path is the chip's directory.
func (c *Chip) Path() string { return chipPath(c.o.root, c.number) }

// Count reads npwm, the number of channels the chip provides.
func (c *Chip) Count() (uint32, error) {
	a := attrIO{fs: c.o.fs, dir: c.Path()}
	n, err := a.readUint(attrNPWM)
	if err != nil {
		return 0, err
	}
	if n > uint64(^uint32(0)) {
		return 0, &ParseError{Path: a.path(attrNPWM), Value: strconv.FormatUint(n, 10), Want: "a 32-bit channel count"}
	}
	return uint32(n), nil
}

// Channel returns a handle for channel n of this chip sharing the chip's options.
func (c *Chip) Channel(n uint32) *Channel {
	return &Channel{chip: c.number, number: n, o: c.o}
}

func (c *Chip) Export(channel uint32) error { return c.Channel(channel).Export() }

func (c *Chip) Unexport(channel uint32) error { return c.Channel(channel).Unexport() }

func chipPath(root string, chip uint32) string {
	return filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
}

func channelPath(root string, chip, channel uint32) string {
	return filepath.Join(chipPath(root, chip), fmt.Sprintf("pwm%d", channel))
}

// export asks the kernel for the channel and waits until its attribute
// files exist.
func export(o options, chip, channel uint32) error {
	dir := channelPath(o.root, chip, channel)
	log := o.log.With(zap.Uint32("chip", chip), zap.Uint32("channel", channel))

	if _, err := o.fs.Stat(dir); err == nil {
		log.Debug("pwm channel already exported")
		return nil
	}

	ctl := attrIO{fs: o.fs, dir: chipPath(o.root, chip)}
	if err := ctl.write(attrExport, strconv.FormatUint(uint64(channel), 10)); err != nil {
		if !isBusy(err) {
			return err
		}
		// Someone else exported it between our stat and write.
		if _, statErr := o.fs.Stat(dir); statErr == nil {
			log.Debug("pwm export raced with another exporter")
			return nil
		}
		return fmt.Errorf("%w: %w", ErrAlreadyExported, err)
	}
	log.Debug("pwm export requested")

	sentinel := filepath.Join(dir, readySentinel)
	var lastErr error
	for i := 0; i < o.attempts; i++ {
		if i > 0 {
			o.sleep(o.interval)
		}
		_, lastErr = o.fs.Stat(sentinel)
		if lastErr == nil {
			log.Debug("pwm channel ready", zap.Int("checks", i+1))
			return nil
		}
		if !errors.Is(lastErr, fs.ErrNotExist) {
			log.Debug("pwm readiness check failed", zap.Int("check", i+1), zap.Error(lastErr))
		}
	}
	return &ExportTimeoutError{
		Chip:     chip,
		Channel:  channel,
		Attempts: o.attempts,
		Interval: o.interval,
		Err:      lastErr,
	}
}

func unexport(o options, chip, channel uint32) error {
	ctl := attrIO{fs: o.fs, dir: chipPath(o.root, chip)}
	if err := ctl.write(attrUnexport, strconv.FormatUint(uint64(channel), 10)); err != nil {
		return err
	}
	o.log.Debug("pwm unexported", zap.Uint32("chip", chip), zap.Uint32("channel", channel))
	return nil
}
