package pwm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyExported is returned when the kernel refuses an export
	// because the channel is busy and its directory is still absent.
	ErrAlreadyExported = errors.New("pwm: channel already exported")
	// ErrExportTimeout matches any *ExportTimeoutError.
	ErrExportTimeout = errors.New("pwm: export timed out")
	// ErrDutyCycleRange is returned for fractions outside [0, 1].
	ErrDutyCycleRange = errors.New("pwm: duty cycle fraction out of range [0, 1]")
	// ErrZeroPeriod is returned when a fraction is requested against a zero period.
	ErrZeroPeriod      = errors.New("pwm: period is zero")
	ErrInvalidPolarity = errors.New("pwm: invalid polarity")
)

// IOError is a failed read or write of a control file.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("pwm: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports control file contents that do not match the
// attribute's expected format.
type ParseError struct {
	Path  string
	Value string
	Want  string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pwm: parse %s: %q is not %s: %v", e.Path, e.Value, e.Want, e.Err)
	}
	return fmt.Sprintf("pwm: parse %s: %q is not %s", e.Path, e.Value, e.Want)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExportTimeoutError means the export write succeeded but the channel's
// attribute files did not show up within the poll budget.
type ExportTimeoutError struct {
	Chip     uint32
	Channel  uint32
	Attempts int
	Interval time.Duration
	// Err is the last readiness check failure. It is reported in the
	// message but not unwrapped, so a timeout never matches fs.ErrNotExist.
	Err error
}

func (e *ExportTimeoutError) Error() string {
	return fmt.Sprintf("pwm: pwmchip%d/pwm%d not ready after %d checks %s apart: %v",
		e.Chip, e.Channel, e.Attempts, e.Interval, e.Err)
}

func (e *ExportTimeoutError) Is(target error) bool { return target == ErrExportTimeout }
