//go:build unix

package pwm

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isBusy reports whether the kernel rejected a write with EBUSY, which is
// what the PWM core returns for an export of an already requested channel.
func isBusy(err error) bool {
	return errors.Is(err, unix.EBUSY)
}
