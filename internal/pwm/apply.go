package pwm

import "fmt"

// Settings is a partial channel configuration; nil fields are left alone.
type Settings struct {
	PeriodNS    *uint64
	DutyCycle   *float64
	DutyCycleNS *uint64
	Polarity    Polarity
	Enable      *bool
}

// Apply writes s in an order the kernel accepts: disable first, polarity
// while disabled, never a period below the current duty cycle, enable last.
// It stops at the first failing write.
func (c *Channel) Apply(s Settings) error {
	if s.DutyCycle != nil && s.DutyCycleNS != nil {
		return fmt.Errorf("pwm: %s: duty cycle given both as fraction and nanoseconds", c)
	}
	if s.DutyCycle != nil && !(*s.DutyCycle >= 0 && *s.DutyCycle <= 1) {
		return fmt.Errorf("%w: %v", ErrDutyCycleRange, *s.DutyCycle)
	}
	if s.PeriodNS != nil && s.DutyCycleNS != nil && *s.DutyCycleNS > *s.PeriodNS {
		return fmt.Errorf("pwm: %s: duty cycle %d ns exceeds period %d ns", c, *s.DutyCycleNS, *s.PeriodNS)
	}
	if s.Polarity != "" {
		if _, err := ParsePolarity(string(s.Polarity)); err != nil {
			return err
		}
	}

	if s.Enable != nil && !*s.Enable {
		if err := c.Disable(); err != nil {
			return err
		}
	}
	if s.Polarity != "" {
		if err := c.SetPolarity(s.Polarity); err != nil {
			return err
		}
	}
	if s.PeriodNS != nil {
		cur, err := c.DutyCycleNS()
		if err != nil {
			return err
		}
		if cur > *s.PeriodNS {
			shrink := uint64(0)
			if s.DutyCycleNS != nil && *s.DutyCycleNS <= *s.PeriodNS {
				shrink = *s.DutyCycleNS
			}
			if err := c.SetDutyCycleNS(shrink); err != nil {
				return err
			}
		}
		if err := c.SetPeriodNS(*s.PeriodNS); err != nil {
			return err
		}
	}
	switch {
	case s.DutyCycleNS != nil:
		if err := c.SetDutyCycleNS(*s.DutyCycleNS); err != nil {
			return err
		}
	case s.DutyCycle != nil:
		if err := c.SetDutyCycle(*s.DutyCycle); err != nil {
			return err
		}
	}
	if s.Enable != nil && *s.Enable {
		return c.Enable()
	}
	return nil
}
