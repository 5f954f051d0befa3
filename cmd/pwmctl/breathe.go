package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sysfs-pwm/internal/pwm"
)

func newBreatheCmd(g *globalFlags) *cobra.Command {
	var (
		chip, channel uint32
		periodNS      uint64
		ramp          time.Duration
		step          time.Duration
		cycles        int
	)
	cmd := &cobra.Command{
		Use:   "breathe",
		Short: "Fade a channel up and down, e.g. to make an LED breathe",
		Long: `Export the channel, ramp its duty cycle from 0 to 1 and back until
interrupted (or for --cycles rounds), then disable and unexport it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if step <= 0 || ramp < step {
				return fmt.Errorf("--step must be > 0 and not longer than --ramp")
			}
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			ch := pwm.New(chip, channel, e.opts...)
			steps := int(ramp / step)

			e.log.Info("breathing", zap.Stringer("channel", ch), zap.Duration("ramp", ramp), zap.Int("steps", steps))
			return ch.WithExported(func() error {
				zero, on := 0.0, true
				if err := ch.Apply(pwm.Settings{PeriodNS: &periodNS, DutyCycle: &zero, Enable: &on}); err != nil {
					return err
				}
				if err := breathe(cmd.Context(), ch, steps, step, cycles); err != nil {
					_ = ch.Disable()
					return err
				}
				return ch.Disable()
			})
		},
	}
	addChannelFlags(cmd, &chip, &channel)
	f := cmd.Flags()
	f.Uint64Var(&periodNS, "period-ns", 20_000, "Period in nanoseconds")
	f.DurationVar(&ramp, "ramp", time.Second, "Duration of one fade up (and of one fade down)")
	f.DurationVar(&step, "step", 20*time.Millisecond, "Delay between duty cycle updates")
	f.IntVar(&cycles, "cycles", 0, "Number of up/down rounds; 0 runs until interrupted")
	return cmd
}

type dutySetter interface {
	SetDutyCycle(f float64) error
}

// breathe ramps duty 0 -> 1 -> 0 in steps increments per direction. It
// returns nil when ctx is done.
func breathe(ctx context.Context, out dutySetter, steps int, delay time.Duration, cycles int) error {
	if steps < 1 {
		steps = 1
	}
	set := func(i int) (bool, error) {
		if err := out.SetDutyCycle(float64(i) / float64(steps)); err != nil {
			return false, err
		}
		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(delay):
			return true, nil
		}
	}

	for n := 0; cycles == 0 || n < cycles; n++ {
		for i := 0; i <= steps; i++ {
			if ok, err := set(i); !ok {
				return err
			}
		}
		for i := steps - 1; i >= 0; i-- {
			if ok, err := set(i); !ok {
				return err
			}
		}
	}
	return nil
}
