package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sysfs-pwm/internal/pwm"
)

func newInfoCmd(g *globalFlags) *cobra.Command {
	var chip uint32
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show a chip's channel count and which channels are exported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			c, err := pwm.OpenChip(chip, e.opts...)
			if err != nil {
				return err
			}
			n, err := c.Count()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "pwmchip%d: %d channel(s)\n", chip, n)
			for i := uint32(0); i < n; i++ {
				exported, err := c.Channel(i).IsExported()
				if err != nil {
					return err
				}
				state := "unexported"
				if exported {
					state = "exported"
				}
				fmt.Fprintf(w, "  pwm%d: %s\n", i, state)
			}
			return nil
		},
	}
	cmd.Flags().Uint32Var(&chip, "chip", 0, "PWM chip number (pwmchipN)")
	return cmd
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var chip, channel uint32
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a channel and wait until it is ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			ch := pwm.New(chip, channel, e.opts...)
			if err := ch.Export(); err != nil {
				return err
			}
			e.log.Info("exported", zap.Stringer("channel", ch))
			return nil
		},
	}
	addChannelFlags(cmd, &chip, &channel)
	return cmd
}

func newUnexportCmd(g *globalFlags) *cobra.Command {
	var chip, channel uint32
	var ignoreMissing bool
	cmd := &cobra.Command{
		Use:   "unexport",
		Short: "Release an exported channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			ch := pwm.New(chip, channel, e.opts...)
			if err := ch.Unexport(); err != nil {
				var ioe *pwm.IOError
				if ignoreMissing && errors.As(err, &ioe) {
					e.log.Debug("unexport failed, ignoring", zap.Error(err))
					return nil
				}
				return err
			}
			e.log.Info("unexported", zap.Stringer("channel", ch))
			return nil
		},
	}
	addChannelFlags(cmd, &chip, &channel)
	cmd.Flags().BoolVar(&ignoreMissing, "ignore-errors", false, "Succeed even if the kernel rejects the unexport")
	return cmd
}

func newGetCmd(g *globalFlags) *cobra.Command {
	var chip, channel uint32
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a channel's current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			return printChannel(cmd.OutOrStdout(), pwm.New(chip, channel, e.opts...))
		},
	}
	addChannelFlags(cmd, &chip, &channel)
	return cmd
}

func printChannel(w io.Writer, ch *pwm.Channel) error {
	on, err := ch.Enabled()
	if err != nil {
		return err
	}
	period, err := ch.PeriodNS()
	if err != nil {
		return err
	}
	duty, err := ch.DutyCycleNS()
	if err != nil {
		return err
	}
	pol, err := ch.Polarity()
	if err != nil {
		return err
	}

	enabled := "0"
	if on {
		enabled = "1"
	}
	fmt.Fprintf(w, "%s\n", ch)
	fmt.Fprintf(w, "  enable:     %s\n", enabled)
	fmt.Fprintf(w, "  period:     %d ns\n", period)
	if period > 0 {
		fmt.Fprintf(w, "  duty_cycle: %d ns (%.2f%%)\n", duty, 100*float64(duty)/float64(period))
	} else {
		fmt.Fprintf(w, "  duty_cycle: %d ns\n", duty)
	}
	fmt.Fprintf(w, "  polarity:   %s\n", pol)
	return nil
}

func newSetCmd(g *globalFlags) *cobra.Command {
	var (
		chip, channel   uint32
		periodNS        uint64
		dutyNS          uint64
		duty            float64
		polarity        string
		enable, disable bool
		export          bool
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change period, duty cycle, polarity or enable state",
		Long: `Change a channel's settings. Only the given flags are written.

Writes are ordered so the kernel accepts them: the channel is disabled first
when --disable is given, the duty cycle is lowered before a shorter period is
set, and --enable is applied last.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable && disable {
				return fmt.Errorf("--enable and --disable are mutually exclusive")
			}
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}

			var s pwm.Settings
			flags := cmd.Flags()
			if flags.Changed("period-ns") {
				s.PeriodNS = &periodNS
			}
			if flags.Changed("duty-ns") {
				s.DutyCycleNS = &dutyNS
			}
			if flags.Changed("duty") {
				s.DutyCycle = &duty
			}
			if polarity != "" {
				s.Polarity = pwm.Polarity(polarity)
			}
			if enable || disable {
				on := enable
				s.Enable = &on
			}

			ch := pwm.New(chip, channel, e.opts...)
			if export {
				if err := ch.Export(); err != nil {
					return err
				}
			}
			if err := ch.Apply(s); err != nil {
				return err
			}
			e.log.Info("channel updated", zap.Stringer("channel", ch))
			return nil
		},
	}
	addChannelFlags(cmd, &chip, &channel)
	f := cmd.Flags()
	f.Uint64Var(&periodNS, "period-ns", 0, "Period in nanoseconds")
	f.Uint64Var(&dutyNS, "duty-ns", 0, "Duty cycle in nanoseconds")
	f.Float64Var(&duty, "duty", 0, "Duty cycle as a fraction of the period (0..1)")
	f.StringVar(&polarity, "polarity", "", "Polarity: normal or inversed")
	f.BoolVar(&enable, "enable", false, "Enable the output")
	f.BoolVar(&disable, "disable", false, "Disable the output")
	f.BoolVar(&export, "export", false, "Export the channel first if needed")
	cmd.MarkFlagsMutuallyExclusive("duty", "duty-ns")
	return cmd
}
