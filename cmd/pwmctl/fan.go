package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sysfs-pwm/internal/fancontrol"
	"sysfs-pwm/internal/pwm"
)

func newFanCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fan",
		Short: "Run the temperature-driven fan controller from the config",
		Long: `Export the channel named by fan.channel, apply its preset and drive its
duty cycle from the temperature in fan.temp_path until interrupted. The
channel is disabled and unexported on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.configPath == "" {
				return fmt.Errorf("fan needs --config")
			}
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			fc := e.cfg.Fan
			if !fc.Enable {
				return fmt.Errorf("fan.enable is false in %s", g.configPath)
			}
			preset, _ := e.cfg.Channel(fc.Channel)
			ch := pwm.New(preset.Chip, preset.Channel, e.opts...)

			return ch.WithExported(func() error {
				if err := ch.Apply(preset.Settings()); err != nil {
					return err
				}
				svc := fancontrol.New(fancontrol.Config{
					TempTargetC:    fc.TempTargetC,
					DutyMin:        fc.DutyMin,
					UpdateInterval: fc.UpdateInterval,
					ReadTemp:       fancontrol.TempReader(fc.TempPath),
				}, ch, e.log)

				ctx := cmd.Context()
				if err := svc.Start(ctx); err != nil {
					return err
				}
				e.log.Info("fan control running",
					zap.Stringer("channel", ch),
					zap.Float64("target_c", fc.TempTargetC),
					zap.Duration("interval", fc.UpdateInterval))
				<-ctx.Done()
				e.log.Info("fan control stopping")
				return svc.Close()
			})
		},
	}
}
