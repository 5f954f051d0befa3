package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sysfs-pwm/internal/config"
	"sysfs-pwm/internal/pwm"
)

func newApplyCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "apply [preset...]",
		Short: "Export channels and apply presets from the config",
		Long: `Export and configure the channels listed under "channels" in the config.
With no arguments every preset is applied; otherwise only the named ones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.configPath == "" {
				return fmt.Errorf("apply needs --config")
			}
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			presets, err := selectPresets(e.cfg, args)
			if err != nil {
				return err
			}
			for _, p := range presets {
				if err := applyPreset(e, p); err != nil {
					return fmt.Errorf("preset %q: %w", p.Name, err)
				}
			}
			return nil
		},
	}
}

func selectPresets(cfg config.Config, names []string) ([]config.ChannelConfig, error) {
	if len(names) == 0 {
		return cfg.Channels, nil
	}
	out := make([]config.ChannelConfig, 0, len(names))
	for _, name := range names {
		p, ok := cfg.Channel(name)
		if !ok {
			return nil, fmt.Errorf("no preset named %q", name)
		}
		out = append(out, p)
	}
	return out, nil
}

func applyPreset(e *env, p config.ChannelConfig) error {
	ch := pwm.New(p.Chip, p.Channel, e.opts...)
	if err := ch.Export(); err != nil {
		return err
	}
	if err := ch.Apply(p.Settings()); err != nil {
		return err
	}
	e.log.Info("preset applied", zap.String("preset", p.Name), zap.Stringer("channel", ch))
	return nil
}
