// Pwmctl exports, configures and drives PWM channels through the Linux
// sysfs PWM interface.
//
// Usage:
//
//	pwmctl info --chip 0
//	pwmctl set --chip 0 --channel 1 --export --period-ns 20000 --duty 0.5 --enable
//	pwmctl get --chip 0 --channel 1
//	pwmctl breathe --chip 0 --channel 1
//	pwmctl apply --config pwm.yaml
//	pwmctl fan --config pwm.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sysfs-pwm/internal/config"
	"sysfs-pwm/internal/logging"
	"sysfs-pwm/internal/pwm"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	root       string
	logLevel   string
	attempts   int
	interval   time.Duration
}

// env is what every command needs after flags and config are resolved.
type env struct {
	cfg  config.Config
	log  *zap.Logger
	opts []pwm.Option
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "pwmctl",
		Short: "Control Linux sysfs PWM channels",
		Long: `pwmctl exports, configures and drives PWM channels exposed by the kernel
under /sys/class/pwm.

Channels are addressed by chip and channel number (pwmchipN/pwmM). Settings
can be given on the command line or as named presets in a YAML config.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Path to YAML config")
	pf.StringVar(&g.root, "root", pwm.DefaultRoot, "sysfs PWM class directory")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error); default from config or "+logging.LevelEnvVar)
	pf.IntVar(&g.attempts, "export-attempts", pwm.DefaultExportAttempts, "Readiness checks after export")
	pf.DurationVar(&g.interval, "export-interval", pwm.DefaultExportInterval, "Delay between readiness checks")

	root.AddCommand(
		newInfoCmd(g),
		newExportCmd(g),
		newUnexportCmd(g),
		newGetCmd(g),
		newSetCmd(g),
		newApplyCmd(g),
		newBreatheCmd(g),
		newFanCmd(g),
	)
	return root
}

// setup loads the config (if any) and lets explicitly set flags override it.
func (g *globalFlags) setup(cmd *cobra.Command) (*env, error) {
	var (
		cfg config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Sysfs.Root = g.root
	}
	if flags.Changed("export-attempts") {
		cfg.Sysfs.ExportAttempts = g.attempts
	}
	if flags.Changed("export-interval") {
		cfg.Sysfs.ExportInterval = g.interval
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}

	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := append(cfg.PWMOptions(), pwm.WithLogger(log))
	return &env{cfg: cfg, log: log, opts: opts}, nil
}

// addChannelFlags registers --chip and --channel.
func addChannelFlags(cmd *cobra.Command, chip, channel *uint32) {
	cmd.Flags().Uint32Var(chip, "chip", 0, "PWM chip number (pwmchipN)")
	cmd.Flags().Uint32Var(channel, "channel", 0, "PWM channel number on the chip (pwmM)")
}
