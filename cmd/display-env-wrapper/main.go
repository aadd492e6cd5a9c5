package main

import (
	"fmt"
	"os"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/config"
	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/launcher"
	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/logging"
	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/session"
	"github.com/DeltaShifter/CM1115ADN-printer-assets/pkg/util"
)

var Version = "dev"

var (
	flagDebug  bool
	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:   "display-env-wrapper [flags] [target [args...]]",
	Short: "Launch a program inside the active user's graphical session",
	Long: `display-env-wrapper detects which logged-in user owns the active
graphical session, fills in DISPLAY and XDG_RUNTIME_DIR accordingly, and
replaces itself with the target program. It exists so privileged driver
installers can start GUI utilities that need a borrowed session context.

With no target it only prints the detected user:

    ACTUAL_DISPLAY_USER=<username>`,
	Version:       Version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDebug {
		cfg.Debug = true
	}

	target := ""
	if len(args) > 0 {
		target = args[0]
	}

	log := logging.New(cfg, target)
	log.Infof("display-env-wrapper %s starting, target=%q", Version, target)

	pipe := &session.Pipeline{
		Config:  cfg,
		Log:     log,
		Host:    session.NewHost(cfg, log),
		Env:     session.EnvFromOS(),
		Invoker: session.CurrentUser(),
	}
	res := pipe.Run()

	if target == "" {
		fmt.Printf("ACTUAL_DISPLAY_USER=%s\n", res.User.Name)
		return nil
	}

	path, err := launcher.Resolve(target)
	if err != nil {
		log.Error(err)
		return err
	}

	env := os.Environ()
	env = launcher.MergeEnv(env, "DISPLAY", res.Display)
	env = launcher.MergeEnv(env, "XDG_RUNTIME_DIR", res.RuntimeDir)

	log.Infof("handing off to %s (user=%s display=%q runtime_dir=%q)",
		path, res.User.Name, res.Display, res.RuntimeDir)
	return launcher.Launch(path, args[1:], env)
}

var logsCmd = &cobra.Command{
	Use:   "logs [program-name]",
	Short: "Follow the wrapper's log for a target program",
	Long: `Tails the rotating log the wrapper keeps when debug is enabled.
The optional argument is the target program's base name; without it the
detection-mode log is followed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}

		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		path := logging.Path(cfg.LogDir, name)
		if !util.Exists(path) {
			return fmt.Errorf("log file does not exist: %s (run the wrapper with --debug first)", path)
		}

		t, err := tail.TailFile(path, tail.Config{
			Follow: true,
			ReOpen: true,
			Poll:   true,
		})
		if err != nil {
			return fmt.Errorf("failed to tail %s: %w", path, err)
		}
		for line := range t.Lines {
			fmt.Println(line.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "write a detection trail to the log file")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the yaml config file")

	// Everything after the first non-flag argument belongs to the target.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(logsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
