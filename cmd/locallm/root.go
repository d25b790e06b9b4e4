package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"locallm/internal/config"
	"locallm/internal/manager"
	"locallm/internal/progress"
)

// app carries resolved configuration between cobra commands.
type app struct {
	cfgPath   string
	envFile   string
	logLevel  string
	engineURL string

	cfg    config.Config
	log    zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	root := &cobra.Command{
		Use:           "locallm",
		Short:         "Run and query a local inference engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stdout, a.stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
			return a.resolve(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Config file (.yaml|.yml|.json|.toml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file seeding LOCALLM_* variables")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults LOCALLM_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&a.engineURL, "engine-url", "", "Engine base URL (defaults LOCALLM_ENGINE_URL or http://localhost:11434)")

	root.AddCommand(
		newServeCmd(a),
		newSetupCmd(a),
		newAskCmd(a),
		newDiagCmd(a),
		newModelsCmd(a),
		newStopCmd(a),
		newVersionCmd(a),
	)
	return root
}

// resolve builds the effective configuration: defaults, then the config
// file, then LOCALLM_* variables (optionally seeded from .env), then flags.
func (a *app) resolve(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return fmt.Errorf("env file: %w", err)
	}
	cfg := config.Default()
	if a.cfgPath != "" {
		fileCfg, err := config.Load(a.cfgPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = fileCfg.WithDefaults()
	}
	cfg = cfg.ApplyEnv(os.Getenv)
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("engine-url") {
		cfg.EngineURL = a.engineURL
	}
	a.cfg = cfg
	a.log = newLogger(a.stderr, cfg.LogLevel)
	return nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// consoleProgress prints progress lines to stderr in order, without emoji.
// At debug level the same lines also go to the structured log.
func (a *app) consoleProgress() *progress.Async {
	var rep progress.Reporter = progress.Func(func(msg string) { fmt.Fprintln(a.stderr, msg) })
	if a.log.GetLevel() <= zerolog.DebugLevel {
		rep = progress.Tee(rep, progress.Log(a.log))
	}
	return progress.NewAsync(progress.Normalizing(rep), 64)
}

func (a *app) newManager(rep progress.Reporter) (*manager.Manager, error) {
	return manager.New(a.cfg, manager.WithLogger(a.log), manager.WithReporter(rep))
}
