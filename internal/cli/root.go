// Package cli implements genaictl, a command-line front end over the bridge:
// health checks, single and batch generation, model discovery, and an
// environment doctor.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"genaibridge/internal/bridge"
	"genaibridge/internal/config"
	"genaibridge/internal/engine"
)

// Env carries the process surroundings so tests can substitute them.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	// NewEngine builds the engine; nil selects the one compiled in.
	NewEngine func() engine.Engine
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// app is the state shared by every subcommand for one invocation.
type app struct {
	env     Env
	cfg     config.Config
	log     zerolog.Logger
	bridge  *bridge.Bridge
	session *bridge.Session

	configPath string
	jsonOut    bool
}

// Execute runs genaictl with args and returns the process exit code.
func Execute(args []string, env Env) int {
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	if env.Stdin == nil {
		env.Stdin = os.Stdin
	}
	if env.Getenv == nil {
		env.Getenv = os.Getenv
	}
	a := &app{env: env, cfg: config.Default()}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)
	err := root.Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(env.Stderr, "genaictl:", err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "genaictl",
		Short:         "Run ONNX Runtime GenAI models from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (.yaml|.yml|.json|.toml)")
	pf.String("log-level", "", "Log level: debug|info|warn|error|off (defaults GENAIBRIDGE_LOG_LEVEL or info)")
	pf.String("models-dir", "", "Directory to scan for genai_config.json model folders")
	pf.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	pf.BoolVar(&a.jsonOut, "json", false, "Print JSON instead of text")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd)
	}

	root.AddCommand(
		a.healthCmd(),
		a.generateCmd(),
		a.batchCmd(),
		a.modelsCmd(),
		a.doctorCmd(),
		a.versionCmd(),
		completionCmd(root),
	)
	return root
}

// setup resolves configuration (file, then env, then flags) and builds the
// logger and the bridge.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		a.cfg = cfg
	}
	if err := a.cfg.ApplyEnvWith(a.env.Getenv); err != nil {
		return err
	}
	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"log-level":    &a.cfg.LogLevel,
		"models-dir":   &a.cfg.ModelsDir,
		"metrics-file": &a.cfg.MetricsFile,
	} {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.log = newLogger(a.env.Stderr, a.cfg.LogLevel)
	var eng engine.Engine
	if a.env.NewEngine != nil {
		eng = a.env.NewEngine()
	}
	a.bridge = bridge.New(bridge.Options{
		Engine:              eng,
		Logger:              &a.log,
		MultimodalMaxLength: a.cfg.MultimodalMaxLength,
	})
	a.session = bridge.NewSession()
	return nil
}

// close shuts the engine down and flushes metrics.
func (a *app) close() {
	if a.bridge == nil {
		return
	}
	a.bridge.Shutdown()
	if a.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
			a.log.Error().Err(err).Str("path", a.cfg.MetricsFile).Msg("write metrics")
		}
	}
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(config.LogLevel(level)).With().Timestamp().Logger()
}

func completionCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	c.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	c.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	c.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	c.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	// Completion never needs the engine.
	c.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return nil }
	return c
}
