package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"assistd/internal/common/fsutil"
	"assistd/internal/config"
	"assistd/internal/hardware"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logFormat  string
	logLevel   string
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "assistd",
		Short:         "Local-first assistant gateway: hardware-aware model routing over Ollama",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", envOr("ASSISTD_CONFIG", "config.yaml"),
		"Config file (.yaml, .yml, .json or .toml); created with defaults if absent (env ASSISTD_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: json|console (overrides server.log_format)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides server.log_level)")

	root.AddCommand(newServeCmd(opts), newProbeCmd(opts), newProvisionCmd(opts), newConfigCmd(opts))
	return root
}

// loadConfig reads or initializes the config file, applies flag overrides
// and builds the root logger writing to logOut.
func (o *options) loadConfig(logOut io.Writer) (config.Config, zerolog.Logger, error) {
	cfg, created, err := config.LoadOrInit(o.configPath)
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("load config %s: %w", o.configPath, err)
	}
	if o.logFormat != "" {
		cfg.Server.LogFormat = o.logFormat
	}
	if o.logLevel != "" {
		cfg.Server.LogLevel = o.logLevel
	}
	log := newLogger(logOut, cfg.Server.LogFormat, cfg.Server.LogLevel)
	if created {
		log.Info().Str("path", o.configPath).Msg("wrote default config")
	}
	return cfg, log, nil
}

// newLogger builds the root logger. Unknown levels fall back to info.
func newLogger(w io.Writer, format, level string) zerolog.Logger {
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func newProbeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "probe",
		Short:   "Detect hardware and print the profile and tier as JSON",
		Example: "  assistd probe\n  assistd probe --log-level debug",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			prober := newProber(cfg, &log)
			resp := hardwareResponse(prober.Profile(cmd.Context()))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
}

func newProvisionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Pull the models for the detected tier and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, &log)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.mgr.Provision(cmd.Context()); err != nil {
				return err
			}
			st := a.mgr.Status(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st.Provisioning)
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("config requires a subcommand: init")
	}}
	var force bool
	initCmd := &cobra.Command{
		Use:     "init",
		Short:   "Write the default configuration to --config",
		Example: "  assistd config init -c ~/.config/assistd/config.toml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := fsutil.ExpandHome(opts.configPath)
			if err != nil {
				return err
			}
			if !force && fsutil.PathExists(path) {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}

func newProber(cfg config.Config, log *zerolog.Logger) *hardware.Prober {
	return hardware.NewProber(hardware.Config{
		Logger:        log,
		Timeout:       time.Duration(cfg.Hardware.ProbeTimeoutSeconds) * time.Second,
		MaxConcurrent: cfg.Hardware.MaxConcurrentProbes,
		CacheTTL:      time.Duration(cfg.Hardware.CacheTTLSeconds) * time.Second,
	})
}
