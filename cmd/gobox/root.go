package main

import (
	"fmt"

	"github.com/faiyaz032/gobox/internal/config"
	"github.com/faiyaz032/gobox/internal/identity"
	"github.com/faiyaz032/gobox/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options are the flags shared by every command. Set flags override the
// config file and the environment.
type options struct {
	configPath  string
	envFile     string
	endpoint    string
	fingerprint string
	logLevel    string
	metricsAddr string
	raw         bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "gobox",
		Short: "Open a shell in your GoBox container",
		Long: "gobox connects this terminal to your GoBox container. The backend keeps " +
			"one box per device, so reconnecting from the same machine returns you to the same box.",
		Example: `
# Connect with the TUI
gobox

# Connect to another backend
gobox --endpoint wss://gobox.example.com/api/v1/box/connect

# Use the host terminal directly
gobox --raw

# Check the backend and print this device's identity
gobox doctor
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runSession(cmd.Context(), cfg)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", config.DefaultPath(), "config file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.StringVar(&opts.endpoint, "endpoint", "", "websocket endpoint of the gobox backend")
	pf.StringVar(&opts.fingerprint, "fingerprint", "", "connect with this device token instead of the computed one")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	f := cmd.Flags()
	f.BoolVar(&opts.raw, "raw", false, "use the host terminal directly, without the TUI")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve client metrics on this address")

	cmd.AddCommand(newIdentityCmd(opts), newDoctorCmd(opts))
	return cmd
}

// load resolves the configuration: defaults, file, dotenv and environment,
// then flags.
func (o *options) load() (*config.Config, error) {
	if o.envFile != "" {
		config.LoadEnvFiles(o.envFile)
	}
	cfg, err := config.Resolve(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.endpoint != "" {
		cfg.Connect.Endpoint = o.endpoint
	}
	if o.fingerprint != "" {
		cfg.Identity.Fingerprint = o.fingerprint
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if o.raw {
		cfg.Terminal.Raw = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logging.New(cfg.Logging.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

func newIdentity(cfg *config.Config, log *zap.Logger) *identity.Provider {
	return identity.ForConfig(cfg.Identity.AppID, cfg.Identity.Fingerprint, identity.WithLogger(log))
}
