// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/askq/internal/cloud"
	"github.com/jeranaias/askq/internal/config"
	"github.com/jeranaias/askq/internal/logging"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	endpoint   string
	logLevel   string
}

// app is everything a command needs once flags are parsed.
type app struct {
	cfgPath string
	logger  *logging.Logger
	client  *cloud.Client
	opts    *globalOptions
}

// resolveConfigPath returns --config or the default file location.
func (o *globalOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.Path()
}

// applyFlags lets command-line flags win over file and environment values.
func (o *globalOptions) applyFlags(cfg *config.Config) error {
	if o.endpoint != "" {
		cfg.Endpoint.URL = o.endpoint
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg.Validate()
}

// setup loads the configuration, publishes it with config.SetGlobal, opens
// the log file and builds the completion client.
func (o *globalOptions) setup() (*app, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := o.applyFlags(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid flags")
	}
	config.SetGlobal(cfg)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, errors.Wrap(err, "open log")
	}

	client := cloud.NewClient(cfg.Endpoint.URL).
		WithLogger(logger.Logger).
		WithTimeout(cfg.Endpoint.Timeout())

	logger.Debug().
		Str("config", path).
		Str("endpoint", client.EndpointRedacted()).
		Dur("timeout", cfg.Endpoint.Timeout()).
		Msg("startup")

	return &app{cfgPath: path, logger: logger, client: client, opts: o}, nil
}

// Close releases the log file.
func (a *app) Close() {
	_ = a.logger.Close()
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCmd builds the askq command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "askq",
		Short: "Ask questions to a language model from the terminal",
		Long: `askq forwards questions to a text-completion endpoint and shows the
answers as a chat. Answered chats are kept in a sidebar for the session.

Run without arguments to open the chat screen.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lipgloss.SetColorProfile(GetColorProfile())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.setup()
			if err != nil {
				return err
			}
			defer a.Close()
			return runTUI(cmd.Context(), a)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.askq/config.toml)")
	flags.StringVar(&opts.endpoint, "endpoint", "", "completion endpoint URL (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newAskCmd(opts),
		newChatCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(version),
	)
	return root
}

// Execute runs the askq command line.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the askq version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "askq %s\n", version)
		},
	}
}
