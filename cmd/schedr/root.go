package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"schedr/internal/config"
	"schedr/internal/logging"
)

// cliState carries the global flags and the logger built from them.
type cliState struct {
	cfg        *config.Config
	jsonOutput bool
	logLevel   string
	logFormat  string
	logger     zerolog.Logger
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	state := &cliState{cfg: cfg, logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "schedr",
		Short:         "Schedr is a shared schedule server with alarms and collaborators",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.configureLogger()
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&state.jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&state.logFormat, "log-format", "console", "log format (console or json)")

	cmd.AddCommand(
		newServeCmd(state),
		newSweepCmd(state),
		newMigrateCmd(state),
		newUserCmd(state),
		newConfigCmd(state),
		newListCmd(state),
		newShowCmd(state),
		newCreateCmd(state),
		newCompleteCmd(state),
		newDeleteCmd(state),
		newMemoCmd(state),
		newRequestCompletionCmd(state),
		newAlarmsCmd(state),
		newWhoamiCmd(state),
	)

	return cmd
}

func (s *cliState) configureLogger() error {
	var format logging.Format
	switch strings.ToLower(strings.TrimSpace(s.logFormat)) {
	case "", "console":
		format = logging.FormatConsole
	case "json":
		format = logging.FormatJSON
	default:
		return fmt.Errorf("invalid --log-format %q (expected console or json)", s.logFormat)
	}

	logger, warning, err := logging.Configure(os.Stderr, format, s.logLevel, s.cfg.LogLevel)
	if err != nil {
		return err
	}
	if warning != "" {
		fmt.Fprintln(os.Stderr, warning)
	}
	s.logger = logger
	return nil
}
