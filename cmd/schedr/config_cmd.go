package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"schedr/internal/config"
)

func newConfigCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set configuration",
	}

	cmd.AddCommand(newConfigGetCmd(state))
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigListCmd(state))
	return cmd
}

func newConfigGetCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsAllowedKey(key) {
				return fmt.Errorf("unknown key: %s (allowed: %v)", key, config.AllowedKeys())
			}
			value, err := state.cfg.Get(key)
			if err != nil {
				return err
			}
			return writePlain("%s\n", value)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			var path string
			var err error
			if global {
				path, err = config.GlobalPath()
			} else {
				path, err = config.ProjectPath()
			}
			if err != nil {
				return err
			}

			return config.SetKey(path, key, value)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write to global config (~/.schedr.toml)")
	return cmd
}

func newConfigListCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show effective configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make(map[string]string, len(config.AllowedKeys()))
			for _, key := range config.AllowedKeys() {
				value, err := state.cfg.Get(key)
				if err != nil {
					return err
				}
				values[key] = value
			}
			if state.jsonOutput {
				return writeJSON(map[string]any{"values": values, "loaded_from": state.cfg.LoadedFrom})
			}
			for _, key := range config.AllowedKeys() {
				if err := writePlain("%s = %s\n", key, values[key]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
