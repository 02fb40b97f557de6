package main

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"schedr/internal/api"
)

func newAlarmsCmd(state *cliState) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "alarms",
		Short: "Show your alarm inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			return withClient(state, func(client *api.Client) error {
				alarms, err := client.ListAlarms(cmd.Context(), query)
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(alarms)
				}
				if len(alarms) == 0 {
					return writePlain("no alarms\n")
				}
				return writeAlarmList(alarms)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum alarms to show")

	cmd.AddCommand(&cobra.Command{
		Use:   "ack <id>",
		Short: "Acknowledge one alarm",
		Args:  requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return withClient(state, func(client *api.Client) error {
				resp, err := client.AckAlarm(cmd.Context(), id)
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s\n", resp.Message)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every alarm in your inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(state, func(client *api.Client) error {
				resp, err := client.ClearAlarms(cmd.Context())
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("cleared %d alarms\n", resp.Cleared)
			})
		},
	})
	return cmd
}
