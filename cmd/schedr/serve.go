package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"schedr/internal/alarm"
	"schedr/internal/server"
	"schedr/internal/store"
)

func newServeCmd(state *cliState) *cobra.Command {
	var noAlarms bool

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"srv"},
		Short:   "Run the schedr API server and alarm sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := state.cfg
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}
			logger := state.logger

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			logger.Info().Str("path", cfg.DBPath).Msg("opening database")
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(addr, st, server.Options{
				Logger:         logger,
				Location:       loc,
				WriteRateLimit: cfg.Server.WriteRateLimit,
				WriteBurst:     cfg.Server.WriteBurst,
				MaxBodyBytes:   cfg.Server.MaxBodyBytes,
				LoginLimits: server.LoginLimits{
					MaxFailures: cfg.Server.LoginMaxFailures,
					Window:      cfg.Server.LoginWindow(),
					Lockout:     cfg.Server.LoginLockout(),
				},
			})
			ln, err := srv.Listen()
			if err != nil {
				return err
			}

			var wg sync.WaitGroup
			if cfg.Alarms.Enabled && !noAlarms {
				schedule, err := alarm.ParseSchedule(cfg.Alarms.Schedule)
				if err != nil {
					_ = ln.Close()
					return err
				}
				engine := alarm.NewEngine(st, alarm.Options{
					Schedule: schedule,
					Location: loc,
					Logger:   logger.With().Str("component", "alarm").Logger(),
				})
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := engine.Run(ctx); err != nil {
						logger.Error().Err(err).Msg("alarm engine stopped")
					}
				}()
			} else {
				logger.Info().Msg("alarm sweep disabled")
			}

			notifySystemd(state, daemon.SdNotifyReady)
			go func() {
				<-ctx.Done()
				notifySystemd(state, daemon.SdNotifyStopping)
			}()

			err = srv.Serve(ctx, ln)
			stop()
			wg.Wait()
			return err
		},
	}

	cmd.Flags().BoolVar(&noAlarms, "no-alarms", false, "serve the API without running the alarm sweep")
	return cmd
}

// notifySystemd reports service state when running under a systemd unit
// with Type=notify. Outside systemd it is a no-op.
func notifySystemd(state *cliState, status string) {
	sent, err := daemon.SdNotify(false, status)
	if err != nil {
		state.logger.Warn().Err(err).Str("status", status).Msg("sd_notify failed")
		return
	}
	if sent {
		state.logger.Debug().Str("status", status).Msg("sd_notify sent")
	}
}

func newSweepCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one alarm sweep cycle against the database and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := state.cfg
			if cfg.DBPath == "" {
				return fmt.Errorf("db path is required")
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			engine := alarm.NewEngine(st, alarm.Options{
				Location: loc,
				Logger:   state.logger.With().Str("component", "alarm").Logger(),
			})
			res, err := engine.RunCycle(context.WithoutCancel(cmd.Context()))
			if err != nil {
				return err
			}

			if state.jsonOutput {
				return writeJSON(map[string]int{
					"due":       res.Due,
					"overdue":   res.Overdue,
					"created":   res.Created,
					"activated": res.Activated,
				})
			}
			return writePlain("due=%d overdue=%d created=%d activated=%d\n", res.Due, res.Overdue, res.Created, res.Activated)
		},
	}
}
