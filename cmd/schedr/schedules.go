package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"schedr/internal/api"
)

func newListCmd(state *cliState) *cobra.Command {
	var (
		mine          bool
		hideCompleted bool
		completedOnly bool
		search        string
		exclude       string
		start         string
		end           string
		limit         int
		skip          int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List visible schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if mine {
				query.Set("show_all_users", "false")
			}
			if hideCompleted {
				query.Set("show_completed", "false")
			}
			if completedOnly {
				query.Set("completed_only", "true")
			}
			setIfNotEmpty(query, "search_terms", search)
			setIfNotEmpty(query, "exclude_terms", exclude)
			setIfNotEmpty(query, "start_date", start)
			setIfNotEmpty(query, "end_date", end)
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if skip > 0 {
				query.Set("skip", strconv.Itoa(skip))
			}

			return withClient(state, func(client *api.Client) error {
				schedules, err := client.ListSchedules(cmd.Context(), query)
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(schedules)
				}
				if len(schedules) == 0 {
					return writePlain("no schedules\n")
				}
				return writeScheduleList(schedules)
			})
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "only schedules you own")
	cmd.Flags().BoolVar(&hideCompleted, "hide-completed", false, "hide completed schedules")
	cmd.Flags().BoolVar(&completedOnly, "completed", false, "only completed schedules")
	cmd.Flags().StringVar(&search, "search", "", "comma-separated search terms")
	cmd.Flags().StringVar(&exclude, "exclude", "", "comma-separated terms to exclude")
	cmd.Flags().StringVar(&start, "from", "", "earliest date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&end, "to", "", "latest date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results")
	cmd.Flags().IntVar(&skip, "skip", 0, "results to skip")
	return cmd
}

func newShowCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one schedule",
		Args:  requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return withClient(state, func(client *api.Client) error {
				sched, err := client.GetSchedule(cmd.Context(), id)
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(sched)
				}
				return writeScheduleDetail(sched)
			})
		},
	}
}

func newCreateCmd(state *cliState) *cobra.Command {
	var (
		content       string
		due           string
		alarmAt       string
		priority      string
		project       string
		private       bool
		parentID      int64
		strictParent  bool
		collaborators []int64
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a schedule",
		Args:  requireExactlyArgs(1, "title is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.ScheduleCreateRequest{
				Title:         args[0],
				Individual:    private,
				StrictParent:  strictParent,
				Collaborators: collaborators,
			}
			if content != "" {
				req.Content = &content
			}
			if priority != "" {
				req.Priority = &priority
			}
			if project != "" {
				req.ProjectName = &project
			}
			if parentID > 0 {
				req.ParentID = &parentID
			}
			var err error
			if req.DueTime, err = parseCLITime(due); err != nil {
				return fmt.Errorf("--due: %w", err)
			}
			if req.AlarmTime, err = parseCLITime(alarmAt); err != nil {
				return fmt.Errorf("--alarm: %w", err)
			}

			return withClient(state, func(client *api.Client) error {
				created, err := client.CreateSchedule(cmd.Context(), req)
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(created)
				}
				return writePlain("created schedule %d: %s\n", created.ID, created.Title)
			})
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "schedule body")
	cmd.Flags().StringVar(&due, "due", "", "due time (RFC3339 or YYYY-MM-DD HH:MM local)")
	cmd.Flags().StringVar(&alarmAt, "alarm", "", "alarm time (RFC3339 or YYYY-MM-DD HH:MM local)")
	cmd.Flags().StringVar(&priority, "priority", "", "urgent, high, medium, low or turtle")
	cmd.Flags().StringVar(&project, "project", "", "project name")
	cmd.Flags().BoolVar(&private, "private", false, "only visible to you and collaborators")
	cmd.Flags().Int64Var(&parentID, "parent", 0, "parent schedule id")
	cmd.Flags().BoolVar(&strictParent, "strict-parent", false, "fail when the parent does not exist")
	cmd.Flags().Int64SliceVar(&collaborators, "share", nil, "user ids to share with")
	return cmd
}

func newCompleteCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "complete <id>",
		Aliases: []string{"done"},
		Short:   "Mark a schedule completed",
		Args:    requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return withClient(state, func(client *api.Client) error {
				sched, err := client.CompleteSchedule(cmd.Context(), id)
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(sched)
				}
				return writePlain("completed schedule %d\n", sched.ID)
			})
		},
	}
}

func newDeleteCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a schedule and its alarms",
		Args:    requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return withClient(state, func(client *api.Client) error {
				if err := client.DeleteSchedule(cmd.Context(), id); err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(api.MessageResponse{Message: "schedule deleted", ID: id})
				}
				return writePlain("deleted schedule %d\n", id)
			})
		},
	}
}

func newMemoCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "memo <id> <text>",
		Short: "Replace a schedule's memo and notify its audience",
		Args:  requireExactlyArgs(2, "id and memo text are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withClient(state, func(client *api.Client) error {
				sched, err := client.UpdateMemo(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(sched)
				}
				return writePlain("updated memo on schedule %d\n", sched.ID)
			})
		},
	}
}

func newRequestCompletionCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "request-completion <id>",
		Short: "Ask a schedule's owner to complete it",
		Args:  requireOneID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseID(args[0])
			return withClient(state, func(client *api.Client) error {
				resp, err := client.RequestCompletion(cmd.Context(), id)
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("%s\n", resp.Message)
			})
		},
	}
}

func newWhoamiCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(state, func(client *api.Client) error {
				me, err := client.Me(cmd.Context())
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(me)
				}
				return writePlain("%s (%s, id %d)\n", me.Username, me.Role, me.ID)
			})
		},
	}
}

func setIfNotEmpty(query url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		query.Set(key, value)
	}
}

var cliTimeLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseCLITime reads RFC3339 or a local wall-clock time. Empty input is nil.
func parseCLITime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	for _, layout := range cliTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid time %q", raw)
}
