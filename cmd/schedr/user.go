package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"schedr/internal/api"
	"schedr/internal/auth"
	"schedr/internal/format"
	"schedr/internal/models"
	"schedr/internal/store"
)

type userStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserActive(ctx context.Context, username string, active bool, now time.Time) (*models.User, error)
	SetUserRole(ctx context.Context, username string, role models.Role, now time.Time) (*models.User, error)
	SetUserPassword(ctx context.Context, username, passwordHash string, now time.Time) (*models.User, error)
}

func newUserCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local user accounts",
	}
	cmd.AddCommand(newUserAddCmd(state))
	cmd.AddCommand(newUserListCmd(state))
	cmd.AddCommand(newUserSetActiveCmd(state, "enable", "Enable one user", true))
	cmd.AddCommand(newUserSetActiveCmd(state, "disable", "Disable one user", false))
	cmd.AddCommand(newUserRoleCmd(state))
	cmd.AddCommand(newUserPasswdCmd(state))
	return cmd
}

// withStore opens the configured database for commands that run locally
// instead of through the API.
func withStore(state *cliState, fn func(st *store.Store) error) error {
	if state.cfg.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	st, err := store.Open(state.cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func newUserAddCmd(state *cliState) *cobra.Command {
	var (
		passwordStdin bool
		name          string
		role          string
	)

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create one user",
		Args:  requireExactlyArgs(1, "username is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !passwordStdin {
				return fmt.Errorf("--password-stdin is required")
			}
			password, err := readPassword(os.Stdin)
			if err != nil {
				return err
			}

			return withStore(state, func(st *store.Store) error {
				created, err := addUser(cmd.Context(), st, args[0], name, role, password, time.Now().UTC())
				if err != nil {
					return err
				}
				if state.jsonOutput {
					return writeJSON(userView(*created))
				}
				return writePlain("created user %s (%d, %s)\n", created.Username, created.ID, created.Role)
			})
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read password from stdin")
	cmd.Flags().StringVar(&name, "name", "", "display name used in alarm messages (default: username)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "role (user or admin)")
	return cmd
}

func addUser(ctx context.Context, st userStore, rawUsername, name, rawRole, password string, now time.Time) (*models.User, error) {
	username, err := auth.NormalizeUsername(rawUsername)
	if err != nil {
		return nil, err
	}
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = username
	}

	user := &models.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.CreateUser(ctx, user); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, fmt.Errorf("user %s already exists", username)
		}
		return nil, err
	}
	return user, nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required on stdin")
	}
	return password, nil
}

func newUserListCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(state, func(st *store.Store) error {
				users, err := st.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				if state.jsonOutput {
					views := make([]api.UserResponse, 0, len(users))
					for _, u := range users {
						views = append(views, userView(u))
					}
					return writeJSON(map[string]any{"count": len(users), "users": views})
				}
				if len(users) == 0 {
					return writePlain("no users configured\n")
				}
				table := format.Table{Header: []string{"id", "username", "name", "role", "status"}}
				for _, u := range users {
					table.Append(u.ID, u.Username, u.Name, u.Role, userStatus(u.IsActive))
				}
				return table.Write(os.Stdout)
			})
		},
	}
}

func newUserSetActiveCmd(state *cliState, name, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <username>",
		Short: short,
		Args:  requireExactlyArgs(1, "username is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := auth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}
			return withStore(state, func(st *store.Store) error {
				updated, err := st.SetUserActive(cmd.Context(), username, active, time.Now().UTC())
				if err != nil {
					return err
				}
				if updated == nil {
					return fmt.Errorf("user %s not found", username)
				}
				if state.jsonOutput {
					return writeJSON(userView(*updated))
				}
				return writePlain("%s user %s\n", userStatus(updated.IsActive), updated.Username)
			})
		},
	}
}

func newUserRoleCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "role <username> <user|admin>",
		Short: "Change a user's role",
		Args:  requireExactlyArgs(2, "username and role are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := auth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}
			role, err := models.ParseRole(args[1])
			if err != nil {
				return err
			}
			return withStore(state, func(st *store.Store) error {
				updated, err := st.SetUserRole(cmd.Context(), username, role, time.Now().UTC())
				if err != nil {
					return err
				}
				if updated == nil {
					return fmt.Errorf("user %s not found", username)
				}
				if state.jsonOutput {
					return writeJSON(userView(*updated))
				}
				return writePlain("user %s is now %s\n", updated.Username, updated.Role)
			})
		},
	}
}

func newUserPasswdCmd(state *cliState) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Replace a user's password",
		Args:  requireExactlyArgs(1, "username is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !passwordStdin {
				return fmt.Errorf("--password-stdin is required")
			}
			username, err := auth.NormalizeUsername(args[0])
			if err != nil {
				return err
			}
			password, err := readPassword(os.Stdin)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			return withStore(state, func(st *store.Store) error {
				updated, err := st.SetUserPassword(cmd.Context(), username, hash, time.Now().UTC())
				if err != nil {
					return err
				}
				if updated == nil {
					return fmt.Errorf("user %s not found", username)
				}
				return writePlain("password updated for %s\n", updated.Username)
			})
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read password from stdin")
	return cmd
}

func userView(u models.User) api.UserResponse {
	return api.UserResponse{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role, IsActive: u.IsActive}
}

func userStatus(active bool) string {
	if active {
		return color.GreenString("enabled")
	}
	return color.RedString("disabled")
}
