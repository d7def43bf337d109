package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/salon-admin/internal/gateway"
	"github.com/magabrotheeeer/salon-admin/internal/lib/jwt"
	"github.com/magabrotheeeer/salon-admin/internal/services/auth"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: `Log in with email and password. The password is read from
--password, then SALONCTL_PASSWORD, then the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if password == "" {
				password = os.Getenv("SALONCTL_PASSWORD")
			}
			if password == "" {
				line, err := bufio.NewReader(app.In).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password is required")
				}
				password = strings.TrimSpace(line)
			}

			core, err := app.Core(ctx)
			if err != nil {
				return err
			}
			sess, err := core.Auth.Login(ctx, auth.LoginRequest{Email: email, Password: password})
			if err != nil {
				return fmt.Errorf("login failed: %s", gateway.UserMessage(err, err.Error()))
			}

			if app.jsonOut {
				return app.printJSON(core.Branches.Snapshot())
			}
			name := email
			if sess.User != nil && sess.User.Name != "" {
				name = sess.User.Name
			}
			fmt.Fprintf(app.Out, "Logged in as %s\n", name)
			if b := core.Branches.CurrentBranch(ctx); b != nil {
				fmt.Fprintf(app.Out, "Branch: %s (%s)\n", b.Label, b.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := app.Core(cmd.Context())
			if err != nil {
				return err
			}
			core.Auth.Logout(cmd.Context())
			fmt.Fprintln(app.Out, "Logged out")
			return nil
		},
	}
}

type whoami struct {
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	Permissions []string  `json:"permissions"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Expired     bool      `json:"expired,omitempty"`
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user, branch and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			core, err := app.Core(ctx)
			if err != nil {
				return err
			}
			if !core.Session.IsAuthenticated(ctx) {
				return errNotLoggedIn
			}

			info := whoami{Permissions: core.Branches.Permissions()}
			if u := core.Session.User(ctx); u != nil {
				info.Email, info.Name = u.Email, u.Name
			}
			if b := core.Branches.CurrentBranch(ctx); b != nil {
				info.Branch = b.Label
			}
			if token, ok := core.Session.Token(ctx); ok {
				if ti, err := jwt.Inspect(token); err == nil {
					info.ExpiresAt = ti.ExpiresAt
					info.Expired = ti.Expired(time.Now())
				}
			}

			if app.jsonOut {
				return app.printJSON(info)
			}
			w := newTable(app.Out)
			fmt.Fprintf(w, "Email:\t%s\n", info.Email)
			fmt.Fprintf(w, "Name:\t%s\n", info.Name)
			fmt.Fprintf(w, "Branch:\t%s\n", info.Branch)
			fmt.Fprintf(w, "Permissions:\t%s\n", strings.Join(info.Permissions, ", "))
			if !info.ExpiresAt.IsZero() {
				state := "valid"
				if info.Expired {
					state = "expired"
				}
				fmt.Fprintf(w, "Token:\t%s until %s\n", state, info.ExpiresAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}
