package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/salon-admin/internal/branch"
	"github.com/magabrotheeeer/salon-admin/internal/models"
)

func newBranchesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List and switch branches",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List branches of the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := app.Core(cmd.Context())
			if err != nil {
				return err
			}
			if !core.Session.IsAuthenticated(cmd.Context()) {
				return errNotLoggedIn
			}
			st := core.Branches.Snapshot()
			if app.jsonOut {
				return app.printJSON(st)
			}
			if len(st.Branches) == 0 {
				fmt.Fprintln(app.Out, "No branches found")
				return nil
			}
			w := newTable(app.Out)
			printTableHeader(w, "", "ID", "LABEL")
			for _, b := range st.Branches {
				mark := ""
				if st.Current != nil && st.Current.ID == b.ID {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", mark, b.ID, b.Label)
			}
			return w.Flush()
		},
	}

	use := &cobra.Command{
		Use:   "use <branch-id>",
		Short: "Make a branch current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := app.Core(cmd.Context())
			if err != nil {
				return err
			}
			if !core.Session.IsAuthenticated(cmd.Context()) {
				return errNotLoggedIn
			}
			b, err := core.Branches.SelectBranch(cmd.Context(), models.ID(args[0]))
			if errors.Is(err, branch.ErrUnknownBranch) {
				return fmt.Errorf("unknown branch %q", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Switched to %s (%s)\n", b.Label, b.ID)
			return nil
		},
	}

	cmd.AddCommand(list, use)
	return cmd
}
