package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/salon-admin/internal/gateway"
	"github.com/magabrotheeeer/salon-admin/internal/services/catalog"
)

func newMembershipsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memberships",
		Short: "Browse the membership catalog of the current branch",
	}

	var (
		search string
		sortBy string
		desc   bool
		page   int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List memberships",
		Long: `List memberships of the current branch, 12 per page.

Examples:
  salonctl memberships list
  salonctl memberships list --sort price --desc
  salonctl memberships list --search gold --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			core, err := app.Core(ctx)
			if err != nil {
				return err
			}
			if !core.Session.IsAuthenticated(ctx) {
				return errNotLoggedIn
			}
			if err := core.Catalog.Load(ctx); err != nil {
				return fmt.Errorf("%s", gateway.UserMessage(err, "Failed to load memberships"))
			}
			if sortBy != "" {
				if err := core.Catalog.Sort(catalog.Column(sortBy)); err != nil {
					return fmt.Errorf("unknown sort column %q (title, price, duration)", sortBy)
				}
				if desc {
					_ = core.Catalog.Sort(catalog.Column(sortBy))
				}
			}
			core.Catalog.Search(search)
			core.Catalog.SetPage(page)

			v := core.Catalog.View()
			if app.jsonOut {
				return app.printJSON(v)
			}
			if len(v.Items) == 0 {
				fmt.Fprintln(app.Out, "No memberships found")
				return nil
			}
			w := newTable(app.Out)
			printTableHeader(w, "ID", "TITLE", "PRICE", "DURATION", "ACTIVE")
			for _, p := range v.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Price, p.Duration, activeMark(p.IsActive))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Page %d of %d (%d total)\n", v.Pagination.Page, v.Pagination.TotalPages, v.Pagination.Total)
			return nil
		},
	}
	list.Flags().StringVar(&search, "search", "", "filter by title, price or duration")
	list.Flags().StringVar(&sortBy, "sort", "", "sort column: title, price, duration")
	list.Flags().BoolVar(&desc, "desc", false, "sort descending")
	list.Flags().IntVar(&page, "page", 1, "page number")

	cmd.AddCommand(list)
	return cmd
}
