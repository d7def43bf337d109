package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	salonadmin "github.com/magabrotheeeer/salon-admin/internal/app/salon-admin"
	"github.com/magabrotheeeer/salon-admin/internal/gateway"
	"github.com/magabrotheeeer/salon-admin/internal/models"
	"github.com/magabrotheeeer/salon-admin/internal/services/roster"
)

func newSubscribersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage subscribers of a membership",
	}
	cmd.AddCommand(
		newSubscribersListCmd(app),
		newSubscribersAddCmd(app),
		newSubscribersEndCmd(app, roster.ModeCancel),
		newSubscribersEndCmd(app, roster.ModeExpire),
	)
	return cmd
}

// openRoster загружает подписчиков абонемента для одной команды.
func (a *App) openRoster(ctx context.Context, membershipID string) (*salonadmin.Core, error) {
	core, err := a.Core(ctx)
	if err != nil {
		return nil, err
	}
	if !core.Session.IsAuthenticated(ctx) {
		return nil, errNotLoggedIn
	}
	if err := core.Roster.Load(ctx, models.ID(membershipID)); err != nil {
		return nil, errors.New(gateway.UserMessage(err, "Failed to load subscribers"))
	}
	return core, nil
}

func newSubscribersListCmd(app *App) *cobra.Command {
	var (
		filter string
		search string
		page   int
	)
	cmd := &cobra.Command{
		Use:   "list <membership-id>",
		Short: "List subscribers of a membership",
		Long: `List subscribers of a membership, 12 per page.

Examples:
  salonctl subscribers list 12
  salonctl subscribers list 12 --filter cancelled_or_expired
  salonctl subscribers list 12 --search anna`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := app.openRoster(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := core.Roster.SetFilter(roster.Filter(filter)); err != nil {
				return fmt.Errorf("unknown filter %q (active, cancelled_or_expired)", filter)
			}
			core.Roster.Search(search)
			core.Roster.SetPage(page)

			v := core.Roster.View()
			if app.jsonOut {
				return app.printJSON(v)
			}
			fmt.Fprintf(app.Out, "Active: %d, cancelled or expired: %d\n", v.ActiveCount, v.EndedCount)
			if len(v.Items) == 0 {
				fmt.Fprintln(app.Out, "No subscribers found")
				return nil
			}
			w := newTable(app.Out)
			printTableHeader(w, "ID", "CUSTOMER", "START", "END", "BOOKINGS", "STATUS")
			for _, s := range v.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					s.ID, s.CustomerName, s.StartDate, s.EndDate, s.RemainingBookings, s.Status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Page %d of %d\n", v.Pagination.Page, v.Pagination.TotalPages)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", string(roster.FilterActive), "active or cancelled_or_expired")
	cmd.Flags().StringVar(&search, "search", "", "filter by customer name")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newSubscribersAddCmd(app *App) *cobra.Command {
	var (
		customer string
		start    string
	)
	cmd := &cobra.Command{
		Use:   "add <membership-id>",
		Short: "Add a customer to a membership",
		Long: `Search customers by name, email or phone and add the single match.

Example:
  salonctl subscribers add 12 --customer "anna smith" --start 2026-11-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			core, err := app.openRoster(ctx, args[0])
			if err != nil {
				return err
			}

			form := core.Roster.NewAddCustomer()
			if err := form.SetStartDate(start); err != nil {
				return fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", start)
			}
			found, err := form.SearchCustomers(ctx, customer)
			if err != nil {
				return errors.New(gateway.UserMessage(err, "Failed to search customers"))
			}
			switch len(found) {
			case 0:
				return fmt.Errorf("no customers match %q", customer)
			case 1:
			default:
				w := newTable(app.Out)
				printTableHeader(w, "ID", "NAME", "EMAIL", "PHONE")
				for _, c := range found {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone)
				}
				_ = w.Flush()
				return fmt.Errorf("%d customers match %q, narrow the search", len(found), customer)
			}
			if err := form.Select(found[0].ID); err != nil {
				return err
			}
			picked, _ := form.Selected()

			s, err := form.Submit(ctx)
			if err != nil {
				return errors.New(gateway.UserMessage(err, "Failed to add customer"))
			}
			if app.jsonOut {
				return app.printJSON(s)
			}
			fmt.Fprintf(app.Out, "Added %s (subscriber %s)\n", picked.Name, s.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer search: name, email or phone")
	cmd.Flags().StringVar(&start, "start", "", "start date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newSubscribersEndCmd(app *App, mode roster.Mode) *cobra.Command {
	var yes bool
	verb, past := "Cancel", "cancelled"
	if mode == roster.ModeExpire {
		verb, past = "Expire", "expired"
	}
	cmd := &cobra.Command{
		Use:   string(mode) + " <membership-id> <subscriber-id>",
		Short: verb + " an active subscriber",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			core, err := app.openRoster(ctx, args[0])
			if err != nil {
				return err
			}

			p, err := core.Roster.RequestCancel(models.ID(args[1]), mode)
			switch {
			case errors.Is(err, roster.ErrNotFound):
				return fmt.Errorf("subscriber %s not found", args[1])
			case errors.Is(err, roster.ErrNotActive):
				return fmt.Errorf("subscriber %s is not active", args[1])
			case err != nil:
				return err
			}

			if !yes && !app.confirm(fmt.Sprintf("%s membership of %s? [y/N] ", verb, p.CustomerName)) {
				core.Roster.Decline()
				fmt.Fprintln(app.Out, "Aborted")
				return nil
			}

			s, err := core.Roster.Confirm(ctx)
			if err != nil {
				return errors.New(gateway.UserMessage(err, "Failed to "+strings.ToLower(verb)+" membership"))
			}
			if app.jsonOut {
				return app.printJSON(s)
			}
			fmt.Fprintf(app.Out, "Membership of %s %s\n", s.CustomerName, past)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *App) confirm(prompt string) bool {
	fmt.Fprint(a.Out, prompt)
	line, _ := bufio.NewReader(a.In).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
