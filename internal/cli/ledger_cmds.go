package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cassa/internal/core"
	"cassa/internal/ledger"
	"cassa/internal/services"
)

func newPoolsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List cash pools and their balances",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show realized and provisional balance of every pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			calc, err := app.calculator(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "ID", "NAME", "REALIZED", "PROVISIONAL", "PENDING", "MOVEMENTS")
			for _, s := range calc.PoolSummaries() {
				t.row(s.Pool.ID, s.Pool.Name, money(s.Realized), money(s.Provisional), money(s.Pending), s.Count)
			}
			return t.flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <pool-id>",
		Short: "Delete a cash pool that holds no movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.ledgerStore(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := services.NewLedgerService(app.now).DeletePool(store, args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

// filterFlags binds the flags shared by movement listings and statistics.
func filterFlags(cmd *cobra.Command, f *ledger.Filter) {
	cmd.Flags().StringVar((*string)(&f.Period), "period", string(ledger.PeriodAll), "all, today, last7days or last30days")
	cmd.Flags().StringVar(&f.UserID, "user", "", "only movements recorded by this member id")
	cmd.Flags().StringVar(&f.SearchText, "search", "", "case-insensitive text in reason, note or member name")
	cmd.Flags().BoolVar(&f.IncludeProvisional, "provisional", false, "include provisional movements")
}

func checkPeriod(p ledger.Period) error {
	if !p.Valid() {
		return core.Invalid(core.ReasonInvalidValue, "period", fmt.Sprintf("unknown period %q", p))
	}
	return nil
}

func newMovementsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "movements",
		Aliases: []string{"mv"},
		Short:   "List and record cash movements",
	}

	var filter ledger.Filter
	list := &cobra.Command{
		Use:   "list <pool-id>",
		Short: "List the movements of a pool, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPeriod(filter.Period); err != nil {
				return err
			}
			calc, err := app.calculator(cmd.Context())
			if err != nil {
				return err
			}
			store := calc.Store()
			t := newTable(cmd.OutOrStdout(), "ID", "TIME", "CATEGORY", "AMOUNT", "STATUS", "MEMBER", "REASON")
			for _, m := range calc.FilteredView(args[0], filter) {
				t.row(m.ID, m.Timestamp.Format(core.TimestampLayout), store.Registry().Label(m.CategoryID),
					signed(m), m.Status, store.MemberName(m.UserID), m.Reason)
			}
			return t.flush()
		},
	}
	filterFlags(list, &filter)

	var (
		input       services.MovementInput
		at          string
		provisional bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a movement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.ledgerStore(cmd.Context())
			if err != nil {
				return err
			}
			in := input
			if provisional {
				in.Status = core.Provisional
			}
			if in.Timestamp, err = parseTimestamp(at); err != nil {
				return err
			}
			plan, err := services.NewLedgerService(app.now).SubmitMovement(store, in)
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}
	add.Flags().StringVar(&input.ID, "id", "", "movement id to replace (empty creates one)")
	add.Flags().StringVar(&input.PoolID, "pool", "", "cash pool id")
	add.Flags().StringVar((*string)(&input.Kind), "kind", "", "inflow or outflow")
	add.Flags().StringVar(&input.CategoryID, "category", "", "category id")
	add.Flags().StringVar(&input.Amount, "amount", "", "amount, dot or comma decimal")
	add.Flags().StringVar(&input.Reason, "reason", "", "short description")
	add.Flags().StringVar(&input.UserID, "user", "", "member id recording the movement")
	add.Flags().StringVar(&input.Note, "note", "", "free text")
	add.Flags().StringVar(&at, "at", "", "timestamp as YYYY-MM-DD HH:MM:SS (default now)")
	add.Flags().BoolVar(&provisional, "provisional", false, "record as provisional")

	realize := &cobra.Command{
		Use:   "realize <movement-id>",
		Short: "Mark a provisional movement as realized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.ledgerStore(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := services.NewLedgerService(app.now).MarkRealized(store, args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	del := &cobra.Command{
		Use:   "delete <movement-id>",
		Short: "Delete a movement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.ledgerStore(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := services.NewLedgerService(app.now).DeleteMovement(store, args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	cmd.AddCommand(list, add, realize, del)
	return cmd
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{core.TimestampLayout, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, core.Invalid(core.ReasonInvalidValue, "at", fmt.Sprintf("cannot parse timestamp %q", s))
}

func newStatsCommand(app *App) *cobra.Command {
	var filter ledger.Filter
	cmd := &cobra.Command{
		Use:   "stats <pool-id>",
		Short: "Realized totals per category and per member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPeriod(filter.Period); err != nil {
				return err
			}
			calc, err := app.calculator(cmd.Context())
			if err != nil {
				return err
			}
			view := calc.FilteredView(args[0], filter)
			w := cmd.OutOrStdout()

			t := newTable(w, "KIND", "CATEGORY", "TOTAL", "COUNT")
			for _, kind := range []core.Kind{core.Inflow, core.Outflow} {
				for _, ct := range calc.CategoryTotals(kind, view) {
					t.row(kind, ct.Category.Label, money(ct.Total), ct.Count)
				}
			}
			if err := t.flush(); err != nil {
				return err
			}
			fmt.Fprintln(w)

			t = newTable(w, "MEMBER", "INFLOWS", "OUTFLOWS", "COUNT")
			for _, ut := range calc.UserTotals(view) {
				t.row(ut.Member.Name, money(ut.Inflows), money(ut.Outflows), ut.Count)
			}
			return t.flush()
		},
	}
	filterFlags(cmd, &filter)
	return cmd
}

func newCategoriesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List and delete movement categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories by kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.ledgerStore(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "ID", "KIND", "LABEL")
			for _, kind := range []core.Kind{core.Inflow, core.Outflow} {
				for _, c := range store.Registry().ByKind(kind) {
					t.row(c.ID, c.Kind, c.Label)
				}
			}
			return t.flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <category-id>",
		Short: "Delete a category no movement uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.ledgerStore(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := services.NewLedgerService(app.now).DeleteCategory(store, args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

func newMembersCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List and manage team members",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List team members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.ledgerStore(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "ID", "NAME", "EMAIL", "ROLE")
			for _, m := range store.Members() {
				t.row(m.ID, m.Name, m.Email, m.Role)
			}
			return t.flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <member-id>",
		Short: "Delete a member; the last admin cannot be deleted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.ledgerStore(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := services.NewLedgerService(app.now).DeleteMember(store, args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle-role <member-id>",
		Short: "Switch a member between admin and member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.ledgerStore(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := services.NewLedgerService(app.now).ToggleMemberRole(store, args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	cmd.AddCommand(list, del, toggle)
	return cmd
}
