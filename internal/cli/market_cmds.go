package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cassa/internal/core"
	"cassa/internal/market"
)

func newMarketsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Markets, their status and commission statistics",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List markets by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "ID", "DATE", "PLACE", "STATUS", "RATE")
			for _, m := range eng.Markets() {
				t.row(m.ID, date(m), m.Place, m.Status, strconv.FormatFloat(m.DefaultCommissionRate, 'f', -1, 64)+"%")
			}
			return t.flush()
		},
	}

	stats := &cobra.Command{
		Use:   "stats [market-id]",
		Short: "Confirmed revenue and commission of one market, or totals of every market",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				g := eng.GlobalStats()
				fmt.Fprintf(w, "revenue: %s\ncommission: %s\nclosed markets: %d\n",
					money(g.Revenue), money(g.Commission), g.ClosedMarkets)
				return nil
			}
			if _, ok := eng.Market(args[0]); !ok {
				return core.Invalid(core.ReasonNotFound, "id", "market not found")
			}
			s := eng.MarketStats(args[0])
			fmt.Fprintf(w, "revenue: %s\ncommission: %s\nexhibitors: %d\n",
				money(s.Revenue), money(s.Commission), s.Exhibitors)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status <market-id> <planned|open|closed>",
		Short: "Set the status of a market",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := eng.SetMarketStatus(args[0], core.MarketStatus(args[1]))
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	advance := &cobra.Command{
		Use:   "advance <market-id>",
		Short: "Move a market to its next status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := eng.Advance(args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	del := &cobra.Command{
		Use:   "delete <market-id>",
		Short: "Delete a market without participations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := eng.DeleteMarket(args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	participants := &cobra.Command{
		Use:   "participations <market-id>",
		Short: "List the participations of a market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout(), "ID", "EXHIBITOR", "STATUS", "REVENUE", "RATE", "COMMISSION", "PAID")
			for _, p := range eng.Participations(args[0]) {
				x, _ := eng.Exhibitor(p.ExhibitorID)
				t.row(p.ID, x.Name, p.Status, money(p.Revenue),
					strconv.FormatFloat(p.CommissionRate, 'f', -1, 64)+"%", money(p.CommissionAmount), p.Paid)
			}
			return t.flush()
		},
	}

	cmd.AddCommand(list, stats, status, advance, del, participants)
	return cmd
}

func newExhibitorsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exhibitors",
		Short: "Exhibitor statistics",
	}

	stats := &cobra.Command{
		Use:   "stats <exhibitor-id>",
		Short: "Confirmed revenue, commission and unpaid commission of an exhibitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := eng.Exhibitor(args[0]); !ok {
				return core.Invalid(core.ReasonNotFound, "id", "exhibitor not found")
			}
			s := eng.ExhibitorStats(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "exhibitor: %s\nmarkets: %d\nrevenue: %s\ncommission: %s\nunpaid: %s\n",
				s.Exhibitor.Name, s.Markets, money(s.Revenue), money(s.Commission), money(s.Unpaid))
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <exhibitor-id>",
		Short: "Delete an exhibitor without participations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := eng.DeleteExhibitor(args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	cmd.AddCommand(stats, del)
	return cmd
}

func newParticipationsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participations",
		Short: "Record exhibitor participations and collected commissions",
	}

	var (
		input market.ParticipationInput
		rate  string
	)
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Create or update a participation; the commission is derived",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			in := input
			if cmd.Flags().Changed("rate") {
				r, err := core.ParseRate(rate)
				if err != nil {
					return core.Invalid(core.ReasonInvalidValue, "commissionRate", fmt.Sprintf("commission rate must be a non-negative percentage, got %q", rate))
				}
				in.CommissionRate = &r
			}
			plan, err := eng.SubmitParticipation(in)
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}
	submit.Flags().StringVar(&input.ID, "id", "", "participation id to update (empty creates one)")
	submit.Flags().StringVar(&input.MarketID, "market", "", "market id")
	submit.Flags().StringVar(&input.ExhibitorID, "exhibitor", "", "exhibitor id")
	submit.Flags().StringVar((*string)(&input.Status), "status", "", "invited, confirmed or absent")
	submit.Flags().StringVar(&input.Revenue, "revenue", "", "declared revenue")
	submit.Flags().StringVar(&rate, "rate", "", "commission rate in percent (default: the market's rate)")
	submit.Flags().BoolVar(&input.Paid, "paid", false, "commission already collected")

	pay := &cobra.Command{
		Use:   "pay <participation-id>",
		Short: "Mark a participation's commission as collected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.marketEngine(cmd.Context())
			if err != nil {
				return err
			}
			plan, err := eng.MarkPaid(args[0])
			if err != nil {
				return err
			}
			return app.run(cmd.Context(), cmd.OutOrStdout(), plan)
		},
	}

	cmd.AddCommand(submit, pay)
	return cmd
}
