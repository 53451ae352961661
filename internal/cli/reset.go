package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cassa/internal/core"
	"cassa/internal/services"
)

func newResetCommand(app *App) *cobra.Command {
	var (
		confirm string
		mode    string
		amount  string
		actor   string
	)
	cmd := &cobra.Command{
		Use:   "reset <pool-id>",
		Short: "Delete every movement of a pool, optionally seeding an opening balance",
		Long: `Reset deletes every movement of the pool one by one. In seed mode a
realized opening-balance inflow is recorded afterwards.

The confirmation phrase (RESET_CONFIRMATION_PHRASE) must be typed exactly,
either with --confirm or at the prompt. A reset that fails half way is not
rolled back: review the pool afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reconciler := services.NewReconciler(app.cfg.ResetConfirmationPhrase, app.now)

			if confirm == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Type %s to reset pool %s: ", reconciler.Phrase(), args[0])
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				confirm = strings.TrimRight(line, "\r\n")
			}

			req := services.ResetRequest{
				PoolID:       args[0],
				Confirmation: confirm,
				Mode:         services.ResetMode(mode),
				ActorID:      actor,
			}
			if amount != "" {
				v, err := core.ParseAmount(amount)
				if err != nil {
					return core.Invalid(core.ReasonInvalidValue, "amount", "opening amount must be a non-negative number")
				}
				req.OpeningAmount = v
			}

			store, err := app.ledgerStore(ctx)
			if err != nil {
				return err
			}
			out, err := reconciler.ResetPool(ctx, store, app.backend.Executor, req)
			if out.PlanID == "" {
				return err
			}
			app.report(ctx, cmd.OutOrStdout(), "reset cash pool "+req.PoolID, out, err)
			return err
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation phrase")
	cmd.Flags().StringVar(&mode, "mode", string(services.ResetZero), "zero or seed")
	cmd.Flags().StringVar(&amount, "amount", "", "opening balance for seed mode")
	cmd.Flags().StringVar(&actor, "actor", "", "member id recorded on the opening movement")
	return cmd
}
