package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cassa/internal/backend"
	"cassa/internal/config"
	"cassa/internal/core"
	"cassa/internal/ledger"
	"cassa/internal/log"
	"cassa/internal/market"
	"cassa/internal/services"
)

// skipBackend marks commands that open the database themselves.
const skipBackend = "skip-backend"

// App is the state shared by every command of one invocation.
type App struct {
	cfg     *config.Config
	logger  *log.Logger
	backend *backend.BackendResult
	owned   bool
	now     core.Clock
}

// Option configures an App before the command tree runs.
type Option func(*App)

// WithConfig skips loading the configuration from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) { a.cfg = cfg }
}

// WithBackend runs commands against an already built backend.
func WithBackend(b *backend.BackendResult) Option {
	return func(a *App) { a.backend = b }
}

// WithClock replaces the wall clock.
func WithClock(now core.Clock) Option {
	return func(a *App) { a.now = now }
}

// NewApp applies opts to a fresh App.
func NewApp(opts ...Option) *App {
	app := &App{now: core.SystemClock}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// NewRootCommand builds the cassa command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	return NewApp(opts...).Command()
}

// Command builds the cassa command tree bound to a.
func (a *App) Command() *cobra.Command {
	app := a
	root := &cobra.Command{
		Use:   "cassa",
		Short: "Cash-register ledger and market commission engine",
		Long: `Cassa keeps the movements of one or more cash pools, computes their
realized and provisional balances, and tracks exhibitor revenue and
commissions at markets.

Configuration comes from the environment (and a .env file when present):
DATA_BACKEND, SQLITE_DB_PATH, SEED_FILE, AMQP_URL, LOG_LEVEL, APP_ENV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd)
		},
	}

	root.AddCommand(
		newPoolsCommand(app),
		newMovementsCommand(app),
		newStatsCommand(app),
		newCategoriesCommand(app),
		newMembersCommand(app),
		newResetCommand(app),
		newMarketsCommand(app),
		newExhibitorsCommand(app),
		newParticipationsCommand(app),
		newMigrateCommand(app),
		newImportCommand(app),
	)
	return root
}

// Execute runs the command tree and prints a failure for the user.
func Execute() int {
	app := NewApp()
	err := app.Command().Execute()
	if cerr := app.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, Describe(err))
		return 1
	}
	return 0
}

// Describe renders err the way it is shown to a user: engine errors by their
// message and reason code, partial failures with their details.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, core.ErrPartialFailure) {
		return fmt.Sprintf("%s\n%v", core.UserMessage(err), err)
	}
	if code, ok := core.Code(err); ok {
		return fmt.Sprintf("%s [%s]", core.UserMessage(err), code)
	}
	return err.Error()
}

func (a *App) init(cmd *cobra.Command) error {
	if a.cfg == nil {
		LoadEnvFile()
		cfg, err := LoadAndValidateConfig()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logger == nil {
		logger, err := SetupLogger(cmd.ErrOrStderr(), a.cfg, log.ComponentCLI)
		if err != nil {
			return err
		}
		a.logger = logger
	}
	cmd.SetContext(log.WithLogger(cmd.Context(), a.logger))

	if a.backend != nil || cmd.Annotations[skipBackend] == "true" {
		return nil
	}
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(a.logger.Logger).CreateBackend(cmd.Context(), bcfg)
	if err != nil {
		return err
	}
	a.backend = res
	a.owned = true
	return nil
}

// Close releases the backend when the App built it.
func (a *App) Close() error {
	if !a.owned {
		return nil
	}
	a.owned = false
	return a.backend.Close()
}

func (a *App) ledgerStore(ctx context.Context) (*ledger.Store, error) {
	snap, err := a.backend.Store.LoadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return ledger.NewStore(snap), nil
}

func (a *App) calculator(ctx context.Context) (*ledger.Calculator, error) {
	store, err := a.ledgerStore(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.NewCalculator(store, a.now), nil
}

func (a *App) marketEngine(ctx context.Context) (*market.Engine, error) {
	snap, err := a.backend.Store.LoadMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}
	return market.NewEngine(snap, a.now), nil
}

// queued reports whether intents go to a worker instead of the store.
func (a *App) queued() bool {
	return a.backend.Executor != core.Executor(a.backend.Store)
}

// run executes plan and reports what happened on w.
func (a *App) run(ctx context.Context, w io.Writer, plan core.Plan) error {
	out, err := services.Run(ctx, a.backend.Executor, plan)
	a.report(ctx, w, plan.Summary, out, err)
	return err
}

func (a *App) report(ctx context.Context, w io.Writer, summary string, out services.Outcome, err error) {
	fields := log.NewFields().
		WithPlan(core.Plan{ID: out.PlanID, Summary: summary}).
		WithCounts(out.Succeeded, out.Failed, out.Skipped).
		WithError(err)
	if err != nil {
		a.logger.WarnContext(ctx, "Plan finished with failures", fields.ToSlice()...)
	} else {
		a.logger.InfoContext(ctx, "Plan executed", fields.ToSlice()...)
	}

	verb := "applied"
	if a.queued() {
		// The worker changes the store after we return.
		a.backend.Invalidate()
		verb = "queued"
	}
	fmt.Fprintf(w, "%s: %d %s, %d failed, %d skipped (plan %s)\n",
		summary, out.Succeeded, verb, out.Failed, out.Skipped, out.PlanID)
}
