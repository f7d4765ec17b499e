package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"kakeibo/internal/backend"
	"kakeibo/internal/calendar"
	"kakeibo/internal/core"
	"kakeibo/internal/log"
	"kakeibo/internal/services"
	"kakeibo/internal/session"
	"kakeibo/internal/viewmodel"
)

// Defaults seeds the persistent flags of the CLI.
type Defaults struct {
	DBPath    string
	SeedFile  string
	WeekStart string
}

// App is the kakeibo-cli command tree.
type App struct {
	rootCmd *cobra.Command
	logger  *log.Logger
	out     io.Writer
	today   func() core.Date

	dbPath    string
	seedFile  string
	weekStart string
}

// ledgerEnv is what one command invocation works against.
type ledgerEnv struct {
	ledger    *services.LedgerService
	views     *viewmodel.ViewModel
	weekStart time.Weekday
	close     func()
}

// NewApp creates the CLI application.
func NewApp(logger *log.Logger, defaults Defaults) *App {
	app := &App{
		logger: logger.WithComponent(log.ComponentCLI),
		out:    os.Stdout,
		today:  core.Today,
	}

	rootCmd := &cobra.Command{
		Use:           "kakeibo-cli",
		Short:         "Household ledger from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&app.dbPath, "db", defaults.DBPath, "Path to the SQLite ledger database")
	rootCmd.PersistentFlags().StringVar(&app.seedFile, "seed", defaults.SeedFile, "Read entries from a JSON file into memory instead of the database")
	rootCmd.PersistentFlags().StringVarP(&app.weekStart, "week-start", "w", defaults.WeekStart, "First weekday of calendar rows")

	rootCmd.AddCommand(
		app.addCmd(),
		app.listCmd(),
		app.calendarCmd(),
		app.summaryCmd(),
		app.categoryCmd(),
		app.deleteCmd(),
	)

	app.rootCmd = rootCmd
	return app
}

// SetOutput redirects command output, used by tests.
func (app *App) SetOutput(w io.Writer) {
	app.out = w
	app.rootCmd.SetOut(w)
	app.rootCmd.SetErr(w)
}

// Execute runs the CLI application with os.Args.
func (app *App) Execute() error {
	return app.rootCmd.Execute()
}

// ExecuteContext runs the CLI with args, ignoring os.Args.
func (app *App) ExecuteContext(ctx context.Context, args ...string) error {
	app.rootCmd.SetArgs(args)
	return app.rootCmd.ExecuteContext(ctx)
}

func (app *App) open(ctx context.Context) (*ledgerEnv, error) {
	weekStart, err := calendar.ParseWeekday(app.weekStart)
	if err != nil {
		return nil, err
	}

	cfg := backend.Config{Type: backend.SQLiteBackend, SQLiteDBPath: app.dbPath}
	if app.seedFile != "" {
		cfg = backend.Config{Type: backend.MemoryBackend, SeedFile: app.seedFile}
	}
	res, err := OpenBackend(ctx, app.logger, cfg)
	if err != nil {
		return nil, err
	}

	sess := session.New(res.Backend, session.Options{Month: core.MonthOf(app.today()), WeekStart: weekStart})
	views := viewmodel.New(sess, viewmodel.Options{Logger: app.logger.Logger})

	return &ledgerEnv{
		ledger:    services.NewLedgerService(res.Backend, sess, nil),
		views:     views,
		weekStart: weekStart,
		close: func() {
			views.Close()
			if err := res.Close(); err != nil {
				app.logger.Warn("Failed to close backend", "error", err)
			}
		},
	}, nil
}

// withLedger opens the backend for the duration of fn.
func (app *App) withLedger(cmd *cobra.Command, fn func(ctx context.Context, env *ledgerEnv) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer env.close()
	return fn(ctx, env)
}

// monthArg parses args[i] as YYYY-MM, defaulting to the current month.
func (app *App) monthArg(args []string, i int) (core.Month, error) {
	if len(args) <= i {
		return core.MonthOf(app.today()), nil
	}
	return core.ParseMonth(args[i])
}

func (app *App) screens(ctx context.Context, env *ledgerEnv, args []string, i int) (viewmodel.Screens, error) {
	month, err := app.monthArg(args, i)
	if err != nil {
		return viewmodel.Screens{}, err
	}
	return env.views.ScreensFor(ctx, month, env.weekStart)
}

func (app *App) addCmd() *cobra.Command {
	var in services.EntryInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Date == "" {
				in.Date = app.today().String()
			}
			e, err := in.Parse()
			if err != nil {
				return err
			}
			return app.withLedger(cmd, func(ctx context.Context, env *ledgerEnv) error {
				added, err := env.ledger.AddEntry(ctx, e)
				if err != nil {
					return err
				}
				fmt.Fprint(app.out, pterm.Success.Sprintfln("Added %s %s %s on %s (%s)",
					added.Category.DisplayName(), added.Kind, core.FormatYen(added.Signed()), added.Date, added.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&in.Date, "date", "d", "", "Entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&in.Category, "category", "c", "", "Category")
	cmd.Flags().StringVarP(&in.Kind, "kind", "k", string(core.Expense), "income or expense")
	cmd.Flags().StringVarP(&in.Amount, "amount", "a", "", "Amount in yen")
	cmd.Flags().StringVarP(&in.Memo, "memo", "m", "", "Free-form note")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (app *App) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [month]",
		Short: "List the entries of a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := app.monthArg(args, 0)
			if err != nil {
				return err
			}
			return app.withLedger(cmd, func(ctx context.Context, env *ledgerEnv) error {
				entries, err := env.ledger.ListMonth(ctx, month)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprint(app.out, pterm.Info.Sprintfln("No entries in %s", month.Title()))
					return nil
				}

				var total core.DayTotal
				data := pterm.TableData{{"ID", "Date", "Category", "Kind", "Amount", "Memo"}}
				for _, e := range entries {
					total.Add(e)
					data = append(data, []string{
						e.ID.String()[:8],
						e.Date.String(),
						e.Category.DisplayName(),
						e.Kind.String(),
						core.FormatYen(e.Signed()),
						e.Memo,
					})
				}
				data = append(data, []string{"", "", "", "Total", core.FormatYen(total.Balance), fmt.Sprintf("%d entries", total.Count)})
				return app.printTable(month.Title(), data)
			})
		},
	}
}

func (app *App) calendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [month]",
		Short: "Print the month calendar with daily balances",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLedger(cmd, func(ctx context.Context, env *ledgerEnv) error {
				s, err := app.screens(ctx, env, args, 0)
				if err != nil {
					return err
				}
				cal := s.Calendar

				data := pterm.TableData{cal.Weekdays}
				for _, week := range cal.Weeks {
					row := make([]string, len(week))
					for i, day := range week {
						row[i] = calendarCell(day)
					}
					data = append(data, row)
				}
				if err := app.printTable(cal.Title, data); err != nil {
					return err
				}
				app.printHeader(cal.Header)
				return nil
			})
		},
	}
}

// calendarCell shows spill-over days in parentheses and appends the day's
// balance when there is one.
func calendarCell(day viewmodel.CalendarDay) string {
	label := fmt.Sprintf("%d", day.Day)
	if !day.InDisplayedMonth {
		label = "(" + label + ")"
	}
	if day.BalanceText != "" {
		label += " " + day.BalanceText
	}
	return label
}

func (app *App) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [month]",
		Short: "Print income and expense per category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withLedger(cmd, func(ctx context.Context, env *ledgerEnv) error {
				s, err := app.screens(ctx, env, args, 0)
				if err != nil {
					return err
				}
				graph := s.Graph

				data := pterm.TableData{{"Category", "Income", "Expense", "Balance", "Share %"}}
				for _, r := range graph.Rows {
					data = append(data, []string{
						r.Name,
						core.FormatYen(r.Income),
						core.FormatYen(r.Expense),
						core.FormatYen(r.Balance),
						r.Share.StringFixed(2),
					})
				}
				if err := app.printTable(graph.Title, data); err != nil {
					return err
				}
				app.printHeader(graph.Header)
				return nil
			})
		},
	}
}

func (app *App) categoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category <name> [month]",
		Short: "Print one category's entries grouped by day",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := core.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return app.withLedger(cmd, func(ctx context.Context, env *ledgerEnv) error {
				s, err := app.screens(ctx, env, args, 1)
				if err != nil {
					return err
				}
				cs := s.Category(cat)
				if len(cs.Sections) == 0 {
					fmt.Fprint(app.out, pterm.Info.Sprintfln("No %s entries in %s", cs.Name, s.Month.Title()))
					return nil
				}

				data := pterm.TableData{{"Day", "Kind", "Amount", "Memo"}}
				for _, sec := range cs.Sections {
					data = append(data, []string{sec.Label, "", sec.BalanceText, ""})
					for _, r := range sec.Rows {
						data = append(data, []string{"", r.Kind.String(), core.FormatYen(r.Signed), r.Memo})
					}
				}
				data = append(data, []string{"Total", "", core.FormatYen(cs.Total.Balance), fmt.Sprintf("%d entries", cs.Total.Count)})
				return app.printTable(cs.Title, data)
			})
		},
	}
}

func (app *App) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid entry id %q: %w", args[0], err)
			}
			return app.withLedger(cmd, func(ctx context.Context, env *ledgerEnv) error {
				if err := env.ledger.DeleteEntry(ctx, id); err != nil {
					return err
				}
				fmt.Fprint(app.out, pterm.Success.Sprintfln("Deleted %s", id))
				return nil
			})
		},
	}
}

func (app *App) printTable(title string, data pterm.TableData) error {
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(app.out, pterm.DefaultSection.Sprint(title))
	fmt.Fprintln(app.out, rendered)
	return nil
}

func (app *App) printHeader(h viewmodel.BalanceText) {
	fmt.Fprint(app.out, pterm.Info.Sprintfln("Income %s  Expense %s  Balance %s", h.IncomeText, h.ExpenseText, h.BalanceText))
}
