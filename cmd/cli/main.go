package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/walletledger/internal/app"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/logger"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
)

var timeout time.Duration

// loadConfig and openServices are replaced in tests.
var (
	loadConfig = config.Load

	openServices = func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app.Services, func(), error) {
		storage, err := app.OpenStorage(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return app.NewServices(storage, log, metrics.New(nil), nil), storage.Close, nil
	}

	newMigrator = func(cfg *config.Config, log zerolog.Logger) migrator {
		return postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log)
	}
)

type migrator interface {
	Up() error
	Down(steps int) error
	Version() (uint, bool, error)
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "walletledger-cli",
		Short:         "WalletLedger admin tool",
		Long:          `Maintenance commands for the WalletLedger database: migrations, snapshot rebuilds and reconciliation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall command timeout")

	root.AddCommand(migrateCmd(), snapshotsCmd(), reconcileCmd(), balancesCmd())
	return root
}

func commandLogger(cfg *config.Config) zerolog.Logger {
	return logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console", Service: "walletledger-cli"}, os.Stderr)
}

// withServices loads configuration, opens storage and runs fn with the
// wired use cases.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, services *app.Services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	services, closeFn, err := openServices(ctx, cfg, commandLogger(cfg))
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, services)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	withMigrator := func(fn func(m migrator) error) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		return fn(newMigrator(cfg, commandLogger(cfg)))
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				fmt.Println("migrations applied")
				return nil
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m migrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				fmt.Printf("rolled back %d migration(s)\n", max(steps, 1))
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Printf("version: %d dirty: %v\n", v, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Daily balance snapshot maintenance",
	}

	var owner string
	recompute := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild every snapshot of an owner's accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, services *app.Services) error {
				n, err := services.Snapshots.RecomputeAll(ctx, owner)
				if err != nil {
					return err
				}
				fmt.Printf("wrote %d snapshot(s) for %s\n", n, owner)
				return nil
			})
		},
	}
	recompute.Flags().StringVar(&owner, "owner", "", "Owner user ID")
	_ = recompute.MarkFlagRequired("owner")

	cmd.AddCommand(recompute)
	return cmd
}

func reconcileCmd() *cobra.Command {
	var (
		owner  string
		repair bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare today's snapshots with balances computed from transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, services *app.Services) error {
				results, err := services.Reconciliation.ReconcileOwner(ctx, owner, repair)
				if err != nil {
					return err
				}
				if asJSON {
					printJSON(results)
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ACCOUNT\tSNAPSHOT\tCALCULATED\tDIFFERENCE\tSTATUS")
				for _, r := range results {
					status := "ok"
					switch {
					case r.MissingSnapshot:
						status = "missing"
					case !r.IsReconciled:
						status = "drift"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						truncate(r.AccountID, 28), r.SnapshotBalance.StringFixed(2),
						r.CalculatedBalance.StringFixed(2), r.Difference.StringFixed(2), status)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner user ID")
	cmd.Flags().BoolVar(&repair, "repair", false, "Rebuild snapshots of accounts that drifted")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func balancesCmd() *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "List the accounts a user can read with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, services *app.Services) error {
				summaries, err := services.Balances.ListAccounts(ctx, actor)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE\tAVAILABLE")
				for _, s := range summaries {
					available := "-"
					if s.AvailableLimit != nil {
						available = s.AvailableLimit.StringFixed(2)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						truncate(s.Account.ID, 28), truncate(s.Account.Name, 24), s.Account.Type,
						s.Balance.StringFixed(2), available)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&actor, "user", "", "User ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to encode output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
