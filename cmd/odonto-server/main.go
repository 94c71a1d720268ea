package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/odonto/internal/config"
	"github.com/ehr/odonto/internal/domain/catalog"
	"github.com/ehr/odonto/internal/domain/ledger"
	"github.com/ehr/odonto/internal/platform/db"
	"github.com/ehr/odonto/internal/platform/outbox"
	"github.com/ehr/odonto/migrations"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "odonto-server",
		Short:        "Dental clinic API server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(tenantCmd())
	root.AddCommand(relayCmd())
	root.AddCommand(ledgerCmd())
	root.AddCommand(catalogCmd())
	return root
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		AppName:     "odonto-server",
	}
}

// openPool loads the configuration and connects to PostgreSQL.
func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, pool, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	var withRelay bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return runServer(ctx, cfg, newLogger(cfg), withRelay)
		},
	}
	cmd.Flags().BoolVar(&withRelay, "relay", true, "Run the outbox relay in-process when REDIS_URL is set")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run tenant schema migrations",
	}

	var tenant string
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations to one tenant, or to every tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			tenants := []string{tenant}
			if tenant == "" {
				if tenants, err = db.ListTenants(ctx, pool); err != nil {
					return err
				}
			}
			migrator := db.NewMigrator(pool, migrations.FS)
			for _, t := range tenants {
				schema, err := db.SchemaName(t)
				if err != nil {
					return err
				}
				n, err := migrator.Up(ctx, schema)
				if err != nil {
					return fmt.Errorf("migrate %s: %w", schema, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: applied %d migration(s)\n", schema, n)
			}
			return nil
		},
	}
	upCmd.Flags().StringVar(&tenant, "tenant", "", "Tenant identifier (default: all tenants)")

	var statusTenant string
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status of a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if statusTenant == "" {
				statusTenant = cfg.DefaultTenant
			}
			schema, err := db.SchemaName(statusTenant)
			if err != nil {
				return err
			}
			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration status: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Version, s.Name, status, appliedAt)
			}
			return w.Flush()
		},
	}
	statusCmd.Flags().StringVar(&statusTenant, "tenant", "", "Tenant identifier (default: DEFAULT_TENANT)")

	cmd.AddCommand(upCmd, statusCmd)
	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage clinics",
	}

	createCmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a clinic schema and apply all migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.CreateTenantSchema(ctx, pool, args[0], db.NewMigrator(pool, migrations.FS)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %s created\n", args[0])
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List clinics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			tenants, err := db.ListTenants(ctx, pool)
			if err != nil {
				return err
			}
			for _, t := range tenants {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}

	cmd.AddCommand(createCmd, listCmd)
	return cmd
}

func relayCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Publish committed domain events to the Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			logger := newLogger(cfg)

			rdb, err := openRedis(ctx, cfg.RedisURL)
			if err != nil {
				return err
			}
			if rdb == nil {
				return fmt.Errorf("REDIS_URL is required for the relay")
			}
			defer rdb.Close()

			relay := outbox.NewRelay(outbox.NewPGStore(pool), outbox.NewRedisPublisher(rdb, outbox.DefaultStream), cfg.RelayInterval, logger)
			relay.SetRetention(cfg.OutboxRetain)
			if once {
				n, err := relay.RelayOnce(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "published %d event(s)\n", n)
				return err
			}
			return relay.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Drain once and exit")
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger tools",
	}

	var tenant, from, to, out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the transactions of a period as XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := periodFilter(from, to)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if tenant == "" {
				tenant = cfg.DefaultTenant
			}

			tctx, conn, err := db.AcquireTenant(ctx, pool, tenant)
			if err != nil {
				return err
			}
			defer conn.Release()

			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			svc := ledger.NewService(ledger.NewRepoPG(pool), nil)
			return svc.Export(tctx, f, w)
		},
	}
	exportCmd.Flags().StringVar(&tenant, "tenant", "", "Tenant identifier (default: DEFAULT_TENANT)")
	exportCmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD (inclusive)")
	exportCmd.Flags().StringVarP(&out, "output", "o", "ledger.xlsx", "Output file, - for stdout")

	cmd.AddCommand(exportCmd)
	return cmd
}

// periodFilter turns inclusive YYYY-MM-DD bounds into a ledger filter.
func periodFilter(from, to string) (ledger.Filter, error) {
	var f ledger.Filter
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return f, fmt.Errorf("invalid --from: %w", err)
		}
		f.From = &t
	}
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return f, fmt.Errorf("invalid --to: %w", err)
		}
		end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.To = &end
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, fmt.Errorf("--to is before --from")
	}
	return f, nil
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Procedure catalog tools",
	}
	var file string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the procedure catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = os.Getenv("CATALOG_FILE")
			}
			cat, err := catalog.Load(file)
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), cat)
		},
	}
	listCmd.Flags().StringVar(&file, "file", "", "Catalog YAML (default: CATALOG_FILE or the built-in list)")
	cmd.AddCommand(listCmd)
	return cmd
}

func printCatalog(out io.Writer, cat *catalog.Catalog) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGROUP\tNAME")
	for _, p := range cat.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Group, p.Name)
	}
	return w.Flush()
}
