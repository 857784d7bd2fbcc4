// Command hosctl runs one-shot operator tasks against the fleet HOS engine:
// schema migrations, alert publishing, violation recording and token issuing.
//
// Usage:
//
//	hosctl migrate [-down]
//	hosctl alerts -company=<uuid>
//	hosctl record-violations -company=<uuid> [-date=YYYY-MM-DD]
//	hosctl token -company=<uuid> [-user=<uuid>] [-ttl=24h]
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pkordes/fleet-hos/internal/app"
	"github.com/pkordes/fleet-hos/internal/config"
	"github.com/pkordes/fleet-hos/internal/domain"
	"github.com/pkordes/fleet-hos/internal/middleware"
	"github.com/pkordes/fleet-hos/internal/notify"
	"github.com/pkordes/fleet-hos/migrations"
)

const usage = `usage: hosctl <command> [flags]

commands:
  migrate             apply (or with -down, roll back one) schema migration
  alerts              publish predictive alerts for a company to AMQP
  record-violations   persist a company's HOS violations for a day
  token               issue a bearer token scoped to a company`

var errUsage = errors.New(usage)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("hosctl failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, log *slog.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch cmd {
	case "migrate":
		return migrate(ctx, cfg, args, stdout)
	case "alerts":
		return publishAlerts(ctx, cfg, args, stdout, log)
	case "record-violations":
		return recordViolations(ctx, cfg, args, stdout, log)
	case "token":
		return issueToken(cfg, args, stdout)
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}

func migrate(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	down := fs.Bool("down", false, "roll back the most recent migration")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migrate: open: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if *down {
		res, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("migrate: down: %w", err)
		}
		fmt.Fprintf(stdout, "rolled back %s\n", res.Source.Path)
		return nil
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: up: %w", err)
	}
	for _, res := range results {
		fmt.Fprintf(stdout, "applied %s (%s)\n", res.Source.Path, res.Duration)
	}
	if len(results) == 0 {
		fmt.Fprintln(stdout, "schema is up to date")
	}
	return nil
}

func publishAlerts(ctx context.Context, cfg config.Config, args []string, stdout io.Writer, log *slog.Logger) error {
	fs := flag.NewFlagSet("alerts", flag.ContinueOnError)
	company := fs.String("company", "", "company uuid")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tenant, err := parseTenant(*company, "")
	if err != nil {
		return err
	}
	if cfg.AMQP.URL == "" {
		return errors.New("alerts: required environment variables not set: AMQP_URL")
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	set, err := a.Fleet.GetPredictiveAlerts(ctx, tenant)
	if err != nil {
		return fmt.Errorf("alerts: %w", err)
	}

	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		return fmt.Errorf("alerts: connect to rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("alerts: open channel: %w", err)
	}
	defer ch.Close()

	if err := notify.DeclareTopology(ch, cfg.AMQP.Exchange); err != nil {
		return fmt.Errorf("alerts: %w", err)
	}

	n, err := notify.NewAlertPublisher(ch, cfg.AMQP.Exchange, cfg.AMQP.PublishTimeout, log).Publish(ctx, tenant, set.Alerts)
	if err != nil {
		return fmt.Errorf("alerts: published %d of %d: %w", n, len(set.Alerts), err)
	}
	fmt.Fprintf(stdout, "published %d alerts (%d drivers skipped)\n", n, len(set.Skipped))
	return nil
}

func recordViolations(ctx context.Context, cfg config.Config, args []string, stdout io.Writer, log *slog.Logger) error {
	fs := flag.NewFlagSet("record-violations", flag.ContinueOnError)
	company := fs.String("company", "", "company uuid")
	dateStr := fs.String("date", "", "day to record, YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tenant, err := parseTenant(*company, "")
	if err != nil {
		return err
	}
	var date time.Time
	if *dateStr != "" {
		if date, err = time.Parse(time.DateOnly, *dateStr); err != nil {
			return fmt.Errorf("record-violations: -date must be YYYY-MM-DD: %w", err)
		}
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	n, skipped, err := a.Fleet.RecordViolations(ctx, tenant, date)
	if err != nil {
		return fmt.Errorf("record-violations: %w", err)
	}
	reportRecorded(stdout, n, skipped)
	return nil
}

// reportRecorded prints the run summary and one line per skipped driver.
func reportRecorded(w io.Writer, n int, skipped []uuid.UUID) {
	fmt.Fprintf(w, "recorded %d violations\n", n)
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "skipped %d drivers whose hours could not be computed:\n", len(skipped))
	for _, id := range skipped {
		fmt.Fprintf(w, "  %s\n", id)
	}
}

func issueToken(cfg config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	company := fs.String("company", "", "company uuid")
	user := fs.String("user", "", "user uuid (optional)")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("token: required environment variables not set: JWT_SECRET")
	}
	if *ttl <= 0 {
		return errors.New("token: -ttl must be positive")
	}
	tenant, err := parseTenant(*company, *user)
	if err != nil {
		return err
	}

	tok, err := middleware.SignTenantToken([]byte(cfg.JWTSecret), tenant, *ttl)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	fmt.Fprintln(stdout, tok)
	return nil
}

func parseTenant(company, user string) (domain.Tenant, error) {
	var t domain.Tenant
	if company == "" {
		return t, errors.New("-company is required")
	}
	id, err := uuid.Parse(company)
	if err != nil {
		return t, fmt.Errorf("-company must be a uuid: %w", err)
	}
	t.CompanyID = id
	if user != "" {
		if t.UserID, err = uuid.Parse(user); err != nil {
			return t, fmt.Errorf("-user must be a uuid: %w", err)
		}
	}
	return t, t.Validate()
}
