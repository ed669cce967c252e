package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/coffee-shop-api/internal/auth"
	"github.com/iliyamo/coffee-shop-api/internal/config"
	"github.com/iliyamo/coffee-shop-api/internal/database"
	"github.com/iliyamo/coffee-shop-api/internal/migrate"
	"github.com/iliyamo/coffee-shop-api/internal/queue"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(cmd.Context(), migrate.Up)
	},
}

var migrateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "drop all tables, recreate them and insert the seed drink",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("reset deletes every drink; pass --yes to confirm")
		}
		return runMigration(cmd.Context(), migrate.Reset)
	},
}

type migration func(ctx context.Context, db *sql.DB, driver string, log *zap.Logger) error

func runMigration(ctx context.Context, step migration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	return step(ctx, db, cfg.DB.Driver, logger)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "issue a development HS256 token signed with AUTH_JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Auth.Secret == "" {
			return errors.New("AUTH_JWT_SECRET is not set")
		}
		subject, _ := cmd.Flags().GetString("sub")
		perms, _ := cmd.Flags().GetStringSlice("perm")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		tok, err := auth.IssueHMACToken([]byte(cfg.Auth.Secret), auth.TokenRequest{
			Subject:     subject,
			Permissions: perms,
			TTL:         ttl,
			Issuer:      cfg.Auth.Issuer,
			Audience:    cfg.Auth.Audience,
		})
		if err != nil {
			return err
		}
		logger.Debug("token issued", zap.String("sub", subject), zap.String("perms", strings.Join(perms, ",")), zap.Time("exp", tok.Exp))
		fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
		return nil
	},
}

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "append drink events from the broker to an audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		dir, _ := cmd.Flags().GetString("dir")
		err := queue.Consume(ctx, config.AMQPURL(), queue.NewAuditLog(dir), logger)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	migrateResetCmd.Flags().Bool("yes", false, "confirm that all drinks may be deleted")
	migrateCmd.AddCommand(migrateUpCmd, migrateResetCmd)

	tokenCmd.Flags().String("sub", "dev|local", "token subject")
	tokenCmd.Flags().StringSlice("perm", []string{"get:drinks-detail", "post:drinks", "patch:drinks", "delete:drinks"}, "permissions to grant")
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")

	consumeCmd.Flags().String("dir", "logs", "directory holding drinks.log")
}
