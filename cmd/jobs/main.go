package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/devconnect/backend/internal/jobs"
	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/internal/scheduler"
	"github.com/devconnect/backend/pkg/config"
	"github.com/devconnect/backend/pkg/email"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "devconnect-jobs",
		Short: "Run DevConnect background jobs once",
	}
	rootCmd.AddCommand(digestCmd())
	rootCmd.AddCommand(cleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Email users a summary of their unread notifications from the last 24 hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB) scheduler.Job {
				return jobs.NewDigestJob(
					repositories.NewPostgresNotificationRepository(db),
					repositories.NewPostgresUserRepository(db),
					email.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPSender, cfg.SMTPPassword),
				).WithSiteURL(cfg.SiteURL)
			})
		},
	}
}

func cleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete notifications that were read more than --days ago",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB) scheduler.Job {
				if !cmd.Flags().Changed("days") {
					days = cfg.RetentionDays
				}
				return jobs.NewRetentionJob(repositories.NewPostgresNotificationRepository(db), days)
			})
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", jobs.DefaultRetentionDays, "Retention period in days")
	return cmd
}

func withDB(build func(*config.Config, *gorm.DB) scheduler.Job) error {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	db, err := config.InitPostgres(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()
	if err := db.Postgres.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return scheduler.RunOnce(ctx, build(cfg, db.Postgres))
}
