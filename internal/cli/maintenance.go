package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"quiztaker/internal/config"
	"quiztaker/internal/domain"
	"quiztaker/internal/identity"
	"quiztaker/internal/infra/memory"
)

// NewSeedCmd writes the demo quizzes into the configured record store.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.StoreDriver() == config.DriverMemory {
				return fmt.Errorf("seed needs a persistent store (postgres or sqlite)")
			}
			store, closeStore, err := openRecordStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			for _, quiz := range memory.SampleQuizzes() {
				if err := store.SaveQuiz(ctx, quiz); err != nil {
					return fmt.Errorf("seed %s: %w", quiz.ID, err)
				}
				slog.InfoContext(ctx, "seed: quiz saved", "quiz", quiz.ID, "questions", len(quiz.Questions))
			}
			return nil
		},
	}
}

// NewCleanupAnonymousCmd deletes sessions recorded without a user.
func NewCleanupAnonymousCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-anonymous",
		Short: "Delete quiz sessions that have no user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, closeStore, err := openRecordStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			deleted, err := store.DeleteAnonymousSessions(ctx)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "cleanup: anonymous sessions deleted", "count", deleted)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d anonymous sessions\n", deleted)
			return nil
		},
	}
}

// NewTokenCmd signs a bearer token for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with the configured identity secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			token, err := identity.NewVerifier(cfg.Identity.JWTSecret).Issue(domain.User{ID: userID, Email: email}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
