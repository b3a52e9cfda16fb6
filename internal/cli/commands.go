package cli

import (
	"errors"
	"fmt"

	"petstop/backend/internal/repository"
	"petstop/backend/pkg/config"
	"petstop/backend/pkg/jwt"
	"petstop/backend/pkg/ratelimit"
	"petstop/backend/pkg/secrets"
	sharedredis "petstop/backend/shared/redis"

	"github.com/spf13/cobra"
)

// NewMigrateCommand runs the gorm schema migration against PostgreSQL
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if rt.cfg.Database.Driver != "postgres" {
				return fmt.Errorf("migrate needs DB_DRIVER=postgres, got %q", rt.cfg.Database.Driver)
			}

			db, err := config.NewDB(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			if err := repository.AutoMigrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			_, _ = fmt.Fprintln(rt.writer, "schema migrated")
			return nil
		},
	}
}

// NewTokenCommand issues an identity token signed with the secret the server verifies with
func NewTokenCommand() *cobra.Command {
	var userID uint

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a token for a user ID (local testing)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if userID == 0 {
				return errors.New("--user-id must be a positive integer")
			}

			if err := secrets.ResolveFromConfig(cmd.Context(), rt.cfg, rt.log); err != nil {
				return err
			}
			tokens, err := jwt.NewService(rt.cfg.JWT.Secret, rt.cfg.JWT.Expiry)
			if err != nil {
				return err
			}
			token, err := tokens.GenerateToken(userID)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(rt.writer, token)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user-id", 0, "Subject of the token")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

// NewRateLimitCommand groups attempt counter administration
func NewRateLimitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage attempt counters",
	}
	cmd.AddCommand(newRateLimitResetCommand())
	return cmd
}

func newRateLimitResetCommand() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear a client key in every endpoint class",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if rt.cfg.RateLimit.Store != "redis" {
				return errors.New("reset needs RATE_LIMIT_STORE=redis; in-memory counters live inside the server process")
			}

			client, err := sharedredis.NewClient(cmd.Context(), sharedredis.Options{
				Addr:     rt.cfg.Redis.Addr,
				Password: rt.cfg.Redis.Password,
				DB:       rt.cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			policy := ratelimit.Policy{MaxAttempts: rt.cfg.RateLimit.MaxAttempts, Window: rt.cfg.RateLimit.Window}
			limiter := ratelimit.New(ratelimit.NewRedisStore(client, rt.cfg.RateLimit.KeyPrefix), map[ratelimit.Class]ratelimit.Policy{
				ratelimit.ClassSignup: policy,
				ratelimit.ClassLogin:  policy,
			}, ratelimit.WithLogger(rt.log))

			if err := limiter.Reset(cmd.Context(), key); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(rt.writer, "reset attempts for %s\n", key)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Client key, usually the client IP")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
