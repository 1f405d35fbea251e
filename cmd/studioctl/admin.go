package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"contentstudio/internal/infra"
	"contentstudio/internal/infra/credentials"
	"contentstudio/internal/middleware"
	"contentstudio/internal/sqlinline"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, _, closeDB, err := database(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		if _, err := runner.Exec(cmd.Context(), sqlinline.QCreateSchema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key <provider> <token>",
	Short: "Store a functions api key or YouTube refresh token",
	Long:  "Providers: functions, youtube.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, _, closeDB, err := database(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		props := map[string]any{"set_by": "studioctl", "set_at": time.Now().UTC().Format(time.RFC3339)}
		if err := credentials.NewStore(runner).Set(cmd.Context(), args[0], args[1], props); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s token stored\n", args[0])
		return nil
	},
}

var (
	tokenLocale string
	tokenTTL    time.Duration
)

// tokenCmd signs a bearer token for local testing against the API.
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Sign an API bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := infra.LoadLocalConfig()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required")
		}
		token, err := middleware.SignToken(cfg.JWTSecret, args[0], tokenLocale, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenLocale, "claim-locale", "", "Locale claim (en or id)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
