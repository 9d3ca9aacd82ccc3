package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezkam/taskly/internal/application/auth"
	"github.com/rezkam/taskly/internal/config"
	"github.com/rezkam/taskly/internal/infrastructure/keygen"
	"github.com/rezkam/taskly/internal/infrastructure/persistence"
)

// Default values for the API key format.
const (
	defaultKeyType     = "sk"
	defaultServiceName = "taskly"
	defaultVersion     = "v1"
)

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	cmd.AddCommand(newAPIKeyCreateCmd())
	return cmd
}

func newAPIKeyCreateCmd() *cobra.Command {
	var (
		userID string
		name   string
		days   int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for a user; the key is printed once",
		Example: `  taskctl apikey create --user user-42 --name laptop
  taskctl apikey create --user user-42 --name ci --days 30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			if days < 0 {
				return fmt.Errorf("--days must be >= 0 (0 = never expires)")
			}

			cfg, err := config.LoadCLIConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := persistence.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			var expiresAt *time.Time
			if days > 0 {
				expiry := time.Now().UTC().AddDate(0, 0, days)
				expiresAt = &expiry
			}

			key, err := auth.CreateAPIKey(ctx, store, auth.CreateAPIKeyParams{
				UserID:    userID,
				KeyType:   defaultKeyType,
				Service:   defaultServiceName,
				Version:   defaultVersion,
				Name:      name,
				ExpiresAt: expiresAt,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:    %s\n", userID)
			fmt.Fprintf(out, "Name:    %s\n", name)
			if expiresAt != nil {
				fmt.Fprintf(out, "Expires: %s\n", expiresAt.Format(time.RFC3339))
			} else {
				fmt.Fprintln(out, "Expires: never")
			}
			fmt.Fprintf(out, "API key: %s\n", key)
			if parts, err := keygen.ParseAPIKey(key); err == nil {
				fmt.Fprintf(out, "Display: %s\n", parts.GetDisplayKey())
			}
			fmt.Fprintln(out, "Save this key now; it will not be shown again.")
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owning user ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "description of the key")
	cmd.Flags().IntVar(&days, "days", 0, "days until expiration (0 = never expires)")
	return cmd
}
