package main

import (
	"fmt"

	"whisk-system/config"
	"whisk-system/internal/database"
	user "whisk-system/internal/services/user/handler"
	sysutils "whisk-system/internal/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func openDB() (config.Config, *gorm.DB, error) {
	cfg := config.LoadConfig()
	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		return cfg, nil, fmt.Errorf("connect to db: %w", err)
	}
	return cfg, db, nil
}

func newBackfillCmd() *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "backfill-invoice-numbers",
		Short: "Renumber every invoice PREFIX-NN in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			if prefix == "" {
				prefix = cfg.Shop.InvoicePrefix
			}
			n, err := database.BackfillInvoiceNumbers(db, prefix)
			if err != nil {
				return fmt.Errorf("backfill: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renumbered %d invoices.\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "invoice number prefix (default from shop profile)")
	return cmd
}

func newCreateUserCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Add an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			h := user.NewUserHandler(db, sysutils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
			u, err := h.CreateUser(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d).\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
