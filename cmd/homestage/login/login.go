package login

import (
	"fmt"

	"github.com/homestage-ai/staging-client/internal/auth"
	"github.com/homestage-ai/staging-client/internal/config"
	"github.com/homestage-ai/staging-client/internal/utils/randutil"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "login <user> <token>",
	Short: "Store API credentials",
	Long:  "Store the bearer token issued by the Homestage dashboard; anonymous usage falls back to demo mode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustGetConfig()

		store := auth.NewStore(cfg.HomeDir)
		if err := store.Save(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to store credentials: %w", err)
		}

		fmt.Printf("logged in as %s (%s)\n", args[0], randutil.MaskString(args[1], 4, 4))
		return nil
	},
}

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored API credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustGetConfig()

		store := auth.NewStore(cfg.HomeDir)
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}

		fmt.Println("logged out")
		return nil
	},
}
