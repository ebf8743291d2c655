package cli

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/axellelanca/qrforge/cmd"
	"github.com/axellelanca/qrforge/internal/api"
	"github.com/axellelanca/qrforge/internal/config"
)

var (
	tokenOwnerFlag string
	tokenTTLFlag   time.Duration
)

// TokenCmd represents the 'token' command: it signs a bearer token for
// an owner so the management API can be exercised from scripts.
var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the management API",
	Run: func(cobraCmd *cobra.Command, args []string) {
		if tokenOwnerFlag == "" {
			fmt.Println("Error: --owner flag is required")
			os.Exit(1)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		token, err := api.IssueToken(cfg.Auth.JWTSecret, tokenOwnerFlag, tokenTTLFlag)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	TokenCmd.Flags().StringVar(&tokenOwnerFlag, "owner", "", "Owner identifier embedded in the token")
	TokenCmd.Flags().DurationVar(&tokenTTLFlag, "ttl", 24*time.Hour, "Token lifetime")
	cmd.RootCmd.AddCommand(TokenCmd)
}
