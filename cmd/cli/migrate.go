package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/axellelanca/qrforge/cmd"
	"github.com/axellelanca/qrforge/internal/config"
	"github.com/axellelanca/qrforge/internal/models"
)

// MigrateCmd represents the 'migrate' command.
// This command handles database schema creation and updates.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command connects to the configured database (SQLite)
and executes GORM automatic migrations to create the scannable code and
analytics event tables based on the Go models.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, closeDB, err := openDatabase(cfg)
		if err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		defer closeDB()

		if err := db.AutoMigrate(&models.ScannableCode{}, &models.AnalyticsEvent{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		fmt.Println("Database migrations executed successfully.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
