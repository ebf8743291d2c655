package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/qrforge/cmd"
	"github.com/axellelanca/qrforge/internal/config"
	"github.com/axellelanca/qrforge/internal/qrencode"
	"github.com/axellelanca/qrforge/internal/repository"
	"github.com/axellelanca/qrforge/internal/services"
)

// StatsCmd represents the 'stats' command.
var StatsCmd = &cobra.Command{
	Use:   "stats [short-code]",
	Short: "Get scan statistics for a dynamic code",
	Long:  `Get scan statistics for the provided short code.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	cmd.RootCmd.AddCommand(StatsCmd)
}

func runStats(cobraCmd *cobra.Command, args []string) {
	shortCode := args[0]

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, closeDB, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer closeDB()

	codeRepo := repository.NewCodeRepository(db)
	eventRepo := repository.NewEventRepository(db)
	encoder := qrencode.NewEncoder(cfg.QR.DefaultSizePx)
	codeService := services.NewCodeService(codeRepo, eventRepo, encoder, newCLILogger(), cfg.Server.BaseURL, cfg.ShortCode.Length)

	stats, err := codeService.GetCodeStats(shortCode)
	if err != nil {
		fmt.Printf("Error retrieving statistics: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Statistics for short code: %s\n", shortCode)
	fmt.Printf("Kind: %s\n", stats.Code.Kind)
	fmt.Printf("Status: %s\n", stats.Code.Status)
	fmt.Printf("Total scans: %d\n", stats.TotalScans)
	fmt.Printf("Unique visitors: %d\n", stats.UniqueVisitors)
	fmt.Printf("Link clicks: %d\n", stats.LinkClicks)
	if stats.Code.LastScannedAt != nil {
		fmt.Printf("Last scanned: %s\n", stats.Code.LastScannedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Created: %s\n", stats.Code.CreatedAt.Format("2006-01-02 15:04:05"))
}
