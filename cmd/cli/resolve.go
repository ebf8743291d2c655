package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/axellelanca/qrforge/cmd"
	"github.com/axellelanca/qrforge/internal/config"
	"github.com/axellelanca/qrforge/internal/repository"
	"github.com/axellelanca/qrforge/internal/services"
)

// ResolveCmd represents the 'resolve' command, a scripted view of what
// a scanning client would get. It performs a dry lookup and records no
// analytics event.
var ResolveCmd = &cobra.Command{
	Use:   "resolve [short-code]",
	Short: "Resolve a short code and print its current content",
	Args:  cobra.ExactArgs(1),
	Run: func(cobraCmd *cobra.Command, args []string) {
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
		resolver := services.NewResolverService(codeRepo, eventRepo, newCLILogger())

		res, err := resolver.Resolve(shortCode, time.Now())
		if err != nil {
			fmt.Printf("Error resolving short code: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Outcome: %s\n", res.Outcome)
		if res.Outcome != services.OutcomeResolved {
			return
		}
		fmt.Printf("Kind: %s\n", res.Code.Kind)
		out, _ := json.MarshalIndent(res.Payload, "", "  ")
		fmt.Println(string(out))
		if res.ActiveLinks != nil {
			fmt.Printf("Active links: %d\n", len(res.ActiveLinks))
		}
	},
}

func init() {
	cmd.RootCmd.AddCommand(ResolveCmd)
}
