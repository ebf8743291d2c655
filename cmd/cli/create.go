package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/qrforge/cmd"
	"github.com/axellelanca/qrforge/internal/config"
	"github.com/axellelanca/qrforge/internal/content"
	"github.com/axellelanca/qrforge/internal/models"
	"github.com/axellelanca/qrforge/internal/qrencode"
	"github.com/axellelanca/qrforge/internal/repository"
	"github.com/axellelanca/qrforge/internal/services"
)

var (
	kindFlag        string
	modeFlag        string
	payloadFlag     string
	payloadFileFlag string
	outputFlag      string
	ownerFlag       string
)

// CreateCmd represents the 'create' command.
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates a scannable code from a typed content payload.",
	Long: `This command validates a content payload, generates the QR code and
prints the short code for dynamic codes.

Examples:
  qrforge create --kind url --payload '{"url":"https://example.com"}'
  qrforge create --kind wifi --mode static --payload-file wifi.json --output wifi.png`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		if kindFlag == "" {
			fmt.Println("Error: --kind flag is required")
			os.Exit(1)
		}

		raw := []byte(payloadFlag)
		if payloadFileFlag != "" {
			var err error
			raw, err = os.ReadFile(payloadFileFlag)
			if err != nil {
				fmt.Printf("Error: cannot read payload file: %v\n", err)
				os.Exit(1)
			}
		}
		if len(raw) == 0 {
			fmt.Println("Error: --payload or --payload-file is required")
			os.Exit(1)
		}

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

		code, err := codeService.CreateCode(services.CreateRequest{
			Kind:    content.Kind(kindFlag),
			Mode:    models.Mode(modeFlag),
			Payload: json.RawMessage(raw),
			Owner:   ownerFlag,
		})
		if err != nil {
			fmt.Printf("Error: failed to create code: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Code created (id %d, kind %s, version %d, tolerance %s)\n",
			code.ID, code.Kind, code.Version, code.ErrorTolerance)
		if code.ShortCode != nil {
			fmt.Printf("Short URL: %s\n", codeService.ShortURL(*code.ShortCode))
		}
		if outputFlag != "" {
			if err := os.WriteFile(outputFlag, code.Image, 0o644); err != nil {
				fmt.Printf("Error: cannot write image: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Image written to %s\n", outputFlag)
		}
	},
}

func init() {
	CreateCmd.Flags().StringVar(&kindFlag, "kind", "", "Content kind (url, vcard, wifi, ...)")
	CreateCmd.Flags().StringVar(&modeFlag, "mode", "static", "Code mode: static or dynamic")
	CreateCmd.Flags().StringVar(&payloadFlag, "payload", "", "Content payload as inline JSON")
	CreateCmd.Flags().StringVar(&payloadFileFlag, "payload-file", "", "Path to a JSON payload file")
	CreateCmd.Flags().StringVar(&outputFlag, "output", "", "Write the rendered PNG to this path")
	CreateCmd.Flags().StringVar(&ownerFlag, "owner", "", "Owner identifier recorded on the code")
	cmd.RootCmd.AddCommand(CreateCmd)
}
