package main

import (
	"github.com/axellelanca/qrforge/cmd"

	// Subcommands register themselves with the root command in init().
	_ "github.com/axellelanca/qrforge/cmd/cli"
	_ "github.com/axellelanca/qrforge/cmd/server"
)

func main() {
	cmd.Execute()
}
