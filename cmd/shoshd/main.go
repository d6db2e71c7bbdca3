package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shoshlabs/shoshchat/internal/cli"
	"github.com/shoshlabs/shoshchat/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shoshd",
		Short: "Shoshchat knowledge daemon",
		Long:  "Shoshchat daemon for serving the knowledge API and running the ingestion pipeline",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
