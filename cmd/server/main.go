package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portalgate",
		Short: "Session and access gateway for the portal front end",
		Long: `portalgate keeps one isolated session per portal (end-user, admin,
simulator), decides access for every route and signs out sessions that
have gone idle or outlived their absolute lifetime.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		namespaceCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
