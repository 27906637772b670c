// Command ssrkit serves the demo application.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssrkit/ssrkit/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┬─┐┬┌─┬┌┬┐
  └─┐└─┐├┬┘├┴┐│ │
  └─┘└─┘┴└─┴ ┴┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "ssrkit",
		Short: "Server-side rendering starter kit",
		Long: `ssrkit renders views on the server, resolves their GraphQL
queries before the page is sent and embeds the resulting state for the
browser bundle.

  • Per-request store and GraphQL client
  • In-process or remote GraphQL
  • Static files from disk or S3
  • Live reload in development`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		initCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
