package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "libracloud",
	Short: "libra API server",
	Long: `libracloud serves the libra library API: accounts and sessions, the
catalog of authors, books and copies, and loans.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
