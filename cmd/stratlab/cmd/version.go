package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the stratlab CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stratlab version %s\n", version)
		fmt.Println("A rule-based trading strategy backtester")
		fmt.Println("https://github.com/rustyeddy/stratlab")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
