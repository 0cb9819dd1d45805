// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "digital-profile",
	Short: "Digital Profile is the authentication core of the municipal digital profile",
	Long: `Digital Profile issues and revokes tokens for staff users and citizens,
manages their credentials and enforces the permission catalog of the staff API.`,
	Args: cobra.OnlyValidArgs,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Directory containing main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
