package main

import (
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "loginapp",
	Short: "Login web app with local and social accounts",
	Long: `loginapp serves signup, login (site, Google, Facebook, GitHub), email
confirmation, password recovery and account deletion.

Settings come from the environment (a .env file is read when present) and
optionally a YAML file given with --config or CONFIG_PATH.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (defaults to $CONFIG_PATH)")
}
