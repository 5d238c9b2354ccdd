package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "maintain-gin",
	Short: "Toll station equipment fault maintenance API server",
	Long: `Maintain Gin is a REST API server for toll station equipment
fault reporting and maintenance tracking. Reporters file equipment
faults, maintainers accept and resolve them, and administrators
manage users and departments.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}
