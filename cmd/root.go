package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the gtasks-mcp application
var rootCmd = &cobra.Command{
	Use:   "gtasks-mcp",
	Short: "MCP server for Google Tasks",
	Long: `gtasks-mcp exposes Google Tasks to AI assistants through the Model
Context Protocol: task lists, tasks, natural-language quick add, bulk
creation, search and date-range summaries.

Authorize once with "gtasks-mcp auth login", then point your MCP client at
"gtasks-mcp serve".`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// configFile is the --config flag shared by every command.
var configFile string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gtasks-mcp version %s\n" .Version}}`)

	// MCP hosts usually start the binary without arguments.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/gtasks-mcp/config.yaml)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
