// Package commands implements the CLI commands for cloudnss.
package commands

import (
	configcmd "github.com/marmos91/cloudnss/cmd/cloudnss/commands/config"
	"github.com/marmos91/cloudnss/internal/logger"
	"github.com/marmos91/cloudnss/pkg/config"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cloudnss",
	Short: "Cloud-directory POSIX identity resolution",
	Long: `cloudnss resolves POSIX users and groups from a cloud identity
directory, and maintains the local sorted cache file that serves the same
lookups when the directory is unreachable.

Use "cloudnss [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return logger.Init(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		})
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration honoring the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path (default "+config.DefaultConfigPath+")")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")

	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(versionCmd)
}
