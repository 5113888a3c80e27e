package config

import (
	"fmt"
	"strings"

	"github.com/marmos91/cloudnss/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the cloudnss configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  cloudnss config validate

  # Validate specific config file
  cloudnss config validate --config /etc/cloudnss/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.DefaultConfigPath
	}

	var warnings []string

	if strings.HasPrefix(cfg.Directory.BaseURL, "http://") {
		warnings = append(warnings, "directory base URL uses plain HTTP - fine for link-local metadata endpoints, risky otherwise")
	}
	if cfg.Cache.RefreshInterval < cfg.Directory.Timeout {
		warnings = append(warnings, "cache refresh interval is shorter than the directory request timeout")
	}

	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Directory URL:   %s\n", cfg.Directory.BaseURL)
	fmt.Printf("  Cache path:      %s\n", cfg.Cache.Path)
	fmt.Printf("  Cache sort key:  %s\n", cfg.Cache.SortKey)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
