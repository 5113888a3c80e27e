package commands

import (
	"fmt"

	"github.com/marmos91/cloudnss/pkg/cachefile"
	"github.com/marmos91/cloudnss/pkg/nss"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the local cache file",
}

var cacheDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Enumerate every account in the cache file",
	Long: `Walk the cache file front to back through the enumeration cursor and
print every account, in file order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res := cachefile.NewResolver(cfg.Cache.Path).WithSortKey(cfg.Cache.SortKeyValue())

		if status := res.SetEnt(); status != nss.StatusSuccess {
			return fmt.Errorf("cannot open cache file %s", cfg.Cache.Path)
		}
		defer res.EndEnt()

		var accounts []accountView
		buf := make([]byte, initialBufferSize)
		for {
			var pwd nss.Passwd
			status, err := res.GetEnt(&pwd, buf)
			switch status {
			case nss.StatusSuccess:
				accounts = append(accounts, newAccountView(&pwd))
			case nss.StatusTryAgain:
				if len(buf) >= maxBufferSize {
					return fmt.Errorf("cache record exceeds %d bytes: %w", maxBufferSize, err)
				}
				buf = make([]byte, len(buf)*2)
			case nss.StatusNotFound:
				return printAccounts(cmd, accounts)
			default:
				return fmt.Errorf("cache enumeration failed: %w", err)
			}
		}
	},
}

func init() {
	cacheCmd.AddCommand(cacheDumpCmd)
}
