package commands

import (
	"github.com/marmos91/cloudnss/pkg/cachefile"
	"github.com/marmos91/cloudnss/pkg/nss"
	"github.com/spf13/cobra"
)

var passwdFromCache bool

var passwdCmd = &cobra.Command{
	Use:   "passwd <username|uid>",
	Short: "Look up a user account",
	Long: `Look up a single user account by username or numeric uid.

By default the lookup goes to the cloud directory. With --cache the lookup
is served from the local cache file instead, exactly as the offline
resolution path would serve it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		uid, isUID := parseUint32(args[0])

		var do func(out *nss.Passwd, buf []byte) (nss.Status, error)
		if passwdFromCache {
			res := cachefile.NewResolver(cfg.Cache.Path).WithSortKey(cfg.Cache.SortKeyValue())
			if isUID {
				do = func(out *nss.Passwd, buf []byte) (nss.Status, error) {
					return res.LookupUserByUID(uid, out, buf)
				}
			} else {
				do = func(out *nss.Passwd, buf []byte) (nss.Status, error) {
					return res.LookupUserByName(args[0], out, buf)
				}
			}
		} else {
			res := newResolver(cfg)
			if isUID {
				do = func(out *nss.Passwd, buf []byte) (nss.Status, error) {
					return res.LookupUserByUID(uid, out, buf)
				}
			} else {
				do = func(out *nss.Passwd, buf []byte) (nss.Status, error) {
					return res.LookupUserByName(args[0], out, buf)
				}
			}
		}

		pwd, err := lookupPasswd(do)
		if err != nil {
			return err
		}
		return printAccounts(cmd, []accountView{newAccountView(pwd)})
	},
}

func init() {
	passwdCmd.Flags().BoolVar(&passwdFromCache, "cache", false, "Resolve from the local cache file instead of the directory")
}
