package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/marmos91/cloudnss/internal/cli/output"
	"github.com/marmos91/cloudnss/pkg/nss"
	"github.com/spf13/cobra"
)

var groupsLimit int

// membershipView is the CLI rendering of a user's supplementary groups.
type membershipView struct {
	Username string   `json:"username" yaml:"username"`
	GIDs     []uint32 `json:"gids" yaml:"gids"`
}

// Headers implements TableRenderer.
func (m membershipView) Headers() []string {
	return []string{"USERNAME", "GID"}
}

// Rows implements TableRenderer.
func (m membershipView) Rows() [][]string {
	rows := make([][]string, 0, len(m.GIDs))
	for _, gid := range m.GIDs {
		rows = append(rows, []string{m.Username, strconv.FormatUint(uint64(gid), 10)})
	}
	return rows
}

var groupsCmd = &cobra.Command{
	Use:   "groups <username>",
	Short: "List a user's supplementary group ids",
	Long: `List the supplementary group ids for a user, in the order the cloud
directory reports them. The user's primary gid is resolved first and
excluded from the list, matching login-time group initialization.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res := newResolver(cfg)
		username := args[0]

		pwd, err := lookupPasswd(func(out *nss.Passwd, buf []byte) (nss.Status, error) {
			return res.LookupUserByName(username, out, buf)
		})
		if err != nil {
			return err
		}

		groups := make([]uint32, 4)
		start := 0
		status, err := res.InitGroups(username, pwd.GID, &groups, &start, groupsLimit)
		switch status {
		case nss.StatusSuccess:
		case nss.StatusTryAgain:
			return fmt.Errorf("group list truncated at %d entries: %w", start, err)
		default:
			return fmt.Errorf("group initialization failed: %w", err)
		}

		view := membershipView{Username: username, GIDs: groups[:start]}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		return output.Print(os.Stdout, format, view)
	},
}

func init() {
	groupsCmd.Flags().IntVar(&groupsLimit, "limit", 0, "Maximum number of groups to collect (0 = unlimited)")
}
