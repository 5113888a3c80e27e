package commands

import (
	"os"
	"strconv"
	"strings"

	"github.com/marmos91/cloudnss/internal/cli/output"
	"github.com/marmos91/cloudnss/pkg/nss"
	"github.com/spf13/cobra"
)

// groupView is the CLI rendering of a packed group record.
type groupView struct {
	Name    string   `json:"name" yaml:"name"`
	GID     uint32   `json:"gid" yaml:"gid"`
	Members []string `json:"members" yaml:"members"`
}

// Headers implements TableRenderer.
func (g groupView) Headers() []string {
	return []string{"NAME", "GID", "MEMBERS"}
}

// Rows implements TableRenderer.
func (g groupView) Rows() [][]string {
	members := "-"
	if len(g.Members) > 0 {
		members = strings.Join(g.Members, ",")
	}
	return [][]string{{g.Name, strconv.FormatUint(uint64(g.GID), 10), members}}
}

var groupCmd = &cobra.Command{
	Use:   "group <name|gid>",
	Short: "Look up a group and its members",
	Long: `Look up a group by name or numeric gid from the cloud directory.

The lookup runs in two phases, first resolving the group record and then
expanding its membership list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res := newResolver(cfg)

		gid, isGID := parseUint32(args[0])
		var do func(out *nss.Group, buf []byte) (nss.Status, error)
		if isGID {
			do = func(out *nss.Group, buf []byte) (nss.Status, error) {
				return res.LookupGroupByGID(gid, out, buf)
			}
		} else {
			do = func(out *nss.Group, buf []byte) (nss.Status, error) {
				return res.LookupGroupByName(args[0], out, buf)
			}
		}

		grp, err := lookupGroup(do)
		if err != nil {
			return err
		}

		view := groupView{
			Name:    grp.GroupName(),
			GID:     grp.GID,
			Members: grp.MemberNames(),
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		return output.Print(os.Stdout, format, view)
	},
}
