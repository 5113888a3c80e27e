package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/marmos91/cloudnss/internal/cli/output"
	"github.com/marmos91/cloudnss/pkg/config"
	"github.com/marmos91/cloudnss/pkg/directory"
	"github.com/marmos91/cloudnss/pkg/nss"
	"github.com/marmos91/cloudnss/pkg/resolver"
	"github.com/spf13/cobra"
)

// Buffer sizing for the retry loop. The host dispatcher owns buffer sizing
// in production; the CLI emulates it by doubling until the record fits.
const (
	initialBufferSize = 1 << 10
	maxBufferSize     = 1 << 20
)

// newResolver builds the network resolver from configuration.
func newResolver(cfg *config.Config) *resolver.Resolver {
	client := directory.New(cfg.Directory.BaseURL, cfg.Directory.Timeout)
	return resolver.New(client)
}

// outputFormat parses the --output flag.
func outputFormat(cmd *cobra.Command) (output.Format, error) {
	raw, _ := cmd.Flags().GetString("output")
	return output.ParseFormat(raw)
}

// lookupPasswd drives one passwd lookup through the host buffer contract,
// retrying with a doubled buffer on try-again.
func lookupPasswd(do func(out *nss.Passwd, buf []byte) (nss.Status, error)) (*nss.Passwd, error) {
	for size := initialBufferSize; size <= maxBufferSize; size *= 2 {
		var pwd nss.Passwd
		status, err := do(&pwd, make([]byte, size))
		switch status {
		case nss.StatusSuccess:
			return &pwd, nil
		case nss.StatusTryAgain:
			continue
		case nss.StatusUnavailable:
			return nil, fmt.Errorf("resolver unavailable: %w", err)
		default:
			return nil, fmt.Errorf("no such user: %w", err)
		}
	}
	return nil, fmt.Errorf("record exceeds %d bytes: %w", maxBufferSize, nss.ErrInsufficientSpace)
}

// lookupGroup is lookupPasswd's counterpart for group records.
func lookupGroup(do func(out *nss.Group, buf []byte) (nss.Status, error)) (*nss.Group, error) {
	for size := initialBufferSize; size <= maxBufferSize; size *= 2 {
		var grp nss.Group
		status, err := do(&grp, make([]byte, size))
		switch status {
		case nss.StatusSuccess:
			return &grp, nil
		case nss.StatusTryAgain:
			continue
		case nss.StatusUnavailable:
			return nil, fmt.Errorf("resolver unavailable: %w", err)
		default:
			return nil, fmt.Errorf("no such group: %w", err)
		}
	}
	return nil, fmt.Errorf("record exceeds %d bytes: %w", maxBufferSize, nss.ErrInsufficientSpace)
}

// parseUint32 parses a numeric id argument.
func parseUint32(s string) (uint32, bool) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// accountView is the CLI rendering of a packed passwd record.
type accountView struct {
	Username string `json:"username" yaml:"username"`
	UID      uint32 `json:"uid" yaml:"uid"`
	GID      uint32 `json:"gid" yaml:"gid"`
	Gecos    string `json:"gecos,omitempty" yaml:"gecos,omitempty"`
	HomeDir  string `json:"homedir" yaml:"homedir"`
	Shell    string `json:"shell" yaml:"shell"`
}

func newAccountView(p *nss.Passwd) accountView {
	return accountView{
		Username: p.Username(),
		UID:      p.UID,
		GID:      p.GID,
		Gecos:    p.Comment(),
		HomeDir:  p.HomeDir(),
		Shell:    p.LoginShell(),
	}
}

// accountList renders one or more accounts as a table.
type accountList []accountView

// Headers implements TableRenderer.
func (al accountList) Headers() []string {
	return []string{"USERNAME", "UID", "GID", "HOME", "SHELL", "GECOS"}
}

// Rows implements TableRenderer.
func (al accountList) Rows() [][]string {
	rows := make([][]string, 0, len(al))
	for _, a := range al {
		gecos := a.Gecos
		if gecos == "" {
			gecos = "-"
		}
		rows = append(rows, []string{
			a.Username,
			strconv.FormatUint(uint64(a.UID), 10),
			strconv.FormatUint(uint64(a.GID), 10),
			a.HomeDir,
			a.Shell,
			gecos,
		})
	}
	return rows
}

// printAccounts writes accounts in the selected format.
func printAccounts(cmd *cobra.Command, accounts []accountView) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		return output.Print(os.Stdout, format, accountList(accounts))
	}
	if len(accounts) == 1 {
		return output.Print(os.Stdout, format, accounts[0])
	}
	return output.Print(os.Stdout, format, accounts)
}
