package directory

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/cloudnss/pkg/nss"
)

// ParseAccount decodes a single-account directory response.
//
// A record must carry a username, a home directory, and a shell; a 200
// response missing any of them is malformed, not merely empty. The gecos
// field is optional.
func ParseAccount(body []byte) (*nss.AccountRecord, error) {
	var rec nss.AccountRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	if rec.Username == "" {
		return nil, fmt.Errorf("account record missing username")
	}
	if rec.HomeDir == "" {
		return nil, fmt.Errorf("account record for %q missing homedir", rec.Username)
	}
	if rec.Shell == "" {
		return nil, fmt.Errorf("account record for %q missing shell", rec.Username)
	}
	return &rec, nil
}

// ParseGroup decodes a single-group directory response. The member list is
// resolved through a separate query and is not expected here.
func ParseGroup(body []byte) (*nss.GroupRecord, error) {
	var rec nss.GroupRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode group: %w", err)
	}
	if rec.Name == "" {
		return nil, fmt.Errorf("group record missing name")
	}
	return &rec, nil
}

// membershipPage is one page of a user's supplementary group list.
type membershipPage struct {
	Groups        []nss.GroupMembership `json:"groups"`
	NextPageToken string                `json:"nextPageToken"`
}

func parseMembershipPage(body []byte, page *membershipPage) error {
	if err := json.Unmarshal(body, page); err != nil {
		return fmt.Errorf("decode membership page: %w", err)
	}
	for _, g := range page.Groups {
		if g.Name == "" {
			return fmt.Errorf("membership entry missing group name")
		}
	}
	return nil
}

// usernamesPage is one page of a group's member usernames.
type usernamesPage struct {
	Usernames     []string `json:"usernames"`
	NextPageToken string   `json:"nextPageToken"`
}

func parseUsernamesPage(body []byte, page *usernamesPage) error {
	if err := json.Unmarshal(body, page); err != nil {
		return fmt.Errorf("decode usernames page: %w", err)
	}
	return nil
}

// accountsPage is one page of the full account enumeration.
type accountsPage struct {
	Accounts      []nss.AccountRecord `json:"accounts"`
	NextPageToken string              `json:"nextPageToken"`
}

func parseAccountsPage(body []byte, page *accountsPage) error {
	if err := json.Unmarshal(body, page); err != nil {
		return fmt.Errorf("decode accounts page: %w", err)
	}
	for _, a := range page.Accounts {
		if a.Username == "" {
			return fmt.Errorf("account entry missing username")
		}
	}
	return nil
}
