package nss

// AccountRecord is the canonical in-memory form of a POSIX user entry as
// returned by the identity directory, before it is packed into a caller
// buffer.
type AccountRecord struct {
	// UID is the numeric user id.
	UID uint32 `json:"uid"`

	// GID is the numeric primary group id.
	GID uint32 `json:"gid"`

	// Username is the login name, unique within the lookup domain.
	Username string `json:"username"`

	// HomeDir is the home directory path.
	HomeDir string `json:"homedir"`

	// Shell is the login shell path.
	Shell string `json:"shell"`

	// Gecos is the descriptive comment field.
	Gecos string `json:"gecos,omitempty"`
}

// GroupRecord is the canonical in-memory form of a POSIX group entry.
// The member list is resolved separately from the group itself and is only
// held for the duration of a single lookup.
type GroupRecord struct {
	// Name is the group name, unique within the lookup domain.
	Name string `json:"name"`

	// GID is the numeric group id.
	GID uint32 `json:"gid"`

	// Members is the ordered list of member usernames.
	Members []string `json:"members,omitempty"`
}

// GroupMembership is one (name, gid) pair from a user's supplementary
// group list. Order follows the directory response and is preserved
// through group expansion.
type GroupMembership struct {
	Name string `json:"name"`
	GID  uint32 `json:"gid"`
}

// Passwd is a packed user record. Every byte-slice field aliases the
// caller-supplied buffer the record was packed into; the record is only
// valid as long as that buffer is.
type Passwd struct {
	Name   []byte
	Passwd []byte
	UID    uint32
	GID    uint32
	Gecos  []byte
	Dir    []byte
	Shell  []byte
}

// Username returns the login name as a string copy.
func (p *Passwd) Username() string { return string(p.Name) }

// HomeDir returns the home directory as a string copy.
func (p *Passwd) HomeDir() string { return string(p.Dir) }

// LoginShell returns the shell path as a string copy.
func (p *Passwd) LoginShell() string { return string(p.Shell) }

// Comment returns the gecos field as a string copy.
func (p *Passwd) Comment() string { return string(p.Gecos) }

// Group is a packed group record. Name and every member entry alias the
// caller-supplied buffer.
type Group struct {
	Name    []byte
	GID     uint32
	Members [][]byte
}

// GroupName returns the group name as a string copy.
func (g *Group) GroupName() string { return string(g.Name) }

// MemberNames returns the member usernames as string copies, in packed
// order.
func (g *Group) MemberNames() []string {
	names := make([]string, len(g.Members))
	for i, m := range g.Members {
		names[i] = string(m)
	}
	return names
}
