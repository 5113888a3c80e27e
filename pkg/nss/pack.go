package nss

import (
	"fmt"

	"github.com/marmos91/cloudnss/pkg/buffer"
)

// passwdPlaceholder is what the passwd field carries for every packed
// record; real credentials never flow through this module.
const passwdPlaceholder = "x"

// PackPasswd copies an AccountRecord into the caller buffer behind m and
// wires the packed fields into out.
//
// The build is all-or-nothing: if any reservation fails the function
// returns buffer.ErrInsufficientSpace (the host's retry-with-bigger-buffer
// signal) and out must be discarded. Fields written before the failure
// stay abandoned in the buffer; the retry arrives with a fresh buffer and
// a fresh Manager.
func PackPasswd(rec *AccountRecord, out *Passwd, m *buffer.Manager) error {
	name, err := m.ReserveString(rec.Username)
	if err != nil {
		return fmt.Errorf("pack username: %w", err)
	}
	passwd, err := m.ReserveString(passwdPlaceholder)
	if err != nil {
		return fmt.Errorf("pack passwd field: %w", err)
	}
	gecos, err := m.ReserveString(rec.Gecos)
	if err != nil {
		return fmt.Errorf("pack gecos: %w", err)
	}
	dir, err := m.ReserveString(rec.HomeDir)
	if err != nil {
		return fmt.Errorf("pack home directory: %w", err)
	}
	shell, err := m.ReserveString(rec.Shell)
	if err != nil {
		return fmt.Errorf("pack shell: %w", err)
	}

	out.Name = name
	out.Passwd = passwd
	out.UID = rec.UID
	out.GID = rec.GID
	out.Gecos = gecos
	out.Dir = dir
	out.Shell = shell
	return nil
}

// PackGroup copies a group's name and gid into the caller buffer. Members
// are packed separately with PackGroupMembers once the membership lookup
// has completed, mirroring the two-phase group resolution.
func PackGroup(rec *GroupRecord, out *Group, m *buffer.Manager) error {
	name, err := m.ReserveString(rec.Name)
	if err != nil {
		return fmt.Errorf("pack group name: %w", err)
	}
	out.Name = name
	out.GID = rec.GID
	return nil
}

// PackGroupMembers copies each member username into the caller buffer and
// appends the packed entries to out.Members in the given order. Like
// PackPasswd, a failed reservation voids the whole record.
func PackGroupMembers(members []string, out *Group, m *buffer.Manager) error {
	packed := make([][]byte, 0, len(members))
	for _, member := range members {
		b, err := m.ReserveString(member)
		if err != nil {
			return fmt.Errorf("pack group member %q: %w", member, err)
		}
		packed = append(packed, b)
	}
	out.Members = append(out.Members, packed...)
	return nil
}
