// Package resolver implements the network-backed identity resolver.
//
// Every entry point follows the host dispatcher contract: the caller
// supplies the output record and a fixed-size buffer, and gets back a
// four-valued nss.Status plus the named error behind it. The resolver
// holds no mutable state between calls; it is safe for unlimited
// concurrent invocation; the directory client is a plain http.Client and
// carries concurrent requests on its own.
package resolver

import (
	"fmt"

	"github.com/marmos91/cloudnss/pkg/buffer"
	"github.com/marmos91/cloudnss/pkg/directory"
	"github.com/marmos91/cloudnss/pkg/metrics"
	"github.com/marmos91/cloudnss/pkg/nss"
)

// Resolver resolves identities against the cloud directory.
type Resolver struct {
	client *directory.Client
}

// New creates a Resolver backed by the given directory client.
func New(client *directory.Client) *Resolver {
	return &Resolver{client: client}
}

// LookupUserByUID resolves one account by uid and packs it into buf.
func (r *Resolver) LookupUserByUID(uid uint32, out *nss.Passwd, buf []byte) (nss.Status, error) {
	return r.lookupUser(metrics.KindPasswdUID, out, buf, func() (*nss.AccountRecord, error) {
		return r.client.LookupUserByUID(uid)
	})
}

// LookupUserByName resolves one account by login name and packs it into buf.
func (r *Resolver) LookupUserByName(name string, out *nss.Passwd, buf []byte) (nss.Status, error) {
	return r.lookupUser(metrics.KindPasswdName, out, buf, func() (*nss.AccountRecord, error) {
		return r.client.LookupUserByName(name)
	})
}

// lookupUser is the shared skeleton for account lookups: fetch, then pack.
// Directory failures (absent, non-200, empty, malformed) classify as
// not-found; only a packing failure yields try-again.
func (r *Resolver) lookupUser(kind string, out *nss.Passwd, buf []byte, fetch func() (*nss.AccountRecord, error)) (nss.Status, error) {
	status, err := func() (nss.Status, error) {
		rec, err := fetch()
		if err != nil {
			return nss.StatusNotFound, fmt.Errorf("%w: %w", nss.ErrNotFound, err)
		}
		bm := buffer.NewManager(buf)
		if err := nss.PackPasswd(rec, out, bm); err != nil {
			return nss.StatusFor(err), err
		}
		return nss.StatusSuccess, nil
	}()
	metrics.RecordLookup(metrics.SourceNetwork, kind, status.String())
	return status, err
}

// LookupGroupByGID resolves a group and its full membership by gid.
func (r *Resolver) LookupGroupByGID(gid uint32, out *nss.Group, buf []byte) (nss.Status, error) {
	return r.lookupGroup(out, buf, func() (*nss.GroupRecord, error) {
		return r.client.LookupGroupByGID(gid)
	})
}

// LookupGroupByName resolves a group and its full membership by name.
func (r *Resolver) LookupGroupByName(name string, out *nss.Group, buf []byte) (nss.Status, error) {
	return r.lookupGroup(out, buf, func() (*nss.GroupRecord, error) {
		return r.client.LookupGroupByName(name)
	})
}

// lookupGroup runs the two-phase group resolution: the group record first,
// then its member list, each packed as it arrives. Either phase can fail
// independently with the same classification rules, and either failure
// aborts the whole call.
func (r *Resolver) lookupGroup(out *nss.Group, buf []byte, fetch func() (*nss.GroupRecord, error)) (nss.Status, error) {
	status, err := func() (nss.Status, error) {
		rec, err := fetch()
		if err != nil {
			return nss.StatusNotFound, fmt.Errorf("%w: %w", nss.ErrNotFound, err)
		}

		bm := buffer.NewManager(buf)
		if err := nss.PackGroup(rec, out, bm); err != nil {
			return nss.StatusFor(err), err
		}

		members, err := r.client.UsersForGroup(rec.Name)
		if err != nil {
			return nss.StatusNotFound, fmt.Errorf("%w: %w", nss.ErrNotFound, err)
		}
		if err := nss.PackGroupMembers(members, out, bm); err != nil {
			return nss.StatusFor(err), err
		}
		return nss.StatusSuccess, nil
	}()
	metrics.RecordLookup(metrics.SourceNetwork, metrics.KindGroup, status.String())
	return status, err
}

// InitGroups resolves every supplementary group for username and appends
// the gids to the caller-owned array at *start, growing it as needed up to
// limit (0 means unbounded). skipGID entries are dropped, matching the
// host's handling of the user's own primary group.
func (r *Resolver) InitGroups(username string, skipGID uint32, groups *[]uint32, start *int, limit int) (nss.Status, error) {
	status, err := func() (nss.Status, error) {
		memberships, err := r.client.GroupsForUser(username)
		if err != nil {
			return nss.StatusNotFound, fmt.Errorf("%w: %w", nss.ErrNotFound, err)
		}
		err = appendGroupIDs(memberships, groups, start, limit, func(gid uint32) bool {
			return gid == skipGID
		})
		if err != nil {
			return nss.StatusFor(err), err
		}
		return nss.StatusSuccess, nil
	}()
	metrics.RecordLookup(metrics.SourceNetwork, metrics.KindInitGroups, status.String())
	return status, err
}

// Enumeration is served by the cache-file resolver, not the network; these
// stubs keep the dispatcher contract complete.

// SetEnt is a no-op for the network resolver.
func (r *Resolver) SetEnt() nss.Status { return nss.StatusSuccess }

// GetEnt always reports exhaustion for the network resolver.
func (r *Resolver) GetEnt(out *nss.Passwd, buf []byte) (nss.Status, error) {
	return nss.StatusNotFound, nss.ErrNotFound
}

// EndEnt is a no-op for the network resolver.
func (r *Resolver) EndEnt() nss.Status { return nss.StatusSuccess }
