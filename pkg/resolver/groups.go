package resolver

import (
	"fmt"

	"github.com/marmos91/cloudnss/pkg/nss"
)

// appendGroupIDs appends each membership's gid to the caller-owned array,
// writing at *start and growing the array by doubling when it fills.
//
// The array and the insertion index are the host's in/out grouplist
// contract: the caller sees both the possibly-reallocated slice and the
// updated index. Growth rules:
//
//   - the array doubles when *start reaches its length;
//   - with limit > 0, an array already at or past the limit fails with
//     nss.ErrInsufficientSpace (retry with a larger array) instead of
//     growing, and any growth is clamped to the limit;
//   - growth copies into a fresh slice, so the caller's old array and its
//     contents are untouched on every failure path.
//
// Entries are appended in the given order. Nothing is deduplicated here;
// a skip predicate, when non-nil, filters entries before insertion (the
// resolver uses it to drop the caller's primary group).
func appendGroupIDs(memberships []nss.GroupMembership, groups *[]uint32, start *int, limit int, skip func(uint32) bool) error {
	if groups == nil || start == nil {
		return fmt.Errorf("grouplist array and index must be non-nil: %w", nss.ErrTransient)
	}

	for _, m := range memberships {
		if skip != nil && skip(m.GID) {
			continue
		}
		if *start == len(*groups) {
			newSize := 2 * len(*groups)
			if newSize == 0 {
				newSize = 1
			}
			if limit > 0 {
				if len(*groups) >= limit {
					return fmt.Errorf("grouplist at caller limit %d: %w", limit, nss.ErrInsufficientSpace)
				}
				if newSize > limit {
					newSize = limit
				}
			}
			grown := make([]uint32, newSize)
			copy(grown, *groups)
			*groups = grown
		}
		(*groups)[*start] = m.GID
		*start++
	}
	return nil
}
