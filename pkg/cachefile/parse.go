package cachefile

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/marmos91/cloudnss/pkg/buffer"
	"github.com/marmos91/cloudnss/pkg/nss"
)

// The cache file carries one account per line in passwd format:
//
//	name:x:uid:gid:gecos:home:shell
//
// numPasswdFields is the exact field count; lines with any other shape are
// parse errors, which the resolver classifies as not-found.
const numPasswdFields = 7

// packLine parses one cache line and packs it into the caller buffer.
// A line that does not fit the buffer fails with buffer.ErrInsufficientSpace
// so the resolver can report try-again; every other failure is a parse
// error.
func packLine(line []byte, out *nss.Passwd, bm *buffer.Manager) error {
	fields := bytes.Split(line, []byte(":"))
	if len(fields) != numPasswdFields {
		return fmt.Errorf("cache line has %d fields, want %d", len(fields), numPasswdFields)
	}
	if len(fields[0]) == 0 {
		return fmt.Errorf("cache line has empty username")
	}

	uid, err := strconv.ParseUint(string(fields[2]), 10, 32)
	if err != nil {
		return fmt.Errorf("cache line has bad uid %q: %w", fields[2], err)
	}
	gid, err := strconv.ParseUint(string(fields[3]), 10, 32)
	if err != nil {
		return fmt.Errorf("cache line has bad gid %q: %w", fields[3], err)
	}

	packed := make([][]byte, 0, 5)
	for _, f := range [][]byte{fields[0], fields[1], fields[4], fields[5], fields[6]} {
		chunk, err := bm.Reserve(len(f))
		if err != nil {
			return err
		}
		copy(chunk, f)
		packed = append(packed, chunk)
	}

	out.Name = packed[0]
	out.Passwd = packed[1]
	out.UID = uint32(uid)
	out.GID = uint32(gid)
	out.Gecos = packed[2]
	out.Dir = packed[3]
	out.Shell = packed[4]
	return nil
}

// lineKey extracts the lookup keys (username and uid) from a cache line
// without touching the caller buffer. Used by the binary search to compare
// records cheaply.
func lineKey(line []byte) (name []byte, uid uint32, ok bool) {
	fields := bytes.SplitN(line, []byte(":"), 4)
	if len(fields) < 3 || len(fields[0]) == 0 {
		return nil, 0, false
	}
	u, err := strconv.ParseUint(string(fields[2]), 10, 32)
	if err != nil {
		return nil, 0, false
	}
	return fields[0], uint32(u), true
}
