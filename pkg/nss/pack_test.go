package nss

import (
	"testing"

	"github.com/marmos91/cloudnss/pkg/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount() *AccountRecord {
	return &AccountRecord{
		UID:      1001,
		GID:      1001,
		Username: "alice",
		HomeDir:  "/home/alice",
		Shell:    "/bin/bash",
		Gecos:    "Alice Example",
	}
}

// packedSize is the exact space testAccount needs: every string field plus
// the one-byte passwd placeholder.
func packedSize(rec *AccountRecord) int {
	return len(rec.Username) + len(passwdPlaceholder) + len(rec.Gecos) +
		len(rec.HomeDir) + len(rec.Shell)
}

// ============================================================================
// Passwd Packing Tests
// ============================================================================

func TestPackPasswd(t *testing.T) {
	t.Run("PacksAllFields", func(t *testing.T) {
		rec := testAccount()
		buf := make([]byte, 256)

		var out Passwd
		err := PackPasswd(rec, &out, buffer.NewManager(buf))
		require.NoError(t, err)

		assert.Equal(t, "alice", out.Username())
		assert.Equal(t, "x", string(out.Passwd))
		assert.Equal(t, uint32(1001), out.UID)
		assert.Equal(t, uint32(1001), out.GID)
		assert.Equal(t, "Alice Example", out.Comment())
		assert.Equal(t, "/home/alice", out.HomeDir())
		assert.Equal(t, "/bin/bash", out.LoginShell())
	})

	t.Run("FieldsAliasCallerBuffer", func(t *testing.T) {
		rec := testAccount()
		buf := make([]byte, 256)

		var out Passwd
		require.NoError(t, PackPasswd(rec, &out, buffer.NewManager(buf)))

		// Mutating the caller buffer must show through the packed record:
		// the fields are views, not copies.
		buf[0] = 'A'
		assert.Equal(t, "Alice", out.Username())
	})

	t.Run("ExactFit", func(t *testing.T) {
		rec := testAccount()
		buf := make([]byte, packedSize(rec))

		var out Passwd
		require.NoError(t, PackPasswd(rec, &out, buffer.NewManager(buf)))
		assert.Equal(t, "alice", out.Username())
	})

	t.Run("OneByteShortFails", func(t *testing.T) {
		rec := testAccount()
		buf := make([]byte, packedSize(rec)-1)

		var out Passwd
		err := PackPasswd(rec, &out, buffer.NewManager(buf))
		assert.ErrorIs(t, err, buffer.ErrInsufficientSpace)
	})

	t.Run("FailureIsDeterministic", func(t *testing.T) {
		rec := testAccount()

		// Same record, same undersized buffer: the outcome must not depend
		// on how earlier reservations happened to be laid out.
		for i := 0; i < 3; i++ {
			var out Passwd
			err := PackPasswd(rec, &out, buffer.NewManager(make([]byte, 8)))
			assert.ErrorIs(t, err, buffer.ErrInsufficientSpace)
		}
	})

	t.Run("EmptyGecos", func(t *testing.T) {
		rec := testAccount()
		rec.Gecos = ""

		var out Passwd
		require.NoError(t, PackPasswd(rec, &out, buffer.NewManager(make([]byte, 64))))
		assert.Equal(t, "", out.Comment())
	})
}

// ============================================================================
// Group Packing Tests
// ============================================================================

func TestPackGroup(t *testing.T) {
	t.Run("PacksNameAndGID", func(t *testing.T) {
		rec := &GroupRecord{Name: "adm", GID: 4}

		var out Group
		require.NoError(t, PackGroup(rec, &out, buffer.NewManager(make([]byte, 16))))
		assert.Equal(t, "adm", out.GroupName())
		assert.Equal(t, uint32(4), out.GID)
		assert.Empty(t, out.Members)
	})

	t.Run("FailsWhenNameDoesNotFit", func(t *testing.T) {
		rec := &GroupRecord{Name: "administrators", GID: 4}

		var out Group
		err := PackGroup(rec, &out, buffer.NewManager(make([]byte, 4)))
		assert.ErrorIs(t, err, buffer.ErrInsufficientSpace)
	})
}

func TestPackGroupMembers(t *testing.T) {
	t.Run("PreservesOrder", func(t *testing.T) {
		var out Group
		m := buffer.NewManager(make([]byte, 64))

		require.NoError(t, PackGroupMembers([]string{"carol", "alice", "bob"}, &out, m))
		assert.Equal(t, []string{"carol", "alice", "bob"}, out.MemberNames())
	})

	t.Run("TwoPhasePackSharesBuffer", func(t *testing.T) {
		buf := make([]byte, 32)
		m := buffer.NewManager(buf)

		var out Group
		require.NoError(t, PackGroup(&GroupRecord{Name: "adm", GID: 4}, &out, m))
		require.NoError(t, PackGroupMembers([]string{"alice", "bob"}, &out, m))

		assert.Equal(t, "adm", out.GroupName())
		assert.Equal(t, []string{"alice", "bob"}, out.MemberNames())
	})

	t.Run("FailsMidList", func(t *testing.T) {
		var out Group
		m := buffer.NewManager(make([]byte, 7))

		err := PackGroupMembers([]string{"alice", "bob"}, &out, m)
		assert.ErrorIs(t, err, buffer.ErrInsufficientSpace)
	})

	t.Run("EmptyMemberList", func(t *testing.T) {
		var out Group
		require.NoError(t, PackGroupMembers(nil, &out, buffer.NewManager(make([]byte, 4))))
		assert.Empty(t, out.Members)
	})
}

// ============================================================================
// Status Contract Tests
// ============================================================================

func TestStatusFor(t *testing.T) {
	t.Run("NilIsSuccess", func(t *testing.T) {
		assert.Equal(t, StatusSuccess, StatusFor(nil))
	})

	t.Run("InsufficientSpaceIsTryAgain", func(t *testing.T) {
		assert.Equal(t, StatusTryAgain, StatusFor(ErrInsufficientSpace))
	})

	t.Run("TransientIsTryAgain", func(t *testing.T) {
		assert.Equal(t, StatusTryAgain, StatusFor(ErrTransient))
	})

	t.Run("NotFoundIsNotFound", func(t *testing.T) {
		assert.Equal(t, StatusNotFound, StatusFor(ErrNotFound))
	})

	t.Run("MalformedResponseIsNotFound", func(t *testing.T) {
		assert.Equal(t, StatusNotFound, StatusFor(ErrMalformedResponse))
	})
}
