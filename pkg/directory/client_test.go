package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marmos91/cloudnss/internal/logger"
	"github.com/marmos91/cloudnss/pkg/nss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory serves a small fixed identity domain over the directory
// wire format.
type fakeDirectory struct {
	accounts []nss.AccountRecord
	groups   []nss.GroupRecord

	// memberships maps username -> supplementary groups.
	memberships map[string][]nss.GroupMembership

	// pageSize forces pagination when > 0.
	pageSize int

	requests int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		accounts: []nss.AccountRecord{
			{UID: 1001, GID: 1001, Username: "alice", HomeDir: "/home/alice", Shell: "/bin/bash", Gecos: "Alice Example"},
			{UID: 1002, GID: 1002, Username: "bob", HomeDir: "/home/bob", Shell: "/bin/sh"},
		},
		groups: []nss.GroupRecord{
			{Name: "adm", GID: 4},
			{Name: "staff", GID: 2000},
		},
		memberships: map[string][]nss.GroupMembership{
			"alice": {
				{Name: "alice", GID: 1001},
				{Name: "adm", GID: 4},
				{Name: "staff", GID: 2000},
			},
		},
	}
}

func (f *fakeDirectory) handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/users", f.handleUsers)
	r.Get("/groups", f.handleGroups)
	return r
}

func (f *fakeDirectory) handleUsers(w http.ResponseWriter, r *http.Request) {
	f.requests++
	q := r.URL.Query()

	switch {
	case q.Get("uid") != "":
		for _, a := range f.accounts {
			if fmt.Sprint(a.UID) == q.Get("uid") {
				writeJSON(w, a)
				return
			}
		}
		http.NotFound(w, r)

	case q.Get("username") != "":
		for _, a := range f.accounts {
			if a.Username == q.Get("username") {
				writeJSON(w, a)
				return
			}
		}
		http.NotFound(w, r)

	case q.Get("groupname") != "":
		if q.Get("groupname") != "staff" {
			writeJSON(w, map[string]any{"usernames": []string{}})
			return
		}
		members := []string{"alice", "bob", "carol"}
		f.writePage(w, q.Get("pagetoken"), len(members), func(lo, hi int, token string) any {
			return map[string]any{"usernames": members[lo:hi], "nextPageToken": token}
		})

	default:
		f.writePage(w, q.Get("pagetoken"), len(f.accounts), func(lo, hi int, token string) any {
			return map[string]any{"accounts": f.accounts[lo:hi], "nextPageToken": token}
		})
	}
}

func (f *fakeDirectory) handleGroups(w http.ResponseWriter, r *http.Request) {
	f.requests++
	q := r.URL.Query()

	switch {
	case q.Get("gid") != "":
		for _, g := range f.groups {
			if fmt.Sprint(g.GID) == q.Get("gid") {
				writeJSON(w, g)
				return
			}
		}
		http.NotFound(w, r)

	case q.Get("name") != "":
		for _, g := range f.groups {
			if g.Name == q.Get("name") {
				writeJSON(w, g)
				return
			}
		}
		http.NotFound(w, r)

	case q.Get("username") != "":
		groups := f.memberships[q.Get("username")]
		if groups == nil {
			http.NotFound(w, r)
			return
		}
		f.writePage(w, q.Get("pagetoken"), len(groups), func(lo, hi int, token string) any {
			return map[string]any{"groups": groups[lo:hi], "nextPageToken": token}
		})

	default:
		http.NotFound(w, r)
	}
}

// writePage slices [0,total) into pageSize windows addressed by a numeric
// page token, or returns everything in one page when pagination is off.
func (f *fakeDirectory) writePage(w http.ResponseWriter, token string, total int, render func(lo, hi int, next string) any) {
	if f.pageSize <= 0 {
		writeJSON(w, render(0, total, ""))
		return
	}
	lo := 0
	if token != "" {
		fmt.Sscanf(token, "%d", &lo)
	}
	hi := lo + f.pageSize
	next := fmt.Sprint(hi)
	if hi >= total {
		hi = total
		next = "0"
	}
	writeJSON(w, render(lo, hi, next))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, f *fakeDirectory) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second)
}

// ============================================================================
// Account Lookup Tests
// ============================================================================

func TestLookupUser(t *testing.T) {
	t.Run("ByUID", func(t *testing.T) {
		c := newTestClient(t, newFakeDirectory())

		rec, err := c.LookupUserByUID(1001)
		require.NoError(t, err)
		assert.Equal(t, "alice", rec.Username)
		assert.Equal(t, uint32(1001), rec.GID)
		assert.Equal(t, "/home/alice", rec.HomeDir)
	})

	t.Run("ByName", func(t *testing.T) {
		c := newTestClient(t, newFakeDirectory())

		rec, err := c.LookupUserByName("bob")
		require.NoError(t, err)
		assert.Equal(t, uint32(1002), rec.UID)
		assert.Equal(t, "", rec.Gecos)
	})

	t.Run("NameIsPercentEncoded", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("username")
			http.NotFound(w, r)
		}))
		defer srv.Close()

		c := New(srv.URL+"/", time.Second)
		_, err := c.LookupUserByName("strange user&name")
		require.Error(t, err)
		assert.Equal(t, "strange user&name", gotQuery)
	})

	t.Run("AbsentUserIsNotFound", func(t *testing.T) {
		c := newTestClient(t, newFakeDirectory())

		_, err := c.LookupUserByName("mallory")
		assert.ErrorIs(t, err, nss.ErrNotFound)

		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	})

	t.Run("TransportFailureIsNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close() // refuse all connections

		c := New(srv.URL+"/", time.Second)
		_, err := c.LookupUserByUID(1001)
		assert.ErrorIs(t, err, nss.ErrNotFound)
	})

	t.Run("EmptyBodyIsNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := New(srv.URL+"/", time.Second)
		_, err := c.LookupUserByUID(1001)
		assert.ErrorIs(t, err, nss.ErrNotFound)
	})

	t.Run("ServerErrorIsNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := New(srv.URL+"/", time.Second)
		_, err := c.LookupUserByUID(1001)
		assert.ErrorIs(t, err, nss.ErrNotFound)
	})
}

// ============================================================================
// Malformed Response Tests
// ============================================================================

func TestMalformedResponses(t *testing.T) {
	serveBody := func(t *testing.T, body string) *Client {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return New(srv.URL+"/", time.Second)
	}

	t.Run("GarbageBody", func(t *testing.T) {
		var logBuf bytes.Buffer
		logger.InitWithWriter(&logBuf, "INFO", "text")

		c := serveBody(t, "not json at all")

		_, err := c.LookupUserByUID(1001)
		assert.ErrorIs(t, err, nss.ErrMalformedResponse)
		assert.Equal(t, nss.StatusNotFound, nss.StatusFor(err))

		// The malformed 200 is the one operator-visible failure.
		assert.Contains(t, logBuf.String(), "malformed response")
	})

	t.Run("MissingUsername", func(t *testing.T) {
		c := serveBody(t, `{"uid":1001,"homedir":"/home/alice","shell":"/bin/bash"}`)

		_, err := c.LookupUserByUID(1001)
		assert.ErrorIs(t, err, nss.ErrMalformedResponse)
	})

	t.Run("MissingHomeDir", func(t *testing.T) {
		c := serveBody(t, `{"uid":1001,"username":"alice","shell":"/bin/bash"}`)

		_, err := c.LookupUserByUID(1001)
		assert.ErrorIs(t, err, nss.ErrMalformedResponse)
	})

	t.Run("MissingShell", func(t *testing.T) {
		c := serveBody(t, `{"uid":1001,"username":"alice","homedir":"/home/alice"}`)

		_, err := c.LookupUserByUID(1001)
		assert.ErrorIs(t, err, nss.ErrMalformedResponse)
	})

	t.Run("GroupMissingName", func(t *testing.T) {
		c := serveBody(t, `{"gid":4}`)

		_, err := c.LookupGroupByGID(4)
		assert.ErrorIs(t, err, nss.ErrMalformedResponse)
	})
}

// ============================================================================
// Group Lookup Tests
// ============================================================================

func TestLookupGroup(t *testing.T) {
	t.Run("ByGID", func(t *testing.T) {
		c := newTestClient(t, newFakeDirectory())

		rec, err := c.LookupGroupByGID(4)
		require.NoError(t, err)
		assert.Equal(t, "adm", rec.Name)
	})

	t.Run("ByName", func(t *testing.T) {
		c := newTestClient(t, newFakeDirectory())

		rec, err := c.LookupGroupByName("staff")
		require.NoError(t, err)
		assert.Equal(t, uint32(2000), rec.GID)
	})

	t.Run("AbsentGroupIsNotFound", func(t *testing.T) {
		c := newTestClient(t, newFakeDirectory())

		_, err := c.LookupGroupByName("nosuch")
		assert.ErrorIs(t, err, nss.ErrNotFound)
	})
}

// ============================================================================
// Pagination Tests
// ============================================================================

func TestPagination(t *testing.T) {
	t.Run("GroupsForUserSinglePage", func(t *testing.T) {
		c := newTestClient(t, newFakeDirectory())

		groups, err := c.GroupsForUser("alice")
		require.NoError(t, err)
		require.Len(t, groups, 3)
		assert.Equal(t, "alice", groups[0].Name)
		assert.Equal(t, uint32(4), groups[1].GID)
	})

	t.Run("GroupsForUserPaginated", func(t *testing.T) {
		f := newFakeDirectory()
		f.pageSize = 1
		c := newTestClient(t, f)

		groups, err := c.GroupsForUser("alice")
		require.NoError(t, err)
		require.Len(t, groups, 3, "all pages must be followed")

		// Order across pages follows the directory response.
		assert.Equal(t, []uint32{1001, 4, 2000},
			[]uint32{groups[0].GID, groups[1].GID, groups[2].GID})
	})

	t.Run("UsersForGroupPaginated", func(t *testing.T) {
		f := newFakeDirectory()
		f.pageSize = 2
		c := newTestClient(t, f)

		members, err := c.UsersForGroup("staff")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob", "carol"}, members)
	})

	t.Run("UsersForGroupEmpty", func(t *testing.T) {
		c := newTestClient(t, newFakeDirectory())

		members, err := c.UsersForGroup("adm")
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("ListAccountsPaginated", func(t *testing.T) {
		f := newFakeDirectory()
		f.pageSize = 1
		c := newTestClient(t, f)

		accounts, err := c.ListAccounts()
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "alice", accounts[0].Username)
		assert.Equal(t, "bob", accounts[1].Username)
	})

	t.Run("ZeroTokenStopsPagination", func(t *testing.T) {
		// A directory that reports nextPageToken "0" on the first page must
		// not be queried again.
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			_, _ = w.Write([]byte(`{"groups":[{"name":"adm","gid":4}],"nextPageToken":"0"}`))
		}))
		defer srv.Close()

		c := New(srv.URL+"/", time.Second)
		groups, err := c.GroupsForUser("alice")
		require.NoError(t, err)
		assert.Len(t, groups, 1)
		assert.Equal(t, 1, calls)
	})
}
