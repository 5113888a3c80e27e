// Package directory implements the HTTP client for the cloud identity
// directory.
//
// The directory is queried with plain GETs against a well-known base URL:
//
//	users?uid=<n>            one account by uid
//	users?username=<name>    one account by login name (percent-encoded)
//	users?pagesize=...       all accounts, paginated (cache refresh)
//	groups?gid=<n>           one group by gid
//	groups?name=<name>       one group by name
//	groups?username=<name>   a user's supplementary groups, paginated
//	users?groupname=<name>   a group's member usernames, paginated
//
// A transport failure, a non-200 status, or an empty body all classify as
// not-found. A 200 response that fails to parse is the one operator-visible
// condition: it is logged as a malformed directory response and then
// surfaced as not-found like everything else.
package directory

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/marmos91/cloudnss/internal/logger"
	"github.com/marmos91/cloudnss/pkg/metrics"
	"github.com/marmos91/cloudnss/pkg/nss"
)

// DefaultTimeout bounds every directory round trip. The host contract has
// no cancellation; a lookup runs to completion or to this timeout.
const DefaultTimeout = 5 * time.Second

// defaultPageSize is how many entries list queries request per page.
const defaultPageSize = 500

// Client issues lookups against the identity directory. It holds no
// per-call state and is safe for concurrent use; concurrency is bounded
// only by the underlying http.Client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a directory client for the given base URL. A zero timeout
// uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get issues a GET and returns the raw body and status code. A transport
// error is returned as a RequestError with the status left zero.
func (c *Client) Get(rawURL string) ([]byte, int, error) {
	resp, err := c.httpClient.Get(rawURL)
	if err != nil {
		metrics.RecordDirectoryRequest(metrics.OutcomeError)
		return nil, 0, &RequestError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordDirectoryRequest(metrics.OutcomeError)
		return nil, resp.StatusCode, &RequestError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	metrics.RecordDirectoryRequest(strconv.Itoa(resp.StatusCode))
	return body, resp.StatusCode, nil
}

// query builds the lookup URL for an endpoint ("users" or "groups") with
// the given parameters. Values are percent-encoded by url.Values.
func (c *Client) query(endpoint string, params url.Values) string {
	return c.baseURL + endpoint + "?" + params.Encode()
}

// fetch runs the shared skeleton every point lookup uses: issue the query,
// require status 200 and a non-empty body, and hand the body to parse.
// Parse failures on a 200 are the malformed-response condition: they are
// logged for the operator and counted, then reported as
// nss.ErrMalformedResponse (which classifies as not-found).
func (c *Client) fetch(endpoint string, params url.Values, parse func([]byte) error) error {
	u := c.query(endpoint, params)
	body, status, err := c.Get(u)
	if err != nil {
		return err
	}
	if status != http.StatusOK || len(body) == 0 {
		return &RequestError{URL: u, StatusCode: status}
	}
	if err := parse(body); err != nil {
		logger.Error("received malformed response from directory",
			"url", u, "error", err, "body_length", len(body))
		metrics.RecordMalformedResponse()
		return fmt.Errorf("parse response from %s: %w", u, nss.ErrMalformedResponse)
	}
	return nil
}

// LookupUserByUID resolves one account by numeric uid.
func (c *Client) LookupUserByUID(uid uint32) (*nss.AccountRecord, error) {
	params := url.Values{"uid": {strconv.FormatUint(uint64(uid), 10)}}
	var rec *nss.AccountRecord
	err := c.fetch("users", params, func(body []byte) error {
		var perr error
		rec, perr = ParseAccount(body)
		return perr
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// LookupUserByName resolves one account by login name.
func (c *Client) LookupUserByName(name string) (*nss.AccountRecord, error) {
	params := url.Values{"username": {name}}
	var rec *nss.AccountRecord
	err := c.fetch("users", params, func(body []byte) error {
		var perr error
		rec, perr = ParseAccount(body)
		return perr
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// LookupGroupByGID resolves one group record (without members) by gid.
func (c *Client) LookupGroupByGID(gid uint32) (*nss.GroupRecord, error) {
	return c.lookupGroup(url.Values{"gid": {strconv.FormatUint(uint64(gid), 10)}})
}

// LookupGroupByName resolves one group record (without members) by name.
func (c *Client) LookupGroupByName(name string) (*nss.GroupRecord, error) {
	return c.lookupGroup(url.Values{"name": {name}})
}

func (c *Client) lookupGroup(params url.Values) (*nss.GroupRecord, error) {
	var rec *nss.GroupRecord
	err := c.fetch("groups", params, func(body []byte) error {
		var perr error
		rec, perr = ParseGroup(body)
		return perr
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GroupsForUser resolves a user's supplementary groups, following
// pagination until the directory reports no further pages. Order follows
// the directory response and is not re-sorted.
func (c *Client) GroupsForUser(username string) ([]nss.GroupMembership, error) {
	var memberships []nss.GroupMembership
	pageToken := ""
	for {
		params := url.Values{
			"username": {username},
			"pagesize": {strconv.Itoa(defaultPageSize)},
		}
		if pageToken != "" {
			params.Set("pagetoken", pageToken)
		}
		var page membershipPage
		err := c.fetch("groups", params, func(body []byte) error {
			return parseMembershipPage(body, &page)
		})
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, page.Groups...)
		if page.NextPageToken == "" || page.NextPageToken == "0" {
			return memberships, nil
		}
		pageToken = page.NextPageToken
	}
}

// UsersForGroup resolves a group's member usernames, following pagination.
func (c *Client) UsersForGroup(groupName string) ([]string, error) {
	var usernames []string
	pageToken := ""
	for {
		params := url.Values{
			"groupname": {groupName},
			"pagesize":  {strconv.Itoa(defaultPageSize)},
		}
		if pageToken != "" {
			params.Set("pagetoken", pageToken)
		}
		var page usernamesPage
		err := c.fetch("users", params, func(body []byte) error {
			return parseUsernamesPage(body, &page)
		})
		if err != nil {
			return nil, err
		}
		usernames = append(usernames, page.Usernames...)
		if page.NextPageToken == "" || page.NextPageToken == "0" {
			return usernames, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListAccounts enumerates every account in the directory, following
// pagination. Used by the cache materializer, not by point lookups.
func (c *Client) ListAccounts() ([]nss.AccountRecord, error) {
	var accounts []nss.AccountRecord
	pageToken := ""
	for {
		params := url.Values{"pagesize": {strconv.Itoa(defaultPageSize)}}
		if pageToken != "" {
			params.Set("pagetoken", pageToken)
		}
		var page accountsPage
		err := c.fetch("users", params, func(body []byte) error {
			return parseAccountsPage(body, &page)
		})
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, page.Accounts...)
		if page.NextPageToken == "" || page.NextPageToken == "0" {
			return accounts, nil
		}
		pageToken = page.NextPageToken
	}
}
