package gerrit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"gcl.dev/gcl/internal/config"
	gclerrors "gcl.dev/gcl/internal/errors"
)

// xssiPrefix guards Gerrit JSON responses against cross-site script
// inclusion; it must be stripped before decoding.
const xssiPrefix = ")]}'"

// defaultHTTPTimeout bounds a single REST round trip
const defaultHTTPTimeout = 30 * time.Second

// RESTClient implements Client against the Gerrit REST API
type RESTClient struct {
	base     string
	username string
	password string
	http     *http.Client
	pusher   Pusher
	log      *zap.Logger
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient creates a client for the server described by settings.
// The pusher is used to deliver new patch sets over the git protocol and may
// be nil for read-only use. Credentials are taken from the settings struct
// only; a configured token takes precedence over username/password.
func NewRESTClient(settings *config.Settings, pusher Pusher, log *zap.Logger) (*RESTClient, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	client := &RESTClient{
		base:   strings.TrimSuffix(settings.Host, "/"),
		http:   httpClient,
		pusher: pusher,
		log:    log,
	}

	if settings.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: settings.Token})
		client.http = oauth2.NewClient(
			context.WithValue(context.Background(), oauth2.HTTPClient, httpClient), src)
	} else {
		client.username = settings.Username
		client.password = settings.Password
	}

	return client, nil
}

// authenticated reports whether requests carry credentials
func (c *RESTClient) authenticated() bool {
	return c.username != "" || c.http.Transport != nil
}

// endpoint builds the request URL. Authenticated requests go through the /a/
// prefix, which is what makes Gerrit enforce and honor the credentials.
func (c *RESTClient) endpoint(path string) string {
	if c.authenticated() {
		return c.base + "/a" + path
	}
	return c.base + path
}

// do performs one REST round trip and decodes the JSON response into out.
// Response bodies carry the XSSI prefix, which is stripped before decoding.
func (c *RESTClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	c.log.Debug("gerrit request", zap.String("method", method), zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return gclerrors.NewRemoteError(gclerrors.ErrNetwork, 0, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gclerrors.NewRemoteError(gclerrors.ErrNetwork, resp.StatusCode, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}

	payload := bytes.TrimPrefix(data, []byte(xssiPrefix))
	if err := json.Unmarshal(bytes.TrimSpace(payload), out); err != nil {
		return fmt.Errorf("failed to decode gerrit response: %w", err)
	}
	return nil
}

// statusError maps an HTTP error status onto the error taxonomy
func statusError(status int, body string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return gclerrors.NewRemoteError(gclerrors.ErrAuthFailure, status, body)
	case http.StatusNotFound:
		return gclerrors.NewRemoteError(gclerrors.ErrNotFound, status, body)
	case http.StatusConflict:
		return gclerrors.NewRemoteError(gclerrors.ErrConflict, status, body)
	default:
		return gclerrors.NewRemoteError(gclerrors.ErrNetwork, status, body)
	}
}

// changeOptions asks the server to include every revision and its commit,
// which is what reconciliation needs to recover patch-set parents.
const changeOptions = "o=CURRENT_REVISION&o=ALL_REVISIONS&o=ALL_COMMITS"

// GetChange fetches a change by Change-Id or legacy number
func (c *RESTClient) GetChange(ctx context.Context, id string) (*Change, error) {
	var change Change
	path := fmt.Sprintf("/changes/%s?%s", url.PathEscape(id), changeOptions)
	if err := c.do(ctx, http.MethodGet, path, nil, &change); err != nil {
		return nil, err
	}
	change.finalize()
	return &change, nil
}

// GetPatchSets fetches the patch sets of a change, ascending by number
func (c *RESTClient) GetPatchSets(ctx context.Context, id string) ([]PatchSet, error) {
	change, err := c.GetChange(ctx, id)
	if err != nil {
		return nil, err
	}
	return change.PatchSets, nil
}

// ListChanges queries changes matching the filters
func (c *RESTClient) ListChanges(ctx context.Context, q Query) ([]Change, error) {
	params := url.Values{}
	params.Set("q", q.String())
	if q.Limit > 0 {
		params.Set("n", strconv.Itoa(q.Limit))
	}

	var changes []Change
	path := fmt.Sprintf("/changes/?%s&%s", params.Encode(), changeOptions)
	if err := c.do(ctx, http.MethodGet, path, nil, &changes); err != nil {
		return nil, err
	}
	for i := range changes {
		changes[i].finalize()
	}
	return changes, nil
}

// PushPatchSet delivers commitSHA as a new patch set of the change.
// Gerrit accepts patch sets over the git protocol only, so the commit is
// pushed to the change's magic ref and the resulting patch set is read back
// over REST.
func (c *RESTClient) PushPatchSet(ctx context.Context, changeID, commitSHA, parentRef string) (*PatchSet, error) {
	if c.pusher == nil {
		return nil, fmt.Errorf("client is read-only: no pusher configured")
	}

	change, err := c.GetChange(ctx, changeID)
	if err != nil {
		return nil, err
	}
	if !change.IsOpen() {
		return nil, gclerrors.NewRemoteError(gclerrors.ErrConflict, 0,
			fmt.Sprintf("change %s is %s", changeID, change.Status))
	}

	refspec := commitSHA + ":refs/for/" + change.Branch
	c.log.Debug("pushing patch set",
		zap.String("change", changeID),
		zap.String("commit", commitSHA),
		zap.String("parent", parentRef),
		zap.String("refspec", refspec))

	if err := c.pusher.PushRef(ctx, refspec); err != nil {
		return nil, err
	}

	// Read back the change to learn the patch set the server assigned
	updated, err := c.GetChange(ctx, changeID)
	if err != nil {
		return nil, err
	}
	ps := updated.PatchSetFor(commitSHA)
	if ps == nil {
		return nil, gclerrors.NewRemoteError(gclerrors.ErrConflict, 0,
			fmt.Sprintf("server did not record %s as a patch set of %s", commitSHA, changeID))
	}
	return ps, nil
}

// RebaseChange asks the server to rebase a change onto base
func (c *RESTClient) RebaseChange(ctx context.Context, id, base string) (*Change, error) {
	body := map[string]string{}
	if base != "" {
		body["base"] = base
	}

	var change Change
	path := fmt.Sprintf("/changes/%s/rebase", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, body, &change); err != nil {
		return nil, err
	}
	change.finalize()
	return &change, nil
}

// Submit submits a change for merging. A 409 from the submit endpoint means
// the change is not in a submittable state rather than a content conflict.
func (c *RESTClient) Submit(ctx context.Context, id string) error {
	path := fmt.Sprintf("/changes/%s/submit", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, path, map[string]string{}, nil)

	var remote *gclerrors.RemoteError
	if gclerrors.As(err, &remote) && remote.StatusCode == http.StatusConflict {
		return gclerrors.NewRemoteError(gclerrors.ErrNotReady, remote.StatusCode, remote.Body)
	}
	return err
}
