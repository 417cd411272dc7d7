package gerrit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"gcl.dev/gcl/internal/config"
	"gcl.dev/gcl/internal/errors"
)

// serveJSON writes a Gerrit-style JSON response, XSSI prefix included
func serveJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, xssiPrefix+"\n")
	w.Write(data)
}

// wireChange builds the wire shape of a change with the given patch sets,
// each a (revision, parent) pair in ascending order
func wireChange(changeID string, patchSets ...[2]string) map[string]interface{} {
	revisions := map[string]interface{}{}
	var current string
	for i, ps := range patchSets {
		current = ps[0]
		revisions[ps[0]] = map[string]interface{}{
			"_number": i + 1,
			"ref":     fmt.Sprintf("refs/changes/01/1/%d", i+1),
			"commit": map[string]interface{}{
				"subject": "a change",
				"parents": []map[string]string{{"commit": ps[1]}},
			},
		}
	}
	return map[string]interface{}{
		"id":               "demo~main~" + changeID,
		"change_id":        changeID,
		"_number":          1,
		"project":          "demo",
		"branch":           "main",
		"subject":          "a change",
		"status":           "NEW",
		"current_revision": current,
		"revisions":        revisions,
	}
}

func testClient(t *testing.T, handler http.Handler) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewRESTClient(&config.Settings{
		Host:     srv.URL,
		Username: "jdoe",
		Password: "s3cret",
	}, nil, nil)
	require.NoError(t, err)
	return client
}

func TestRESTClientGetChange(t *testing.T) {
	const id = "I8473b95934b5732ac55d263"

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Credentials route the request through the /a/ prefix
		require.Equal(t, "/a/changes/"+id, r.URL.Path)
		require.Contains(t, r.URL.RawQuery, "o=ALL_REVISIONS")

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "jdoe", user)
		require.Equal(t, "s3cret", pass)

		serveJSON(t, w, wireChange(id, [2]string{"aaaa", "base1"}, [2]string{"bbbb", "base2"}))
	}))

	change, err := client.GetChange(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, change.ChangeID)
	require.Equal(t, "main", change.Branch)
	require.Len(t, change.PatchSets, 2)
	require.Equal(t, "bbbb", change.LatestPatchSet().Revision)
	require.Equal(t, "base2", change.LatestPatchSet().Parent)
}

func TestRESTClientAnonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No credentials, no /a/ prefix
		require.Equal(t, "/changes/I1234", r.URL.Path)
		_, _, ok := r.BasicAuth()
		require.False(t, ok)
		serveJSON(t, w, wireChange("I1234", [2]string{"aaaa", "base"}))
	}))
	defer srv.Close()

	client, err := NewRESTClient(&config.Settings{Host: srv.URL}, nil, nil)
	require.NoError(t, err)

	_, err = client.GetChange(context.Background(), "I1234")
	require.NoError(t, err)
}

func TestRESTClientListChanges(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/a/changes/", r.URL.Path)
		require.Equal(t, "status:open owner:self", r.URL.Query().Get("q"))
		require.Equal(t, "10", r.URL.Query().Get("n"))
		serveJSON(t, w, []interface{}{
			wireChange("I1111", [2]string{"aaaa", "base"}),
			wireChange("I2222", [2]string{"bbbb", "base"}),
		})
	}))

	changes, err := client.ListChanges(context.Background(), Query{
		Status: "open",
		Owner:  "self",
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, changes, 2)
	require.Equal(t, "I1111", changes[0].ChangeID)
	require.NotNil(t, changes[1].LatestPatchSet())
}

func TestRESTClientErrors(t *testing.T) {
	status := func(code int) *RESTClient {
		return testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", code)
		}))
	}

	t.Run("not found", func(t *testing.T) {
		_, err := status(http.StatusNotFound).GetChange(context.Background(), "I1")
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("auth failure", func(t *testing.T) {
		_, err := status(http.StatusUnauthorized).GetChange(context.Background(), "I1")
		require.ErrorIs(t, err, errors.ErrAuthFailure)

		var remote *errors.RemoteError
		require.ErrorAs(t, err, &remote)
		require.Equal(t, http.StatusUnauthorized, remote.StatusCode)
	})

	t.Run("submit conflict means not ready", func(t *testing.T) {
		err := status(http.StatusConflict).Submit(context.Background(), "I1")
		require.ErrorIs(t, err, errors.ErrNotReady)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := status(http.StatusInternalServerError).GetChange(context.Background(), "I1")
		require.ErrorIs(t, err, errors.ErrNetwork)
	})
}

// recordingPusher fakes the git side of patch set delivery
type recordingPusher struct {
	refspecs []string
	onPush   func()
}

func (p *recordingPusher) PushRef(ctx context.Context, refspec string) error {
	p.refspecs = append(p.refspecs, refspec)
	if p.onPush != nil {
		p.onPush()
	}
	return nil
}

func TestRESTClientPushPatchSet(t *testing.T) {
	const id = "I5555"
	pushed := false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pushed {
			serveJSON(t, w, wireChange(id,
				[2]string{"aaaa", "base1"}, [2]string{"newsha", "base2"}))
			return
		}
		serveJSON(t, w, wireChange(id, [2]string{"aaaa", "base1"}))
	}))
	defer srv.Close()

	pusher := &recordingPusher{onPush: func() { pushed = true }}
	client, err := NewRESTClient(&config.Settings{
		Host:     srv.URL,
		Username: "jdoe",
		Password: "s3cret",
	}, pusher, nil)
	require.NoError(t, err)

	ps, err := client.PushPatchSet(context.Background(), id, "newsha", "base2")
	require.NoError(t, err)

	require.Equal(t, []string{"newsha:refs/for/main"}, pusher.refspecs)
	require.Equal(t, 2, ps.Number)
	require.Equal(t, "newsha", ps.Revision)
}

func TestRESTClientPushPatchSetClosedChange(t *testing.T) {
	const id = "I5555"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		change := wireChange(id, [2]string{"aaaa", "base1"})
		change["status"] = StatusMerged
		serveJSON(t, w, change)
	}))
	defer srv.Close()

	pusher := &recordingPusher{}
	client, err := NewRESTClient(&config.Settings{
		Host:     srv.URL,
		Username: "jdoe",
		Password: "s3cret",
	}, pusher, nil)
	require.NoError(t, err)

	_, err = client.PushPatchSet(context.Background(), id, "newsha", "base2")
	require.ErrorIs(t, err, errors.ErrConflict)
	require.Empty(t, pusher.refspecs)
}

func TestRESTClientRebaseChange(t *testing.T) {
	const id = "I7777"

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/a/changes/"+id+"/rebase", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "targetbase", body["base"])

		serveJSON(t, w, wireChange(id,
			[2]string{"aaaa", "base1"}, [2]string{"bbbb", "targetbase"}))
	}))

	change, err := client.RebaseChange(context.Background(), id, "targetbase")
	require.NoError(t, err)
	require.Equal(t, "targetbase", change.LatestPatchSet().Parent)
}
