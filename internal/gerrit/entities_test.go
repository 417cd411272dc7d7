package gerrit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	t.Run("parses the server format", func(t *testing.T) {
		var ts Timestamp
		err := ts.UnmarshalJSON([]byte(`"2013-02-01 09:59:32.126000000"`))
		require.NoError(t, err)
		require.Equal(t, time.Date(2013, 2, 1, 9, 59, 32, 126000000, time.UTC), ts.Time)
	})

	t.Run("round trips", func(t *testing.T) {
		ts := Timestamp{Time: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)}
		data, err := json.Marshal(ts)
		require.NoError(t, err)
		require.Equal(t, `"2024-06-03 12:00:00.000000000"`, string(data))

		var back Timestamp
		require.NoError(t, json.Unmarshal(data, &back))
		require.True(t, back.Time.Equal(ts.Time))
	})

	t.Run("rejects other formats", func(t *testing.T) {
		var ts Timestamp
		err := ts.UnmarshalJSON([]byte(`"2013-02-01T09:59:32Z"`))
		require.Error(t, err)
	})

	t.Run("accepts null", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, ts.UnmarshalJSON([]byte(`null`)))
		require.True(t, ts.Time.IsZero())
	})
}

func TestChangeFinalize(t *testing.T) {
	raw := `{
		"id": "demo~main~I8473b95934b5732ac55d26311a706c9c2bde9940",
		"change_id": "I8473b95934b5732ac55d26311a706c9c2bde9940",
		"_number": 3965,
		"project": "demo",
		"branch": "main",
		"subject": "Add retry to the fetcher",
		"status": "NEW",
		"current_revision": "bbbb",
		"revisions": {
			"bbbb": {
				"_number": 2,
				"ref": "refs/changes/65/3965/2",
				"created": "2013-02-02 10:00:00.000000000",
				"commit": {
					"subject": "Add retry to the fetcher",
					"parents": [{"commit": "base2"}]
				}
			},
			"aaaa": {
				"_number": 1,
				"ref": "refs/changes/65/3965/1",
				"created": "2013-02-01 09:59:32.126000000",
				"commit": {
					"subject": "Add retry to the fetcher",
					"parents": [{"commit": "base1"}]
				}
			}
		}
	}`

	var change Change
	require.NoError(t, json.Unmarshal([]byte(raw), &change))
	change.finalize()

	require.Len(t, change.PatchSets, 2)

	// Ascending by number regardless of map order
	require.Equal(t, 1, change.PatchSets[0].Number)
	require.Equal(t, "aaaa", change.PatchSets[0].Revision)
	require.Equal(t, "base1", change.PatchSets[0].Parent)
	require.Equal(t, "refs/changes/65/3965/1", change.PatchSets[0].Ref)

	latest := change.LatestPatchSet()
	require.NotNil(t, latest)
	require.Equal(t, 2, latest.Number)
	require.Equal(t, "bbbb", latest.Revision)
	require.Equal(t, "base2", latest.Parent)

	require.Equal(t, latest, change.PatchSetFor("bbbb"))
	require.Nil(t, change.PatchSetFor("cccc"))

	require.True(t, change.IsOpen())
	change.Status = StatusMerged
	require.False(t, change.IsOpen())
}

func TestQueryString(t *testing.T) {
	require.Equal(t, "status:open owner:self",
		Query{Status: "open", Owner: "self"}.String())
	require.Equal(t, "status:merged branch:main is:watched",
		Query{Status: "MERGED", Branch: "main", Watched: true}.String())
	require.Equal(t, "", Query{}.String())
}
