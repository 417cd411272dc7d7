package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandChangeArgs(t *testing.T) {
	t.Run("change-ids and legacy numbers pass through", func(t *testing.T) {
		ids, err := expandChangeArgs([]string{
			"I0123456789abcdef0123456789abcdef01234567", "345",
		})
		require.NoError(t, err)
		require.Equal(t, []string{"I0123456789abcdef0123456789abcdef01234567", "345"}, ids)
	})

	t.Run("ranges expand inclusively", func(t *testing.T) {
		ids, err := expandChangeArgs([]string{"345..348"})
		require.NoError(t, err)
		require.Equal(t, []string{"345", "346", "347", "348"}, ids)
	})

	t.Run("single-element range", func(t *testing.T) {
		ids, err := expandChangeArgs([]string{"7..7"})
		require.NoError(t, err)
		require.Equal(t, []string{"7"}, ids)
	})

	t.Run("descending range is rejected", func(t *testing.T) {
		_, err := expandChangeArgs([]string{"10..5"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid change range")
	})

	t.Run("anything else is rejected", func(t *testing.T) {
		for _, arg := range []string{"Ixyz", "abc", "1..2..3", "I0123"} {
			_, err := expandChangeArgs([]string{arg})
			require.Error(t, err, "arg %q", arg)
			require.Contains(t, err.Error(), "invalid change identifier")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		ids, err := expandChangeArgs(nil)
		require.NoError(t, err)
		require.Empty(t, ids)
	})
}
