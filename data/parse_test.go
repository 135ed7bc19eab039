package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	t.Parallel()
	expected := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	for _, in := range []string{"1700000000", "1700000000000", "2023-11-14T22:13:20Z", "2023-11-14 22:13:20"} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.True(t, expected.Equal(got), in)
		assert.Equal(t, time.UTC, got.Location(), in)
	}
	_, err := ParseTime("")
	assert.ErrorIs(t, err, errZeroTime)
	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}
