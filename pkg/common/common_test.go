package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDint64Unique(t *testing.T) {
	seen := make(map[int64]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestIsNA(t *testing.T) {
	assert.True(t, IsNA("N/A"))
	assert.True(t, IsNA("n/a"))
	assert.True(t, IsNA(" "))
	assert.False(t, IsNA("Red"))
}

func TestPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, "s3cret"))
	assert.False(t, CheckPassword(h, "wrong"))
}

func TestIfEmptyStr(t *testing.T) {
	assert.Equal(t, "x", IfEmptyStr("", "x"))
	assert.Equal(t, "y", IfEmptyStr("y", "x"))
}
