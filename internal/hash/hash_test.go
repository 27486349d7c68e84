package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheck(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("Secr3t!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secr3t!", h)

	assert.True(t, CheckPassword(h, "Secr3t!"))
	assert.False(t, CheckPassword(h, "secr3t!"))
	assert.False(t, CheckPassword("not-a-hash", "Secr3t!"))
}
