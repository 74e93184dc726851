package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations(t *testing.T) {
	ms, err := ListMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)

	assert.Equal(t, int64(1), ms[0].Version)
	for i := 1; i < len(ms); i++ {
		assert.Greater(t, ms[i].Version, ms[i-1].Version)
	}
}
