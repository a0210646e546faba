package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)

	var up, down int

	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}

	assert.Equal(t, 2, up)
	assert.Equal(t, up, down, "every migration needs a down step")
}

func TestClicksCascadeOnLinkDelete(t *testing.T) {
	body, err := fs.ReadFile(files, "sql/000002_create_link_clicks.up.sql")
	require.NoError(t, err)

	assert.Contains(t, string(body), "ON DELETE CASCADE")
}
