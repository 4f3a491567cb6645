package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("sqlite memory", func(t *testing.T) {
		db, err := Open("sqlite", ":memory:")
		require.NoError(t, err)
		defer db.Close()
		assert.NoError(t, db.Ping())
	})

	t.Run("sqlite file", func(t *testing.T) {
		db, err := Open("sqlite", filepath.Join(t.TempDir(), "gym.db"))
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Exec("CREATE TABLE t (id INTEGER)")
		assert.NoError(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		db, err := Open("postgres", "postgres://")
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}
