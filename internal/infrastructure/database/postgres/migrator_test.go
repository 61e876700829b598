package postgres

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations_Paired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
}

func TestEmbeddedMigrations_CreateTables(t *testing.T) {
	var all strings.Builder
	err := fs.WalkDir(migrationsFS, migrationsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".up.sql") {
			return err
		}
		b, err := fs.ReadFile(migrationsFS, path)
		all.Write(b)
		return err
	})
	require.NoError(t, err)

	sql := all.String()
	for _, table := range []string{"daily_records", "alerts", "field_configs"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, sql, "UNIQUE (field_id, date)")
}

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)

	fsys := fstest.MapFS{
		"m/000002_b.up.sql":   {Data: []byte("")},
		"m/000010_c.up.sql":   {Data: []byte("")},
		"m/000010_c.down.sql": {Data: []byte("")},
		"m/README.md":         {Data: []byte("")},
	}
	v, err = latestVersion(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, uint(10), v)

	_, err = latestVersion(fstest.MapFS{"m/notes.txt": {}}, "m")
	assert.Error(t, err)
}

func TestMigrator_DownRejectsNonPositiveSteps(t *testing.T) {
	m := NewMigrator("postgres://localhost:1/none?sslmode=disable", nil)
	err := m.Down(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps must be greater than 0")
}

//Personal.AI order the ending
