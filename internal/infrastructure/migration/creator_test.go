package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/messmate/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add deposits index", "add_deposits_index"},
		{"Add-Deposits-Index", "add_deposits_index"},
		{"add__meal__notes", "add_meal_notes"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_init.up.sql"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_init.down.sql"), nil, 0o644))

	mf, err := CreateMigration(dir, "Add meal notes")
	require.NoError(t, err)
	assert.Equal(t, uint(2), mf.Version)
	assert.Equal(t, filepath.Join(dir, "000002_add_meal_notes.up.sql"), mf.UpPath)
	assert.FileExists(t, mf.DownPath)

	content, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- add_meal_notes")

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []MigrationInfo{{1, "init"}, {2, "add_meal_notes"}}, list)

	_, err = CreateMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestListMigrations_MissingDir(t *testing.T) {
	list, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		m := migrationFileExpr.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if m[3] == "up" {
			ups[m[1]] = true
		} else {
			downs[m[1]] = true
		}
	}
	assert.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}
