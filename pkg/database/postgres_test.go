package database

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithReadOnlyKeyValue(t *testing.T) {
	dsn := withReadOnly("host=db dbname=axe_data")
	assert.Equal(t, "host=db dbname=axe_data options='-c default_transaction_read_only=on'", dsn)
}

func TestWithReadOnlyURL(t *testing.T) {
	dsn := withReadOnly("postgres://u:p@db:5432/axe_data?sslmode=disable")
	assert.True(t, strings.HasPrefix(dsn, "postgres://u:p@db:5432/axe_data?"))
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "options=-c+default_transaction_read_only%3Don")
}

func TestEmbeddedMigrationsHaveUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(migrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		raw, err := fs.ReadFile(migrations, migrationsDir+"/"+entry.Name())
		require.NoError(t, err)
		body := string(raw)
		assert.Contains(t, body, "-- +goose Up", entry.Name())
		assert.Contains(t, body, "-- +goose Down", entry.Name())
	}
}

func TestMandatoryPageIndexSkipsOptionalTypes(t *testing.T) {
	raw, err := fs.ReadFile(migrations, migrationsDir+"/00002_create_audits.sql")
	require.NoError(t, err)

	match := regexp.MustCompile(`uq_pages_mandatory ON pages \(audit_id, page_type\) WHERE page_type IN \(([^)]*)\)`).FindStringSubmatch(string(raw))
	require.Len(t, match, 2)
	types := strings.Split(strings.ReplaceAll(match[1], " ", ""), ",")
	assert.ElementsMatch(t, []string{"'home'", "'contact'", "'statement'", "'pdf'", "'form'"}, types)
	assert.NotContains(t, types, "'coronavirus'")
	assert.NotContains(t, types, "'extra'")
}
