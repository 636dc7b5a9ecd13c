package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdersByVersion(t *testing.T) {
	files := fstest.MapFS{
		"010_later.sql":   {Data: []byte("SELECT 10;")},
		"002_second.sql":  {Data: []byte("SELECT 2;")},
		"001_first.sql":   {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("ignored")},
		"draft.sql":       {Data: []byte("ignored")},
		"abc_unnamed.sql": {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(files)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{got[0].Version, got[1].Version, got[2].Version})
	assert.Equal(t, "SELECT 2;", got[1].SQL)
}

func TestLoadMigrationsRejectsDuplicateVersions(t *testing.T) {
	files := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := LoadMigrations(files)
	assert.Error(t, err)
}

func TestEmbeddedSchemaDeclaresUniqueIndexes(t *testing.T) {
	m := NewMigrator(nil)
	got, err := LoadMigrations(m.files)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	var all string
	for _, mig := range got {
		all += mig.SQL
	}
	for _, name := range []string{
		"uq_departments_plant_name", "uq_employees_plant_employee_no", "uq_employees_plant_email",
		"uq_medicines_plant_code", "uq_diagnoses_plant_code", "uq_ambulances_plate_number",
		"uq_system_users_username", "uq_roles_name", "audit_entries",
	} {
		assert.Contains(t, all, name)
	}
}
