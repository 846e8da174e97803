package migration

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrdersAndChecksums(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/002_add_index.sql": {Data: []byte("CREATE INDEX idx ON t(v);")},
		"sql/001_create_t.sql":  {Data: []byte("CREATE TABLE t (v TEXT);")},
		"sql/README.md":         {Data: []byte("ignored")},
		"sql/nested/003_x.sql":  {Data: []byte("SELECT 1;")},
	}

	migrations, err := Load(fsys, "sql")
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create t", migrations[0].Description)
	assert.Equal(t, "sql/001_create_t.sql", migrations[0].FilePath)
	assert.Len(t, migrations[0].Checksum, 64)
	assert.Equal(t, 2, migrations[1].Version)
	assert.NotEqual(t, migrations[0].Checksum, migrations[1].Checksum)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {"m/create.sql": {Data: []byte("SELECT 1;")}},
		"empty":    {"m/001_empty.sql": {Data: []byte("  \n")}},
		"duplicate": {
			"m/001_a.sql": {Data: []byte("SELECT 1;")},
			"m/001_b.sql": {Data: []byte("SELECT 2;")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(fsys, "m")
			require.Error(t, err)
			var migrationErr *MigrationError
			assert.ErrorAs(t, err, &migrationErr)
		})
	}

	_, err := Load(cases["duplicate"], "m")
	assert.ErrorIs(t, err, ErrDuplicateVersion)
	_, err = Load(cases["bad name"], "m")
	assert.ErrorIs(t, err, ErrInvalidMigrationFile)
}

func TestSplitStatements(t *testing.T) {
	script := `-- header
CREATE TABLE a (
	id TEXT
);

-- second
CREATE INDEX a_id ON a(id);
INSERT INTO a VALUES ('x')`

	statements := splitStatements(script)
	require.Len(t, statements, 3)
	assert.Contains(t, statements[0], "CREATE TABLE a")
	assert.Equal(t, "CREATE INDEX a_id ON a(id);", statements[1])
	assert.Equal(t, "INSERT INTO a VALUES ('x')", statements[2])
}
