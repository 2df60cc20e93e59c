package migration

import (
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// openTestDB はテスト用のインメモリSQLiteを開く。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"m/000002_add_b.up.sql":   {Data: []byte(`CREATE TABLE b (id TEXT PRIMARY KEY);`)},
		"m/000001_add_a.up.sql":   {Data: []byte(`CREATE TABLE a (id TEXT PRIMARY KEY);`)},
		"m/000001_add_a.down.sql": {Data: []byte(`DROP TABLE a;`)},
		"m/README.md":             {Data: []byte(`ignored`)},
		"m/nover_add_c.up.sql":    {Data: []byte(`CREATE TABLE c (id TEXT);`)},
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	t.Run("up.sqlのみをバージョン順に返す", func(t *testing.T) {
		t.Parallel()
		got, err := Collect(testFS(), "m")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].Version)
		assert.Equal(t, "add_a", got[0].Name)
		assert.Equal(t, 2, got[1].Version)
	})

	t.Run("バージョンの重複はエラーになる", func(t *testing.T) {
		t.Parallel()
		fsys := fstest.MapFS{
			"m/000001_a.up.sql": {Data: []byte(`SELECT 1;`)},
			"m/000001_b.up.sql": {Data: []byte(`SELECT 1;`)},
		}
		_, err := Collect(fsys, "m")
		assert.Error(t, err)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("未適用のマイグレーションのみを適用する", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		log, hook := test.NewNullLogger()
		log.SetLevel(logrus.DebugLevel)

		require.NoError(t, Run(t.Context(), db, testFS(), "m", log))
		assert.Len(t, hook.AllEntries(), 2)

		// 2回目は何も適用しない
		hook.Reset()
		require.NoError(t, Run(t.Context(), db, testFS(), "m", log))
		assert.Empty(t, hook.AllEntries())

		applied, err := Applied(t.Context(), db)
		require.NoError(t, err)
		assert.Equal(t, map[int]bool{1: true, 2: true}, applied)

		_, err = db.ExecContext(t.Context(), `INSERT INTO b (id) VALUES ('x')`)
		assert.NoError(t, err)
	})

	t.Run("SQLが失敗した場合はバージョンを記録しない", func(t *testing.T) {
		t.Parallel()
		db := openTestDB(t)
		fsys := fstest.MapFS{
			"m/000001_ok.up.sql":     {Data: []byte(`CREATE TABLE ok (id TEXT);`)},
			"m/000002_broken.up.sql": {Data: []byte(`CREATE TABLE (`)},
		}

		err := Run(t.Context(), db, fsys, "m", nil)
		require.Error(t, err)

		applied, err := Applied(t.Context(), db)
		require.NoError(t, err)
		assert.Equal(t, map[int]bool{1: true}, applied)
	})
}
