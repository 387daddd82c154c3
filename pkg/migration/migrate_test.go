package migration

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを作成する。
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRun はマイグレーション適用の動作を検証する。
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("マイグレーションがバージョン順に適用されること", func(t *testing.T) {
		t.Parallel()
		db := setupTestDB(t)

		fsys := fstest.MapFS{
			"migrations/000002_add_column.up.sql": &fstest.MapFile{
				Data: []byte(`ALTER TABLE items ADD COLUMN note TEXT;`),
			},
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				Data: []byte(`CREATE TABLE items (id TEXT PRIMARY KEY);`),
			},
		}

		if err := Run(db, fsys, "migrations"); err != nil {
			t.Fatalf("マイグレーションの適用に失敗: %v", err)
		}

		// 両方のマイグレーションが反映されている
		if _, err := db.Exec(`INSERT INTO items (id, note) VALUES ('a', 'メモ')`); err != nil {
			t.Errorf("適用後のスキーマへの書き込みに失敗: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("適用済みバージョンの取得に失敗: %v", err)
		}
		if count != 2 {
			t.Errorf("適用済みバージョン数: got %d, want 2", count)
		}
	})

	t.Run("再実行しても適用済みのマイグレーションはスキップされること", func(t *testing.T) {
		t.Parallel()
		db := setupTestDB(t)

		fsys := fstest.MapFS{
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				// IF NOT EXISTSなしのため、再実行されればエラーになる
				Data: []byte(`CREATE TABLE items (id TEXT PRIMARY KEY);`),
			},
		}

		if err := Run(db, fsys, "migrations"); err != nil {
			t.Fatalf("1回目の適用に失敗: %v", err)
		}
		if err := Run(db, fsys, "migrations"); err != nil {
			t.Errorf("2回目の実行がエラーを返した: %v", err)
		}
	})

	t.Run("SQLが不正な場合はエラーを返しバージョンを記録しないこと", func(t *testing.T) {
		t.Parallel()
		db := setupTestDB(t)

		fsys := fstest.MapFS{
			"migrations/000001_broken.up.sql": &fstest.MapFile{
				Data: []byte(`CREATE TALBE broken`),
			},
		}

		if err := Run(db, fsys, "migrations"); err == nil {
			t.Fatal("不正なSQLの適用がエラーを返すべき")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("適用済みバージョンの取得に失敗: %v", err)
		}
		if count != 0 {
			t.Errorf("失敗したマイグレーションのバージョンが記録されている: count=%d", count)
		}
	})

	t.Run("連番で始まらないファイルは無視されること", func(t *testing.T) {
		t.Parallel()
		db := setupTestDB(t)

		fsys := fstest.MapFS{
			"migrations/README.up.sql": &fstest.MapFile{
				Data: []byte(`THIS IS NOT SQL`),
			},
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				Data: []byte(`CREATE TABLE items (id TEXT PRIMARY KEY);`),
			},
		}

		if err := Run(db, fsys, "migrations"); err != nil {
			t.Fatalf("マイグレーションの適用に失敗: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("適用済みバージョンの取得に失敗: %v", err)
		}
		if count != 1 {
			t.Errorf("適用済みバージョン数: got %d, want 1", count)
		}
	})
}
