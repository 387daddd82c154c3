// Package migration はSQLiteデータベースのスキーマ変更を適用する。
// embed.FSに格納したSQLファイルをバージョン順に実行し、適用状態を
// schema_migrationsテーブルで追跡する。
package migration

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strconv"
	"strings"
)

// ファイル名形式: 000001_create_summaries.up.sql
type migrationFile struct {
	// version はファイル名先頭の連番。適用順を決める。
	version int
	// name はバージョン番号を除いたマイグレーション名。
	name string
	// path はfsys内のファイルパス。
	path string
}

// Run はdir以下のマイグレーションファイルをバージョン順に適用する。
// 適用済みのバージョンはスキップするため、起動のたびに呼んでよい。
func Run(db *sql.DB, fsys fs.FS, dir string) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("マイグレーション管理テーブルの作成に失敗: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return fmt.Errorf("適用済みバージョンの取得に失敗: %w", err)
	}

	pending, err := collect(fsys, dir)
	if err != nil {
		return fmt.Errorf("マイグレーションファイルの収集に失敗: %w", err)
	}

	for _, m := range pending {
		if applied[m.version] {
			continue
		}
		if err := apply(db, fsys, m); err != nil {
			return fmt.Errorf("マイグレーション %06d の適用に失敗: %w", m.version, err)
		}
		log.Printf("[Migration] %06d_%s を適用しました", m.version, m.name)
	}
	return nil
}

// appliedVersions は適用済みのバージョンの集合を返す。
func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// collect はdir以下の*.up.sqlファイルをバージョン順に集める。
// 連番で始まらないファイル名は無視する。
func collect(fsys fs.FS, dir string) ([]migrationFile, error) {
	paths, err := fs.Glob(fsys, dir+"/*.up.sql")
	if err != nil {
		return nil, err
	}

	var migrations []migrationFile
	for _, path := range paths {
		base := path[strings.LastIndex(path, "/")+1:]
		numStr, rest, found := strings.Cut(base, "_")
		if !found {
			continue
		}
		version, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		migrations = append(migrations, migrationFile{
			version: version,
			name:    strings.TrimSuffix(rest, ".up.sql"),
			path:    path,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations, nil
}

// apply は1つのマイグレーションをトランザクション内で実行し、
// バージョンを記録する。
func apply(db *sql.DB, fsys fs.FS, m migrationFile) error {
	content, err := fs.ReadFile(fsys, m.path)
	if err != nil {
		return fmt.Errorf("ファイル読み込みに失敗: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("SQL実行に失敗: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("バージョン記録に失敗: %w", err)
	}
	return tx.Commit()
}
