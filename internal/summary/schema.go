package summary

import (
	"database/sql"
	"embed"

	"github.com/nao1215/bulknotify/pkg/migration"
)

//go:embed migrations
var migrationsFS embed.FS

// initSchema はマイグレーションを実行してサマリーレコードのスキーマを適用する。
func initSchema(db *sql.DB) error {
	return migration.Run(db, migrationsFS, "migrations")
}
