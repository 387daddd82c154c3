package campaign

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。強制完了シグナルの送出予定を管理する。
const schema = `
CREATE TABLE IF NOT EXISTS force_schedules (
    -- 対象キャンペーンの一意識別子
    notification_id TEXT PRIMARY KEY,
    -- 強制完了シグナルを送出する期限
    due_at DATETIME NOT NULL,
    -- 送出済みフラグ
    sent INTEGER NOT NULL DEFAULT 0,
    -- 予定の作成日時
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

-- 未送出の予定の期限走査を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_force_schedules_due
    ON force_schedules(sent, due_at) WHERE sent = 0;
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
