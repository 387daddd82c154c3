package campaign

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Schedule は1キャンペーン分の強制完了シグナルの送出予定。
type Schedule struct {
	// NotificationID は対象キャンペーンの一意識別子。
	NotificationID string
	// DueAt は送出期限。この時刻を過ぎたら強制完了シグナルを発行する。
	DueAt time.Time
}

// ScheduleStore は強制完了シグナルの送出予定を永続化するストア。
type ScheduleStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewScheduleStore は既存のデータベース接続からストアを生成する。
// スキーマが未適用の場合は適用する。
func NewScheduleStore(db *sql.DB) (*ScheduleStore, error) {
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &ScheduleStore{db: db}, nil
}

// Add は送出予定を登録する。
func (s *ScheduleStore) Add(ctx context.Context, notificationID string, dueAt time.Time) error {
	const query = `INSERT INTO force_schedules (notification_id, due_at) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, notificationID, dueAt.UTC()); err != nil {
		return fmt.Errorf("送出予定の登録に失敗: %w", err)
	}
	return nil
}

// ListDue は期限を過ぎた未送出の予定を期限順に返す。
func (s *ScheduleStore) ListDue(ctx context.Context, now time.Time) ([]Schedule, error) {
	const query = `
		SELECT notification_id, due_at
		FROM force_schedules
		WHERE sent = 0 AND due_at <= ?
		ORDER BY due_at
	`
	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("送出予定の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var schedules []Schedule
	for rows.Next() {
		var sched Schedule
		if err := rows.Scan(&sched.NotificationID, &sched.DueAt); err != nil {
			return nil, fmt.Errorf("送出予定の読み取りに失敗: %w", err)
		}
		sched.DueAt = sched.DueAt.UTC()
		schedules = append(schedules, sched)
	}
	return schedules, rows.Err()
}

// MarkSent は予定を送出済みにする。
func (s *ScheduleStore) MarkSent(ctx context.Context, notificationID string) error {
	const query = `UPDATE force_schedules SET sent = 1 WHERE notification_id = ?`
	if _, err := s.db.ExecContext(ctx, query, notificationID); err != nil {
		return fmt.Errorf("送出済みへの更新に失敗: %w", err)
	}
	return nil
}
