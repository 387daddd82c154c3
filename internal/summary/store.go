package summary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// PartitionSentNotifications は送信済み通知サマリーを格納する
// 固定のパーティション識別子。
const PartitionSentNotifications = "SentNotifications"

var (
	// ErrRecordNotFound は指定されたIDのサマリーレコードが存在しない場合のエラー。
	// レコードが作成されていないかIDが誤っていることを示し、その呼び出しに
	// とっては致命的。内部ではリトライしない。
	ErrRecordNotFound = errors.New("サマリーレコードが見つかりません")
	// ErrStoreWrite はストアへの書き込みが失敗した場合のエラー。
	// 一時的なインフラ障害を示す。リトライはメッセージ基盤の再配信に委ねる。
	ErrStoreWrite = errors.New("サマリーレコードの書き込みに失敗")
)

// Store はサマリーレコードのSQLiteストア。
// ポイントリードとマージ書き込みを提供する。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// Open は指定されたパスのSQLiteデータベースを開き、スキーマを適用して
// ストアを生成する。複数プロセスからの共有を想定してWALモードで開くこと
// （例: "/data/summary.db?_journal_mode=WAL&_busy_timeout=5000"）。
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	return NewStore(db)
}

// NewStore は既存のデータベース接続からストアを生成する。
// スキーマが未適用の場合は適用する。
func NewStore(db *sql.DB) (*Store, error) {
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Create は新しいサマリーレコードを作成する。
// IDと総数は作成時に固定され、以後変更されない。カウンターは0で初期化される。
func (s *Store) Create(ctx context.Context, id string, totalMessageCount int64) error {
	const query = `
		INSERT INTO sent_notification_summaries (partition_key, row_key, total_message_count)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, PartitionSentNotifications, id, totalMessageCount); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	return nil
}

// Get は指定されたIDのサマリーレコードをポイントリードする。
// レコードが存在しない場合はErrRecordNotFoundを返す。
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	const query = `
		SELECT row_key, total_message_count, succeeded, throttled, failed, unknown,
		       is_completed, sent_date, created_at
		FROM sent_notification_summaries
		WHERE partition_key = ? AND row_key = ?
	`

	var (
		rec         Record
		isCompleted int64
		sentDate    sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, PartitionSentNotifications, id).Scan(
		&rec.ID,
		&rec.TotalMessageCount,
		&rec.Succeeded,
		&rec.Throttled,
		&rec.Failed,
		&rec.Unknown,
		&isCompleted,
		&sentDate,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("サマリーレコードの読み取りに失敗: %w", err)
	}

	rec.IsCompleted = isCompleted != 0
	if sentDate.Valid {
		t := sentDate.Time.UTC()
		rec.SentDate = &t
	}
	return &rec, nil
}

// Merge は指定されたIDのサマリーレコードにパッチをマージ書き込みする。
// パッチでnilでないフィールドのみを更新し、それ以外のフィールドは
// ストア上の値がそのまま維持される。空のパッチは何もしない。
// レコードが存在しない場合はErrRecordNotFound、書き込みに失敗した場合は
// ErrStoreWriteを返す。
func (s *Store) Merge(ctx context.Context, id string, patch Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	if patch.Succeeded != nil {
		sets = append(sets, "succeeded = ?")
		args = append(args, *patch.Succeeded)
	}
	if patch.Throttled != nil {
		sets = append(sets, "throttled = ?")
		args = append(args, *patch.Throttled)
	}
	if patch.Failed != nil {
		sets = append(sets, "failed = ?")
		args = append(args, *patch.Failed)
	}
	if patch.Unknown != nil {
		sets = append(sets, "unknown = ?")
		args = append(args, *patch.Unknown)
	}
	if patch.IsCompleted != nil {
		sets = append(sets, "is_completed = ?")
		if *patch.IsCompleted {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if patch.SentDate != nil {
		sets = append(sets, "sent_date = ?")
		args = append(args, patch.SentDate.UTC())
	}
	args = append(args, PartitionSentNotifications, id)

	query := fmt.Sprintf(
		"UPDATE sent_notification_summaries SET %s WHERE partition_key = ? AND row_key = ?",
		strings.Join(sets, ", "),
	)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: 更新行数の取得に失敗: %v", ErrStoreWrite, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%s", ErrRecordNotFound, id)
	}
	return nil
}
