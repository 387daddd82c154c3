package aggregator

import (
	"context"
	"time"

	"github.com/nao1215/bulknotify/internal/summary"
	"github.com/nao1215/bulknotify/pkg/event"
)

// RecordStore は集約処理がサマリーレコードストアに要求する最小の契約。
// キーによるポイントリードと、指定フィールドのみを更新するマージ書き込み。
type RecordStore interface {
	// Get は指定されたIDのサマリーレコードをポイントリードする。
	Get(ctx context.Context, id string) (*summary.Record, error)
	// Merge は指定されたIDのサマリーレコードにパッチをマージ書き込みする。
	Merge(ctx context.Context, id string, patch summary.Patch) error
}

// Dispatcher は受信したOutcomeイベントを1件ずつ解釈し、マージエンジン
// または強制完了処理に振り分けてストアへ書き込む。
// 呼び出し間で状態を持たず、同一レコードへの呼び出しが並行することがある。
type Dispatcher struct {
	// store はサマリーレコードストア。
	store RecordStore
}

// NewDispatcher は新しいDispatcherを生成する。
func NewDispatcher(store RecordStore) *Dispatcher {
	return &Dispatcher{store: store}
}

// Handle は生ペイロード1件を処理する。
// デコード → ポイントリード → パッチ計算 → マージ書き込みの順で進み、
// どの段階の失敗も内部ではリトライせず呼び出し元へ伝播する。リトライは
// メッセージ基盤の再配信に委ねる。
func (d *Dispatcher) Handle(ctx context.Context, payload []byte) error {
	o, err := event.DecodeOutcome(payload)
	if err != nil {
		return err
	}

	rec, err := d.store.Get(ctx, o.NotificationID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	if o.ForceMessageComplete {
		patch, ok := ForceComplete(rec, o, now)
		if !ok {
			// 既に完了済み。強制完了は冪等であり何も書き込まない。
			return nil
		}
		return d.store.Merge(ctx, o.NotificationID, patch)
	}

	return d.store.Merge(ctx, o.NotificationID, ApplyOutcome(rec, o, now))
}
