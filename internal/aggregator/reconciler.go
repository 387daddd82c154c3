package aggregator

import (
	"time"

	"github.com/nao1215/bulknotify/internal/summary"
	"github.com/nao1215/bulknotify/pkg/event"
)

// ForceComplete は強制完了シグナルを読み取り済みのサマリーレコードに適用する
// 純粋関数。イベントの欠落で自然完了に到達できないレコードの終端を保証する
// 補償アクションであり、リトライではない。
//
// レコードが既に完了している場合は何も書き込まない（2番目の戻り値がfalse）。
// 自然完了との競合や強制完了シグナル自体の重複配信に対して冪等である。
//
// 未完了の場合は、読み取り時点のカウンターからunknown = 総数 - 観測済み合計を
// 計算し、完了フラグと完了時刻とともにパッチとして返す。完了時刻はイベントが
// SentDateを持つ場合はその値、持たない場合はnowを使用する。
func ForceComplete(rec *summary.Record, o *event.Outcome, now time.Time) (summary.Patch, bool) {
	if rec.IsCompleted {
		return summary.Patch{}, false
	}

	// ロストアップデートや重複配信で観測数が総数を超えている場合、
	// 差分は負になる。unknownは件数であり、負値は0に丸める。
	unknown := rec.TotalMessageCount - rec.ObservedTotal()
	if unknown < 0 {
		unknown = 0
	}

	completed := true
	sentDate := now.UTC()
	if o.SentDate != nil {
		sentDate = o.SentDate.UTC()
	}

	return summary.Patch{
		Unknown:     &unknown,
		IsCompleted: &completed,
		SentDate:    &sentDate,
	}, true
}
