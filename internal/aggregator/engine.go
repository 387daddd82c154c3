package aggregator

import (
	"time"

	"github.com/nao1215/bulknotify/internal/summary"
	"github.com/nao1215/bulknotify/pkg/event"
)

// ApplyOutcome は読み取り済みのサマリーレコードに1件の配信結果を畳み込み、
// マージ書き込みすべきパッチを計算する純粋関数。
//
// 配信結果に対応するカウンターを、読み取り時点の値に対して1だけ加算する。
// 加算後のsucceeded + throttled + failedが期待総数以上になった場合は
// 自然完了とし、完了フラグと完了時刻もパッチに含める。完了時刻は
// イベントがSentDateを持つ場合はその値、持たない場合はnowを使用する。
//
// 重複配信やロストアップデートにより観測数が総数を超えることがあるが、
// その場合も完了は成立する。超過の検出や拒否は行わない。ただし完了済みの
// レコードに対しては完了フラグと完了時刻を再設定しない。完了時刻は
// 完了への遷移の瞬間に一度だけ設定される。
//
// oは検証済み（DecodeOutcomeを通過した非強制完了イベント）であること。
func ApplyOutcome(rec *summary.Record, o *event.Outcome, now time.Time) summary.Patch {
	var patch summary.Patch

	succeeded, throttled, failed := rec.Succeeded, rec.Throttled, rec.Failed
	switch o.Result {
	case event.ResultSucceeded:
		succeeded++
		patch.Succeeded = &succeeded
	case event.ResultThrottled:
		throttled++
		patch.Throttled = &throttled
	case event.ResultFailed:
		failed++
		patch.Failed = &failed
	}

	// unknownは強制完了でのみ設定されるため、自然完了の判定には含めない。
	// 未解決のメッセージの結果が後から届く可能性があるため。
	// 完了後に届いた重複イベントもカウンターには加算されるが、完了フラグと
	// 完了時刻は最初に完了した時点の値から変更しない。
	if !rec.IsCompleted && succeeded+throttled+failed >= rec.TotalMessageCount {
		completed := true
		patch.IsCompleted = &completed

		sentDate := now.UTC()
		if o.SentDate != nil {
			sentDate = o.SentDate.UTC()
		}
		patch.SentDate = &sentDate
	}

	return patch
}
