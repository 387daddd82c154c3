package event

import (
	"time"
)

// ResultType は1受信者に対する配信の最終結果の種別を表す。
// 閉じたバリアントであり、分岐処理では必ず全ケースを網羅すること。
type ResultType string

const (
	// ResultSucceeded は配信が成功したことを表す。
	ResultSucceeded ResultType = "Succeeded"
	// ResultThrottled は送信基盤のスロットリングにより配信されなかったことを表す。
	ResultThrottled ResultType = "Throttled"
	// ResultFailed は配信が失敗したことを表す。
	ResultFailed ResultType = "Failed"
)

// Valid はResultTypeが定義済みの値であるかを返す。
func (r ResultType) Valid() bool {
	switch r {
	case ResultSucceeded, ResultThrottled, ResultFailed:
		return true
	default:
		return false
	}
}

// Outcome は1受信者の配信結果、または強制完了シグナルを表すイベント。
// メッセージ基盤からat-least-onceで配信されるため、同一イベントが
// 重複して届くことがある。
type Outcome struct {
	// NotificationID は対象のサマリーレコードの識別子。
	NotificationID string `json:"notification_id"`
	// Result は配信結果の種別。強制完了シグナルの場合は空。
	Result ResultType `json:"result_type,omitempty"`
	// ForceMessageComplete がtrueの場合、このイベントは配信結果ではなく
	// 強制完了シグナルとして扱われる。
	ForceMessageComplete bool `json:"force_message_complete,omitempty"`
	// SentDate は完了時刻として記録したい日時。意図した完了時刻を持つ
	// 強制完了シグナルが設定する。nilの場合は受信側が処理時刻を使用する。
	SentDate *time.Time `json:"sent_date,omitempty"`
}

// NewResult は配信結果を表すOutcomeイベントを生成する。
func NewResult(notificationID string, result ResultType) *Outcome {
	return &Outcome{
		NotificationID: notificationID,
		Result:         result,
	}
}

// NewForceComplete は強制完了シグナルを表すOutcomeイベントを生成する。
func NewForceComplete(notificationID string, sentDate *time.Time) *Outcome {
	return &Outcome{
		NotificationID:       notificationID,
		ForceMessageComplete: true,
		SentDate:             sentDate,
	}
}

// Dispatch はキャンペーンのファンアウトで配信ワーカーに渡される
// 1受信者分の送信指示。配信ワーカーは送信処理の後にOutcomeイベントを発行する。
type Dispatch struct {
	// NotificationID は対象のサマリーレコードの識別子。
	NotificationID string `json:"notification_id"`
	// Recipient は通知の宛先。
	Recipient string `json:"recipient"`
	// Title は通知のタイトル。
	Title string `json:"title"`
	// Message は通知メッセージ。
	Message string `json:"message"`
}
