package summary

import "time"

// Record は1キャンペーン分の配信結果サマリー。
// キャンペーン作成時に生成され、Outcomeイベントの処理で
// カウンターが加算されていく。
type Record struct {
	// ID はキャンペーンの一意識別子。作成時に割り当てられ不変。
	ID string
	// TotalMessageCount は期待されるOutcomeイベントの総数。作成時に固定される。
	TotalMessageCount int64
	// Succeeded は配信成功の件数。
	Succeeded int64
	// Throttled はスロットリングされた件数。
	Throttled int64
	// Failed は配信失敗の件数。
	Failed int64
	// Unknown は結果が観測されなかった受信者の件数。強制完了時のみ設定される。
	Unknown int64
	// IsCompleted はレコードが終端状態に達したかを表す。一度trueになったら
	// falseには戻らない。
	IsCompleted bool
	// SentDate は完了時刻。IsCompletedがtrueになった瞬間に一度だけ設定される。
	SentDate *time.Time
	// CreatedAt はレコードの作成日時。
	CreatedAt time.Time
}

// ObservedTotal は観測済みの配信結果の合計（succeeded + throttled + failed）を返す。
// Unknownは強制完了でのみ設定されるため合計に含めない。
func (r *Record) ObservedTotal() int64 {
	return r.Succeeded + r.Throttled + r.Failed
}

// Patch はサマリーレコードへのマージ書き込みの内容。
// nilでないフィールドのみがストアに書き込まれ、nilのフィールドは
// 既存の値が維持される。
type Patch struct {
	// Succeeded は配信成功件数の新しい絶対値。
	Succeeded *int64
	// Throttled はスロットリング件数の新しい絶対値。
	Throttled *int64
	// Failed は配信失敗件数の新しい絶対値。
	Failed *int64
	// Unknown は結果未観測件数の新しい絶対値。
	Unknown *int64
	// IsCompleted は完了フラグの新しい値。
	IsCompleted *bool
	// SentDate は完了時刻の新しい値。
	SentDate *time.Time
}

// IsEmpty はPatchが書き込むフィールドを1つも持たないかを返す。
func (p Patch) IsEmpty() bool {
	return p.Succeeded == nil && p.Throttled == nil && p.Failed == nil &&
		p.Unknown == nil && p.IsCompleted == nil && p.SentDate == nil
}
