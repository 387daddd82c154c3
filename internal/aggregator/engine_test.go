package aggregator

import (
	"testing"
	"time"

	"github.com/nao1215/bulknotify/internal/summary"
	"github.com/nao1215/bulknotify/pkg/event"
)

// TestApplyOutcomeIncrements は配信結果に対応するカウンターのみが
// 読み取り時点の値から1だけ加算されることを検証する。
func TestApplyOutcomeIncrements(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rec := &summary.Record{
		ID:                "notif-1",
		TotalMessageCount: 10,
		Succeeded:         2,
		Throttled:         1,
		Failed:            0,
	}

	tests := []struct {
		name          string
		result        event.ResultType
		wantSucceeded *int64
		wantThrottled *int64
		wantFailed    *int64
	}{
		{
			name:          "Succeededはsucceededのみを加算すること",
			result:        event.ResultSucceeded,
			wantSucceeded: int64Ptr(3),
		},
		{
			name:          "Throttledはthrottledのみを加算すること",
			result:        event.ResultThrottled,
			wantThrottled: int64Ptr(2),
		},
		{
			name:       "Failedはfailedのみを加算すること",
			result:     event.ResultFailed,
			wantFailed: int64Ptr(1),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			patch := ApplyOutcome(rec, event.NewResult("notif-1", tt.result), now)

			checkInt64Ptr(t, "Succeeded", patch.Succeeded, tt.wantSucceeded)
			checkInt64Ptr(t, "Throttled", patch.Throttled, tt.wantThrottled)
			checkInt64Ptr(t, "Failed", patch.Failed, tt.wantFailed)

			// 閾値未満なので完了フィールドはパッチに含まれないこと
			if patch.IsCompleted != nil {
				t.Errorf("IsCompleted = %v, want nil", *patch.IsCompleted)
			}
			if patch.SentDate != nil {
				t.Errorf("SentDate = %v, want nil", *patch.SentDate)
			}
			// unknownは自然完了パスでは決して書き込まれないこと
			if patch.Unknown != nil {
				t.Errorf("Unknown = %v, want nil", *patch.Unknown)
			}
		})
	}
}

// TestApplyOutcomeNaturalCompletion は観測済み合計が期待総数に達した
// 最初のイベントで自然完了が成立することを検証する。
func TestApplyOutcomeNaturalCompletion(t *testing.T) {
	t.Parallel()

	t.Run("合計が総数に達したら完了すること", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		rec := &summary.Record{
			ID:                "notif-1",
			TotalMessageCount: 3,
			Succeeded:         1,
			Throttled:         1,
		}

		patch := ApplyOutcome(rec, event.NewResult("notif-1", event.ResultFailed), now)

		if patch.IsCompleted == nil || !*patch.IsCompleted {
			t.Error("IsCompletedがtrueでパッチに含まれていない")
		}
		if patch.SentDate == nil || !patch.SentDate.Equal(now) {
			t.Errorf("SentDate = %v, want %v", patch.SentDate, now)
		}
		checkInt64Ptr(t, "Failed", patch.Failed, int64Ptr(1))
	})

	t.Run("イベントのSentDateが完了時刻に使われること", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		sentDate := time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC)
		rec := &summary.Record{
			ID:                "notif-1",
			TotalMessageCount: 1,
		}

		o := event.NewResult("notif-1", event.ResultSucceeded)
		o.SentDate = &sentDate

		patch := ApplyOutcome(rec, o, now)

		if patch.SentDate == nil || !patch.SentDate.Equal(sentDate) {
			t.Errorf("SentDate = %v, want %v", patch.SentDate, sentDate)
		}
	})

	t.Run("総数を超過しても完了が成立すること", func(t *testing.T) {
		t.Parallel()

		// 重複配信やロストアップデートで観測数が総数を超えることがある。
		// 超過の検出は行わず、完了は成立する。
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		rec := &summary.Record{
			ID:                "notif-1",
			TotalMessageCount: 3,
			Succeeded:         3,
		}

		patch := ApplyOutcome(rec, event.NewResult("notif-1", event.ResultSucceeded), now)

		checkInt64Ptr(t, "Succeeded", patch.Succeeded, int64Ptr(4))
		if patch.IsCompleted == nil || !*patch.IsCompleted {
			t.Error("IsCompletedがtrueでパッチに含まれていない")
		}
	})

	t.Run("完了済みレコードへのイベントは完了時刻を再設定しないこと", func(t *testing.T) {
		t.Parallel()

		// 完了後に届いた重複イベント。カウンターは加算されるが、
		// 完了時刻は最初の完了時から動かない。
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		firstSentDate := time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC)
		rec := &summary.Record{
			ID:                "notif-1",
			TotalMessageCount: 1,
			Succeeded:         1,
			IsCompleted:       true,
			SentDate:          &firstSentDate,
		}

		patch := ApplyOutcome(rec, event.NewResult("notif-1", event.ResultSucceeded), now)

		checkInt64Ptr(t, "Succeeded", patch.Succeeded, int64Ptr(2))
		if patch.IsCompleted != nil {
			t.Errorf("IsCompleted = %v, want nil", *patch.IsCompleted)
		}
		if patch.SentDate != nil {
			t.Errorf("SentDate = %v, want nil", *patch.SentDate)
		}
	})

	t.Run("一部のカテゴリが未使用でも完了すること", func(t *testing.T) {
		t.Parallel()

		// total=3でSucceeded×2とFailed×1のみ。Throttledが0件でも完了する。
		now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
		rec := &summary.Record{
			ID:                "notif-1",
			TotalMessageCount: 3,
			Succeeded:         2,
		}

		patch := ApplyOutcome(rec, event.NewResult("notif-1", event.ResultFailed), now)

		checkInt64Ptr(t, "Failed", patch.Failed, int64Ptr(1))
		if patch.Throttled != nil {
			t.Errorf("Throttled = %v, want nil", *patch.Throttled)
		}
		if patch.IsCompleted == nil || !*patch.IsCompleted {
			t.Error("IsCompletedがtrueでパッチに含まれていない")
		}
	})
}

// int64Ptr はテスト用のint64ポインタ生成ヘルパー。
func int64Ptr(v int64) *int64 {
	return &v
}

// checkInt64Ptr はパッチのカウンターフィールドを期待値と比較するヘルパー。
func checkInt64Ptr(t *testing.T, name string, got, want *int64) {
	t.Helper()

	if want == nil {
		if got != nil {
			t.Errorf("%s = %d, want nil", name, *got)
		}
		return
	}
	if got == nil {
		t.Errorf("%s = nil, want %d", name, *want)
		return
	}
	if *got != *want {
		t.Errorf("%s = %d, want %d", name, *got, *want)
	}
}
