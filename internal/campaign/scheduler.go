package campaign

import (
	"context"
	"log"
	"time"

	"github.com/nao1215/bulknotify/pkg/event"
)

// Scheduler は期限を過ぎたキャンペーンの強制完了シグナルをOutcomeトピックへ
// 発行するバックグラウンドプロセス。
//
// 自然完了しなかったレコードの終端を保証する活性メカニズムであり、
// 発行→送出済み更新の順で処理するため、クラッシュ時には同じシグナルが
// 再発行されることがある。強制完了処理は冪等であり重複は無害。
type Scheduler struct {
	// schedules は送出予定のストア。
	schedules *ScheduleStore
	// publisher はKafkaへの発行を担当する。
	publisher Publisher
	// outcomeTopic は強制完了シグナルの発行先トピック名。
	outcomeTopic string
	// interval は期限走査の間隔。
	interval time.Duration
	// cancel はバックグラウンドゴルーチンを停止するためのキャンセル関数。
	cancel context.CancelFunc
}

// NewScheduler は新しいSchedulerを生成する。
func NewScheduler(schedules *ScheduleStore, publisher Publisher, outcomeTopic string) *Scheduler {
	return &Scheduler{
		schedules:    schedules,
		publisher:    publisher,
		outcomeTopic: outcomeTopic,
		interval:     10 * time.Second,
	}
}

// Start はバックグラウンドで期限走査を開始する。
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		log.Println("[Scheduler] 強制完了シグナルの期限走査を開始します")
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[Scheduler] 期限走査を停止しました")
				return
			case <-ticker.C:
				if err := s.publishDue(ctx); err != nil {
					log.Printf("[Scheduler] 期限走査エラー: %v", err)
				}
			}
		}
	}()
}

// Stop はバックグラウンドの期限走査を停止する。
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// publishDue は期限を過ぎた未送出の予定を処理する。
// 予定ごとに強制完了シグナルを発行し、成功したものだけを送出済みにする。
func (s *Scheduler) publishDue(ctx context.Context) error {
	schedules, err := s.schedules.ListDue(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	for _, sched := range schedules {
		// 意図した完了時刻として期限をSentDateに載せる
		dueAt := sched.DueAt
		payload, err := event.EncodeOutcome(event.NewForceComplete(sched.NotificationID, &dueAt))
		if err != nil {
			log.Printf("[Scheduler] 強制完了シグナルのエンコードに失敗: id=%s: %v", sched.NotificationID, err)
			continue
		}

		if err := s.publisher.Publish(s.outcomeTopic, sched.NotificationID, payload); err != nil {
			// 発行に失敗した予定は未送出のまま残し、次の走査で再試行する
			log.Printf("[Scheduler] 強制完了シグナルの発行に失敗: id=%s: %v", sched.NotificationID, err)
			continue
		}

		if err := s.schedules.MarkSent(ctx, sched.NotificationID); err != nil {
			log.Printf("[Scheduler] 送出済みへの更新に失敗: id=%s: %v", sched.NotificationID, err)
			continue
		}
		log.Printf("[Scheduler] 強制完了シグナルを発行しました: id=%s", sched.NotificationID)
	}
	return nil
}
