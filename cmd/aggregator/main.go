// 集約サービスのエントリポイント。
// Kafkaの配信結果トピックを購読し、受信者ごとのOutcomeイベントを
// サマリーレコードへ畳み込む。強制完了シグナルも同じトピックで受け取り、
// キャンペーンの最終的な完了を保証する。
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/nao1215/bulknotify/internal/aggregator"
	"github.com/nao1215/bulknotify/internal/summary"
	"github.com/nao1215/bulknotify/pkg/config"
)

func main() {
	cfg := config.Load()

	// SIGINT/SIGTERMでグレースフルに停止する
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := summary.Open(cfg.SummaryDBPath)
	if err != nil {
		log.Fatalf("サマリーストアの初期化に失敗: %v", err)
	}

	dispatcher := aggregator.NewDispatcher(store)
	consumer, err := aggregator.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, cfg.OutcomeTopic, dispatcher)
	if err != nil {
		log.Fatalf("コンシューマーの作成に失敗: %v", err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Printf("コンシューマーのクローズに失敗: %v", err)
		}
	}()

	log.Printf("集約サービスを起動します: topic=%s, group=%s", cfg.OutcomeTopic, cfg.ConsumerGroup)
	if err := consumer.Run(ctx); err != nil {
		log.Fatalf("集約サービスの実行に失敗: %v", err)
	}
	log.Println("集約サービスを停止しました")
}
