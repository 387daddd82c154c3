// キャンペーンサービスのエントリポイント。
// キャンペーン作成APIを提供し、受信者ごとの送信指示をKafkaへファンアウトする。
// 作成時にサマリーレコードの期待総数を固定し、一定時間後に強制完了シグナルを
// 送出してキャンペーンの終端を保証する。
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/nao1215/bulknotify/internal/campaign"
	"github.com/nao1215/bulknotify/pkg/config"
)

func main() {
	cfg := config.Load()

	// SIGINT/SIGTERMでスケジューラーを停止する
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := campaign.NewServer(cfg)
	if err != nil {
		log.Fatalf("キャンペーンサーバーの初期化に失敗: %v", err)
	}

	log.Printf("キャンペーンサービスを起動します: :%s", cfg.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("キャンペーンサービスの起動に失敗: %v", err)
	}
}
