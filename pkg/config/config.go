// Package config はサービスの設定を環境変数から読み込む。
//
// ローカル開発では.envファイルも読み込む。設定ファイルは持たず、
// メッセージ基盤とストアの接続情報を含むすべての値を環境変数で解決する。
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config は全サービス共通の設定値を保持する。
type Config struct {
	// KafkaBrokers はKafkaブローカーのアドレス一覧。
	KafkaBrokers []string
	// OutcomeTopic はOutcomeイベント（配信結果・強制完了シグナル）のトピック名。
	OutcomeTopic string
	// DispatchTopic は配信ワーカー向け送信指示のトピック名。
	DispatchTopic string
	// ConsumerGroup は集約ワーカーのコンシューマグループ名。
	ConsumerGroup string
	// SummaryDBPath はサマリーレコードストアのSQLiteデータベースパス。
	SummaryDBPath string
	// Port はキャンペーンサービスのHTTPリッスンポート。
	Port string
	// JWTSecret はキャンペーンAPIのJWT検証シークレット。
	JWTSecret string
	// AllowedOrigins はCORSで許可するオリジン一覧。
	AllowedOrigins []string
	// ForceCompleteDelay はキャンペーン作成から強制完了シグナル送出までの遅延。
	// 通常のOutcomeイベントがすべて到着するのに十分な長さに設定すること。
	ForceCompleteDelay time.Duration
}

// Load は環境変数から設定を読み込む。
// 各値には開発用のデフォルトがあり、未設定でも起動できる。
func Load() Config {
	_ = godotenv.Load()

	return Config{
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		OutcomeTopic:       getEnv("OUTCOME_TOPIC", "delivery-outcomes"),
		DispatchTopic:      getEnv("DISPATCH_TOPIC", "notification-dispatch"),
		ConsumerGroup:      getEnv("CONSUMER_GROUP", "summary-aggregator"),
		SummaryDBPath:      getEnv("SUMMARY_DB_PATH", "/data/summary.db?_journal_mode=WAL&_busy_timeout=5000"),
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-key"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		ForceCompleteDelay: getEnvDuration("FORCE_COMPLETE_DELAY", 30*time.Minute),
	}
}

// getEnv は環境変数の値を返す。未設定の場合はfallbackを返す。
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvDuration は環境変数をtime.Durationとして解釈する。
// 未設定または解釈できない場合はfallbackを返す。
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("[Config] %sの値%qを解釈できないためデフォルト値%vを使用します", key, val, fallback)
		return fallback
	}
	return d
}

// splitList はカンマ区切りの値を要素のスライスに分割する。
func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
