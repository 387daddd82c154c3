package campaign

import (
	"fmt"

	"github.com/IBM/sarama"
)

// Publisher はKafkaへメッセージを発行する最小の契約。
// テストでは記録用のフェイクに差し替える。
type Publisher interface {
	// Publish は指定トピックへキー付きでメッセージを発行する。
	Publish(topic, key string, payload []byte) error
	// Close は内部のプロデューサーを閉じる。
	Close() error
}

// KafkaPublisher はsaramaの同期プロデューサーによるPublisher実装。
type KafkaPublisher struct {
	// producer はsaramaの同期プロデューサー。
	producer sarama.SyncProducer
}

// NewKafkaPublisher は冪等設定の同期プロデューサーを生成する。
// 発行の成功が確認できるまでSendMessageはブロックする。
func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Idempotent = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("Kafkaプロデューサーの作成に失敗: %w", err)
	}
	return &KafkaPublisher{producer: producer}, nil
}

// Publish は指定トピックへキー付きでメッセージを発行する。
// 同一キーのメッセージは同一パーティションに入り、順序が保たれる。
func (p *KafkaPublisher) Publish(topic, key string, payload []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("メッセージの発行に失敗: topic=%s: %w", topic, err)
	}
	return nil
}

// Close は内部のプロデューサーを閉じる。
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
