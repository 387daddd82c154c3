package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"github.com/nao1215/bulknotify/pkg/event"
)

// Consumer はKafkaのコンシューマグループからOutcomeイベントを受信し、
// Dispatcherに1件ずつ処理させるワーカー。
type Consumer struct {
	// group はKafkaのコンシューマグループ。
	group sarama.ConsumerGroup
	// dispatcher はイベント1件分の処理を担当する。
	dispatcher *Dispatcher
	// topic は購読するトピック名。
	topic string
}

// NewConsumer は新しいConsumerを生成する。
// brokersにはKafkaブローカーのアドレス、groupIDにはコンシューマグループ名、
// topicにはOutcomeイベントのトピック名を指定する。
func NewConsumer(brokers []string, groupID, topic string, dispatcher *Dispatcher) (*Consumer, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("コンシューマグループの作成に失敗: %w", err)
	}

	return &Consumer{
		group:      group,
		dispatcher: dispatcher,
		topic:      topic,
	}, nil
}

// Run はctxがキャンセルされるまでイベントの消費を続ける。
// リバランスが発生するたびにConsumeは戻るため、ループで呼び直す。
// ctxのキャンセルによる停止は正常終了としてnilを返す。
func (c *Consumer) Run(ctx context.Context) error {
	handler := &claimHandler{dispatcher: c.dispatcher}

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			log.Printf("[Aggregator] コンシューム中にエラー: %v", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close はコンシューマグループを閉じる。
func (c *Consumer) Close() error {
	return c.group.Close()
}

// claimHandler はsarama.ConsumerGroupHandlerの実装。
// 1パーティション分のメッセージを順に処理する。
type claimHandler struct {
	// dispatcher はイベント1件分の処理を担当する。
	dispatcher *Dispatcher
}

// Setup はsarama.ConsumerGroupHandlerの実装。何もしない。
func (h *claimHandler) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup はsarama.ConsumerGroupHandlerの実装。何もしない。
func (h *claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim は割り当てられたパーティションのメッセージを順に処理する。
// 処理に成功したメッセージのみをマークすることでat-least-onceを保証する。
//
// デコード不能なメッセージは再配信しても回復しないため、ログに残して
// マークし、スキップする。それ以外の失敗はマークせずにエラーを返し、
// リバランス後にコミット済みオフセットから再配信されることをリトライとする。
func (h *claimHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		err := h.dispatcher.Handle(sess.Context(), msg.Value)
		switch {
		case err == nil:
			sess.MarkMessage(msg, "")
		case errors.Is(err, event.ErrMalformedEvent):
			log.Printf("[Aggregator] 不正なイベントをスキップ: partition=%d, offset=%d: %v",
				msg.Partition, msg.Offset, err)
			sess.MarkMessage(msg, "")
		default:
			log.Printf("[Aggregator] イベント処理に失敗: partition=%d, offset=%d: %v",
				msg.Partition, msg.Offset, err)
			return err
		}
	}
	return nil
}
