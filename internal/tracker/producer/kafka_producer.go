package producer

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/radieske/bet-tracker/internal/shared/kafka"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do tracker. Changed é opcional.
type KafkaPublisher struct {
	Settled *kafka.Writer
	Changed *kafka.Writer
}

func NewKafkaPublisher(settled, changed *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Settled: settled, Changed: changed}
}

// PublishBetSettled usa o betId como chave para manter a ordem por aposta na partição.
func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	if e.SettledAt.IsZero() {
		e.SettledAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, p.Settled, e.BetID, b)
}

func (p *KafkaPublisher) PublishLedgerChanged(ctx context.Context, e events.LedgerChanged) error {
	if p.Changed == nil {
		return nil
	}
	e.TsUnixMs = time.Now().UnixMilli()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Changed.WriteMessages(ctx, kafkago.Message{Value: b})
}
