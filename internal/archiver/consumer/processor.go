package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// Reader é o lado de leitura do Kafka usado pelo processor.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Writer publica mensagens (DLQ).
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Repo persiste liquidações.
type Repo interface {
	InsertSettlement(ctx context.Context, e events.BetSettled) (bool, error)
}

var errInvalidEvent = errors.New("invalid bet_settled event")

// Processor consome bet_settled, valida e grava no histórico.
// Mensagem ilegível vai direto para a DLQ; falha de banco tenta de novo e depois vai para a DLQ.
type Processor struct {
	Log    *zap.Logger
	Reader Reader
	Repo   Repo
	DLQ    Writer // opcional

	Retries int
	Backoff time.Duration

	OnConsumed  func()       // métricas
	OnPersist   func()       // métricas
	OnDuplicate func()       // métricas
	OnDLQ       func()       // métricas
	OnError     func(string) // métricas por fase
}

// Run inicia o loop de consumo até ctx ser cancelado.
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	if p.OnConsumed != nil {
		p.OnConsumed()
	}

	ev, err := decode(m.Value)
	if err != nil {
		p.Log.Warn("invalid message", zap.String("key", string(m.Key)), zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m)
		return
	}

	inserted, err := p.persist(ctx, ev)
	if err != nil {
		p.Log.Error("db insert failed", zap.String("betId", ev.BetID), zap.Error(err))
		p.fail("db_insert")
		p.deadLetter(ctx, m)
		return
	}
	if !inserted {
		p.Log.Debug("duplicate settlement ignored", zap.String("betId", ev.BetID))
		if p.OnDuplicate != nil {
			p.OnDuplicate()
		}
		return
	}
	if p.OnPersist != nil {
		p.OnPersist()
	}
}

func (p *Processor) persist(ctx context.Context, ev events.BetSettled) (bool, error) {
	inserted, err := p.Repo.InsertSettlement(ctx, ev)
	for i := 0; err != nil && i < p.Retries; i++ {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(p.Backoff * time.Duration(i+1)):
		}
		inserted, err = p.Repo.InsertSettlement(ctx, ev)
	}
	return inserted, err
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message) {
	if p.DLQ == nil {
		return
	}
	msg := kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()}
	if err := p.DLQ.WriteMessages(ctx, msg); err != nil {
		p.Log.Error("dlq publish failed", zap.Error(err))
		p.fail("dlq")
		return
	}
	if p.OnDLQ != nil {
		p.OnDLQ()
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// decode rejeita eventos sem id, com status desconhecido ou PENDING sem uma liquidação anterior a desfazer.
func decode(b []byte) (events.BetSettled, error) {
	var ev events.BetSettled
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, err
	}
	if ev.BetID == "" {
		return ev, fmt.Errorf("%w: missing bet_id", errInvalidEvent)
	}
	st, ok := ledger.ParseStatus(ev.NewStatus)
	if !ok {
		return ev, fmt.Errorf("%w: status %q", errInvalidEvent, ev.NewStatus)
	}
	if st == ledger.StatusPending {
		old, ok := ledger.ParseStatus(ev.OldStatus)
		if !ok || old == ledger.StatusPending {
			return ev, fmt.Errorf("%w: nothing to reopen from %q", errInvalidEvent, ev.OldStatus)
		}
	}
	ev.NewStatus = string(st)
	if ev.SettledAt.IsZero() {
		ev.SettledAt = time.Now().UTC()
	}
	return ev, nil
}
