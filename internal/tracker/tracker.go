// Package tracker orquestra as ações do usuário sobre o ledger: registrar apostas,
// importar acumuladores, liquidar manualmente ou via oráculo, remover e consultar estatísticas.
// Cada ação visível gera uma notificação; cada liquidação gera um evento bet_settled.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/analyst"
	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/oracle"
	"github.com/radieske/bet-tracker/internal/settlement"
	"github.com/radieske/bet-tracker/internal/stats"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

const (
	DefaultLeague = "Unknown League"
	DefaultMarket = "Match Winner"

	accaPrefix = "King Maokoto Acca. "
)

// Origem de uma liquidação, vai no evento bet_settled.
const (
	SourceManual     = "manual"
	SourceAIVerify   = "ai_verify"
	SourceAutoVerify = "auto_verify"
)

var ErrMissingTeam = errors.New("home and away team are required")

// Notifier entrega mensagens ao usuário (Redis Pub/Sub -> WebSocket).
type Notifier interface {
	Notify(ctx context.Context, msg, typ string) error
}

// Publisher publica os eventos do ledger no Kafka.
type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
	PublishLedgerChanged(ctx context.Context, e events.LedgerChanged) error
}

type Tracker struct {
	Store  *ledger.Store
	Oracle oracle.Oracle
	Notify Notifier  // opcional
	Events Publisher // opcional
	Log    *zap.Logger

	Loc        *time.Location // fuso das séries e do matchDate padrão
	BatchLimit int            // verificações simultâneas no lote (<= 0 sem limite)
	Now        func() time.Time
	NewID      func() string

	OnVerify  func(outcome string) // métricas
	OnSettled func(status string)  // métricas
}

func New(store *ledger.Store, o oracle.Oracle, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		Store:      store,
		Oracle:     o,
		Log:        log,
		Loc:        time.UTC,
		BatchLimit: 4,
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

// Input é o formulário de registro de uma aposta.
type Input struct {
	HomeTeam  string  `json:"homeTeam"`
	AwayTeam  string  `json:"awayTeam"`
	League    string  `json:"league"`
	MatchDate string  `json:"matchDate"`
	Market    string  `json:"market"`
	Odds      float64 `json:"odds"`
	Stake     float64 `json:"stake"`
	Analysis  string  `json:"analysis"`
}

// Track valida o formulário, aplica os defaults e insere a aposta como PENDING.
func (t *Tracker) Track(ctx context.Context, in Input) (ledger.BetRecord, error) {
	if strings.TrimSpace(in.HomeTeam) == "" || strings.TrimSpace(in.AwayTeam) == "" {
		return ledger.BetRecord{}, &ledger.ValidationError{Err: ErrMissingTeam}
	}
	now := t.Now()
	rec := ledger.BetRecord{
		ID:        t.NewID(),
		HomeTeam:  strings.TrimSpace(in.HomeTeam),
		AwayTeam:  strings.TrimSpace(in.AwayTeam),
		League:    orDefault(in.League, DefaultLeague),
		MatchDate: orDefault(in.MatchDate, now.In(t.loc()).Format("2006-01-02")),
		Market:    orDefault(in.Market, DefaultMarket),
		Odds:      in.Odds,
		Stake:     in.Stake,
		Status:    ledger.StatusPending,
		Analysis:  in.Analysis,
		CreatedAt: now.UnixMilli(),
	}
	if err := t.Store.Insert(ctx, rec); err != nil {
		return ledger.BetRecord{}, err
	}
	t.changed(ctx, "insert", rec.ID)
	t.notify(ctx, fmt.Sprintf("Tracked: %s vs %s", rec.HomeTeam, rec.AwayTeam), events.NotifySuccess)
	return rec, nil
}

// ImportAccumulator converte cada perna do acumulador numa aposta PENDING de stake 1.
// Tudo ou nada: se uma perna for inválida nenhuma entra.
func (t *Tracker) ImportAccumulator(ctx context.Context, acc analyst.Accumulator) ([]ledger.BetRecord, error) {
	if len(acc.Selections) == 0 {
		return nil, &ledger.ValidationError{Err: errors.New("accumulator has no selections")}
	}
	now := t.Now().UnixMilli()
	recs := make([]ledger.BetRecord, 0, len(acc.Selections))
	for _, sel := range acc.Selections {
		recs = append(recs, ledger.BetRecord{
			ID:        t.NewID(),
			HomeTeam:  sel.HomeTeam,
			AwayTeam:  sel.AwayTeam,
			League:    sel.League,
			MatchDate: acc.Date,
			Market:    sel.Market,
			Odds:      sel.Odds,
			Stake:     1,
			Status:    ledger.StatusPending,
			Analysis:  accaPrefix + acc.Reasoning,
			CreatedAt: now,
		})
	}
	if err := t.Store.InsertMany(ctx, recs); err != nil {
		return nil, err
	}
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	t.changed(ctx, "insert", ids...)
	t.notify(ctx, fmt.Sprintf("Successfully added %d bets to your tracker", len(recs)), events.NotifySuccess)
	return recs, nil
}

// SetStatus é a liquidação manual; não mexe no placar nem na análise.
func (t *Tracker) SetStatus(ctx context.Context, id string, status string) (ledger.BetRecord, error) {
	st, ok := ledger.ParseStatus(status)
	if !ok {
		return ledger.BetRecord{}, &ledger.ValidationError{ID: id, Err: ledger.ErrInvalidStatus}
	}
	before, ok := t.Store.Get(id)
	if !ok {
		return ledger.BetRecord{}, ledger.ErrNotFound
	}
	found, err := t.Store.Update(ctx, id, func(r *ledger.BetRecord) { r.Status = st })
	if err != nil {
		return ledger.BetRecord{}, err
	}
	if !found {
		return ledger.BetRecord{}, ledger.ErrNotFound
	}
	after, _ := t.Store.Get(id)
	t.changed(ctx, "update", id)
	t.settled(ctx, before, after, SourceManual)
	t.notify(ctx, fmt.Sprintf("Bet status updated to %s", st), events.NotifyInfo)
	return after, nil
}

// Delete remove a aposta; id desconhecido => ErrNotFound.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	found, err := t.Store.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ledger.ErrNotFound
	}
	t.changed(ctx, "remove", id)
	t.notify(ctx, "Prediction deleted", events.NotifyInfo)
	return nil
}

func (t *Tracker) List() []ledger.BetRecord { return t.Store.Snapshot() }

func (t *Tracker) Stats() stats.Summary { return stats.Summarize(t.Store.Snapshot()) }

func (t *Tracker) Dashboard() stats.Dashboard { return stats.Build(t.Store.Snapshot(), t.loc()) }

func (t *Tracker) loc() *time.Location {
	if t.Loc == nil {
		return time.UTC
	}
	return t.Loc
}

func (t *Tracker) notify(ctx context.Context, msg, typ string) {
	if t.Notify == nil {
		return
	}
	if err := t.Notify.Notify(ctx, msg, typ); err != nil {
		t.Log.Warn("notification publish failed", zap.String("message", msg), zap.Error(err))
	}
}

func (t *Tracker) changed(ctx context.Context, op string, ids ...string) {
	if t.Events == nil {
		return
	}
	e := events.LedgerChanged{Op: op, BetIDs: ids, Size: t.Store.Len()}
	if err := t.Events.PublishLedgerChanged(ctx, e); err != nil {
		t.Log.Warn("ledger_changed publish failed", zap.String("op", op), zap.Error(err))
	}
}

// settled publica bet_settled quando o resultado muda: PENDING => final, final => outro final
// ou final => PENDING (o histórico precisa saber que a liquidação foi desfeita).
func (t *Tracker) settled(ctx context.Context, before, after ledger.BetRecord, source string) {
	if after.Status == before.Status || (!after.Settled() && !before.Settled()) {
		return
	}
	if t.OnSettled != nil {
		t.OnSettled(string(after.Status))
	}
	if t.Events == nil {
		return
	}
	e := events.BetSettled{
		BetID:       after.ID,
		HomeTeam:    after.HomeTeam,
		AwayTeam:    after.AwayTeam,
		League:      after.League,
		Market:      after.Market,
		MatchDate:   after.MatchDate,
		Odds:        after.Odds,
		Stake:       after.Stake,
		OldStatus:   string(before.Status),
		NewStatus:   string(after.Status),
		ResultScore: after.ResultScore,
		Profit:      settlement.Profit(after),
		Source:      source,
		SettledAt:   t.Now().UTC(),
	}
	if err := t.Events.PublishBetSettled(ctx, e); err != nil {
		t.Log.Warn("bet_settled publish failed", zap.String("betId", after.ID), zap.Error(err))
	}
}

func statusNotifyType(s ledger.Status) string {
	switch s {
	case ledger.StatusWon:
		return events.NotifySuccess
	case ledger.StatusLost:
		return events.NotifyError
	default:
		return events.NotifyWarning
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
