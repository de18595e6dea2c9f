package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/oracle"
	"github.com/radieske/bet-tracker/internal/settlement"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// Outcome é o desfecho de uma verificação individual.
type Outcome string

const (
	OutcomeChanged      Outcome = "changed"
	OutcomeUnchanged    Outcome = "unchanged"
	OutcomeInconclusive Outcome = "inconclusive"
	outcomeFailed       Outcome = "failed" // só em métricas
)

type VerifyResult struct {
	Outcome Outcome             `json:"outcome"`
	Record  ledger.BetRecord    `json:"record"`
	Verdict *settlement.Verdict `json:"verdict,omitempty"`
}

// AutoVerify consulta o oráculo para uma aposta e funde o veredito (nota [AI Verified]).
// O veredito sobrescreve o status mesmo que ele tenha sido ajustado manualmente.
// Erros: ledger.ErrNotFound, oracle.ErrCommunication (ledger intacto) ou falha de persistência.
func (t *Tracker) AutoVerify(ctx context.Context, id string) (*VerifyResult, error) {
	before, ok := t.Store.Get(id)
	if !ok {
		return nil, ledger.ErrNotFound
	}

	v, err := t.Oracle.Verify(ctx, oracle.RequestFor(before))
	if err != nil {
		if !errors.Is(err, oracle.ErrCommunication) {
			err = fmt.Errorf("%w: %v", oracle.ErrCommunication, err)
		}
		t.Log.Warn("verify failed", zap.String("betId", id), zap.Error(err))
		t.observe(outcomeFailed)
		t.notify(ctx, "Verification failed due to network error", events.NotifyError)
		return nil, err
	}
	if v == nil {
		t.observe(OutcomeInconclusive)
		t.notify(ctx, "Could not verify result. Match might not have started.", events.NotifyWarning)
		return &VerifyResult{Outcome: OutcomeInconclusive, Record: before}, nil
	}

	found, err := t.Store.Update(ctx, id, settlement.Mutator(*v, settlement.NoteAIVerified))
	if err != nil {
		return nil, err
	}
	if !found {
		// removida enquanto o oráculo respondia
		return nil, ledger.ErrNotFound
	}
	after, _ := t.Store.Get(id)
	t.changed(ctx, "update", id)
	t.settled(ctx, before, after, SourceAIVerify)

	res := &VerifyResult{Outcome: OutcomeUnchanged, Record: after, Verdict: v}
	if after.Status != before.Status {
		res.Outcome = OutcomeChanged
		t.notify(ctx, fmt.Sprintf("Update: %s vs %s is %s (%s)", after.HomeTeam, after.AwayTeam, after.Status, v.Score),
			statusNotifyType(after.Status))
	} else {
		t.notify(ctx, fmt.Sprintf("Checked: Match is still %s (%s)", after.Status, v.Score), events.NotifyInfo)
	}
	t.observe(res.Outcome)
	return res, nil
}

// Report resume uma verificação em lote.
type Report struct {
	Checked      int `json:"checked"`
	Updated      int `json:"updated"`
	Inconclusive int `json:"inconclusive"`
	Failed       int `json:"failed"`
	Removed      int `json:"removed,omitempty"` // apagadas antes do resultado chegar
}

// CheckAllPending verifica em paralelo todas as apostas PENDING. Só vereditos finais
// (WON/LOST/VOID) são aplicados, com a nota [Auto-Verified]. Falha de uma aposta não afeta as outras
// e nunca vira erro do lote; o ctx cancela as consultas pendentes.
func (t *Tracker) CheckAllPending(ctx context.Context) Report {
	var pending []ledger.BetRecord
	for _, r := range t.Store.Snapshot() {
		if r.Status == ledger.StatusPending {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		t.notify(ctx, "No pending bets to check.", events.NotifyInfo)
		return Report{}
	}

	t.notify(ctx, fmt.Sprintf("Analyzing %d pending matches...", len(pending)), events.NotifyInfo)
	rep := Report{Checked: len(pending)}

	byID := make(map[string]ledger.BetRecord, len(pending))
	for _, r := range pending {
		byID[r.ID] = r
	}

	oracle.VerifyEach(ctx, t.Oracle, pending, t.BatchLimit, func(res oracle.Result) {
		switch {
		case res.Err != nil:
			rep.Failed++
			t.observe(outcomeFailed)
			t.Log.Warn("batch verify failed", zap.String("betId", res.ID), zap.Error(res.Err))
			return
		case res.Verdict == nil, settlement.CoerceStatus(res.Verdict.Status) == ledger.StatusPending:
			rep.Inconclusive++
			t.observe(OutcomeInconclusive)
			return
		}

		found, err := t.Store.Update(ctx, res.ID, settlement.Mutator(*res.Verdict, settlement.NoteAutoVerified))
		if err != nil {
			rep.Failed++
			t.observe(outcomeFailed)
			t.Log.Error("batch verify persist failed", zap.String("betId", res.ID), zap.Error(err))
			return
		}
		if !found {
			rep.Removed++
			return
		}
		after, _ := t.Store.Get(res.ID)
		rep.Updated++
		t.observe(OutcomeChanged)
		t.changed(ctx, "update", res.ID)
		t.settled(ctx, byID[res.ID], after, SourceAutoVerify)
		t.notify(ctx, fmt.Sprintf("%s vs %s: %s", after.HomeTeam, after.AwayTeam, after.Status), statusNotifyType(after.Status))
	})

	if rep.Failed > 0 {
		t.notify(ctx, "Error checking some matches.", events.NotifyError)
	}
	if rep.Updated > 0 {
		t.notify(ctx, fmt.Sprintf("Sync Complete: %d bets updated!", rep.Updated), events.NotifySuccess)
	} else {
		t.notify(ctx, "Sync Complete: No status changes found.", events.NotifyInfo)
	}
	t.Log.Info("pending check done",
		zap.Int("checked", rep.Checked),
		zap.Int("updated", rep.Updated),
		zap.Int("inconclusive", rep.Inconclusive),
		zap.Int("failed", rep.Failed),
	)
	return rep
}

// RunScheduler roda CheckAllPending a cada intervalo até ctx ser cancelado.
func (t *Tracker) RunScheduler(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	tk := time.NewTicker(every)
	defer tk.Stop()
	t.Log.Info("pending re-check scheduled", zap.Duration("every", every))
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			// sem pendentes não vale notificar a cada tick
			if t.pendingCount() > 0 {
				t.CheckAllPending(ctx)
			}
		}
	}
}

func (t *Tracker) pendingCount() int {
	n := 0
	for _, r := range t.Store.Snapshot() {
		if r.Status == ledger.StatusPending {
			n++
		}
	}
	return n
}

func (t *Tracker) observe(o Outcome) {
	if t.OnVerify != nil {
		t.OnVerify(string(o))
	}
}
