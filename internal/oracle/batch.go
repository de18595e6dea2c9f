package oracle

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/settlement"
)

// Result é o desfecho individual de uma aposta numa verificação em lote.
type Result struct {
	ID      string
	Verdict *settlement.Verdict
	Err     error
}

// Inconclusive indica que o oráculo respondeu sem determinação.
func (r Result) Inconclusive() bool { return r.Err == nil && r.Verdict == nil }

// VerifyEach dispara todas as verificações em paralelo (até limit simultâneas; <= 0 sem limite)
// e chama apply para cada resultado assim que ele chega. As chamadas de apply são serializadas,
// então quem aplica no ledger não precisa de sincronização extra.
// Falha ou ausência de uma aposta nunca cancela as demais.
func VerifyEach(ctx context.Context, o Oracle, recs []ledger.BetRecord, limit int, apply func(Result)) {
	verifyEach(ctx, o, recs, limit, func(_ int, res Result) { apply(res) })
}

// verifyEach passa junto a posição do registro em recs.
func verifyEach(ctx context.Context, o Oracle, recs []ledger.BetRecord, limit int, apply func(int, Result)) {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			v, err := o.Verify(ctx, RequestFor(rec))
			mu.Lock()
			defer mu.Unlock()
			apply(i, Result{ID: rec.ID, Verdict: v, Err: err})
			return nil // erro individual fica no Result, não aborta irmãos
		})
	}
	_ = g.Wait()
}

// VerifyBatch coleta os resultados na mesma ordem de recs, um por posição (ids repetidos inclusive).
func VerifyBatch(ctx context.Context, o Oracle, recs []ledger.BetRecord, limit int) []Result {
	out := make([]Result, len(recs))
	verifyEach(ctx, o, recs, limit, func(i int, res Result) {
		out[i] = res
	})
	return out
}
