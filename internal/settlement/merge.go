package settlement

import (
	"strings"

	"github.com/radieske/bet-tracker/internal/ledger"
)

// Prefixos das notas anexadas à análise após uma verificação.
const (
	NoteAIVerified   = "[AI Verified]"   // verificação individual
	NoteAutoVerified = "[Auto-Verified]" // verificação em lote dos pendentes
)

// Verdict é o resultado devolvido pelo oráculo para uma aposta.
type Verdict struct {
	Status    ledger.Status `json:"status"`
	Score     string        `json:"score"`
	Reasoning string        `json:"reasoning"`
}

// CoerceStatus converte o status externo; qualquer valor fora dos quatro conhecidos vira PENDING.
func CoerceStatus(s ledger.Status) ledger.Status {
	st, ok := ledger.ParseStatus(string(s))
	if !ok {
		return ledger.StatusPending
	}
	return st
}

// Merge aplica o veredito ao registro:
//   - status sempre sobrescrito (inclusive PENDING -> PENDING)
//   - resultScore sobrescrito quando o status do oráculo não é PENDING
//   - análise recebe uma nota nova no final, nunca substituindo o texto anterior
//
// Aplicar o mesmo veredito duas vezes converge status e placar; só a análise cresce.
func Merge(r ledger.BetRecord, v Verdict, note string) ledger.BetRecord {
	st := CoerceStatus(v.Status)
	r.Status = st
	if st != ledger.StatusPending {
		r.ResultScore = v.Score
	}
	r.Analysis = AppendNote(r.Analysis, note, v.Reasoning)
	return r
}

// Mutator adapta Merge para ledger.Store.Update.
func Mutator(v Verdict, note string) func(*ledger.BetRecord) {
	return func(r *ledger.BetRecord) { *r = Merge(*r, v, note) }
}

// AppendNote concatena "<prefix>: <text>" à análise existente, separado por linha em branco.
func AppendNote(analysis, prefix, text string) string {
	note := prefix + ": " + strings.TrimSpace(text)
	if strings.TrimSpace(analysis) == "" {
		return note
	}
	return analysis + "\n\n" + note
}
