// Package oracle é a fronteira com o serviço externo que adjudica o resultado real de uma aposta.
//
// Verify tem três desfechos distintos:
//   - (*Verdict, nil): resultado obtido (pode ser PENDING, ex.: jogo em andamento)
//   - (nil, nil): inconclusivo, nenhuma mutação deve acontecer
//   - (nil, err) com errors.Is(err, ErrCommunication): falha de rede/serviço, transitória
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/radieske/bet-tracker/internal/gemini"
	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/settlement"
)

var ErrCommunication = errors.New("oracle communication error")

// Request é o subconjunto da aposta enviado ao oráculo.
type Request struct {
	BetID     string `json:"betId,omitempty"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	League    string `json:"league"`
	Market    string `json:"market"`
	MatchDate string `json:"matchDate"`
}

func RequestFor(r ledger.BetRecord) Request {
	return Request{
		BetID:     r.ID,
		HomeTeam:  r.HomeTeam,
		AwayTeam:  r.AwayTeam,
		League:    r.League,
		Market:    r.Market,
		MatchDate: r.MatchDate,
	}
}

// Oracle adjudica uma aposta.
type Oracle interface {
	Verify(ctx context.Context, req Request) (*settlement.Verdict, error)
}

func communication(err error) error {
	return fmt.Errorf("%w: %v", ErrCommunication, err)
}

type rawVerdict struct {
	Status    string `json:"status"`
	Score     any    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// ParseVerdict interpreta a resposta textual do oráculo.
// Texto vazio ou JSON malformado => nil (inconclusivo); status desconhecido vira PENDING.
func ParseVerdict(text string) *settlement.Verdict {
	if text == "" {
		return nil
	}
	var raw rawVerdict
	if err := json.Unmarshal([]byte(gemini.ExtractObject(text)), &raw); err != nil {
		return nil
	}
	v := &settlement.Verdict{
		Status:    settlement.CoerceStatus(ledger.Status(raw.Status)),
		Reasoning: raw.Reasoning,
	}
	switch s := raw.Score.(type) {
	case string:
		v.Score = s
	case nil:
	default:
		v.Score = fmt.Sprint(s)
	}
	return v
}
