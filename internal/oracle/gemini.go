package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/radieske/bet-tracker/internal/gemini"
	"github.com/radieske/bet-tracker/internal/settlement"
)

// Generator é o pedaço do cliente generativo que o oráculo usa.
type Generator interface {
	Generate(ctx context.Context, in gemini.Request) (*gemini.Response, error)
}

// GeminiVerifier adjudica apostas com o modelo generativo + busca web.
type GeminiVerifier struct {
	Gen Generator
}

func NewGeminiVerifier(g Generator) *GeminiVerifier { return &GeminiVerifier{Gen: g} }

func (v *GeminiVerifier) Verify(ctx context.Context, in Request) (*settlement.Verdict, error) {
	resp, err := v.Gen.Generate(ctx, gemini.Request{Prompt: verifyPrompt(in), Search: true})
	if errors.Is(err, gemini.ErrNoAPIKey) {
		// sem chave não há como adjudicar: inconclusivo, não falha de rede
		return nil, nil
	}
	if err != nil {
		return nil, communication(err)
	}
	return ParseVerdict(resp.Text), nil
}

func verifyPrompt(in Request) string {
	return fmt.Sprintf(`You settle football bets for a personal tracker.
Match: %s vs %s (%s), played on %s.
Bet market: %q.

Look up the official result of this match with web search.
- Not started yet: status "PENDING".
- In play: status "PENDING" and the live score with the minute, e.g. "1-0 (35')".
- Finished: the full-time score and whether the bet is WON, LOST or VOID.

Answer only with JSON: {"status": "WON"|"LOST"|"VOID"|"PENDING", "score": "string", "reasoning": "string"}`,
		in.HomeTeam, in.AwayTeam, in.League, in.MatchDate, in.Market)
}
