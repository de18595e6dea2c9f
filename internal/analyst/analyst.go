// Package analyst reúne as consultas ao modelo generativo que não liquidam apostas:
// análise pré-jogo, fixtures do dia e ao vivo, leitura ao vivo e o acumulador do dia.
//
// Falha de transporte volta como ErrUpstream; resposta que não parseia vira resultado vazio.
package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/gemini"
)

var ErrUpstream = errors.New("analyst upstream error")

const noAnalysis = "No analysis available."

// Generator é o pedaço do cliente generativo usado aqui.
type Generator interface {
	Generate(ctx context.Context, in gemini.Request) (*gemini.Response, error)
}

type Analyst struct {
	Gen   Generator
	Cache FixtureCache // opcional
	Log   *zap.Logger

	// Live segura a lista ao vivo por alguns segundos; a tela faz polling.
	Live *gocache.Cache
	// Loc é o fuso de referência passado ao modelo (EAT por padrão).
	Loc *time.Location
	Now func() time.Time
}

func New(gen Generator, cache FixtureCache, log *zap.Logger) *Analyst {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyst{Gen: gen, Cache: cache, Log: log, Loc: referenceZone(), Now: time.Now}
}

func referenceZone() *time.Location {
	if loc, err := time.LoadLocation("Africa/Nairobi"); err == nil {
		return loc
	}
	return time.FixedZone("EAT", 3*60*60)
}

func (a *Analyst) refTime() string {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	loc := a.Loc
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc).Format("2006-01-02 15:04:05")
}

func (a *Analyst) generate(ctx context.Context, in gemini.Request) (*gemini.Response, error) {
	resp, err := a.Gen.Generate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return resp, nil
}

// QuickAnalysis devolve um resumo curto em texto livre.
func (a *Analyst) QuickAnalysis(ctx context.Context, home, away, league string) (string, error) {
	resp, err := a.generate(ctx, gemini.Request{Prompt: quickPrompt(home, away, league)})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return noAnalysis, nil
	}
	return resp.Text, nil
}

// DetailedAnalysis pede a análise estruturada com schema JSON. nil quando o modelo não responde.
func (a *Analyst) DetailedAnalysis(ctx context.Context, home, away, league string) (*MatchAnalysis, error) {
	resp, err := a.generate(ctx, gemini.Request{
		Prompt: detailedPrompt(home, away, league),
		JSON:   true,
		Schema: matchAnalysisSchema,
	})
	if err != nil {
		return nil, err
	}
	if resp.Text == "" {
		return nil, nil
	}
	var out MatchAnalysis
	if err := json.Unmarshal([]byte(gemini.ExtractObject(resp.Text)), &out); err != nil {
		a.Log.Warn("detailed analysis unparseable", zap.Error(err))
		return nil, nil
	}
	return &out, nil
}

// DailyFixtures busca os jogos de date (YYYY-MM-DD), filtra exclusões e datas erradas
// e guarda o resultado no cache.
func (a *Analyst) DailyFixtures(ctx context.Context, date string) (*FixtureResult, error) {
	if a.Cache != nil {
		if hit, ok, err := a.Cache.Get(ctx, date); err != nil {
			a.Log.Warn("fixtures cache get failed", zap.String("date", date), zap.Error(err))
		} else if ok {
			return hit, nil
		}
	}

	resp, err := a.generate(ctx, gemini.Request{Prompt: dailyFixturesPrompt(a.refTime(), date), Search: true})
	if err != nil {
		return nil, err
	}
	out := &FixtureResult{
		Fixtures: FilterFixtures(a.parseFixtures(resp.Text), date),
		Sources:  gemini.DedupSources(resp.Sources),
	}

	// lista vazia não vai pro cache: pode ser só uma busca ruim
	if a.Cache != nil && len(out.Fixtures) > 0 {
		if err := a.Cache.Set(ctx, date, *out); err != nil {
			a.Log.Warn("fixtures cache set failed", zap.String("date", date), zap.Error(err))
		}
	}
	return out, nil
}

const liveKey = "live"

// NewLiveCache cria o cache em memória da lista ao vivo.
func NewLiveCache(ttl time.Duration) *gocache.Cache { return gocache.New(ttl, 2*ttl) }

// LiveFixtures lista os jogos em andamento agora.
func (a *Analyst) LiveFixtures(ctx context.Context) (*FixtureResult, error) {
	if a.Live != nil {
		if v, ok := a.Live.Get(liveKey); ok {
			return v.(*FixtureResult), nil
		}
	}
	resp, err := a.generate(ctx, gemini.Request{Prompt: liveFixturesPrompt(a.refTime()), Search: true})
	if err != nil {
		return nil, err
	}
	out := &FixtureResult{
		Fixtures: a.parseFixtures(resp.Text),
		Sources:  gemini.DedupSources(resp.Sources),
	}
	if a.Live != nil {
		a.Live.SetDefault(liveKey, out)
	}
	return out, nil
}

// LiveAnalysis lê o estado atual de um jogo e sugere uma aposta ao vivo.
func (a *Analyst) LiveAnalysis(ctx context.Context, f Fixture) (*LiveAnalysis, error) {
	resp, err := a.generate(ctx, gemini.Request{Prompt: liveAnalysisPrompt(a.refTime(), f), Search: true})
	if err != nil {
		return nil, err
	}
	if resp.Text == "" {
		return nil, nil
	}
	var out LiveAnalysis
	if err := json.Unmarshal([]byte(gemini.ExtractObject(resp.Text)), &out); err != nil {
		a.Log.Warn("live analysis unparseable", zap.String("home", f.HomeTeam), zap.Error(err))
		return nil, nil
	}
	return &out, nil
}

// BetOfTheDay monta o acumulador de date. Pernas banidas ou de outro dia são descartadas
// e totalOdds é recalculado; sem pernas restantes o resultado é nil.
func (a *Analyst) BetOfTheDay(ctx context.Context, date string) (*Accumulator, error) {
	resp, err := a.generate(ctx, gemini.Request{Prompt: betOfTheDayPrompt(a.refTime(), date), Search: true})
	if err != nil {
		return nil, err
	}
	if resp.Text == "" {
		return nil, nil
	}
	var acc Accumulator
	if err := json.Unmarshal([]byte(gemini.ExtractObject(resp.Text)), &acc); err != nil {
		a.Log.Warn("bet of the day unparseable", zap.String("date", date), zap.Error(err))
		return nil, nil
	}
	acc.Selections = FilterSelections(acc.Selections, date)
	if len(acc.Selections) == 0 {
		return nil, nil
	}
	acc.TotalOdds = TotalOdds(acc.Selections)
	return &acc, nil
}

func (a *Analyst) parseFixtures(text string) []Fixture {
	raw := gemini.ExtractArray(text)
	if !strings.HasPrefix(raw, "[") {
		return []Fixture{}
	}
	var out []Fixture
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		a.Log.Warn("fixtures unparseable", zap.Error(err))
		return []Fixture{}
	}
	return out
}
