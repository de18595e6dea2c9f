package analyst

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/radieske/bet-tracker/internal/gemini"
)

// MatchAnalysis é a análise pré-jogo detalhada.
type MatchAnalysis struct {
	PredictedScore  string         `json:"predictedScore"`
	WinProbability  WinProbability `json:"winProbability"`
	KeyInsights     []string       `json:"keyInsights"`
	RecommendedBet  string         `json:"recommendedBet"`
	Confidence      string         `json:"confidence"`
	Reasoning       string         `json:"reasoning"`
	AlternativeTips []AltTip       `json:"alternativeTips"`
}

// WinProbability em pontos percentuais (0..100).
type WinProbability struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

type AltTip struct {
	Market      string `json:"market"`
	Probability string `json:"probability"`
}

// LiveAnalysis é a leitura em tempo real de um jogo em andamento.
type LiveAnalysis struct {
	MatchTime    string `json:"matchTime"`
	CurrentScore string `json:"currentScore"`
	Momentum     string `json:"momentum"`
	StatsSummary string `json:"statsSummary"`
	LiveBetTip   string `json:"liveBetTip"`
	Reasoning    string `json:"reasoning"`
}

// Status de um fixture.
const (
	FixtureScheduled = "SCHEDULED"
	FixtureLive      = "LIVE"
	FixtureFinished  = "FINISHED"
	FixturePostponed = "POSTPONED"
)

type Fixture struct {
	ID        string `json:"id"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	League    string `json:"league"`
	Time      string `json:"time"`
	Date      string `json:"date"`
	Status    string `json:"status,omitempty"`
	HomeScore Score  `json:"homeScore,omitempty"`
	AwayScore Score  `json:"awayScore,omitempty"`
}

// Score aceita número ou string no JSON gerado e guarda sempre como texto.
type Score string

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Score(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = Score(n.String())
	return nil
}

// FixtureResult agrupa os fixtures e as fontes usadas na busca.
type FixtureResult struct {
	Fixtures []Fixture       `json:"fixtures"`
	Sources  []gemini.Source `json:"sources"`
}

// BetSelection é uma perna do acumulador.
type BetSelection struct {
	HomeTeam  string  `json:"homeTeam"`
	AwayTeam  string  `json:"awayTeam"`
	League    string  `json:"league"`
	Market    string  `json:"market"`
	Odds      float64 `json:"odds"`
	StartTime string  `json:"startTime"`
	MatchDate string  `json:"matchDate,omitempty"`
}

// Accumulator é a aposta múltipla do dia.
type Accumulator struct {
	Date       string         `json:"date"`
	Selections []BetSelection `json:"selections"`
	TotalOdds  float64        `json:"totalOdds"`
	Reasoning  string         `json:"reasoning"`
	Confidence string         `json:"confidence"`
}

func (f Fixture) text() string {
	return strings.ToLower(f.League + " " + f.HomeTeam + " " + f.AwayTeam)
}

func (s BetSelection) text() string {
	return strings.ToLower(s.League + " " + s.HomeTeam + " " + s.AwayTeam)
}
