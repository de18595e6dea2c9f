package analyst

import (
	"fmt"

	"google.golang.org/genai"
)

func quickPrompt(home, away, league string) string {
	return fmt.Sprintf(`Act as a professional football betting analyst.
Analyze the matchup between %s and %s in the %s.
Give a concise 3-sentence summary focused on team form, tactical advantages or historical context.`,
		home, away, league)
}

func detailedPrompt(home, away, league string) string {
	return fmt.Sprintf(`Analyze the upcoming football match between %s and %s in the %s.
Provide a comprehensive betting analysis.

REQUIREMENTS:
1. Win probabilities are integers between 0 and 100 and sum to exactly 100.
2. Provide 3 alternative higher-probability markets.
3. Diversify markets: Asian Handicap, BTTS, corners, cards or player props when confident.`,
		home, away, league)
}

var (
	schemaString = &genai.Schema{Type: genai.TypeString}
	schemaNumber = &genai.Schema{Type: genai.TypeNumber}
)

var matchAnalysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"predictedScore": {Type: genai.TypeString, Description: "Predicted score, e.g. 2-1"},
		"winProbability": {
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{"home": schemaNumber, "draw": schemaNumber, "away": schemaNumber},
			Required:   []string{"home", "draw", "away"},
		},
		"keyInsights":    {Type: genai.TypeArray, Items: schemaString},
		"recommendedBet": schemaString,
		"alternativeTips": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"market": schemaString, "probability": schemaString},
				Required:   []string{"market", "probability"},
			},
		},
		"confidence": schemaString,
		"reasoning":  schemaString,
	},
	Required: []string{
		"predictedScore", "winProbability", "keyInsights", "recommendedBet",
		"alternativeTips", "confidence", "reasoning",
	},
}

func dailyFixturesPrompt(now, date string) string {
	return fmt.Sprintf(`Current reference time: %[1]s (East Africa Time, UTC+3).
Target date: %[2]s.

Search for professional football matches scheduled STRICTLY for %[2]s.
Only return matches whose kickoff is on %[2]s; skip the previous or next day.

Scope: top European leagues and cups, second tiers (Championship, Eredivisie, Primeira Liga,
Super Lig, Belgian Pro League), Brasileirao, Argentina, MLS, SPL, J-League, A-League and
CAF/UEFA/CONMEBOL international fixtures.
Exclude futsal, esports, simulated reality, beach soccer, indoor and youth competitions.

Times are EAT. Status is "LIVE", "FINISHED", "SCHEDULED" or "POSTPONED".
Scores are required for LIVE and FINISHED matches.

Return a JSON array (15-20 fixtures when available) of
{"id","homeTeam","awayTeam","league","time":"HH:MM","date":"%[2]s","status","homeScore","awayScore"}.`,
		now, date)
}

func liveFixturesPrompt(now string) string {
	return fmt.Sprintf(`Current time: %s (EAT).
Find ALL professional football matches in play right now worldwide
(status markers like "Live", "1H", "2H", "HT", "ET", "Pen").
Exclude esports, futsal, SRL and virtual games, and matches already at full time.

Return a JSON array of
{"id","homeTeam","awayTeam","league","time":"current minute or 1H/HT/2H","date":"YYYY-MM-DD","status":"LIVE","homeScore","awayScore"}.`,
		now)
}

func liveAnalysisPrompt(now string, f Fixture) string {
	return fmt.Sprintf(`Real-time analysis for the ongoing match %s vs %s (%s).
Current reference time: %s (EAT).

Search the live status and game stats of this match now and answer concisely:
matchTime (e.g. 32', HT), currentScore, momentum (max 8 words), statsSummary (key stats only),
liveBetTip (an actionable market now) and reasoning (max 15 words).

Return JSON: {"matchTime","currentScore","momentum","statsSummary","liveBetTip","reasoning"}.`,
		f.HomeTeam, f.AwayTeam, f.League, now)
}

func betOfTheDayPrompt(now, date string) string {
	return fmt.Sprintf(`Act as a professional tipster.
Current time: %[1]s (EAT).
Target date: %[2]s.

Use web search to find REAL professional football matches on %[2]s and build a 3-5 leg accumulator.
Never invent teams such as "Team A" or "Placeholder FC"; if nothing is found return an empty list.
Vary the markets: Over/Under, BTTS, Double Chance, Draw No Bet, not only Match Winner.

Return JSON:
{"date":"%[2]s","selections":[{"homeTeam","awayTeam","league","market","odds":number,"startTime":"HH:MM EAT","matchDate":"%[2]s"}],
"totalOdds":number,"reasoning":"string","confidence":"string"}`,
		now, date)
}
