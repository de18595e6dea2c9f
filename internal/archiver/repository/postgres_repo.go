package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// PostgresRepo grava o histórico de liquidações (settlement_history)
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS settlement_history (
	  id           BIGSERIAL PRIMARY KEY,
	  bet_id       TEXT        NOT NULL,
	  home_team    TEXT        NOT NULL,
	  away_team    TEXT        NOT NULL,
	  league       TEXT        NOT NULL,
	  market       TEXT        NOT NULL,
	  match_date   TEXT        NOT NULL,
	  odds         NUMERIC(12,4) NOT NULL,
	  stake        NUMERIC(12,4) NOT NULL,
	  old_status   TEXT        NOT NULL,
	  new_status   TEXT        NOT NULL,
	  result_score TEXT,
	  profit       NUMERIC(12,4) NOT NULL,
	  source       TEXT        NOT NULL,
	  settled_at   TIMESTAMPTZ NOT NULL,
	  UNIQUE (bet_id, new_status, settled_at)
	);
	CREATE INDEX IF NOT EXISTS settlement_history_settled_at_idx ON settlement_history (settled_at);
`

// EnsureSchema cria a tabela se ainda não existir.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

// InsertSettlement grava o evento; reentrega do mesmo evento não duplica (inserted=false).
func (r *PostgresRepo) InsertSettlement(ctx context.Context, e events.BetSettled) (bool, error) {
	const q = `
		INSERT INTO settlement_history
		  (bet_id, home_team, away_team, league, market, match_date, odds, stake,
		   old_status, new_status, result_score, profit, source, settled_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (bet_id, new_status, settled_at) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, q,
		e.BetID, e.HomeTeam, e.AwayTeam, e.League, e.Market, e.MatchDate, e.Odds, e.Stake,
		e.OldStatus, e.NewStatus, e.ResultScore, e.Profit, e.Source, e.SettledAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return n > 0, nil
}

// MonthRow é o lucro líquido agregado de um mês de liquidações.
type MonthRow struct {
	Month   time.Time `json:"month"`
	Settled int       `json:"settled"`
	Profit  float64   `json:"profit"`
}

// MonthlyProfit agrega o histórico por mês a partir de since. Considera só a última
// liquidação de cada aposta, já que uma aposta pode ser reavaliada; se a última linha
// é PENDING a liquidação foi desfeita e a aposta sai do relatório.
func (r *PostgresRepo) MonthlyProfit(ctx context.Context, since time.Time) ([]MonthRow, error) {
	const q = `
		SELECT date_trunc('month', settled_at) AS month, COUNT(*), COALESCE(SUM(profit), 0)
		FROM (
		  SELECT DISTINCT ON (bet_id) bet_id, new_status, profit, settled_at
		  FROM settlement_history
		  WHERE settled_at >= $1
		  ORDER BY bet_id, settled_at DESC
		) last
		WHERE new_status <> 'PENDING'
		GROUP BY 1
		ORDER BY 1
	`
	rows, err := r.DB.QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthRow
	for rows.Next() {
		var m MonthRow
		if err := rows.Scan(&m.Month, &m.Settled, &m.Profit); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
