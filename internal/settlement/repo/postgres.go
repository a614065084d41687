package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/lottery-settlement-poc/internal/settlement/agents"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/engine"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/rebate"
)

// Postgres implementa as unidades de trabalho da liquidação e do rebate sobre
// um banco Postgres único.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrNotFound = errors.New("not found")

	// ErrNegativeBalance marca um crédito/débito que deixaria o saldo
	// negativo; a operação é rejeitada, nunca ajustada.
	ErrNegativeBalance = errors.New("operation would leave negative balance")
)

// SettleTx abre a transação única da liquidação (engine.Store).
func (p *Postgres) SettleTx(ctx context.Context, fn func(engine.Tx) error) error {
	return p.inTx(ctx, func(t *pgTx) error { return fn(t) })
}

// RebateTx abre a transação única da distribuição de rebate (rebate.Store).
// O advisory lock serializa distribuições concorrentes do mesmo período: sob
// READ COMMITTED a guarda de idempotência só é confiável depois que a
// transação concorrente commitou, então o lock vem antes da guarda.
func (p *Postgres) RebateTx(ctx context.Context, periodID string, fn func(rebate.Tx) error) error {
	return p.inTx(ctx, func(t *pgTx) error {
		if _, err := t.tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`, periodID); err != nil {
			return fmt.Errorf("lock period %s: %w", periodID, err)
		}
		return fn(t)
	})
}

func (p *Postgres) inTx(ctx context.Context, fn func(*pgTx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetSummary devolve o resumo mais recente de liquidação do período (leitura
// fora de transação, usada pela API).
func (p *Postgres) GetSummary(ctx context.Context, periodID string) (engine.Summary, error) {
	var s engine.Summary
	err := p.db.QueryRowContext(ctx, `
		SELECT id, period_id, settled_count, win_count, total_win_cents, duration_ms, created_at
		FROM settlement_summaries
		WHERE period_id=$1
		ORDER BY created_at DESC
		LIMIT 1`, periodID).
		Scan(&s.ID, &s.PeriodID, &s.SettledCount, &s.WinCount, &s.TotalWinCents, &s.DurationMs, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return engine.Summary{}, ErrNotFound
	}
	if err != nil {
		return engine.Summary{}, err
	}
	return s, nil
}

// LedgerByPeriod lista as entradas de ledger geradas para o período, na ordem
// de criação (leitura de auditoria, fora de transação).
func (p *Postgres) LedgerByPeriod(ctx context.Context, periodID string) ([]LedgerEntry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, owner_type, owner_id, amount_cents, balance_before_cents, balance_after_cents, reason_code, description, period_id, created_at
		FROM ledger_entries
		WHERE period_id=$1
		ORDER BY created_at, id`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.OwnerType, &e.OwnerID, &e.AmountCents, &e.BalanceBeforeCents, &e.BalanceAfterCents, &e.ReasonCode, &e.Description, &e.PeriodID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// pgTx implementa engine.Tx e rebate.Tx sobre a mesma *sql.Tx.
type pgTx struct{ tx *sql.Tx }

// ClaimUnsettled seleciona as apostas pendentes do período com
// FOR UPDATE SKIP LOCKED: linhas já reivindicadas por outra liquidação
// concorrente ficam de fora deste lote, garantindo no máximo uma passada de
// liquidação por aposta.
func (t *pgTx) ClaimUnsettled(ctx context.Context, periodID string) ([]engine.Wager, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, member_id, period_id, category, value, COALESCE(position, 0), stake_cents, COALESCE(odds, 0)
		FROM wagers
		WHERE period_id=$1 AND settled=false
		FOR UPDATE SKIP LOCKED`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Wager
	for rows.Next() {
		var w engine.Wager
		if err := rows.Scan(&w.ID, &w.MemberID, &w.PeriodID, &w.Category, &w.Value, &w.Position, &w.StakeCents, &w.Odds); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// MarkSettled grava o lote inteiro em uma única escrita via unnest.
func (t *pgTx) MarkSettled(ctx context.Context, wagers []engine.Wager) error {
	if len(wagers) == 0 {
		return nil
	}

	ids := make([]string, len(wagers))
	wins := make([]bool, len(wagers))
	payouts := make([]int64, len(wagers))
	odds := make([]float64, len(wagers))
	reasons := make([]string, len(wagers))
	for i, w := range wagers {
		ids[i] = w.ID
		wins[i] = w.Win
		payouts[i] = w.PayoutCents
		odds[i] = w.Odds
		reasons[i] = w.SettleReason
	}

	_, err := t.tx.ExecContext(ctx, `
		UPDATE wagers AS w SET
		  settled       = true,
		  win           = u.win,
		  payout_cents  = u.payout_cents,
		  odds          = u.odds,
		  settle_reason = u.settle_reason,
		  updated_at    = NOW()
		FROM (
		  SELECT unnest($1::text[])    AS id,
		         unnest($2::boolean[]) AS win,
		         unnest($3::bigint[])  AS payout_cents,
		         unnest($4::float8[])  AS odds,
		         unnest($5::text[])    AS settle_reason
		) AS u
		WHERE w.id = u.id`,
		pq.Array(ids), pq.Array(wins), pq.Array(payouts), pq.Array(odds), pq.Array(reasons),
	)
	return err
}

func (t *pgTx) CreditMember(ctx context.Context, memberID string, amountCents int64, reasonCode, description, periodID string) error {
	return t.credit(ctx, "members", OwnerMember, memberID, amountCents, reasonCode, description, periodID)
}

func (t *pgTx) CreditAgent(ctx context.Context, agentID string, amountCents int64, reasonCode, description, periodID string) error {
	return t.credit(ctx, "agents", OwnerAgent, agentID, amountCents, reasonCode, description, periodID)
}

// credit aplica um delta de saldo sob lock pessimista da linha do dono e grava
// a entrada de ledger com saldo antes/depois.
func (t *pgTx) credit(ctx context.Context, table, ownerType, ownerID string, amountCents int64, reasonCode, description, periodID string) error {
	var before int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT balance_cents FROM `+table+` WHERE id=$1 FOR UPDATE`, ownerID).Scan(&before)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%s %s: %w", ownerType, ownerID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	after := before + amountCents
	if after < 0 {
		return fmt.Errorf("%s %s: balance %d + %d: %w", ownerType, ownerID, before, amountCents, ErrNegativeBalance)
	}

	if _, err := t.tx.ExecContext(ctx,
		`UPDATE `+table+` SET balance_cents=$1 WHERE id=$2`, after, ownerID); err != nil {
		return err
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO ledger_entries
		  (id, owner_type, owner_id, amount_cents, balance_before_cents, balance_after_cents, reason_code, description, period_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())`,
		uuid.NewString(), ownerType, ownerID, amountCents, before, after, reasonCode, description, nullIfEmpty(periodID),
	)
	return err
}

func (t *pgTx) InsertSummary(ctx context.Context, s engine.Summary) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO settlement_summaries
		  (id, period_id, settled_count, win_count, total_win_cents, duration_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
		uuid.NewString(), s.PeriodID, s.SettledCount, s.WinCount, s.TotalWinCents, s.DurationMs,
	)
	return err
}

// HasRebate é a guarda de idempotência por período da distribuição de rebate;
// roda na mesma transação dos créditos.
func (t *pgTx) HasRebate(ctx context.Context, periodID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS(
		  SELECT 1 FROM ledger_entries WHERE reason_code=$1 AND period_id=$2
		)`, engine.ReasonRebate, periodID).Scan(&exists)
	return exists, err
}

func (t *pgTx) StakesByMember(ctx context.Context, periodID string) ([]rebate.MemberStake, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT w.member_id, m.agent_id, m.market_class, SUM(w.stake_cents)
		FROM wagers w
		JOIN members m ON m.id = w.member_id
		WHERE w.period_id=$1 AND w.settled=true
		GROUP BY w.member_id, m.agent_id, m.market_class
		ORDER BY w.member_id`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []rebate.MemberStake
	for rows.Next() {
		var st rebate.MemberStake
		if err := rows.Scan(&st.MemberID, &st.AgentID, &st.MarketClass, &st.StakeCents); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Agent resolve um agente por id dentro da transação (agents.Getter).
func (t *pgTx) Agent(ctx context.Context, id string) (agents.Agent, error) {
	var a agents.Agent
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, COALESCE(parent_id, ''), rebate_pct, market_class, balance_cents
		FROM agents
		WHERE id=$1`, id).
		Scan(&a.ID, &a.ParentID, &a.RebatePct, &a.MarketClass, &a.BalanceCents)
	if err == sql.ErrNoRows {
		return agents.Agent{}, fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return agents.Agent{}, err
	}
	return a, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
