package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/lottery-settlement-poc/internal/settlement/payout"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/resolver"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/result"
)

// Reason codes das entradas de ledger produzidas pelo motor.
const (
	ReasonWinPayout = "WIN_PAYOUT"
	ReasonRebate    = "REBATE"
)

// Result é a saída estruturada de uma liquidação.
type Result struct {
	Success       bool
	SettledCount  int
	WinCount      int
	TotalWinCents int64
	Duration      time.Duration
}

// Settler orquestra a liquidação de um período: normaliza o resultado,
// resolve cada aposta, paga e registra tudo em uma transação única.
// É stateless entre invocações; invocações concorrentes sobre o mesmo período
// são seguras pelo skip-locked do ClaimUnsettled.
type Settler struct {
	log      *zap.Logger
	store    Store
	resolver *resolver.Resolver
}

func NewSettler(log *zap.Logger, store Store, res *resolver.Resolver) *Settler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Settler{log: log, store: store, resolver: res}
}

// Settle liquida todas as apostas pendentes do período contra o resultado
// bruto informado (qualquer forma aceita pelo normalizador).
//
// Resultado malformado aborta tudo sem commit. Zero apostas reivindicadas é um
// no-op de sucesso — a distribuição de rebate continua sendo responsabilidade
// do chamador após o retorno, e é idempotente por período, o que cobre a
// recuperação de uma falha parcial anterior.
func (s *Settler) Settle(ctx context.Context, periodID string, raw any) (Result, error) {
	start := time.Now()

	res, err := result.Normalize(raw)
	if err != nil {
		s.log.Error("draw result rejected", zap.String("period_id", periodID), zap.Error(err))
		return Result{}, fmt.Errorf("normalize result for period %s: %w", periodID, err)
	}

	var out Result
	err = s.store.SettleTx(ctx, func(tx Tx) error {
		wagers, err := tx.ClaimUnsettled(ctx, periodID)
		if err != nil {
			return fmt.Errorf("claim unsettled: %w", err)
		}
		if len(wagers) == 0 {
			// outra invocação já liquidou (ou está liquidando) tudo
			out = Result{Success: true}
			return nil
		}

		perMember := make(map[string]int64)
		wagersPerMember := make(map[string]int)

		for i := range wagers {
			w := &wagers[i]
			oc := s.resolver.Resolve(resolver.Bet{
				ID:       w.ID,
				Category: w.Category,
				Value:    w.Value,
				Position: w.Position,
				Odds:     w.Odds,
			}, res)

			w.Settled = true
			w.Win = oc.Win
			w.Odds = oc.Odds
			w.SettleReason = oc.Reason
			w.PayoutCents = 0

			if oc.Win {
				w.PayoutCents = payout.Amount(w.StakeCents, oc.Odds)
				if w.PayoutCents == 0 {
					s.log.Warn("winning wager paid zero, odds missing upstream",
						zap.String("period_id", periodID),
						zap.String("wager_id", w.ID),
					)
				}
				out.WinCount++
				out.TotalWinCents += w.PayoutCents
				if w.PayoutCents > 0 {
					perMember[w.MemberID] += w.PayoutCents
					wagersPerMember[w.MemberID]++
				}
			}
			out.SettledCount++
		}

		if err := tx.MarkSettled(ctx, wagers); err != nil {
			return fmt.Errorf("mark settled: %w", err)
		}

		// ordem estável de crédito mantém a ordem de aquisição de locks
		// consistente entre invocações concorrentes
		members := make([]string, 0, len(perMember))
		for m := range perMember {
			members = append(members, m)
		}
		sort.Strings(members)

		for _, m := range members {
			desc := fmt.Sprintf("win payout period %s (%d wagers)", periodID, wagersPerMember[m])
			if err := tx.CreditMember(ctx, m, perMember[m], ReasonWinPayout, desc, periodID); err != nil {
				return fmt.Errorf("credit member %s: %w", m, err)
			}
		}

		out.Success = true
		return tx.InsertSummary(ctx, Summary{
			PeriodID:      periodID,
			SettledCount:  out.SettledCount,
			WinCount:      out.WinCount,
			TotalWinCents: out.TotalWinCents,
			DurationMs:    time.Since(start).Milliseconds(),
		})
	})
	if err != nil {
		s.log.Error("settlement aborted, rolled back", zap.String("period_id", periodID), zap.Error(err))
		return Result{}, err
	}

	out.Duration = time.Since(start)
	s.log.Info("period settled",
		zap.String("period_id", periodID),
		zap.Int("settled", out.SettledCount),
		zap.Int("wins", out.WinCount),
		zap.Int64("total_win_cents", out.TotalWinCents),
		zap.Duration("took", out.Duration),
	)
	return out, nil
}
