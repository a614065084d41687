package rebate

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/radieske/lottery-settlement-poc/internal/settlement/agents"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/engine"
)

// Classes de mercado fixas; cada uma implica um teto de pool de rebate.
const (
	MarketA = "A"
	MarketB = "B"
)

// MemberStake é o total apostado por um apostador em um período já liquidado.
type MemberStake struct {
	MemberID    string
	AgentID     string
	MarketClass string
	StakeCents  int64
}

// Credit descreve um crédito de rebate efetuado.
type Credit struct {
	AgentID     string
	MemberID    string
	PeriodID    string
	AmountCents int64
}

// Result é a saída estruturada de uma distribuição de rebate.
type Result struct {
	Skipped    bool // rebate do período já existia; nada foi creditado
	Credits    []Credit
	TotalCents int64
}

// Tx é a unidade de trabalho atômica da distribuição de rebate, separada da
// transação de liquidação. A guarda de idempotência e os créditos rodam na
// mesma transação.
type Tx interface {
	agents.Getter

	// HasRebate indica se já existe entrada de ledger de rebate referenciando
	// o período.
	HasRebate(ctx context.Context, periodID string) (bool, error)

	// StakesByMember agrupa as apostas liquidadas do período por apostador.
	StakesByMember(ctx context.Context, periodID string) ([]MemberStake, error)

	// CreditAgent incrementa o saldo do agente sob lock de linha e grava a
	// entrada de ledger com saldo antes/depois.
	CreditAgent(ctx context.Context, agentID string, amountCents int64, reasonCode, description, periodID string) error
}

// Store abre a unidade de trabalho do rebate. A implementação serializa
// execuções concorrentes do mesmo período antes da guarda de idempotência;
// sem isso, duas execuções sobrepostas leriam "sem rebate" e creditariam em
// dobro.
type Store interface {
	RebateTx(ctx context.Context, periodID string, fn func(Tx) error) error
}

// Config dá o percentual do pool por classe de mercado do apostador.
type Config struct {
	PoolPctA float64 // classe A (teto menor)
	PoolPctB float64 // classe B (teto maior)
}

// Distributor credita a comissão de hierarquia de um período, uma única vez.
//
// Regra autoritativa: o pool inteiro (stake * pct, arredondado a centavos) vai
// para o agente raiz, uma entrada de ledger por apostador. Agentes
// intermediários não recebem nada por aqui — o cálculo diferencial por
// intermediário existe só em visões de relatório, fora deste motor.
type Distributor struct {
	log   *zap.Logger
	store Store
	cfg   Config
}

func NewDistributor(log *zap.Logger, store Store, cfg Config) *Distributor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Distributor{log: log, store: store, cfg: cfg}
}

// Distribute roda após a liquidação do período. Falha aqui não desfaz a
// liquidação já commitada; com a guarda de idempotência dentro da transação,
// qualquer tentativa posterior é segura.
func (d *Distributor) Distribute(ctx context.Context, periodID string) (Result, error) {
	var out Result
	err := d.store.RebateTx(ctx, periodID, func(tx Tx) error {
		done, err := tx.HasRebate(ctx, periodID)
		if err != nil {
			return fmt.Errorf("rebate guard: %w", err)
		}
		if done {
			out.Skipped = true
			return nil
		}

		stakes, err := tx.StakesByMember(ctx, periodID)
		if err != nil {
			return fmt.Errorf("stakes by member: %w", err)
		}
		// ordem estável de crédito, como na liquidação
		sort.Slice(stakes, func(i, j int) bool { return stakes[i].MemberID < stakes[j].MemberID })

		for _, st := range stakes {
			chain, err := agents.Chain(ctx, tx, st.AgentID)
			if err != nil {
				return fmt.Errorf("agent chain for member %s: %w", st.MemberID, err)
			}
			if len(chain) == 0 {
				d.log.Warn("member without agent, no rebate",
					zap.String("period_id", periodID),
					zap.String("member_id", st.MemberID),
				)
				continue
			}

			amount := int64(math.Round(float64(st.StakeCents) * d.poolPct(st.MarketClass)))
			if amount <= 0 {
				continue
			}

			root := agents.Root(chain)
			desc := fmt.Sprintf("rebate period %s member %s", periodID, st.MemberID)
			if err := tx.CreditAgent(ctx, root.ID, amount, engine.ReasonRebate, desc, periodID); err != nil {
				return fmt.Errorf("credit agent %s: %w", root.ID, err)
			}

			out.Credits = append(out.Credits, Credit{
				AgentID:     root.ID,
				MemberID:    st.MemberID,
				PeriodID:    periodID,
				AmountCents: amount,
			})
			out.TotalCents += amount
		}
		return nil
	})
	if err != nil {
		d.log.Error("rebate distribution failed, retriable", zap.String("period_id", periodID), zap.Error(err))
		return Result{}, err
	}

	if out.Skipped {
		d.log.Info("rebate already distributed, skipping", zap.String("period_id", periodID))
	} else {
		d.log.Info("rebate distributed",
			zap.String("period_id", periodID),
			zap.Int("credits", len(out.Credits)),
			zap.Int64("total_cents", out.TotalCents),
		)
	}
	return out, nil
}

// poolPct resolve o percentual do pool pela classe de mercado herdada pelo
// apostador. Classe desconhecida cai no teto menor, com aviso.
func (d *Distributor) poolPct(marketClass string) float64 {
	switch marketClass {
	case MarketA:
		return d.cfg.PoolPctA
	case MarketB:
		return d.cfg.PoolPctB
	}
	d.log.Warn("unknown market class, using class A pool pct", zap.String("market_class", marketClass))
	return d.cfg.PoolPctA
}
