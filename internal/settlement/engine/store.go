package engine

import (
	"context"
	"time"
)

// Wager é o modelo de aposta persistido (tabela wagers). Depois de
// settled=true os campos de resolução nunca mais mudam.
type Wager struct {
	ID           string
	MemberID     string
	PeriodID     string
	Category     string
	Value        string
	Position     int // 0 quando não se aplica
	StakeCents   int64
	Odds         float64 // 0 quando a aposta foi criada sem odds
	Settled      bool
	Win          bool
	PayoutCents  int64
	SettleReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary é o registro de auditoria de uma passada de liquidação.
type Summary struct {
	ID            string
	PeriodID      string
	SettledCount  int
	WinCount      int
	TotalWinCents int64
	DurationMs    int64
	CreatedAt     time.Time
}

// Tx é a unidade de trabalho atômica da liquidação. Todas as operações rodam
// dentro de uma única transação: qualquer erro desfaz tudo.
type Tx interface {
	// ClaimUnsettled seleciona as apostas não liquidadas do período com lock
	// de linha não bloqueante (skip-locked): linhas já reivindicadas por uma
	// liquidação concorrente simplesmente não aparecem aqui.
	ClaimUnsettled(ctx context.Context, periodID string) ([]Wager, error)

	// MarkSettled persiste win/payout/odds/settled=true de todo o lote em uma
	// única escrita.
	MarkSettled(ctx context.Context, wagers []Wager) error

	// CreditMember incrementa o saldo do apostador sob lock de linha e grava
	// uma entrada de ledger com saldo antes/depois. Saldo resultante negativo
	// é rejeitado, nunca ajustado.
	CreditMember(ctx context.Context, memberID string, amountCents int64, reasonCode, description, periodID string) error

	// InsertSummary grava o resumo da liquidação para observabilidade.
	InsertSummary(ctx context.Context, s Summary) error
}

// Store abre a unidade de trabalho da liquidação.
type Store interface {
	SettleTx(ctx context.Context, fn func(Tx) error) error
}
