package repo

import "time"

// Tipos de dono de saldo no ledger.
const (
	OwnerMember = "MEMBER"
	OwnerAgent  = "AGENT"
)

// LedgerEntry é o registro imutável de uma mudança de saldo, sempre com os
// saldos antes/depois.
type LedgerEntry struct {
	ID                 string
	OwnerType          string
	OwnerID            string
	AmountCents        int64
	BalanceBeforeCents int64
	BalanceAfterCents  int64
	ReasonCode         string
	Description        string
	PeriodID           string
	CreatedAt          time.Time
}
