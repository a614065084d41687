package dto

import "time"

// Resposta do POST /periods/{id}/settle. O rebate roda como passo
// independente: falha dele não desfaz a liquidação e aparece em RebateError.
type SettleResponse struct {
	Success         bool            `json:"success"`
	PeriodID        string          `json:"period_id"`
	SettledCount    int             `json:"settled_count"`
	WinCount        int             `json:"win_count"`
	TotalWinCents   int64           `json:"total_win_cents"`
	ExecutionTimeMs int64           `json:"execution_time_ms"`
	Rebate          *RebateResponse `json:"rebate,omitempty"`
	RebateError     string          `json:"rebate_error,omitempty"`
	Error           string          `json:"error,omitempty"`
}

type RebateResponse struct {
	Skipped    bool           `json:"skipped"`
	TotalCents int64          `json:"total_cents"`
	Credits    []RebateCredit `json:"credits,omitempty"`
}

type RebateCredit struct {
	AgentID     string `json:"agent_id"`
	MemberID    string `json:"member_id"`
	AmountCents int64  `json:"amount_cents"`
}

// Resposta do GET /periods/{id}/ledger.
type LedgerResponse struct {
	PeriodID string                `json:"period_id"`
	Entries  []LedgerEntryResponse `json:"entries"`
}

type LedgerEntryResponse struct {
	ID                 string    `json:"id"`
	OwnerType          string    `json:"owner_type"`
	OwnerID            string    `json:"owner_id"`
	AmountCents        int64     `json:"amount_cents"`
	BalanceBeforeCents int64     `json:"balance_before_cents"`
	BalanceAfterCents  int64     `json:"balance_after_cents"`
	ReasonCode         string    `json:"reason_code"`
	Description        string    `json:"description"`
	CreatedAt          time.Time `json:"created_at"`
}

// Resposta do GET /periods/{id}/summary.
type SummaryResponse struct {
	PeriodID      string    `json:"period_id"`
	SettledCount  int       `json:"settled_count"`
	WinCount      int       `json:"win_count"`
	TotalWinCents int64     `json:"total_win_cents"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}
