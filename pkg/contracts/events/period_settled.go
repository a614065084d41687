package events

import "time"

// Evento emitido após a liquidação de um período (tópico "period_settled").
type PeriodSettled struct {
	PeriodID      string    `json:"period_id"`
	SettledCount  int       `json:"settled_count"`
	WinCount      int       `json:"win_count"`
	TotalWinCents int64     `json:"total_win_cents"`
	RebateCents   int64     `json:"rebate_cents"`
	DurationMs    int64     `json:"duration_ms"`
	Ts            time.Time `json:"ts"`
}
