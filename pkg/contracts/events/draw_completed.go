package events

import "time"

// Evento publicado no tópico "draw_completed" quando um sorteio fecha.
// Positions carrega as 10 posições na ordem do resultado (permutação de 1..10).
type DrawCompleted struct {
	PeriodID  string    `json:"period_id"`
	Positions []int     `json:"positions"`
	DrawnAt   time.Time `json:"drawn_at"`
	Source    string    `json:"source"` // "draw-simulator" | "draw-provider"
}
