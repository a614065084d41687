package topics

// Nomes padrão dos tópicos Kafka usados na plataforma de liquidação
const (
	DrawCompleted    = "draw_completed"
	PeriodSettled    = "period_settled"
	DrawCompletedDLQ = "draw_completed_dlq"
)
