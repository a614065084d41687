package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/lottery-settlement-poc/internal/settlement-service/producer"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/engine"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/rebate"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/repo"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/resolver"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/result"
	"github.com/radieske/lottery-settlement-poc/internal/shared/config"
	"github.com/radieske/lottery-settlement-poc/internal/shared/db"
	"github.com/radieske/lottery-settlement-poc/internal/shared/kafka"
	"github.com/radieske/lottery-settlement-poc/internal/shared/logger"
	"github.com/radieske/lottery-settlement-poc/internal/shared/metrics"
	ev "github.com/radieske/lottery-settlement-poc/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: apostas, contas, ledger e resumos
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: consome draw_completed para liquidar cada período
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicDrawCompleted, "settlement-worker")
	defer reader.Close()

	// Kafka producer: publica period_settled e, se preciso, manda pra DLQ
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPeriodSettled)
	defer settledWriter.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicDrawCompletedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicDrawCompletedDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus do worker
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_worker_draws_consumed_total", Help: "eventos draw_completed consumidos"})
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_worker_wagers_settled_total", Help: "apostas liquidadas"})
	rebates := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_worker_rebate_credits_total", Help: "créditos de rebate efetuados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_worker_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, settled, rebates, errorsBy)

	// Núcleo da liquidação
	store := repo.NewPostgres(pg)
	settler := engine.NewSettler(log, store, resolver.New(log))
	dist := rebate.NewDistributor(log, store, rebate.Config{
		PoolPctA: cfg.RebatePoolPctA,
		PoolPctB: cfg.RebatePoolPctB,
	})
	publ := producer.NewKafkaPublisher(settledWriter, cfg.TopicPeriodSettled)

	// Servidor HTTP para métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health", zap.String("port", cfg.MetricsPort))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicDrawCompleted),
		zap.String("publish", cfg.TopicPeriodSettled),
	)

	// Loop principal: consome sorteios fechados e liquida cada período
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("settlement-worker stopped")
				return
			}
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		consumed.Inc()

		var draw ev.DrawCompleted
		if jerr := json.Unmarshal(msg.Value, &draw); jerr != nil {
			errorsBy.WithLabelValues("decode").Inc()
			log.Error("unmarshal draw_completed", zap.Error(jerr))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value)
			}
			continue
		}

		if err := processDraw(ctx, log, settler, dist, publ, settled, rebates, &draw); err != nil {
			if errors.Is(err, result.ErrMalformed) {
				// resultado inválido nunca vai liquidar; DLQ pra correção manual
				errorsBy.WithLabelValues("normalize").Inc()
				if dlqWriter != nil {
					_ = kafka.WriteJSON(ctx, dlqWriter, draw.PeriodID, msg.Value)
				}
				continue
			}
			errorsBy.WithLabelValues("settle").Inc()
			log.Error("process draw", zap.String("period_id", draw.PeriodID), zap.Error(err))
			// Backoff simples; toda a operação é idempotente e pode ser repetida
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// processDraw executa o fluxo completo de um sorteio fechado:
// 1. Liquida as apostas pendentes do período
// 2. Distribui o rebate (idempotente por período)
// 3. Publica o evento period_settled
func processDraw(
	ctx context.Context,
	log *zap.Logger,
	settler *engine.Settler,
	dist *rebate.Distributor,
	publ *producer.KafkaPublisher,
	settled, rebates prometheus.Counter,
	draw *ev.DrawCompleted,
) error {
	res, err := settler.Settle(ctx, draw.PeriodID, draw.Positions)
	if err != nil {
		return err
	}
	settled.Add(float64(res.SettledCount))

	rb, err := dist.Distribute(ctx, draw.PeriodID)
	if err != nil {
		// liquidação já commitada; o rebate fica pra próxima tentativa
		log.Error("rebate distribution", zap.String("period_id", draw.PeriodID), zap.Error(err))
	} else {
		rebates.Add(float64(len(rb.Credits)))
	}

	return publ.PublishPeriodSettled(ctx, ev.PeriodSettled{
		PeriodID:      draw.PeriodID,
		SettledCount:  res.SettledCount,
		WinCount:      res.WinCount,
		TotalWinCents: res.TotalWinCents,
		RebateCents:   rb.TotalCents,
		DurationMs:    res.Duration.Milliseconds(),
	})
}
