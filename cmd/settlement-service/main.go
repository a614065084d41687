package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	scache "github.com/radieske/lottery-settlement-poc/internal/settlement-service/cache"
	shttp "github.com/radieske/lottery-settlement-poc/internal/settlement-service/http"
	"github.com/radieske/lottery-settlement-poc/internal/settlement-service/producer"
	"github.com/radieske/lottery-settlement-poc/internal/settlement-service/pubsub"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/engine"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/rebate"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/repo"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/resolver"
	sharedcache "github.com/radieske/lottery-settlement-poc/internal/shared/cache"
	"github.com/radieske/lottery-settlement-poc/internal/shared/config"
	"github.com/radieske/lottery-settlement-poc/internal/shared/db"
	"github.com/radieske/lottery-settlement-poc/internal/shared/kafka"
	"github.com/radieske/lottery-settlement-poc/internal/shared/logger"
	"github.com/radieske/lottery-settlement-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("settlement-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	// Conexões: Postgres (fonte de verdade) e Redis (cache de resumo + pubsub)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Producer Kafka para o evento period_settled
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPeriodSettled)
	defer writer.Close()

	// Métricas Prometheus da liquidação
	settledWagers := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_wagers_settled_total", Help: "apostas liquidadas"})
	settledPeriods := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_periods_total", Help: "períodos liquidados com sucesso"})
	rebateCredits := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_rebate_credits_total", Help: "créditos de rebate efetuados"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(settledWagers, settledPeriods, rebateCredits, errorsBy)

	// Núcleo da liquidação
	store := repo.NewPostgres(pg)
	settler := engine.NewSettler(log, store, resolver.New(log))
	dist := rebate.NewDistributor(log, store, rebate.Config{
		PoolPctA: cfg.RebatePoolPctA,
		PoolPctB: cfg.RebatePoolPctB,
	})

	broadcaster := pubsub.NewRedisBroadcaster(redisClient)
	api := shttp.NewServer(
		log,
		settler,
		dist,
		store,
		scache.New(redisClient, cfg.SummaryCacheTTL),
		producer.NewKafkaPublisher(writer, cfg.TopicPeriodSettled),
		func(ctx context.Context, payload []byte) {
			if err := broadcaster.Publish(ctx, cfg.RedisPubSubChannel, payload); err != nil {
				log.Warn("pubsub broadcast", zap.Error(err))
			}
		},
	)
	api.OnSettled = func(res engine.Result) {
		settledPeriods.Inc()
		settledWagers.Add(float64(res.SettledCount))
	}
	api.OnRebate = func(rb rebate.Result) { rebateCredits.Add(float64(len(rb.Credits))) }
	api.OnError = func(stage string) { errorsBy.WithLabelValues(stage).Inc() }

	// Servidor HTTP público da API de liquidação
	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	// Servidor de métricas e health check (Postgres e Redis precisam responder)
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
