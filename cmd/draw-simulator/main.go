package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/lottery-settlement-poc/internal/shared/config"
	"github.com/radieske/lottery-settlement-poc/internal/shared/kafka"
	"github.com/radieske/lottery-settlement-poc/internal/shared/logger"
	"github.com/radieske/lottery-settlement-poc/internal/shared/metrics"
	"github.com/radieske/lottery-settlement-poc/pkg/contracts/events"
)

var drawsPublished = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "simulator_draws_published_total",
	Help: "Total de sorteios simulados publicados",
})

func main() {
	cfg := config.Load()
	log, err := logger.New("draw-simulator", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(drawsPublished)
	metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error { return nil })

	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicDrawCompleted)
	defer writer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("draw-simulator started",
		zap.String("topic", cfg.TopicDrawCompleted),
		zap.Duration("interval", cfg.DrawInterval),
	)

	ticker := time.NewTicker(cfg.DrawInterval)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("draw-simulator stopped")
			return
		case <-ticker.C:
			seq++
			draw := events.DrawCompleted{
				PeriodID:  fmt.Sprintf("%s-%04d", time.Now().Format("20060102"), seq),
				Positions: randomDraw(),
				DrawnAt:   time.Now(),
				Source:    "draw-simulator",
			}
			b, _ := json.Marshal(draw)
			if err := kafka.WriteJSON(ctx, writer, draw.PeriodID, b); err != nil {
				log.Warn("publish draw", zap.String("period_id", draw.PeriodID), zap.Error(err))
				continue
			}
			drawsPublished.Inc()
			log.Info("draw published", zap.String("period_id", draw.PeriodID), zap.Ints("positions", draw.Positions))
		}
	}
}

// randomDraw sorteia uma permutação de 1..10, como um fechamento real
func randomDraw() []int {
	perm := rand.Perm(10)
	positions := make([]int, 10)
	for i, p := range perm {
		positions[i] = p + 1
	}
	return positions
}
