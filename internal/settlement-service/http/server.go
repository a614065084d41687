package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/lottery-settlement-poc/internal/settlement-service/cache"
	"github.com/radieske/lottery-settlement-poc/internal/settlement-service/dto"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/engine"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/rebate"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/repo"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/result"
	"github.com/radieske/lottery-settlement-poc/pkg/contracts/events"
)

// SummaryStore define as leituras usadas pelos handlers de consulta.
type SummaryStore interface {
	GetSummary(ctx context.Context, periodID string) (engine.Summary, error)
	LedgerByPeriod(ctx context.Context, periodID string) ([]repo.LedgerEntry, error)
}

// Server expõe a API de liquidação: disparo manual/operacional e consulta de
// resumos por período.
type Server struct {
	log     *zap.Logger
	settler *engine.Settler
	dist    *rebate.Distributor
	store   SummaryStore
	cache   *cache.Cache
	publ    interface {
		PublishPeriodSettled(context.Context, events.PeriodSettled) error
	}
	// notificação fora do caminho transacional (Redis Pub/Sub); opcional
	broadcast func(ctx context.Context, payload []byte)

	// Hooks de métricas, ligados no main (opcionais)
	OnSettled func(res engine.Result)
	OnRebate  func(rb rebate.Result)
	OnError   func(stage string)
}

func NewServer(
	log *zap.Logger,
	settler *engine.Settler,
	dist *rebate.Distributor,
	store SummaryStore,
	c *cache.Cache,
	p interface {
		PublishPeriodSettled(context.Context, events.PeriodSettled) error
	},
	broadcast func(ctx context.Context, payload []byte),
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log, settler: settler, dist: dist, store: store, cache: c, publ: p, broadcast: broadcast}
}

// Router retorna o mux com as rotas da API de liquidação
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/periods/", s.route) // POST /periods/{id}/settle | GET /periods/{id}/summary | GET /periods/{id}/ledger
	return mux
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/periods/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "period id required", http.StatusBadRequest)
		return
	}
	periodID, action := parts[0], parts[1]

	switch {
	case action == "settle" && r.Method == http.MethodPost:
		s.settle(w, r, periodID)
	case action == "summary" && r.Method == http.MethodGet:
		s.summary(w, r, periodID)
	case action == "ledger" && r.Method == http.MethodGet:
		s.ledger(w, r, periodID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// settle liquida o período com o resultado bruto do corpo (qualquer forma
// aceita pelo normalizador) e dispara a distribuição de rebate na sequência.
func (s *Server) settle(w http.ResponseWriter, r *http.Request, periodID string) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		http.Error(w, "draw result body required", http.StatusBadRequest)
		return
	}

	res, err := s.settler.Settle(r.Context(), periodID, json.RawMessage(body))
	if err != nil {
		status := http.StatusInternalServerError
		stage := "settle"
		if errors.Is(err, result.ErrMalformed) {
			// resultado corrigido + retry ficam a cargo do chamador
			status = http.StatusBadRequest
			stage = "normalize"
		}
		if s.OnError != nil {
			s.OnError(stage)
		}
		w.WriteHeader(status)
		writeJSON(w, dto.SettleResponse{Success: false, PeriodID: periodID, Error: err.Error()})
		return
	}
	if s.OnSettled != nil {
		s.OnSettled(res)
	}

	resp := dto.SettleResponse{
		Success:         true,
		PeriodID:        periodID,
		SettledCount:    res.SettledCount,
		WinCount:        res.WinCount,
		TotalWinCents:   res.TotalWinCents,
		ExecutionTimeMs: res.Duration.Milliseconds(),
	}

	// passo independente: falha aqui não desfaz a liquidação já commitada
	rb, rerr := s.dist.Distribute(r.Context(), periodID)
	if rerr != nil {
		if s.OnError != nil {
			s.OnError("rebate")
		}
		resp.RebateError = rerr.Error()
	} else {
		if s.OnRebate != nil {
			s.OnRebate(rb)
		}
		rbResp := dto.RebateResponse{Skipped: rb.Skipped, TotalCents: rb.TotalCents}
		for _, c := range rb.Credits {
			rbResp.Credits = append(rbResp.Credits, dto.RebateCredit{
				AgentID: c.AgentID, MemberID: c.MemberID, AmountCents: c.AmountCents,
			})
		}
		resp.Rebate = &rbResp
	}

	s.notifySettled(periodID, res, rb)
	writeJSON(w, resp)
}

// notifySettled publica o evento period_settled no Kafka e no canal Redis.
// Melhor esforço: a liquidação já está commitada.
func (s *Server) notifySettled(periodID string, res engine.Result, rb rebate.Result) {
	ev := events.PeriodSettled{
		PeriodID:      periodID,
		SettledCount:  res.SettledCount,
		WinCount:      res.WinCount,
		TotalWinCents: res.TotalWinCents,
		RebateCents:   rb.TotalCents,
		DurationMs:    res.Duration.Milliseconds(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if s.publ != nil {
		if err := s.publ.PublishPeriodSettled(ctx, ev); err != nil {
			s.log.Warn("publish period_settled", zap.String("period_id", periodID), zap.Error(err))
		}
	}
	if s.broadcast != nil {
		b, _ := json.Marshal(ev)
		s.broadcast(ctx, b)
	}
}

// summary lê o resumo de liquidação do período: cache Redis primeiro, banco na
// sequência.
func (s *Server) summary(w http.ResponseWriter, r *http.Request, periodID string) {
	var resp dto.SummaryResponse
	if s.cache != nil {
		if hit, err := s.cache.GetSummary(r.Context(), periodID, &resp); err == nil && hit {
			writeJSON(w, resp)
			return
		}
	}

	sum, err := s.store.GetSummary(r.Context(), periodID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "no settlement for period", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp = dto.SummaryResponse{
		PeriodID:      sum.PeriodID,
		SettledCount:  sum.SettledCount,
		WinCount:      sum.WinCount,
		TotalWinCents: sum.TotalWinCents,
		DurationMs:    sum.DurationMs,
		CreatedAt:     sum.CreatedAt,
	}
	if s.cache != nil {
		if err := s.cache.SetSummary(r.Context(), periodID, resp); err != nil {
			s.log.Warn("summary cache set", zap.Error(err))
		}
	}
	writeJSON(w, resp)
}

// ledger lista as entradas de ledger geradas para o período (pagamentos de
// vitória e créditos de rebate), na ordem de criação. Auditoria operacional.
func (s *Server) ledger(w http.ResponseWriter, r *http.Request, periodID string) {
	entries, err := s.store.LedgerByPeriod(r.Context(), periodID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.LedgerResponse{PeriodID: periodID, Entries: []dto.LedgerEntryResponse{}}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.LedgerEntryResponse{
			ID:                 e.ID,
			OwnerType:          e.OwnerType,
			OwnerID:            e.OwnerID,
			AmountCents:        e.AmountCents,
			BalanceBeforeCents: e.BalanceBeforeCents,
			BalanceAfterCents:  e.BalanceAfterCents,
			ReasonCode:         e.ReasonCode,
			Description:        e.Description,
			CreatedAt:          e.CreatedAt,
		})
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
