package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/lottery-settlement-poc/internal/settlement-service/dto"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/engine"
	"github.com/radieske/lottery-settlement-poc/internal/settlement/repo"
)

type fakeSummaryStore struct {
	summaries map[string]engine.Summary
	ledger    map[string][]repo.LedgerEntry
}

func (f *fakeSummaryStore) GetSummary(_ context.Context, periodID string) (engine.Summary, error) {
	s, ok := f.summaries[periodID]
	if !ok {
		return engine.Summary{}, repo.ErrNotFound
	}
	return s, nil
}

func (f *fakeSummaryStore) LedgerByPeriod(_ context.Context, periodID string) ([]repo.LedgerEntry, error) {
	return f.ledger[periodID], nil
}

func TestSummary_Found(t *testing.T) {
	store := &fakeSummaryStore{summaries: map[string]engine.Summary{
		"p1": {
			PeriodID:      "p1",
			SettledCount:  12,
			WinCount:      4,
			TotalWinCents: 98765,
			DurationMs:    17,
			CreatedAt:     time.Now(),
		},
	}}
	srv := NewServer(nil, nil, nil, store, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods/p1/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "p1", resp.PeriodID)
	assert.Equal(t, 12, resp.SettledCount)
	assert.Equal(t, int64(98765), resp.TotalWinCents)
}

func TestSummary_NotFound(t *testing.T) {
	srv := NewServer(nil, nil, nil, &fakeSummaryStore{}, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods/p9/summary", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLedger_ListsPeriodEntries(t *testing.T) {
	store := &fakeSummaryStore{ledger: map[string][]repo.LedgerEntry{
		"p1": {
			{ID: "l1", OwnerType: repo.OwnerMember, OwnerID: "m1", AmountCents: 9850, BalanceBeforeCents: 100, BalanceAfterCents: 9950, ReasonCode: engine.ReasonWinPayout, PeriodID: "p1"},
			{ID: "l2", OwnerType: repo.OwnerAgent, OwnerID: "root", AmountCents: 4100, BalanceBeforeCents: 0, BalanceAfterCents: 4100, ReasonCode: engine.ReasonRebate, PeriodID: "p1"},
		},
	}}
	srv := NewServer(nil, nil, nil, store, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods/p1/ledger", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.LedgerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, engine.ReasonWinPayout, resp.Entries[0].ReasonCode)
	assert.Equal(t, int64(4100), resp.Entries[1].AmountCents)
}

func TestLedger_EmptyPeriod(t *testing.T) {
	srv := NewServer(nil, nil, nil, &fakeSummaryStore{}, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods/p9/ledger", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.LedgerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Entries)
}

func TestRoute_BadPaths(t *testing.T) {
	srv := NewServer(nil, nil, nil, &fakeSummaryStore{}, nil, nil, nil)

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/periods/", http.StatusBadRequest},
		{http.MethodGet, "/periods/p1", http.StatusBadRequest},
		{http.MethodGet, "/periods/p1/unknown", http.StatusNotFound},
		{http.MethodGet, "/periods/p1/settle", http.StatusNotFound}, // settle é POST
	} {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestSettle_EmptyBodyRejected(t *testing.T) {
	srv := NewServer(nil, nil, nil, &fakeSummaryStore{}, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/periods/p1/settle", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
