package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/lottery-settlement-poc/internal/settlement/resolver"
)

// fakeStore emula o comportamento transacional do Postgres em memória:
// snapshot no início da unidade de trabalho, restauração em caso de erro, e
// claim imediato no ClaimUnsettled para reproduzir o skip-locked.
type fakeStore struct {
	mu        sync.Mutex
	wagers    map[string]*Wager
	claimed   map[string]bool
	credits   []fakeCredit
	summaries []Summary

	failCredit bool
}

type fakeCredit struct {
	memberID    string
	amountCents int64
	reasonCode  string
	description string
	periodID    string
}

func newFakeStore(wagers ...Wager) *fakeStore {
	f := &fakeStore{wagers: map[string]*Wager{}, claimed: map[string]bool{}}
	for i := range wagers {
		w := wagers[i]
		f.wagers[w.ID] = &w
	}
	return f
}

func (f *fakeStore) SettleTx(ctx context.Context, fn func(Tx) error) error {
	f.mu.Lock()
	snapWagers := make(map[string]*Wager, len(f.wagers))
	for id, w := range f.wagers {
		cp := *w
		snapWagers[id] = &cp
	}
	snapCredits := len(f.credits)
	snapSummaries := len(f.summaries)
	f.mu.Unlock()

	tx := &fakeTx{store: f}
	if err := fn(tx); err != nil {
		// rollback: estado volta ao snapshot, claims são liberados
		f.mu.Lock()
		f.wagers = snapWagers
		f.credits = f.credits[:snapCredits]
		f.summaries = f.summaries[:snapSummaries]
		for _, id := range tx.claimedIDs {
			delete(f.claimed, id)
		}
		f.mu.Unlock()
		return err
	}
	f.mu.Lock()
	for _, id := range tx.claimedIDs {
		delete(f.claimed, id)
	}
	f.mu.Unlock()
	return nil
}

type fakeTx struct {
	store      *fakeStore
	claimedIDs []string
}

func (t *fakeTx) ClaimUnsettled(_ context.Context, periodID string) ([]Wager, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	var out []Wager
	for id, w := range t.store.wagers {
		if w.PeriodID != periodID || w.Settled || t.store.claimed[id] {
			continue
		}
		t.store.claimed[id] = true
		t.claimedIDs = append(t.claimedIDs, id)
		out = append(out, *w)
	}
	return out, nil
}

func (t *fakeTx) MarkSettled(_ context.Context, wagers []Wager) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, w := range wagers {
		cur, ok := t.store.wagers[w.ID]
		if !ok {
			return fmt.Errorf("wager %s not found", w.ID)
		}
		*cur = w
	}
	return nil
}

func (t *fakeTx) CreditMember(_ context.Context, memberID string, amountCents int64, reasonCode, description, periodID string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.failCredit {
		return errors.New("credit boom")
	}
	t.store.credits = append(t.store.credits, fakeCredit{memberID, amountCents, reasonCode, description, periodID})
	return nil
}

func (t *fakeTx) InsertSummary(_ context.Context, s Summary) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.summaries = append(t.store.summaries, s)
	return nil
}

var drawSum11 = []int{5, 6, 1, 2, 3, 4, 7, 8, 9, 10}

func TestSettle_PaysWinnersAndRecordsSummary(t *testing.T) {
	store := newFakeStore(
		Wager{ID: "w1", MemberID: "m1", PeriodID: "p1", Category: "champion", Value: "5", StakeCents: 1000, Odds: 9.85},
		Wager{ID: "w2", MemberID: "m1", PeriodID: "p1", Category: "sum", Value: "12", StakeCents: 500},
		Wager{ID: "w3", MemberID: "m2", PeriodID: "p1", Category: "sum", Value: "small", StakeCents: 2000, Odds: 1.985},
		Wager{ID: "w4", MemberID: "m9", PeriodID: "p2", Category: "champion", Value: "5", StakeCents: 100, Odds: 9.85},
	)
	s := NewSettler(nil, store, resolver.New(nil))

	res, err := s.Settle(context.Background(), "p1", drawSum11)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.SettledCount)
	assert.Equal(t, 2, res.WinCount)
	assert.Equal(t, int64(9850+3970), res.TotalWinCents)

	// w1: 10.00 x 9.85 = 98.50
	assert.True(t, store.wagers["w1"].Settled)
	assert.True(t, store.wagers["w1"].Win)
	assert.Equal(t, int64(9850), store.wagers["w1"].PayoutCents)

	// w2: soma 11, aposta 12, perde com payout zero
	assert.True(t, store.wagers["w2"].Settled)
	assert.False(t, store.wagers["w2"].Win)
	assert.Equal(t, int64(0), store.wagers["w2"].PayoutCents)

	// w4 é de outro período e não pode ser tocado
	assert.False(t, store.wagers["w4"].Settled)

	// um crédito por apostador vencedor, com razão referenciando o período
	require.Len(t, store.credits, 2)
	for _, c := range store.credits {
		assert.Equal(t, ReasonWinPayout, c.reasonCode)
		assert.Equal(t, "p1", c.periodID)
		assert.True(t, strings.Contains(c.description, "p1"))
	}

	require.Len(t, store.summaries, 1)
	assert.Equal(t, "p1", store.summaries[0].PeriodID)
	assert.Equal(t, 3, store.summaries[0].SettledCount)
}

func TestSettle_SecondRunIsNoop(t *testing.T) {
	store := newFakeStore(
		Wager{ID: "w1", MemberID: "m1", PeriodID: "p1", Category: "champion", Value: "5", StakeCents: 1000, Odds: 9.85},
	)
	s := NewSettler(nil, store, resolver.New(nil))

	_, err := s.Settle(context.Background(), "p1", drawSum11)
	require.NoError(t, err)

	second, err := s.Settle(context.Background(), "p1", drawSum11)
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, 0, second.SettledCount)
	// nada muda no estado persistido na segunda passada
	assert.Len(t, store.credits, 1)
	assert.Len(t, store.summaries, 1)
}

func TestSettle_MalformedResultAbortsEverything(t *testing.T) {
	store := newFakeStore(
		Wager{ID: "w1", MemberID: "m1", PeriodID: "p1", Category: "champion", Value: "5", StakeCents: 1000, Odds: 9.85},
	)
	s := NewSettler(nil, store, resolver.New(nil))

	_, err := s.Settle(context.Background(), "p1", []int{1, 2, 3})
	require.Error(t, err)

	assert.False(t, store.wagers["w1"].Settled)
	assert.Empty(t, store.credits)
	assert.Empty(t, store.summaries)
}

func TestSettle_StorageFailureRollsBack(t *testing.T) {
	store := newFakeStore(
		Wager{ID: "w1", MemberID: "m1", PeriodID: "p1", Category: "champion", Value: "5", StakeCents: 1000, Odds: 9.85},
	)
	store.failCredit = true
	s := NewSettler(nil, store, resolver.New(nil))

	_, err := s.Settle(context.Background(), "p1", drawSum11)
	require.Error(t, err)

	// rollback completo: aposta segue pendente e pode ser liquidada de novo
	assert.False(t, store.wagers["w1"].Settled)
	assert.Empty(t, store.credits)
	assert.Empty(t, store.summaries)

	store.failCredit = false
	res, err := s.Settle(context.Background(), "p1", drawSum11)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SettledCount)
}

func TestSettle_ConcurrentAttemptsClaimDisjointSets(t *testing.T) {
	var wagers []Wager
	for i := 0; i < 40; i++ {
		wagers = append(wagers, Wager{
			ID:         fmt.Sprintf("w%02d", i),
			MemberID:   fmt.Sprintf("m%d", i%5),
			PeriodID:   "p1",
			Category:   "champion",
			Value:      "5",
			StakeCents: 1000,
			Odds:       9.85,
		})
	}
	store := newFakeStore(wagers...)
	s := NewSettler(nil, store, resolver.New(nil))

	var wg sync.WaitGroup
	results := make([]Result, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Settle(context.Background(), "p1", drawSum11)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// a união das duas tentativas cobre todas as apostas, sem sobreposição
	assert.Equal(t, 40, results[0].SettledCount+results[1].SettledCount)
	total := int64(0)
	for _, c := range store.credits {
		total += c.amountCents
	}
	// nenhuma aposta paga duas vezes
	assert.Equal(t, int64(40*9850), total)
	for _, w := range store.wagers {
		assert.True(t, w.Settled)
	}
}
