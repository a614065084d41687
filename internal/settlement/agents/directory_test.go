package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapGetter map[string]Agent

func (m mapGetter) Agent(_ context.Context, id string) (Agent, error) {
	a, ok := m[id]
	if !ok {
		return Agent{}, fmt.Errorf("agent %s not found", id)
	}
	return a, nil
}

func TestChain_NearestToRoot(t *testing.T) {
	g := mapGetter{
		"root": {ID: "root", RebatePct: 0.041, MarketClass: "A"},
		"mid":  {ID: "mid", ParentID: "root", RebatePct: 0.030},
		"leaf": {ID: "leaf", ParentID: "mid", RebatePct: 0.020},
	}

	chain, err := Chain(context.Background(), g, "leaf")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, "leaf", chain[0].ID)
	assert.Equal(t, "mid", chain[1].ID)
	assert.Equal(t, "root", chain[2].ID)
	assert.Equal(t, "root", Root(chain).ID)
}

func TestChain_SingleRoot(t *testing.T) {
	g := mapGetter{"root": {ID: "root"}}
	chain, err := Chain(context.Background(), g, "root")
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, "root", Root(chain).ID)
}

func TestChain_CycleHitsDepthCap(t *testing.T) {
	// a <-> b: ciclo acidental não pode laçar pra sempre
	g := mapGetter{
		"a": {ID: "a", ParentID: "b"},
		"b": {ID: "b", ParentID: "a"},
	}
	_, err := Chain(context.Background(), g, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestChain_MissingAgent(t *testing.T) {
	g := mapGetter{"leaf": {ID: "leaf", ParentID: "ghost"}}
	_, err := Chain(context.Background(), g, "leaf")
	assert.Error(t, err)
}
