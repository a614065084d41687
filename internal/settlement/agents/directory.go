package agents

import (
	"context"
	"fmt"
)

// Agent é um nó da hierarquia de indicação. ParentID vazio marca a raiz da
// árvore. MarketClass ("A" | "B") determina o teto do pool de rebate.
type Agent struct {
	ID           string
	ParentID     string
	RebatePct    float64
	MarketClass  string
	BalanceCents int64
}

// MaxDepth é o teto duro de profundidade da cadeia. A hierarquia deveria ser
// uma árvore via parent_id, mas um ciclo acidental não pode travar a
// distribuição: acima disso a resolução falha em vez de laçar para sempre.
const MaxDepth = 15

// Getter resolve um agente por id (normalmente dentro da transação corrente).
type Getter interface {
	Agent(ctx context.Context, id string) (Agent, error)
}

// Chain resolve a cadeia de ancestrais a partir do agente dono do apostador,
// ordenada do mais próximo até a raiz (inclusive).
func Chain(ctx context.Context, g Getter, agentID string) ([]Agent, error) {
	var chain []Agent
	id := agentID
	for id != "" {
		if len(chain) >= MaxDepth {
			return nil, fmt.Errorf("agent chain from %s exceeds depth %d, possible cycle", agentID, MaxDepth)
		}
		a, err := g.Agent(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve agent %s: %w", id, err)
		}
		chain = append(chain, a)
		id = a.ParentID
	}
	return chain, nil
}

// Root devolve a raiz de uma cadeia já resolvida.
func Root(chain []Agent) Agent { return chain[len(chain)-1] }
