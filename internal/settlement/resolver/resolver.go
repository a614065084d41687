package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/lottery-settlement-poc/internal/settlement/result"
)

// Bet é a visão mínima de um wager que o resolver precisa. A camada de
// persistência converte o modelo completo para cá antes de resolver.
type Bet struct {
	ID       string
	Category string
	Value    string
	Position int     // opcional; usado pelo dragão/tigre na forma "lado puro"
	Odds     float64 // odds persistidas; <= 0 aciona o fallback padrão
}

// Outcome é o resultado uniforme de toda resolução: ganhou/perdeu, odd
// aplicável e uma razão diagnóstica legível.
type Outcome struct {
	Win    bool
	Odds   float64
	Reason string
}

// Resolver decide vitória e odds de um wager contra um resultado canônico.
// Combinações irreconhecíveis nunca geram pânico: resolvem como derrota com
// odds 0 e razão diagnóstica.
type Resolver struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log}
}

type resolveFunc func(r *Resolver, b Bet, posIdx int, res result.Result) Outcome

// Tabela de despacho por categoria; cada função é pura fora do log de
// fallback de odds.
var dispatch = map[Kind]resolveFunc{
	KindNamedPosition: (*Resolver).resolveNamed,
	KindSum:           (*Resolver).resolveSum,
	KindDragonTiger:   (*Resolver).resolveDragonTiger,
	KindPosition:      (*Resolver).resolveCompound,
}

// Resolve despacha o wager para a categoria correspondente. Determinístico:
// o mesmo par (wager, resultado) sempre produz o mesmo Outcome.
func (r *Resolver) Resolve(b Bet, res result.Result) Outcome {
	kind, posIdx := ParseCategory(b.Category)
	fn, ok := dispatch[kind]
	if !ok {
		return lose("unknown category: " + b.Category)
	}
	return fn(r, b, posIdx, res)
}

// resolveNamed cobre as duas regras de posição nomeada: número exato na
// posição, ou dois lados (big/small/odd/even) sobre o valor sorteado.
func (r *Resolver) resolveNamed(b Bet, posIdx int, res result.Result) Outcome {
	drawn := res.At(posIdx)

	if n, err := strconv.Atoi(strings.TrimSpace(b.Value)); err == nil {
		if n < 1 || n > 10 {
			return lose(fmt.Sprintf("number %d out of range 1..10", n))
		}
		return Outcome{
			Win:    drawn == n,
			Odds:   r.oddsOrDefault(b, DefaultNumberOdds),
			Reason: fmt.Sprintf("pos%d=%d bet=%d", posIdx, drawn, n),
		}
	}

	side := ParseSide(b.Value)
	win, ok := sideHits(side, drawn)
	if !ok {
		return lose(fmt.Sprintf("invalid selector %q for position %d", b.Value, posIdx))
	}
	return Outcome{
		Win:    win,
		Odds:   r.oddsOrDefault(b, DefaultTwoSideOdds),
		Reason: fmt.Sprintf("pos%d=%d side=%s", posIdx, drawn, side),
	}
}

// resolveSum cobre a soma campeão + vice: soma exata (odds da tabela fixa) ou
// dois lados da soma (big >= 12, small <= 11, odd/even).
func (r *Resolver) resolveSum(b Bet, _ int, res result.Result) Outcome {
	sum := res.Sum()

	if n, err := strconv.Atoi(strings.TrimSpace(b.Value)); err == nil {
		odds := SumExactOdds(n)
		if odds == 0 {
			return lose(fmt.Sprintf("sum %d out of range 3..19", n))
		}
		return Outcome{
			Win:    sum == n,
			Odds:   odds,
			Reason: fmt.Sprintf("sum=%d bet=%d", sum, n),
		}
	}

	var win bool
	switch side := ParseSide(b.Value); side {
	case SideBig:
		win = sum >= 12
	case SideSmall:
		win = sum <= 11
	case SideOdd:
		win = sum%2 == 1
	case SideEven:
		win = sum%2 == 0
	default:
		return lose(fmt.Sprintf("invalid selector %q for sum", b.Value))
	}
	return Outcome{
		Win:    win,
		Odds:   r.oddsOrDefault(b, DefaultTwoSideOdds),
		Reason: fmt.Sprintf("sum=%d side=%s", sum, ParseSide(b.Value)),
	}
}

// resolveDragonTiger compara duas posições. O par vem do seletor explícito
// "a_b_lado" ou, na forma curta ("dragon"/"tiger"), da posição do wager
// contra a espelhada (a vs 11-a). Empate é estruturalmente impossível com o
// resultado canônico; índices inválidos ou iguais são rejeitados.
func (r *Resolver) resolveDragonTiger(b Bet, _ int, res result.Result) Outcome {
	var pa, pb int
	var side Side

	if a, bb, s, ok := ParsePair(b.Value); ok {
		pa, pb, side = a, bb, s
	} else {
		side = ParseSide(b.Value)
		if side != SideDragon && side != SideTiger {
			return lose(fmt.Sprintf("invalid selector %q for dragon_tiger", b.Value))
		}
		if b.Position < 1 || b.Position > 5 {
			return lose(fmt.Sprintf("invalid dragon_tiger position %d", b.Position))
		}
		pa, pb = b.Position, 11-b.Position
	}

	if pa < 1 || pa > 10 || pb < 1 || pb > 10 || pa == pb {
		return lose(fmt.Sprintf("invalid dragon_tiger pair (%d,%d)", pa, pb))
	}

	av, bv := res.At(pa), res.At(pb)
	win := (side == SideDragon && av > bv) || (side == SideTiger && av < bv)
	return Outcome{
		Win:    win,
		Odds:   r.oddsOrDefault(b, DefaultTwoSideOdds),
		Reason: fmt.Sprintf("pos%d=%d pos%d=%d side=%s", pa, av, pb, bv, side),
	}
}

// resolveCompound cobre a aposta genérica de dois lados em posição arbitrária,
// endereçada pelo seletor composto "<posição>_<lado>".
func (r *Resolver) resolveCompound(b Bet, _ int, res result.Result) Outcome {
	idx, side, ok := ParseCompound(b.Value)
	if !ok {
		return lose(fmt.Sprintf("invalid compound selector %q", b.Value))
	}
	if idx < 1 || idx > 10 {
		return lose(fmt.Sprintf("compound position %d out of range 1..10", idx))
	}
	drawn := res.At(idx)
	win, ok := sideHits(side, drawn)
	if !ok {
		return lose(fmt.Sprintf("invalid compound selector %q", b.Value))
	}
	return Outcome{
		Win:    win,
		Odds:   r.oddsOrDefault(b, DefaultTwoSideOdds),
		Reason: fmt.Sprintf("pos%d=%d side=%s", idx, drawn, side),
	}
}

// sideHits aplica um lado big/small/odd/even sobre um valor de posição.
// Lados dragão/tigre não se aplicam aqui.
func sideHits(side Side, v int) (win bool, ok bool) {
	switch side {
	case SideBig:
		return v >= 6, true
	case SideSmall:
		return v <= 5, true
	case SideOdd:
		return v%2 == 1, true
	case SideEven:
		return v%2 == 0, true
	}
	return false, false
}

// oddsOrDefault prefere a odd persistida no wager; o fallback é registrado em
// WARN para manter visível um possível defeito de dados na criação da aposta.
func (r *Resolver) oddsOrDefault(b Bet, def float64) float64 {
	if b.Odds > 0 {
		return b.Odds
	}
	r.log.Warn("default odds applied, wager has no stored odds",
		zap.String("wager_id", b.ID),
		zap.String("category", b.Category),
		zap.String("value", b.Value),
		zap.Float64("default_odds", def),
	)
	return def
}

func lose(reason string) Outcome {
	return Outcome{Win: false, Odds: 0, Reason: reason}
}
