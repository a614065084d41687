package resolver

import (
	"strconv"
	"strings"
)

// Side é o seletor canônico de apostas de dois lados.
// Sinônimos em inglês, pinyin e chinês são normalizados aqui, na borda do
// resolver; a lógica de vitória nunca enxerga os aliases.
type Side int

const (
	SideUnknown Side = iota
	SideBig
	SideSmall
	SideOdd
	SideEven
	SideDragon
	SideTiger
)

func (s Side) String() string {
	switch s {
	case SideBig:
		return "big"
	case SideSmall:
		return "small"
	case SideOdd:
		return "odd"
	case SideEven:
		return "even"
	case SideDragon:
		return "dragon"
	case SideTiger:
		return "tiger"
	}
	return "unknown"
}

var sideAliases = map[string]Side{
	"big": SideBig, "da": SideBig, "大": SideBig,
	"small": SideSmall, "xiao": SideSmall, "小": SideSmall,
	"odd": SideOdd, "dan": SideOdd, "单": SideOdd,
	"even": SideEven, "shuang": SideEven, "双": SideEven,
	"dragon": SideDragon, "long": SideDragon, "龙": SideDragon,
	"tiger": SideTiger, "hu": SideTiger, "虎": SideTiger,
}

// ParseSide normaliza um seletor textual de dois lados; SideUnknown se não
// houver alias conhecido.
func ParseSide(raw string) Side {
	if s, ok := sideAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return SideUnknown
}

// Kind identifica a categoria de aposta após a normalização do texto da
// categoria persistida no wager.
type Kind int

const (
	KindUnknown Kind = iota
	KindNamedPosition     // posição nomeada (campeão..décimo): número exato ou dois lados
	KindSum               // soma campeão + vice (3..19)
	KindDragonTiger       // comparação entre par de posições
	KindPosition          // posição genérica endereçada pelo seletor composto
)

// Posições nomeadas: índice 1..10. Aceita nome em inglês, pinyin, chinês e o
// próprio índice textual.
var namedPositions = map[string]int{
	"champion": 1, "guanjun": 1, "冠军": 1,
	"runner_up": 2, "runnerup": 2, "yajun": 2, "亚军": 2,
	"third": 3, "第三名": 3,
	"fourth": 4, "第四名": 4,
	"fifth": 5, "第五名": 5,
	"sixth": 6, "第六名": 6,
	"seventh": 7, "第七名": 7,
	"eighth": 8, "第八名": 8,
	"ninth": 9, "第九名": 9,
	"tenth": 10, "第十名": 10,
}

var categoryAliases = map[string]Kind{
	"sum": KindSum, "champion_sum": KindSum, "guanyahe": KindSum, "冠亚和": KindSum,
	"dragon_tiger": KindDragonTiger, "dragontiger": KindDragonTiger, "longhu": KindDragonTiger, "龙虎": KindDragonTiger,
	"position": KindPosition, "pos": KindPosition,
}

// ParseCategory classifica a categoria textual de um wager. Para posições
// nomeadas devolve também o índice 1..10.
func ParseCategory(raw string) (Kind, int) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if k, ok := categoryAliases[c]; ok {
		return k, 0
	}
	if idx, ok := namedPositions[c]; ok {
		return KindNamedPosition, idx
	}
	// índice numérico puro também endereça a posição nomeada
	if n, err := strconv.Atoi(c); err == nil && n >= 1 && n <= 10 {
		return KindNamedPosition, n
	}
	return KindUnknown, 0
}

// ParseCompound decompõe o seletor composto "<posição>_<lado>" usado pela
// categoria genérica de posição (ex: "3_big", "7_大").
func ParseCompound(raw string) (idx int, side Side, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), "_", 2)
	if len(parts) != 2 {
		return 0, SideUnknown, false
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, SideUnknown, false
	}
	s := ParseSide(parts[1])
	if s == SideUnknown {
		return 0, SideUnknown, false
	}
	return n, s, true
}

// ParsePair decompõe o seletor "a_b_<lado>" do dragão/tigre com par explícito
// (ex: "1_10_dragon").
func ParsePair(raw string) (a, b int, side Side, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), "_", 3)
	if len(parts) != 3 {
		return 0, 0, SideUnknown, false
	}
	var err error
	if a, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, SideUnknown, false
	}
	if b, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, SideUnknown, false
	}
	s := ParseSide(parts[2])
	if s != SideDragon && s != SideTiger {
		return 0, 0, SideUnknown, false
	}
	return a, b, s, true
}
