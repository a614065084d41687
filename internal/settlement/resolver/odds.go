package resolver

// Odds padrão aplicadas quando o wager não traz odds persistidas.
// Manter o fallback, mas sempre logar quando for usado: pode mascarar um
// defeito de integridade de dados na criação da aposta.
const (
	DefaultNumberOdds  = 9.85
	DefaultTwoSideOdds = 1.985
)

// Tabela fixa de odds para a aposta de soma exata (campeão + vice, 3..19).
var sumExactOdds = map[int]float64{
	3:  43.00,
	4:  21.50,
	5:  14.33,
	6:  10.75,
	7:  8.60,
	8:  7.16,
	9:  6.14,
	10: 5.37,
	11: 5.37,
	12: 6.14,
	13: 7.16,
	14: 8.60,
	15: 10.75,
	16: 14.33,
	17: 21.50,
	18: 43.00,
	19: 86.00,
}

// SumExactOdds devolve a odd da soma exata, ou 0 se a soma estiver fora da
// faixa 3..19.
func SumExactOdds(sum int) float64 { return sumExactOdds[sum] }
