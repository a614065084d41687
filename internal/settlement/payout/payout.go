package payout

import "math"

// Valores monetários circulam como centavos inteiros (convenção da
// plataforma); o arredondamento de moeda acontece uma única vez, aqui.

// Amount calcula o prêmio em centavos: round2(stake * odds) sobre o valor em
// moeda equivale a arredondar o produto em centavos para o centavo mais
// próximo (metade para cima).
//
// Odds resolvidas <= 0 pagam 0; o chamador deve tratar isso como sinal de
// odds ausentes a montante, não como erro do apostador.
func Amount(stakeCents int64, odds float64) int64 {
	if odds <= 0 {
		return 0
	}
	return int64(math.Round(float64(stakeCents) * odds))
}
