package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Result é a forma canônica de um resultado de sorteio: 10 posições ordenadas,
// cada uma com um valor distinto entre 1 e 10.
type Result struct {
	Positions [10]int `json:"positions"`
}

// ErrMalformed indica que o resultado recebido não bate com nenhuma das formas
// aceitas; a liquidação do período inteiro deve abortar sem commit.
var ErrMalformed = errors.New("malformed draw result")

// Normalize aceita um resultado de sorteio em qualquer uma das formas abaixo e
// devolve a forma canônica:
//   - {"positions": [10 ints]}
//   - {"result": [10 ints]}
//   - campos discretos {"pos1": n, ..., "pos10": n}
//   - array puro de 10 elementos
//
// Bytes JSON também são aceitos (mensagens vindas do Kafka/HTTP).
func Normalize(v any) (Result, error) {
	switch t := v.(type) {
	case Result:
		return validate(t.Positions[:])
	case json.RawMessage:
		return NormalizeJSON(t)
	case []byte:
		return NormalizeJSON(t)
	case []int:
		return validate(t)
	case []float64:
		return fromFloats(t)
	case []any:
		return fromAnySlice(t)
	case map[string]any:
		return fromMap(t)
	}
	return Result{}, fmt.Errorf("%w: unsupported shape %T", ErrMalformed, v)
}

// NormalizeJSON decodifica o payload bruto e delega para Normalize.
func NormalizeJSON(raw []byte) (Result, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Result{}, fmt.Errorf("%w: invalid json: %v", ErrMalformed, err)
	}
	switch t := v.(type) {
	case []any:
		return fromAnySlice(t)
	case map[string]any:
		return fromMap(t)
	}
	return Result{}, fmt.Errorf("%w: unsupported json shape", ErrMalformed)
}

func fromMap(m map[string]any) (Result, error) {
	if arr, ok := m["positions"]; ok {
		return Normalize(arr)
	}
	if arr, ok := m["result"]; ok {
		return Normalize(arr)
	}

	// Forma com campos discretos pos1..pos10
	vals := make([]int, 0, 10)
	for i := 1; i <= 10; i++ {
		raw, ok := m["pos"+strconv.Itoa(i)]
		if !ok {
			return Result{}, fmt.Errorf("%w: no positions/result array and missing pos%d", ErrMalformed, i)
		}
		n, err := toInt(raw)
		if err != nil {
			return Result{}, fmt.Errorf("%w: pos%d: %v", ErrMalformed, i, err)
		}
		vals = append(vals, n)
	}
	return validate(vals)
}

func fromAnySlice(s []any) (Result, error) {
	vals := make([]int, 0, len(s))
	for i, raw := range s {
		n, err := toInt(raw)
		if err != nil {
			return Result{}, fmt.Errorf("%w: index %d: %v", ErrMalformed, i, err)
		}
		vals = append(vals, n)
	}
	return validate(vals)
}

func fromFloats(s []float64) (Result, error) {
	vals := make([]int, 0, len(s))
	for i, f := range s {
		if f != float64(int(f)) {
			return Result{}, fmt.Errorf("%w: index %d: non-integer value %v", ErrMalformed, i, f)
		}
		vals = append(vals, int(f))
	}
	return validate(vals)
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("non-integer value %v", t)
		}
		return int(t), nil
	case int:
		return t, nil
	case json.Number:
		n, err := t.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(t)
	}
	return 0, fmt.Errorf("non-numeric value %T", v)
}

// validate garante exatamente 10 posições formando uma permutação de 1..10;
// empates entre posições são estruturalmente impossíveis depois daqui.
func validate(vals []int) (Result, error) {
	if len(vals) != 10 {
		return Result{}, fmt.Errorf("%w: expected 10 positions, got %d", ErrMalformed, len(vals))
	}
	var r Result
	var seen [11]bool
	for i, n := range vals {
		if n < 1 || n > 10 {
			return Result{}, fmt.Errorf("%w: position %d out of range: %d", ErrMalformed, i+1, n)
		}
		if seen[n] {
			return Result{}, fmt.Errorf("%w: duplicate value %d", ErrMalformed, n)
		}
		seen[n] = true
		r.Positions[i] = n
	}
	return r, nil
}

// At devolve o valor sorteado na posição idx (1..10).
func (r Result) At(idx int) int { return r.Positions[idx-1] }

// Sum devolve a soma das duas primeiras posições (campeão + vice).
func (r Result) Sum() int { return r.Positions[0] + r.Positions[1] }
