package result

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var canonical = [10]int{5, 6, 1, 2, 3, 4, 7, 8, 9, 10}

func TestNormalize_EquivalentShapesProduceSameResult(t *testing.T) {
	shapes := map[string]string{
		"positions": `{"positions":[5,6,1,2,3,4,7,8,9,10]}`,
		"result":    `{"result":[5,6,1,2,3,4,7,8,9,10]}`,
		"discrete":  `{"pos1":5,"pos2":6,"pos3":1,"pos4":2,"pos5":3,"pos6":4,"pos7":7,"pos8":8,"pos9":9,"pos10":10}`,
		"bare":      `[5,6,1,2,3,4,7,8,9,10]`,
	}

	for name, raw := range shapes {
		t.Run(name, func(t *testing.T) {
			r, err := NormalizeJSON([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, canonical, r.Positions)
		})
	}
}

func TestNormalize_NativeSlices(t *testing.T) {
	r, err := Normalize([]int{5, 6, 1, 2, 3, 4, 7, 8, 9, 10})
	require.NoError(t, err)
	assert.Equal(t, canonical, r.Positions)

	r, err = Normalize(json.RawMessage(`{"positions":[5,6,1,2,3,4,7,8,9,10]}`))
	require.NoError(t, err)
	assert.Equal(t, canonical, r.Positions)
}

func TestNormalize_Rejections(t *testing.T) {
	cases := map[string]string{
		"short":        `[1,2,3]`,
		"long":         `[1,2,3,4,5,6,7,8,9,10,1]`,
		"duplicate":    `[5,5,1,2,3,4,7,8,9,10]`,
		"out_of_range": `[5,6,1,2,3,4,7,8,9,11]`,
		"non_numeric":  `["a",6,1,2,3,4,7,8,9,10]`,
		"no_shape":     `{"winner":5}`,
		"bad_json":     `{positions}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeJSON([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}

	_, err := Normalize(42)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestResult_Accessors(t *testing.T) {
	r, err := Normalize(canonical[:])
	require.NoError(t, err)
	assert.Equal(t, 5, r.At(1))
	assert.Equal(t, 10, r.At(10))
	assert.Equal(t, 11, r.Sum())
}
