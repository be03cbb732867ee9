package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

func TestScale(t *testing.T) {
	base := []types.Ingredient{
		{Amount: 200, Measure: "g", Name: "Mehl", SourceDish: "Brot"},
		{Amount: 3, Name: "Eier", SourceDish: "Brot"},
		{Amount: 0, Name: "Milch", SourceDish: "Brot"},
	}

	tests := []struct {
		name      string
		declared  uint
		requested float64
	}{
		{"double", 4, 8},
		{"third", 3, 1},
		{"fractional request", 4, 2.5},
		{"large group", 2, 37},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scale(base, tt.declared, tt.requested)
			require.NoError(t, err)
			require.Len(t, got, len(base))
			ratio := tt.requested / float64(tt.declared)
			for i := range base {
				assert.Equal(t, base[i].Amount*ratio, got[i].Amount)
				assert.Equal(t, base[i].Measure, got[i].Measure)
				assert.Equal(t, base[i].Name, got[i].Name)
				assert.Equal(t, base[i].SourceDish, got[i].SourceDish)
			}
		})
	}
}

func TestScaleIdentity(t *testing.T) {
	base := []types.Ingredient{
		{Amount: 333.3333, Measure: "g", Name: "Zucker"},
		{Amount: 0.1, Measure: "l", Name: "Wasser"},
	}
	for _, people := range []uint{1, 3, 7, 14} {
		got, err := Scale(base, people, float64(people))
		require.NoError(t, err)
		assert.Equal(t, base, got)
	}
}

func TestScaleDoesNotMutateInput(t *testing.T) {
	base := []types.Ingredient{{Amount: 100, Name: "Reis"}}
	_, err := Scale(base, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 100.0, base[0].Amount)
}

func TestScaleZeroParticipants(t *testing.T) {
	_, err := Scale([]types.Ingredient{{Amount: 1, Name: "Ei"}}, 0, 4)
	assert.ErrorIs(t, err, types.ErrInvalidParticipantCount)
}
