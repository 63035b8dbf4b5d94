package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMunicipality_HasIncome(t *testing.T) {
	income := 95000.0
	norm := 0.4

	m := Municipality{}
	assert.False(t, m.HasIncome())

	m.Income = &income
	assert.False(t, m.HasIncome())

	m.IncomeNorm = &norm
	assert.True(t, m.HasIncome())
}

func TestMunicipality_Weight(t *testing.T) {
	m := Municipality{}
	assert.Equal(t, 0.0, m.Weight("kmu"))

	m.Weights = map[string]float64{"kmu": 0.8}
	assert.Equal(t, 0.8, m.Weight("kmu"))
	assert.Equal(t, 0.0, m.Weight("tourism"))
}
