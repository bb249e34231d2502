package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceScenarioValid(t *testing.T) {
	p := ReferenceScenario()
	require.NoError(t, p.Validate())
	assert.Equal(t, 24, p.T())
}

func TestHorizonParametersValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *HorizonParameters)
	}{
		{"empty horizon", func(p *HorizonParameters) {
			p.Load, p.GridBuyPrice, p.GridSellPrice, p.Renewable1, p.Renewable2 = nil, nil, nil, nil, nil
		}},
		{"buy price length", func(p *HorizonParameters) { p.GridBuyPrice = p.GridBuyPrice[:3] }},
		{"sell price length", func(p *HorizonParameters) { p.GridSellPrice = append(p.GridSellPrice, 1) }},
		{"renewable length", func(p *HorizonParameters) { p.Renewable2 = p.Renewable2[1:] }},
		{"nan load", func(p *HorizonParameters) { p.Load[2] = math.NaN() }},
		{"inf price", func(p *HorizonParameters) { p.GridBuyPrice[0] = math.Inf(1) }},
		{"zero capacity", func(p *HorizonParameters) { p.ESSCapacity = 0 }},
		{"negative capacity", func(p *HorizonParameters) { p.ESSCapacity = -5 }},
		{"zero efficiency", func(p *HorizonParameters) { p.ESSEfficiency = 0 }},
		{"efficiency above one", func(p *HorizonParameters) { p.ESSEfficiency = 1.01 }},
		{"soc below zero", func(p *HorizonParameters) { p.SoCInitial = -0.1 }},
		{"soc above one", func(p *HorizonParameters) { p.SoCInitial = 1.5 }},
		{"nan cost", func(p *HorizonParameters) { p.DG1Cost = math.NaN() }},
		{"negative rating", func(p *HorizonParameters) { p.Ratings.DG1Max = -1 }},
		{"infinite generator", func(p *HorizonParameters) { p.Ratings.DG2Max = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ReferenceScenario()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameters), "got %v", err)
		})
	}
}

func TestHorizonParametersBoundaries(t *testing.T) {
	p := ReferenceScenario()
	p.ESSEfficiency = 1
	p.SoCInitial = 0
	p.Ratings.GridImportMax = 0
	assert.NoError(t, p.Validate())
	p.SoCInitial = 1
	assert.NoError(t, p.Validate())
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := ReferenceScenario()
	cp := p.Clone()
	cp.Load[0] = 1
	cp.GridBuyPrice[0] = 1
	assert.Equal(t, 169.0, p.Load[0])
	assert.Equal(t, 90.0, p.GridBuyPrice[0])
}

func TestStatusText(t *testing.T) {
	for _, st := range []Status{StatusOptimal, StatusInfeasible, StatusSolverError, StatusInvalid} {
		b, err := st.MarshalText()
		require.NoError(t, err)
		var got Status
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, st, got)
	}
	_, ok := ParseStatus("bogus")
	assert.False(t, ok)
}

func TestHourResultBalance(t *testing.T) {
	h := HourResult{Load: 100, Renewable1: 10, DG1: 50, GridBuy: 45, ESSCharge: 5, BuyPrice: 90, SellPrice: 70}
	assert.InDelta(t, h.Supply(), h.Demand(), 1e-9)
	assert.InDelta(t, 80*50+90*45, h.Cost(80, 90), 1e-9)
}
