package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/mgdispatch/core/model"
)

func TestExtract_CopiesEveryHour(t *testing.T) {
	p := twoHourScenario()
	m, err := Build(p)
	require.NoError(t, err)

	x := make([]float64, m.NumVars())
	for _, k := range VarKinds {
		for h := 0; h < m.T; h++ {
			x[m.Index(k, h)] = float64(10*int(k) + h + 1)
		}
	}
	res, err := Extract(p, m, Optimal(123, x), 42*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, model.StatusOptimal, res.Status)
	assert.Equal(t, 123.0, res.Objective)
	assert.Equal(t, 42*time.Millisecond, res.Elapsed)
	require.Len(t, res.Hours, 2)

	h := res.Hours[1]
	assert.Equal(t, 2, h.Hour)
	assert.Equal(t, 175.0, h.Load)
	assert.Equal(t, 90.0, h.BuyPrice)
	assert.Equal(t, 70.0, h.SellPrice)
	assert.Equal(t, 2.0, h.GridBuy)
	assert.Equal(t, 12.0, h.GridSell)
	assert.Equal(t, 22.0, h.SoC)
	assert.Equal(t, 32.0, h.ESSCharge)
	assert.Equal(t, 42.0, h.ESSDischarge)
	assert.Equal(t, 52.0, h.DG1)
	assert.Equal(t, 62.0, h.DG2)
}

func TestExtract_ResultIsIndependent(t *testing.T) {
	p := twoHourScenario()
	m, err := Build(p)
	require.NoError(t, err)
	x := make([]float64, m.NumVars())
	x[m.Index(VarDG1, 0)] = 80

	res, err := Extract(p, m, Optimal(0, x), 0)
	require.NoError(t, err)
	x[m.Index(VarDG1, 0)] = 0
	p.Load[0] = 0
	assert.Equal(t, 80.0, res.Hours[0].DG1)
	assert.Equal(t, 169.0, res.Hours[0].Load)
}

func TestExtract_NoSolution(t *testing.T) {
	p := twoHourScenario()
	m, err := Build(p)
	require.NoError(t, err)

	for _, out := range []Outcome{Infeasible("no point"), SolverFailure("numerical")} {
		res, err := Extract(p, m, out, time.Second)
		assert.True(t, errors.Is(err, ErrNoSolution), "got %v", err)
		assert.Equal(t, out.Status, res.Status)
		assert.Empty(t, res.Hours)
	}

	_, err = Extract(p, m, Optimal(0, []float64{1, 2}), 0)
	assert.True(t, errors.Is(err, ErrNoSolution))
}
