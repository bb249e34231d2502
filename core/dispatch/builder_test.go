package dispatch

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/mgdispatch/core/model"
)

// twoHourScenario is the merit-order scenario: dg1 is the cheapest source
// and the grid matches dg2 at 90.
func twoHourScenario() model.HorizonParameters {
	return model.HorizonParameters{
		DG1Cost:       80,
		DG2Cost:       90,
		Load:          []float64{169, 175},
		GridBuyPrice:  []float64{90, 90},
		GridSellPrice: []float64{70, 70},
		Renewable1:    []float64{0, 0},
		Renewable2:    []float64{0, 0},
		SoCInitial:    0.2,
		ESSCapacity:   200,
		ESSEfficiency: 0.95,
		Ratings:       model.DefaultRatings(),
	}
}

func findRow(rows []Row, name string) (Row, bool) {
	for _, r := range rows {
		if r.Name == name {
			return r, true
		}
	}
	return Row{}, false
}

func TestBuild_Shape(t *testing.T) {
	m, err := Build(twoHourScenario())
	require.NoError(t, err)

	assert.Equal(t, 2, m.T)
	assert.Equal(t, 14, m.NumVars())
	// two headroom rows per hour; ratings are bounds, not rows.
	assert.Len(t, m.Inequalities, 4)
	// recurrence and power balance per hour.
	assert.Len(t, m.Equalities, 4)

	for _, name := range []string{"charge_headroom[0]", "charge_headroom[1]", "discharge_headroom[0]", "discharge_headroom[1]"} {
		_, ok := findRow(m.Inequalities, name)
		assert.True(t, ok, "missing inequality %s", name)
	}
	for _, name := range []string{"soc_balance[0]", "soc_balance[1]", "power_balance[0]", "power_balance[1]"} {
		_, ok := findRow(m.Equalities, name)
		assert.True(t, ok, "missing equality %s", name)
	}

	assert.Equal(t, 1.0, m.Upper[m.Index(VarSoC, 0)])
	assert.Equal(t, 100.0, m.Upper[m.Index(VarESSCharge, 1)])
	assert.Equal(t, 80.0, m.Upper[m.Index(VarDG1, 0)])
	assert.True(t, math.IsInf(m.Upper[m.Index(VarGridBuy, 0)], 1))

	// soc and the unbounded grid need no bound row.
	bounds := m.BoundRows()
	assert.Len(t, bounds, 8)
	_, ok := findRow(bounds, "soc_upper[0]")
	assert.False(t, ok)
	_, ok = findRow(bounds, "grid_buy_upper[0]")
	assert.False(t, ok, "unbounded grid import must not produce a row")
	r, ok := findRow(bounds, "dg2_upper[1]")
	require.True(t, ok)
	assert.Equal(t, 100.0, r.RHS)
}

func TestBuild_ZeroRatingsSelectDefaults(t *testing.T) {
	p := twoHourScenario()
	p.Ratings = model.Ratings{}
	m, err := Build(p)
	require.NoError(t, err)

	def := model.DefaultRatings()
	assert.Equal(t, def.DG1Max, m.Upper[m.Index(VarDG1, 1)])
	assert.Equal(t, def.ESSDischargeMax, m.Upper[m.Index(VarESSDischarge, 0)])
	assert.True(t, math.IsInf(m.Upper[m.Index(VarGridSell, 0)], 1))

	// A single set field describes a custom site.
	p.Ratings = model.Ratings{DG1Max: 10}
	m, err = Build(p)
	require.NoError(t, err)
	assert.Equal(t, 10.0, m.Upper[m.Index(VarDG1, 0)])
	assert.Equal(t, 0.0, m.Upper[m.Index(VarGridBuy, 0)])
}

func TestBuild_Objective(t *testing.T) {
	p := twoHourScenario()
	p.GridBuyPrice[1] = 110
	p.GridSellPrice[1] = 95
	m, err := Build(p)
	require.NoError(t, err)

	assert.Equal(t, 80.0, m.Objective[m.Index(VarDG1, 0)])
	assert.Equal(t, 90.0, m.Objective[m.Index(VarDG2, 1)])
	assert.Equal(t, 110.0, m.Objective[m.Index(VarGridBuy, 1)])
	assert.Equal(t, -95.0, m.Objective[m.Index(VarGridSell, 1)])
	assert.Equal(t, 0.0, m.Objective[m.Index(VarSoC, 0)])
	assert.Equal(t, 0.0, m.Objective[m.Index(VarESSCharge, 1)])
}

func TestBuild_InitialHourRows(t *testing.T) {
	m, err := Build(twoHourScenario())
	require.NoError(t, err)

	chg, ok := findRow(m.Inequalities, "charge_headroom[0]")
	require.True(t, ok)
	assert.Len(t, chg.Terms, 1)
	assert.InDelta(t, 200*(1-0.2)/0.95, chg.RHS, 1e-9)

	dis, ok := findRow(m.Inequalities, "discharge_headroom[0]")
	require.True(t, ok)
	assert.InDelta(t, 200*0.2*0.95, dis.RHS, 1e-9)

	rec, ok := findRow(m.Equalities, "soc_balance[0]")
	require.True(t, ok)
	assert.Len(t, rec.Terms, 3)
	assert.InDelta(t, 200*0.2, rec.RHS, 1e-9)

	bal, ok := findRow(m.Equalities, "power_balance[0]")
	require.True(t, ok)
	assert.Equal(t, 169.0, bal.RHS)
}

func TestBuild_LaterHoursReferencePreviousSoC(t *testing.T) {
	m, err := Build(twoHourScenario())
	require.NoError(t, err)
	prev := m.Index(VarSoC, 0)

	for _, name := range []string{"charge_headroom[1]", "discharge_headroom[1]"} {
		r, ok := findRow(m.Inequalities, name)
		require.True(t, ok)
		var found bool
		for _, tm := range r.Terms {
			if tm.Col == prev {
				found = true
			}
			assert.NotEqual(t, m.Index(VarSoC, 1), tm.Col, "%s must not use the current soc", name)
		}
		assert.True(t, found, "%s must reference soc[0]", name)
	}
}

func TestBuild_RecurrenceMatchesDefinition(t *testing.T) {
	p := twoHourScenario()
	m, err := Build(p)
	require.NoError(t, err)

	// Any assignment following the recurrence by hand satisfies the rows.
	x := make([]float64, m.NumVars())
	x[m.Index(VarESSCharge, 0)] = 10
	x[m.Index(VarESSDischarge, 1)] = 20
	soc0 := p.SoCInitial + (p.ESSEfficiency*10)/p.ESSCapacity
	soc1 := soc0 - (20/p.ESSEfficiency)/p.ESSCapacity
	x[m.Index(VarSoC, 0)] = soc0
	x[m.Index(VarSoC, 1)] = soc1

	for _, name := range []string{"soc_balance[0]", "soc_balance[1]"} {
		r, _ := findRow(m.Equalities, name)
		assert.InDelta(t, r.RHS, r.Eval(x), 1e-9, name)
	}
}

func TestBuild_FiniteGridLimits(t *testing.T) {
	p := twoHourScenario()
	p.Ratings.GridImportMax = 0
	p.Ratings.GridExportMax = 50
	m, err := Build(p)
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.Upper[m.Index(VarGridBuy, 1)])
	assert.Equal(t, 50.0, m.Upper[m.Index(VarGridSell, 0)])

	r, ok := findRow(m.BoundRows(), "grid_buy_upper[1]")
	require.True(t, ok)
	assert.Equal(t, 0.0, r.RHS)
	r, ok = findRow(m.BoundRows(), "grid_sell_upper[0]")
	require.True(t, ok)
	assert.Equal(t, 50.0, r.RHS)
}

func TestBuild_InvalidParameters(t *testing.T) {
	p := twoHourScenario()
	p.ESSEfficiency = 0
	m, err := Build(p)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, ErrInvalidParameters))

	p = twoHourScenario()
	p.Renewable1 = []float64{1}
	_, err = Build(p)
	assert.True(t, errors.Is(err, model.ErrInvalidParameters))
}

func TestModel_Residuals(t *testing.T) {
	m, err := Build(twoHourScenario())
	require.NoError(t, err)

	x := make([]float64, m.NumVars())
	worst := m.MaxViolation(x)
	assert.Greater(t, worst.Amount, 0.0)

	x[m.Index(VarDG1, 0)] = -1
	found := false
	for _, v := range m.Residuals(x, 1e-9) {
		if v.Name == "dg1[0]>=0" {
			found = true
		}
	}
	assert.True(t, found)

	x[m.Index(VarDG1, 0)] = 85
	found = false
	for _, v := range m.Residuals(x, 1e-9) {
		if v.Name == "dg1[0]<=upper" {
			found = true
			assert.InDelta(t, 5, v.Amount, 1e-12)
		}
	}
	assert.True(t, found)

	assert.True(t, math.IsInf(m.Residuals(x[:3], 0)[0].Amount, 1))
}

func TestVarKindString(t *testing.T) {
	names := map[string]bool{}
	for _, k := range VarKinds {
		names[k.String()] = true
	}
	assert.Len(t, names, int(numVarKinds))
	assert.Equal(t, "unknown", VarKind(99).String())
}
