package dispatch

import (
	"fmt"

	"github.com/kilianp07/mgdispatch/core/model"
)

// Build assembles the dispatch linear program for one horizon.
//
// The objective minimises net procurement cost: generator fuel plus grid
// purchases minus grid sales. Ratings become variable bounds, and zero
// Ratings select model.DefaultRatings. Every hour carries the state of charge
// recurrence, the charge and discharge headroom rows and the power balance. Headroom rows refer to the state of charge of the
// previous hour (the initial condition at t=0) so the recurrence stays a
// forward chain and the whole horizon is a single LP.
func Build(p model.HorizonParameters) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := p.T()
	m := newModel(n)
	capKWh, eff := p.ESSCapacity, p.ESSEfficiency
	r := p.Ratings.OrDefault()

	for t := 0; t < n; t++ {
		m.Objective[m.Index(VarDG1, t)] = p.DG1Cost
		m.Objective[m.Index(VarDG2, t)] = p.DG2Cost
		m.Objective[m.Index(VarGridBuy, t)] = p.GridBuyPrice[t]
		m.Objective[m.Index(VarGridSell, t)] = -p.GridSellPrice[t]
	}

	for t := 0; t < n; t++ {
		soc := m.Index(VarSoC, t)
		chg := m.Index(VarESSCharge, t)
		dis := m.Index(VarESSDischarge, t)

		// Ratings are variable bounds; an unbounded grid keeps +Inf.
		m.setUpper(VarSoC, t, 1)
		m.setUpper(VarESSCharge, t, r.ESSChargeMax)
		m.setUpper(VarESSDischarge, t, r.ESSDischargeMax)
		m.setUpper(VarDG1, t, r.DG1Max)
		m.setUpper(VarDG2, t, r.DG2Max)
		m.setUpper(VarGridBuy, t, r.GridImportMax)
		m.setUpper(VarGridSell, t, r.GridExportMax)

		// soc[t] = soc[t-1] + (eff*chg[t] - dis[t]/eff) / cap, multiplied
		// through by cap so the row is expressed in kWh.
		rec := Row{
			Name: fmt.Sprintf("soc_balance[%d]", t),
			Terms: []Term{
				{Col: soc, Coef: capKWh},
				{Col: chg, Coef: -eff},
				{Col: dis, Coef: 1 / eff},
			},
		}
		chgRoom := Row{
			Name:  fmt.Sprintf("charge_headroom[%d]", t),
			Terms: []Term{{Col: chg, Coef: 1}},
		}
		disRoom := Row{
			Name:  fmt.Sprintf("discharge_headroom[%d]", t),
			Terms: []Term{{Col: dis, Coef: 1}},
		}
		if t == 0 {
			rec.RHS = capKWh * p.SoCInitial
			chgRoom.RHS = capKWh * (1 - p.SoCInitial) / eff
			disRoom.RHS = capKWh * p.SoCInitial * eff
		} else {
			prev := m.Index(VarSoC, t-1)
			rec.Terms = append(rec.Terms, Term{Col: prev, Coef: -capKWh})
			chgRoom.Terms = append(chgRoom.Terms, Term{Col: prev, Coef: capKWh / eff})
			chgRoom.RHS = capKWh / eff
			disRoom.Terms = append(disRoom.Terms, Term{Col: prev, Coef: -capKWh * eff})
		}
		m.Equalities = append(m.Equalities, rec)
		m.Inequalities = append(m.Inequalities, chgRoom, disRoom)

		m.Equalities = append(m.Equalities, Row{
			Name: fmt.Sprintf("power_balance[%d]", t),
			Terms: []Term{
				{Col: m.Index(VarDG1, t), Coef: 1},
				{Col: m.Index(VarDG2, t), Coef: 1},
				{Col: dis, Coef: 1},
				{Col: chg, Coef: -1},
				{Col: m.Index(VarGridBuy, t), Coef: 1},
				{Col: m.Index(VarGridSell, t), Coef: -1},
			},
			RHS: p.Load[t] - p.Renewable1[t] - p.Renewable2[t],
		})
	}
	return m, nil
}
