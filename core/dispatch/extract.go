package dispatch

import (
	"fmt"
	"time"

	"github.com/kilianp07/mgdispatch/core/model"
)

// Extract maps an optimal outcome back into per-hour results. Any other
// outcome yields ErrNoSolution. elapsed is stored as a diagnostic only.
func Extract(p model.HorizonParameters, m *Model, out Outcome, elapsed time.Duration) (model.DispatchResult, error) {
	res := model.DispatchResult{Status: out.Status, Elapsed: elapsed}
	if out.Status != model.StatusOptimal {
		return res, fmt.Errorf("%w: outcome %s: %s", ErrNoSolution, out.Status, out.Message)
	}
	if m.T != p.T() || len(out.X) < m.NumVars() {
		return res, fmt.Errorf("%w: assignment does not match a %d hour horizon", ErrNoSolution, p.T())
	}

	res.Objective = out.Objective
	res.Hours = make([]model.HourResult, m.T)
	for t := range res.Hours {
		res.Hours[t] = model.HourResult{
			Hour:         t + 1,
			Load:         p.Load[t],
			BuyPrice:     p.GridBuyPrice[t],
			SellPrice:    p.GridSellPrice[t],
			Renewable1:   p.Renewable1[t],
			Renewable2:   p.Renewable2[t],
			GridBuy:      m.Value(out.X, VarGridBuy, t),
			GridSell:     m.Value(out.X, VarGridSell, t),
			SoC:          m.Value(out.X, VarSoC, t),
			ESSCharge:    m.Value(out.X, VarESSCharge, t),
			ESSDischarge: m.Value(out.X, VarESSDischarge, t),
			DG1:          m.Value(out.X, VarDG1, t),
			DG2:          m.Value(out.X, VarDG2, t),
		}
	}
	return res, nil
}
