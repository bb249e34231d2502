package model

import "time"

// Status is the terminal state of one optimization run.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusSolverError
	StatusInvalid
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusSolverError:
		return "solver_error"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{StatusOptimal, StatusInfeasible, StatusSolverError, StatusInvalid} {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	st, ok := ParseStatus(string(b))
	if !ok {
		st = StatusSolverError
	}
	*s = st
	return nil
}

// HourResult is the solved dispatch of one hour next to the inputs it was
// computed from. Flows are magnitudes: charge and sell are never negated.
type HourResult struct {
	Hour int `json:"t"` // 1-indexed

	Load       float64 `json:"load"`
	BuyPrice   float64 `json:"buy_price"`
	SellPrice  float64 `json:"sell_price"`
	Renewable1 float64 `json:"renewable1"`
	Renewable2 float64 `json:"renewable2"`

	GridBuy      float64 `json:"grid_buy"`
	GridSell     float64 `json:"grid_sell"`
	SoC          float64 `json:"soc"`
	ESSCharge    float64 `json:"ess_charge"`
	ESSDischarge float64 `json:"ess_discharge"`
	DG1          float64 `json:"dg1"`
	DG2          float64 `json:"dg2"`
}

// Supply returns the power injected into the bus during the hour.
func (h HourResult) Supply() float64 {
	return h.DG1 + h.DG2 + h.Renewable1 + h.Renewable2 + h.ESSDischarge + h.GridBuy
}

// Demand returns the power drawn from the bus during the hour.
func (h HourResult) Demand() float64 {
	return h.Load + h.ESSCharge + h.GridSell
}

// Cost returns the net procurement cost of the hour given unit costs of
// both dispatchable generators.
func (h HourResult) Cost(dg1Cost, dg2Cost float64) float64 {
	return dg1Cost*h.DG1 + dg2Cost*h.DG2 + h.BuyPrice*h.GridBuy - h.SellPrice*h.GridSell
}

// DispatchResult is the outcome of one solved horizon. It owns its data
// and does not reference any solver state.
type DispatchResult struct {
	RunID     string        `json:"run_id"`
	Status    Status        `json:"status"`
	Objective float64       `json:"objective"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	SolvedAt  time.Time     `json:"solved_at"`
	Hours     []HourResult  `json:"hours"`
}

// FinalSoC returns the state of charge at the end of the horizon.
func (r DispatchResult) FinalSoC() float64 {
	if len(r.Hours) == 0 {
		return 0
	}
	return r.Hours[len(r.Hours)-1].SoC
}
