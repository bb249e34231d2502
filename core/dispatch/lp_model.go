package dispatch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// VarKind identifies one family of decision variables. Each family has one
// variable per hour of the horizon.
type VarKind int

const (
	VarGridBuy VarKind = iota
	VarGridSell
	VarSoC
	VarESSCharge
	VarESSDischarge
	VarDG1
	VarDG2

	numVarKinds
)

// VarKinds lists every variable family in column order.
var VarKinds = []VarKind{VarGridBuy, VarGridSell, VarSoC, VarESSCharge, VarESSDischarge, VarDG1, VarDG2}

// String returns the variable family name.
func (k VarKind) String() string {
	switch k {
	case VarGridBuy:
		return "grid_buy"
	case VarGridSell:
		return "grid_sell"
	case VarSoC:
		return "soc"
	case VarESSCharge:
		return "ess_charge"
	case VarESSDischarge:
		return "ess_discharge"
	case VarDG1:
		return "dg1"
	case VarDG2:
		return "dg2"
	default:
		return "unknown"
	}
}

// Term is one coefficient of a constraint row.
type Term struct {
	Col  int
	Coef float64
}

// Row is a named linear constraint. Its sense (<= or =) depends on the list
// of the model holding it.
type Row struct {
	Name  string
	Terms []Term
	RHS   float64
}

// Eval returns the left hand side of the row for assignment x.
func (r Row) Eval(x []float64) float64 {
	var s float64
	for _, tm := range r.Terms {
		s += tm.Coef * x[tm.Col]
	}
	return s
}

// Model is a linear program in general form over bounded variables:
//
//	minimize  cᵀx
//	s.t.      G x <= h   (Inequalities)
//	          A x  = b   (Equalities)
//	          0 <= x <= u (Upper, +Inf when unbounded)
//
// Column k*T+t holds variable kind k of hour t.
type Model struct {
	T            int
	Objective    []float64
	Upper        []float64
	Inequalities []Row
	Equalities   []Row
}

func newModel(horizon int) *Model {
	n := int(numVarKinds) * horizon
	upper := make([]float64, n)
	for j := range upper {
		upper[j] = math.Inf(1)
	}
	return &Model{
		T:         horizon,
		Objective: make([]float64, n),
		Upper:     upper,
	}
}

// NumVars returns the number of decision variables.
func (m *Model) NumVars() int { return len(m.Objective) }

// Index returns the column of variable kind k at hour t.
func (m *Model) Index(k VarKind, t int) int { return int(k)*m.T + t }

// Value reads variable kind k at hour t from assignment x.
func (m *Model) Value(x []float64, k VarKind, t int) float64 { return x[m.Index(k, t)] }

// VarName returns a printable name for column j.
func (m *Model) VarName(j int) string {
	return fmt.Sprintf("%s[%d]", VarKind(j/m.T), j%m.T)
}

// Evaluate returns the objective value of assignment x.
func (m *Model) Evaluate(x []float64) float64 {
	return floats.Dot(m.Objective, x[:m.NumVars()])
}

// Violation describes how far an assignment is from satisfying one row or
// variable bound.
type Violation struct {
	Name   string
	Amount float64
}

// Residuals returns every violation larger than tol in row order. A
// feasible assignment yields an empty slice.
func (m *Model) Residuals(x []float64, tol float64) []Violation {
	var out []Violation
	if len(x) < m.NumVars() {
		return []Violation{{Name: "assignment", Amount: math.Inf(1)}}
	}
	for j := 0; j < m.NumVars(); j++ {
		if x[j] < -tol {
			out = append(out, Violation{Name: m.VarName(j) + ">=0", Amount: -x[j]})
		}
		if d := x[j] - m.Upper[j]; d > tol {
			out = append(out, Violation{Name: m.VarName(j) + "<=upper", Amount: d})
		}
	}
	for _, r := range m.Inequalities {
		if d := r.Eval(x) - r.RHS; d > tol {
			out = append(out, Violation{Name: r.Name, Amount: d})
		}
	}
	for _, r := range m.Equalities {
		if d := math.Abs(r.Eval(x) - r.RHS); d > tol {
			out = append(out, Violation{Name: r.Name, Amount: d})
		}
	}
	return out
}

// MaxViolation returns the largest violation of assignment x.
func (m *Model) MaxViolation(x []float64) Violation {
	var worst Violation
	for _, v := range m.Residuals(x, 0) {
		if v.Amount > worst.Amount {
			worst = v
		}
	}
	return worst
}

func (m *Model) setUpper(k VarKind, t int, bound float64) {
	m.Upper[m.Index(k, t)] = bound
}

// BoundRows returns the finite upper bounds as inequality rows, for solvers
// that only handle x >= 0. The state of charge bound is left out: the
// headroom rows already keep it within [0,1].
func (m *Model) BoundRows() []Row {
	var rows []Row
	for j, u := range m.Upper {
		if math.IsInf(u, 1) || VarKind(j/m.T) == VarSoC {
			continue
		}
		rows = append(rows, Row{
			Name:  fmt.Sprintf("%s_upper[%d]", VarKind(j/m.T), j%m.T),
			Terms: []Term{{Col: j, Coef: 1}},
			RHS:   u,
		})
	}
	return rows
}
