package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	errUnbounded      = errors.New("objective is unbounded")
	errIterationLimit = errors.New("iteration limit reached")
)

const (
	pivotTol = 1e-9
	// Consecutive degenerate pivots before switching to Bland's rule.
	blandAfter = 50
)

// BoundedSimplex is a dense tableau primal simplex handling 0 <= x <= u
// directly, so ratings never become constraint rows. Phase one starts from
// the slack and artificial identity basis.
type BoundedSimplex struct {
	Tolerance            float64
	FeasibilityTolerance float64
	TimeLimit            time.Duration
	// MaxIterations bounds the pivots of both phases. Zero selects a limit
	// proportional to the tableau size.
	MaxIterations int
}

// NewBoundedSimplex returns a solver configured from cfg.
func NewBoundedSimplex(cfg Config) *BoundedSimplex {
	cfg.SetDefaults()
	return &BoundedSimplex{
		Tolerance:            cfg.Tolerance,
		FeasibilityTolerance: cfg.FeasibilityTolerance,
		TimeLimit:            cfg.TimeLimit(),
	}
}

// Solve runs both simplex phases on m. ctx and the time limit are checked
// between pivots.
func (s *BoundedSimplex) Solve(ctx context.Context, m *Model) Outcome {
	tb := newTableau(m)
	if s.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.TimeLimit)
		defer cancel()
	}
	limit := s.MaxIterations
	if limit <= 0 {
		limit = 20*(tb.rows+tb.cols) + 1000
	}
	it := &iterator{ctx: ctx, limit: limit, optTol: s.Tolerance, feasTol: s.feasTol()}

	if tb.nArt > 0 {
		if err := it.run(tb, tb.phaseOneCost()); err != nil {
			return s.failure(err)
		}
		tb.recompute()
		if infeas := tb.artificialSum(); infeas > it.feasTol*(1+tb.rhsScale) {
			return Infeasible(fmt.Sprintf("phase one ended with residual infeasibility %g", infeas))
		}
		tb.fixArtificials()
	}
	if err := it.run(tb, tb.cost); err != nil {
		return s.failure(err)
	}
	tb.recompute()
	return finish(m, tb.x[:m.NumVars()], s.FeasibilityTolerance)
}

func (s *BoundedSimplex) feasTol() float64 {
	if s.FeasibilityTolerance > 0 {
		return s.FeasibilityTolerance * 1e-3
	}
	return 1e-9
}

func (s *BoundedSimplex) failure(err error) Outcome {
	switch {
	case errors.Is(err, context.DeadlineExceeded) && s.TimeLimit > 0:
		return SolverFailure(fmt.Sprintf("time limit %s exceeded", s.TimeLimit))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return SolverFailure(fmt.Sprintf("solve aborted: %v", err))
	default:
		return SolverFailure(err.Error())
	}
}

// tableau holds B⁻¹[A | b] for the model rows extended with one slack per
// inequality and one artificial per row that has no feasible slack.
type tableau struct {
	rows, cols int
	nStruct    int
	nArt       int
	firstArt   int

	a        *mat.Dense // rows x (cols+1), last column is B⁻¹b
	cost     []float64
	upper    []float64
	x        []float64
	atUpper  []bool
	fixed    []bool // never enters the basis
	basis    []int  // column basic in each row
	pos      []int  // row of each basic column, -1 when nonbasic
	rhsScale float64
}

func newTableau(m *Model) *tableau {
	n := m.NumVars()
	nIneq := len(m.Inequalities)
	rows := nIneq + len(m.Equalities)

	type rowSpec struct {
		r     Row
		slack bool
		neg   bool
	}
	specs := make([]rowSpec, 0, rows)
	nArt := 0
	for _, r := range m.Inequalities {
		neg := r.RHS < 0
		if neg {
			nArt++
		}
		specs = append(specs, rowSpec{r: r, slack: true, neg: neg})
	}
	for _, r := range m.Equalities {
		nArt++
		specs = append(specs, rowSpec{r: r, neg: r.RHS < 0})
	}

	cols := n + nIneq + nArt
	tb := &tableau{
		rows:     rows,
		cols:     cols,
		nStruct:  n,
		nArt:     nArt,
		firstArt: n + nIneq,
		a:        mat.NewDense(rows, cols+1, nil),
		cost:     make([]float64, cols),
		upper:    make([]float64, cols),
		x:        make([]float64, cols),
		atUpper:  make([]bool, cols),
		fixed:    make([]bool, cols),
		basis:    make([]int, rows),
		pos:      make([]int, cols),
	}
	copy(tb.cost, m.Objective)
	copy(tb.upper, m.Upper)
	for j := n; j < cols; j++ {
		tb.upper[j] = math.Inf(1)
	}
	for j := range tb.pos {
		tb.pos[j] = -1
	}

	art := tb.firstArt
	for i, sp := range specs {
		sign := 1.0
		if sp.neg {
			sign = -1
		}
		row := tb.a.RawRowView(i)
		for _, tm := range sp.r.Terms {
			row[tm.Col] += sign * tm.Coef
		}
		row[cols] = sign * sp.r.RHS
		tb.rhsScale = math.Max(tb.rhsScale, math.Abs(sp.r.RHS))

		basic := -1
		if sp.slack {
			row[n+i] = sign
			if !sp.neg {
				basic = n + i
			}
		}
		if basic < 0 {
			row[art] = 1
			basic = art
			art++
		}
		tb.basis[i] = basic
		tb.pos[basic] = i
		tb.x[basic] = row[cols]
	}
	return tb
}

func (tb *tableau) phaseOneCost() []float64 {
	c := make([]float64, tb.cols)
	for j := tb.firstArt; j < tb.cols; j++ {
		c[j] = 1
	}
	return c
}

func (tb *tableau) artificialSum() float64 {
	var s float64
	for j := tb.firstArt; j < tb.cols; j++ {
		s += math.Abs(tb.x[j])
	}
	return s
}

// fixArtificials pins every artificial to zero for phase two. Basic
// artificials left on redundant rows stay at zero and leave on the first
// pivot touching their row.
func (tb *tableau) fixArtificials() {
	for j := tb.firstArt; j < tb.cols; j++ {
		tb.upper[j] = 0
		tb.fixed[j] = true
		if tb.pos[j] < 0 {
			tb.x[j] = 0
			tb.atUpper[j] = false
		}
	}
}

// recompute refreshes the basic values from B⁻¹b and the nonbasic columns
// sitting at their upper bound, dropping accumulated round-off.
func (tb *tableau) recompute() {
	for i := 0; i < tb.rows; i++ {
		row := tb.a.RawRowView(i)
		v := row[tb.cols]
		for j := 0; j < tb.cols; j++ {
			if tb.atUpper[j] && tb.pos[j] < 0 {
				v -= row[j] * tb.upper[j]
			}
		}
		tb.x[tb.basis[i]] = v
	}
}

func (tb *tableau) reducedCosts(c []float64, d []float64) {
	copy(d, c)
	for i := 0; i < tb.rows; i++ {
		if cb := c[tb.basis[i]]; cb != 0 {
			floats.AddScaled(d, -cb, tb.a.RawRowView(i)[:tb.cols])
		}
	}
}

func (tb *tableau) pivot(r, q int, d []float64) {
	prow := tb.a.RawRowView(r)
	floats.Scale(1/prow[q], prow)
	prow[q] = 1
	for i := 0; i < tb.rows; i++ {
		if i == r {
			continue
		}
		row := tb.a.RawRowView(i)
		if f := row[q]; f != 0 {
			floats.AddScaled(row, -f, prow)
			row[q] = 0
		}
	}
	if f := d[q]; f != 0 {
		floats.AddScaled(d, -f, prow[:tb.cols])
		d[q] = 0
	}
	leaving := tb.basis[r]
	tb.pos[leaving] = -1
	tb.basis[r] = q
	tb.pos[q] = r
}

type iterator struct {
	ctx     context.Context
	limit   int
	used    int
	optTol  float64
	feasTol float64
}

// run pivots until no reduced cost improves c.
func (it *iterator) run(tb *tableau, c []float64) error {
	d := make([]float64, tb.cols)
	tb.reducedCosts(c, d)
	degenerate := 0
	for {
		if it.used >= it.limit {
			return errIterationLimit
		}
		if it.used%16 == 0 {
			if err := it.ctx.Err(); err != nil {
				return err
			}
		}
		it.used++

		q, dir := tb.entering(d, it.optTol, degenerate > blandAfter)
		if q < 0 {
			return nil
		}
		step, r, err := tb.ratio(q, dir, it.feasTol)
		if err != nil {
			return err
		}
		if step <= 1e-12 {
			degenerate++
		} else {
			degenerate = 0
		}

		for i := 0; i < tb.rows; i++ {
			if alpha := tb.a.At(i, q); alpha != 0 {
				tb.x[tb.basis[i]] -= dir * alpha * step
			}
		}
		tb.x[q] += dir * step

		if r < 0 {
			tb.atUpper[q] = dir > 0
			tb.x[q] = 0
			if tb.atUpper[q] {
				tb.x[q] = tb.upper[q]
			}
			continue
		}
		leaving := tb.basis[r]
		rate := -dir * tb.a.At(r, q)
		tb.atUpper[leaving] = rate > 0
		if tb.atUpper[leaving] {
			tb.x[leaving] = tb.upper[leaving]
		} else {
			tb.x[leaving] = 0
		}
		tb.atUpper[q] = false
		tb.pivot(r, q, d)
		if it.used%64 == 0 {
			tb.recompute()
		}
	}
}

// entering picks the nonbasic column with the most attractive reduced cost,
// or the lowest eligible index under Bland's rule. dir is +1 when the column
// increases from its lower bound and -1 when it decreases from its upper.
func (tb *tableau) entering(d []float64, tol float64, bland bool) (int, float64) {
	best, bestDir, bestScore := -1, 0.0, 0.0
	for j := 0; j < tb.cols; j++ {
		if tb.pos[j] >= 0 || tb.fixed[j] || tb.upper[j] == 0 {
			continue
		}
		var score, dir float64
		switch {
		case !tb.atUpper[j] && d[j] < -tol:
			score, dir = -d[j], 1
		case tb.atUpper[j] && d[j] > tol:
			score, dir = d[j], -1
		default:
			continue
		}
		if bland {
			return j, dir
		}
		if score > bestScore {
			best, bestDir, bestScore = j, dir, score
		}
	}
	return best, bestDir
}

// ratio runs a two pass ratio test. It returns the step length and the
// leaving row, or -1 when the entering column flips to its other bound.
func (tb *tableau) ratio(q int, dir, tol float64) (float64, int, error) {
	limit := tb.upper[q]
	for i := 0; i < tb.rows; i++ {
		rate := -dir * tb.a.At(i, q)
		b := tb.basis[i]
		switch {
		case rate < -pivotTol:
			limit = math.Min(limit, (tb.x[b]+tol)/-rate)
		case rate > pivotTol && !math.IsInf(tb.upper[b], 1):
			limit = math.Min(limit, (tb.upper[b]-tb.x[b]+tol)/rate)
		}
	}
	if math.IsInf(limit, 1) {
		return 0, -1, errUnbounded
	}
	if tb.upper[q] <= limit {
		return tb.upper[q], -1, nil
	}

	r, step, size := -1, 0.0, 0.0
	for i := 0; i < tb.rows; i++ {
		rate := -dir * tb.a.At(i, q)
		b := tb.basis[i]
		var exact float64
		switch {
		case rate < -pivotTol:
			exact = tb.x[b] / -rate
		case rate > pivotTol && !math.IsInf(tb.upper[b], 1):
			exact = (tb.upper[b] - tb.x[b]) / rate
		default:
			continue
		}
		if exact <= limit && math.Abs(rate) > size {
			r, step, size = i, exact, math.Abs(rate)
		}
	}
	if r < 0 {
		return 0, -1, errUnbounded
	}
	return math.Max(step, 0), r, nil
}
