package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameters is returned when horizon inputs are malformed or
// inconsistent. It is detected before any model is built.
var ErrInvalidParameters = errors.New("invalid parameters")

// Ratings holds the physical ratings of one microgrid instance in kW.
// GridImportMax and GridExportMax may be +Inf to leave the grid unbounded.
type Ratings struct {
	ESSChargeMax    float64
	ESSDischargeMax float64
	DG1Max          float64
	DG2Max          float64
	GridImportMax   float64
	GridExportMax   float64
}

// DefaultRatings returns the ratings of the reference microgrid: a 100 kW
// storage converter, an 80 kW and a 100 kW generator and an unbounded grid.
func DefaultRatings() Ratings {
	return Ratings{
		ESSChargeMax:    100,
		ESSDischargeMax: 100,
		DG1Max:          80,
		DG2Max:          100,
		GridImportMax:   math.Inf(1),
		GridExportMax:   math.Inf(1),
	}
}

// OrDefault returns DefaultRatings when r is the zero value, r otherwise.
// An islanded microgrid with no storage or generation is never meant, so an
// unset Ratings selects the reference microgrid.
func (r Ratings) OrDefault() Ratings {
	if r == (Ratings{}) {
		return DefaultRatings()
	}
	return r
}

// Validate checks that every rating is a non-negative number.
func (r Ratings) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"ess_charge_max", r.ESSChargeMax},
		{"ess_discharge_max", r.ESSDischargeMax},
		{"dg1_max", r.DG1Max},
		{"dg2_max", r.DG2Max},
		{"grid_import_max", r.GridImportMax},
		{"grid_export_max", r.GridExportMax},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || f.v < 0 {
			return fmt.Errorf("%w: rating %s must be >= 0, got %v", ErrInvalidParameters, f.name, f.v)
		}
	}
	for _, f := range fields[:4] {
		if math.IsInf(f.v, 1) {
			return fmt.Errorf("%w: rating %s must be finite", ErrInvalidParameters, f.name)
		}
	}
	return nil
}

// HorizonParameters are the inputs of one optimization run. Every per-hour
// series has one entry per time step of the horizon.
type HorizonParameters struct {
	DG1Cost float64 // currency per kWh
	DG2Cost float64 // currency per kWh

	Load          []float64
	GridBuyPrice  []float64
	GridSellPrice []float64
	Renewable1    []float64 // forecast output of RDG1
	Renewable2    []float64 // forecast output of RDG2

	SoCInitial    float64 // state of charge at the start of hour 0, in [0,1]
	ESSCapacity   float64 // kWh
	ESSEfficiency float64 // in (0,1]

	// Ratings left at the zero value are replaced by DefaultRatings when the
	// model is built. Set at least one field to describe a custom site.
	Ratings Ratings
}

// T returns the horizon length.
func (p HorizonParameters) T() int { return len(p.Load) }

// Validate checks the invariants of the parameters. All failures wrap
// ErrInvalidParameters.
func (p HorizonParameters) Validate() error {
	n := p.T()
	if n < 1 {
		return fmt.Errorf("%w: horizon must contain at least one hour", ErrInvalidParameters)
	}
	series := []struct {
		name string
		v    []float64
	}{
		{"load", p.Load},
		{"grid_buy_price", p.GridBuyPrice},
		{"grid_sell_price", p.GridSellPrice},
		{"renewable1", p.Renewable1},
		{"renewable2", p.Renewable2},
	}
	for _, s := range series {
		if len(s.v) != n {
			return fmt.Errorf("%w: %s has %d entries, horizon is %d", ErrInvalidParameters, s.name, len(s.v), n)
		}
		for t, v := range s.v {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s[%d] is not finite", ErrInvalidParameters, s.name, t)
			}
		}
	}
	if !finite(p.DG1Cost) || !finite(p.DG2Cost) {
		return fmt.Errorf("%w: generator costs must be finite", ErrInvalidParameters)
	}
	if !finite(p.ESSCapacity) || p.ESSCapacity <= 0 {
		return fmt.Errorf("%w: ess capacity must be positive, got %v", ErrInvalidParameters, p.ESSCapacity)
	}
	if math.IsNaN(p.ESSEfficiency) || p.ESSEfficiency <= 0 || p.ESSEfficiency > 1 {
		return fmt.Errorf("%w: ess efficiency must be in (0,1], got %v", ErrInvalidParameters, p.ESSEfficiency)
	}
	if math.IsNaN(p.SoCInitial) || p.SoCInitial < 0 || p.SoCInitial > 1 {
		return fmt.Errorf("%w: initial soc must be in [0,1], got %v", ErrInvalidParameters, p.SoCInitial)
	}
	return p.Ratings.Validate()
}

// Clone returns a deep copy so callers can tweak a scenario without
// aliasing the original series.
func (p HorizonParameters) Clone() HorizonParameters {
	cp := p
	cp.Load = append([]float64(nil), p.Load...)
	cp.GridBuyPrice = append([]float64(nil), p.GridBuyPrice...)
	cp.GridSellPrice = append([]float64(nil), p.GridSellPrice...)
	cp.Renewable1 = append([]float64(nil), p.Renewable1...)
	cp.Renewable2 = append([]float64(nil), p.Renewable2...)
	return cp
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
