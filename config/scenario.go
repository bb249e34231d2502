package config

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/mgdispatch/core/model"
)

// RatingsConfig overrides the reference ratings. A nil field keeps the
// default; grid limits also accept an explicit null for an unbounded grid.
type RatingsConfig struct {
	ESSChargeMax    *float64 `json:"ess_charge_max" yaml:"ess_charge_max"`
	ESSDischargeMax *float64 `json:"ess_discharge_max" yaml:"ess_discharge_max"`
	DG1Max          *float64 `json:"dg1_max" yaml:"dg1_max"`
	DG2Max          *float64 `json:"dg2_max" yaml:"dg2_max"`
	GridImportMax   *float64 `json:"grid_import_max" yaml:"grid_import_max"`
	GridExportMax   *float64 `json:"grid_export_max" yaml:"grid_export_max"`
}

// Scenario is the file representation of one horizon.
type Scenario struct {
	Name          string         `json:"name" yaml:"name"`
	DG1Cost       float64        `json:"dg1_cost" yaml:"dg1_cost"`
	DG2Cost       float64        `json:"dg2_cost" yaml:"dg2_cost"`
	SoCInitial    float64        `json:"soc_initial" yaml:"soc_initial"`
	ESSCapacity   float64        `json:"ess_capacity" yaml:"ess_capacity"`
	ESSEfficiency float64        `json:"ess_efficiency" yaml:"ess_efficiency"`
	Load          []float64      `json:"load" yaml:"load"`
	GridBuyPrice  []float64      `json:"grid_buy_price" yaml:"grid_buy_price"`
	GridSellPrice []float64      `json:"grid_sell_price" yaml:"grid_sell_price"`
	Renewable1    []float64      `json:"renewable1" yaml:"renewable1"`
	Renewable2    []float64      `json:"renewable2" yaml:"renewable2"`
	Ratings       *RatingsConfig `json:"ratings" yaml:"ratings"`
}

// Parameters converts the scenario into validated horizon parameters.
// Missing renewable series default to zero production.
func (s Scenario) Parameters() (model.HorizonParameters, error) {
	p := model.HorizonParameters{
		DG1Cost:       s.DG1Cost,
		DG2Cost:       s.DG2Cost,
		Load:          append([]float64(nil), s.Load...),
		GridBuyPrice:  append([]float64(nil), s.GridBuyPrice...),
		GridSellPrice: append([]float64(nil), s.GridSellPrice...),
		Renewable1:    append([]float64(nil), s.Renewable1...),
		Renewable2:    append([]float64(nil), s.Renewable2...),
		SoCInitial:    s.SoCInitial,
		ESSCapacity:   s.ESSCapacity,
		ESSEfficiency: s.ESSEfficiency,
		Ratings:       model.DefaultRatings(),
	}
	if len(p.Renewable1) == 0 {
		p.Renewable1 = make([]float64, len(p.Load))
	}
	if len(p.Renewable2) == 0 {
		p.Renewable2 = make([]float64, len(p.Load))
	}
	if r := s.Ratings; r != nil {
		override(&p.Ratings.ESSChargeMax, r.ESSChargeMax)
		override(&p.Ratings.ESSDischargeMax, r.ESSDischargeMax)
		override(&p.Ratings.DG1Max, r.DG1Max)
		override(&p.Ratings.DG2Max, r.DG2Max)
		override(&p.Ratings.GridImportMax, r.GridImportMax)
		override(&p.Ratings.GridExportMax, r.GridExportMax)
	}
	if err := p.Validate(); err != nil {
		return model.HorizonParameters{}, err
	}
	return p, nil
}

func override(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// FromParameters is the inverse of Parameters. Unbounded grid limits are
// written as null.
func FromParameters(name string, p model.HorizonParameters) Scenario {
	ratings := &RatingsConfig{
		ESSChargeMax:    ptr(p.Ratings.ESSChargeMax),
		ESSDischargeMax: ptr(p.Ratings.ESSDischargeMax),
		DG1Max:          ptr(p.Ratings.DG1Max),
		DG2Max:          ptr(p.Ratings.DG2Max),
	}
	if !math.IsInf(p.Ratings.GridImportMax, 1) {
		ratings.GridImportMax = ptr(p.Ratings.GridImportMax)
	}
	if !math.IsInf(p.Ratings.GridExportMax, 1) {
		ratings.GridExportMax = ptr(p.Ratings.GridExportMax)
	}
	return Scenario{
		Name:          name,
		DG1Cost:       p.DG1Cost,
		DG2Cost:       p.DG2Cost,
		SoCInitial:    p.SoCInitial,
		ESSCapacity:   p.ESSCapacity,
		ESSEfficiency: p.ESSEfficiency,
		Load:          p.Load,
		GridBuyPrice:  p.GridBuyPrice,
		GridSellPrice: p.GridSellPrice,
		Renewable1:    p.Renewable1,
		Renewable2:    p.Renewable2,
		Ratings:       ratings,
	}
}

func ptr(v float64) *float64 { return &v }

// LoadScenario reads a YAML scenario file. Unknown keys are rejected so
// that typos do not silently fall back to defaults.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	return s, nil
}

// SaveScenario writes s as YAML to path.
func SaveScenario(path string, s Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
