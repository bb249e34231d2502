package catalog

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/kilianp07/mgdispatch/core/logger"
	"github.com/kilianp07/mgdispatch/core/model"
)

// Generator is one dispatchable generator of the catalog.
type Generator struct {
	ID         int
	CostPerKWh float64
	MaxKW      float64
	MinKW      float64
}

// ReadGenerators parses rows of id,cost_per_kWh,max_kW,min_kW. The id
// column may be written as a decimal and is truncated. Rows with a wrong
// column count, an unparsable number or an id seen before are skipped.
func ReadGenerators(r io.Reader, log logger.Logger) ([]Generator, error) {
	log = nopIfNil(log)
	rows, err := readRows(r, log)
	if err != nil {
		return nil, fmt.Errorf("read generators: %w", err)
	}
	seen := make(map[int]bool)
	var gens []Generator
	for _, rec := range rows {
		if len(rec) != 4 {
			log.Warnf("invalid generator row (expected 4 columns): %s", strings.Join(rec, ","))
			continue
		}
		v, err := parseFloats(rec)
		if err != nil {
			log.Warnf("invalid generator row %q: %v", strings.Join(rec, ","), err)
			continue
		}
		if math.IsNaN(v[0]) || math.IsInf(v[0], 0) {
			log.Warnf("invalid generator id %q", rec[0])
			continue
		}
		id := int(v[0])
		if seen[id] {
			log.Warnf("duplicate generator id %d (skipping this entry)", id)
			continue
		}
		seen[id] = true
		gens = append(gens, Generator{ID: id, CostPerKWh: v[1], MaxKW: v[2], MinKW: v[3]})
	}
	return gens, nil
}

// LoadGenerators reads the generator catalog at path.
func LoadGenerators(path string, log logger.Logger) ([]Generator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open generator catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadGenerators(f, log)
}

// ApplyGenerators copies the cost and rating of the two generators with the
// lowest ids onto DG1 and DG2 of p. The minimum power is not used: the
// dispatch model has no commitment decisions.
func ApplyGenerators(p *model.HorizonParameters, gens []Generator) error {
	if len(gens) < 2 {
		return fmt.Errorf("%w: need 2 generators, got %d", ErrEmpty, len(gens))
	}
	sorted := append([]Generator(nil), gens...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	p.DG1Cost, p.Ratings.DG1Max = sorted[0].CostPerKWh, sorted[0].MaxKW
	p.DG2Cost, p.Ratings.DG2Max = sorted[1].CostPerKWh, sorted[1].MaxKW
	return nil
}
