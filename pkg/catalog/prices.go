package catalog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kilianp07/mgdispatch/core/logger"
	"github.com/kilianp07/mgdispatch/core/model"
)

// PriceSchedule holds hourly grid tariffs.
type PriceSchedule struct {
	Buy  []float64
	Sell []float64
}

// Len returns the number of hours in the schedule.
func (s PriceSchedule) Len() int { return len(s.Buy) }

// ReadPrices parses rows of buy_price,sell_price, one per hour.
func ReadPrices(r io.Reader, log logger.Logger) (PriceSchedule, error) {
	log = nopIfNil(log)
	rows, err := readRows(r, log)
	if err != nil {
		return PriceSchedule{}, fmt.Errorf("read prices: %w", err)
	}
	var s PriceSchedule
	for _, rec := range rows {
		if len(rec) != 2 {
			log.Warnf("invalid price row (expected 2 columns): %s", strings.Join(rec, ","))
			continue
		}
		v, err := parseFloats(rec)
		if err != nil {
			log.Warnf("invalid price row %q: %v", strings.Join(rec, ","), err)
			continue
		}
		s.Buy = append(s.Buy, v[0])
		s.Sell = append(s.Sell, v[1])
	}
	return s, nil
}

// LoadPrices reads the price schedule at path.
func LoadPrices(path string, log logger.Logger) (PriceSchedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return PriceSchedule{}, fmt.Errorf("open price schedule: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadPrices(f, log)
}

// ApplyPrices replaces the grid tariffs of p. A schedule whose length
// differs from the horizon is rejected when p is validated.
func ApplyPrices(p *model.HorizonParameters, s PriceSchedule) error {
	if s.Len() == 0 {
		return fmt.Errorf("%w: empty price schedule", ErrEmpty)
	}
	p.GridBuyPrice = append([]float64(nil), s.Buy...)
	p.GridSellPrice = append([]float64(nil), s.Sell...)
	return nil
}
