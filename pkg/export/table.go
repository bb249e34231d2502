package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kilianp07/mgdispatch/core/model"
	"github.com/kilianp07/mgdispatch/pkg/catalog"
)

// PrintDispatch writes the hourly dispatch as an aligned table followed by
// the operating cost.
func PrintDispatch(w io.Writer, res model.DispatchResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Hour\tLoad\tRDG1\tRDG2\tDG1\tDG2\tGrid in\tGrid out\tCharge\tDischarge\tSoC\t")
	for _, h := range res.Hours {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.3f\t\n",
			h.Hour, h.Load, h.Renewable1, h.Renewable2, h.DG1, h.DG2,
			h.GridBuy, h.GridSell, h.ESSCharge, h.ESSDischarge, h.SoC)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Status: %s  Operating cost: %.2f  Run: %s\n", res.Status, res.Objective, res.RunID)
	return err
}

// PrintGenerators writes the generator catalog.
func PrintGenerators(w io.Writer, gens []catalog.Generator) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tCost/kWh\tMax kW\tMin kW\t")
	for _, g := range gens {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t\n", g.ID, g.CostPerKWh, g.MaxKW, g.MinKW)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total generators: %d\n", len(gens))
	return err
}

// PrintPrices writes the hourly price schedule.
func PrintPrices(w io.Writer, s catalog.PriceSchedule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Hour\tBuy\tSell\t")
	for i := range s.Buy {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t\n", i+1, s.Buy[i], s.Sell[i])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total hours: %d\n", s.Len())
	return err
}
