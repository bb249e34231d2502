package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/mgdispatch/core/model"
)

// WriteHTML renders the hourly dispatch as an interactive line chart, one
// series per source plus the state of charge in percent.
func WriteHTML(w io.Writer, res model.DispatchResult, conv SignConvention) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Microgrid dispatch",
			Subtitle: fmt.Sprintf("run %s, %s, operating cost %.2f", res.RunID, res.Status, res.Objective),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kW"}),
	)

	hours := make([]string, len(res.Hours))
	series := make([][]opts.LineData, len(Columns)-1)
	for i, h := range res.Hours {
		hours[i] = strconv.Itoa(h.Hour)
		for j, v := range values(h, conv) {
			if Columns[j+1] == "soc" {
				v *= 100
			}
			series[j] = append(series[j], opts.LineData{Value: v})
		}
	}
	line.SetXAxis(hours)
	for j, data := range series {
		switch Columns[j+1] {
		case "buyPrice", "sellPrice":
			continue
		}
		line.AddSeries(Columns[j+1], data)
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
