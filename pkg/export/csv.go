package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/mgdispatch/core/model"
)

// WriteCSV writes one row per hour under the Columns header. Hours are
// 1-indexed and floats use the shortest exact representation.
func WriteCSV(w io.Writer, res model.DispatchResult, conv SignConvention) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, h := range res.Hours {
		rec := []string{strconv.Itoa(h.Hour)}
		for _, v := range values(h, conv) {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the result to w in JSON format.
func WriteJSON(w io.Writer, res model.DispatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
