// Package catalog loads the auxiliary generator and price tables that can
// replace parts of a dispatch scenario.
//
// Both formats are plain CSV with a header row. Malformed rows are skipped
// with a warning; only reader and file errors abort a load.
package catalog

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/mgdispatch/core/logger"
)

// ErrEmpty is returned when a table has no usable row.
var ErrEmpty = errors.New("catalog has no valid rows")

// readRows returns the trimmed records after the header. Lines the CSV
// parser rejects are logged and skipped.
func readRows(r io.Reader, log logger.Logger) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	var rows [][]string
	header := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			log.Warnf("skipping malformed line %d: %v", perr.StartLine, perr.Err)
			header = false
			continue
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func parseFloats(rec []string) ([]float64, error) {
	out := make([]float64, len(rec))
	for i, s := range rec {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func nopIfNil(log logger.Logger) logger.Logger {
	if log == nil {
		return logger.NopLogger{}
	}
	return log
}
