// Package export renders dispatch results as CSV, JSON, XLSX or PDF files
// and as console tables.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilianp07/mgdispatch/core/model"
)

// ErrIO is returned when the output destination cannot be written.
var ErrIO = errors.New("output error")

// SignConvention selects how charge and export flows are written.
type SignConvention int

const (
	// SignMagnitude writes every flow as a non-negative magnitude.
	SignMagnitude SignConvention = iota
	// SignNegated writes grid export and storage charge as negative values.
	SignNegated
)

// String returns the configuration name of the convention.
func (c SignConvention) String() string {
	if c == SignNegated {
		return "negated"
	}
	return "magnitude"
}

// ParseSignConvention parses "magnitude" or "negated". An empty string
// selects SignMagnitude.
func ParseSignConvention(s string) (SignConvention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "magnitude":
		return SignMagnitude, nil
	case "negated":
		return SignNegated, nil
	default:
		return 0, fmt.Errorf("unknown sign convention %q", s)
	}
}

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSV, FormatJSON, FormatXLSX, FormatPDF, FormatHTML:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// FormatFromPath infers the format from the file extension and falls back
// to CSV.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatCSV
	}
	return f
}

// Columns is the header of the tabular outputs.
var Columns = []string{
	"t", "load", "buyPrice", "sellPrice", "renewable1", "renewable2",
	"gridBuy", "gridSell", "soc", "essCharge", "essDischarge", "dg1", "dg2",
}

// values returns the numeric columns of h after t, in Columns order.
func values(h model.HourResult, conv SignConvention) []float64 {
	sell, charge := h.GridSell, h.ESSCharge
	if conv == SignNegated {
		sell, charge = -sell, -charge
	}
	return []float64{
		h.Load, h.BuyPrice, h.SellPrice, h.Renewable1, h.Renewable2,
		h.GridBuy, sell, h.SoC, charge, h.ESSDischarge, h.DG1, h.DG2,
	}
}

// Write renders res to w in the given format.
func Write(w io.Writer, format Format, res model.DispatchResult, conv SignConvention) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatXLSX:
		return WriteXLSX(w, res, conv)
	case FormatPDF:
		return WritePDF(w, res, conv)
	case FormatHTML:
		return WriteHTML(w, res, conv)
	default:
		return WriteCSV(w, res, conv)
	}
}

// WriteFile creates path and writes res to it. Failures to create or write
// the file wrap ErrIO.
func WriteFile(path string, format Format, res model.DispatchResult, conv SignConvention) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %v", ErrIO, path, cerr)
		}
	}()
	if err := Write(f, format, res, conv); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, path, err)
	}
	return nil
}
