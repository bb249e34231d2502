package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/mgdispatch/core/model"
	"github.com/kilianp07/mgdispatch/pkg/catalog"
)

func sampleResult() model.DispatchResult {
	return model.DispatchResult{
		RunID:     "run-1",
		Status:    model.StatusOptimal,
		Objective: 25940,
		Elapsed:   3 * time.Millisecond,
		SolvedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Hours: []model.HourResult{
			{Hour: 1, Load: 169, BuyPrice: 90, SellPrice: 70, GridSell: 2.5, ESSCharge: 10, SoC: 0.2475, DG1: 80, DG2: 100, Renewable1: 1.5},
			{Hour: 2, Load: 175, BuyPrice: 90, SellPrice: 70, GridBuy: 0.125, ESSDischarge: 19, DG1: 80, DG2: 75.875},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult(), SignMagnitude))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "t,load,buyPrice,sellPrice,renewable1,renewable2,gridBuy,gridSell,soc,essCharge,essDischarge,dg1,dg2", strings.Join(recs[0], ","))
	assert.Equal(t, []string{"1", "169", "90", "70", "1.5", "0", "0", "2.5", "0.2475", "10", "0", "80", "100"}, recs[1])
	assert.Equal(t, "0.125", recs[2][6])
	assert.Equal(t, "75.875", recs[2][12])
}

func TestWriteCSV_Negated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult(), SignNegated))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "-2.5", recs[1][7])
	assert.Equal(t, "-10", recs[1][9])
	assert.Equal(t, "19", recs[2][10], "discharge keeps its sign")
}

func TestWriteCSV_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, model.DispatchResult{}, SignMagnitude))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult()))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "optimal", got["status"])
	assert.Len(t, got["hours"], 2)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleResult(), SignNegated))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{"dispatch", "summary"}, f.GetSheetList())

	rows, err := f.GetRows("dispatch")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "-2.5", rows[1][7])

	status, err := f.GetCellValue("summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "optimal", status)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleResult(), SignMagnitude))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleResult(), SignMagnitude))
	out := buf.String()
	assert.Contains(t, out, "Microgrid dispatch")
	assert.Contains(t, out, "essDischarge")
	assert.NotContains(t, out, "buyPrice")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []Format{FormatCSV, FormatJSON, FormatXLSX, FormatPDF, FormatHTML} {
		path := filepath.Join(dir, "out."+string(f))
		require.NoError(t, WriteFile(path, f, sampleResult(), SignMagnitude), f)
		assert.Equal(t, f, FormatFromPath(path))
	}

	err := WriteFile(filepath.Join(dir, "missing", "out.csv"), FormatCSV, sampleResult(), SignMagnitude)
	assert.True(t, errors.Is(err, ErrIO))
}

func TestParse(t *testing.T) {
	c, err := ParseSignConvention("Negated")
	require.NoError(t, err)
	assert.Equal(t, SignNegated, c)
	c, err = ParseSignConvention("")
	require.NoError(t, err)
	assert.Equal(t, SignMagnitude, c)
	_, err = ParseSignConvention("inverted")
	assert.Error(t, err)

	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	_, err = ParseFormat("parquet")
	assert.Error(t, err)
	assert.Equal(t, FormatCSV, FormatFromPath("out.txt"))
}

func TestPrintTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintDispatch(&buf, sampleResult()))
	out := buf.String()
	assert.Contains(t, out, "Discharge")
	assert.Contains(t, out, "75.88")
	assert.Contains(t, out, "Operating cost: 25940.00")

	buf.Reset()
	require.NoError(t, PrintGenerators(&buf, []catalog.Generator{{ID: 1, CostPerKWh: 80, MaxKW: 80}}))
	assert.Contains(t, buf.String(), "Total generators: 1")

	buf.Reset()
	require.NoError(t, PrintPrices(&buf, catalog.PriceSchedule{Buy: []float64{90}, Sell: []float64{70}}))
	assert.Contains(t, buf.String(), "90.00")
	assert.Contains(t, buf.String(), "Total hours: 1")
}
