package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/mgdispatch/config"
	"github.com/kilianp07/mgdispatch/core/model"
	"github.com/kilianp07/mgdispatch/infra/logger"
	"github.com/kilianp07/mgdispatch/pkg/export"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath, solveOpts = "", solveOptions{}
	historyStatus, historySince = "", ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func testConfigFile(t *testing.T, dir string) string {
	t.Helper()
	return writeTemp(t, dir, "config.yaml", "runlog:\n  path: "+filepath.Join(dir, "runs.log")+"\nlogging:\n  level: error\n")
}

func TestSolveAndHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfigFile(t, dir)
	out := filepath.Join(dir, "dispatch.csv")

	stdout, err := execute(t, "solve", "-c", cfg, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Status: optimal")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("t,load,buyPrice")))

	stdout, err = execute(t, "history", "-c", cfg, "--status", "optimal")
	require.NoError(t, err)
	assert.Contains(t, stdout, "optimal")

	stdout, err = execute(t, "history", "-c", cfg, "--status", "infeasible")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "optimal")
}

func TestSolve_InfeasibleScenario(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfigFile(t, dir)
	sc := writeTemp(t, dir, "scenario.yaml", `name: islanded
dg1_cost: 80
dg2_cost: 90
soc_initial: 0
ess_capacity: 200
ess_efficiency: 0.95
load: [500]
grid_buy_price: [90]
grid_sell_price: [70]
ratings:
  grid_import_max: 0
`)
	_, err := execute(t, "solve", "-c", cfg, "--scenario", sc, "-q")
	assert.ErrorContains(t, err, "infeasible")
}

func TestSolve_OutputIOErrorAfterPrint(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfigFile(t, dir)
	out := filepath.Join(dir, "missing", "dispatch.csv")

	stdout, err := execute(t, "solve", "-c", cfg, "--out", out)
	assert.ErrorIs(t, err, export.ErrIO)
	assert.Contains(t, stdout, "Status: optimal")
}

func TestCatalogAndPrices(t *testing.T) {
	dir := t.TempDir()
	gens := writeTemp(t, dir, "dg.csv", "id,cost_per_kWh,max_kW,min_kW\n1,80,80,0\n2,90,100,0\n")
	prices := writeTemp(t, dir, "prices.csv", "buy_price,sell_price\n90,70\n110,95\n")

	stdout, err := execute(t, "catalog", gens)
	require.NoError(t, err)
	assert.Contains(t, stdout, "80")

	stdout, err = execute(t, "prices", prices)
	require.NoError(t, err)
	assert.Contains(t, stdout, "110")

	_, err = execute(t, "catalog")
	assert.Error(t, err)
}

func TestApplyOutputFlags(t *testing.T) {
	var out config.OutputConfig
	out.SetDefaults()
	require.NoError(t, applyOutputFlags(&out, solveOptions{out: "r.json", sign: "negated"}))
	assert.Equal(t, export.FormatJSON, out.FileFormat())
	assert.Equal(t, export.SignNegated, out.Sign())

	require.NoError(t, applyOutputFlags(&out, solveOptions{out: "r.json", format: "pdf"}))
	assert.Equal(t, export.FormatPDF, out.FileFormat())

	assert.Error(t, applyOutputFlags(&out, solveOptions{format: "docx"}))
	assert.Error(t, applyOutputFlags(&out, solveOptions{sign: "absolute"}))
}

func TestScenarioParameters(t *testing.T) {
	log := logger.NopLogger{}
	cfg := &config.Config{}

	p, err := scenarioParameters(cfg, solveOptions{}, log)
	require.NoError(t, err)
	assert.Equal(t, model.ReferenceScenario().Load, p.Load)

	dir := t.TempDir()
	gens := writeTemp(t, dir, "dg.csv", "id,cost_per_kWh,max_kW,min_kW\n7,95,60,0\n3,85,70,0\n")
	p, err = scenarioParameters(cfg, solveOptions{generators: gens}, log)
	require.NoError(t, err)
	assert.Equal(t, 85.0, p.DG1Cost)
	assert.Equal(t, 70.0, p.Ratings.DG1Max)
	assert.Equal(t, 95.0, p.DG2Cost)

	prices := writeTemp(t, dir, "prices.csv", "buy_price,sell_price\n90,70\n")
	p, err = scenarioParameters(cfg, solveOptions{prices: prices}, log)
	require.NoError(t, err)
	assert.Equal(t, []float64{90}, p.GridBuyPrice)
	assert.Error(t, p.Validate(), "a one hour schedule does not fit the reference day")

	_, err = scenarioParameters(cfg, solveOptions{scenario: filepath.Join(dir, "none.yaml")}, log)
	assert.Error(t, err)
}

func TestHistoryQuery(t *testing.T) {
	q, err := historyQuery("solver_error", "2026-03-01T00:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, q.Status)
	assert.Equal(t, model.StatusSolverError, *q.Status)
	assert.Equal(t, 2026, q.Start.Year())

	_, err = historyQuery("done", "")
	assert.Error(t, err)
	_, err = historyQuery("", "yesterday")
	assert.Error(t, err)
}
