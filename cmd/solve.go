package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/mgdispatch/app"
	"github.com/kilianp07/mgdispatch/config"
	"github.com/kilianp07/mgdispatch/core/model"
	"github.com/kilianp07/mgdispatch/infra/logger"
	"github.com/kilianp07/mgdispatch/pkg/catalog"
	"github.com/kilianp07/mgdispatch/pkg/export"
)

type solveOptions struct {
	scenario   string
	out        string
	format     string
	sign       string
	generators string
	prices     string
	quiet      bool
}

var solveOpts solveOptions

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the dispatch for one horizon",
	RunE:  runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveOpts.scenario, "scenario", "", "scenario file (default: inline config scenario or the reference day)")
	f.StringVarP(&solveOpts.out, "out", "o", "", "result file")
	f.StringVar(&solveOpts.format, "format", "", "result format: csv, json, xlsx, pdf or html")
	f.StringVar(&solveOpts.sign, "sign", "", "sign convention: magnitude or negated")
	f.StringVar(&solveOpts.generators, "generators", "", "generator catalog csv applied to dg1 and dg2")
	f.StringVar(&solveOpts.prices, "prices", "", "price schedule csv replacing the grid prices")
	f.BoolVarP(&solveOpts.quiet, "quiet", "q", false, "do not print the dispatch table")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyOutputFlags(&cfg.Output, solveOpts); err != nil {
		return err
	}
	logg := logger.New("solve")

	params, err := scenarioParameters(cfg, solveOpts, logg)
	if err != nil {
		return err
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	res, err := svc.Solve(ctx, params)
	if err != nil {
		return fmt.Errorf("run %s: %w", res.RunID, err)
	}
	if !solveOpts.quiet {
		if err := export.PrintDispatch(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}
	if cfg.Output.Path == "" {
		return nil
	}
	if err := export.WriteFile(cfg.Output.Path, cfg.Output.FileFormat(), res, cfg.Output.Sign()); err != nil {
		return err
	}
	logg.Infow("result written", map[string]any{"run_id": res.RunID, "path": cfg.Output.Path, "format": cfg.Output.Format})
	return nil
}

// applyOutputFlags lets command line flags override the output section.
func applyOutputFlags(out *config.OutputConfig, o solveOptions) error {
	if o.out != "" {
		out.Path = o.out
		if o.format == "" {
			out.Format = string(export.FormatFromPath(o.out))
		}
	}
	if o.format != "" {
		out.Format = o.format
	}
	if o.sign != "" {
		out.SignConvention = o.sign
	}
	return out.Validate()
}

// scenarioParameters resolves the horizon: scenario file first, then the
// inline configuration scenario, then the reference day. Catalog files are
// applied on top; the optimizer validates the final parameters so that a
// rejected horizon is still recorded in the run log.
func scenarioParameters(cfg *config.Config, o solveOptions, logg logger.Logger) (model.HorizonParameters, error) {
	var (
		p   model.HorizonParameters
		err error
	)
	switch {
	case o.scenario != "":
		sc, lerr := config.LoadScenario(o.scenario)
		if lerr != nil {
			return p, fmt.Errorf("load scenario: %w", lerr)
		}
		p, err = sc.Parameters()
	case cfg.Scenario != nil:
		p, err = cfg.Scenario.Parameters()
	default:
		p = model.ReferenceScenario()
	}
	if err != nil {
		return p, err
	}

	if o.generators != "" {
		gens, err := catalog.LoadGenerators(o.generators, logg)
		if err != nil {
			return p, err
		}
		if err := catalog.ApplyGenerators(&p, gens); err != nil {
			return p, err
		}
	}
	if o.prices != "" {
		sched, err := catalog.LoadPrices(o.prices, logg)
		if err != nil {
			return p, err
		}
		if err := catalog.ApplyPrices(&p, sched); err != nil {
			return p, err
		}
	}
	return p, nil
}
