package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/opdps/internal/api"
	"github.com/udisondev/opdps/internal/config"
	"github.com/udisondev/opdps/internal/dataio"
	"github.com/udisondev/opdps/internal/db"
	"github.com/udisondev/opdps/internal/game/combat"
	"github.com/udisondev/opdps/internal/model"
	"github.com/udisondev/opdps/internal/report"
	"github.com/udisondev/opdps/internal/service"
)

func runServe(ctx context.Context, cfg config.App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.Int("port", cfg.HTTP.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.HTTP.Port = *port

	database, calc, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	srv := api.NewServer(cfg.HTTP, calc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting http server", "address", cfg.HTTP.Addr())
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runMigrate(ctx context.Context, cfg config.App, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")
	return nil
}

func runImport(ctx context.Context, cfg config.App, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	in := fs.String("in", "", "operator file (.csv, .json, .xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("import: -in is required")
	}
	format, err := dataio.FormatOf(*in)
	if err != nil {
		return err
	}

	database, calc, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *in, err)
	}
	defer f.Close()

	summary, err := calc.Import(ctx, f, format, filepath.Base(*in))
	if err != nil {
		return err
	}
	fmt.Printf("imported %d operators (%s)\n", summary.Imported, summary.Status)
	for _, e := range summary.Errors {
		fmt.Println("  skipped:", e)
	}
	return nil
}

func runExport(ctx context.Context, cfg config.App, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("out", "", "output file (.csv, .json, .xlsx)")
	class := fs.String("class", "", "only export this class")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("export: -out is required")
	}
	format, err := dataio.FormatOf(*out)
	if err != nil {
		return err
	}

	database, calc, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	n, err := calc.Export(ctx, f, format, *class)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Printf("exported %d operators to %s\n", n, *out)
	return nil
}

// runCompare ranks the operators of a file without touching the database.
func runCompare(ctx context.Context, cfg config.App, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	in := fs.String("in", "", "operator file (.csv, .json, .xlsx)")
	scenarioPath := fs.String("scenario", "", "scenario YAML file (defaults to the configured scenario)")
	sortName := fs.String("sort", "average_dps", "ranking metric")
	out := fs.String("out", "", "write an XLSX report")
	chart := fs.String("chart", "", "write a PNG ranking chart")
	timeline := fs.String("timeline", "", "write a PNG cumulative damage chart")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("compare: -in is required")
	}
	key, err := model.ParseSortKey(*sortName)
	if err != nil {
		return err
	}
	sc := cfg.Scenario
	if *scenarioPath != "" {
		if sc, err = loadScenario(*scenarioPath, cfg.Rules); err != nil {
			return err
		}
	}

	res, _, err := dataio.ImportFile(*in)
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		fmt.Fprintln(os.Stderr, "skipped:", e)
	}
	entries := make([]combat.Entry, len(res.Records))
	for i, r := range res.Records {
		entries[i] = combat.Entry{Profile: r.Profile, Modifiers: r.Modifiers}
	}

	cmp, err := combat.NewComparer(cfg.Rules, cfg.Workers).Compare(ctx, entries, sc, key)
	if err != nil {
		return err
	}
	printRanking(cmp)

	if *out != "" {
		if err := report.SaveComparisonXLSX(*out, cmp); err != nil {
			return err
		}
		fmt.Println("report written to", *out)
	}
	if *chart != "" {
		img, err := report.ComparisonBarChart(cmp)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*chart, img, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", *chart, err)
		}
		fmt.Println("chart written to", *chart)
	}
	if *timeline != "" {
		img, err := report.LineChart("Cumulative damage", "time (s)", "damage", report.TimelineSeries(cmp))
		if err != nil {
			return err
		}
		if err := os.WriteFile(*timeline, img, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", *timeline, err)
		}
		fmt.Println("timeline written to", *timeline)
	}
	return nil
}

func runTemplate(_ context.Context, _ config.App, args []string) error {
	fs := flag.NewFlagSet("template", flag.ContinueOnError)
	out := fs.String("out", "operators.xlsx", "output file (.csv, .json, .xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := dataio.ExportFile(*out, dataio.Template()); err != nil {
		return err
	}
	fmt.Println("template written to", *out)
	return nil
}

// openService connects to PostgreSQL, applies migrations and wires the
// repositories into a Calculator.
func openService(ctx context.Context, cfg config.App) (*db.DB, *service.Calculator, error) {
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.MigratePool(ctx, database.Pool()); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	calc := service.New(cfg, database.Operators(), database.Calculations(), database.Imports())
	return database, calc, nil
}

func loadScenario(path string, rules config.Rules) (model.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Scenario{}, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	var sc model.Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return model.Scenario{}, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if err := combat.ValidateScenario(rules, sc); err != nil {
		return model.Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

func printRanking(cmp model.ComparisonResult) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tOperator\t%s\tAvg DPS\tBurst\tSustained\t%% of best\n", cmp.SortKey)
	for _, e := range cmp.Entries {
		r := e.Result
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f%%\n",
			e.Rank, r.Operator, cmp.SortKey.Metric(r), r.AverageDps, r.BurstDps, r.SustainedDps, e.RelativeToBest*100)
	}
	tw.Flush()
}
