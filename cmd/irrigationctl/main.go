package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/config"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/db"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/migrate"
	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/modules/irrigation/analysis"
)

const usage = `usage: irrigationctl <command> [args]
  migrate [status]                       apply pending migrations, or list them
  analyze [-time-column NAME] FILE.csv   print daily averages and the latest recommendation
  recommend -temperature T -humidity H -light L
                                         classify one set of daily means
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "migrate":
		err = runMigrate(args[1:], stdout)
	case "analyze":
		err = runAnalyze(args[1:], stdout, stderr)
	case "recommend":
		err = runRecommend(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n%s", args[0], usage)
		return 2
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func runMigrate(args []string, stdout io.Writer) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	if len(args) > 0 && args[0] == "status" {
		migrations, err := migrate.Status(conn)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
		for _, m := range migrations {
			fmt.Fprintf(tw, "%s\t%s\t%t\n", m.Version, m.Name, m.Applied)
		}
		return tw.Flush()
	}
	if len(args) > 0 {
		return fmt.Errorf("unknown argument %q", args[0])
	}

	if err := migrate.Run(conn); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "migrations applied")
	return nil
}

func runAnalyze(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	timeColumn := fs.String("time-column", analysis.DefaultTimeColumn, "name of the timestamp column")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one CSV file")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := analysis.Load(f, analysis.LoadOptions{TimeColumn: *timeColumn})
	if err != nil {
		return err
	}
	return printAnalysis(stdout, table)
}

func printAnalysis(w io.Writer, table *analysis.Table) error {
	summary, err := table.DailySummary()
	if err != nil {
		return err
	}
	if len(summary) == 0 {
		fmt.Fprintln(w, "No valid dates available in the data.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DATE\tTEMPERATURE\tHUMIDITY\tLIGHT LEVEL\tSAMPLES\t")
	for _, d := range summary {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t\n",
			d.Date.Format(analysis.DateLayout),
			formatMean(d.MeanTemperature),
			formatMean(d.MeanHumidity),
			formatMean(d.MeanLightLevel),
			d.Samples,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	day, rec, err := analysis.MostRecentRecommendation(summary)
	if err != nil {
		fmt.Fprintf(w, "\nMost recent day: insufficient data for a recommendation.\n")
		return nil
	}
	fmt.Fprintf(w, "\nMost recent day %s: %s\n%s\n", day.Date.Format(analysis.DateLayout), rec.Headline, rec.Rationale)
	return nil
}

func runRecommend(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	temperature := fs.Float64("temperature", 0, "mean temperature (°C)")
	humidity := fs.Float64("humidity", 0, "mean relative humidity (%)")
	light := fs.Float64("light", 0, "mean light level (lux)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	seen := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	for _, name := range []string{"temperature", "humidity", "light"} {
		if !seen[name] {
			return fmt.Errorf("-%s is required", name)
		}
	}

	rec := analysis.RecommendIrrigation(*temperature, *humidity, *light)
	fmt.Fprintf(stdout, "%s\n%s\n%s\n", rec.Category.Code(), rec.Headline, rec.Rationale)
	return nil
}

func formatMean(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
