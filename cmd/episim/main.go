package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/automation"
	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/export"
	"github.com/san-kum/episim/internal/history"
	"github.com/san-kum/episim/internal/metrics"
	"github.com/san-kum/episim/internal/sim"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	shareQuery string

	numAgents      int
	initInfected   int
	initRecovered  int
	dt             float64
	beta           float64
	gamma          float64
	mu             float64
	daysInfectious float64
	efficacy       float64
	coverage       float64
	vaxRate        float64
	mutationRate   float64
	contacts       int
	stochastic     bool
	autoStop       bool
	seed           uint32
	maxSteps       int

	noSave    bool
	csvPath   string
	jsonPath  string
	svgPath   string
	output    string
	theme     string
	decode    bool
	sweepVar  string
	sweepMin  float64
	sweepMax  float64
	sweepN    int
	trials    int
	parallel  int
	threshold float64
)

var printer = message.NewPrinter(language.English)

func main() {
	rootCmd := &cobra.Command{
		Use:   "episim",
		Short: "stochastic SEIRD epidemic simulator on a contact grid",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".episim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation until it settles or hits max steps",
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "also export the series as CSV")
	runCmd.Flags().StringVar(&jsonPath, "json", "", "also export the run as JSON")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "also draw the final grid as SVG")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive grid view with scrubbing and branching",
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "clinical", "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the compartments of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored run's series as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run with its indicators as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw a stored run's compartment curves as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringVar(&theme, "theme", "clinical", "colour theme")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		RunE:  listPresets,
	}

	shareCmd := &cobra.Command{
		Use:   "share",
		Short: "print the share link query for a configuration",
		Long:  "Encodes the resolved configuration as a query string. With --decode, prints the configuration a query string describes.",
		RunE:  shareConfig,
	}
	addConfigFlags(shareCmd)
	shareCmd.Flags().BoolVar(&decode, "decode", false, "decode --share and print it as YAML")

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "write the resolved configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}
	addConfigFlags(configCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one simulation per value of a parameter",
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepVar, "param", "beta", "parameter to vary ("+strings.Join(automation.SweepParams, ", ")+")")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.5, "last value")
	sweepCmd.Flags().IntVar(&sweepN, "steps", 5, "number of values")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run an ensemble over consecutive seeds",
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().IntVar(&parallel, "parallel", 0, "max concurrent trials (0 = unbounded)")
	monteCarloCmd.Flags().Float64Var(&threshold, "threshold", 0.1, "attack rate separating outbreaks from fizzles")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a scripted timeline of steps, edits, views and forks",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	scriptCmd.Flags().StringVar(&csvPath, "csv", "", "export the final series as CSV")
	scriptCmd.Flags().StringVar(&jsonPath, "json", "", "export the final timeline as JSON")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		presetsCmd, shareCmd, configCmd, sweepCmd, monteCarloCmd, scriptCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML config file")
	f.StringVar(&preset, "preset", "", "scenario preset ("+strings.Join(config.ListPresets(), ", ")+")")
	f.StringVar(&shareQuery, "share", "", "start from a share link query string")

	f.IntVarP(&numAgents, "agents", "n", config.DefaultN, "population size")
	f.IntVar(&initInfected, "i0", config.DefaultI0, "initially infectious agents")
	f.IntVar(&initRecovered, "r0-init", 0, "initially recovered agents")
	f.Float64Var(&dt, "dt", config.DefaultDt, "time step in days")
	f.Float64Var(&beta, "beta", config.DefaultBeta, "transmission rate per contact")
	f.Float64Var(&gamma, "gamma", config.DefaultGamma, "recovery rate")
	f.Float64Var(&mu, "mu", config.DefaultMu, "death rate")
	f.Float64Var(&daysInfectious, "days-infectious", 0, "mean infectious period, sets gamma=1/d")
	f.Float64Var(&efficacy, "ve", 0, "vaccine efficacy in percent")
	f.Float64Var(&coverage, "vax-cov", 0, "initial vaccine coverage in percent")
	f.Float64Var(&vaxRate, "vax-rate", 0, "ongoing vaccination, percent of N per day")
	f.Float64Var(&mutationRate, "mutation", 0, "waning rate, R->S")
	f.IntVar(&contacts, "contacts", config.DefaultContacts, "grid neighbours (4 or 6)")
	f.BoolVar(&stochastic, "stochastic", true, "random infection draws")
	f.BoolVar(&autoStop, "auto-stop", true, "stop once no agent is exposed or infectious")
	f.Uint32Var(&seed, "seed", config.DefaultSeed, "random seed")
	f.IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "step limit")
}

// resolveConfig layers defaults (or a share query), the preset, the config
// file, EPISIM_* variables and finally the flags set on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if shareQuery != "" && !decode {
		parsed, err := config.ParseQuery(strings.TrimPrefix(shareQuery, "?"))
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}

	if preset != "" && !cfg.ApplyPreset(preset) {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	if configFile != "" {
		if err := cfg.MergeFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("agents") {
		cfg.N = numAgents
	}
	if f.Changed("i0") {
		cfg.I0 = initInfected
	}
	if f.Changed("r0-init") {
		cfg.R0Init = initRecovered
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("beta") {
		cfg.Beta = beta
	}
	if f.Changed("days-infectious") {
		cfg.SetDaysInfectious(daysInfectious)
	}
	if f.Changed("gamma") {
		cfg.Gamma = gamma
	}
	if f.Changed("mu") {
		cfg.Mu = mu
	}
	if f.Changed("ve") {
		cfg.VaccineEfficacy = efficacy
	}
	if f.Changed("vax-cov") {
		cfg.VaxCoverage = coverage
	}
	if f.Changed("vax-rate") {
		cfg.VaxRate = vaxRate
	}
	if f.Changed("mutation") {
		cfg.MutationRate = mutationRate
	}
	if f.Changed("contacts") {
		cfg.Contacts = contacts
	}
	if f.Changed("stochastic") {
		cfg.Stochastic = stochastic
	}
	if f.Changed("auto-stop") {
		cfg.AutoStop = autoStop
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func scenarioName(cfg *config.Config) string {
	if cfg.Scenario == "" {
		return "custom"
	}
	return cfg.Scenario
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	s := sim.New(cfg.Sim())
	for _, m := range metrics.Defaults() {
		s.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	printer.Printf("running %s scenario with %d agents...\n", scenarioName(cfg), s.Config().N)
	start := time.Now()

	result, err := s.Run(ctx, cfg.MaxSteps)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		fmt.Println("interrupted, keeping partial run")
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	printer.Printf("steps: %d (t=%.1f)\n", result.StepsTaken, s.Time())
	if result.Halted {
		fmt.Println("stopped: no exposed or infectious agents left")
	}
	if final, ok := s.History().Last(); ok {
		printer.Printf("final: S=%d E=%d I=%d R=%d D=%d\n", final.S, final.E, final.I, final.R, final.D)
	}

	printIndicators(s.Metrics())
	printSummary(result.Metrics)

	if csvPath != "" {
		if err := storage.ExportCSVFile(csvPath, s.ExportRows()); err != nil {
			return err
		}
		fmt.Printf("exported series to %s\n", csvPath)
	}
	if jsonPath != "" {
		data := storage.NewExportData(cfg, s.ExportRows(), s.Metrics(), result.Metrics)
		if err := storage.ExportJSONFile(jsonPath, data); err != nil {
			return err
		}
		fmt.Printf("exported run to %s\n", jsonPath)
	}
	if svgPath != "" {
		pop := s.Population()
		svg := export.GridToSVG(s.ViewedSnapshot(), pop.Cols, pop.Rows, s.Config().Topology, viz.CurrentTheme, 8)
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("drew grid to %s\n", svgPath)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func printIndicators(m metrics.Snapshot) {
	fmt.Println("\nindicators:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, f := range m.Fields() {
		fmt.Fprintf(w, "  %s\t%s\n", f.Label, f.Value)
	}
	w.Flush()
}

func printSummary(summary map[string]float64) {
	if len(summary) == 0 {
		return
	}
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		printer.Printf("  %s: %.4f\n", name, summary[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	viz.SetTheme(theme)
	return viz.Run(cfg)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tN\tSTEPS\tHALTED\tATTACK\tDEATHS")

	for _, run := range runs {
		printer.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\t%s\t%.0f\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.N,
			run.Steps,
			run.Halted,
			metrics.FormatPct(run.Metrics["attack_rate"]),
			run.Metrics["deaths"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	rows, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(rows))

	series := make([][]float64, 5)
	for i := range series {
		series[i] = make([]float64, len(rows))
	}
	for j, r := range rows {
		series[0][j] = float64(r.S)
		series[1][j] = float64(r.E)
		series[2][j] = float64(r.I)
		series[3][j] = float64(r.R)
		series[4][j] = float64(r.D)
	}

	graph := asciigraph.PlotMany(series,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Yellow, asciigraph.Red, asciigraph.Green, asciigraph.Gray),
		asciigraph.Caption("S (blue)  E (yellow)  I (red)  R (green)  D (gray)"),
	)
	fmt.Println(graph)
	fmt.Println()

	infectious := make([]float64, len(rows))
	for j, r := range rows {
		infectious[j] = float64(r.I)
	}
	fmt.Println(asciigraph.Plot(infectious,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("infectious"),
	))

	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rows, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	if output == "" {
		return storage.WriteCSV(os.Stdout, rows)
	}
	if err := storage.ExportCSVFile(output, rows); err != nil {
		return err
	}
	fmt.Printf("exported %d rows to %s\n", len(rows), output)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	snap, _ := metrics.Compute(history.FromExport(rows), len(rows)-1, metrics.ParamsFor(meta.Config.Sim()))
	data := storage.NewExportData(&meta.Config, rows, snap, meta.Metrics)

	if output == "" {
		return storage.WriteJSON(os.Stdout, data)
	}
	if err := storage.ExportJSONFile(output, data); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", meta.ID, output)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rows, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("need at least two samples to draw, got %d", len(rows))
	}

	svg := export.SeriesToSVG(rows, 800, 400, viz.GetTheme(theme))
	if output == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(output, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported chart to %s\n", output)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tN\tBETA\tGAMMA\tMU\tR0\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		printer.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%s\t%s\n",
			name, p.N, p.Beta, p.Gamma, p.Mu,
			metrics.FormatRatio(metrics.ReproductionNumber(p.Beta, p.Gamma)),
			p.Description,
		)
	}
	return w.Flush()
}

func shareConfig(cmd *cobra.Command, args []string) error {
	if decode {
		if shareQuery == "" {
			return fmt.Errorf("--decode needs --share")
		}
		cfg, err := config.ParseQuery(strings.TrimPrefix(shareQuery, "?"))
		if err != nil {
			return err
		}
		return printYAML(cfg)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Println("?" + cfg.EncodeQuery())
	return nil
}

func printYAML(cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return printYAML(cfg)
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepVar,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepN,
	}, os.Stderr)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tPEAK I\tPEAK T\tATTACK\tDEATHS\n", strings.ToUpper(sweepVar))
	for _, r := range results {
		printer.Fprintf(w, "%.4f\t%d\t%s\t%s\t%s\t%d\n",
			r.ParamValue,
			r.Steps,
			metrics.FormatPct(r.Metrics["peak_prevalence"]),
			metrics.FormatTime(r.Metrics["peak_time"]),
			metrics.FormatPct(r.Final.CumulativeIncidence),
			r.Final.D,
		)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:      cfg,
		NumTrials: trials,
		SeedStart: cfg.Seed,
		Parallel:  parallel,
	}, os.Stderr)
	if err != nil {
		return err
	}
	fmt.Printf("completed %d trials in %v\n\n", len(results), time.Since(start))

	stats := automation.MonteCarloStats(results)
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMEDIAN\tMAX")
	for _, name := range names {
		s := stats[name]
		printer.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n", name, s.Mean, s.Std, s.Min, s.Median, s.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	outbreaks, fizzles := automation.OutbreakCount(results, threshold)
	fmt.Printf("\noutbreaks: %d, fizzled: %d (attack rate threshold %s)\n",
		outbreaks, fizzles, metrics.FormatPct(threshold))
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}
	if script.Name != "" {
		fmt.Printf("script: %s\n", script.Name)
	}
	if script.Description != "" {
		fmt.Println(script.Description)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := automation.RunScript(ctx, script, os.Stdout)
	if err != nil {
		return err
	}

	s := res.Simulator
	printIndicators(s.Metrics())

	if csvPath != "" {
		if err := storage.ExportCSVFile(csvPath, s.ExportRows()); err != nil {
			return err
		}
		fmt.Printf("exported series to %s\n", csvPath)
	}
	if jsonPath != "" {
		data := storage.NewExportData(res.Config, s.ExportRows(), s.Metrics(), nil)
		if err := storage.ExportJSONFile(jsonPath, data); err != nil {
			return err
		}
		fmt.Printf("exported timeline to %s\n", jsonPath)
	}
	return nil
}
