package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/joho/godotenv"
	"github.com/san-kum/trajcost/internal/config"
	"github.com/san-kum/trajcost/internal/dynamo"
	"github.com/san-kum/trajcost/internal/experiment"
	"github.com/san-kum/trajcost/internal/goal"
	"github.com/san-kum/trajcost/internal/integrators"
	"github.com/san-kum/trajcost/internal/optim"
	"github.com/san-kum/trajcost/internal/problem"
	"github.com/san-kum/trajcost/internal/storage"
	"github.com/san-kum/trajcost/internal/tui"
	"github.com/san-kum/trajcost/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultDataDir = ".trajcost"

var (
	dataDir string
	verbose bool
	theme   string

	configFile string
	preset     string
	dt         float64
	duration   float64
	integrator string
	controller string
	kp         float64
	ki         float64
	kd         float64
	target     float64
	gain       float64
	masses     int
	exportPath string

	goalName   string
	weights    []string
	exponent   float64
	normalize  bool
	quadrature string

	gains []float64

	logger = zap.NewNop()
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "trajcost",
		Short:         "control-effort costs for simulated trajectories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	defaultData := os.Getenv("TRAJCOST_DATA")
	if defaultData == "" {
		defaultData = defaultDataDir
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", defaultData, "data directory (env TRAJCOST_DATA)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "neon", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "simulate a model and score its control effort",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	addGoalFlags(runCmd)
	runCmd.Flags().StringVar(&exportPath, "export", "", "also write the run as json to this path")

	costCmd := &cobra.Command{
		Use:   "cost [run_id]",
		Short: "re-score a stored run with the current goal settings",
		Args:  cobra.ExactArgs(1),
		RunE:  costRun,
	}
	addGoalFlags(costCmd)

	describeCmd := &cobra.Command{
		Use:   "describe [model]",
		Short: "bind the goal to a model and list the bound controls",
		Args:  cobra.ExactArgs(1),
		RunE:  describeGoal,
	}
	addSimFlags(describeCmd)
	addGoalFlags(describeCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search over controller gain",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneGain,
	}
	addSimFlags(tuneCmd)
	addGoalFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&gains, "gains", []float64{0.25, 0.5, 0.75, 1, 1.5, 2}, "controller gains to try")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a run's controls and effort integrand",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	addGoalFlags(plotCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	historyCmd := &cobra.Command{
		Use:   "history [run_id]",
		Short: "list every evaluation recorded for a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showHistory,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	tuiCmd := &cobra.Command{
		Use:   "tui [model]",
		Short: "tune goal weights interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  runTuner,
	}
	addSimFlags(tuiCmd)
	addGoalFlags(tuiCmd)

	rootCmd.AddCommand(runCmd, costCmd, describeCmd, tuneCmd, plotCmd, listCmd, historyCmd, presetsCmd, tuiCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().StringVar(&controller, "controller", "lqr", "controller")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "pid/lqr position gain")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "pid integral gain")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "pid/lqr velocity gain")
	cmd.Flags().Float64Var(&target, "target", config.DefaultTargetY, "controller target")
	cmd.Flags().Float64Var(&gain, "gain", 1, "scale applied to controller output")
	cmd.Flags().IntVar(&masses, "masses", config.DefaultMasses, "number of masses (masschain)")
}

func addGoalFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&goalName, "goal", config.DefaultGoalName, "goal name")
	cmd.Flags().StringArrayVarP(&weights, "weight", "w", nil, "control weight as name=value (repeatable)")
	cmd.Flags().Float64Var(&exponent, "exponent", goal.DefaultExponent, "penalty exponent (>= 2)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "divide by mass-center displacement")
	cmd.Flags().StringVar(&quadrature, "quadrature", string(integrators.Trapezoid), "trapezoid or simpson")
}

// buildConfig layers defaults, preset, config file and explicitly set flags,
// in that order.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Model = model

	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Lookup(name) != nil && f.Changed(name) {
			apply()
		}
	}
	set("dt", func() { cfg.Dt = dt })
	set("time", func() { cfg.Duration = duration })
	set("integrator", func() { cfg.Integrator = integrator })
	set("controller", func() { cfg.Controller = controller })
	set("kp", func() { cfg.ControllerParams.Kp = kp })
	set("ki", func() { cfg.ControllerParams.Ki = ki })
	set("kd", func() { cfg.ControllerParams.Kd = kd })
	set("target", func() { cfg.ControllerParams.Target = target })
	set("gain", func() { cfg.ControllerParams.Gain = gain })
	set("masses", func() { cfg.Masses = masses })

	if err := applyGoalFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func applyGoalFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("goal") {
		cfg.Goal.Name = goalName
	}
	if f.Changed("exponent") {
		cfg.Goal.Exponent = exponent
	}
	if f.Changed("normalize") {
		cfg.Goal.DivideByDisplacement = normalize
	}
	if f.Changed("quadrature") {
		cfg.Quadrature = quadrature
	}
	if len(weights) > 0 && cfg.Goal.Weights == nil {
		cfg.Goal.Weights = goal.NewWeightSet()
	}
	for _, spec := range weights {
		name, value, err := parseWeight(spec)
		if err != nil {
			return err
		}
		cfg.Goal.Weights.SetWeight(name, value)
	}
	return nil
}

func parseWeight(spec string) (string, float64, error) {
	name, raw, ok := strings.Cut(spec, "=")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("weight %q: want name=value", spec)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("weight %q: %w", spec, err)
	}
	return name, v, nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	st.SetLogger(logger)
	return st, st.Init()
}

func openLedger(ctx context.Context) (*storage.Ledger, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return storage.OpenLedger(ctx, filepath.Join(dataDir, "ledger.db"))
}

func goalSettings(cfg *config.Config) storage.GoalSettings {
	return storage.GoalSettings{
		Name:                 cfg.Goal.Name,
		Exponent:             cfg.Goal.Exponent,
		DivideByDisplacement: cfg.Goal.DivideByDisplacement,
		Weights:              cfg.Goal.Weights.Entries(),
	}
}

func record(ctx context.Context, runID string, cfg *config.Config, b *problem.Breakdown) error {
	ledger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer ledger.Close()

	t := b.Terms[0]
	_, err = ledger.Record(ctx, storage.Evaluation{
		RunID:      runID,
		Goal:       goalSettings(cfg),
		Integral:   t.Integral,
		Cost:       t.Cost,
		Total:      b.Total,
		Quadrature: cfg.Quadrature,
	})
	return err
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", cfg.Model)
	start := time.Now()
	res, err := experiment.New(cfg, nil, logger).Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Model:      cfg.Model,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Controller: cfg.Controller,
		Quadrature: cfg.Quadrature,
		Controls:   res.Plant.ControlNames(),
		Goal:       goalSettings(cfg),
		Total:      res.Breakdown.Total,
		Costs:      termCosts(res.Breakdown),
	}
	runID, err := st.Save(meta, res.Trajectory)
	if err != nil {
		return err
	}
	if err := record(ctx, runID, cfg, res.Breakdown); err != nil {
		return err
	}

	if exportPath != "" {
		meta.ID = runID
		f, err := os.Create(exportPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := storage.ExportJSON(f, meta, res.Trajectory); err != nil {
			return err
		}
	}

	r := viz.NewRenderer(viz.GetTheme(theme))
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n\n", runID)
	fmt.Println(r.Description(res.Goal))
	fmt.Println(r.Breakdown(res.Breakdown))
	return nil
}

func termCosts(b *problem.Breakdown) map[string]float64 {
	out := make(map[string]float64, len(b.Terms))
	for _, t := range b.Terms {
		out[t.Name] = t.Cost
	}
	return out
}

// storedConfig rebuilds the configuration a run was recorded with; the goal
// flags on cmd then override its goal block.
func storedConfig(cmd *cobra.Command, meta *storage.RunMetadata) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = meta.Model
	cfg.Dt = meta.Dt
	cfg.Duration = meta.Duration
	cfg.Integrator = meta.Integrator
	cfg.Controller = meta.Controller
	cfg.Quadrature = meta.Quadrature
	cfg.Masses = len(meta.Controls)
	cfg.Goal.Name = meta.Goal.Name
	cfg.Goal.Exponent = meta.Goal.Exponent
	cfg.Goal.DivideByDisplacement = meta.Goal.DivideByDisplacement
	if len(meta.Goal.Weights) > 0 {
		cfg.Goal.Weights = goal.NewWeightSet(meta.Goal.Weights...)
	}
	if err := applyGoalFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func loadRun(cmd *cobra.Command, runID string) (*config.Config, *dynamo.Trajectory, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	traj, _, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := storedConfig(cmd, meta)
	if err != nil {
		return nil, nil, err
	}
	return cfg, traj, nil
}

func costRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runID := args[0]
	cfg, traj, err := loadRun(cmd, runID)
	if err != nil {
		return err
	}

	res, err := experiment.New(cfg, nil, logger).Evaluate(ctx, traj)
	if err != nil {
		return err
	}
	if err := record(ctx, runID, cfg, res.Breakdown); err != nil {
		return err
	}

	r := viz.NewRenderer(viz.GetTheme(theme))
	fmt.Println(r.Description(res.Goal))
	fmt.Println(r.Breakdown(res.Breakdown))
	return nil
}

func describeGoal(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, nil, logger)
	plant, err := exp.Plant()
	if err != nil {
		return err
	}
	_, g, err := exp.Problem(plant)
	if err != nil {
		return err
	}
	fmt.Println(viz.NewRenderer(viz.GetTheme(theme)).Description(g))
	return nil
}

func tuneGain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, nil, logger)
	plant, err := exp.Plant()
	if err != nil {
		return err
	}
	prob, _, err := exp.Problem(plant)
	if err != nil {
		return err
	}

	gs, err := optim.NewGridSearch([]string{"gain"}, [][]float64{gains})
	if err != nil {
		return err
	}
	gs.SetLogger(logger)

	fmt.Printf("tuning %s/%s over %d gains...\n", cfg.Model, cfg.Controller, len(gains))
	res, err := gs.Search(ctx, exp.Builder(), prob)
	if res != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "GAIN\tCOST\tSTATUS")
		for _, p := range res.Points {
			status := "ok"
			if p.Err != nil {
				status = p.Err.Error()
			}
			fmt.Fprintf(w, "%g\t%.6g\t%s\n", p.Params["gain"], p.Cost, status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nbest gain: %g (cost %.6g)\n", res.Best["gain"], res.BestCost)
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runID := args[0]
	cfg, traj, err := loadRun(cmd, runID)
	if err != nil {
		return err
	}
	if traj.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	res, err := experiment.New(cfg, nil, logger).Evaluate(ctx, traj)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("model: %s\n", cfg.Model)
	fmt.Printf("samples: %d\n\n", traj.Len())

	names := res.Plant.ControlNames()
	for i, name := range names {
		data := make([]float64, traj.Len())
		for j, n := range traj.Nodes {
			data[j] = n.U[i]
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		))
		fmt.Println()
	}

	t := res.Breakdown.Terms[0]
	fmt.Println(asciigraph.Plot(t.Integrand,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s integrand (integral %.6g)", t.Name, t.Integral)),
	))
	return nil
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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tCTRL\tGOAL\tCOST")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%s\t%s\t%.6g\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Controller,
			run.Goal.Name,
			run.Total,
		)
	}
	return w.Flush()
}

func showHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ledger, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer ledger.Close()

	hist, err := ledger.History(ctx, args[0])
	if err != nil {
		return err
	}
	if len(hist) == 0 {
		fmt.Println("no evaluations recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tGOAL\tEXP\tNORM\tWEIGHTS\tINTEGRAL\tCOST")
	for _, e := range hist {
		fmt.Fprintf(w, "%s\t%s\t%g\t%t\t%s\t%.6g\t%.6g\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Goal.Name,
			e.Goal.Exponent,
			e.Goal.DivideByDisplacement,
			formatWeights(e.Goal.Weights),
			e.Integral,
			e.Cost,
		)
	}
	return w.Flush()
}

func formatWeights(ws []goal.Weight) string {
	if len(ws) == 0 {
		return "-"
	}
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = fmt.Sprintf("%s=%g", w.Name, w.Weight)
	}
	return strings.Join(parts, ",")
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := experiment.NewRegistry().ListModels()
	if len(args) == 1 {
		models = args
	}
	for _, m := range models {
		names := config.ListPresets(m)
		if len(names) == 0 {
			fmt.Printf("%s: no presets\n", m)
			continue
		}
		fmt.Printf("%s: %s\n", m, strings.Join(names, ", "))
	}
	return nil
}

func runTuner(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	exp := experiment.New(cfg, nil, logger)
	plant, err := exp.Plant()
	if err != nil {
		return err
	}
	traj, err := exp.Simulate(ctx, plant)
	if err != nil {
		return err
	}
	rule, err := integrators.ParseRule(cfg.Quadrature)
	if err != nil {
		return err
	}

	g, err := tui.Run(plant, traj, tui.Settings{
		Name:                 cfg.Goal.Name,
		Exponent:             cfg.Goal.Exponent,
		DivideByDisplacement: cfg.Goal.DivideByDisplacement,
		Weights:              cfg.Goal.Weights,
		Rule:                 rule,
		Theme:                theme,
	})
	if err != nil {
		return err
	}

	fmt.Println("final weights:")
	for _, w := range g.Weights().Entries() {
		fmt.Printf("  --weight %s=%g\n", w.Name, w.Weight)
	}
	fmt.Printf("  --exponent %g\n", g.Exponent())
	if g.DivideByDisplacement() {
		fmt.Println("  --normalize")
	}
	return nil
}
