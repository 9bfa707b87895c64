package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/avelkov/asphersim/internal/analysis"
	"github.com/avelkov/asphersim/internal/atoms"
	"github.com/avelkov/asphersim/internal/bias"
	"github.com/avelkov/asphersim/internal/comm"
	"github.com/avelkov/asphersim/internal/config"
	"github.com/avelkov/asphersim/internal/engine"
	"github.com/avelkov/asphersim/internal/region"
	"github.com/avelkov/asphersim/internal/snapshot"
	"github.com/avelkov/asphersim/internal/storage"
	"github.com/avelkov/asphersim/internal/units"
	"github.com/avelkov/asphersim/internal/viz"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	dataDir  string
	workers  int
	group    string
	extraDOF int
	dynamic  bool
	// bias selection
	biasKind   string
	biasKeep   string
	regionKind string
	regionLo   []float64
	regionHi   []float64
	regionCtr  []float64
	regionRad  float64
	// gen parameters
	genN     int
	genSeed  int64
	genTemp  float64
	genSide  float64
	genUnits string
	genDim   int
	// thermostat parameters
	steps   int
	target  float64
	frac    float64
	saveRun bool
	// frame rate for live view
	frameRate int
	// config file and preset
	configFile string
	preset     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "asphersim",
		Short: "kinetic temperature of aspherical particle ensembles",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".asphersim", "data directory")

	genCmd := &cobra.Command{
		Use:   "gen [file]",
		Short: "generate a random snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  genSnapshot,
	}
	genCmd.Flags().IntVar(&genN, "n", config.DefaultN, "number of particles")
	genCmd.Flags().Int64Var(&genSeed, "seed", 1, "random seed")
	genCmd.Flags().Float64Var(&genTemp, "temp", config.DefaultTarget, "sampling temperature")
	genCmd.Flags().Float64Var(&genSide, "side", config.DefaultSide, "box side length")
	genCmd.Flags().StringVar(&genUnits, "units", config.DefaultUnits, "unit system")
	genCmd.Flags().IntVar(&genDim, "dim", config.DefaultDim, "dimensionality (2 or 3)")
	genCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	genCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	tempCmd := &cobra.Command{
		Use:   "temp [snapshot]",
		Short: "evaluate temperature and kinetic tensor",
		Args:  cobra.ExactArgs(1),
		RunE:  evalTemp,
	}
	addEvalFlags(tempCmd)

	seriesCmd := &cobra.Command{
		Use:   "series [snapshot]",
		Short: "run the rescaling thermostat and plot the series",
		Args:  cobra.ExactArgs(1),
		RunE:  runSeries,
	}
	addEvalFlags(seriesCmd)
	addThermostatFlags(seriesCmd)
	seriesCmd.Flags().BoolVar(&saveRun, "save", false, "save the run under the data directory")

	watchCmd := &cobra.Command{
		Use:   "watch [snapshot]",
		Short: "run the thermostat with a live view",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	addEvalFlags(watchCmd)
	addThermostatFlags(watchCmd)
	watchCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved temperature series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "statistics and spectrum of a saved series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	unitsCmd := &cobra.Command{
		Use:   "units",
		Short: "list supported unit systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBOLTZ\tMVV2E")
			for _, name := range units.Names() {
				u, err := units.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%g\t%g\n", u.Name, u.Boltz, u.Mvv2e)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(genCmd, tempCmd, seriesCmd, watchCmd, runsCmd, plotCmd, analyzeCmd, presetsCmd, unitsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEvalFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&workers, "workers", 1, "concurrent workers")
	cmd.Flags().StringVar(&group, "group", "all", "particle group")
	cmd.Flags().IntVar(&extraDOF, "extra-dof", 0, "extra degrees of freedom to subtract")
	cmd.Flags().BoolVar(&dynamic, "dynamic", false, "recount DOF on every evaluation")
	cmd.Flags().StringVar(&biasKind, "bias", "", "velocity bias: partial, com or region")
	cmd.Flags().StringVar(&biasKeep, "keep", "xyz", "thermal components kept by the partial bias")
	cmd.Flags().StringVar(&regionKind, "region", "block", "region shape: block or sphere")
	cmd.Flags().Float64SliceVar(&regionLo, "lo", []float64{0, 0, 0}, "block lower corner")
	cmd.Flags().Float64SliceVar(&regionHi, "hi", []float64{1, 1, 1}, "block upper corner")
	cmd.Flags().Float64SliceVar(&regionCtr, "center", []float64{0, 0, 0}, "sphere center")
	cmd.Flags().Float64Var(&regionRad, "radius", 1, "sphere radius")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

func addThermostatFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "thermostat steps")
	cmd.Flags().Float64Var(&target, "target", config.DefaultTarget, "target temperature")
	cmd.Flags().Float64Var(&frac, "frac", config.DefaultFrac, "fraction of the gap closed per step")
}

// loadConfig resolves preset, then config file, then explicit flags, the
// later overriding the earlier.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("workers") || cfg.Workers == 0 {
		cfg.Workers = workers
	}
	if flags.Changed("group") || cfg.Group == "" {
		cfg.Group = group
	}
	if flags.Changed("extra-dof") {
		cfg.ExtraDOF = extraDOF
	}
	if flags.Changed("dynamic") {
		cfg.Dynamic = dynamic
	}
	if flags.Changed("bias") {
		cfg.Bias.Kind = biasKind
	}
	if flags.Changed("keep") || cfg.Bias.Keep == "" {
		cfg.Bias.Keep = biasKeep
	}
	if flags.Changed("region") || cfg.Bias.Region == "" {
		cfg.Bias.Region = regionKind
	}
	if flags.Changed("lo") {
		cfg.Bias.Lo = toVec3(regionLo)
	}
	if flags.Changed("hi") {
		cfg.Bias.Hi = toVec3(regionHi)
	}
	if flags.Changed("center") {
		cfg.Bias.Center = toVec3(regionCtr)
	}
	if flags.Changed("radius") {
		cfg.Bias.Radius = regionRad
	}
	if flags.Changed("steps") {
		cfg.Rescale.Steps = steps
	}
	if flags.Changed("target") {
		cfg.Rescale.Target = target
	}
	if flags.Changed("frac") {
		cfg.Rescale.Frac = frac
	}
	return cfg, nil
}

func toVec3(v []float64) [3]float64 {
	var out [3]float64
	copy(out[:], v)
	return out
}

// makeBias converts the bias configuration into a per-worker factory.
// A nil factory means no bias.
func makeBias(bc config.BiasConfig) (engine.BiasFactory, error) {
	switch bc.Kind {
	case "":
		return nil, nil

	case "partial":
		keepX := strings.ContainsRune(bc.Keep, 'x')
		keepY := strings.ContainsRune(bc.Keep, 'y')
		keepZ := strings.ContainsRune(bc.Keep, 'z')
		return func(g atoms.Group, u units.System, dim int, red comm.Reducer) bias.Bias {
			return bias.NewPartial(g, u, dim, red, keepX, keepY, keepZ)
		}, nil

	case "com":
		return func(g atoms.Group, u units.System, dim int, red comm.Reducer) bias.Bias {
			return bias.NewCOM(g, u, dim, red)
		}, nil

	case "region":
		var reg region.Region
		switch bc.Region {
		case "block":
			reg = region.Block{
				Lo: r3.Vec{X: bc.Lo[0], Y: bc.Lo[1], Z: bc.Lo[2]},
				Hi: r3.Vec{X: bc.Hi[0], Y: bc.Hi[1], Z: bc.Hi[2]},
			}
		case "sphere":
			reg = region.Sphere{
				Center: r3.Vec{X: bc.Center[0], Y: bc.Center[1], Z: bc.Center[2]},
				Radius: bc.Radius,
			}
		default:
			return nil, fmt.Errorf("unknown region shape: %s", bc.Region)
		}
		return func(g atoms.Group, u units.System, dim int, red comm.Reducer) bias.Bias {
			return bias.NewRegion(g, u, dim, red, reg)
		}, nil

	default:
		return nil, fmt.Errorf("unknown bias kind: %s (partial, com or region)", bc.Kind)
	}
}

func evalOptions(cfg *config.Config) (engine.Options, error) {
	factory, err := makeBias(cfg.Bias)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Workers:  cfg.Workers,
		Group:    cfg.Group,
		Bias:     factory,
		ExtraDOF: cfg.ExtraDOF,
		Dynamic:  cfg.Dynamic,
	}, nil
}

func genSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("n") {
		cfg.Gen.N = genN
	}
	if flags.Changed("seed") {
		cfg.Gen.Seed = genSeed
	}
	if flags.Changed("temp") {
		cfg.Gen.Temp = genTemp
	}
	if flags.Changed("side") {
		cfg.Gen.Side = genSide
	}
	if flags.Changed("units") {
		cfg.Units = genUnits
	}
	if flags.Changed("dim") {
		cfg.Dim = genDim
	}

	u, err := units.Lookup(cfg.Units)
	if err != nil {
		return err
	}
	snap := snapshot.Random(cfg.Gen.N, cfg.Gen.Seed, cfg.Gen.Temp, cfg.Gen.Side, u, cfg.Dim)
	if err := snapshot.Save(args[0], snap); err != nil {
		return err
	}
	fmt.Printf("wrote %d particles to %s (units %s, dim %d)\n",
		cfg.Gen.N, args[0], cfg.Units, cfg.Dim)
	return nil
}

func evalTemp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	snap, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	opts, err := evalOptions(cfg)
	if err != nil {
		return err
	}

	res, err := engine.Evaluate(snap, opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "particles\t%d\n", res.Natoms)
	fmt.Fprintf(w, "workers\t%d\n", cfg.Workers)
	fmt.Fprintf(w, "dof\t%.0f\n", res.DOF)
	fmt.Fprintf(w, "tfactor\t%.6g\n", res.TFactor)
	fmt.Fprintf(w, "temp\t%.6f\n", res.Temp)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nkinetic tensor:")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	labels := []string{"xx", "yy", "zz", "xy", "xz", "yz"}
	for i, l := range labels {
		fmt.Fprintf(w, "%s\t%.6f\n", l, res.Tensor[i])
	}
	return w.Flush()
}

func runSeries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	snap, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	opts, err := evalOptions(cfg)
	if err != nil {
		return err
	}

	th, err := engine.NewThermostat(snap, opts, cfg.Rescale.Target, cfg.Rescale.Frac)
	if err != nil {
		return err
	}
	series, err := th.Run(cfg.Rescale.Steps)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data to plot")
	}

	graph := asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("temperature"),
	)
	fmt.Println(graph)
	fmt.Printf("\nfinal temp: %.6f (target %.6f, dof %.0f)\n",
		series[len(series)-1], cfg.Rescale.Target, th.DOF())

	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Snapshot: args[0],
			Units:    snap.Units,
			Dim:      snap.Dim,
			Target:   cfg.Rescale.Target,
			Frac:     cfg.Rescale.Frac,
			Bias:     cfg.Bias.Kind,
			DOF:      th.DOF(),
		}, series)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	snap, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	opts, err := evalOptions(cfg)
	if err != nil {
		return err
	}

	th, err := engine.NewThermostat(snap, opts, cfg.Rescale.Target, cfg.Rescale.Frac)
	if err != nil {
		return err
	}
	return viz.Run(th, cfg.Rescale.Target, cfg.Rescale.Steps, frameRate)
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
	fmt.Fprintln(w, "ID\tTIME\tSNAPSHOT\tUNITS\tSTEPS\tTARGET\tFINAL\tBIAS")
	for _, run := range runs {
		biasName := run.Bias
		if biasName == "" {
			biasName = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4f\t%.4f\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Snapshot,
			run.Units,
			run.Steps,
			run.Target,
			run.FinalTemp,
			biasName,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data to plot")
	}

	graph := asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("temperature"),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "samples\t%d\n", len(series))
	fmt.Fprintf(w, "mean\t%.6f\n", analysis.Mean(series))
	fmt.Fprintf(w, "stddev\t%.6f\n", analysis.StdDev(series))
	fmt.Fprintf(w, "drift\t%.6g\n", analysis.Drift(series))
	if period := analysis.DominantPeriod(series); period > 0 {
		fmt.Fprintf(w, "period\t%.1f steps\n", period)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ps := analysis.PowerSpectrum(series)
	if len(ps) > 4 {
		fmt.Println()
		graph := asciigraph.Plot(ps[:len(ps)/2],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum"),
		)
		fmt.Println(graph)
	}
	return nil
}
