package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/san-kum/massflow/internal/config"
	"github.com/san-kum/massflow/internal/massmap"
	"github.com/san-kum/massflow/internal/render"
	"github.com/san-kum/massflow/internal/sim"
	"github.com/san-kum/massflow/internal/storage"
	"github.com/san-kum/massflow/internal/tui"
	"github.com/san-kum/massflow/internal/viz"
)

var (
	logLevel string
	logJSON  bool

	frames     int
	factor     int
	resolution int
	seed       int64
	palette    string
	videoPath  string
	plain      bool
	preset     string
	logEvery   int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, viz.Error(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "massflow [config]",
		Short:         "advect a mass distribution through a noise flow field",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runRender(cmd, args)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	addRunFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "render frames from a config file",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	addRunFlags(runCmd)

	checkCmd := &cobra.Command{
		Use:   "check [config]",
		Short: "validate a config file",
		Args:  cobra.ExactArgs(1),
		RunE:  checkConfig,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a starter config file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from a preset")

	statsCmd := &cobra.Command{
		Use:   "stats [output-dir]",
		Short: "show mass statistics of a finished run",
		Args:  cobra.ExactArgs(1),
		RunE:  showStats,
	}

	rootCmd.AddCommand(runCmd, checkCmd, presetsCmd, initCmd, statsCmd)
	return rootCmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of frames")
	cmd.Flags().IntVar(&factor, "factor", config.DefaultFactor, "advection steps per frame")
	cmd.Flags().IntVar(&resolution, "resolution", config.DefaultResolution, "target resolution (480|720|1080|1440|2160)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().StringVar(&palette, "palette", "", "color palette ("+strings.Join(render.Palettes(), "|")+")")
	cmd.Flags().StringVar(&videoPath, "video", "", "also write an MJPEG AVI to this path")
	cmd.Flags().BoolVar(&plain, "plain", false, "log progress instead of the progress view")
	cmd.Flags().StringVar(&preset, "preset", "", "apply a preset over the config file")
	cmd.Flags().IntVar(&logEvery, "log-every", 10, "frames between progress log lines in plain mode")
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if logJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

// loadConfig reads path, then applies --preset, then explicit flags.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Apply(p)
	}

	if cmd.Flags().Changed("frames") {
		cfg.FramesNumber = frames
	}
	if cmd.Flags().Changed("factor") {
		cfg.SimulationFactor = factor
	}
	if cmd.Flags().Changed("resolution") {
		cfg.TargetResolution = resolution
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("palette") {
		cfg.Palette = palette
	}
	if cmd.Flags().Changed("video") {
		cfg.Video.Path = videoPath
	}
	return cfg, nil
}

func buildSink(cfg *config.Config) (render.Sink, error) {
	pal, err := render.Palette(cfg.Palette)
	if err != nil {
		return nil, err
	}
	dims := cfg.Dims()

	seq := render.NewPNGSequence(cfg.OutputDirectoryPath, dims, cfg.Tone, pal)
	if cfg.Video.Path == "" {
		return seq, nil
	}

	video, err := render.NewVideo(cfg.Video.Path, dims, cfg.Video.FPS, cfg.Video.Quality, cfg.Tone, pal)
	if err != nil {
		return nil, err
	}
	return render.MultiSink{seq, video}, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	initial, err := massmap.Load(cfg.MassDistrFilePath, cfg.Dims())
	if err != nil {
		return err
	}

	sink, err := buildSink(cfg)
	if err != nil {
		return err
	}

	runner, err := sim.New(cfg, initial, sink)
	if err != nil {
		return errors.Join(err, sink.Close())
	}
	runner.SetLogger(logger)

	st := storage.New(cfg.OutputDirectoryPath)
	stats, err := st.NewStatsWriter()
	if err != nil {
		return errors.Join(err, sink.Close())
	}
	runner.AddObserver(sim.ObserverFunc(func(ev sim.FrameEvent) error {
		return stats.Write(ev.Stats)
	}))

	policy := runner.Policy()
	fmt.Println(viz.Summary(cfg, policy.Name(), runner.Seed(), policy.Offsets().Array()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	started := time.Now()
	var res *sim.Result
	if !plain && isatty.IsTerminal(os.Stdout.Fd()) {
		res, err = tui.Run(ctx, runner)
	} else {
		runner.AddObserver(sim.LogObserver(logger, logEvery))
		res, err = runner.Run(ctx)
	}

	runErr := errors.Join(err, sink.Close(), stats.Close())
	if res != nil {
		meta := storage.RunMetadata{
			ID:              storage.NewRunID(started),
			Timestamp:       started,
			Seed:            res.Seed,
			Offsets:         res.Offsets.Array(),
			Policy:          res.Policy,
			Frames:          res.Frames,
			Steps:           res.Steps,
			Width:           runner.Dims().W,
			Height:          runner.Dims().H,
			ElapsedSec:      res.Elapsed.Seconds(),
			DegenerateFlow:  res.DegenerateFlow,
			NonFiniteFrames: res.NonFiniteFrames,
			MassDrift:       res.MassDrift,
			PeakMassDrift:   res.PeakMassDrift,
			Config:          cfg,
		}
		if err := st.SaveMetadata(meta); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) && res != nil {
			logger.Warn("run cancelled", "frames", res.Frames)
		}
		return runErr
	}

	if res.NonFiniteFrames > 0 {
		fmt.Println(viz.Warn(fmt.Sprintf("%d frames held NaN or infinite density", res.NonFiniteFrames)))
	}
	if res.DegenerateFlow > 0 {
		fmt.Println(viz.Warn(fmt.Sprintf("%d flow fields were flat and left unnormalized", res.DegenerateFlow)))
	}
	fmt.Println(viz.Success(fmt.Sprintf("rendered %d frames (%d steps) in %v, mass drift %.4f%% (peak %.4f%%)",
		res.Frames, res.Steps, res.Elapsed.Round(time.Millisecond), res.MassDrift*100, res.PeakMassDrift*100)))
	return nil
}

func checkConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	policy := "static"
	if cfg.DynamizeFlowField {
		policy = "dynamic"
	}
	fmt.Println(viz.Summary(cfg, policy, cfg.Seed, [3]float64{}))
	fmt.Println(viz.Success(args[0] + " is valid"))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRESOLUTION\tFRAMES\tFACTOR\tSCALE\tFLOW\tPALETTE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		flow := "static"
		if p.DynamizeFlowField {
			flow = "dynamic"
		}
		if p.RandomizeFlowField {
			flow += "+random"
		}
		pal := p.Palette
		if pal == "" {
			pal = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%g\t%s\t%s\n",
			name, p.TargetResolution, p.FramesNumber, p.SimulationFactor, p.FlowFieldScale, flow, pal)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	cfg.MassDistrFilePath = "mass.png"
	cfg.OutputDirectoryPath = "frames"

	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Println(viz.Success("wrote " + args[0]))
	return nil
}

func showStats(cmd *cobra.Command, args []string) error {
	st := storage.New(args[0])
	meta, err := st.LoadMetadata()
	if err != nil {
		return err
	}
	stats, err := st.LoadStats()
	if err != nil {
		return err
	}

	rows := []string{
		viz.Title.Render(meta.ID),
		"",
		viz.Row("started", meta.Timestamp.Format(time.RFC3339)),
		viz.Row("grid", fmt.Sprintf("%dx%d", meta.Width, meta.Height)),
		viz.Row("frames", fmt.Sprintf("%d (%d steps)", meta.Frames, meta.Steps)),
		viz.Row("flow", meta.Policy),
		viz.Row("seed", fmt.Sprintf("%d", meta.Seed)),
		viz.Row("elapsed", fmt.Sprintf("%.2fs", meta.ElapsedSec)),
	}
	if len(stats) > 0 {
		first, last := stats[0], stats[len(stats)-1]
		rows = append(rows, viz.Row("mass", fmt.Sprintf("%.2f -> %.2f", first.TotalMass, last.TotalMass)))
	}
	rows = append(rows,
		viz.Row("drift", fmt.Sprintf("%.4f%% (peak %.4f%%)", meta.MassDrift*100, meta.PeakMassDrift*100)),
	)
	if meta.NonFiniteFrames > 0 {
		rows = append(rows, viz.Row("non-finite", fmt.Sprintf("%d frames", meta.NonFiniteFrames)))
	}
	fmt.Println(viz.Panel.Render(strings.Join(rows, "\n")))
	fmt.Println()
	fmt.Println(viz.MassPlot(stats, 80, 12))
	return nil
}
