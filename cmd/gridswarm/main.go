// Command gridswarm trains a grid swarm on a synthetic target, printing
// per-batch convergence, and optionally records the run in SQLite and
// renders the learned surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/banshee-data/gridswarm/internal/config"
	"github.com/banshee-data/gridswarm/internal/fsutil"
	"github.com/banshee-data/gridswarm/internal/monitoring"
	"github.com/banshee-data/gridswarm/internal/runstore"
	"github.com/banshee-data/gridswarm/internal/surface"
	"github.com/banshee-data/gridswarm/internal/swarm"
	"github.com/banshee-data/gridswarm/internal/timeutil"
	"github.com/banshee-data/gridswarm/internal/trainer"
	"github.com/banshee-data/gridswarm/internal/version"
)

// options mirrors the command-line flags. Zero or negative numeric values
// mean "use the tuning config".
type options struct {
	ConfigPath string
	DBPath     string
	OutDir     string
	Target     string
	Batches    int
	BatchSize  int
	Seed       int64
	Resolution int
	Debug      bool
	Trace      bool
}

// evalPoints is the number of fresh samples scored after training.
const evalPoints = 1000

// env holds the process-level dependencies run needs.
type env struct {
	stdout io.Writer
	stderr io.Writer
	fsys   fsutil.FileSystem
	clock  timeutil.Clock
}

func main() {
	var o options
	flag.StringVar(&o.ConfigPath, "config", "", "Path to tuning JSON (default: built-in defaults)")
	flag.StringVar(&o.DBPath, "db", "", "SQLite file for run history (empty disables recording)")
	flag.StringVar(&o.OutDir, "out", "", "Directory for plots (empty disables plotting)")
	flag.StringVar(&o.Target, "target", "sincos", "Target function: "+strings.Join(targetNames(), ", "))
	flag.IntVar(&o.Batches, "batches", 0, "Number of batches (overrides config)")
	flag.IntVar(&o.BatchSize, "batch-size", 0, "Samples per batch (overrides config)")
	flag.Int64Var(&o.Seed, "seed", -1, "Random seed (overrides config)")
	flag.IntVar(&o.Resolution, "resolution", 0, "Plot mesh resolution per axis (overrides config)")
	flag.BoolVar(&o.Debug, "debug", false, "Log per-batch diagnostics to stderr")
	flag.BoolVar(&o.Trace, "trace", false, "Log every training sample to stderr")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := env{stdout: os.Stdout, stderr: os.Stderr, fsys: fsutil.OSFileSystem{}, clock: timeutil.RealClock{}}
	if err := run(ctx, o, e); err != nil {
		log.Fatalf("gridswarm: %v", err)
	}
}

func targetNames() []string {
	names := make([]string, 0, len(trainer.Targets))
	for name := range trainer.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadConfig(o options) (*config.TuningConfig, error) {
	cfg := config.DefaultTuningConfig()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(o.ConfigPath); err != nil {
			return nil, err
		}
	}
	if o.Batches > 0 {
		cfg.Batches = &o.Batches
	}
	if o.BatchSize > 0 {
		cfg.BatchSize = &o.BatchSize
	}
	if o.Seed >= 0 {
		seed := uint64(o.Seed)
		cfg.Seed = &seed
	}
	if o.Resolution > 0 {
		cfg.PlotResolution = &o.Resolution
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, o options, e env) (err error) {
	w := logWritersFor(o, e.stderr)
	monitoring.SetLogWriters(w)

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	target, ok := trainer.Targets[o.Target]
	if !ok {
		return fmt.Errorf("unknown target %q (want one of %s)", o.Target, strings.Join(targetNames(), ", "))
	}

	sc := swarm.ConfigFromTuning(cfg)
	model, err := sc.New()
	if err != nil {
		return err
	}
	monitoring.Opsf("swarm ready: dims=%v cells=%d alpha=%g rho=%g", model.Dims(), model.NumCells(), model.LearningRate(), model.Momentum())

	opts := trainer.Options{
		BatchSize:   cfg.GetBatchSize(),
		Batches:     cfg.GetBatches(),
		NoiseStdDev: cfg.GetNoiseStdDev(),
		Seed:        cfg.GetSeed(),
		Clock:       e.clock,
		Recorders: []trainer.Recorder{trainer.RecorderFunc(func(_ context.Context, b trainer.BatchResult) error {
			_, err := fmt.Fprintf(e.stdout, "samples: %d batch_mse: %f\n", b.Samples, b.MSE)
			return err
		})},
	}
	if opts.Batches == 0 {
		// The trainer reads 0 as "use the default".
		fmt.Fprintln(e.stdout, "no batches requested")
		return nil
	}

	var (
		store *runstore.Store
		runID string
	)
	if o.DBPath != "" {
		if store, err = runstore.Open(o.DBPath); err != nil {
			return err
		}
		defer store.Close()

		runID, err = store.CreateRun(ctx, runstore.Run{
			Dims:             model.Dims(),
			Limits:           model.Limits(),
			LearningRate:     model.LearningRate(),
			Momentum:         model.Momentum(),
			BatchSize:        opts.BatchSize,
			NoiseStdDev:      opts.NoiseStdDev,
			Seed:             opts.Seed,
			Version:          version.String(),
			StartedUnixNanos: e.clock.Now().UnixNano(),
		})
		if err != nil {
			return err
		}
		opts.Recorders = append(opts.Recorders, store.Recorder(runID))
		monitoring.Opsf("recording run %s to %s", runID, o.DBPath)
	}

	tr, err := trainer.New(model, sc.Limits, target, opts)
	if err != nil {
		return err
	}
	sum, runErr := tr.Run(ctx)
	fmt.Fprintf(e.stdout, "elapsed time: %v\n", sum.Elapsed)

	if runID != "" {
		// Use a fresh context so an interrupted run is still stamped.
		if err := store.FinishRun(context.WithoutCancel(ctx), runID, e.clock.Now().UnixNano(), sum.FinalMSE); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	// The trainer's sampler has moved past every training point.
	monitoring.Opsf("noiseless eval mse=%.6f over %d points", trainer.Evaluate(model, target, tr.Sampler(), evalPoints), evalPoints)

	if o.OutDir != "" {
		if model.NumDims() != 2 {
			monitoring.Opsf("skipping plots: surface rendering needs 2 axes, swarm has %d", model.NumDims())
			return nil
		}
		s, err := surface.Sample(model, sc.Limits, cfg.GetPlotResolution())
		if err != nil {
			return err
		}
		title := fmt.Sprintf("gridswarm %s %v", o.Target, model.Dims())
		if _, err := surface.WriteArtifacts(e.fsys, o.OutDir, title, s, sum.Batches); err != nil {
			return err
		}
	}
	return nil
}

// logWritersFor maps the -debug and -trace flags to monitoring streams.
// Ops always goes to stderr.
func logWritersFor(o options, stderr io.Writer) monitoring.LogWriters {
	w := monitoring.LogWriters{Ops: stderr}
	if o.Debug || o.Trace {
		w.Diag = stderr
	}
	if o.Trace {
		w.Trace = stderr
	}
	return w
}
