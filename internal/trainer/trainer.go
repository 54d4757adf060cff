// Package trainer drives a swarm through a sample-by-sample training run:
// it draws points from the domain, observes a (possibly noisy) target,
// calls Update and reports the batch mean squared error.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/gridswarm/internal/monitoring"
	"github.com/banshee-data/gridswarm/internal/swarm"
	"github.com/banshee-data/gridswarm/internal/timeutil"
)

// Predictor answers queries without mutating state.
type Predictor interface {
	Predict(x []float64) float64
}

// Model is a Predictor that can also learn from one example at a time.
// *swarm.Swarm satisfies it.
type Model interface {
	Predictor
	Update(x []float64, target float64) float64
}

// Recorder receives each completed batch. Returning an error aborts the run.
type Recorder interface {
	RecordBatch(ctx context.Context, r BatchResult) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, r BatchResult) error

// RecordBatch calls f.
func (f RecorderFunc) RecordBatch(ctx context.Context, r BatchResult) error { return f(ctx, r) }

// Options configures a training run.
type Options struct {
	BatchSize   int     // samples per batch (default: 100)
	Batches     int     // number of batches (default: 100)
	NoiseStdDev float64 // Gaussian noise added to observed targets (default: 0)
	Seed        uint64  // seeds the sampler and noise streams

	Clock     timeutil.Clock // defaults to RealClock
	Recorders []Recorder
}

// BatchResult summarises one batch of training.
type BatchResult struct {
	Batch   int           // 1-based
	Samples int           // cumulative samples seen after this batch
	MSE     float64       // mean of (Predict(x) - observed)^2 just after each Update
	Elapsed time.Duration // wall time for this batch
}

// Summary is the outcome of Run.
type Summary struct {
	Batches  []BatchResult
	Samples  int
	Elapsed  time.Duration
	FinalMSE float64
}

// Trainer owns the random streams for one run. It is single-use per Run
// call and not safe for concurrent use.
type Trainer struct {
	model   Model
	target  Target
	sampler *Sampler
	noise   *distuv.Normal
	opts    Options
}

// New validates opts and prepares the sampler and noise streams.
func New(model Model, limits []swarm.Limit, target Target, opts Options) (*Trainer, error) {
	if model == nil {
		return nil, errors.New("trainer: model is required")
	}
	if target == nil {
		return nil, errors.New("trainer: target is required")
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = 100
	}
	if opts.Batches == 0 {
		opts.Batches = 100
	}
	if opts.BatchSize < 0 || opts.Batches < 0 {
		return nil, fmt.Errorf("trainer: batch size and batch count must be positive, got %d and %d", opts.BatchSize, opts.Batches)
	}
	if opts.NoiseStdDev < 0 {
		return nil, fmt.Errorf("trainer: noise stddev must be non-negative, got %f", opts.NoiseStdDev)
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	src := rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	sampler, err := NewSampler(limits, src)
	if err != nil {
		return nil, err
	}

	tr := &Trainer{
		model:   model,
		target:  target,
		sampler: sampler,
		opts:    opts,
	}
	if opts.NoiseStdDev > 0 {
		tr.noise = &distuv.Normal{Mu: 0, Sigma: opts.NoiseStdDev, Src: src}
	}
	return tr, nil
}

// Sampler returns the domain sampler used by this trainer.
func (tr *Trainer) Sampler() *Sampler { return tr.sampler }

// Run executes every batch, stopping early if ctx is cancelled between
// batches or a recorder fails. The partial summary is returned with the error.
func (tr *Trainer) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	start := tr.opts.Clock.Now()
	monitoring.Opsf("training started: batches=%d batch_size=%d noise=%g", tr.opts.Batches, tr.opts.BatchSize, tr.opts.NoiseStdDev)

	sqErr := make([]float64, tr.opts.BatchSize)
	x := make([]float64, tr.sampler.NumDims())
	trace := monitoring.TraceEnabled()

	for b := 1; b <= tr.opts.Batches; b++ {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = tr.opts.Clock.Since(start)
			return sum, fmt.Errorf("training cancelled after %d batches: %w", b-1, err)
		}

		batchStart := tr.opts.Clock.Now()
		for i := range sqErr {
			tr.sampler.SampleInto(x)
			observed := tr.target(x)
			if tr.noise != nil {
				observed += tr.noise.Rand()
			}
			tr.model.Update(x, observed)
			d := tr.model.Predict(x) - observed
			sqErr[i] = d * d
			if trace {
				monitoring.Tracef("batch=%d sample=%d x=%v observed=%.6f sq_err=%.6f", b, i, x, observed, sqErr[i])
			}
		}
		sum.Samples += len(sqErr)

		res := BatchResult{
			Batch:   b,
			Samples: sum.Samples,
			MSE:     stat.Mean(sqErr, nil),
			Elapsed: tr.opts.Clock.Since(batchStart),
		}
		sum.Batches = append(sum.Batches, res)
		sum.FinalMSE = res.MSE
		monitoring.Diagf("samples: %d batch_mse: %.6f", res.Samples, res.MSE)

		for _, rec := range tr.opts.Recorders {
			if err := rec.RecordBatch(ctx, res); err != nil {
				sum.Elapsed = tr.opts.Clock.Since(start)
				return sum, fmt.Errorf("record batch %d: %w", b, err)
			}
		}
	}

	sum.Elapsed = tr.opts.Clock.Since(start)
	monitoring.Opsf("training finished: samples=%d final_batch_mse=%.6f elapsed=%v", sum.Samples, sum.FinalMSE, sum.Elapsed)
	return sum, nil
}

// Evaluate returns the noiseless mean squared error of p against target over
// n points drawn from sampler. It never mutates p.
func Evaluate(p Predictor, target Target, sampler *Sampler, n int) float64 {
	if n <= 0 {
		return 0
	}
	sqErr := make([]float64, n)
	x := make([]float64, sampler.NumDims())
	for i := range sqErr {
		sampler.SampleInto(x)
		d := p.Predict(x) - target(x)
		sqErr[i] = d * d
	}
	return stat.Mean(sqErr, nil)
}
