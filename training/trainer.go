package training

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"heatsink/correction"
	"heatsink/thermal"
)

type Options struct {
	Samples      int
	Iterations   int
	LearningRate float64
	Seed         int64
	LogEvery     int
	Checkpoint   string // 为空则不落盘
}

func DefaultOptions() Options {
	return Options{
		Samples:      2000,
		Iterations:   2000,
		LearningRate: 1e-3,
		Seed:         42,
		LogEvery:     200,
	}
}

func (o Options) Validate() error {
	if o.Samples < 2 {
		return fmt.Errorf("samples must be at least 2, got %d", o.Samples)
	}
	if o.Iterations < 1 {
		return fmt.Errorf("iterations must be positive, got %d", o.Iterations)
	}
	if !(o.LearningRate > 0) || math.IsInf(o.LearningRate, 0) {
		return fmt.Errorf("learning rate must be positive, got %g", o.LearningRate)
	}
	return nil
}

type Report struct {
	Model       *correction.Model
	Losses      []float64 // loss before each optimizer step
	InitialLoss float64
	FinalLoss   float64 // loss after the last step
	Started     time.Time
	Duration    time.Duration
}

// forward keeps every activation for backprop; acts[0] is the input batch.
type forward struct {
	acts   []*mat.Dense
	logits *mat.Dense
	out    []float64
}

func runForward(net *correction.Network, x *mat.Dense) *forward {
	f := &forward{acts: []*mat.Dense{x}}
	a := x
	for i, l := range net.Layers {
		var z mat.Dense
		z.Mul(a, l.W.T())
		b := l.B.RawVector().Data
		if i < len(net.Layers)-1 {
			z.Apply(func(_, j int, v float64) float64 { return math.Tanh(v + b[j]) }, &z)
			f.acts = append(f.acts, &z)
			a = &z
			continue
		}
		z.Apply(func(_, j int, v float64) float64 { return v + b[j] }, &z)
		f.logits = &z
	}
	n, _ := f.logits.Dims()
	f.out = make([]float64, n)
	for i := range f.out {
		f.out[i] = correction.Scale * math.Tanh(f.logits.At(i, 0))
	}
	return f
}

func mse(out, y []float64) float64 {
	diff := make([]float64, len(out))
	floats.SubTo(diff, out, y)
	return floats.Dot(diff, diff) / float64(len(out))
}

// backward returns gradients laid out like params(net).
func backward(net *correction.Network, f *forward, y []float64) [][]float64 {
	n := len(y)
	dz := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		t := math.Tanh(f.logits.At(i, 0))
		dz.Set(i, 0, 2*(f.out[i]-y[i])/float64(n)*correction.Scale*(1-t*t))
	}

	grads := make([][]float64, 2*len(net.Layers))
	for l := len(net.Layers) - 1; l >= 0; l-- {
		layer := net.Layers[l]
		var dw mat.Dense
		dw.Mul(dz.T(), f.acts[l])
		grads[2*l] = dw.RawMatrix().Data

		_, out := dz.Dims()
		db := make([]float64, out)
		for j := 0; j < out; j++ {
			db[j] = floats.Sum(mat.Col(nil, j, dz))
		}
		grads[2*l+1] = db

		if l == 0 {
			break
		}
		var da mat.Dense
		da.Mul(dz, layer.W)
		prev := f.acts[l]
		da.Apply(func(i, j int, v float64) float64 {
			a := prev.At(i, j)
			return v * (1 - a*a)
		}, &da)
		dz = &da
	}
	return grads
}

func params(net *correction.Network) [][]float64 {
	ps := make([][]float64, 0, 2*len(net.Layers))
	for _, l := range net.Layers {
		ps = append(ps, l.W.RawMatrix().Data, l.B.RawVector().Data)
	}
	return ps
}

func normalized(ds *Dataset, mean, std correction.Features) *mat.Dense {
	x := mat.NewDense(ds.Len(), thermal.FeatureCount, nil)
	for i, row := range ds.X {
		for j, v := range row {
			x.Set(i, j, (v-mean[j])/std[j])
		}
	}
	return x
}

// Train generates the synthetic set, fits the correction network with
// full-batch Adam and optionally writes the checkpoint.
func Train(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	rng := rand.New(rand.NewSource(opts.Seed))

	ds, err := Generate(rng, opts.Samples)
	if err != nil {
		return nil, fmt.Errorf("generate dataset: %w", err)
	}
	mean, std := Stats(ds)
	x := normalized(ds, mean, std)

	net := correction.NewNetwork(rng)
	ps := params(net)
	opt := newAdam(opts.LearningRate, ps)

	log.WithFields(log.Fields{
		"samples":    opts.Samples,
		"iterations": opts.Iterations,
		"lr":         opts.LearningRate,
		"seed":       opts.Seed,
	}).Info("开始训练修正模型")

	losses := make([]float64, 0, opts.Iterations)
	for it := 0; it < opts.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := runForward(net, x)
		loss := mse(f.out, ds.Y)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return nil, fmt.Errorf("loss diverged at iteration %d", it)
		}
		losses = append(losses, loss)
		if opts.LogEvery > 0 && it%opts.LogEvery == 0 {
			log.WithFields(log.Fields{"iteration": it, "loss": loss}).Info("训练进度")
		}
		opt.update(ps, backward(net, f, ds.Y))
	}
	final := mse(runForward(net, x).out, ds.Y)

	model, err := correction.New(net, mean, std)
	if err != nil {
		return nil, err
	}
	if opts.Checkpoint != "" {
		if err := correction.Save(opts.Checkpoint, model); err != nil {
			return nil, err
		}
	}

	r := &Report{
		Model:       model,
		Losses:      losses,
		InitialLoss: losses[0],
		FinalLoss:   final,
		Started:     started,
		Duration:    time.Since(started),
	}
	log.WithFields(log.Fields{
		"initial_loss": r.InitialLoss,
		"final_loss":   r.FinalLoss,
		"cost":         r.Duration,
	}).Info("训练完成")
	return r, nil
}
