package training

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"heatsink/correction"
	"heatsink/thermal"
)

// 合成数据采样范围
const (
	DieMin      = 0.03
	DieMax      = 0.06
	TDPMin      = 50.0
	TDPMax      = 200.0
	FinsMin     = 20
	FinsMax     = 80 // exclusive
	VelocityMin = 0.5
	VelocityMax = 4.0
	BiasMax     = 5.0

	// StdEpsilon keeps constant features from dividing by zero.
	StdEpsilon = 1e-8
)

type Dataset struct {
	X []correction.Features
	Y []float64
}

func (d *Dataset) Len() int { return len(d.Y) }

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// Generate draws n synthetic samples. The physical solve only has to succeed;
// the target is an independent random bias, negated.
func Generate(rng *rand.Rand, n int) (*Dataset, error) {
	ds := &Dataset{
		X: make([]correction.Features, 0, n),
		Y: make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		p := thermal.DefaultProcessor()
		p.DieLength = uniform(rng, DieMin, DieMax)
		p.DieWidth = uniform(rng, DieMin, DieMax)
		p.TDP = uniform(rng, TDPMin, TDPMax)
		hs := thermal.DefaultHeatSink()
		hs.FinCount = FinsMin + rng.Intn(FinsMax-FinsMin)
		air := thermal.DefaultAir()
		air.Velocity = uniform(rng, VelocityMin, VelocityMax)
		m := thermal.DefaultMaterial()

		if _, err := thermal.Solve(p, hs, m, air); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		bias := uniform(rng, -BiasMax, BiasMax)
		ds.X = append(ds.X, thermal.Features(p, hs, m, air))
		ds.Y = append(ds.Y, -bias)
	}
	return ds, nil
}

// Stats returns per-feature population mean and std, std floored by StdEpsilon.
func Stats(ds *Dataset) (mean, std correction.Features) {
	col := make([]float64, ds.Len())
	for j := 0; j < thermal.FeatureCount; j++ {
		for i, x := range ds.X {
			col[i] = x[j]
		}
		mean[j], std[j] = stat.PopMeanStdDev(col, nil)
		std[j] += StdEpsilon
	}
	return mean, std
}
