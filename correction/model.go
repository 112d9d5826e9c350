package correction

import (
	"errors"
	"fmt"
	"math"

	"heatsink/thermal"
)

const (
	// Scale 修正量的物理上限, ℃
	Scale = 20.0
	// MaxLogit keeps Scale*tanh(logit) strictly below Scale in float64.
	MaxLogit = 18.0
)

var ErrModelLoad = errors.New("correction: model load failed")

type Features = [thermal.FeatureCount]float64

// Model is immutable after construction and safe for concurrent Predict calls.
type Model struct {
	net  *Network
	mean Features
	std  Features
}

func New(net *Network, mean, std Features) (*Model, error) {
	if net == nil {
		return nil, fmt.Errorf("%w: nil network", ErrModelLoad)
	}
	if err := net.checkShape(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	for i := 0; i < thermal.FeatureCount; i++ {
		if !isFinite(mean[i]) {
			return nil, fmt.Errorf("%w: mean[%s] is %v", ErrModelLoad, thermal.FeatureNames[i], mean[i])
		}
		if !isFinite(std[i]) || std[i] == 0 {
			return nil, fmt.Errorf("%w: std[%s] is %v", ErrModelLoad, thermal.FeatureNames[i], std[i])
		}
	}
	if b := net.outputBound(); b > MaxLogit {
		return nil, fmt.Errorf("%w: output layer bound %g exceeds %g", ErrModelLoad, b, MaxLogit)
	}
	return &Model{net: net, mean: mean, std: std}, nil
}

func (m *Model) Mean() Features { return m.mean }
func (m *Model) Std() Features  { return m.std }

func (m *Model) Normalize(x Features) (Features, error) {
	var out Features
	for i, v := range x {
		if !isFinite(v) {
			return out, &thermal.Error{Kind: thermal.InvalidInput, Op: "predict",
				Err: fmt.Errorf("feature %s is not finite: %v", thermal.FeatureNames[i], v)}
		}
		out[i] = (v - m.mean[i]) / m.std[i]
		if !isFinite(out[i]) {
			return out, &thermal.Error{Kind: thermal.InvalidInput, Op: "predict",
				Err: fmt.Errorf("feature %s overflows after normalization", thermal.FeatureNames[i])}
		}
	}
	return out, nil
}

// Predict returns the temperature correction in ℃, always inside (-Scale, Scale).
func (m *Model) Predict(x Features) (float64, error) {
	xn, err := m.Normalize(x)
	if err != nil {
		return 0, err
	}
	return Scale * math.Tanh(m.net.Logit(xn[:])), nil
}

type Corrected struct {
	Physical  float64
	Corrected float64
	Delta     float64
}

func Correct(physical, delta float64) Corrected {
	return Corrected{
		Physical:  physical,
		Corrected: physical + delta,
		Delta:     delta,
	}
}

// Apply solves the physics network and adds the learned residual.
func (m *Model) Apply(p thermal.Processor, hs thermal.HeatSink, material thermal.Material, air thermal.Air) (Corrected, thermal.Result, error) {
	res, err := thermal.Solve(p, hs, material, air)
	if err != nil {
		return Corrected{}, thermal.Result{}, err
	}
	delta, err := m.Predict(thermal.Features(p, hs, material, air))
	if err != nil {
		return Corrected{}, thermal.Result{}, err
	}
	return Correct(res.Physical, delta), res, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
