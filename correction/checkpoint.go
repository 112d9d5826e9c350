package correction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"heatsink/thermal"
)

// Checkpoint is the on-disk form: parameters plus normalization statistics.
type Checkpoint struct {
	Layers []CheckpointLayer `json:"layers"`
	Mean   []float64         `json:"mean"`
	Std    []float64         `json:"std"`
}

type CheckpointLayer struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

func (m *Model) Checkpoint() Checkpoint {
	ck := Checkpoint{
		Layers: make([]CheckpointLayer, len(m.net.Layers)),
		Mean:   append([]float64(nil), m.mean[:]...),
		Std:    append([]float64(nil), m.std[:]...),
	}
	for i, l := range m.net.Layers {
		r, _ := l.W.Dims()
		rows := make([][]float64, r)
		for j := 0; j < r; j++ {
			rows[j] = mat.Row(nil, j, l.W)
		}
		ck.Layers[i] = CheckpointLayer{
			Weight: rows,
			Bias:   append([]float64(nil), l.B.RawVector().Data...),
		}
	}
	return ck
}

// FromCheckpoint validates ck against the 7-feature layout.
func FromCheckpoint(ck Checkpoint) (*Model, error) {
	if len(ck.Mean) != thermal.FeatureCount || len(ck.Std) != thermal.FeatureCount {
		return nil, fmt.Errorf("%w: normalization vectors have %d/%d entries, want %d",
			ErrModelLoad, len(ck.Mean), len(ck.Std), thermal.FeatureCount)
	}
	net := &Network{Layers: make([]Layer, len(ck.Layers))}
	for i, l := range ck.Layers {
		if len(l.Weight) == 0 || len(l.Bias) != len(l.Weight) {
			return nil, fmt.Errorf("%w: layer %d has %d weight rows and %d biases",
				ErrModelLoad, i, len(l.Weight), len(l.Bias))
		}
		cols := len(l.Weight[0])
		data := make([]float64, 0, len(l.Weight)*cols)
		for j, row := range l.Weight {
			if len(row) != cols || cols == 0 {
				return nil, fmt.Errorf("%w: layer %d row %d has %d columns, want %d",
					ErrModelLoad, i, j, len(row), cols)
			}
			data = append(data, row...)
		}
		net.Layers[i] = Layer{
			W: mat.NewDense(len(l.Weight), cols, data),
			B: mat.NewVecDense(len(l.Bias), append([]float64(nil), l.Bias...)),
		}
	}
	var mean, std Features
	copy(mean[:], ck.Mean)
	copy(std[:], ck.Std)
	return New(net, mean, std)
}

func Save(path string, m *Model) error {
	data, err := json.Marshal(m.Checkpoint())
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	log.WithFields(log.Fields{"path": path, "bytes": len(data)}).Info("保存修正模型")
	return nil
}

// Load reads a checkpoint written by Save. Every failure wraps ErrModelLoad.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	var ck Checkpoint
	if err := json.Unmarshal(data, &ck); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrModelLoad, path, err)
	}
	m, err := FromCheckpoint(ck)
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Info("加载修正模型")
	return m, nil
}
