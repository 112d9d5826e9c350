package correction

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"heatsink/thermal"
)

func unitStats() (Features, Features) {
	var mean, std Features
	for i := range std {
		std[i] = 1
	}
	return mean, std
}

func newTestModel(t *testing.T, seed int64) *Model {
	t.Helper()
	mean, std := unitStats()
	m, err := New(NewNetwork(rand.New(rand.NewSource(seed))), mean, std)
	require.NoError(t, err)
	return m
}

func TestPredictBounded(t *testing.T) {
	m := newTestModel(t, 1)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		var x Features
		for j := range x {
			x[j] = (rng.Float64()*2 - 1) * math.Pow(10, float64(rng.Intn(12)))
		}
		delta, err := m.Predict(x)
		require.NoError(t, err)
		assert.Less(t, math.Abs(delta), Scale)
	}
}

func TestPredictSaturatedOutputStaysInside(t *testing.T) {
	mean, std := unitStats()
	net := NewNetwork(rand.New(rand.NewSource(3)))
	last := net.Layers[len(net.Layers)-1]
	_, c := last.W.Dims()
	for j := 0; j < c; j++ {
		last.W.Set(0, j, MaxLogit/float64(c+2))
	}
	last.B.SetVec(0, MaxLogit/float64(c+2))

	m, err := New(net, mean, std)
	require.NoError(t, err)
	for _, v := range []float64{-1e9, -1e3, 0, 1e3, 1e9} {
		var x Features
		for j := range x {
			x[j] = v
		}
		delta, err := m.Predict(x)
		require.NoError(t, err)
		assert.Greater(t, delta, -Scale)
		assert.Less(t, delta, Scale)
	}
}

func TestNewRejectsSaturatingOutputLayer(t *testing.T) {
	mean, std := unitStats()
	net := NewNetwork(rand.New(rand.NewSource(4)))
	net.Layers[len(net.Layers)-1].W.Set(0, 0, 100)

	_, err := New(net, mean, std)
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestPredictRejectsNonFinite(t *testing.T) {
	m := newTestModel(t, 5)
	var x Features
	x[2] = math.NaN()
	_, err := m.Predict(x)
	assert.ErrorIs(t, err, thermal.ErrInvalidInput)

	x[2] = math.Inf(-1)
	_, err = m.Predict(x)
	assert.ErrorIs(t, err, thermal.ErrInvalidInput)

	mean, std := unitStats()
	std[0] = 1e-310
	tiny, err := New(NewNetwork(rand.New(rand.NewSource(5))), mean, std)
	require.NoError(t, err)
	_, err = tiny.Predict(Features{1e10})
	assert.ErrorIs(t, err, thermal.ErrInvalidInput)
}

func TestCorrectIsAdditive(t *testing.T) {
	for _, tc := range []struct{ physical, delta float64 }{
		{97.49486366231099, -3.25},
		{25, 0},
		{150.125, 19.999},
	} {
		c := Correct(tc.physical, tc.delta)
		assert.Equal(t, tc.physical+tc.delta, c.Corrected)
		assert.Equal(t, tc.physical, c.Physical)
		assert.Equal(t, tc.delta, c.Delta)
	}
}

func TestApply(t *testing.T) {
	m := newTestModel(t, 6)
	p, hs, mt, air := thermal.DefaultProcessor(), thermal.DefaultHeatSink(), thermal.DefaultMaterial(), thermal.DefaultAir()

	c, res, err := m.Apply(p, hs, mt, air)
	require.NoError(t, err)
	assert.Equal(t, res.Physical, c.Physical)
	assert.Equal(t, c.Physical+c.Delta, c.Corrected)

	hs.FinCount = 1
	_, _, err = m.Apply(p, hs, mt, air)
	assert.ErrorIs(t, err, thermal.ErrInvalidGeometry)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	mean := Features{0.045, 0.045, 125, 2.25, 49.5, 0.0245, 167}
	std := Features{0.0087, 0.0087, 43.3, 1.01, 17.3, 1e-8, 1e-8}
	m, err := New(NewNetwork(rand.New(rand.NewSource(7))), mean, std)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ckpt", "pgnn.json")
	require.NoError(t, Save(path, m))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Mean(), loaded.Mean())
	assert.Equal(t, m.Std(), loaded.Std())

	x := thermal.Features(thermal.DefaultProcessor(), thermal.DefaultHeatSink(), thermal.DefaultMaterial(), thermal.DefaultAir())
	want, err := m.Predict(x)
	require.NoError(t, err)
	got, err := loaded.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(want), math.Float64bits(got))

	for i, l := range m.net.Layers {
		assert.True(t, mat.Equal(l.W, loaded.net.Layers[i].W))
		assert.True(t, mat.Equal(l.B, loaded.net.Layers[i].B))
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		return path
	}

	good := newTestModel(t, 8).Checkpoint()

	short := good
	short.Mean = short.Mean[:6]

	zeroStd := good
	zeroStd.Std = append([]float64(nil), good.Std...)
	zeroStd.Std[3] = 0

	missingLayer := good
	missingLayer.Layers = good.Layers[:3]

	wideInput := good
	wideInput.Layers = append([]CheckpointLayer(nil), good.Layers...)
	wideInput.Layers[0] = CheckpointLayer{Weight: make([][]float64, 64), Bias: make([]float64, 64)}
	for i := range wideInput.Layers[0].Weight {
		wideInput.Layers[0].Weight[i] = make([]float64, 8)
	}

	cases := map[string]func() (*Model, error){
		"missing":        func() (*Model, error) { return Load(filepath.Join(dir, "nope.json")) },
		"malformed":      func() (*Model, error) { return Load(write("bad.json", "{layers")) },
		"short mean":     func() (*Model, error) { return FromCheckpoint(short) },
		"zero std":       func() (*Model, error) { return FromCheckpoint(zeroStd) },
		"missing layer":  func() (*Model, error) { return FromCheckpoint(missingLayer) },
		"eight features": func() (*Model, error) { return FromCheckpoint(wideInput) },
		"empty document": func() (*Model, error) { return Load(write("empty.json", "{}")) },
	}
	for name, load := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := load()
			assert.Nil(t, m)
			assert.ErrorIs(t, err, ErrModelLoad)
		})
	}
}
