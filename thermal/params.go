package thermal

import (
	"fmt"
	"math"
)

// 默认参数，单位统一为 m, W, K/W, ℃
const (
	DefaultDieLength    = 0.0525
	DefaultDieWidth     = 0.045
	DefaultDieThickness = 0.0022
	DefaultTDP          = 150.0
	DefaultRjc          = 0.1

	DefaultSinkLength     = 0.09
	DefaultSinkWidth      = 0.116
	DefaultBaseThickness  = 0.0025
	DefaultFinCount       = 60
	DefaultFinThickness   = 0.0008
	DefaultOverallHeight  = 0.027
	DefaultAluminumK      = 167.0
	DefaultTimK           = 4.0
	DefaultTimThickness   = 0.0001
	DefaultAirTemperature = 25.0
	DefaultAirK           = 0.0262
	DefaultAirNu          = 1.57e-5
	DefaultAirPr          = 0.71
	DefaultAirVelocity    = 1.0
)

type Processor struct {
	DieLength    float64 // m
	DieWidth     float64 // m
	DieThickness float64 // m
	TDP          float64 // W
	Rjc          float64 // junction to case, K/W
}

func DefaultProcessor() Processor {
	return Processor{
		DieLength:    DefaultDieLength,
		DieWidth:     DefaultDieWidth,
		DieThickness: DefaultDieThickness,
		TDP:          DefaultTDP,
		Rjc:          DefaultRjc,
	}
}

func (p Processor) DieArea() float64 {
	return p.DieLength * p.DieWidth
}

func (p Processor) Validate() error {
	if err := finite("processor", map[string]float64{
		"die_length":    p.DieLength,
		"die_width":     p.DieWidth,
		"die_thickness": p.DieThickness,
		"tdp":           p.TDP,
		"R_jc":          p.Rjc,
	}); err != nil {
		return err
	}
	if p.DieLength <= 0 || p.DieWidth <= 0 || p.DieThickness <= 0 {
		return geometryError("processor", "die dimensions must be positive, got %gx%gx%g",
			p.DieLength, p.DieWidth, p.DieThickness)
	}
	if p.TDP < 0 {
		return inputError("processor", "tdp must not be negative, got %g", p.TDP)
	}
	if p.Rjc < 0 {
		return inputError("processor", "R_jc must not be negative, got %g", p.Rjc)
	}
	return nil
}

type HeatSink struct {
	Length        float64 // m, along the airflow
	Width         float64 // m
	BaseThickness float64 // m
	OverallHeight float64 // m, base included
	FinCount      int
	FinThickness  float64 // m
}

func DefaultHeatSink() HeatSink {
	return HeatSink{
		Length:        DefaultSinkLength,
		Width:         DefaultSinkWidth,
		BaseThickness: DefaultBaseThickness,
		OverallHeight: DefaultOverallHeight,
		FinCount:      DefaultFinCount,
		FinThickness:  DefaultFinThickness,
	}
}

func (hs HeatSink) FinHeight() float64 {
	return hs.OverallHeight - hs.BaseThickness
}

// FinSpacing is the clear gap between neighbouring fins. Callers must check
// FinCount >= 2 first, Validate does.
func (hs HeatSink) FinSpacing() float64 {
	return (hs.Width - float64(hs.FinCount)*hs.FinThickness) / float64(hs.FinCount-1)
}

func (hs HeatSink) Validate() error {
	if err := finite("heat_sink", map[string]float64{
		"length":         hs.Length,
		"width":          hs.Width,
		"base_thickness": hs.BaseThickness,
		"overall_height": hs.OverallHeight,
		"fin_thickness":  hs.FinThickness,
	}); err != nil {
		return err
	}
	if hs.Length <= 0 || hs.Width <= 0 || hs.BaseThickness <= 0 || hs.FinThickness <= 0 {
		return geometryError("heat_sink", "dimensions must be positive")
	}
	if hs.FinCount < 2 {
		return geometryError("heat_sink", "need at least 2 fins, got %d", hs.FinCount)
	}
	if float64(hs.FinCount)*hs.FinThickness >= hs.Width {
		return geometryError("heat_sink", "%d fins of %g m do not fit in width %g m",
			hs.FinCount, hs.FinThickness, hs.Width)
	}
	if hs.FinHeight() <= 0 {
		return geometryError("heat_sink", "overall height %g must exceed base thickness %g",
			hs.OverallHeight, hs.BaseThickness)
	}
	return nil
}

type Material struct {
	AluminumK    float64 // W/m·K
	TimK         float64 // W/m·K
	TimThickness float64 // m
}

func DefaultMaterial() Material {
	return Material{
		AluminumK:    DefaultAluminumK,
		TimK:         DefaultTimK,
		TimThickness: DefaultTimThickness,
	}
}

func (m Material) Validate() error {
	if err := finite("materials", map[string]float64{
		"aluminum_k":    m.AluminumK,
		"tim_k":         m.TimK,
		"tim_thickness": m.TimThickness,
	}); err != nil {
		return err
	}
	if m.AluminumK <= 0 || m.TimK <= 0 || m.TimThickness <= 0 {
		return inputError("materials", "conductivities and thickness must be positive")
	}
	return nil
}

type Air struct {
	Temperature float64 // ambient, ℃
	K           float64 // W/m·K
	Nu          float64 // kinematic viscosity, m²/s
	Pr          float64
	Velocity    float64 // m/s
}

func DefaultAir() Air {
	return Air{
		Temperature: DefaultAirTemperature,
		K:           DefaultAirK,
		Nu:          DefaultAirNu,
		Pr:          DefaultAirPr,
		Velocity:    DefaultAirVelocity,
	}
}

func (a Air) Validate() error {
	if err := finite("air", map[string]float64{
		"temperature": a.Temperature,
		"k":           a.K,
		"nu":          a.Nu,
		"pr":          a.Pr,
		"velocity":    a.Velocity,
	}); err != nil {
		return err
	}
	if a.K <= 0 || a.Nu <= 0 || a.Pr <= 0 {
		return inputError("air", "k, nu and pr must be positive")
	}
	if a.Velocity < 0 {
		return inputError("air", "velocity must not be negative, got %g", a.Velocity)
	}
	return nil
}

func finite(op string, fields map[string]float64) error {
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &Error{Kind: InvalidInput, Op: op, Err: fmt.Errorf("%s is not finite: %v", name, v)}
		}
	}
	return nil
}
