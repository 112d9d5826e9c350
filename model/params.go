package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"heatsink/correction"
	"heatsink/thermal"
)

// Params 一次求解所需的全部参数
type Params struct {
	Processor thermal.Processor
	HeatSink  thermal.HeatSink
	Material  thermal.Material
	Air       thermal.Air
}

func DefaultParams() Params {
	return Params{
		Processor: thermal.DefaultProcessor(),
		HeatSink:  thermal.DefaultHeatSink(),
		Material:  thermal.DefaultMaterial(),
		Air:       thermal.DefaultAir(),
	}
}

func (p Params) Validate() error {
	if err := p.Processor.Validate(); err != nil {
		return err
	}
	if err := p.HeatSink.Validate(); err != nil {
		return err
	}
	if err := p.Material.Validate(); err != nil {
		return err
	}
	return p.Air.Validate()
}

func set(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// Params overlays the supplied fields on the defaults and validates the result.
func (r Request) Params() (Params, error) {
	p := DefaultParams()
	if v := r.Processor; v != nil {
		set(&p.Processor.DieLength, v.DieLength)
		set(&p.Processor.DieWidth, v.DieWidth)
		set(&p.Processor.DieThickness, v.DieThickness)
		set(&p.Processor.TDP, v.TDP)
		set(&p.Processor.Rjc, v.Rjc)
	}
	if v := r.HeatSink; v != nil {
		set(&p.HeatSink.Length, v.Length)
		set(&p.HeatSink.Width, v.Width)
		set(&p.HeatSink.BaseThickness, v.BaseThickness)
		set(&p.HeatSink.FinThickness, v.FinThickness)
		set(&p.HeatSink.OverallHeight, v.OverallHeight)
		if v.NumFins != nil {
			p.HeatSink.FinCount = *v.NumFins
		}
	}
	if v := r.Materials; v != nil {
		set(&p.Material.AluminumK, v.AluminumK)
		set(&p.Material.TimK, v.TimK)
		set(&p.Material.TimThickness, v.TimThickness)
	}
	if v := r.Air; v != nil {
		set(&p.Air.Temperature, v.Temperature)
		set(&p.Air.K, v.K)
		set(&p.Air.Nu, v.Nu)
		set(&p.Air.Pr, v.Pr)
		set(&p.Air.Velocity, v.Velocity)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func invalid(err error) error {
	return &thermal.Error{Kind: thermal.InvalidInput, Op: "decode", Err: err}
}

// DecodeRequest reads a JSON request body. An empty body means all defaults.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	data, err := io.ReadAll(r)
	if err != nil {
		return req, invalid(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, invalid(err)
	}
	return req, nil
}

// LoadScenario reads a request from a .yaml/.yml or .json file.
func LoadScenario(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("read scenario: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var req Request
		if err := yaml.Unmarshal(data, &req); err != nil {
			return Request{}, invalid(fmt.Errorf("parse %s: %w", path, err))
		}
		return req, nil
	default:
		return DecodeRequest(bytes.NewReader(data))
	}
}

func Analyze(res thermal.Result) AnalyzeResponse {
	return AnalyzeResponse{
		TjPhysics: res.Physical,
		TjExcel:   res.Excel,
		Details:   res.Details,
	}
}

// Solve runs the physics-only path.
func Solve(p Params) (AnalyzeResponse, error) {
	res, err := thermal.Solve(p.Processor, p.HeatSink, p.Material, p.Air)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	return Analyze(res), nil
}

// Predict runs the physics path and adds the learned correction.
func Predict(m *correction.Model, p Params) (PredictResponse, error) {
	c, res, err := m.Apply(p.Processor, p.HeatSink, p.Material, p.Air)
	if err != nil {
		return PredictResponse{}, err
	}
	return PredictResponse{
		TjPhysics:   c.Physical,
		TjCorrected: c.Corrected,
		DeltaT:      c.Delta,
		Details:     res.Details,
	}, nil
}
