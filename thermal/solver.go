package thermal

import (
	log "github.com/sirupsen/logrus"
)

type Result struct {
	Physical float64 // ℃
	Excel    float64 // ℃, 表格参考值，未提供时等于 Physical
	Details  Details
}

// Resistances 串联热阻网络各项, K/W
type Resistances struct {
	Rjc   float64 `json:"R_jc"`
	Rtim  float64 `json:"R_tim"`
	Rcond float64 `json:"R_cond"`
	Rconv float64 `json:"R_conv"`
}

func (r Resistances) Total() float64 {
	return r.Rjc + r.Rtim + r.Rcond + r.Rconv
}

// Network validates the inputs and evaluates every resistance of the
// junction-to-ambient path.
func Network(p Processor, hs HeatSink, m Material, air Air) (Resistances, Details, error) {
	if err := p.Validate(); err != nil {
		return Resistances{}, Details{}, err
	}
	if err := m.Validate(); err != nil {
		return Resistances{}, Details{}, err
	}
	area := p.DieArea()
	if area == 0 {
		return Resistances{}, Details{}, geometryError("solve", "die area is zero")
	}

	details, err := Convection(hs, air)
	if err != nil {
		return Resistances{}, Details{}, err
	}

	r := Resistances{
		Rjc:   p.Rjc,
		Rtim:  m.TimThickness / (m.TimK * area),
		Rcond: hs.BaseThickness / (m.AluminumK * area),
		Rconv: details.Rconv,
	}
	for name, v := range map[string]float64{"R_tim": r.Rtim, "R_cond": r.Rcond, "R_total": r.Total()} {
		if !isFinite(v) || v < 0 {
			return Resistances{}, Details{}, degenerateError("solve", "%s is %g", name, v)
		}
	}
	return r, details, nil
}

// Solve 稳态结温 Tj = Ta + TDP * R_total
func Solve(p Processor, hs HeatSink, m Material, air Air) (Result, error) {
	r, details, err := Network(p, hs, m, air)
	if err != nil {
		return Result{}, err
	}

	tj := air.Temperature + p.TDP*r.Total()
	if !isFinite(tj) {
		return Result{}, degenerateError("solve", "junction temperature is %g", tj)
	}

	log.WithFields(log.Fields{
		"tdp":     p.TDP,
		"fins":    hs.FinCount,
		"regime":  details.Regime,
		"R_total": r.Total(),
		"Tj":      tj,
	}).Debug("热阻网络求解")

	return Result{
		Physical: tj,
		Excel:    tj,
		Details:  details,
	}, nil
}
