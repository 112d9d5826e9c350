package thermal

import "math"

type FlowRegime string

const (
	Laminar   FlowRegime = "laminar"
	Turbulent FlowRegime = "turbulent"
)

const (
	// 层流/湍流分界雷诺数，边界值归湍流
	CriticalReynolds = 2300.0
	// 翅片阵列效率，阵列损失不单独建模
	FinEfficiency = 0.42
)

// Details 对流换热计算的中间量
type Details struct {
	Re        float64    `json:"Re"`
	Nu        float64    `json:"Nu"`
	H         float64    `json:"h"`
	AreaTotal float64    `json:"A_total"`
	Rconv     float64    `json:"R_conv"`
	Regime    FlowRegime `json:"regime"`
}

func RegimeOf(re float64) FlowRegime {
	if re < CriticalReynolds {
		return Laminar
	}
	return Turbulent
}

// Nusselt applies the developing-laminar or Dittus-Boelter correlation for
// the channel between two fins of the given spacing and length.
func Nusselt(re, pr, spacing, length float64) (float64, FlowRegime) {
	regime := RegimeOf(re)
	if regime == Laminar {
		return 1.86 * math.Pow(re*pr*(2*spacing/length), 1.0/3), regime
	}
	return 0.023 * math.Pow(re, 0.8) * math.Pow(pr, 0.3), regime
}

// ExchangeArea 翅片面积(计入效率) + 翅片间裸露底板面积
func ExchangeArea(hs HeatSink) float64 {
	n := float64(hs.FinCount)
	finArea := n * 2 * hs.FinHeight() * hs.Length * FinEfficiency
	baseArea := hs.Length*hs.Width - n*hs.FinThickness*hs.Length
	return finArea + baseArea
}

func Convection(hs HeatSink, air Air) (Details, error) {
	if err := hs.Validate(); err != nil {
		return Details{}, err
	}
	if err := air.Validate(); err != nil {
		return Details{}, err
	}

	sf := hs.FinSpacing()
	if sf <= 0 {
		return Details{}, degenerateError("convection", "fin spacing %g is not positive", sf)
	}
	re := air.Velocity * sf / air.Nu
	nu, regime := Nusselt(re, air.Pr, sf, hs.Length)
	h := nu * air.K / (2 * sf)
	area := ExchangeArea(hs)

	conductance := h * area
	if conductance == 0 {
		return Details{}, degenerateError("convection",
			"division by zero: h=%g, A_total=%g (velocity %g m/s)", h, area, air.Velocity)
	}
	rconv := 1 / conductance
	if !isFinite(re) || !isFinite(nu) || !isFinite(h) || !isFinite(rconv) || rconv < 0 {
		return Details{}, degenerateError("convection",
			"non-finite or negative term: Re=%g Nu=%g h=%g R_conv=%g", re, nu, h, rconv)
	}

	return Details{
		Re:        re,
		Nu:        nu,
		H:         h,
		AreaTotal: area,
		Rconv:     rconv,
		Regime:    regime,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
