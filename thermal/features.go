package thermal

const FeatureCount = 7

// FeatureNames lists the correction model inputs in vector order.
var FeatureNames = [FeatureCount]string{
	"die_length", "die_width", "tdp", "air_velocity", "fin_count", "fin_height", "aluminum_k",
}

// Features builds the correction model input. Fin height is derived here from
// the heat sink so it can never go stale.
func Features(p Processor, hs HeatSink, m Material, air Air) [FeatureCount]float64 {
	return [FeatureCount]float64{
		p.DieLength,
		p.DieWidth,
		p.TDP,
		air.Velocity,
		float64(hs.FinCount),
		hs.FinHeight(),
		m.AluminumK,
	}
}
