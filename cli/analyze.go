package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"heatsink/correction"
	"heatsink/model"
	"heatsink/thermal"
)

var (
	analyzeFile        string
	analyzePredict     bool
	analyzeResistances bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Solve one scenario from a YAML/JSON file (defaults when omitted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req model.Request
		if analyzeFile != "" {
			var err error
			if req, err = model.LoadScenario(analyzeFile); err != nil {
				return err
			}
		}
		p, err := req.Params()
		if err != nil {
			return err
		}

		out := map[string]interface{}{}
		if analyzePredict {
			predictor, err := correction.Load(cfg.Model.Checkpoint)
			if err != nil {
				return err
			}
			resp, err := model.Predict(predictor, p)
			if err != nil {
				return err
			}
			out["result"] = resp
		} else {
			resp, err := model.Solve(p)
			if err != nil {
				return err
			}
			out["result"] = resp
		}
		if analyzeResistances {
			r, _, err := thermal.Network(p.Processor, p.HeatSink, p.Material, p.Air)
			if err != nil {
				return err
			}
			out["resistances"] = r
			out["R_total"] = r.Total()
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFile, "file", "f", "", "scenario file (.yaml, .yml or .json)")
	f.BoolVar(&analyzePredict, "predict", false, "apply the learned correction from [model] checkpoint")
	f.BoolVar(&analyzeResistances, "resistances", false, "include the individual resistance terms")
}
