package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"heatsink/store"
)

var (
	runsLimit int
	runsID    string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded training runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer s.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		if runsID != "" {
			r, err := s.GetRun(cmd.Context(), runsID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "iteration\tloss\n")
			for i, loss := range r.Losses {
				if i%200 == 0 || i == len(r.Losses)-1 {
					fmt.Fprintf(w, "%d\t%.6f\n", i, loss)
				}
			}
			fmt.Fprintf(w, "final\t%.6f\n", r.FinalLoss)
			return nil
		}

		runs, err := s.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "ID\tSTARTED\tSEED\tSAMPLES\tITER\tLOSS\tCHECKPOINT\n")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.4f -> %.4f\t%s\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Seed, r.Samples,
				r.Iterations, r.InitialLoss, r.FinalLoss, r.Checkpoint)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list")
	runsCmd.Flags().StringVar(&runsID, "id", "", "show the loss curve of one run")
}
