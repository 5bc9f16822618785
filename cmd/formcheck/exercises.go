package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newExercisesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List the exercise catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tJOINTS\tANGLE\tTHRESHOLD")
			for _, ex := range catalog.List() {
				fmt.Fprintf(w, "%s\t%s-%s-%s\t%g-%g\t%.2f\n",
					ex.Name, ex.Joints[0], ex.Joints[1], ex.Joints[2],
					ex.Range.Min, ex.Range.Max, ex.Threshold)
			}
			return w.Flush()
		},
	}
}
