package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hydroml/potable/dataset"
)

var (
	describeData   string
	describeTarget string
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print per-column descriptive statistics for the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := dataset.ReadCSV(describeData, describeTarget)
		if err != nil {
			return err
		}

		fmt.Printf("%d rows, %d predictor columns, target %q\n\n",
			table.NRows(), table.NFeatures(), table.TargetName())
		fmt.Print(dataset.FormatSummaries(table.Describe()))

		if missing := table.ColumnsWithMissing(); len(missing) > 0 {
			fmt.Printf("\ncolumns with missing entries: %v\n", missing)
		}
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVar(&describeData, "data", "water_potability.csv", "path to the dataset CSV")
	describeCmd.Flags().StringVar(&describeTarget, "target", "Potability", "label column name")
}
