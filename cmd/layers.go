package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/naaf-labs/naaf-cli/internal/registry"
)

var layersVerbose bool

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Show the assessment dimensions and their weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.Default()
		if cfg.Registry.Path != "" {
			var err error
			reg, err = registry.LoadFromFile(cfg.Registry.Path)
			if err != nil {
				return eris.Wrap(err, "load dimension registry")
			}
		}

		for _, dim := range reg.Dimensions() {
			fmt.Printf("%d. %-38s %5.1f pts\n", dim.Number, dim.Name, dim.Weight)
			if !layersVerbose {
				continue
			}
			for _, m := range dim.Metrics {
				fmt.Printf("     %-36s %5.1f pts  (%s, benchmark %g %s)\n",
					m.Name, m.Weight, m.Direction, m.Benchmark, m.Unit)
			}
		}
		return nil
	},
}

func init() {
	layersCmd.Flags().BoolVarP(&layersVerbose, "verbose", "v", false, "include per-metric detail")
	rootCmd.AddCommand(layersCmd)
}
