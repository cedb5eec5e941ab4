package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naaf-labs/naaf-cli/internal/model"
	"github.com/naaf-labs/naaf-cli/internal/store"
)

var (
	runsEntity string
	runsLimit  int
	runsJSON   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted assessment runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		filter := store.RunFilter{Limit: runsLimit}
		if runsEntity != "" {
			filter.EntityKey = model.NormalizeEntityKey(runsEntity)
		}
		runs, err := st.ListRuns(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if runsJSON {
			return json.NewEncoder(os.Stdout).Encode(runs)
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}
		for _, run := range runs {
			overall := "  -"
			if run.Overall != nil {
				overall = fmt.Sprintf("%5.1f", *run.Overall)
			}
			fmt.Printf("%-46s %-20s %s  %s\n", run.ID, run.Entity.Name, overall, run.Tier)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List assessed countries with their latest scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		entities, err := st.ListEntities(cmd.Context())
		if err != nil {
			return err
		}
		if len(entities) == 0 {
			fmt.Println("no countries assessed yet")
			return nil
		}
		fmt.Printf("%-24s %7s  %-22s %5s  %s\n", "COUNTRY", "SCORE", "TIER", "RUNS", "UPDATED")
		for _, e := range entities {
			fmt.Printf("%-24s %7.1f  %-22s %5d  %s\n",
				e.Entity, e.LatestScore, e.Tier, e.RunCount,
				e.LastUpdated.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsEntity, "country", "", "filter by country name")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "emit JSON")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(entitiesCmd)
}
